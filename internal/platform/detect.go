package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "voxd"

type Runtime struct {
	OS   string
	Arch string
}

func CurrentRuntime() Runtime {
	return Runtime{
		OS:   runtime.GOOS,
		Arch: NormalizeArch(runtime.GOARCH),
	}
}

func NormalizeArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}

// System is the kernel name as uname reports it.
func (r Runtime) System() string {
	switch r.OS {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	case "":
		return ""
	default:
		return strings.ToUpper(r.OS[:1]) + r.OS[1:]
	}
}

// Machine is the hardware name as uname reports it.
func (r Runtime) Machine() string {
	switch r.Arch {
	case "amd64":
		return "x86_64"
	case "arm64":
		if r.OS == "linux" {
			return "aarch64"
		}
		return "arm64"
	case "386":
		return "i686"
	default:
		return r.Arch
	}
}

// Device describes where transcription runs. The engine is CPU only.
func (r Runtime) Device() string {
	return fmt.Sprintf("Device: cpu, System: %s, Machine: %s", r.System(), r.Machine())
}

// Describe is Device for the running host.
func Describe() string {
	return CurrentRuntime().Device()
}

// DefaultWhisperRootFor is where the whisper.cpp checkout lives when none
// is configured.
func DefaultWhisperRootFor(goos, homeDir, xdgDataHome string) (string, error) {
	dataDir, err := defaultDataDirFor(goos, homeDir, xdgDataHome)
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "whisper.cpp"), nil
}

func ResolveWhisperRoot(override string) (string, error) {
	if override != "" {
		return filepath.Clean(override), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	return DefaultWhisperRootFor(runtime.GOOS, homeDir, os.Getenv("XDG_DATA_HOME"))
}

func defaultDataDirFor(goos, homeDir, xdgDataHome string) (string, error) {
	if homeDir == "" {
		return "", errors.New("home directory is empty")
	}

	switch goos {
	case "linux":
		if xdgDataHome != "" {
			return filepath.Join(xdgDataHome, appName), nil
		}
		return filepath.Join(homeDir, ".local", "share", appName), nil
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appName), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", goos)
	}
}
