// Package config assembles the voxd configuration from flags, VOXD_*
// environment variables, an optional YAML file and an optional .env file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fmueller/voxd/internal/catalog"
	"github.com/fmueller/voxd/internal/engine"
	"github.com/fmueller/voxd/internal/platform"
)

const (
	ProvisionerMake     = "make"
	ProvisionerDownload = "download"

	EnvPrefix = "VOXD"
)

type Config struct {
	Addr        string `mapstructure:"addr" validate:"required"`
	ServiceName string `mapstructure:"service_name" validate:"required"`

	// WhisperRoot is the whisper.cpp checkout; builds run there.
	WhisperRoot  string `mapstructure:"whisper_root" validate:"required"`
	ModelsDir    string `mapstructure:"models_dir" validate:"required"`
	DefaultModel string `mapstructure:"default_model" validate:"required,model"`
	Provisioner  string `mapstructure:"provisioner" validate:"oneof=make download"`
	BuildTool    string `mapstructure:"build_tool" validate:"required"`

	EnginePath       string `mapstructure:"engine_path" validate:"required"`
	EngineSearchRoot string `mapstructure:"engine_search_root" validate:"required"`
	EngineName       string `mapstructure:"engine_name" validate:"required"`

	Resampler  string `mapstructure:"resampler" validate:"required"`
	StagingDir string `mapstructure:"staging_dir" validate:"required"`

	ProcessTimeout  time.Duration `mapstructure:"process_timeout" validate:"gte=0"`
	BuildTimeout    time.Duration `mapstructure:"build_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes" validate:"gt=0"`

	LogLevel   string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Verbose    bool   `mapstructure:"verbose"`
	JSON       bool   `mapstructure:"json"`
	NoProgress bool   `mapstructure:"no_progress"`
}

// Default returns the configuration used when nothing overrides it. Paths
// that derive from WhisperRoot are left empty for ApplyDefaults.
func Default() Config {
	root, _ := platform.ResolveWhisperRoot("")
	return Config{
		Addr:            ":8000",
		ServiceName:     "whisper-cpp",
		WhisperRoot:     root,
		DefaultModel:    catalog.DefaultModel,
		Provisioner:     ProvisionerMake,
		BuildTool:       "make",
		EngineName:      engine.DefaultName(),
		Resampler:       "ffmpeg",
		ProcessTimeout:  10 * time.Minute,
		BuildTimeout:    30 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		MaxUploadBytes:  100 << 20,
		LogLevel:        "info",
	}
}

// ApplyDefaults fills every path that derives from another setting.
func (c *Config) ApplyDefaults() {
	if c.WhisperRoot != "" {
		c.WhisperRoot = filepath.Clean(c.WhisperRoot)
	}
	if c.EngineName == "" {
		c.EngineName = engine.DefaultName()
	}
	if c.ModelsDir == "" && c.WhisperRoot != "" {
		c.ModelsDir = filepath.Join(c.WhisperRoot, "models")
	}
	if c.EnginePath == "" && c.WhisperRoot != "" {
		c.EnginePath = filepath.Join(c.WhisperRoot, "build", "bin", c.EngineName)
	}
	if c.EngineSearchRoot == "" && c.WhisperRoot != "" {
		c.EngineSearchRoot = filepath.Dir(c.WhisperRoot)
	}
	if c.StagingDir == "" {
		c.StagingDir = os.TempDir()
	}
}
