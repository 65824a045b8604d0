package whisper

import (
	"regexp"
	"strconv"
	"strings"
)

// whisper.cpp prints e.g. "whisper_print_timings:    total time =  1234.56 ms".
var totalTimePattern = regexp.MustCompile(`total time\s*=\s*([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)\s*ms`)

// ParseProcessingTime extracts the last reported total time from engine
// diagnostics. It returns nil when the marker is absent or unreadable.
func ParseProcessingTime(diagnostics string) *float64 {
	matches := totalTimePattern.FindAllStringSubmatch(diagnostics, -1)
	if len(matches) == 0 {
		return nil
	}

	value, err := strconv.ParseFloat(matches[len(matches)-1][1], 64)
	if err != nil {
		return nil
	}
	return &value
}

// failureHint explains common reasons the engine exits without output.
func failureHint(stderr string) string {
	value := strings.ToLower(strings.TrimSpace(stderr))
	switch {
	case value == "":
		return ""
	case isMissingSharedLibraryError(value):
		return "engine is missing shared libraries; rebuild whisper-cli with BUILD_SHARED_LIBS=OFF"
	case strings.Contains(value, "illegal instruction"):
		return "engine crashed with an illegal CPU instruction; rebuild whisper-cli for this CPU"
	case strings.Contains(value, "failed to load model"), strings.Contains(value, "failed to initialize whisper context"):
		return "engine could not load the model file; it may be truncated"
	default:
		return ""
	}
}

func isMissingSharedLibraryError(value string) bool {
	for _, pattern := range []string{
		"error while loading shared libraries",
		"cannot open shared object file",
		"dyld: library not loaded",
		"image not found",
	} {
		if strings.Contains(value, pattern) {
			return true
		}
	}
	return false
}
