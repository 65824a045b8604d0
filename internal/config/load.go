package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type LoadOptions struct {
	// ConfigFile is an optional YAML file.
	ConfigFile string
	// EnvFile is an optional .env file. Variables already set in the
	// environment win over the file.
	EnvFile string
	// Flags holds flags registered with RegisterFlags. Only flags the user
	// changed override other sources.
	Flags *pflag.FlagSet
}

// Load resolves the configuration. Precedence, highest first: changed flags,
// VOXD_* environment variables, the config file, built-in defaults.
func Load(opts LoadOptions) (Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	defaults := settings(Default())
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.Flags != nil {
		var bindErr error
		opts.Flags.VisitAll(func(f *pflag.Flag) {
			key := flagKey(f.Name)
			if _, ok := defaults[key]; !ok {
				return
			}
			bindErr = errors.Join(bindErr, v.BindPFlag(key, f))
		})
		if bindErr != nil {
			return Config{}, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RegisterFlags adds one flag per setting to fs, defaulting to d.
func RegisterFlags(fs *pflag.FlagSet, d Config) {
	fs.String("addr", d.Addr, "HTTP listen address")
	fs.String("service-name", d.ServiceName, "Service name reported by /health")
	fs.String("whisper-root", d.WhisperRoot, "whisper.cpp checkout used to build models")
	fs.String("models-dir", d.ModelsDir, "Directory holding model files (default <whisper-root>/models)")
	fs.String("default-model", d.DefaultModel, "Model used when a request names none or an unknown one")
	fs.String("provisioner", d.Provisioner, "How missing models are provisioned: make|download")
	fs.String("build-tool", d.BuildTool, "Build tool invoked as <build-tool> -j <model>")
	fs.String("engine-path", d.EnginePath, "Engine executable checked first (default <whisper-root>/build/bin/<engine-name>)")
	fs.String("engine-search-root", d.EngineSearchRoot, "Directory searched for the engine when engine-path is missing")
	fs.String("engine-name", d.EngineName, "Engine executable file name")
	fs.String("resampler", d.Resampler, "ffmpeg executable used to resample uploads")
	fs.String("staging-dir", d.StagingDir, "Directory for temporary audio files (default system temp dir)")
	fs.Duration("process-timeout", d.ProcessTimeout, "Timeout for resampling and transcription; 0 disables it")
	fs.Duration("build-timeout", d.BuildTimeout, "Timeout for a model build; 0 disables it")
	fs.Duration("shutdown-timeout", d.ShutdownTimeout, "Time allowed for in-flight requests on shutdown")
	fs.Int64("max-upload-bytes", d.MaxUploadBytes, "Largest accepted audio file in bytes; multipart framing is allowed on top")
	fs.String("log-level", d.LogLevel, "Minimum log level: debug|info|warn|error")
	fs.Bool("verbose", d.Verbose, "Enable verbose logs (same as --log-level debug)")
	fs.Bool("json", d.JSON, "Enable JSON logging")
	fs.Bool("no-progress", d.NoProgress, "Disable progress indicators")
}

// Keys lists every setting name in sorted order.
func Keys() []string {
	keys := make([]string, 0)
	for key := range settings(Config{}) {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func settings(c Config) map[string]any {
	return map[string]any{
		"addr":               c.Addr,
		"service_name":       c.ServiceName,
		"whisper_root":       c.WhisperRoot,
		"models_dir":         c.ModelsDir,
		"default_model":      c.DefaultModel,
		"provisioner":        c.Provisioner,
		"build_tool":         c.BuildTool,
		"engine_path":        c.EnginePath,
		"engine_search_root": c.EngineSearchRoot,
		"engine_name":        c.EngineName,
		"resampler":          c.Resampler,
		"staging_dir":        c.StagingDir,
		"process_timeout":    c.ProcessTimeout,
		"build_timeout":      c.BuildTimeout,
		"shutdown_timeout":   c.ShutdownTimeout,
		"max_upload_bytes":   c.MaxUploadBytes,
		"log_level":          c.LogLevel,
		"verbose":            c.Verbose,
		"json":               c.JSON,
		"no_progress":        c.NoProgress,
	}
}
