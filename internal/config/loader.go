package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files and environment variables.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "im"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "IM"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return expandEnvVars(cfg), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")

	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.maxTokens", 4096)
	v.SetDefault("anthropic.timeout", "60s")

	v.SetDefault("transcription.model", "whisper-1")
	v.SetDefault("transcription.timeout", "120s")

	v.SetDefault("limits.confidenceThreshold", DefaultConfidenceThreshold)
	v.SetDefault("limits.maxRecordSeconds", DefaultMaxRecordSeconds)
	v.SetDefault("limits.minAudioBytes", DefaultMinAudioBytes)
	v.SetDefault("limits.maxAudioBytes", DefaultMaxAudioBytes)
	v.SetDefault("limits.minAnswerChars", DefaultMinAnswerChars)
	v.SetDefault("limits.minNotesChars", DefaultMinNotesChars)
	v.SetDefault("limits.minTranscriptChars", DefaultMinTranscriptChars)
	v.SetDefault("limits.maxTranscriptChars", DefaultMaxTranscriptChars)

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.redisAddr", "localhost:6379")
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("ratelimit.maxRequests", 10)

	v.SetDefault("store.path", "im.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings so
// secrets can live in the environment while the file stays committable.
func expandEnvVars(cfg Config) Config {
	cfg.Auth.Token = expandEnvString(cfg.Auth.Token)
	cfg.Auth.AdminToken = expandEnvString(cfg.Auth.AdminToken)
	cfg.Anthropic.APIKey = expandEnvString(cfg.Anthropic.APIKey)
	cfg.Anthropic.Model = expandEnvString(cfg.Anthropic.Model)
	cfg.Transcription.APIKey = expandEnvString(cfg.Transcription.APIKey)
	cfg.Transcription.Model = expandEnvString(cfg.Transcription.Model)
	cfg.RateLimit.RedisAddr = expandEnvString(cfg.RateLimit.RedisAddr)
	cfg.Store.Path = expandEnvString(cfg.Store.Path)
	cfg.Logging.Level = expandEnvString(cfg.Logging.Level)
	cfg.Logging.Format = expandEnvString(cfg.Logging.Format)
	return cfg
}

func expandEnvString(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.ExpandEnv(s)
}

func locateConfigFile(name string, paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{"yaml", "yml"} {
			candidate := filepath.Join(dir, name+"."+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}
