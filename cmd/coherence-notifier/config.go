package main

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	coherence "github.com/huykn/cache-coherence"
)

// settings is the runtime configuration of the notifier binary.
type settings struct {
	Notifier    coherence.Config
	MetricsAddr string
	LogLevel    string
}

// loadSettings reads defaults, an optional YAML file and COHERENCE_* environment
// variables, in increasing order of precedence.
func loadSettings(path string) (settings, error) {
	v := viper.New()
	v.SetEnvPrefix("COHERENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := coherence.DefaultConfig()
	v.SetDefault("pod_id", "")
	v.SetDefault("redis.addr", def.RedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", def.RedisDB)
	v.SetDefault("channel_prefix", def.ChannelPrefix)
	v.SetDefault("topic_prefix", def.TopicPrefix)
	v.SetDefault("entity_type", def.EntityType)
	v.SetDefault("format", def.SerializationFormat)
	v.SetDefault("local_cache", false)
	v.SetDefault("debug", false)
	v.SetDefault("timeout", def.ContextTimeout)
	v.SetDefault("concurrency", def.Concurrency)
	v.SetDefault("retry.max_attempts", def.MaxAttempts)
	v.SetDefault("retry.backoff", def.RetryBackoff)
	v.SetDefault("prefix_on_delete", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("log.level", "info")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return settings{}, err
		}
	}

	cfg := def
	cfg.PodID = v.GetString("pod_id")
	cfg.RedisAddr = v.GetString("redis.addr")
	cfg.RedisPassword = v.GetString("redis.password")
	cfg.RedisDB = v.GetInt("redis.db")
	cfg.ChannelPrefix = v.GetString("channel_prefix")
	cfg.TopicPrefix = v.GetString("topic_prefix")
	cfg.EntityType = v.GetString("entity_type")
	cfg.SerializationFormat = v.GetString("format")
	cfg.EnableLocalCache = v.GetBool("local_cache")
	cfg.DebugMode = v.GetBool("debug")
	cfg.ContextTimeout = durationOr(v.GetDuration("timeout"), def.ContextTimeout)
	cfg.Concurrency = v.GetInt("concurrency")
	cfg.MaxAttempts = v.GetInt("retry.max_attempts")
	cfg.RetryBackoff = durationOr(v.GetDuration("retry.backoff"), def.RetryBackoff)
	cfg.PrefixOnDelete = v.GetBool("prefix_on_delete")

	return settings{
		Notifier:    cfg,
		MetricsAddr: v.GetString("metrics.addr"),
		LogLevel:    v.GetString("log.level"),
	}, nil
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
