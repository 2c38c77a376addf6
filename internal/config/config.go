// Package config loads runtime settings from environment variables and an
// optional config file, and owns the reference model roster.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/run-bigpig/consilium/internal/backend"
	"github.com/run-bigpig/consilium/internal/logger"
	"github.com/run-bigpig/consilium/internal/models"
)

var log = logger.New("Config")

// Provider base URLs for the OpenAI-compatible endpoints.
const (
	MistralBaseURL   = "https://api.mistral.ai/v1"
	SambaNovaBaseURL = "https://api.sambanova.ai/v1"
)

// Config is the resolved runtime configuration.
type Config struct {
	Addr           string        // HTTP listen address
	DBPath         string        // sqlite path; empty keeps sessions in memory only
	SessionTTL     time.Duration // idle session retention
	ModeratorModel string        // default lead analyst key
	PacingScale    float64       // visual pacing multiplier; 0 disables pauses
	Verbose        bool

	// Defaults are process-level credentials by provider, used when a
	// session has not supplied its own.
	Defaults map[string]string
}

// Load reads configuration with viper. Environment variables override file
// settings; the provider key names match the upstream platforms.
func Load() *Config {
	v := viper.New()
	v.SetConfigName("consilium")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.consilium")

	v.SetDefault("addr", ":7860")
	v.SetDefault("db_path", "")
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("moderator_model", "mistral")
	v.SetDefault("pacing_scale", 0.0)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix("CONSILIUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider keys keep their conventional unprefixed names.
	_ = v.BindEnv("mistral_api_key", "MISTRAL_API_KEY")
	_ = v.BindEnv("sambanova_api_key", "SAMBANOVA_API_KEY")
	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("moderator_model", "MODERATOR_MODEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("config file unreadable: %v", err)
		}
	} else {
		log.Info("loaded config file %s", v.ConfigFileUsed())
	}

	cfg := &Config{
		Addr:           v.GetString("addr"),
		DBPath:         v.GetString("db_path"),
		SessionTTL:     v.GetDuration("session_ttl"),
		ModeratorModel: v.GetString("moderator_model"),
		PacingScale:    v.GetFloat64("pacing_scale"),
		Verbose:        v.GetBool("verbose"),
		Defaults: map[string]string{
			backend.ProviderMistral:   v.GetString("mistral_api_key"),
			backend.ProviderSambaNova: v.GetString("sambanova_api_key"),
			backend.ProviderGemini:    v.GetString("gemini_api_key"),
		},
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return cfg
}

// Roster is the reference expert lineup. Registration order is fixed: it
// drives speaking turns, role assignment and the ring topology. QwQ does not
// support function calling on SambaNova, so it joins without research tools.
func Roster() []models.ModelDescriptor {
	return []models.ModelDescriptor{
		{
			Key:           "mistral",
			Name:          "Mistral Large",
			Provider:      backend.ProviderMistral,
			ModelID:       "mistral-large-latest",
			BaseURL:       MistralBaseURL,
			SupportsTools: true,
		},
		{
			Key:           "sambanova_deepseek",
			Name:          "DeepSeek-R1",
			Provider:      backend.ProviderSambaNova,
			ModelID:       "DeepSeek-R1",
			BaseURL:       SambaNovaBaseURL,
			SupportsTools: true,
		},
		{
			Key:           "sambanova_llama",
			Name:          "Meta-Llama-3.3-70B-Instruct",
			Provider:      backend.ProviderSambaNova,
			ModelID:       "Meta-Llama-3.3-70B-Instruct",
			BaseURL:       SambaNovaBaseURL,
			SupportsTools: true,
		},
		{
			Key:           "sambanova_qwq",
			Name:          "QwQ-32B",
			Provider:      backend.ProviderSambaNova,
			ModelID:       "QwQ-32B",
			BaseURL:       SambaNovaBaseURL,
			SupportsTools: false,
		},
		{
			Key:           "gemini",
			Name:          "Gemini 2.0 Flash",
			Provider:      backend.ProviderGemini,
			ModelID:       "gemini-2.0-flash",
			SupportsTools: false,
		},
	}
}

// DescriptorByKey finds a roster entry.
func DescriptorByKey(key string) (models.ModelDescriptor, bool) {
	for _, d := range Roster() {
		if d.Key == key {
			return d, true
		}
	}
	return models.ModelDescriptor{}, false
}

// AvatarImages maps display names to roundtable avatars.
func AvatarImages() map[string]string {
	return map[string]string{
		"QwQ-32B":                     "https://cdn-avatars.huggingface.co/v1/production/uploads/620760a26e3b7210c2ff1943/-s1gyJfvbE1RgO5iBeNOi.png",
		"DeepSeek-R1":                 "https://logosandtypes.com/wp-content/uploads/2025/02/deepseek.svg",
		"Mistral Large":               "https://logosandtypes.com/wp-content/uploads/2025/02/mistral-ai.svg",
		"Meta-Llama-3.3-70B-Instruct": "https://registry.npmmirror.com/@lobehub/icons-static-png/1.46.0/files/dark/meta-color.png",
	}
}

// StatusReport renders model availability for a credential resolver.
func StatusReport(credential func(provider string) string) string {
	var b strings.Builder
	b.WriteString("## Expert Model Availability\n\n")
	for _, d := range Roster() {
		key := credential(d.Provider)
		status := "Not configured"
		if key != "" {
			tag := key
			if len(tag) > 3 {
				tag = tag[:3]
			}
			status = fmt.Sprintf("Available (Key: %s...)", tag)
		}
		fmt.Fprintf(&b, "**%s:** %s\n\n", d.Name, status)
	}
	b.WriteString("**Research Agent:** Available (Built-in + Native Function Calling)\n")
	return b.String()
}
