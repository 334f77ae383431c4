// Package config loads CoreLab configuration.
//
// Sources, lowest to highest priority: defaults, the config file
// (corelab.yaml|toml|json), the config-dir .env, the working-dir .env,
// CORELAB_* environment variables, then flags bound by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"corelab/internal/ai"
	"corelab/internal/logger"
)

// EnvPrefix prefixes every environment variable CoreLab reads.
const EnvPrefix = "CORELAB"

// Viper keys.
const (
	KeyProvider        = "provider"
	KeyDBPath          = "db"
	KeyLogLevel        = "log-level"
	KeyLogFile         = "log-file"
	KeyListen          = "listen"
	KeyAITimeout       = "ai.timeout"
	KeyOpenAIAPIKey    = "openai.api_key"
	KeyOpenAIModel     = "openai.model"
	KeyOpenAIBaseURL   = "openai.base_url"
	KeyAnthropicAPIKey = "anthropic.api_key"
	KeyAnthropicModel  = "anthropic.model"
	KeyAnthropicURL    = "anthropic.base_url"
	KeyGeminiAPIKey    = "gemini.api_key"
	KeyGeminiModel     = "gemini.model"
	KeyGeminiBaseURL   = "gemini.base_url"
	KeyOllamaEndpoint  = "ollama.endpoint"
	KeyOllamaModel     = "ollama.model"
)

// Defaults.
const (
	DefaultProvider  = ai.ProviderOllama
	DefaultListen    = "127.0.0.1:7420"
	DefaultAITimeout = 60 * time.Second
	dbFileName       = "corelab.db"
)

var knownKeys = []string{
	KeyProvider, KeyDBPath, KeyLogLevel, KeyLogFile, KeyListen, KeyAITimeout,
	KeyOpenAIAPIKey, KeyOpenAIModel, KeyOpenAIBaseURL,
	KeyAnthropicAPIKey, KeyAnthropicModel, KeyAnthropicURL,
	KeyGeminiAPIKey, KeyGeminiModel, KeyGeminiBaseURL,
	KeyOllamaEndpoint, KeyOllamaModel,
}

// legacyKeyNames are unprefixed API key variables accepted after the
// CORELAB_ ones.
var legacyKeyNames = map[string][]string{
	ai.ProviderOpenAI:    {"OPENAI_API_KEY"},
	ai.ProviderAnthropic: {"ANTHROPIC_API_KEY"},
	ai.ProviderGemini:    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// Config is the resolved configuration of one process.
type Config struct {
	Provider  string
	DBPath    string
	LogLevel  string
	LogFile   string
	Listen    string
	AITimeout time.Duration

	OpenAI    ai.CloudSettings
	Anthropic ai.CloudSettings
	Gemini    ai.CloudSettings
	Ollama    ai.LocalSettings

	Paths Paths
}

// Paths records where configuration was looked for and what was loaded.
type Paths struct {
	ConfigDir       string
	ConfigFile      string // empty when no config file was read
	ConfigEnvPath   string
	ConfigEnvLoaded bool
	LocalEnvPath    string
	LocalEnvLoaded  bool
}

// Options controls where Load looks for files. Empty fields use the user
// config dir and the current working directory.
type Options struct {
	ConfigDir  string
	WorkDir    string
	ConfigFile string
}

// AISettings converts the provider part of c for ai.New.
func (c *Config) AISettings() ai.Settings {
	return ai.Settings{
		Provider:  c.Provider,
		OpenAI:    c.OpenAI,
		Anthropic: c.Anthropic,
		Gemini:    c.Gemini,
		Ollama:    c.Ollama,
	}
}

// Validate checks values that would make startup fail later.
func (c *Config) Validate() error {
	supported := false
	for _, name := range ai.SupportedProviders() {
		if strings.EqualFold(strings.TrimSpace(c.Provider), name) {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported provider '%s' (supported: %s)",
			c.Provider, strings.Join(ai.SupportedProviders(), ", "))
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("ai.timeout must be positive, got %s", c.AITimeout)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("database path is empty")
	}
	return nil
}

// Load resolves configuration into v. The CLI binds its flags to v before
// calling Load so flags take the highest priority.
func Load(v *viper.Viper, opts Options) (*Config, error) {
	paths, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}

	setDefaults(v, paths.ConfigDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("corelab")
		v.AddConfigPath(paths.ConfigDir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		paths.ConfigFile = v.ConfigFileUsed()
		logger.Debug("Config file loaded", "path", paths.ConfigFile)
	}

	dotenv := map[string]string{}
	if paths.ConfigEnvLoaded, err = loadDotEnv(paths.ConfigEnvPath, dotenv); err != nil {
		return nil, err
	}
	if paths.LocalEnvLoaded, err = loadDotEnv(paths.LocalEnvPath, dotenv); err != nil {
		return nil, err
	}
	if err := v.MergeConfigMap(dotEnvOverrides(dotenv)); err != nil {
		return nil, fmt.Errorf("failed to merge .env values: %w", err)
	}

	cfg := &Config{
		Provider:  strings.ToLower(strings.TrimSpace(v.GetString(KeyProvider))),
		DBPath:    v.GetString(KeyDBPath),
		LogLevel:  v.GetString(KeyLogLevel),
		LogFile:   v.GetString(KeyLogFile),
		Listen:    v.GetString(KeyListen),
		AITimeout: v.GetDuration(KeyAITimeout),
		OpenAI: ai.CloudSettings{
			APIKey:  apiKey(v, dotenv, ai.ProviderOpenAI, KeyOpenAIAPIKey),
			Model:   v.GetString(KeyOpenAIModel),
			BaseURL: v.GetString(KeyOpenAIBaseURL),
		},
		Anthropic: ai.CloudSettings{
			APIKey:  apiKey(v, dotenv, ai.ProviderAnthropic, KeyAnthropicAPIKey),
			Model:   v.GetString(KeyAnthropicModel),
			BaseURL: v.GetString(KeyAnthropicURL),
		},
		Gemini: ai.CloudSettings{
			APIKey:  apiKey(v, dotenv, ai.ProviderGemini, KeyGeminiAPIKey),
			Model:   v.GetString(KeyGeminiModel),
			BaseURL: v.GetString(KeyGeminiBaseURL),
		},
		Ollama: ai.LocalSettings{
			Endpoint: v.GetString(KeyOllamaEndpoint),
			Model:    v.GetString(KeyOllamaModel),
		},
		Paths: paths,
	}

	logger.Debug("Configuration resolved",
		"provider", cfg.Provider,
		"db", cfg.DBPath,
		"config_file", paths.ConfigFile,
		"config_env", paths.ConfigEnvLoaded,
		"local_env", paths.LocalEnvLoaded)
	return cfg, nil
}

// UserConfigDir returns $XDG_CONFIG_HOME/corelab, falling back to
// ~/.config/corelab.
func UserConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, "corelab"), nil
}

// EnvName returns the environment variable read for a viper key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

func resolvePaths(opts Options) (Paths, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := UserConfigDir()
		if err != nil {
			return Paths{}, err
		}
		configDir = dir
	}

	workDir := opts.WorkDir
	if workDir == "" {
		dir, err := os.Getwd()
		if err != nil {
			return Paths{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		workDir = dir
	}

	return Paths{
		ConfigDir:     configDir,
		ConfigEnvPath: filepath.Join(configDir, ".env"),
		LocalEnvPath:  filepath.Join(workDir, ".env"),
	}, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault(KeyProvider, DefaultProvider)
	v.SetDefault(KeyDBPath, filepath.Join(configDir, dbFileName))
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyListen, DefaultListen)
	v.SetDefault(KeyAITimeout, DefaultAITimeout)
	v.SetDefault(KeyOpenAIModel, ai.DefaultOpenAIModel)
	v.SetDefault(KeyAnthropicModel, ai.DefaultAnthropicModel)
	v.SetDefault(KeyGeminiModel, ai.DefaultGeminiModel)
	v.SetDefault(KeyOllamaEndpoint, ai.DefaultOllamaEndpoint)
	v.SetDefault(KeyOllamaModel, ai.DefaultOllamaModel)
}

// loadDotEnv merges the file at path into dst. A missing file is not an error.
func loadDotEnv(path string, dst map[string]string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read .env file %s: %w", path, err)
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return false, fmt.Errorf("failed to parse .env file %s: %w", path, err)
	}
	for key, value := range envMap {
		dst[key] = value
	}

	logger.Debug("Loaded .env file", "path", path, "entries", len(envMap))
	return true, nil
}

// dotEnvOverrides turns CORELAB_* entries from .env files into a nested map
// for viper's config layer. Real environment variables still win through
// AutomaticEnv.
func dotEnvOverrides(dotenv map[string]string) map[string]any {
	out := map[string]any{}
	for _, key := range knownKeys {
		value, ok := dotenv[EnvName(key)]
		if !ok {
			continue
		}

		node := out
		parts := strings.Split(key, ".")
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	return out
}

// apiKey resolves a provider key: CORELAB_<PROVIDER>_API_KEY through viper
// (env, .env, config file), then the unprefixed names from the environment,
// then from .env files.
func apiKey(v *viper.Viper, dotenv map[string]string, provider, key string) string {
	if value := strings.TrimSpace(v.GetString(key)); value != "" {
		return value
	}
	for _, name := range legacyKeyNames[provider] {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value
		}
	}
	for _, name := range legacyKeyNames[provider] {
		if value := strings.TrimSpace(dotenv[name]); value != "" {
			return value
		}
	}
	return ""
}
