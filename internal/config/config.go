// Package config handles configuration loading and management for parley.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/parley/pkg/models"
)

// ProjectConfigName is the project-level config file searched for upward from the cwd.
const ProjectConfigName = ".parley.yaml"

// EnvPrefix prefixes environment overrides, e.g. PARLEY_CLASSIFIER_CLARIFICATION_THRESHOLD.
const EnvPrefix = "PARLEY"

// Config holds all configuration for parley.
type Config struct {
	Classifier   ClassifierConfig   `mapstructure:"classifier"`
	Decomposer   DecomposerConfig   `mapstructure:"decomposer"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Lexicon      LexiconConfig      `mapstructure:"lexicon"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	State        StateConfig        `mapstructure:"state"`
	Batch        BatchConfig        `mapstructure:"batch"`
}

// ClassifierConfig holds the heuristic constants of intent classification.
// None of them has a documented derivation; treat them as tunable.
type ClassifierConfig struct {
	// ClarificationThreshold is the combined confidence below which an intent is unclear.
	ClarificationThreshold float64 `mapstructure:"clarification_threshold"`
	// CategoryWeight weights the category confidence in the combined score.
	CategoryWeight float64 `mapstructure:"category_weight"`
	// EntityWeight weights the mean entity confidence in the combined score.
	EntityWeight float64 `mapstructure:"entity_weight"`
	// KeywordWeight converts a category score into a confidence.
	KeywordWeight float64 `mapstructure:"keyword_weight"`
	// SingleCategoryBonus is added when only one category scored.
	SingleCategoryBonus float64 `mapstructure:"single_category_bonus"`
	// UnknownConfidence is the category confidence when nothing matched.
	UnknownConfidence float64 `mapstructure:"unknown_confidence"`
	// DefaultEntityConfidence stands in for the entity mean when there are no entities.
	DefaultEntityConfidence float64 `mapstructure:"default_entity_confidence"`
	// HighThreshold is the lower bound of the high confidence level.
	HighThreshold float64 `mapstructure:"high_threshold"`
	// MediumThreshold is the lower bound of the medium confidence level.
	MediumThreshold float64 `mapstructure:"medium_threshold"`
}

// DecomposerConfig holds task decomposition settings.
type DecomposerConfig struct {
	MaxSubtasks int `mapstructure:"max_subtasks"`
}

// ConversationConfig holds conversation history settings.
type ConversationConfig struct {
	MaxTurns int `mapstructure:"max_turns"`
}

// OrchestratorConfig holds pipeline settings.
type OrchestratorConfig struct {
	// ExecutionConfirmation marks risky translated commands as needing confirmation.
	ExecutionConfirmation bool `mapstructure:"execution_confirmation"`
	// Verbosity is the initial feedback verbosity.
	Verbosity string `mapstructure:"verbosity"`
}

// LexiconConfig selects the keyword tables.
type LexiconConfig struct {
	// Path is a YAML table file. Empty uses the embedded tables.
	Path string `mapstructure:"path"`
	// Watch reloads Path when it changes.
	Watch bool `mapstructure:"watch"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// File receives log output. Empty logs to stderr.
	File string `mapstructure:"file"`
	JSON bool   `mapstructure:"json"`
}

// StateConfig controls the optional result transcript.
type StateConfig struct {
	Record bool `mapstructure:"record"`
	// DBPath is the SQLite file. Empty means .parley/state.db under the cwd.
	DBPath string `mapstructure:"db_path"`
}

// BatchConfig holds settings for the batch command.
type BatchConfig struct {
	Workers int `mapstructure:"workers"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (PARLEY_SECTION_KEY)
// 2. Project config (.parley.yaml in current directory or parent)
// 3. User config (~/.config/parley/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific file over the defaults.
// Environment overrides still apply.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Lexicon.Path = os.ExpandEnv(cfg.Lexicon.Path)
	cfg.Logging.File = os.ExpandEnv(cfg.Logging.File)
	cfg.State.DBPath = os.ExpandEnv(cfg.State.DBPath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return SaveToPath(cfg, filepath.Join(userConfigDir, "config.yaml"))
}

// SaveToPath writes the configuration to the given file.
func SaveToPath(cfg *Config, path string) error {
	v := toViper(cfg)
	v.SetConfigFile(path)
	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// toViper mirrors every key of cfg into a fresh viper instance.
func toViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("classifier.clarification_threshold", cfg.Classifier.ClarificationThreshold)
	v.Set("classifier.category_weight", cfg.Classifier.CategoryWeight)
	v.Set("classifier.entity_weight", cfg.Classifier.EntityWeight)
	v.Set("classifier.keyword_weight", cfg.Classifier.KeywordWeight)
	v.Set("classifier.single_category_bonus", cfg.Classifier.SingleCategoryBonus)
	v.Set("classifier.unknown_confidence", cfg.Classifier.UnknownConfidence)
	v.Set("classifier.default_entity_confidence", cfg.Classifier.DefaultEntityConfidence)
	v.Set("classifier.high_threshold", cfg.Classifier.HighThreshold)
	v.Set("classifier.medium_threshold", cfg.Classifier.MediumThreshold)
	v.Set("decomposer.max_subtasks", cfg.Decomposer.MaxSubtasks)
	v.Set("conversation.max_turns", cfg.Conversation.MaxTurns)
	v.Set("orchestrator.execution_confirmation", cfg.Orchestrator.ExecutionConfirmation)
	v.Set("orchestrator.verbosity", cfg.Orchestrator.Verbosity)
	v.Set("lexicon.path", cfg.Lexicon.Path)
	v.Set("lexicon.watch", cfg.Lexicon.Watch)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.json", cfg.Logging.JSON)
	v.Set("state.record", cfg.State.Record)
	v.Set("state.db_path", cfg.State.DBPath)
	v.Set("batch.workers", cfg.Batch.Workers)

	return v
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	defaults := toViper(Default())
	for _, key := range Keys() {
		v.SetDefault(key, defaults.Get(key))
	}
}

// getUserConfigDir returns the XDG config directory for parley.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "parley")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "parley")
	}
	return filepath.Join(home, ".config", "parley")
}

// findProjectConfig searches for .parley.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			ClarificationThreshold:  0.4,
			CategoryWeight:          0.7,
			EntityWeight:            0.3,
			KeywordWeight:           0.5,
			SingleCategoryBonus:     0.3,
			UnknownConfidence:       0.2,
			DefaultEntityConfidence: 0.5,
			HighThreshold:           0.7,
			MediumThreshold:         0.4,
		},
		Decomposer: DecomposerConfig{
			MaxSubtasks: 20,
		},
		Conversation: ConversationConfig{
			MaxTurns: 50,
		},
		Orchestrator: OrchestratorConfig{
			ExecutionConfirmation: true,
			Verbosity:             string(models.VerbosityNormal),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Batch: BatchConfig{
			Workers: 4,
		},
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	unit := map[string]float64{
		"classifier.clarification_threshold":   c.Classifier.ClarificationThreshold,
		"classifier.category_weight":           c.Classifier.CategoryWeight,
		"classifier.entity_weight":             c.Classifier.EntityWeight,
		"classifier.single_category_bonus":     c.Classifier.SingleCategoryBonus,
		"classifier.unknown_confidence":        c.Classifier.UnknownConfidence,
		"classifier.default_entity_confidence": c.Classifier.DefaultEntityConfidence,
		"classifier.high_threshold":            c.Classifier.HighThreshold,
		"classifier.medium_threshold":          c.Classifier.MediumThreshold,
	}
	for key, val := range unit {
		if val < 0 || val > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", key, val)
		}
	}
	if c.Classifier.KeywordWeight <= 0 {
		return fmt.Errorf("classifier.keyword_weight must be positive, got %v", c.Classifier.KeywordWeight)
	}
	if c.Classifier.MediumThreshold > c.Classifier.HighThreshold {
		return fmt.Errorf("classifier.medium_threshold %v exceeds high_threshold %v",
			c.Classifier.MediumThreshold, c.Classifier.HighThreshold)
	}
	if c.Decomposer.MaxSubtasks < 1 {
		return fmt.Errorf("decomposer.max_subtasks must be at least 1, got %d", c.Decomposer.MaxSubtasks)
	}
	if c.Conversation.MaxTurns < 1 {
		return fmt.Errorf("conversation.max_turns must be at least 1, got %d", c.Conversation.MaxTurns)
	}
	if !models.Verbosity(c.Orchestrator.Verbosity).Valid() {
		return fmt.Errorf("orchestrator.verbosity %q is not one of minimal, normal, detailed, debug", c.Orchestrator.Verbosity)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	return nil
}
