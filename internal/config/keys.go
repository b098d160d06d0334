package config

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownKey is returned when a dotted key is not a config setting.
var ErrUnknownKey = errors.New("unknown config key")

// Keys returns every dotted config key in sorted order.
func Keys() []string {
	keys := []string{
		"classifier.clarification_threshold",
		"classifier.category_weight",
		"classifier.entity_weight",
		"classifier.keyword_weight",
		"classifier.single_category_bonus",
		"classifier.unknown_confidence",
		"classifier.default_entity_confidence",
		"classifier.high_threshold",
		"classifier.medium_threshold",
		"decomposer.max_subtasks",
		"conversation.max_turns",
		"orchestrator.execution_confirmation",
		"orchestrator.verbosity",
		"lexicon.path",
		"lexicon.watch",
		"logging.level",
		"logging.file",
		"logging.json",
		"state.record",
		"state.db_path",
		"batch.workers",
	}
	sort.Strings(keys)
	return keys
}

// IsKnownKey reports whether key names a config setting.
func IsKnownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a dotted key.
func Get(cfg *Config, key string) (any, error) {
	if !IsKnownKey(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return toViper(cfg).Get(key), nil
}

// Set parses raw into the setting named by key and returns the updated config.
// The input config is not modified.
func Set(cfg *Config, key, raw string) (*Config, error) {
	if !IsKnownKey(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	v := toViper(cfg)
	v.Set(key, raw)

	updated := &Config{}
	if err := v.Unmarshal(updated); err != nil {
		return nil, fmt.Errorf("setting %s: %w", key, err)
	}
	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("setting %s: %w", key, err)
	}
	return updated, nil
}
