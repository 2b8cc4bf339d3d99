// Package config reads the environment overrides of spec.md §6.3 the same
// way the teacher's logger.NewFromEnv reads its one verbosity variable: a
// small FromEnv constructor over typed fields, defaults baked in, no
// external configuration library.
package config

import (
	"os"
	"strconv"
)

// ConfidenceLevels are the closed, named thresholds of spec.md §3.5.
type ConfidenceLevels struct {
	Exact    float32
	High     float32
	Medium   float32
	Low      float32
	Minimum  float32
	VeryLow  float32
}

// DefaultConfidenceLevels returns the spec.md §3.5 defaults.
func DefaultConfidenceLevels() ConfidenceLevels {
	return ConfidenceLevels{
		Exact:   1.0,
		High:    0.75,
		Medium:  0.52,
		Low:     0.40,
		Minimum: 0.30,
		VeryLow: 0.20,
	}
}

// Config is the full set of spec.md §6.3 environment overrides.
type Config struct {
	SearchRadius         int // ZIYA_DIFF_SEARCH_RADIUS, default 50
	ContextSize          int // ZIYA_DIFF_CONTEXT_SIZE, 0 means "unset"
	ConfidenceThreshold  float32
	Confidence           ConfidenceLevels
	AdaptiveContext      bool // ZIYA_DIFF_ADAPTIVE_CONTEXT
	MaxOffset            int  // ZIYA_DIFF_MAX_OFFSET, default 500
	ForceDifflib         bool // ZIYA_FORCE_DIFFLIB
	UserCodebaseDir      string
	UseEnhancedMatching  bool // ZIYA_USE_ENHANCED_MATCHING
}

// FromEnv builds a Config from the process environment, falling back to
// spec.md's defaults for anything unset or unparsable.
func FromEnv() Config {
	levels := DefaultConfidenceLevels()
	cfg := Config{
		SearchRadius:        envInt("ZIYA_DIFF_SEARCH_RADIUS", 50),
		ContextSize:         envInt("ZIYA_DIFF_CONTEXT_SIZE", 0),
		Confidence:          levels,
		ConfidenceThreshold: levels.Medium,
		AdaptiveContext:     envBool("ZIYA_DIFF_ADAPTIVE_CONTEXT", false),
		MaxOffset:           envInt("ZIYA_DIFF_MAX_OFFSET", 500),
		ForceDifflib:        envBool("ZIYA_FORCE_DIFFLIB", false),
		UserCodebaseDir:     os.Getenv("ZIYA_USER_CODEBASE_DIR"),
		UseEnhancedMatching: envBool("ZIYA_USE_ENHANCED_MATCHING", false),
	}
	if v, ok := envFloat("ZIYA_DIFF_CONFIDENCE_THRESHOLD"); ok {
		cfg.ConfidenceThreshold = v
		cfg.Confidence.Medium = v
	}
	return cfg
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envFloat(name string) (float32, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}
