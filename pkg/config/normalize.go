// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import "strings"

// Normalize applies post-validation normalization.
// It may mutate cfg and must only be called after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Serial.Port = strings.TrimSpace(cfg.Serial.Port)
	cfg.Serial.URL = strings.TrimSpace(cfg.Serial.URL)
	cfg.Serial.Parity = strings.ToLower(strings.TrimSpace(cfg.Serial.Parity))
	if cfg.Serial.Parity == "" {
		cfg.Serial.Parity = "none"
	}
	cfg.Serial.Frames = strings.ToLower(strings.TrimSpace(cfg.Serial.Frames))
	if cfg.Serial.Frames == "" {
		cfg.Serial.Frames = FramesAny
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	switch cfg.Log.Level {
	case "":
		cfg.Log.Level = "info"
	case "warning":
		cfg.Log.Level = "warn"
	}

	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}
