// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package config reads engine settings from environment variables.
// No other package in this module calls Load, so none of these values
// changes how a run behaves.
package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config provides the engine's environment-sourced defaults.
type Config struct {
	Debug bool `envconfig:"DEBUG"`
	Trace bool `envconfig:"TRACE"`

	Engine struct {
		// MaxConcurrency is a Map/Parallel fan-out bound; the Map
		// executor takes its bound from the state, not from here.
		MaxConcurrency int `envconfig:"ENGINE_MAX_CONCURRENCY" default:"10"`
		// MaxAttempts is a Retry attempt count; the statespec factory and
		// flow/retry apply their own default of 3, not this value.
		MaxAttempts int `envconfig:"ENGINE_MAX_ATTEMPTS" default:"3"`
		// JitterStrategy is "" (none) or "FULL"; flow/retry reads each
		// rule's own JitterStrategy, not this value.
		JitterStrategy string `envconfig:"ENGINE_JITTER_STRATEGY" default:""`
		// RandomSeed is a seed value; nothing reads it, and $uuid and
		// States.UUID draw from uuid.NewV4.
		RandomSeed int64 `envconfig:"ENGINE_RANDOM_SEED" default:"0"`
	}
}

// Load loads Config from the environment.
func Load() (Config, error) {
	cfg := Config{}
	err := envconfig.Process("", &cfg)
	return cfg, err
}
