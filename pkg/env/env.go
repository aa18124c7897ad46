// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"sync"

	"github.com/spf13/viper"
)

const (
	Local      = "local"
	Production = "production"
	Testing    = "testing"
)

var (
	Env string

	once sync.Once
)

func IsLocal() bool {
	return Env == Local
}

func IsProduction() bool {
	return Env == Production
}

func IsTesting() bool {
	return Env == Testing
}

// SampleRate is the fraction of errors reported to sentry in this environment
func SampleRate() float64 {
	switch Env {
	case Production:
		return 1.0
	case Testing:
		return 0
	default:
		return 0.1
	}
}

func init() {
	once.Do(func() {
		v := viper.New()
		v.SetEnvPrefix("BUCKETVAULT")
		v.BindEnv("env")
		Env = v.GetString("env")
		if Env == "" {
			Env = Local
		}
	})
}
