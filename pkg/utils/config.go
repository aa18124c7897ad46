// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ConfigurationFileDirectory string
)

// LoadConfiguration merges configFileName from the usual search path into
// the global viper instance. Returns false when no file was loaded.
func LoadConfiguration(configFileName string, required bool) bool {
	return LoadConfigurationInto(viper.GetViper(), configFileName, required)
}

func LoadConfigurationInto(v *viper.Viper, configFileName string, required bool) bool {
	v.SetConfigName(configFileName)
	if ConfigurationFileDirectory != "" {
		v.AddConfigPath(ResolvePath(ConfigurationFileDirectory))
	}
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.bucketvault")
	v.AddConfigPath("/usr/local/etc/bucketvault/")
	v.AddConfigPath("/etc/bucketvault/")
	v.SetEnvPrefix("BUCKETVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if required {
				log.Fatal().Msgf("Config file not found: %s", configFileName)
			}
			log.Info().Msgf("Config file not found: %s", configFileName)
			return false
		}

		if required {
			log.Fatal().Err(err).Msgf("Failed to load required config file: %s", configFileName)
		}
		log.Warn().Err(err).Msgf("Failed to load config file: %s", configFileName)
		return false
	}
	log.Info().Msgf("Loaded config file: %s", v.ConfigFileUsed())

	return true
}
