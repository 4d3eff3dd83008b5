package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables. Order of precedence (low -> high):
//  1. Defaults()
//  2. file (YAML) if ATTENDLY_CONFIG is set
//  3. env (prefix ATTENDLY_, double underscore for nesting:
//     ATTENDLY_VERIFICATION__BIOMETRIC_THRESHOLD)
//
// A .env file in the working directory is folded into the environment
// first, if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv("ATTENDLY_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	envProvider := env.Provider("ATTENDLY_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "ATTENDLY_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if cfg.Verification.BiometricThreshold < 0 || cfg.Verification.BiometricThreshold > 1 {
		return errors.New("verification.biometric_threshold must be in [0,1]")
	}
	if cfg.Verification.DefaultRadiusMeters <= 0 {
		return errors.New("verification.default_radius_meters must be positive")
	}
	if cfg.Verification.NetworkProbeTimeout <= 0 {
		return errors.New("verification.network_probe_timeout must be positive")
	}
	return nil
}
