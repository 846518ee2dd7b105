package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix scopes environment overrides.
const EnvPrefix = "TRIPETL_"

// sliceConfigPaths are split on commas when they arrive as a single string
// from the environment.
var sliceConfigPaths = []string{
	"input.extensions",
}

// Load layers defaults, the YAML file at path (skipped when empty) and the
// environment, then unmarshals into a Config. It does not validate; call
// ValidateConfig for that.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if strings.TrimSpace(path) != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := k.Load(env.Provider("LOG_", ".", logEnvTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	normalizeDatasetNames(cfg)
	return cfg, nil
}

// envTransformFunc maps TRIPETL_RUNTIME_BATCH_SIZE to runtime.batch_size.
// Only the first underscore after the prefix separates the section, so
// multi-word leaf names survive.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// logEnvTransformFunc maps LOG_LEVEL and LOG_FORMAT into the logging section.
func logEnvTransformFunc(key string) string {
	switch key {
	case "LOG_LEVEL":
		return "logging.level"
	case "LOG_FORMAT":
		return "logging.format"
	default:
		return ""
	}
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// normalizeDatasetNames lower-cases dataset keys so lookups are
// case-insensitive.
func normalizeDatasetNames(cfg *Config) {
	if len(cfg.Datasets) == 0 {
		return
	}
	out := make(map[string]Dataset, len(cfg.Datasets))
	for name, ds := range cfg.Datasets {
		out[strings.ToLower(strings.TrimSpace(name))] = ds
	}
	cfg.Datasets = out
}
