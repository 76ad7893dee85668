package threshold

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML threshold document from path, merges it over Defaults
// (unset fields keep their default), and validates the result. An empty
// path returns Defaults unchanged.
func Load(path string) (*Thresholds, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read threshold config %s: %w", path, err)
	}

	var fromFile Thresholds
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("parse threshold config %s: %w", path, err)
	}

	if err := mergo.Merge(cfg, fromFile, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge threshold config %s: %w", path, err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid threshold config %s: %w", path, err)
	}
	return cfg, nil
}

var validatorInstance = validator.New()

func validate(cfg *Thresholds) error {
	return validatorInstance.Struct(cfg)
}
