package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eigerco/stakeslot/internal/slot"
)

var ErrInvalidConfig = errors.New("invalid config")

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Config of the stakeslot tool. The migration gate is deliberately absent,
// its state is fixed by the build.
type Config struct {
	DB   string    `yaml:"db"`
	Rent slot.Rent `yaml:"rent"`
	Log  Log       `yaml:"log"`
}

func Default() Config {
	return Config{
		DB:   "stakeslot-db",
		Rent: slot.DefaultRent,
		Log:  Log{Level: "info", Format: "console"},
	}
}

// Load reads the YAML file at path on top of the defaults
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("%w: db path is required", ErrInvalidConfig)
	}
	if c.Rent.LamportsPerByteYear == 0 || c.Rent.ExemptionThreshold == 0 {
		return fmt.Errorf("%w: rent parameters must be non zero", ErrInvalidConfig)
	}
	return nil
}
