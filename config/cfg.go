package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"hdoc/common"
	"hdoc/tags"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	BuilderConfig struct {
		TokenThreshold   int                `yaml:"token_threshold" validate:"gte=0"`
		UnknownTags      common.UnknownTags `yaml:"unknown_tags" validate:"gte=0"`
		InsertTag        string             `yaml:"insert_tag"`
		SkipInsertTag    bool               `yaml:"skip_insert_tag"`
		DefaultStyleType string             `yaml:"default_style_type" validate:"required"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Builder   BuilderConfig  `yaml:"builder"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// Tag returns registered tag configured as insert tag, nil when none
// is set.
func (conf *BuilderConfig) Tag() *tags.Tag {
	if conf.InsertTag == "" {
		return nil
	}
	t, _ := tags.Lookup(conf.InsertTag)
	return t
}

// checkInsertTag makes sure insert tag names a known block level element.
func checkInsertTag(sl validator.StructLevel) {
	var name string
	switch cfg := sl.Current().Interface().(type) {
	case Config:
		name = cfg.Builder.InsertTag
	case *Config:
		name = cfg.Builder.InsertTag
	}
	if name == "" {
		return
	}
	if t, ok := tags.Lookup(name); !ok || t.IsSynthetic() || !t.Role().IsBlock() {
		sl.ReportError(name, "InsertTag", "InsertTag", "blocktag", "")
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkInsertTag)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
