package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"imgres/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	RegistryConfig struct {
		Kind common.RegistryKind `yaml:"kind"`
		// directory for yaml store, database file for sqlite store
		Path string `yaml:"path" sanitize:"path_clean"`
	}

	HTTPStorageConfig struct {
		Endpoint string        `yaml:"endpoint" validate:"omitempty,url"`
		Token    SecretString  `yaml:"token,omitempty"`
		TokenURL string        `yaml:"token_url,omitempty" validate:"omitempty,url"`
		Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
	}

	GCSStorageConfig struct {
		Bucket          string `yaml:"bucket"`
		Prefix          string `yaml:"prefix"`
		PublicURL       string `yaml:"public_url" validate:"omitempty,url"`
		CredentialsFile string `yaml:"credentials_file,omitempty" sanitize:"path_clean"`
	}

	StorageConfig struct {
		Kind common.StorageKind `yaml:"kind"`
		// URL prefix under which per-scope folders are served
		URLPrefix    string            `yaml:"url_prefix" validate:"required"`
		LocalRoot    string            `yaml:"local_root" sanitize:"path_clean"`
		MaxDimension int               `yaml:"max_dimension" validate:"gte=0"`
		RasterizeSVG bool              `yaml:"rasterize_svg"`
		HTTP         HTTPStorageConfig `yaml:"http"`
		GCS          GCSStorageConfig  `yaml:"gcs"`
	}

	ListingConfig struct {
		Dialects []common.ListingDialect `yaml:"dialects"`
		Timeout  time.Duration           `yaml:"timeout" validate:"gte=0"`
	}

	ProbeConfig struct {
		Enabled       bool          `yaml:"enabled"`
		Formats       []string      `yaml:"formats" validate:"dive,required"`
		MaxCandidates int           `yaml:"max_candidates" validate:"gte=0"`
		Concurrency   int           `yaml:"concurrency" validate:"min=1,max=32"`
		Rate          float64       `yaml:"rate" validate:"gte=0"`
		CacheSize     int           `yaml:"cache_size" validate:"gte=0"`
		Timeout       time.Duration `yaml:"timeout" validate:"gte=0"`
	}

	ResolverConfig struct {
		MarkupTemplate string `yaml:"markup_template"`
		GuessDirectURL bool   `yaml:"guess_direct_url"`
		DefaultFormat  string `yaml:"default_format" validate:"required"`
		Transliterate  bool   `yaml:"transliterate"`
	}

	RenderConfig struct {
		BatchSize   int           `yaml:"batch_size" validate:"min=1,max=64"`
		FrameBudget time.Duration `yaml:"frame_budget" validate:"gt=0"`
		IdleTimeout time.Duration `yaml:"idle_timeout" validate:"gt=0"`
		ScrollQuiet time.Duration `yaml:"scroll_quiet" validate:"gt=0"`
		// class of elements treated as text containers by html documents
		ContainerClass string `yaml:"container_class" validate:"required"`
	}

	AssetsConfig struct {
		Registry RegistryConfig `yaml:"registry"`
		Storage  StorageConfig  `yaml:"storage"`
		Listing  ListingConfig  `yaml:"listing"`
		Probe    ProbeConfig    `yaml:"probe"`
		Resolver ResolverConfig `yaml:"resolver"`
		Render   RenderConfig   `yaml:"render"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Assets    AssetsConfig   `yaml:"assets"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	MarkupTemplateFieldName TemplateFieldName = "markup_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(MarkupTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
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
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
