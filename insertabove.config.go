package insertabove

import (
	"os"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Config is the file form of the engine options.
//
//	debug: true
//	media:
//	  url: /static/
//	  use_prefix: true
//	  formats:
//	    ico: "<link rel='icon' href='{URL}' />"
//	templates:
//	  dir: ./templates
//	  cache: true
//	storage:
//	  driver: redis
//	  dsn: redis://localhost:6379/0
//	  cache_ttl: 5m
//	server:
//	  addr: ":8080"
type Config struct {
	Debug     bool            `yaml:"debug"`
	Media     MediaConfig     `yaml:"media"`
	Templates TemplatesConfig `yaml:"templates"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
}

// MediaConfig holds the asset settings.
type MediaConfig struct {
	URL       string            `yaml:"url"`
	UsePrefix *bool             `yaml:"use_prefix"`
	Formats   map[string]string `yaml:"formats"`
}

// TemplatesConfig points at a template directory served through filesystem storage.
type TemplatesConfig struct {
	Dir   string `yaml:"dir"`
	Cache *bool  `yaml:"cache"`
}

// StorageConfig selects a registered storage driver. It takes precedence over Templates.Dir.
// A positive CacheTTL wraps the driver in a CachedStorage.
type StorageConfig struct {
	Driver   string        `yaml:"driver"`
	DSN      string        `yaml:"dsn"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// ServerConfig is used by the preview server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(OptionConfigFile, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML config data.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, NewConfigError(OptionConfigFile, err)
	}
	for category := range cfg.Media.Formats {
		if utf8.RuneCountInString(category) != CategoryLength {
			return nil, NewCategoryError(category)
		}
	}
	return &cfg, nil
}

// Options converts the config into engine options. Storage named by the config
// is opened here and must be closed by the caller.
func (c *Config) Options() ([]Option, TemplateStorage, error) {
	opts := []Option{WithDebug(c.Debug)}

	if c.Media.URL != "" {
		opts = append(opts, WithMediaURL(c.Media.URL))
	}
	if c.Media.UsePrefix != nil {
		opts = append(opts, WithMediaPrefix(*c.Media.UsePrefix))
	}
	if len(c.Media.Formats) > 0 {
		opts = append(opts, WithMediaFormats(c.Media.Formats))
	}
	if c.Templates.Cache != nil {
		opts = append(opts, WithTemplateCache(*c.Templates.Cache))
	}

	var (
		storage TemplateStorage
		err     error
	)
	switch {
	case c.Storage.Driver != "":
		storage, err = OpenStorage(c.Storage.Driver, c.Storage.DSN)
	case c.Templates.Dir != "":
		storage, err = NewFilesystemStorage(c.Templates.Dir)
	}
	if err != nil {
		return nil, nil, NewConfigError(OptionStorage, err)
	}
	if storage != nil && c.Storage.CacheTTL > 0 {
		storage = NewCachedStorage(storage, CacheConfig{
			TTL:              c.Storage.CacheTTL,
			NegativeCacheTTL: DefaultNegativeCacheTTL,
		})
	}
	if storage != nil {
		opts = append(opts, WithStorage(storage))
	}
	return opts, storage, nil
}
