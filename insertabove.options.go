package insertabove

import (
	"io/fs"
	"maps"

	"github.com/flosch/pongo2/v6"
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	logger        *zap.Logger
	debug         bool
	mediaURL      string
	usePrefix     bool
	formats       map[string]string
	sequencer     *Sequencer
	storage       TemplateStorage
	loaders       []pongo2.TemplateLoader
	templateCache bool
	metrics       *Metrics
	globals       pongo2.Context
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		mediaURL:      DefaultMediaURL,
		usePrefix:     true,
		formats:       make(map[string]string),
		templateCache: DefaultTemplateCache,
		globals:       make(pongo2.Context),
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithDebug turns on timing of insert tags. Each page handler then logs the
// accumulated time at debug level.
// Default: false
func WithDebug(debug bool) Option {
	return func(c *engineConfig) {
		c.debug = debug
	}
}

// WithMediaURL sets the prefix applied to relative asset URLs.
// Default: "/media/"
func WithMediaURL(url string) Option {
	return func(c *engineConfig) {
		c.mediaURL = url
	}
}

// WithMediaPrefix toggles prefixing of relative asset URLs.
// Default: true
func WithMediaPrefix(enabled bool) Option {
	return func(c *engineConfig) {
		c.usePrefix = enabled
	}
}

// WithMediaFormat registers or overrides the format for a three character
// category. The format must contain the {URL} placeholder.
func WithMediaFormat(category, format string) Option {
	return func(c *engineConfig) {
		c.formats[category] = format
	}
}

// WithMediaFormats registers several formats at once.
func WithMediaFormats(formats map[string]string) Option {
	return func(c *engineConfig) {
		maps.Copy(c.formats, formats)
	}
}

// WithSequencer sets the sequencer that stamps deposits.
// Default: the process-wide sequencer
func WithSequencer(seq *Sequencer) Option {
	return func(c *engineConfig) {
		c.sequencer = seq
	}
}

// WithStorage serves templates from storage and makes RegisterTemplate write to it.
// Default: a new MemoryStorage when no loader is configured
func WithStorage(storage TemplateStorage) Option {
	return func(c *engineConfig) {
		c.storage = storage
	}
}

// WithLoader adds a pongo2 template loader. Loaders are tried after storage.
func WithLoader(loader pongo2.TemplateLoader) Option {
	return func(c *engineConfig) {
		c.loaders = append(c.loaders, loader)
	}
}

// WithFS adds a loader reading templates from fsys.
func WithFS(fsys fs.FS) Option {
	return WithLoader(pongo2.NewFSLoader(fsys))
}

// WithTemplateCache toggles caching of parsed templates.
// Default: true
func WithTemplateCache(enabled bool) Option {
	return func(c *engineConfig) {
		c.templateCache = enabled
	}
}

// WithMetrics sets the Prometheus collectors updated by renders.
// Default: nil (no metrics)
func WithMetrics(metrics *Metrics) Option {
	return func(c *engineConfig) {
		c.metrics = metrics
	}
}

// WithGlobals adds variables visible to every template.
func WithGlobals(globals map[string]any) Option {
	return func(c *engineConfig) {
		maps.Copy(c.globals, globals)
	}
}
