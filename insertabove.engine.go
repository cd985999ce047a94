package insertabove

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/flosch/pongo2/v6"
	"go.uber.org/zap"
)

// Engine renders pongo2 templates with the insert tags available. It owns a
// template set, the media settings and the sequencer shared by its renders.
// An Engine is safe for concurrent use.
type Engine struct {
	set       *pongo2.TemplateSet
	storage   TemplateStorage
	owned     bool
	formatter *MediaFormatter
	seq       *Sequencer
	metrics   *Metrics
	logger    *zap.Logger
	debug     bool
}

// New creates an Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	formatter, err := NewMediaFormatter(config.mediaURL, config.usePrefix, config.formats)
	if err != nil {
		return nil, err
	}

	seq := config.sequencer
	if seq == nil {
		seq = defaultSequencer
	}

	storage := config.storage
	owned := false
	if storage == nil && len(config.loaders) == 0 {
		storage = NewMemoryStorage()
		owned = true
	}

	var loaders []pongo2.TemplateLoader
	if storage != nil {
		loaders = append(loaders, NewStorageLoader(storage, DefaultLoaderTimeout))
	}
	loaders = append(loaders, config.loaders...)

	set := pongo2.NewSet(DefaultTemplateSetName, loaders...)
	set.Debug = !config.templateCache
	set.Globals.Update(config.globals)
	set.Globals[FunctionNameMediaTag] = mediaTagFunc

	logger.Debug(LogMsgEngineCreated,
		zap.Bool(LogFieldDebug, config.debug),
		zap.String(LogFieldMediaURL, formatter.BaseURL()),
	)

	return &Engine{
		set:       set,
		storage:   storage,
		owned:     owned,
		formatter: formatter,
		seq:       seq,
		metrics:   config.metrics,
		logger:    logger,
		debug:     config.debug,
	}, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// NewSession creates a render session bound to the engine's settings.
func (e *Engine) NewSession() *Session {
	return newSession(e.seq, e.formatter, e.logger, e.metrics, e.debug)
}

// Formatter returns the engine's media formatter.
func (e *Engine) Formatter() *MediaFormatter {
	return e.formatter
}

// FormatURL renders a single asset URL the way media containers do.
func (e *Engine) FormatURL(url string) (string, error) {
	return e.formatter.Tag(url)
}

// Storage returns the backing storage, nil when the engine only has loaders.
func (e *Engine) Storage() TemplateStorage {
	return e.storage
}

// RegisterTemplate stores source under name and drops cached templates so the
// next render sees the change, including in templates extending it.
func (e *Engine) RegisterTemplate(ctx context.Context, name, source string) error {
	if name == "" {
		return NewEmptyTemplateNameError()
	}
	if e.storage == nil {
		return NewStorageReadOnlyError(name)
	}

	tmpl := &StoredTemplate{Name: name, Source: source}
	if err := e.storage.Save(ctx, tmpl); err != nil {
		return err
	}
	e.set.CleanCache()

	e.logger.Debug(LogMsgTemplateRegistered,
		zap.String(LogFieldTemplate, name),
		zap.Int(LogFieldVersion, tmpl.Version),
	)
	return nil
}

// Templates lists the names held by the backing storage.
func (e *Engine) Templates(ctx context.Context) ([]string, error) {
	if e.storage == nil {
		return nil, nil
	}
	return e.storage.List(ctx)
}

// ClearCache drops every parsed template.
func (e *Engine) ClearCache() {
	e.set.CleanCache()
	e.logger.Debug(LogMsgCacheCleaned)
}

// Render renders the named template with data. Nothing is returned on error.
func (e *Engine) Render(ctx context.Context, name string, data map[string]any) (string, error) {
	if name == "" {
		return "", NewEmptyTemplateNameError()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()
	e.logger.Debug(LogMsgRenderStart, zap.String(LogFieldTemplate, name))

	out, err := e.render(ctx, name, data, func() (*pongo2.Template, error) {
		return e.set.FromCache(name)
	})
	e.finish(name, start, err)
	return out, err
}

// RenderString parses source and renders it with data. Templates it extends
// or includes are loaded by name from the engine.
func (e *Engine) RenderString(ctx context.Context, source string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()
	out, err := e.render(ctx, "", data, func() (*pongo2.Template, error) {
		return e.set.FromString(source)
	})
	e.finish("", start, err)
	return out, err
}

// RenderTo renders the named template and writes it to w. Nothing is written
// on error.
func (e *Engine) RenderTo(ctx context.Context, w io.Writer, name string, data map[string]any) error {
	out, err := e.Render(ctx, name, data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Close releases storage created by the engine itself.
func (e *Engine) Close() error {
	if e.owned && e.storage != nil {
		return e.storage.Close()
	}
	return nil
}

func (e *Engine) render(ctx context.Context, name string, data map[string]any, load func() (*pongo2.Template, error)) (string, error) {
	tpl, err := load()
	if err != nil {
		return "", e.hostError(ctx, ErrMsgParseFailed, name, err)
	}

	pctx := make(pongo2.Context, len(data)+1)
	pctx.Update(data)
	pctx[SessionContextKey] = e.NewSession()

	out, err := tpl.Execute(pctx)
	if err != nil {
		return "", e.hostError(ctx, ErrMsgRenderFailed, name, err)
	}
	return out, nil
}

// hostError converts an error returned by pongo2. pongo2 drops the loader's
// error when a template cannot be loaded, so the template is looked up again
// to tell a missing template from a failing backend.
func (e *Engine) hostError(ctx context.Context, msg, name string, err error) error {
	var perr *pongo2.Error
	if !errors.As(err, &perr) || perr.Sender != hostSenderFromFile {
		return unwrapHostError(msg, name, err)
	}

	missing := perr.Filename
	if missing == "" {
		missing = name
	}
	if e.storage == nil {
		return NewTemplateNotFoundError(missing)
	}

	_, lookupErr := e.storage.Get(ctx, missing)
	switch {
	case lookupErr == nil:
		return unwrapHostError(msg, name, err)
	case IsTemplateNotFound(lookupErr):
		return NewTemplateNotFoundError(missing)
	default:
		return lookupErr
	}
}

func (e *Engine) finish(name string, start time.Time, err error) {
	elapsed := time.Since(start)
	e.metrics.observeRender(elapsed, err)
	if err != nil {
		e.logger.Warn(LogMsgRenderFailed,
			zap.String(LogFieldTemplate, name),
			zap.Error(err),
		)
		return
	}
	e.logger.Debug(LogMsgRenderDone,
		zap.String(LogFieldTemplate, name),
		zap.Duration(LogFieldDuration, elapsed),
	)
}
