package main

import "time"

// CLIName is the binary name shown in usage text.
const CLIName = "insertabove"

// Command names
const (
	CmdNameRender    = "render"
	CmdNameServe     = "serve"
	CmdNameFormats   = "formats"
	CmdNameTemplates = "templates"
	CmdNameList      = "list"
	CmdNameGet       = "get"
	CmdNamePut       = "put"
	CmdNameDelete    = "delete"
	CmdNameVersion   = "version"
)

// Flag names - long form
const (
	FlagConfig   = "config"
	FlagDir      = "dir"
	FlagStorage  = "storage"
	FlagDSN      = "dsn"
	FlagMediaURL = "media-url"
	FlagDebug    = "debug"
	FlagData     = "data"
	FlagDataFile = "data-file"
	FlagOutput   = "output"
	FlagFormat   = "format"
	FlagAddr     = "addr"
	FlagIndex    = "index"
	FlagCacheTTL = "cache-ttl"
)

// Flag names - short form
const (
	FlagConfigShort   = "c"
	FlagDataShort     = "d"
	FlagDataFileShort = "f"
	FlagOutputShort   = "o"
	FlagFormatShort   = "F"
)

// Flag default values
const (
	FlagDefaultOutput = "-" // stdout
	FlagDefaultFormat = "text"
	FlagDefaultAddr   = ":8080"
	FlagDefaultIndex  = "index.html"
	FlagDefaultDir    = "."
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess     = 0
	ExitCodeError       = 1
	ExitCodeUsageError  = 2
	ExitCodeRenderError = 3
	ExitCodeInputError  = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Data file extensions decoded as YAML; everything else is JSON.
const (
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
)

// FilePermissions is used for files written by the CLI.
const FilePermissions = 0o644

// Error messages
const (
	ErrMsgInvalidData       = "invalid template data"
	ErrMsgReadFileFailed    = "failed to read file"
	ErrMsgWriteOutputFailed = "failed to write output"
	ErrMsgInvalidFormat     = "invalid output format"
	ErrMsgSetupFailed       = "failed to set up engine"
	ErrMsgRenderFailed      = "render failed"
	ErrMsgStorageFailed     = "storage operation failed"
	ErrMsgServerFailed      = "server failed"
)

// Output format strings
const (
	FmtError            = "error: %v\n"
	FmtErrorWithCause   = "%s: %w"
	FmtFormatLine       = "%s\t%s\n"
	FmtVersionText      = "%s version %s (%s)\n"
	FmtNewline          = "\n"
	JSONIndent          = "  "
	HealthResponse      = "ok"
	ContentTypeHTML     = "text/html; charset=utf-8"
	ContentTypeJSON     = "application/json"
	HeaderContentType   = "Content-Type"
	DataKeyPath         = "path"
	DataKeyQuery        = "query"
	URLParamWildcard    = "*"
	TemplatePathDivider = "/"
)

// HTTP routes
const (
	RouteHealth    = "/healthz"
	RouteMetrics   = "/metrics"
	RouteTemplates = "/_templates"
	RoutePages     = "/*"
)

// Server timeouts
const (
	ServerReadHeaderTimeout = 10 * time.Second
	ServerShutdownTimeout   = 5 * time.Second
)

// Log messages
const (
	LogMsgServerStarting = "preview server starting"
	LogMsgServerStopped  = "preview server stopped"
	LogMsgPageFailed     = "page render failed"
)
