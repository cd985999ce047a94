package insertabove

import "time"

// Version is the module release.
const Version = "0.1.0"

// Tag names registered with pongo2
const (
	TagNameHandler        = "insert_handler"
	TagNameHandlerEnd     = "endinsert_handler"
	TagNameContainer      = "container"
	TagNameMediaContainer = "media_container"
	TagNameInsertStr      = "insert_str"
	TagNameInsertForm     = "insert_form" // Same node as insert_str, kept for form media deposits
	TagNameInsert         = "insert"
	TagNameInsertEnd      = "endinsert"
)

// Filter and function names
const (
	FilterNameMediaTag   = "media_tag"
	FunctionNameMediaTag = "media_tag"
)

// SessionContextKey is the execution context key the render session lives under.
// It must satisfy pongo2's identifier rules.
const SessionContextKey = "__insert_above__"

// Media defaults
const (
	DefaultMediaURL  = "/media/"
	DefaultJSFormat  = "<script type='text/javascript' src='{URL}'></script>"
	DefaultCSSFormat = "<link rel='stylesheet' href='{URL}' type='text/css' />"

	// Category keys are always the last three characters of the URL.
	CategoryCSS = "css"
	CategoryJS  = ".js"

	// CategoryLength is the fixed width of the category suffix.
	CategoryLength = 3
)

// Format placeholders
const (
	PlaceholderURL   = "{URL}"
	PlaceholderMedia = "{MEDIA}"
)

// URL schemes that bypass the media prefix
const (
	SchemeHTTP  = "http://"
	SchemeHTTPS = "https://"
)

// Output separators
const (
	ItemSeparator = "\n"
)

// Media group used for CSS entries that do not name one
const (
	MediaGroupAll = "all"
)

// Engine defaults
const (
	DefaultTemplateSetName = "insertabove"
	DefaultTemplateCache   = true
	DefaultLoaderTimeout   = 10 * time.Second
)

// Storage cache defaults
const (
	DefaultCacheTTL         = 5 * time.Minute
	DefaultCacheMaxEntries  = 1000
	DefaultNegativeCacheTTL = 30 * time.Second
)

// hostSenderFromFile is the pongo2 error sender for templates that could not be loaded.
const hostSenderFromFile = "fromfile"

// Storage driver names
const (
	StorageDriverNameMemory     = "memory"
	StorageDriverNameFilesystem = "filesystem"
	StorageDriverNamePostgres   = "postgres"
	StorageDriverNameRedis      = "redis"
)

// PostgreSQL storage defaults
const (
	PostgresDefaultMaxOpenConns    = 10
	PostgresDefaultMaxIdleConns    = 2
	PostgresDefaultConnMaxLifetime = 5 * time.Minute
	PostgresDefaultQueryTimeout    = 10 * time.Second
	PostgresTablePrefix            = "insertabove_"
)

// Redis storage defaults
const (
	RedisDefaultKeyPrefix = "insertabove:template:"
	RedisIndexKeySuffix   = "index"
)

// Filesystem storage defaults
const (
	FilesystemDirPermissions  = 0o755
	FilesystemFilePermissions = 0o644
)

// Metrics names
const (
	MetricsNamespace          = "insertabove"
	MetricRendersTotal        = "renders_total"
	MetricRenderDuration      = "render_duration_seconds"
	MetricDepositsTotal       = "deposits_total"
	MetricContainerItemsTotal = "container_items_total"
	MetricLabelStatus         = "status"
	MetricLabelKind           = "kind"
	MetricStatusOK            = "ok"
	MetricStatusError         = "error"
	ContainerKindVerbatim     = "verbatim"
	ContainerKindMedia        = "media"
)

// Option names reported in configuration errors
const (
	OptionMediaURL    = "media_url"
	OptionMediaFormat = "media_format"
	OptionMetrics     = "metrics"
	OptionStorage     = "storage"
	OptionConfigFile  = "config_file"
)

// Metadata keys attached to errors
const (
	MetaKeyTag      = "tag"
	MetaKeyBucket   = "bucket"
	MetaKeyCategory = "category"
	MetaKeyURL      = "url"
	MetaKeyTemplate = "template"
	MetaKeyLine     = "line"
	MetaKeyColumn   = "column"
	MetaKeyArgs     = "args"
	MetaKeyDriver   = "driver"
	MetaKeyName     = "name"
	MetaKeyPath     = "path"
	MetaKeyOption   = "option"
)

// Log messages
const (
	LogMsgEngineCreated      = "insertabove engine created"
	LogMsgRenderStart        = "rendering template"
	LogMsgRenderDone         = "template rendered"
	LogMsgRenderFailed       = "template render failed"
	LogMsgInsertTagsTiming   = "time spent on insert tags"
	LogMsgTemplateRegistered = "template registered"
	LogMsgCacheCleaned       = "template cache cleaned"
	LogMsgConfigLoaded       = "configuration loaded"
)

// Log field names
const (
	LogFieldTemplate = "template"
	LogFieldElapsed  = "elapsed"
	LogFieldDuration = "duration"
	LogFieldBuckets  = "buckets"
	LogFieldPath     = "path"
	LogFieldVersion  = "version"
	LogFieldError    = "error"
	LogFieldDebug    = "debug"
	LogFieldMediaURL = "media_url"
	LogFieldAddr     = "addr"
)
