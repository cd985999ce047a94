package insertabove

import (
	"errors"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/itsatony/go-cuserr"
)

// Error message constants
const (
	// Configuration errors
	ErrMsgTagArguments  = "wrong number of tag arguments"
	ErrMsgBucketName    = "bucket name must be an identifier or string"
	ErrMsgPayloadSource = "insert needs exactly one of an expression or a body"
	ErrMsgNestedHandler = "insert_handler cannot appear more than once in the same template"
	ErrMsgInvalidConfig = "invalid configuration"
	ErrMsgEmptyCategory = "media category must be exactly three characters"
	ErrMsgFormatURL     = "media format must contain the {URL} placeholder"

	// Lookup errors
	ErrMsgUnknownMediaCategory = "no media format registered for category"

	// Resolution errors
	ErrMsgResolveFailed  = "insert expression could not be resolved"
	ErrMsgUndefinedValue = "insert expression resolved to nothing"

	// Render errors
	ErrMsgRenderFailed  = "template render failed"
	ErrMsgParseFailed   = "template parsing failed"
	ErrMsgEmptyTemplate = "template name cannot be empty"

	// Storage errors
	ErrMsgTemplateNotFound      = "template not found"
	ErrMsgStorageClosed         = "storage is closed"
	ErrMsgStorageDriverNotFound = "storage driver not found"
	ErrMsgStorageOperation      = "storage operation failed"
	ErrMsgStorageReadOnly       = "storage does not accept writes"
	ErrMsgInvalidTemplateName   = "invalid template name"
	ErrMsgEmptyConnString       = "connection string cannot be empty"
)

// Error codes for categorization
const (
	ErrCodeConfig  = "INSERTABOVE_CONFIG"
	ErrCodeResolve = "INSERTABOVE_RESOLVE"
	ErrCodeRender  = "INSERTABOVE_RENDER"
	ErrCodeStorage = "INSERTABOVE_STORAGE"
)

// NewTagArgumentsError creates a configuration error for a tag used with the wrong arity.
func NewTagArgumentsError(tagName string, want string) error {
	return cuserr.NewValidationError(ErrCodeConfig, ErrMsgTagArguments).
		WithMetadata(MetaKeyTag, tagName).
		WithMetadata(MetaKeyArgs, want)
}

// NewBucketNameError creates a configuration error for an unusable bucket name token.
func NewBucketNameError(tagName string) error {
	return cuserr.NewValidationError(ErrCodeConfig, ErrMsgBucketName).
		WithMetadata(MetaKeyTag, tagName)
}

// NewPayloadSourceError is raised when a deposit point has both or neither payload sources.
func NewPayloadSourceError(bucket string) error {
	return cuserr.NewValidationError(ErrCodeConfig, ErrMsgPayloadSource).
		WithMetadata(MetaKeyBucket, bucket)
}

// NewNestedHandlerError is raised for a second insert_handler in one template tree.
func NewNestedHandlerError() error {
	return cuserr.NewValidationError(ErrCodeConfig, ErrMsgNestedHandler).
		WithMetadata(MetaKeyTag, TagNameHandler)
}

// NewConfigError creates a configuration error for an option value.
func NewConfigError(option string, cause error) error {
	if cause != nil {
		return cuserr.WrapStdError(cause, ErrCodeConfig, ErrMsgInvalidConfig).
			WithMetadata(MetaKeyOption, option)
	}
	return cuserr.NewValidationError(ErrCodeConfig, ErrMsgInvalidConfig).
		WithMetadata(MetaKeyOption, option)
}

// NewCategoryError is returned when a media format is registered under a bad key.
func NewCategoryError(category string) error {
	return cuserr.NewValidationError(ErrCodeConfig, ErrMsgEmptyCategory).
		WithMetadata(MetaKeyCategory, category)
}

// NewFormatError is returned for a media format without the URL placeholder.
func NewFormatError(category string) error {
	return cuserr.NewValidationError(ErrCodeConfig, ErrMsgFormatURL).
		WithMetadata(MetaKeyCategory, category)
}

// NewUnknownCategoryError is the fatal lookup error for an unregistered media category.
func NewUnknownCategoryError(category, url string) error {
	return cuserr.NewNotFoundError(MetaKeyCategory, ErrMsgUnknownMediaCategory).
		WithMetadata(MetaKeyCategory, category).
		WithMetadata(MetaKeyURL, url)
}

// NewResolveError wraps a failed expression evaluation inside a deposit point.
func NewResolveError(bucket string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeResolve, ErrMsgResolveFailed).
		WithMetadata(MetaKeyBucket, bucket)
}

// NewUndefinedValueError is raised when a deposit expression evaluates to nil.
func NewUndefinedValueError(bucket string) error {
	return cuserr.NewValidationError(ErrCodeResolve, ErrMsgUndefinedValue).
		WithMetadata(MetaKeyBucket, bucket)
}

// NewRenderError wraps a failure surfaced by the host engine.
func NewRenderError(msg, templateName string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeRender, msg).
		WithMetadata(MetaKeyTemplate, templateName)
}

// NewEmptyTemplateNameError creates an error for an empty template name.
func NewEmptyTemplateNameError() error {
	return cuserr.NewValidationError(ErrCodeRender, ErrMsgEmptyTemplate)
}

// NewTemplateNotFoundError creates an error for a missing stored template.
func NewTemplateNotFoundError(name string) error {
	return cuserr.NewNotFoundError(MetaKeyTemplate, ErrMsgTemplateNotFound).
		WithMetadata(MetaKeyName, name)
}

// NewStorageClosedError creates an error for operations on closed storage.
func NewStorageClosedError() error {
	return cuserr.NewValidationError(ErrCodeStorage, ErrMsgStorageClosed)
}

// NewStorageDriverNotFoundError creates an error for an unregistered driver.
func NewStorageDriverNotFoundError(driver string) error {
	return cuserr.NewNotFoundError(MetaKeyDriver, ErrMsgStorageDriverNotFound).
		WithMetadata(MetaKeyDriver, driver)
}

// NewStorageError wraps a backend failure.
func NewStorageError(name string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeStorage, ErrMsgStorageOperation).
		WithMetadata(MetaKeyName, name)
}

// NewInvalidTemplateNameError creates an error for names a backend cannot store.
func NewInvalidTemplateNameError(name string) error {
	return cuserr.NewValidationError(ErrCodeStorage, ErrMsgInvalidTemplateName).
		WithMetadata(MetaKeyName, name)
}

// NewStorageReadOnlyError is returned when templates are registered on a loader-only engine.
func NewStorageReadOnlyError(name string) error {
	return cuserr.NewValidationError(ErrCodeStorage, ErrMsgStorageReadOnly).
		WithMetadata(MetaKeyName, name)
}

// NewEmptyConnStringError creates an error for a missing DSN.
func NewEmptyConnStringError(driver string) error {
	return cuserr.NewValidationError(ErrCodeStorage, ErrMsgEmptyConnString).
		WithMetadata(MetaKeyDriver, driver)
}

// IsTemplateNotFound reports whether err is a missing-template error.
func IsTemplateNotFound(err error) bool {
	var customErr *cuserr.CustomError
	if !errors.As(err, &customErr) {
		return false
	}
	return strings.Contains(customErr.Error(), ErrMsgTemplateNotFound)
}

// tagError converts err into the host's error type, positioned at token.
func tagError(tagName string, token *pongo2.Token, err error) *pongo2.Error {
	perr := &pongo2.Error{
		Sender:    "tag:" + tagName,
		OrigError: err,
		Token:     token,
	}
	if token != nil {
		perr.Filename = token.Filename
		perr.Line = token.Line
		perr.Column = token.Col
	}
	return perr
}

// unwrapHostError pulls the original cause out of a pongo2 error and annotates it
// with the template position. Errors that are not ours are wrapped as render errors.
func unwrapHostError(msg, templateName string, err error) error {
	var perr *pongo2.Error
	if !errors.As(err, &perr) || perr.OrigError == nil {
		return NewRenderError(msg, templateName, err)
	}

	var customErr *cuserr.CustomError
	if errors.As(perr.OrigError, &customErr) {
		return customErr.
			WithMetadata(MetaKeyTemplate, templateName).
			WithMetadata(MetaKeyLine, strconv.Itoa(perr.Line)).
			WithMetadata(MetaKeyColumn, strconv.Itoa(perr.Column))
	}

	return cuserr.WrapStdError(err, ErrCodeRender, msg).
		WithMetadata(MetaKeyTemplate, templateName).
		WithMetadata(MetaKeyLine, strconv.Itoa(perr.Line)).
		WithMetadata(MetaKeyColumn, strconv.Itoa(perr.Column))
}
