package insertabove

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/itsatony/go-insertabove/internal"
)

// Media is an asset bundle: stylesheets grouped by media type plus scripts.
// It plays the role of a form's media declaration, so one deposit can carry
// every asset a widget needs.
type Media struct {
	// CSS maps a media group ("all", "screen", "print", ...) to stylesheet URLs.
	CSS map[string][]string `json:"css,omitempty" yaml:"css,omitempty"`

	// JS lists script URLs in load order.
	JS []string `json:"js,omitempty" yaml:"js,omitempty"`
}

// MediaProvider is implemented by values that expose an asset bundle,
// such as form or widget types passed into a template.
type MediaProvider interface {
	AssetMedia() *Media
}

// AddCSS appends stylesheet URLs to the given media group.
func (m *Media) AddCSS(group string, urls ...string) *Media {
	if m.CSS == nil {
		m.CSS = make(map[string][]string)
	}
	if group == "" {
		group = MediaGroupAll
	}
	m.CSS[group] = append(m.CSS[group], urls...)
	return m
}

// AddJS appends script URLs.
func (m *Media) AddJS(urls ...string) *Media {
	m.JS = append(m.JS, urls...)
	return m
}

// MediaEntry is one URL taken from a deposit, with the media group for stylesheets.
type MediaEntry struct {
	URL   string
	Group string
}

// entries expands the bundle. Groups are visited in sorted order so output is
// stable; stylesheets come before scripts.
func (m *Media) entries() []MediaEntry {
	if m == nil {
		return nil
	}
	var out []MediaEntry
	for _, group := range slices.Sorted(maps.Keys(m.CSS)) {
		for _, url := range m.CSS[group] {
			out = append(out, MediaEntry{URL: url, Group: group})
		}
	}
	for _, url := range m.JS {
		out = append(out, MediaEntry{URL: url})
	}
	return out
}

// mediaOf returns the bundle carried by payload, if any.
func mediaOf(payload any) (*Media, bool) {
	switch p := payload.(type) {
	case *Media:
		return p, p != nil
	case Media:
		return &p, true
	case MediaProvider:
		m := p.AssetMedia()
		return m, m != nil
	}
	return nil, false
}

// expandMediaEntries turns a deposit payload into URL entries. Strings are a
// single reference; anything else that is not an asset bundle contributes nothing.
func expandMediaEntries(payload any) []MediaEntry {
	if m, ok := mediaOf(payload); ok {
		return m.entries()
	}
	switch p := payload.(type) {
	case string:
		return []MediaEntry{{URL: p}}
	case fmt.Stringer:
		return []MediaEntry{{URL: p.String()}}
	}
	return nil
}

// MediaFormatter renders asset URLs into tags using a category -> format table.
// A formatter is immutable once built and safe to share between renders.
type MediaFormatter struct {
	baseURL   string
	usePrefix bool
	formats   map[string]string
}

// DefaultMediaFormats returns a fresh copy of the built-in category table.
func DefaultMediaFormats() map[string]string {
	return map[string]string{
		CategoryCSS: DefaultCSSFormat,
		CategoryJS:  DefaultJSFormat,
	}
}

// NewMediaFormatter builds a formatter. Formats override or extend the defaults;
// each key must be exactly CategoryLength characters and each format must
// contain the {URL} placeholder.
func NewMediaFormatter(baseURL string, usePrefix bool, formats map[string]string) (*MediaFormatter, error) {
	table := DefaultMediaFormats()
	for category, format := range formats {
		if utf8.RuneCountInString(category) != CategoryLength {
			return nil, NewCategoryError(category)
		}
		if !strings.Contains(format, PlaceholderURL) {
			return nil, NewFormatError(category)
		}
		table[category] = format
	}
	return &MediaFormatter{
		baseURL:   baseURL,
		usePrefix: usePrefix,
		formats:   table,
	}, nil
}

var builtinMediaFormatter = &MediaFormatter{
	baseURL:   DefaultMediaURL,
	usePrefix: true,
	formats:   DefaultMediaFormats(),
}

// defaultMediaFormatter overrides builtinMediaFormatter when set.
var defaultMediaFormatter atomic.Pointer[MediaFormatter]

// DefaultMediaFormatter returns the package default formatter. It is used by
// the media_tag filter and by sessions created without an engine.
func DefaultMediaFormatter() *MediaFormatter {
	if f := defaultMediaFormatter.Load(); f != nil {
		return f
	}
	return builtinMediaFormatter
}

// SetDefaultMediaFormatter replaces the package default formatter, typically
// with Engine.Formatter so the media_tag filter and function agree. A nil f
// restores the built-in settings.
func SetDefaultMediaFormatter(f *MediaFormatter) {
	defaultMediaFormatter.Store(f)
}

// BaseURL returns the prefix applied to relative URLs.
func (f *MediaFormatter) BaseURL() string {
	return f.baseURL
}

// UsePrefix reports whether relative URLs are prefixed.
func (f *MediaFormatter) UsePrefix() bool {
	return f.usePrefix
}

// Formats returns a copy of the category table.
func (f *MediaFormatter) Formats() map[string]string {
	return maps.Clone(f.formats)
}

// Categories returns the registered category keys in sorted order.
func (f *MediaFormatter) Categories() []string {
	return slices.Sorted(maps.Keys(f.formats))
}

// Link computes the final link target for url.
func (f *MediaFormatter) Link(url string) string {
	url = cleanURL(url)
	if f.usePrefix && !isAbsoluteURL(url) {
		return f.baseURL + url
	}
	return url
}

// Tag renders url through the format registered for its category. The
// category is the last three characters of the url, so "style.css" maps to
// "css" and "app.js" to ".js".
func (f *MediaFormatter) Tag(url string) (string, error) {
	return f.tag(MediaEntry{URL: url})
}

func (f *MediaFormatter) tag(entry MediaEntry) (string, error) {
	url := cleanURL(entry.URL)
	category := Category(url)
	format, ok := f.formats[category]
	if !ok {
		return "", NewUnknownCategoryError(category, url)
	}
	out := strings.ReplaceAll(format, PlaceholderURL, f.Link(url))
	if strings.Contains(out, PlaceholderMedia) {
		group := entry.Group
		if group == "" {
			group = MediaGroupAll
		}
		out = strings.ReplaceAll(out, PlaceholderMedia, group)
	}
	return out, nil
}

// RenderEntries dedupes entries by URL, keeping the first occurrence's
// position, and renders each survivor. Output is newline-joined. A blank
// URL has no category and fails like any unknown one.
func (f *MediaFormatter) RenderEntries(entries []MediaEntry) (string, error) {
	seen := internal.NewOrderedMap[MediaEntry]()
	for _, entry := range entries {
		entry.URL = cleanURL(entry.URL)
		seen.Add(entry.URL, entry)
	}

	tags := make([]string, 0, seen.Len())
	for _, url := range seen.Keys() {
		entry, _ := seen.Get(url)
		tag, err := f.tag(entry)
		if err != nil {
			return "", err
		}
		tags = append(tags, tag)
	}
	return strings.Join(tags, ItemSeparator), nil
}

// RenderMedia renders every entry of a bundle.
func (f *MediaFormatter) RenderMedia(m *Media) (string, error) {
	return f.RenderEntries(m.entries())
}

// Category returns the last three characters (runes) of url. URLs shorter
// than that are their own key.
func Category(url string) string {
	i := len(url)
	for n := 0; n < CategoryLength && i > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(url[:i])
		i -= size
	}
	return url[i:]
}

// cleanURL keeps the first line of a reference, trimmed.
func cleanURL(url string) string {
	if i := strings.IndexByte(url, '\n'); i >= 0 {
		url = url[:i]
	}
	return strings.TrimSpace(url)
}

func isAbsoluteURL(url string) bool {
	return strings.HasPrefix(url, SchemeHTTP) || strings.HasPrefix(url, SchemeHTTPS)
}
