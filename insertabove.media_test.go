package insertabove

import (
	"errors"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assetString string

func (s assetString) String() string { return string(s) }

type widget struct {
	media *Media
}

func (w widget) AssetMedia() *Media { return w.media }

func TestCategory(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"css/site.css", "css"},
		{"js/app.js", ".js"},
		{"favicon.ico", "ico"},
		{"js", "js"},
		{"", ""},
		{"img/bild.jpé", "jpé"},
		{"é", "é"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Category(tt.url))
		})
	}
}

func TestMediaFormatter_Tag(t *testing.T) {
	f := DefaultMediaFormatter()

	t.Run("stylesheet", func(t *testing.T) {
		out, err := f.Tag("css/site.css")
		require.NoError(t, err)
		assert.Equal(t, "<link rel='stylesheet' href='/media/css/site.css' type='text/css' />", out)
	})

	t.Run("script", func(t *testing.T) {
		out, err := f.Tag("js/app.js")
		require.NoError(t, err)
		assert.Equal(t, "<script type='text/javascript' src='/media/js/app.js'></script>", out)
	})

	t.Run("absolute urls are not prefixed", func(t *testing.T) {
		out, err := f.Tag("https://cdn.example.com/lib.js")
		require.NoError(t, err)
		assert.Equal(t, "<script type='text/javascript' src='https://cdn.example.com/lib.js'></script>", out)

		out, err = f.Tag("http://cdn.example.com/lib.js")
		require.NoError(t, err)
		assert.Contains(t, out, "src='http://cdn.example.com/lib.js'")
	})

	t.Run("only the first line is used", func(t *testing.T) {
		out, err := f.Tag("  js/app.js  \nignored")
		require.NoError(t, err)
		assert.Equal(t, "<script type='text/javascript' src='/media/js/app.js'></script>", out)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := f.Tag("img/logo.png")
		require.Error(t, err)

		var customErr *cuserr.CustomError
		require.True(t, errors.As(err, &customErr))
		category, ok := customErr.GetMetadata(MetaKeyCategory)
		assert.True(t, ok)
		assert.Equal(t, "png", category)
		url, ok := customErr.GetMetadata(MetaKeyURL)
		assert.True(t, ok)
		assert.Equal(t, "img/logo.png", url)
		assert.Contains(t, err.Error(), ErrMsgUnknownMediaCategory)
	})
}

func TestMediaFormatter_Prefix(t *testing.T) {
	f, err := NewMediaFormatter("/static/", true, nil)
	require.NoError(t, err)
	assert.Equal(t, "/static/js/app.js", f.Link("js/app.js"))
	assert.Equal(t, "https://x.test/app.js", f.Link("https://x.test/app.js"))

	f, err = NewMediaFormatter("/static/", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "js/app.js", f.Link("js/app.js"))
	assert.False(t, f.UsePrefix())
	assert.Equal(t, "/static/", f.BaseURL())
}

func TestNewMediaFormatter_CustomFormats(t *testing.T) {
	f, err := NewMediaFormatter(DefaultMediaURL, true, map[string]string{
		"ico": "<link rel='icon' href='{URL}' />",
		"css": "<link rel='stylesheet' href='{URL}' media='{MEDIA}' />",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{".js", "css", "ico"}, f.Categories())

	out, err := f.Tag("favicon.ico")
	require.NoError(t, err)
	assert.Equal(t, "<link rel='icon' href='/media/favicon.ico' />", out)

	out, err = f.Tag("site.css")
	require.NoError(t, err)
	assert.Equal(t, "<link rel='stylesheet' href='/media/site.css' media='all' />", out)

	formats := f.Formats()
	formats["png"] = "changed"
	assert.NotContains(t, f.Formats(), "png")
}

func TestNewMediaFormatter_Errors(t *testing.T) {
	t.Run("category length", func(t *testing.T) {
		_, err := NewMediaFormatter(DefaultMediaURL, true, map[string]string{"js": "{URL}"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgEmptyCategory)
	})

	t.Run("missing placeholder", func(t *testing.T) {
		_, err := NewMediaFormatter(DefaultMediaURL, true, map[string]string{"ico": "<link />"})
		require.Error(t, err)

		var customErr *cuserr.CustomError
		require.True(t, errors.As(err, &customErr))
		category, ok := customErr.GetMetadata(MetaKeyCategory)
		assert.True(t, ok)
		assert.Equal(t, "ico", category)
	})
}

func TestMediaFormatter_RenderEntries(t *testing.T) {
	f := DefaultMediaFormatter()

	t.Run("duplicates keep first position", func(t *testing.T) {
		out, err := f.RenderEntries([]MediaEntry{
			{URL: "a.js"}, {URL: "b.js"}, {URL: "a.js"},
		})
		require.NoError(t, err)
		assert.Equal(t,
			"<script type='text/javascript' src='/media/a.js'></script>\n"+
				"<script type='text/javascript' src='/media/b.js'></script>",
			out)
	})

	t.Run("blank entries fail the lookup", func(t *testing.T) {
		for _, url := range []string{"  ", "", "\njs/a.js"} {
			out, err := f.RenderEntries([]MediaEntry{{URL: "a.js"}, {URL: url}})
			customErr := requireCustomError(t, err)
			category, ok := customErr.GetMetadata(MetaKeyCategory)
			assert.True(t, ok)
			assert.Equal(t, "", category)
			assert.Empty(t, out)
		}
	})

	t.Run("multibyte categories", func(t *testing.T) {
		f, err := NewMediaFormatter("/s/", true, map[string]string{"jpé": "<img src='{URL}'>"})
		require.NoError(t, err)
		out, err := f.RenderEntries([]MediaEntry{{URL: "bild.jpé"}})
		require.NoError(t, err)
		assert.Equal(t, "<img src='/s/bild.jpé'>", out)
	})

	t.Run("unknown category fails the whole render", func(t *testing.T) {
		out, err := f.RenderEntries([]MediaEntry{{URL: "a.js"}, {URL: "b.xyz"}})
		require.Error(t, err)
		assert.Empty(t, out)
	})
}

func TestMedia_Bundle(t *testing.T) {
	m := (&Media{}).
		AddCSS("screen", "css/screen.css").
		AddCSS("", "css/base.css").
		AddJS("js/a.js", "js/b.js")

	entries := m.entries()
	require.Len(t, entries, 4)
	assert.Equal(t, MediaEntry{URL: "css/base.css", Group: MediaGroupAll}, entries[0])
	assert.Equal(t, MediaEntry{URL: "css/screen.css", Group: "screen"}, entries[1])
	assert.Equal(t, MediaEntry{URL: "js/a.js"}, entries[2])
	assert.Equal(t, MediaEntry{URL: "js/b.js"}, entries[3])

	f, err := NewMediaFormatter("/s/", true, map[string]string{
		"css": "<link href='{URL}' media='{MEDIA}' />",
	})
	require.NoError(t, err)

	out, err := f.RenderMedia(m)
	require.NoError(t, err)
	assert.Equal(t,
		"<link href='/s/css/base.css' media='all' />\n"+
			"<link href='/s/css/screen.css' media='screen' />\n"+
			"<script type='text/javascript' src='/s/js/a.js'></script>\n"+
			"<script type='text/javascript' src='/s/js/b.js'></script>",
		out)
}

func TestExpandMediaEntries(t *testing.T) {
	m := (&Media{}).AddJS("js/w.js")

	assert.Equal(t, []MediaEntry{{URL: "x.js"}}, expandMediaEntries("x.js"))
	assert.Equal(t, []MediaEntry{{URL: "y.js"}}, expandMediaEntries(assetString("y.js")))
	assert.Equal(t, []MediaEntry{{URL: "js/w.js"}}, expandMediaEntries(m))
	assert.Equal(t, []MediaEntry{{URL: "js/w.js"}}, expandMediaEntries(*m))
	assert.Equal(t, []MediaEntry{{URL: "js/w.js"}}, expandMediaEntries(widget{media: m}))
	assert.Nil(t, expandMediaEntries(widget{}))
	assert.Nil(t, expandMediaEntries(42))
}
