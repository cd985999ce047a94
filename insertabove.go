// Package insertabove adds "insert above" tags to pongo2 templates: fragments
// declared anywhere in a template tree are collected and rendered together at
// one fixed place, usually the page head of a base template.
//
// Child templates discover the scripts and stylesheets they need while they
// render, which happens after the base template has already passed its head.
// A page handler renders its body twice to invert that: deposits happen first,
// containers are filled afterwards.
//
// # Basic Usage
//
//	engine := insertabove.MustNew(insertabove.WithMediaURL("/static/"))
//	_ = engine.RegisterTemplate(ctx, "base.html", `{% insert_handler %}<head>
//	{% media_container js %}
//	</head><body>{% block content %}{% endblock %}</body>
//	{% endinsert_handler %}`)
//	_ = engine.RegisterTemplate(ctx, "page.html", `{% extends "base.html" %}
//	{% block content %}{% insert_str js "js/page.js" %}Hello{% endblock %}`)
//
//	out, err := engine.Render(ctx, "page.html", nil)
//	// <head>
//	// <script type='text/javascript' src='/static/js/page.js'></script>
//	// </head><body>Hello</body>
//
// # Tags
//
// insert_handler - the page handler, at most one per render:
//
//	{% insert_handler %}...{% endinsert_handler %}
//
// container - joins the bucket's items in deposit order, one per line:
//
//	{% container scripts %}
//
// media_container - treats items as asset URLs, drops duplicates and wraps
// each URL in the tag registered for its category:
//
//	{% media_container js %}
//
// insert_str and insert_form - deposit the value of an expression:
//
//	{% insert_str js "js/app.js" %}
//	{% insert_form css form %}
//
// insert - deposit a rendered body:
//
//	{% insert scripts %}<script>init();</script>{% endinsert %}
//
// # Media Categories
//
// The category of a URL is its last three characters, so "site.css" is "css"
// and "app.js" is ".js". Formats are registered per category with WithMediaFormat
// and must contain {URL}; a {MEDIA} placeholder receives the stylesheet media
// group of asset bundles. An unregistered category fails the render.
//
// The media_tag filter formats one URL with the default settings; the
// media_tag function uses the settings of the engine that renders:
//
//	{{ "js/ga.js"|media_tag }}
//	{{ media_tag("js/ga.js") }}
//
// # Storage
//
// Templates are loaded from a TemplateStorage (memory, filesystem, postgres,
// redis) or any pongo2 loader. Backends are opened by driver name:
//
//	storage, err := insertabove.OpenStorage("filesystem", "./templates")
//	engine, err := insertabove.New(insertabove.WithStorage(storage))
//
// Remote backends can be wrapped in a CachedStorage so that inherited base
// templates are not fetched on every render.
package insertabove
