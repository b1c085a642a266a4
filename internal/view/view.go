// Package view renders the blog's page fragments as templ components.
package view

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/vango-dev/waypoint/internal/content"
	"github.com/vango-dev/waypoint/internal/markdown"
	"github.com/vango-dev/waypoint/pkg/navsocket"
)

// Element selectors the page shell provides and the blog renders into.
const (
	TargetBanner    = "#top-banner"
	TargetBrand     = "#brand"
	TargetNav       = "#nav"
	TargetList      = "#list"
	TargetPost      = "#post"
	TargetCopyright = "#copyright"
)

// Links builds navigation hrefs for hash or history mode.
type Links struct {
	History bool
}

// Href joins parts into a route href.
func (l Links) Href(parts ...string) string {
	path := "/" + strings.Join(parts, "/")
	if l.History {
		return path
	}
	return "#" + path
}

// HTML renders c to a string.
func HTML(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) attr(name, value string) {
	w.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// Banner renders the site tagline.
func Banner(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="wrapper">`)
		w.text(text)
		w.raw(`</div>`)
		return w.err
	})
}

// Copyright renders the copyright line.
func Copyright(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`&copy; `)
		w.text(text)
		return w.err
	})
}

// Brand renders the site brand.
func Brand(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.text(text)
		return w.err
	})
}

// Nav renders the channel menu. The current channel's category list is
// open.
func Nav(links Links, channels []content.Category, current string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<ul class="master">`)
		for _, ch := range channels {
			w.raw(`<li><a href="####"`)
			w.attr("data-id", ch.Name)
			if ch.Name == current {
				w.raw(` class="current"`)
			}
			w.raw(`>`)
			w.text(ch.Title)
			w.raw(`</a><div class="slave"`)
			w.attr("data-master", ch.Name)
			if ch.Name != current {
				w.raw(` hidden`)
			}
			w.raw(`><ul>`)
			for _, cat := range ch.Categories {
				w.raw(`<li><a`)
				w.attr("href", links.Href(ch.Name, cat.Name))
				w.raw(`>`)
				w.text(cat.Title)
				w.raw(`</a></li>`)
			}
			w.raw(`</ul></div></li>`)
		}
		w.raw(`</ul>`)
		return w.err
	})
}

// PostList renders the posts of a channel's category, each with its
// publication date when withDate is set.
func PostList(links Links, channel string, posts []content.Post, withDate bool) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<ul>`)
		for _, p := range posts {
			w.raw(`<li><a`)
			w.attr("href", links.Href(channel, p.Categories, p.Filename()))
			w.attr("data-id", p.ID)
			w.raw(`>`)
			if withDate {
				w.text(FormatDate(p.PubDate) + " ")
			}
			w.text(p.Title)
			w.raw(`</a></li>`)
		}
		w.raw(`</ul>`)
		return w.err
	})
}

// FormatDate renders d as "[2006-01-02]".
func FormatDate(d content.Date) string {
	return fmt.Sprintf("[%04d-%02d-%02d]", d.Year, d.Month, d.Day)
}

// Post wraps a rendered article.
func Post(body template.HTML) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<section><article class="post-content">`)
		w.raw(string(body))
		w.raw(`</article></section>`)
		return w.err
	})
}

// Page renders the page shell. Its containers are filled over the
// navigation socket.
func Page(site content.Site, history bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html><head><meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.raw(`<title>`)
		w.text(Title(site))
		w.raw(`</title><style>`)
		w.raw(string(markdown.CodeCSS()))
		w.raw(`</style></head><body`)
		if history {
			w.raw(` data-history`)
		}
		w.raw(`>`)
		w.raw(`<header><div id="top-banner">`)
		if w.err == nil {
			w.err = Banner(site.Tagline).Render(ctx, out)
		}
		w.raw(`</div><h1 id="brand">`)
		w.text(site.Brand)
		w.raw(`</h1><nav id="nav"></nav></header>`)
		w.raw(`<main><aside id="list"></aside><div id="post"></div></main>`)
		w.raw(`<footer id="copyright">`)
		if w.err == nil {
			w.err = Copyright(site.Copyright).Render(ctx, out)
		}
		w.raw(`</footer>`)
		w.raw(navsocket.ClientScript)
		w.raw(`</body></html>`)
		return w.err
	})
}

// Title is the document title of the site.
func Title(site content.Site) string {
	return site.Title + "- " + site.Brand
}
