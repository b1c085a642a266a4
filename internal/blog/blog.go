// Package blog implements the blog's navigation handlers: the channel and
// category menu, the post list and the post, rendered into a page over
// its navigation socket.
package blog

import (
	"context"
	"log/slog"
	"path"
	"sync"

	"github.com/a-h/templ"

	"github.com/vango-dev/waypoint/internal/content"
	werrors "github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/internal/markdown"
	"github.com/vango-dev/waypoint/internal/view"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Renderer replaces the content of the element matching target.
type Renderer interface {
	Render(target, html string) error
}

// ResourceName is the resource the blog's handlers are registered under
// in route map files.
const ResourceName = "blog"

// Blog renders one page. It is not shared between pages.
type Blog struct {
	store  content.Reader
	out    Renderer
	links  view.Links
	logger *slog.Logger

	Site *Site
	Nav  *Nav

	mu   sync.Mutex
	last *selection
}

type selection struct {
	channel, category, link string
}

// Option configures a Blog.
type Option func(*Blog)

// WithLinks sets how hrefs are built.
func WithLinks(links view.Links) Option {
	return func(b *Blog) {
		b.links = links
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Blog) {
		b.logger = logger
	}
}

// New creates a Blog reading from store and rendering into out.
func New(store content.Reader, out Renderer, opts ...Option) *Blog {
	b := &Blog{
		store:  store,
		out:    out,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.Site = &Site{store: store, out: out}
	b.Nav = &Nav{store: store, out: out, links: b.links}
	return b
}

// Routes returns the blog's route table. Mount it with forward recursion.
func (b *Blog) Routes() router.RouteMap {
	h := []router.HandlerFunc{b.Route}
	return router.RouteMap{
		{Key: `/:channel/:category/(.*\.(?:html|md))`, Handlers: h},
		{Key: "/:channel/:category", Handlers: h},
		{Key: "/:channel", Handlers: h},
		{Key: "/", Handlers: h},
	}
}

// Resources returns the handlers route map files may name.
func (b *Blog) Resources() map[string]router.HandlerFunc {
	return map[string]router.HandlerFunc{
		ResourceName: b.Route,
		"site":       b.Site.Load,
	}
}

// Route shows the post selected by captures: channel, category and the
// article's file name, each optional.
func (b *Blog) Route(ctx context.Context, captures ...string) error {
	at := func(i int) string {
		if i < len(captures) {
			return captures[i]
		}
		return ""
	}
	return b.Show(ctx, at(0), at(1), at(2))
}

// Show renders the post list of channel/category and the post link. An
// empty channel or category selects the first one; an empty link selects
// the first post of the list.
//
// Showing the selection already on the page does nothing, so ancestor
// routes running the same handler under recursion render once.
func (b *Blog) Show(ctx context.Context, channel, category, link string) error {
	sel := selection{channel, category, link}
	b.mu.Lock()
	if b.last != nil && *b.last == sel {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	channels, err := b.store.Categories(ctx)
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return b.render(ctx, view.TargetList, view.PostList(b.links, "", nil, false))
	}

	if channel == "" {
		channel = channels[0].Name
	}
	ch, ok := findChannel(channels, channel)
	if !ok {
		return werrors.New("W301").WithDetailf("no channel %q", channel)
	}
	if category == "" && len(ch.Categories) > 0 {
		category = ch.Categories[0].Name
	}

	if err := b.Nav.SetCurrent(ctx, channel); err != nil {
		return err
	}

	all, err := b.store.Posts(ctx)
	if err != nil {
		return err
	}
	list := filterPosts(all, category)

	withDate := ch.Tmpl != content.ListNoDate
	if err := b.render(ctx, view.TargetList, view.PostList(b.links, channel, list, withDate)); err != nil {
		return err
	}

	articleLink := ""
	switch {
	case category != "" && link != "":
		articleLink = path.Join("articles", category, link)
	case len(list) > 0:
		articleLink = list[0].Link
	}

	if err := b.showPost(ctx, articleLink); err != nil {
		return err
	}

	b.mu.Lock()
	b.last = &sel
	b.mu.Unlock()

	b.logger.Debug("blog: shown", "channel", channel, "category", category, "article", articleLink, "posts", len(list))
	return nil
}

// Reset forgets the selection on the page so the next Show renders.
func (b *Blog) Reset() {
	b.mu.Lock()
	b.last = nil
	b.mu.Unlock()
}

func (b *Blog) showPost(ctx context.Context, link string) error {
	if link == "" {
		return b.out.Render(view.TargetPost, "")
	}

	body, err := b.store.Article(ctx, link)
	if err != nil {
		return err
	}
	return b.render(ctx, view.TargetPost, view.Post(markdown.Render(link, body)))
}

func (b *Blog) render(ctx context.Context, target string, c templ.Component) error {
	return renderTo(ctx, b.out, target, c)
}

func renderTo(ctx context.Context, out Renderer, target string, c templ.Component) error {
	html, err := view.HTML(ctx, c)
	if err != nil {
		return err
	}
	return out.Render(target, html)
}

func findChannel(channels []content.Category, name string) (content.Category, bool) {
	for _, ch := range channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return content.Category{}, false
}

func filterPosts(posts []content.Post, category string) []content.Post {
	var out []content.Post
	for _, p := range posts {
		if p.Categories == category {
			out = append(out, p)
		}
	}
	return out
}
