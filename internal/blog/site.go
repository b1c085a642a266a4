package blog

import (
	"context"
	"sync"

	"github.com/vango-dev/waypoint/internal/content"
	"github.com/vango-dev/waypoint/internal/view"
)

// Site renders the site-wide strings from settings.json.
type Site struct {
	store content.Reader
	out   Renderer
}

// Load renders the banner, the brand and the copyright. It has the
// handler signature so route maps can run it, typically as a root before
// hook.
func (s *Site) Load(ctx context.Context, _ ...string) error {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return err
	}
	site := settings.Site

	if err := renderTo(ctx, s.out, view.TargetBanner, view.Banner(site.Tagline)); err != nil {
		return err
	}
	if err := renderTo(ctx, s.out, view.TargetBrand, view.Brand(site.Brand)); err != nil {
		return err
	}
	return renderTo(ctx, s.out, view.TargetCopyright, view.Copyright(site.Copyright))
}

// Nav renders the channel menu.
type Nav struct {
	store content.Reader
	out   Renderer
	links view.Links

	mu      sync.Mutex
	current string
	loaded  bool
}

// SetCurrent opens channel's category list. The menu is rendered only
// when it changes.
func (n *Nav) SetCurrent(ctx context.Context, channel string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.loaded && n.current == channel {
		return nil
	}

	channels, err := n.store.Categories(ctx)
	if err != nil {
		return err
	}
	if err := renderTo(ctx, n.out, view.TargetNav, view.Nav(n.links, channels, channel)); err != nil {
		return err
	}
	n.current, n.loaded = channel, true
	return nil
}

// Current returns the open channel.
func (n *Nav) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Reload renders the menu again on the next SetCurrent.
func (n *Nav) Reload() {
	n.mu.Lock()
	n.loaded = false
	n.mu.Unlock()
}
