// Package content loads the blog's documents: site settings, the channel
// and category tree, the post index and the article bodies.
//
// Documents come from a Backend (a directory or an S3 bucket) and are
// cached by a Store until invalidated.
package content

import (
	"context"
	"strings"
)

// Well-known document names.
const (
	SettingsFile   = "settings.json"
	CategoriesFile = "categories.json"
	PostsFile      = "posts.json"
)

// Settings is the decoded settings.json.
type Settings struct {
	Site Site `json:"site"`
}

// Site holds the site-wide strings.
type Site struct {
	Title     string `json:"title"`
	Brand     string `json:"brand"`
	Tagline   string `json:"tagline"`
	Copyright string `json:"copyright"`
}

// Category is a channel or a category within one. Channels hold
// categories; categories hold nothing.
type Category struct {
	Name  string `json:"name"`
	Title string `json:"title"`

	// Tmpl selects the post list layout of a channel: ListHasDate or
	// ListNoDate.
	Tmpl string `json:"tmpl,omitempty"`

	Categories []Category `json:"categories,omitempty"`
}

// Post list layouts.
const (
	ListHasDate = "list_has_date"
	ListNoDate  = "list_no_date"
)

// Find returns the child category named name.
func (c Category) Find(name string) (Category, bool) {
	for _, child := range c.Categories {
		if child.Name == name {
			return child, true
		}
	}
	return Category{}, false
}

// Post is an entry of posts.json.
type Post struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// Link is the article path relative to the content root, such as
	// "articles/tech/router.md".
	Link string `json:"link"`

	// Categories names the category the post is filed under.
	Categories string `json:"categories"`

	PubDate Date `json:"pubDate"`
}

// Filename is the last element of Link.
func (p Post) Filename() string {
	if i := strings.LastIndex(p.Link, "/"); i >= 0 {
		return p.Link[i+1:]
	}
	return p.Link
}

// Date is a publication date.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Reader is the read side of a Store.
type Reader interface {
	Settings(ctx context.Context) (*Settings, error)
	Categories(ctx context.Context) ([]Category, error)
	Posts(ctx context.Context) ([]Post, error)
	Article(ctx context.Context, link string) ([]byte, error)
}

// Backend reads raw documents by slash-separated name.
type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
}
