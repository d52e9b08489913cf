// Package browser is the browser-automation capability the scraper drives:
// navigate to a URL, query elements by CSS selector and read their text,
// attributes and inner markup.
//
// A Browser is a single shared cursor over the current page and must not be
// used from more than one goroutine.
package browser

import (
	"context"

	"github.com/cockroachdb/errors"
)

var ErrNoSuchElement = errors.New("no such element")

type Browser interface {
	Navigate(ctx context.Context, url string) error
	// URL is the address of the current page.
	URL() string
	FindAll(ctx context.Context, selector string) ([]Element, error)
	Close() error
}

type Element interface {
	// Find returns the first match below the element or ErrNoSuchElement.
	Find(selector string) (Element, error)
	FindAll(selector string) ([]Element, error)
	Text() (string, error)
	Attr(name string) (string, bool, error)
	InnerHTML() (string, error)
}

// Snapshotter is implemented by drivers that can dump the current page for
// debugging.
type Snapshotter interface {
	Snapshot(ctx context.Context, dir, name string) ([]string, error)
}

// ByClass builds a selector matching a single class name.
func ByClass(name string) string {
	return "." + name
}
