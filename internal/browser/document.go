package browser

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selection adapts a goquery selection to Element.
type Selection struct {
	sel *goquery.Selection
}

func NewSelection(sel *goquery.Selection) *Selection {
	return &Selection{sel: sel}
}

// ParseDocument parses html into a root element.
func ParseDocument(r io.Reader) (*Selection, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return NewSelection(doc.Selection), nil
}

func ParseHTML(html string) (*Selection, error) {
	return ParseDocument(strings.NewReader(html))
}

func (s *Selection) Find(selector string) (Element, error) {
	found := s.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, ErrNoSuchElement
	}
	return NewSelection(found), nil
}

func (s *Selection) FindAll(selector string) ([]Element, error) {
	found := s.sel.Find(selector)
	out := make([]Element, 0, found.Length())
	found.Each(func(_ int, item *goquery.Selection) {
		out = append(out, NewSelection(item))
	})
	return out, nil
}

func (s *Selection) Text() (string, error) {
	return s.sel.Text(), nil
}

func (s *Selection) Attr(name string) (string, bool, error) {
	value, ok := s.sel.Attr(name)
	return value, ok, nil
}

func (s *Selection) InnerHTML() (string, error) {
	return s.sel.Html()
}

// staticPage is a parsed page shared by the drivers that work on raw HTML.
type staticPage struct {
	url  string
	root *Selection
	raw  []byte
}

func (p *staticPage) URL() string {
	if p == nil {
		return ""
	}
	return p.url
}

func (p *staticPage) FindAll(selector string) ([]Element, error) {
	if p == nil || p.root == nil {
		return nil, nil
	}
	return p.root.FindAll(selector)
}
