// Package catalog loads authored tour content: which screens have tours,
// which routes map to them, and the primary and advanced tips of each.
//
// Catalog files are YAML or JSON:
//
//	pages:
//	  - key: list
//	    name: Issue list
//	    routes: ["/list", "/list/*"]
//	    primary:
//	      - target: "#issue-list"
//	        title: Your issues
//	        content: Every open issue, newest first.
//	        side: right
//	    advanced: [...]
package catalog

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/vanderheijden86/guidepost/pkg/tour"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid catalog")

// File is the on-disk shape of a catalog file.
type File struct {
	Version int    `yaml:"version,omitempty" json:"version,omitempty"`
	Pages   []Page `yaml:"pages" json:"pages"`
}

// Page is one screen's tour.
type Page struct {
	Key      string    `yaml:"key" json:"key"`
	Name     string    `yaml:"name,omitempty" json:"name,omitempty"`
	Routes   []string  `yaml:"routes,omitempty" json:"routes,omitempty"`
	Primary  []TipSpec `yaml:"primary" json:"primary"`
	Advanced []TipSpec `yaml:"advanced,omitempty" json:"advanced,omitempty"`
}

// TipSpec is one authored tip.
type TipSpec struct {
	ID      string `yaml:"id,omitempty" json:"id,omitempty"`
	Target  string `yaml:"target" json:"target"`
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
	Side    string `yaml:"side,omitempty" json:"side,omitempty"`
}

type route struct {
	pattern string
	key     string
}

// Catalog is an immutable, validated set of tip sets. It implements
// tour.Catalog.
type Catalog struct {
	sets   map[string]tour.TipSet
	order  []string
	routes []route
	source string
}

var _ tour.Catalog = (*Catalog)(nil)

// New validates pages and builds a catalog. source names where the pages
// came from and is only used in errors and logs.
func New(source string, pages []Page) (*Catalog, error) {
	c := &Catalog{sets: make(map[string]tour.TipSet), source: source}
	for i, p := range pages {
		ts, err := p.tipSet()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: page %d: %v", ErrInvalid, source, i, err)
		}
		if _, dup := c.sets[ts.PageKey]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate page key %q", ErrInvalid, source, ts.PageKey)
		}
		c.sets[ts.PageKey] = ts
		c.order = append(c.order, ts.PageKey)
		for _, r := range p.Routes {
			r = strings.TrimSpace(r)
			if r == "" {
				continue
			}
			if _, err := path.Match(r, ""); err != nil {
				return nil, fmt.Errorf("%w: %s: page %q: bad route pattern %q", ErrInvalid, source, ts.PageKey, r)
			}
			c.routes = append(c.routes, route{pattern: r, key: ts.PageKey})
		}
	}
	return c, nil
}

func (p Page) tipSet() (tour.TipSet, error) {
	key := strings.TrimSpace(p.Key)
	if key == "" {
		return tour.TipSet{}, errors.New("missing key")
	}
	if len(p.Primary) == 0 {
		return tour.TipSet{}, fmt.Errorf("page %q has no primary tips", key)
	}
	name := p.Name
	if name == "" {
		name = key
	}
	ts := tour.TipSet{PageKey: key, PageName: name}
	seen := make(map[string]bool)

	build := func(specs []TipSpec, kind string) ([]tour.Tip, error) {
		tips := make([]tour.Tip, 0, len(specs))
		for i, s := range specs {
			if strings.TrimSpace(s.Target) == "" {
				return nil, fmt.Errorf("page %q %s tip %d: missing target", key, kind, i)
			}
			side, err := tour.ParseSide(s.Side)
			if err != nil {
				return nil, fmt.Errorf("page %q %s tip %d: %v", key, kind, i, err)
			}
			id := s.ID
			if id == "" {
				id = fmt.Sprintf("%s-%s%d", key, kind[:1], i)
			}
			if seen[id] {
				return nil, fmt.Errorf("page %q: duplicate tip id %q", key, id)
			}
			seen[id] = true
			tips = append(tips, tour.Tip{
				ID:            id,
				Target:        strings.TrimSpace(s.Target),
				Title:         s.Title,
				Content:       strings.TrimSpace(s.Content),
				PreferredSide: side,
			})
		}
		return tips, nil
	}

	var err error
	if ts.Primary, err = build(p.Primary, "primary"); err != nil {
		return tour.TipSet{}, err
	}
	if ts.Advanced, err = build(p.Advanced, "advanced"); err != nil {
		return tour.TipSet{}, err
	}
	return ts, nil
}

// TipSet implements tour.Catalog.
func (c *Catalog) TipSet(pageKey string) (tour.TipSet, bool) {
	ts, ok := c.sets[pageKey]
	return ts, ok
}

// PageKeyForRoute implements tour.Catalog. Exact route patterns win over
// wildcard ones; among either, the first declared wins. A route that equals
// a page key, with or without a leading slash, maps to that page.
func (c *Catalog) PageKeyForRoute(r string) (string, bool) {
	for _, rt := range c.routes {
		if rt.pattern == r {
			return rt.key, true
		}
	}
	for _, rt := range c.routes {
		if ok, _ := path.Match(rt.pattern, r); ok {
			return rt.key, true
		}
	}
	key := strings.TrimPrefix(r, "/")
	if _, ok := c.sets[key]; ok {
		return key, true
	}
	return "", false
}

// Keys returns page keys in declaration order.
func (c *Catalog) Keys() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of pages.
func (c *Catalog) Len() int { return len(c.order) }

// Source describes where the catalog was loaded from.
func (c *Catalog) Source() string { return c.source }

// Routes returns the declared route patterns of pageKey, sorted.
func (c *Catalog) Routes(pageKey string) []string {
	var out []string
	for _, rt := range c.routes {
		if rt.key == pageKey {
			out = append(out, rt.pattern)
		}
	}
	sort.Strings(out)
	return out
}
