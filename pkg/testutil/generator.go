package testutil

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/guidepost/pkg/tour"
)

// GenerateTipSet builds a deterministic tip set. Primary tips target
// "#<key>-p<i>", advanced tips "#<key>-a<i>".
func GenerateTipSet(pageKey string, primary, advanced int) tour.TipSet {
	ts := tour.TipSet{PageKey: pageKey, PageName: strings.ToUpper(pageKey[:1]) + pageKey[1:]}
	for i := 0; i < primary; i++ {
		ts.Primary = append(ts.Primary, tour.Tip{
			ID:      fmt.Sprintf("%s-p%d", pageKey, i),
			Target:  fmt.Sprintf("#%s-p%d", pageKey, i),
			Title:   fmt.Sprintf("Primary %d", i+1),
			Content: fmt.Sprintf("Primary tip %d for %s.", i+1, pageKey),
		})
	}
	for i := 0; i < advanced; i++ {
		ts.Advanced = append(ts.Advanced, tour.Tip{
			ID:      fmt.Sprintf("%s-a%d", pageKey, i),
			Target:  fmt.Sprintf("#%s-a%d", pageKey, i),
			Title:   fmt.Sprintf("Advanced %d", i+1),
			Content: fmt.Sprintf("Advanced tip %d for %s.", i+1, pageKey),
		})
	}
	return ts
}

// RegionsFor lays out one small region per tip of ts in a column near
// the viewport center, so every target is inside the scroller margin.
func RegionsFor(ts tour.TipSet, vp tour.Size) []tour.Region {
	tips := ts.Steps(true)
	regions := make([]tour.Region, 0, len(tips))
	top := vp.Height/2 - len(tips)/2
	for i, tip := range tips {
		regions = append(regions, tour.Region{
			ID:   strings.TrimPrefix(tip.Target, "#"),
			Name: tip.Title,
			Rect: tour.Rect{Top: top + i, Left: vp.Width/2 - 5, Width: 10, Height: 1},
		})
	}
	return regions
}

// MapCatalog is a tour.Catalog over a map. Routes map a route string to
// a page key; a route equal to a page key always resolves.
type MapCatalog struct {
	Sets   map[string]tour.TipSet
	Routes map[string]string
}

// NewMapCatalog indexes the given sets by page key.
func NewMapCatalog(sets ...tour.TipSet) *MapCatalog {
	c := &MapCatalog{Sets: make(map[string]tour.TipSet), Routes: make(map[string]string)}
	for _, ts := range sets {
		c.Sets[ts.PageKey] = ts
		c.Routes["/"+ts.PageKey] = ts.PageKey
	}
	return c
}

// TipSet implements tour.Catalog.
func (c *MapCatalog) TipSet(pageKey string) (tour.TipSet, bool) {
	ts, ok := c.Sets[pageKey]
	return ts, ok
}

// PageKeyForRoute implements tour.Catalog.
func (c *MapCatalog) PageKeyForRoute(route string) (string, bool) {
	if key, ok := c.Routes[route]; ok {
		return key, true
	}
	if _, ok := c.Sets[route]; ok {
		return route, true
	}
	return "", false
}
