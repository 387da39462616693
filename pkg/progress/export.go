package progress

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	json "github.com/goccy/go-json"
)

// PageStatus is one row of a progress report.
type PageStatus struct {
	PageKey  string  `json:"page_key"`
	PageName string  `json:"page_name,omitempty"`
	Seen     bool    `json:"seen"`
	Record   *Record `json:"last,omitempty"`
}

// Report is the exported progress snapshot.
type Report struct {
	Pages []PageStatus `json:"pages"`
}

// PageInfo names a page known to the catalog.
type PageInfo struct {
	Key  string
	Name string
}

// BuildReport merges catalog pages with stored records. Pages appear in
// the given order; records for pages the catalog no longer knows follow,
// sorted by key.
func BuildReport(ctx context.Context, s Store, pages []PageInfo) (Report, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return Report{}, err
	}
	byKey := make(map[string]Record, len(recs))
	for _, r := range recs {
		byKey[r.PageKey] = r
	}

	var rep Report
	for _, p := range pages {
		st := PageStatus{PageKey: p.Key, PageName: p.Name}
		if r, ok := byKey[p.Key]; ok {
			r := r
			st.Seen = true
			st.Record = &r
			delete(byKey, p.Key)
		}
		rep.Pages = append(rep.Pages, st)
	}
	orphans := make([]Record, 0, len(byKey))
	for _, r := range byKey {
		orphans = append(orphans, r)
	}
	sortRecords(orphans)
	for _, r := range orphans {
		r := r
		rep.Pages = append(rep.Pages, PageStatus{PageKey: r.PageKey, Seen: true, Record: &r})
	}
	return rep, nil
}

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteTable writes the report as an aligned text table.
func (r Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PAGE\tNAME\tSTATUS\tSTEPS\tUPDATED")
	for _, p := range r.Pages {
		status, steps, updated := "new", "-", "-"
		if p.Record != nil {
			status = string(p.Record.Outcome)
			steps = fmt.Sprint(p.Record.StepsViewed)
			updated = p.Record.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.PageKey, p.PageName, status, steps, updated)
	}
	return tw.Flush()
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].PageKey < recs[j].PageKey })
}
