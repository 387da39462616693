package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/guidepost/pkg/tour"
)

// Routes of the demo screens.
const (
	RouteList     = "/list"
	RouteBoard    = "/board"
	RouteSettings = "/settings"
	routeDetail   = "/detail/"
)

// DetailRoute returns the route of an issue's detail screen.
func DetailRoute(id int) string { return routeDetail + strconv.Itoa(id) }

type screen int

const (
	screenList screen = iota
	screenBoard
	screenDetail
	screenSettings
)

func (s screen) String() string {
	switch s {
	case screenBoard:
		return "Board"
	case screenDetail:
		return "Detail"
	case screenSettings:
		return "Settings"
	default:
		return "List"
	}
}

// parseRoute maps a route to a screen, and for detail routes the issue id.
func parseRoute(route string) (screen, int, bool) {
	switch route {
	case "", "/", RouteList:
		return screenList, 0, true
	case RouteBoard:
		return screenBoard, 0, true
	case RouteSettings:
		return screenSettings, 0, true
	}
	if rest, ok := strings.CutPrefix(route, routeDetail); ok {
		id, err := strconv.Atoi(rest)
		if err == nil {
			return screenDetail, id, true
		}
	}
	if strings.HasPrefix(route, RouteList+"/") {
		return screenList, 0, true
	}
	return screenList, 0, false
}

type demoIssue struct {
	ID       int
	Title    string
	Priority int
	Status   string
	Assignee string
	Labels   []string
	Lead     string
	Updated  time.Time
	Body     []string
	History  []string
}

var demoTitles = []string{
	"Login form loses focus after failed attempt",
	"Export to CSV drops unicode columns",
	"Board view flickers on resize",
	"Add keyboard shortcut for archiving",
	"Search ignores closed issues",
	"Crash when config file is empty",
	"Dark theme contrast on badges",
	"Slow startup with large workspaces",
	"Document the plugin API",
	"Retry sync on flaky networks",
	"Duplicate labels after merge",
	"Wrap long titles in detail view",
}

var demoPeople = []string{"alice", "bob", "carol", "dan", "erin"}

// demoIssues returns the fixed issue set the screens render.
func demoIssues(n int) []demoIssue {
	statuses := []string{"open", "in_progress", "open", "closed", "open"}
	issues := make([]demoIssue, 0, n)
	now := time.Now()
	for i := 0; i < n; i++ {
		id := i + 1
		title := demoTitles[i%len(demoTitles)]
		if i >= len(demoTitles) {
			title = fmt.Sprintf("%s (%d)", title, i/len(demoTitles)+1)
		}
		is := demoIssue{
			ID:       id,
			Title:    title,
			Priority: (i*3 + 1) % 5,
			Status:   statuses[i%len(statuses)],
			Assignee: demoPeople[i%len(demoPeople)],
			Labels:   []string{[]string{"ui", "backend", "docs", "infra"}[i%4]},
			Updated:  now.Add(-time.Duration(i*7+1) * time.Hour),
			Lead: fmt.Sprintf("Reported by %s. %s reproduces on every platform we tried and blocks the next release until fixed.",
				demoPeople[(i+2)%len(demoPeople)], title),
		}
		for p := 0; p < 14; p++ {
			is.Body = append(is.Body,
				fmt.Sprintf("Step %d: open the affected screen, repeat the action and compare the result with the previous release. Notes from triage round %d follow in the thread.", p+1, p+1),
				"")
		}
		is.History = []string{
			fmt.Sprintf("created by %s", demoPeople[(i+2)%len(demoPeople)]),
			fmt.Sprintf("assigned to %s", is.Assignee),
			fmt.Sprintf("priority set to P%d", is.Priority),
			fmt.Sprintf("status changed to %s", is.Status),
		}
		issues = append(issues, is)
	}
	return issues
}

// frame is one layout pass: the rendered lines and the regions they hold.
type frame struct {
	width, height int
	lines         []string
	regions       []tour.Region
	// scrollables maps a region id to the scroll container it lives in.
	scrollables map[string]scrollable
}

// scrollable locates a region inside a scroll container.
type scrollable struct {
	vp          *viewport.Model
	contentLine int
	height      int
}

func newFrame(w, h int) *frame {
	return &frame{width: w, height: h, lines: make([]string, h), scrollables: make(map[string]scrollable)}
}

func (f *frame) set(row int, line string) {
	if row < 0 || row >= f.height {
		return
	}
	f.lines[row] = line
}

func (f *frame) region(id, name string, r tour.Rect, classes ...string) {
	f.regions = append(f.regions, tour.Region{ID: id, Name: name, Classes: classes, Rect: r})
}

func (f *frame) String() string {
	out := make([]string, len(f.lines))
	for i, l := range f.lines {
		out[i] = padStyled(l, f.width)
	}
	return strings.Join(out, "\n")
}

// layout renders the current screen into a frame.
func (h *Host) layout() *frame {
	f := newFrame(h.width, h.height)
	h.layoutHeader(f)
	switch h.screen {
	case screenBoard:
		h.layoutBoard(f)
	case screenDetail:
		h.layoutDetail(f)
	case screenSettings:
		h.layoutSettings(f)
	default:
		h.layoutList(f)
	}
	h.layoutStatus(f)
	return f
}

func (h *Host) layoutHeader(f *frame) {
	t := h.theme
	var tabs []string
	for i, s := range []screen{screenList, screenBoard, screenSettings} {
		label := fmt.Sprintf("%d %s", i+1, s)
		if s == h.screen || (s == screenList && h.screen == screenDetail) {
			tabs = append(tabs, t.Header.Render(label))
		} else {
			tabs = append(tabs, t.Status.Render(" "+label+" "))
		}
	}
	left := t.TooltipTitle.Render("guidepost") + "  " + strings.Join(tabs, " ")
	right := ""
	if p, ok := h.ctrl.Progress(); ok {
		right = t.ProgressText.Render(fmt.Sprintf("tour: %s %d/%d", p.PageName, p.Step, p.Total))
	}
	gap := max(h.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	f.set(0, left+strings.Repeat(" ", gap)+right)
	f.region("header", "header", tour.Rect{Top: 0, Left: 0, Width: h.width, Height: 1})
}

func (h *Host) layoutStatus(f *frame) {
	row := h.height - 1
	if row < 1 {
		return
	}
	t := h.theme
	hint := "? tour"
	hintWidth := lipgloss.Width(hint)

	var left string
	switch {
	case h.toast != "":
		left = t.Toast.Render(h.toast)
	case h.missingTargetNote() != "":
		left = t.ProgressText.Render(h.missingTargetNote())
	default:
		h.help.Width = max(h.width-hintWidth-2, 0)
		left = h.help.View(h.keys.host)
	}
	left = padStyled(left, max(h.width-hintWidth-1, 0))
	f.set(row, left+" "+t.Status.Render(hint))
	f.region("status-bar", "status bar", tour.Rect{Top: row, Left: 0, Width: h.width, Height: 1})
	f.region("help-hint", "help", tour.Rect{Top: row, Left: max(h.width-hintWidth, 0), Width: hintWidth, Height: 1})
}

func (h *Host) missingTargetNote() string {
	v, ok := h.ctrl.View()
	if !ok || !v.TargetMissing {
		return ""
	}
	return fmt.Sprintf("tip %d/%d: %q is not on screen, press s to skip the tour", v.Progress.Step, v.Progress.Total, v.Tip.Title)
}

// List screen: filter bar, scrollable issue rows and, on wide terminals,
// a preview of the selected issue.

const (
	listTop      = 2
	badgeColumn  = 8
	badgeWidth   = 2
	rowIDColumns = 6

	// splitViewThreshold is the width from which the preview pane shows.
	splitViewThreshold = 100
)

// listWidth returns the width of the issue rows.
func (h *Host) listWidth() int {
	if h.width >= splitViewThreshold {
		return h.width * 3 / 5
	}
	return h.width
}

func (h *Host) layoutList(f *frame) {
	t := h.theme
	open := 0
	for _, is := range h.issues {
		if is.Status != "closed" {
			open++
		}
	}
	f.set(1, t.Status.Render(fmt.Sprintf("Filter: all · %d issues, %d open · sorted by id", len(h.issues), open)))
	f.region("filter-bar", "filter", tour.Rect{Top: 1, Left: 0, Width: h.width, Height: 1})

	listHeight := max(h.height-listTop-1, 1)
	lw := h.listWidth()
	rows := make([]string, len(h.issues))
	for i, is := range h.issues {
		marker := "  "
		if i == h.cursor {
			marker = "▸ "
		}
		id := padRight(fmt.Sprintf("#%d", is.ID), rowIDColumns)
		title := truncate(is.Title, max(lw-badgeColumn-badgeWidth-16, 4))
		line := marker + id + RenderPriorityBadge(t, is.Priority) + "  " + title + "  " + t.Status.Render(is.Status)
		if i == h.cursor {
			line = t.Selected.Render(padStyled(line, lw))
		}
		rows[i] = line
	}
	h.listVP.Width = lw
	h.listVP.Height = listHeight
	h.listVP.SetContent(strings.Join(rows, "\n"))
	h.keepCursorVisible()

	var preview []string
	pw := h.width - lw - 1
	if pw > 0 && h.cursor < len(h.issues) {
		is := h.issues[h.cursor]
		preview = append(preview, t.TooltipTitle.Render(truncate(fmt.Sprintf("#%d %s", is.ID, is.Title), pw)), "")
		for _, l := range wrapText(is.Lead, pw) {
			preview = append(preview, t.Status.Render(l))
		}
	}

	for i, l := range strings.Split(h.listVP.View(), "\n") {
		if i >= listHeight {
			break
		}
		if pw > 0 {
			p := ""
			if i < len(preview) {
				p = preview[i]
			}
			l = padStyled(l, lw) + t.Status.Render("│") + p
		}
		f.set(listTop+i, l)
	}
	f.region("issue-list", "issues", tour.Rect{Top: listTop, Left: 0, Width: lw, Height: listHeight})
	if pw > 0 {
		f.region("issue-preview", "preview", tour.Rect{Top: listTop, Left: lw + 1, Width: pw, Height: listHeight})
	}

	off := h.listVP.YOffset
	for i, is := range h.issues {
		top := listTop + i - off
		rowID := fmt.Sprintf("issue-row-%d", is.ID)
		badgeID := fmt.Sprintf("priority-badge-%d", is.ID)
		f.region(rowID, "", tour.Rect{Top: top, Left: 0, Width: lw, Height: 1}, "issue-row")
		f.region(badgeID, "", tour.Rect{Top: top, Left: badgeColumn, Width: badgeWidth, Height: 1}, "priority-badge")
		f.scrollables[rowID] = scrollable{vp: &h.listVP, contentLine: i, height: 1}
		f.scrollables[badgeID] = scrollable{vp: &h.listVP, contentLine: i, height: 1}
	}
}

func (h *Host) keepCursorVisible() {
	vp := &h.listVP
	switch {
	case h.cursor < vp.YOffset:
		vp.SetYOffset(h.cursor)
	case h.cursor >= vp.YOffset+vp.Height:
		vp.SetYOffset(h.cursor - vp.Height + 1)
	}
}

// Board screen: three status columns.

var boardColumns = []struct {
	id, title, status string
}{
	{"board-todo", "To do", "open"},
	{"board-doing", "Doing", "in_progress"},
	{"board-done", "Done", "closed"},
}

func (h *Host) layoutBoard(f *frame) {
	t := h.theme
	colHeight := max(h.height-2, 3)
	colWidth := max(h.width/len(boardColumns), 6)

	var cols []string
	left := 0
	for ci, c := range boardColumns {
		w := colWidth
		if ci == len(boardColumns)-1 {
			w = max(h.width-left, 6)
		}
		inner := max(w-2, 1)
		lines := []string{t.TooltipTitle.Render(truncate(c.title, inner)), RenderDivider(t, inner)}
		for _, is := range h.issues {
			if is.Status == c.status && len(lines) < colHeight-2 {
				lines = append(lines, truncate(fmt.Sprintf("#%d %s", is.ID, is.Title), inner))
			}
		}
		col := t.Column.Width(inner).Height(colHeight - 2).MaxHeight(colHeight).Render(strings.Join(lines, "\n"))
		cols = append(cols, col)
		f.region(c.id, c.title, tour.Rect{Top: 1, Left: left, Width: w, Height: colHeight})
		left += w
	}
	board := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	for i, l := range strings.Split(board, "\n") {
		if i >= colHeight {
			break
		}
		f.set(1+i, l)
	}
}

// Detail screen: title, meta, then a scrollable description whose history
// section starts below the fold.

const detailTop = 4

func (h *Host) currentIssue() demoIssue {
	for _, is := range h.issues {
		if is.ID == h.detailID {
			return is
		}
	}
	if len(h.issues) > 0 {
		return h.issues[0]
	}
	return demoIssue{}
}

func (h *Host) layoutDetail(f *frame) {
	t := h.theme
	is := h.currentIssue()
	title := fmt.Sprintf("#%d %s", is.ID, is.Title)
	f.set(1, t.TooltipTitle.Render(truncate(title, h.width)))
	f.region("detail-title", "title", tour.Rect{Top: 1, Left: 0, Width: min(lipgloss.Width(title), h.width), Height: 1})

	meta := RenderPriorityBadge(t, is.Priority) + t.Status.Render(fmt.Sprintf(" · %s · %s · %s · updated %s", is.Status, is.Assignee, strings.Join(is.Labels, ", "), FormatTimeRel(is.Updated)))
	f.set(2, meta)
	f.region("detail-meta", "meta", tour.Rect{Top: 2, Left: 0, Width: min(lipgloss.Width(meta), h.width), Height: 1})
	f.set(3, RenderDivider(t, h.width))

	wrap := max(h.width-2, 10)
	var content []string
	lead := wrapText(is.Lead, wrap)
	content = append(content, lead...)
	content = append(content, "")
	for _, p := range is.Body {
		content = append(content, wrapText(p, wrap)...)
	}
	historyLine := len(content)
	content = append(content, t.TooltipTitle.Render("History"))
	for _, e := range is.History {
		content = append(content, t.Status.Render("  • "+e))
	}
	historyHeight := len(is.History) + 1

	vpHeight := max(h.height-detailTop-1, 1)
	h.detailVP.Width = h.width
	h.detailVP.Height = vpHeight
	h.detailVP.SetContent(strings.Join(content, "\n"))
	for i, l := range strings.Split(h.detailVP.View(), "\n") {
		if i >= vpHeight {
			break
		}
		f.set(detailTop+i, l)
	}

	off := h.detailVP.YOffset
	f.region("detail-body", "description", tour.Rect{Top: detailTop - off, Left: 0, Width: h.width, Height: len(lead)})
	f.region("detail-history", "history", tour.Rect{Top: detailTop + historyLine - off, Left: 0, Width: h.width, Height: historyHeight})
	f.scrollables["detail-body"] = scrollable{vp: &h.detailVP, contentLine: 0, height: len(lead)}
	f.scrollables["detail-history"] = scrollable{vp: &h.detailVP, contentLine: historyLine, height: historyHeight}
}

// Settings screen.

var settingsRows = []struct{ id, name string }{
	{"settings-theme", "theme"},
	{"settings-autostart", "tours"},
	{"settings-reset", "reset"},
}

func (h *Host) layoutSettings(f *frame) {
	t := h.theme
	onOff := map[bool]string{true: "on", false: "off"}
	labels := []string{
		"Theme: " + h.themeName,
		"Show tours on first visit: " + onOff[h.ctrl.AutoStart()],
		"Reset all tour progress",
	}
	for i, row := range settingsRows {
		y := 2 + 2*i
		label := labels[i]
		line := "  " + label
		if i == h.settingsRow {
			line = t.Selected.Render("▸ " + label)
		}
		f.set(y, line)
		f.region(row.id, row.name, tour.Rect{Top: y, Left: 2, Width: max(lipgloss.Width(label), 1), Height: 1})
	}

	y := 2 + 2*len(settingsRows) + 1
	f.set(y, t.TooltipTitle.Render("Tours"))
	for i, key := range h.catalog.Keys() {
		set, _ := h.catalog.TipSet(key)
		status := "new"
		if h.seen[key] {
			status = "seen"
		}
		f.set(y+1+i, t.Status.Render(fmt.Sprintf("  %-14s %-5s %d tips", truncate(set.PageName, 14), status, len(set.Primary)+len(set.Advanced))))
	}
}
