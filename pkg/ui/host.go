package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/guidepost/pkg/catalog"
	"github.com/vanderheijden86/guidepost/pkg/debug"
	"github.com/vanderheijden86/guidepost/pkg/tour"
	"github.com/vanderheijden86/guidepost/pkg/watcher"
)

// Default terminal size until the first WindowSizeMsg arrives.
const (
	defaultWidth  = 80
	defaultHeight = 24
)

// toastDuration is how long a status-bar notice stays up.
const toastDuration = 3 * time.Second

// demoIssueCount is the size of the demo issue list.
const demoIssueCount = 60

// CatalogReloadedMsg carries the result of a catalog hot reload. A nil
// Catalog with an error keeps the current catalog.
type CatalogReloadedMsg struct {
	Catalog *catalog.Catalog
	Err     error
}

// Settings is what the settings screen can change.
type Settings struct {
	Theme     string
	AutoStart bool
}

// Options configures a Host.
type Options struct {
	Context context.Context
	Catalog *catalog.Catalog
	Store   tour.ProgressStore
	Metrics tour.Metrics

	AutoStart      bool
	AutoStartDelay time.Duration
	ScrollSettle   time.Duration

	// Theme is "dark" or "light".
	Theme    string
	Backdrop bool
	Markdown bool

	// Route is the initial route; empty means the list.
	Route string
	// StartTour starts the initial page's tour once the terminal size is
	// known, regardless of progress.
	StartTour bool

	// Scheduler overrides the ProgramScheduler, e.g. in tests.
	Scheduler tour.Scheduler
	Renderer  *lipgloss.Renderer

	// OnSettings is called when the user changes a setting.
	OnSettings func(Settings)
}

// Host is a small multi-screen bubbletea app that hosts guided tours. It
// publishes its layout to a tour.Registry on every pass, implements
// tour.Viewport for its scroll containers and routes keys and mouse
// clicks to the tour controller.
type Host struct {
	ctx context.Context

	width, height int
	route         string
	screen        screen
	detailID      int
	cursor        int
	settingsRow   int
	issues        []demoIssue
	listVP        viewport.Model
	detailVP      viewport.Model

	renderer  *lipgloss.Renderer
	themeName string
	theme     Theme
	overlay   *Overlay
	opts      Options
	keys      keyMap
	help      help.Model

	bus      *tour.EventBus
	registry *tour.Registry
	sched    tour.Scheduler
	program  *ProgramScheduler
	ctrl     *tour.Controller
	catalog  *catalog.Catalog
	store    tour.ProgressStore

	frame        *frame
	base         string
	toast        string
	toastTask    tour.Task
	seen         map[string]bool
	pendingStart bool
	sized        bool
	changes      int
}

var _ tour.Viewport = (*Host)(nil)

// NewHost wires the engine to the demo screens.
func NewHost(opts Options) *Host {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Metrics == (tour.Metrics{}) {
		opts.Metrics = tour.CellMetrics
	}
	if opts.Renderer == nil {
		opts.Renderer = lipgloss.DefaultRenderer()
	}
	if opts.Theme == "" {
		opts.Theme = "dark"
	}

	h := &Host{
		ctx:       opts.Context,
		width:     defaultWidth,
		height:    defaultHeight,
		issues:    demoIssues(demoIssueCount),
		listVP:    viewport.New(defaultWidth, defaultHeight-3),
		detailVP:  viewport.New(defaultWidth, defaultHeight-5),
		renderer:  opts.Renderer,
		opts:      opts,
		keys:      defaultKeyMap(),
		help:      help.New(),
		catalog:   opts.Catalog,
		store:     opts.Store,
		seen:      make(map[string]bool),
		route:     opts.Route,
		themeName: opts.Theme,
	}
	h.applyTheme(opts.Theme)

	h.bus = tour.NewEventBus()
	h.registry = tour.NewRegistry(h.bus)
	h.sched = opts.Scheduler
	if h.sched == nil {
		h.program = NewProgramScheduler(nil)
		h.sched = h.program
	}

	deps := tour.Deps{
		Resolver:     h.registry,
		Viewport:     h,
		Events:       h.bus,
		Scheduler:    h.sched,
		Store:        opts.Store,
		Notifier:     tour.NotifierFunc(h.tourCompleted),
		Metrics:      opts.Metrics,
		ScrollSettle: opts.ScrollSettle,
		OnChange:     func() { h.changes++ },
	}
	h.ctrl = tour.NewController(opts.Context, tour.NewSessionState(), opts.Catalog, deps, tour.ControllerConfig{
		AutoStart:      opts.AutoStart,
		AutoStartDelay: opts.AutoStartDelay,
	})
	h.pendingStart = opts.StartTour
	return h
}

func (h *Host) applyTheme(name string) {
	h.themeName = name
	h.theme = ThemeByName(h.renderer, name)
	h.overlay = NewOverlay(h.theme, h.opts.Metrics, OverlayOptions{
		Backdrop:      h.opts.Backdrop,
		Markdown:      h.opts.Markdown,
		MarkdownStyle: name,
	})
	h.help.Styles.ShortKey = h.theme.Renderer.NewStyle().Foreground(h.theme.Primary)
	h.help.Styles.ShortDesc = h.theme.Status
	h.help.Styles.ShortSeparator = h.theme.Renderer.NewStyle().Foreground(h.theme.Muted)
}

// Bind connects the default scheduler to the running program. Call it
// before p.Run.
func (h *Host) Bind(p *tea.Program) {
	if h.program != nil {
		h.program.Bind(p.Send)
	}
}

// Controller exposes the tour controller.
func (h *Host) Controller() *tour.Controller { return h.ctrl }

// Registry exposes the element registry.
func (h *Host) Registry() *tour.Registry { return h.registry }

// Close abandons any running tour and stops pending timers.
func (h *Host) Close() {
	h.ctrl.Close()
	if h.toastTask != nil {
		h.toastTask.Cancel()
	}
	if h.program != nil {
		h.program.Stop()
	}
}

// Size implements tour.Viewport.
func (h *Host) Size() tour.Size {
	return tour.Size{Width: h.width, Height: h.height}
}

// ScrollIntoView implements tour.Viewport. Elements inside a scroll
// container are centered in it; the new layout is published and a scroll
// event emitted. Elements outside any container cannot move.
func (h *Host) ScrollIntoView(el tour.Element) {
	if h.frame == nil {
		return
	}
	sc, ok := h.frame.scrollables[el.ID()]
	if !ok {
		debug.Log("host: %s is not scrollable", el.ID())
		return
	}
	offset := sc.contentLine - (sc.vp.Height-sc.height)/2
	sc.vp.SetYOffset(max(offset, 0))
	if sc.vp == &h.listVP {
		h.cursor = min(max(h.cursor, h.listVP.YOffset), h.listVP.YOffset+h.listVP.Height-1)
	}
	h.relayout()
	h.bus.Emit(tour.Event{Kind: tour.EventScroll})
}

// Init implements tea.Model.
func (h *Host) Init() tea.Cmd {
	h.navigate(h.route)
	return nil
}

// Update implements tea.Model.
func (h *Host) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h.resize(msg.Width, msg.Height)

	case TaskFiredMsg:
		if h.program != nil {
			h.program.Run(msg)
		}

	case CatalogReloadedMsg:
		h.reloadCatalog(msg)

	case tea.MouseMsg:
		h.handleMouse(msg)

	case tea.KeyMsg:
		cmd = h.handleKey(msg)
	}
	h.relayout()
	return h, cmd
}

// View implements tea.Model.
func (h *Host) View() string {
	if h.base == "" {
		h.relayout()
	}
	v, ok := h.ctrl.View()
	if !ok {
		return h.base
	}
	return h.overlay.Render(h.base, h.Size(), v, h.advancedCount())
}

// advancedCount is the number of tips the "show more?" prompt offers.
func (h *Host) advancedCount() int {
	if a := h.ctrl.Active(); a != nil {
		return len(a.TipSet().Advanced)
	}
	return 0
}

// relayout renders the base screen and publishes its regions.
func (h *Host) relayout() {
	h.frame = h.layout()
	h.base = h.frame.String()
	h.registry.Publish(h.frame.regions)
}

func (h *Host) resize(w, ht int) {
	h.width, h.height = max(w, 1), max(ht, 1)
	h.relayout()
	h.bus.Emit(tour.Event{Kind: tour.EventWindowResize})
	if !h.sized {
		h.sized = true
		if h.pendingStart {
			h.pendingStart = false
			if err := h.ctrl.StartTour(""); err != nil {
				h.showToast(err.Error())
			}
		}
	}
}

// navigate switches screens and tells the controller.
func (h *Host) navigate(route string) {
	s, id, ok := parseRoute(route)
	if !ok {
		debug.Log("host: unknown route %q, showing list", route)
		route = RouteList
	}
	if route == "" || route == "/" {
		route = RouteList
	}
	h.route = route
	h.screen = s
	if s == screenDetail {
		h.detailID = id
		h.detailVP.SetYOffset(0)
	}
	if s == screenSettings {
		h.refreshSeen()
	}
	h.relayout()
	h.ctrl.Navigate(route)
}

func (h *Host) refreshSeen() {
	if h.store == nil {
		return
	}
	for _, key := range h.catalog.Keys() {
		done, err := h.store.HasCompleted(h.ctx, key)
		if err != nil {
			debug.Log("host: progress check for %s failed: %v", key, err)
			continue
		}
		h.seen[key] = done
	}
}

func (h *Host) showToast(msg string) {
	h.toast = msg
	if h.toastTask != nil {
		h.toastTask.Cancel()
	}
	h.toastTask = h.sched.Schedule(toastDuration, func() {
		h.toast = ""
		h.toastTask = nil
		h.relayout()
	})
}

func (h *Host) tourCompleted(_ string, pageName string) {
	h.showToast(fmt.Sprintf("Tour complete: %s", pageName))
	h.refreshSeen()
}

func (h *Host) reloadCatalog(msg CatalogReloadedMsg) {
	switch {
	case msg.Catalog != nil:
		h.catalog = msg.Catalog
		h.ctrl.SetCatalog(msg.Catalog)
		h.overlay.Forget()
		h.refreshSeen()
		h.showToast(fmt.Sprintf("Tips reloaded (%d pages)", msg.Catalog.Len()))
	case errors.Is(msg.Err, watcher.ErrFileRemoved):
		h.showToast("Tip catalog removed, keeping the last one")
	case msg.Err != nil:
		h.showToast("Tip catalog invalid: " + msg.Err.Error())
	}
}

func (h *Host) handleMouse(msg tea.MouseMsg) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		h.scroll(-3)
		return
	case msg.Button == tea.MouseButtonWheelDown:
		h.scroll(3)
		return
	case msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft:
		return
	}
	v, ok := h.ctrl.View()
	if !ok {
		return
	}
	var box tour.Rect
	switch {
	case v.Prompting:
		box, _ = h.overlay.PromptRect(h.Size(), v, h.advancedCount())
	case v.Visible:
		box, _ = h.overlay.TooltipRect(v)
	default:
		// Nothing is drawn over the screen, so there is no backdrop.
		return
	}
	click := tour.Rect{Top: msg.Y, Left: msg.X, Width: 1, Height: 1}
	if box.Contains(click) {
		return
	}
	if err := h.ctrl.Dismiss(); err != nil {
		debug.Log("host: dismiss: %v", err)
	}
	h.refreshSeen()
}

// scroll moves the active screen's scroll container by delta lines.
func (h *Host) scroll(delta int) {
	var vp *viewport.Model
	switch h.screen {
	case screenList:
		vp = &h.listVP
	case screenDetail:
		vp = &h.detailVP
	default:
		return
	}
	before := vp.YOffset
	vp.SetYOffset(vp.YOffset + delta)
	if vp.YOffset == before {
		return
	}
	if vp == &h.listVP {
		h.cursor = min(max(h.cursor, vp.YOffset), vp.YOffset+vp.Height-1)
	}
	h.relayout()
	h.bus.Emit(tour.Event{Kind: tour.EventScroll})
}

func (h *Host) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		h.Close()
		return tea.Quit
	}
	k := h.keys.host
	if v, ok := h.ctrl.View(); ok {
		// Screen switches stay available; leaving the page abandons the tour.
		switch {
		case key.Matches(msg, k.List):
			h.navigate(RouteList)
		case key.Matches(msg, k.Board):
			h.navigate(RouteBoard)
		case key.Matches(msg, k.Settings):
			h.navigate(RouteSettings)
		default:
			h.handleTourKey(msg, v)
		}
		return nil
	}

	switch {
	case key.Matches(msg, k.Quit):
		h.Close()
		return tea.Quit
	case key.Matches(msg, k.List):
		h.navigate(RouteList)
	case key.Matches(msg, k.Board):
		h.navigate(RouteBoard)
	case key.Matches(msg, k.Settings):
		h.navigate(RouteSettings)
	case key.Matches(msg, k.Tour):
		if err := h.ctrl.StartTour(""); err != nil {
			h.showToast("No tour for this screen")
		}
	case key.Matches(msg, k.Reset):
		h.resetCurrent()
	case key.Matches(msg, k.Up):
		h.move(-1)
	case key.Matches(msg, k.Down):
		h.move(1)
	case key.Matches(msg, k.Open):
		h.open()
	case key.Matches(msg, k.Back):
		if h.screen == screenDetail {
			h.navigate(RouteList)
		}
	case key.Matches(msg, k.Toggle):
		if h.screen == screenSettings {
			h.open()
		}
	}
	return nil
}

func (h *Host) handleTourKey(msg tea.KeyMsg, v tour.View) {
	var err error
	if v.Prompting {
		switch {
		case key.Matches(msg, h.keys.prompt.Accept):
			err = h.ctrl.AcceptMore()
		case key.Matches(msg, h.keys.prompt.Decline):
			err = h.ctrl.DeclineMore()
		case key.Matches(msg, h.keys.prompt.Skip):
			err = h.ctrl.Skip()
			h.refreshSeen()
		case key.Matches(msg, h.keys.tour.Prev):
			err = h.ctrl.Prev()
		}
	} else {
		switch {
		case key.Matches(msg, h.keys.tour.Next):
			err = h.ctrl.Next()
		case key.Matches(msg, h.keys.tour.Prev):
			err = h.ctrl.Prev()
		case key.Matches(msg, h.keys.tour.Skip):
			err = h.ctrl.Skip()
			h.refreshSeen()
		}
	}
	if err != nil {
		debug.Log("host: tour key %q: %v", msg.String(), err)
	}
}

func (h *Host) move(delta int) {
	switch h.screen {
	case screenList:
		before := h.listVP.YOffset
		h.cursor = min(max(h.cursor+delta, 0), len(h.issues)-1)
		h.relayout()
		if h.listVP.YOffset != before {
			h.bus.Emit(tour.Event{Kind: tour.EventScroll})
		}
	case screenDetail:
		h.scroll(delta)
	case screenSettings:
		h.settingsRow = min(max(h.settingsRow+delta, 0), len(settingsRows)-1)
	}
}

func (h *Host) open() {
	switch h.screen {
	case screenList:
		if h.cursor < len(h.issues) {
			h.navigate(DetailRoute(h.issues[h.cursor].ID))
		}
	case screenSettings:
		h.activateSetting()
	}
}

func (h *Host) activateSetting() {
	switch settingsRows[h.settingsRow].id {
	case "settings-theme":
		next := "light"
		if h.themeName == "light" {
			next = "dark"
		}
		h.applyTheme(next)
		h.settingsChanged()
	case "settings-autostart":
		h.ctrl.SetAutoStart(!h.ctrl.AutoStart())
		h.settingsChanged()
	case "settings-reset":
		if h.store == nil {
			return
		}
		n := 0
		for _, key := range h.catalog.Keys() {
			if err := h.store.ResetProgress(h.ctx, key); err != nil {
				debug.Log("host: reset %s: %v", key, err)
				continue
			}
			n++
		}
		h.refreshSeen()
		h.showToast(fmt.Sprintf("Reset %d tours", n))
	}
}

func (h *Host) settingsChanged() {
	if h.opts.OnSettings != nil {
		h.opts.OnSettings(Settings{Theme: h.themeName, AutoStart: h.ctrl.AutoStart()})
	}
}

func (h *Host) resetCurrent() {
	key := h.ctrl.CurrentPageKey()
	if key == "" || h.store == nil {
		return
	}
	if err := h.store.ResetProgress(h.ctx, key); err != nil {
		h.showToast("Reset failed: " + err.Error())
		return
	}
	h.refreshSeen()
	h.showToast("Tour for this screen will show again")
}
