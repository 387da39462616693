package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/guidepost/pkg/catalog"
	"github.com/vanderheijden86/guidepost/pkg/config"
	"github.com/vanderheijden86/guidepost/pkg/debug"
	"github.com/vanderheijden86/guidepost/pkg/export"
	"github.com/vanderheijden86/guidepost/pkg/metrics"
	"github.com/vanderheijden86/guidepost/pkg/progress"
	"github.com/vanderheijden86/guidepost/pkg/tour"
	"github.com/vanderheijden86/guidepost/pkg/ui"
	"github.com/vanderheijden86/guidepost/pkg/version"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	catalogFlag := flag.String("catalog", "", "Tip catalog file or directory (default: built-in)")
	dbFlag := flag.String("db", "", "Progress database path")
	pageFlag := flag.String("page", "", "Page key or route to open (e.g. 'board' or '/detail/3')")
	tourFlag := flag.Bool("tour", false, "Start the page's tour right away, even if already seen")
	resetFlag := flag.String("reset", "", "Forget tour progress for a page key, or 'all'")
	listFlag := flag.Bool("list", false, "Print tour progress per page and exit")
	jsonFlag := flag.Bool("json", false, "Use JSON output with --list")
	metricsFlag := flag.Bool("metrics", false, "Print timing metrics after exit")
	svgFlag := flag.String("svg", "", "Write a placement diagram for the page's first tip to file and exit")
	pickFlag := flag.Bool("pick", false, "Choose the page to open interactively")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: guidepost [options]")
		fmt.Println("\nGuided tours for a terminal issue tracker.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("guidepost %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		// Non-fatal: continue with defaults
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
		cfg = config.DefaultConfig()
	}
	if *catalogFlag != "" {
		cfg.Catalog.Path = *catalogFlag
	}
	if *dbFlag != "" {
		cfg.Store.Path = *dbFlag
	}
	if *metricsFlag {
		metrics.SetEnabled(true)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat, err := catalog.Load(ctx, cfg.Catalog.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading tip catalog: %v\n", err)
		os.Exit(1)
	}

	route := ""
	if *pageFlag != "" {
		route, err = routeFor(cat, *pageFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	}

	if *svgFlag != "" {
		p, err := writePlacementSVG(cat, route, cfg.Metrics(), *svgFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing diagram: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s (tooltip %s at %d,%d)\n", *svgFlag, p.ArrowSide, p.Left, p.Top)
		os.Exit(0)
	}

	store := openStore(cfg)
	defer store.Close()

	if *resetFlag != "" {
		n, err := resetProgress(ctx, store, cat, *resetFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Reset %d tours\n", n)
		if !*listFlag {
			os.Exit(0)
		}
	}

	if *listFlag {
		rep, err := progress.BuildReport(ctx, store, pageInfos(cat))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading progress: %v\n", err)
			os.Exit(1)
		}
		if *jsonFlag {
			err = rep.WriteJSON(os.Stdout)
		} else {
			err = rep.WriteTable(os.Stdout)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: guidepost needs a terminal (use --list or --svg for scripted output)")
		os.Exit(1)
	}

	if *pickFlag {
		key, err := pickPage(cat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		route, _ = routeFor(cat, key)
	}

	// The alt screen owns stderr while the TUI runs.
	if path := config.DebugLogPath(); path != "" && debug.Enabled() {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if err := debug.OpenFile(path); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}
	}
	defer debug.Close()

	host := ui.NewHost(ui.Options{
		Context:        ctx,
		Catalog:        cat,
		Store:          store,
		Metrics:        cfg.Metrics(),
		AutoStart:      cfg.Tour.AutoStart,
		AutoStartDelay: cfg.Tour.AutoStartDelay,
		ScrollSettle:   cfg.Tour.ScrollSettleDelay,
		Theme:          cfg.UI.Theme,
		Backdrop:       cfg.UI.Backdrop,
		Markdown:       true,
		Route:          route,
		StartTour:      *tourFlag,
		OnSettings: func(s ui.Settings) {
			cfg.UI.Theme = s.Theme
			cfg.Tour.AutoStart = s.AutoStart
			if err := config.Save(cfg); err != nil {
				debug.Log("main: saving settings: %v", err)
			}
		},
	})
	defer host.Close()

	if err := runTUIProgram(ctx, host, cfg); err != nil {
		fmt.Printf("Error running guidepost: %v\n", err)
		os.Exit(1)
	}

	if *metricsFlag {
		metrics.WriteSummary(os.Stderr)
	}
}

func runTUIProgram(ctx context.Context, host *ui.Host, cfg config.Config) error {
	p := tea.NewProgram(
		host,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)
	host.Bind(p)

	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		w, err := catalog.Watch(ctx, cfg.Catalog.Path, catalog.WatchOptions{}, func(c *catalog.Catalog, err error) {
			p.Send(ui.CatalogReloadedMsg{Catalog: c, Err: err})
		})
		if err != nil {
			debug.Log("main: catalog watch disabled: %v", err)
		} else {
			defer w.Stop()
		}
	}

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set GUIDEPOST_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("GUIDEPOST_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}

// openStore opens the progress database, falling back to memory so a
// broken database never blocks the TUI.
func openStore(cfg config.Config) progress.Store {
	path := cfg.StorePath()
	if path == "" {
		return progress.NewMemoryStore()
	}
	s, err := progress.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, progress will not be saved\n", err)
		return progress.NewMemoryStore()
	}
	return s
}

// routeFor turns a page key or route into a route the host understands.
func routeFor(cat *catalog.Catalog, page string) (string, error) {
	if strings.HasPrefix(page, "/") {
		return page, nil
	}
	if _, ok := cat.TipSet(page); !ok {
		return "", fmt.Errorf("unknown page %q (known: %s)", page, strings.Join(cat.Keys(), ", "))
	}
	for _, r := range cat.Routes(page) {
		if r == "" {
			continue
		}
		return strings.ReplaceAll(r, "*", "1"), nil
	}
	return "/" + page, nil
}

func pageInfos(cat *catalog.Catalog) []progress.PageInfo {
	keys := cat.Keys()
	pages := make([]progress.PageInfo, 0, len(keys))
	for _, k := range keys {
		set, _ := cat.TipSet(k)
		pages = append(pages, progress.PageInfo{Key: k, Name: set.PageName})
	}
	return pages
}

func resetProgress(ctx context.Context, store tour.ProgressStore, cat *catalog.Catalog, which string) (int, error) {
	keys := []string{which}
	if which == "all" {
		keys = cat.Keys()
	} else if _, ok := cat.TipSet(which); !ok {
		return 0, fmt.Errorf("unknown page %q", which)
	}
	for i, k := range keys {
		if err := store.ResetProgress(ctx, k); err != nil {
			return i, fmt.Errorf("reset %s: %w", k, err)
		}
	}
	return len(keys), nil
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		form = form.WithAccessible(true)
	}
	return form
}

func pickPage(cat *catalog.Catalog) (string, error) {
	var opts []huh.Option[string]
	for _, p := range pageInfos(cat) {
		set, _ := cat.TipSet(p.Key)
		label := fmt.Sprintf("%s (%d tips)", p.Name, len(set.Primary)+len(set.Advanced))
		opts = append(opts, huh.NewOption(label, p.Key))
	}
	var key string
	err := newForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Open which page?").
			Options(opts...).
			Value(&key),
	)).Run()
	if err != nil {
		return "", err
	}
	return key, nil
}

// writePlacementSVG lays the host out headless at the terminal size and
// draws where the page's first tip would go.
func writePlacementSVG(cat *catalog.Catalog, route string, m tour.Metrics, path string) (tour.Placement, error) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		w, h = 120, 40
	}
	host := ui.NewHost(ui.Options{Catalog: cat, Metrics: m, Route: route})
	defer host.Close()
	host.Init()
	host.Update(tea.WindowSizeMsg{Width: w, Height: h})

	key := host.Controller().CurrentPageKey()
	set, ok := cat.TipSet(key)
	if !ok || len(set.Primary) == 0 {
		return tour.Placement{}, fmt.Errorf("no tips for route %q", host.Controller().Route())
	}
	tip := set.Primary[0]
	el, ok := host.Registry().Resolve(tip.Target)
	if !ok {
		return tour.Placement{}, fmt.Errorf("target %q not on screen", tip.Target)
	}
	r, ok := el.Rect()
	if !ok {
		return tour.Placement{}, fmt.Errorf("target %q has no rect", tip.Target)
	}
	return export.SavePlacementSVG(export.PlacementSVGOptions{
		Path:       path,
		Viewport:   host.Size(),
		Target:     r,
		Metrics:    m,
		Preferred:  tip.PreferredSide,
		CellWidth:  8,
		CellHeight: 16,
		Title:      fmt.Sprintf("%s: %s", set.PageName, tip.Title),
	})
}
