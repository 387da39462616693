package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const catalogYAML = "version: 1\npages: []\n"

func writeCatalog(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// signal returns a callback that pings ch without blocking.
func signal(ch chan struct{}) func() {
	return func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func expectQuiet(t *testing.T, ch <-chan struct{}, d time.Duration, what string) {
	t.Helper()
	select {
	case <-ch:
		t.Fatalf("unexpected %s", what)
	case <-time.After(d):
	}
}

func startWatcher(t *testing.T, path string, opts ...WatcherOption) *Watcher {
	t.Helper()
	w, err := NewWatcher(path, opts...)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestDebouncer(t *testing.T) {
	t.Run("coalesces a save burst", func(t *testing.T) {
		d := NewDebouncer(40 * time.Millisecond)
		var calls atomic.Int32
		for i := 0; i < 8; i++ {
			d.Trigger(func() { calls.Add(1) })
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(120 * time.Millisecond)
		if n := calls.Load(); n != 1 {
			t.Errorf("expected one reload, got %d", n)
		}
	})

	t.Run("cancel drops the pending reload", func(t *testing.T) {
		d := NewDebouncer(30 * time.Millisecond)
		var called atomic.Bool
		d.Trigger(func() { called.Store(true) })
		d.Cancel()
		time.Sleep(80 * time.Millisecond)
		if called.Load() {
			t.Error("cancelled reload ran")
		}
	})

	t.Run("zero duration uses the default", func(t *testing.T) {
		if got := NewDebouncer(0).Duration(); got != DefaultDebounceDuration {
			t.Errorf("Duration() = %v, want %v", got, DefaultDebounceDuration)
		}
	})
}

func TestWatcher_CatalogEdits(t *testing.T) {
	for _, poll := range []bool{false, true} {
		name := "fsnotify"
		if poll {
			name = "polling"
		}
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tips.yaml")
			writeCatalog(t, path, catalogYAML)

			changed := make(chan struct{}, 1)
			w := startWatcher(t, path,
				WithForcePoll(poll),
				WithPollInterval(25*time.Millisecond),
				WithDebounceDuration(20*time.Millisecond),
				WithOnChange(signal(changed)),
			)
			if w.IsPolling() != poll {
				t.Fatalf("IsPolling() = %v, want %v", w.IsPolling(), poll)
			}

			// Polling compares mtime and size; make both move.
			time.Sleep(30 * time.Millisecond)
			writeCatalog(t, path, catalogYAML+"# edited\n")
			waitSignal(t, changed, "reload after edit")

			select {
			case <-w.Changed():
			case <-time.After(time.Second):
				t.Error("expected Changed() to fire alongside the callback")
			}
		})
	}
}

func TestWatcher_DirectoryOnlySeesCatalogFiles(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, filepath.Join(dir, "list.yaml"), catalogYAML)

	changed := make(chan struct{}, 1)
	w := startWatcher(t, dir,
		WithForcePoll(true),
		WithPollInterval(25*time.Millisecond),
		WithDebounceDuration(10*time.Millisecond),
		WithExtensions(".YAML", ".json"),
		WithOnChange(signal(changed)),
	)
	if !w.IsDir() {
		t.Fatal("expected directory mode")
	}

	writeCatalog(t, filepath.Join(dir, "notes.txt"), "scratch")
	expectQuiet(t, changed, 150*time.Millisecond, "reload for a non-catalog file")

	writeCatalog(t, filepath.Join(dir, "board.json"), `{"version":1,"pages":[]}`)
	waitSignal(t, changed, "reload for a new catalog file")
}

func TestWatcher_ReportsRemovedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tips.yaml")
	writeCatalog(t, path, catalogYAML)

	removed := make(chan struct{}, 1)
	startWatcher(t, path,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithOnError(func(err error) {
			if errors.Is(err, ErrFileRemoved) {
				signal(removed)()
			}
		}),
	)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitSignal(t, removed, "ErrFileRemoved")
}

func TestWatcher_PollsOnRemoteFilesystems(t *testing.T) {
	saved := detectFilesystemTypeFunc
	t.Cleanup(func() { detectFilesystemTypeFunc = saved })

	for _, fs := range []FilesystemType{FSTypeNFS, FSTypeSMB, FSTypeFUSE} {
		detectFilesystemTypeFunc = func(string) FilesystemType { return fs }
		path := filepath.Join(t.TempDir(), "tips.yaml")
		writeCatalog(t, path, catalogYAML)

		w := startWatcher(t, path)
		if !w.IsPolling() {
			t.Errorf("%s: expected polling", fs)
		}
		if w.FilesystemType() != fs {
			t.Errorf("FilesystemType() = %s, want %s", w.FilesystemType(), fs)
		}
		w.Stop()
	}
}

func TestWatcher_EnvForcesPolling(t *testing.T) {
	t.Setenv("GUIDEPOST_FORCE_POLL", "yes")
	path := filepath.Join(t.TempDir(), "tips.yaml")
	writeCatalog(t, path, catalogYAML)

	if w := startWatcher(t, path); !w.IsPolling() {
		t.Error("expected GUIDEPOST_FORCE_POLL to force polling")
	}
}

func TestWatcher_Lifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-yet.yaml")
	w, err := NewWatcher(path, WithPollInterval(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if w.Path() != path || w.PollInterval() != time.Second {
		t.Errorf("unexpected path %q or interval %v", w.Path(), w.PollInterval())
	}
	if w.IsStarted() {
		t.Error("started before Start")
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start on a missing file: %v", err)
	}
	if err := w.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}

	w.Stop()
	if w.IsStarted() {
		t.Error("still started after Stop")
	}
	// Stop waits for the goroutines, so goleak sees none; a second Stop
	// is a no-op.
	w.Stop()
}

func TestFilesystemType_String(t *testing.T) {
	for fs, want := range map[FilesystemType]string{
		FSTypeUnknown: "unknown",
		FSTypeLocal:   "local",
		FSTypeNFS:     "nfs",
		FSTypeSMB:     "smb",
		FSTypeFUSE:    "fuse",
	} {
		if fs.String() != want {
			t.Errorf("%d.String() = %q, want %q", fs, fs.String(), want)
		}
	}
}

func TestEnvBool(t *testing.T) {
	tests := map[string]bool{
		"1": true, "true": true, " YES ": true, "on": true,
		"0": false, "no": false, "": false, "maybe": false,
	}
	for v, want := range tests {
		t.Setenv("GUIDEPOST_TEST_BOOL", v)
		if got := envBool("GUIDEPOST_TEST_BOOL"); got != want {
			t.Errorf("envBool(%q) = %v, want %v", v, got, want)
		}
	}
}

func TestDetectFilesystemType_BadPaths(t *testing.T) {
	for _, p := range []string{"", filepath.Join(t.TempDir(), "nope", "nope")} {
		if got := DetectFilesystemType(p); got != FSTypeUnknown {
			t.Errorf("DetectFilesystemType(%q) = %s, want unknown", p, got)
		}
	}
}
