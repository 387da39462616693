package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/guidepost/pkg/debug"
	"github.com/vanderheijden86/guidepost/pkg/metrics"
)

//go:embed default.yaml
var defaultCatalog []byte

// Extensions lists the file extensions LoadDir picks up.
var Extensions = []string{".yaml", ".yml", ".json"}

// Default returns the built-in catalog for the demo host.
func Default() *Catalog {
	c, err := Parse("built-in", defaultCatalog, "yaml")
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}

// Parse decodes and validates one catalog document. format is "yaml" or
// "json".
func Parse(source string, data []byte, format string) (*Catalog, error) {
	f, err := decode(source, data, format)
	if err != nil {
		return nil, err
	}
	return New(source, f.Pages)
}

func decode(source string, data []byte, format string) (File, error) {
	var f File
	switch strings.ToLower(format) {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return f, fmt.Errorf("parsing %s: %w", source, err)
		}
	case "yaml", "yml", "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return f, fmt.Errorf("parsing %s: %w", source, err)
		}
	default:
		return f, fmt.Errorf("%s: unsupported catalog format %q", source, format)
	}
	return f, nil
}

func formatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

func readFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("reading catalog: %w", err)
	}
	return decode(path, data, formatOf(path))
}

// LoadFile reads a single catalog file.
func LoadFile(path string) (*Catalog, error) {
	start := time.Now()
	defer func() { metrics.CatalogLoad.Record(time.Since(start)) }()

	f, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return New(path, f.Pages)
}

// Load reads path, which may be a catalog file or a directory of them.
// An empty path returns the built-in catalog.
func Load(ctx context.Context, path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	if info.IsDir() {
		return LoadDir(ctx, path)
	}
	return LoadFile(path)
}

// fileResult is the outcome of reading one file of a directory.
type fileResult struct {
	path string
	file File
	err  error
}

// LoadDir reads every catalog file in dir concurrently and merges them in
// file name order. A page key defined in two files is an error; so is a
// file that fails to parse.
func LoadDir(ctx context.Context, dir string) (*Catalog, error) {
	start := time.Now()
	defer func() { metrics.CatalogLoad.Record(time.Since(start)) }()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading catalog dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range Extensions {
			if ext == want {
				paths = append(paths, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s: no catalog files", ErrInvalid, dir)
	}

	results := make([]fileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := readFile(p)
			results[i] = fileResult{path: p, file: f, err: err}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pages []Page
	owner := make(map[string]string)
	for _, r := range results {
		for _, p := range r.file.Pages {
			key := strings.TrimSpace(p.Key)
			if prev, dup := owner[key]; dup && key != "" {
				return nil, fmt.Errorf("%w: page %q defined in both %s and %s", ErrInvalid, key, filepath.Base(prev), filepath.Base(r.path))
			}
			owner[key] = r.path
			pages = append(pages, p)
		}
	}
	debug.Log("catalog: loaded %d pages from %d files in %s", len(pages), len(paths), dir)
	return New(dir, pages)
}
