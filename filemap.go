package hotreload

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/livefir/hotreload/internal/source"
	"github.com/livefir/hotreload/rsx"
)

// DefaultMacros are the callee spellings recognized as template
// invocations.
var DefaultMacros = []string{"rsx.Render", "RSX"}

// defaultExcluded directories are never scanned or watched.
var defaultExcluded = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"testdata":     true,
	".git":         true,
}

// CachedFile is the per-path cache entry: the raw source the running
// program was last built from, the last emitted template per name, and the
// asset paths its templates reference.
//
// Raw is deliberately not advanced on a successful hot patch: the running
// program's dynamic value pool still reflects the last full build, so every
// subsequent edit must diff against that baseline. Only a rebuild outcome
// replaces Raw, because the rebuild compiles the new source and makes it the
// next baseline.
type CachedFile struct {
	Path      string
	Raw       []byte
	Templates map[string]rsx.Template
	Assets    map[string]struct{}
}

// Result is the outcome of one ApplyChange call: either a set of updated
// templates, or a rebuild requirement with a human-readable reason.
type Result struct {
	NeedsRebuild bool
	Reason       string
	Templates    []rsx.Template
}

// FileMap caches every watched source file for the lifetime of a watch
// session. It is owned by a single processing goroutine; the mutex only
// guards against auxiliary readers like TrackedAssets.
type FileMap struct {
	mu         sync.Mutex
	files      map[string]*CachedFile
	workspaces map[string]string // module root dir -> naming base dir
	macros     []string
	exclude    func(path string) bool
}

// Option configures a FileMap.
type Option func(*FileMap)

// WithMacros overrides the recognized template macro spellings.
func WithMacros(names ...string) Option {
	return func(fm *FileMap) { fm.macros = names }
}

// WithExclude adds a path predicate; matching paths are not scanned.
func WithExclude(fn func(path string) bool) Option {
	return func(fm *FileMap) {
		prev := fm.exclude
		fm.exclude = func(p string) bool { return prev(p) || fn(p) }
	}
}

// Load scans root recursively for Go source files and seeds the cache with
// their parsed templates and asset references. Unreadable or unparseable
// files are collected as non-fatal errors; the scan continues.
func Load(root string, opts ...Option) (*FileMap, []error) {
	fm := &FileMap{
		files:      make(map[string]*CachedFile),
		workspaces: make(map[string]string),
		macros:     DefaultMacros,
		exclude: func(p string) bool {
			return defaultExcluded[filepath.Base(p)]
		},
	}
	for _, opt := range opts {
		opt(fm)
	}
	added, errs := fm.scan(root)
	for _, path := range added {
		if err := fm.seed(path, root); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	return fm, errs
}

// scan walks root collecting source files into the cache. Existing entries
// are left untouched so a rescan never clobbers live template state; only
// newly added paths are returned for seeding.
func (fm *FileMap) scan(root string) (added []string, errs []error) {
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && fm.exclude(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") || fm.exclude(path) {
			return nil
		}
		if _, exists := fm.files[path]; exists {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		fm.files[path] = &CachedFile{
			Path:      path,
			Raw:       raw,
			Templates: make(map[string]rsx.Template),
			Assets:    make(map[string]struct{}),
		}
		added = append(added, path)
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}
	return added, errs
}

// seed compiles every template in a freshly scanned file so later edits
// have a baseline to dedupe against, and so asset tracking starts at load
// time rather than at the first edit.
func (fm *FileMap) seed(path, root string) error {
	cached := fm.files[path]
	invs, err := source.Parse(cached.Raw, fm.macros)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	for _, inv := range invs {
		body, err := rsx.Parse(inv.Body)
		if err != nil {
			return fmt.Errorf("%w: template at line %d: %v", ErrParse, inv.Line, err)
		}
		base := fm.templateBase(path, root, inv.Line, inv.Column)
		for idx, sub := range body.NestedBodies() {
			name := rsx.FormatName(base, idx)
			t := sub.Compile(name)
			cached.Templates[name] = t
			collectAssets(t, cached.Assets)
		}
	}
	return nil
}

// ApplyChange processes one file-change event. It returns a Result carrying
// either the updated templates (unchanged ones suppressed) or a rebuild
// requirement. Parse and I/O failures are returned as errors; only the
// rebuild paths replace the cached baseline.
func (fm *FileMap) ApplyChange(path, root string) (*Result, error) {
	if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") || fm.exclude(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFile, path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	fm.mu.Lock()
	defer fm.mu.Unlock()

	newInv, err := source.Parse(src, fm.macros)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}

	cached, ok := fm.files[path]
	if !ok {
		// A brand-new file has no slot assignment history: rescan so the
		// next session picks it up, and force a rebuild.
		added, errs := fm.scan(root)
		for _, p := range added {
			if err := fm.seed(p, root); err != nil {
				errs = append(errs, fmt.Errorf("%s: %v", p, err))
			}
		}
		reason := fmt.Sprintf("new file %s", path)
		for _, err := range errs {
			reason += fmt.Sprintf("; %v", err)
		}
		return &Result{NeedsRebuild: true, Reason: reason}, nil
	}

	oldInv, err := source.Parse(cached.Raw, fm.macros)
	if err != nil {
		// The cached copy predates a syntax error we never saw parse
		// cleanly; treat it like a fresh file.
		fm.replace(path, src)
		return &Result{NeedsRebuild: true, Reason: fmt.Sprintf("cached copy of %s does not parse", path)}, nil
	}

	diff := source.DiffParsed(cached.Raw, src, oldInv, newInv)
	switch diff.Outcome {
	case source.CodeChanged:
		fm.replace(path, src)
		return &Result{NeedsRebuild: true, Reason: "code changed outside of templates"}, nil
	case source.Unchanged:
		return &Result{}, nil
	}

	// Stage template updates so a later invocation's failure leaves the
	// cache exactly as it was. Rebuild outcomes replace the entry wholesale:
	// the rebuild compiles the new source, so it becomes the next baseline.
	staged := make(map[string]rsx.Template)
	var updated []rsx.Template
	for _, ch := range diff.Changes {
		oldBody, err := rsx.Parse(ch.Old.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: cached template at %s:%d: %v", ErrParse, path, ch.Old.Line, err)
		}
		newBody, err := rsx.Parse(ch.New.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: template at %s:%d: %v", ErrParse, path, ch.New.Line, err)
		}

		base := fm.templateBase(path, root, ch.Old.Line, ch.Old.Column)
		res, ok := rsx.Reload(oldBody, newBody, base)
		if !ok {
			fm.replace(path, src)
			return &Result{
				NeedsRebuild: true,
				Reason:       fmt.Sprintf("template at %s is not hot-patchable", base),
			}, nil
		}

		// Emit in deterministic sub-template order.
		indices := make([]int, 0, len(res.Templates))
		for idx := range res.Templates {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			t := res.Templates[idx]
			prev, seen := cached.Templates[t.Name]
			if seen && (len(t.Roots) == 0) != (len(prev.Roots) == 0) {
				// A template cannot appear or disappear without new
				// renderer instructions.
				fm.replace(path, src)
				return &Result{
					NeedsRebuild: true,
					Reason:       fmt.Sprintf("template %s changed between empty and non-empty", t.Name),
				}, nil
			}
			if seen && reflect.DeepEqual(prev, t) {
				continue
			}
			staged[t.Name] = t
			updated = append(updated, t)
		}
	}

	for name, t := range staged {
		cached.Templates[name] = t
	}
	fm.recomputeAssets(cached)
	return &Result{Templates: updated}, nil
}

// replace swaps in a wholesale-new cache entry, dropping template history.
func (fm *FileMap) replace(path string, raw []byte) {
	fm.files[path] = &CachedFile{
		Path:      path,
		Raw:       raw,
		Templates: make(map[string]rsx.Template),
		Assets:    make(map[string]struct{}),
	}
}

func (fm *FileMap) recomputeAssets(cached *CachedFile) {
	cached.Assets = make(map[string]struct{})
	for _, t := range cached.Templates {
		collectAssets(t, cached.Assets)
	}
}

// TrackedAssets returns the union of asset paths referenced by any cached
// template, sorted for stable output.
func (fm *FileMap) TrackedAssets() []string {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	set := make(map[string]struct{})
	for _, cached := range fm.files {
		for asset := range cached.Assets {
			set[asset] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for asset := range set {
		out = append(out, asset)
	}
	sort.Strings(out)
	return out
}

// Files returns the number of cached files.
func (fm *FileMap) Files() int {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return len(fm.files)
}

// templateBase computes the stable identity prefix for an invocation:
// the file path relative to the naming base, plus line and column.
func (fm *FileMap) templateBase(path, root string, line, col int) string {
	base := fm.workspaceBase(root)
	rel, err := filepath.Rel(base, path)
	if err != nil {
		rel = path
	}
	return fmt.Sprintf("%s:%d:%d", filepath.ToSlash(rel), line, col)
}

// assetAttributes are static attribute names whose values reference
// filesystem assets.
var assetAttributes = map[string]bool{
	"src":    true,
	"href":   true,
	"poster": true,
	"icon":   true,
}

func collectAssets(t rsx.Template, into map[string]struct{}) {
	var visit func(nodes []rsx.TemplateNode)
	visit = func(nodes []rsx.TemplateNode) {
		for _, n := range nodes {
			for _, attr := range n.Attributes {
				if attr.Kind != "static" || !assetAttributes[attr.Name] {
					continue
				}
				if isLocalAsset(attr.Value) {
					into[attr.Value] = struct{}{}
				}
			}
			visit(n.Children)
		}
	}
	visit(t.Roots)
}

// isLocalAsset filters out absolute URLs and data URIs; only local paths
// are worth watching.
func isLocalAsset(value string) bool {
	if value == "" {
		return false
	}
	if strings.Contains(value, "://") || strings.HasPrefix(value, "//") || strings.HasPrefix(value, "data:") {
		return false
	}
	return true
}
