package module

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/skepa-lang/skepa/internal/ast"
	"github.com/skepa-lang/skepa/internal/errcode"
	"github.com/skepa-lang/skepa/internal/parser"
)

// Resolver discovers the module graph reachable from a single entry file
// (spec §4.2). It is single-use: Build walks the entire closure once and
// returns either a validated Graph or the errors that blocked it.
type Resolver struct {
	root string // project root: directory containing the entry file

	units     map[Id]*Unit
	loadStack []Id // current DFS path, for cycle detection
	onStack   map[Id]bool
	order     []Id // post-order DFS => dependency-first topological order
}

// NewResolver creates an empty Resolver; Build roots it at the directory
// containing the entry file it is given.
func NewResolver() *Resolver {
	return &Resolver{
		units:   make(map[Id]*Unit),
		onStack: make(map[Id]bool),
	}
}

// Build discovers, parses, and orders every module reachable from entry,
// returning a Graph with its Exports populated, or the list of errors
// that stopped resolution (spec §4.2 step 1-5).
func (r *Resolver) Build(entry string) (*Graph, []*errcode.CodedError) {
	abs, err := filepath.Abs(entry)
	if err != nil {
		return nil, []*errcode.CodedError{errcode.Wrap(errcode.EModIO, err, "cannot resolve entry path %q", entry)}
	}
	r.root = filepath.Dir(abs)

	entryID, idErr := r.idForPath(abs)
	if idErr != nil {
		return nil, []*errcode.CodedError{idErr}
	}

	if errs := r.load(entryID, abs, nil); len(errs) > 0 {
		return nil, errs
	}

	exports, errs := BuildExportMaps(r.units)
	if len(errs) > 0 {
		return nil, errs
	}

	return &Graph{Entry: entryID, Units: r.units, Order: r.order, Exports: exports}, nil
}

// idForPath derives the canonical module id for an absolute .sk file path
// relative to the project root: strip ".sk", join components with ".".
func (r *Resolver) idForPath(absPath string) (Id, *errcode.CodedError) {
	rel, err := filepath.Rel(r.root, absPath)
	if err != nil {
		return "", errcode.Wrap(errcode.EModIO, err, "path %q is not under project root %q", absPath, r.root)
	}
	if !utf8.ValidString(rel) {
		return "", errcode.New(errcode.EModNonUTF8, "module path %q contains non-UTF-8 components", rel)
	}
	rel = strings.TrimSuffix(rel, ".sk")
	parts := strings.Split(filepath.ToSlash(rel), "/")
	return strings.Join(parts, "."), nil
}

// load parses the module at absPath (id) and recursively loads every
// module it imports, detecting cycles via the live DFS stack and
// duplicate ids via the visited set.
func (r *Resolver) load(id Id, absPath string, via []Id) []*errcode.CodedError {
	if r.onStack[id] {
		cycle := append(append([]Id{}, via...), id)
		return []*errcode.CodedError{errcode.New(errcode.EModCycle, "import cycle: %s", strings.Join(cycle, " -> "))}
	}

	if existing, ok := r.units[id]; ok {
		if existing.FSPath != absPath {
			return []*errcode.CodedError{errcode.New(errcode.EModDup,
				"module id %q reached via two distinct paths: %q and %q", id, existing.FSPath, absPath)}
		}
		return nil
	}

	src, err := os.ReadFile(absPath)
	if err != nil {
		return []*errcode.CodedError{errcode.Wrap(errcode.EModIO, err, "cannot read module %q", id)}
	}

	prog, diags := parser.ParseSource(string(src))
	if diags.HasErrors() {
		return []*errcode.CodedError{errcode.New(errcode.EParse, "module %q has %d parse error(s)", id, diags.Len())}
	}

	unit := &Unit{ID: id, FSPath: absPath, Source: string(src), Program: prog, Imports: prog.Imports}
	r.units[id] = unit
	r.onStack[id] = true
	r.loadStack = append(r.loadStack, id)
	defer func() {
		r.onStack[id] = false
		r.loadStack = r.loadStack[:len(r.loadStack)-1]
	}()

	var deps [][]string
	for _, imp := range prog.Imports {
		deps = append(deps, imp.Path)
	}
	for _, exp := range prog.Exports {
		if exp.Kind == ast.ExportReexport || exp.Kind == ast.ExportReexportWildcard {
			deps = append(deps, exp.From)
		}
	}

	for _, path := range deps {
		depAbs, depID, rerr := r.resolveImportTarget(path)
		if rerr != nil {
			return []*errcode.CodedError{rerr}
		}
		if errs := r.load(depID, depAbs, append(append([]Id{}, via...), id)); len(errs) > 0 {
			return errs
		}
	}

	r.order = append(r.order, id)
	return nil
}

// resolveImportTarget implements spec §4.2 step 3 / §6's filesystem
// contract: a dotted import `a.b.c` is searched as `root/a/b/c.sk` and,
// if that collides with a directory subtree `root/a/b/c/`, raised as
// AmbiguousModule.
func (r *Resolver) resolveImportTarget(path []string) (absPath string, id Id, err *errcode.CodedError) {
	rel := filepath.Join(path...)
	filePath := filepath.Join(r.root, rel+".sk")
	dirPath := filepath.Join(r.root, rel)

	_, fileErr := os.Stat(filePath)
	fileExists := fileErr == nil

	dirInfo, dirErr := os.Stat(dirPath)
	dirExists := dirErr == nil && dirInfo.IsDir()

	switch {
	case fileExists && dirExists:
		return "", "", errcode.New(errcode.EModAmbiguous,
			"import %q matches both %q and a namespace directory %q", strings.Join(path, "."), filePath, dirPath)
	case fileExists:
		canon, cerr := filepath.EvalSymlinks(filePath)
		if cerr != nil {
			canon = filePath
		}
		id, derr := r.idForPath(canon)
		if derr != nil {
			return "", "", derr
		}
		return canon, id, nil
	case dirExists:
		return "", "", errcode.New(errcode.EModNotFound,
			"import %q resolves to a namespace directory %q with no importable entry file", strings.Join(path, "."), dirPath)
	default:
		return "", "", errcode.New(errcode.EModNotFound, "module not found: %q", strings.Join(path, "."))
	}
}

// SortedIDs returns every module id in the graph in stable lexical order,
// independent of the dependency-first Order slice; BuildExportMaps walks
// modules in this order.
func SortedIDs(units map[Id]*Unit) []Id {
	ids := make([]Id, 0, len(units))
	for id := range units {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
