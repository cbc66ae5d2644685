// Package module discovers the transitive module graph from an entry
// file, derives canonical module ids from filesystem paths, detects
// cycles and duplicates, and computes per-module export maps including
// re-exports and aliasing (spec §4.2).
package module

import "github.com/skepa-lang/skepa/internal/ast"

// Id is a canonical, dot-separated module identifier derived from a file
// path relative to the project root (e.g. "utils.math").
type Id = string

// Unit is one resolved module: its identity, its source location, its
// parsed AST, and the raw (unresolved) import declarations that drove
// discovery.
type Unit struct {
	ID       Id
	FSPath   string
	Source   string
	Program  *ast.Program
	Imports  []*ast.Import // same slice as Program.Imports, kept for clarity
}

// Graph is the fully discovered, acyclic module dependency graph rooted
// at an entry file.
type Graph struct {
	Entry Id
	Units map[Id]*Unit

	// Order is a deterministic topological (dependency-first) ordering of
	// every module id; types.CheckAll checks modules in this order and
	// lowering compiles them in it. Globals-init emission sorts module ids
	// lexically instead.
	Order []Id

	// Exports maps each module id to its fully resolved export table
	// (spec §4.2 "Export map").
	Exports map[Id]ExportMap
}

// Unit looks up a module by id.
func (g *Graph) Unit(id Id) (*Unit, bool) {
	u, ok := g.Units[id]
	return u, ok
}
