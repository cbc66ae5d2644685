package module

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestBuild_SingleFileEntry(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.sk", `
fn main() -> Int {
    return 0;
}
`)

	g, errs := NewResolver().Build(entry)
	if len(errs) > 0 {
		t.Fatalf("Build: %v", errs)
	}
	if g.Entry != "main" {
		t.Errorf("Entry = %q, want %q", g.Entry, "main")
	}
	if _, ok := g.Unit("main"); !ok {
		t.Error("expected a unit for module \"main\"")
	}
}

func TestBuild_DerivesDottedIdFromNestedPath(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.sk", `
import utils.math;

fn main() -> Int {
    return 0;
}
`)
	writeFile(t, dir, "utils/math.sk", `
fn zero() -> Int {
    return 0;
}
export { zero };
`)

	g, errs := NewResolver().Build(entry)
	if len(errs) > 0 {
		t.Fatalf("Build: %v", errs)
	}
	if _, ok := g.Unit("utils.math"); !ok {
		t.Errorf("expected a unit for module \"utils.math\", got units: %v", g.Units)
	}
}

func TestBuild_ImportCycleIsAnError(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "a.sk", `
import b;
fn main() -> Int { return 0; }
`)
	writeFile(t, dir, "b.sk", `
import a;
fn f() -> Int { return 0; }
export { f };
`)

	_, errs := NewResolver().Build(entry)
	if len(errs) == 0 {
		t.Fatal("expected an import cycle error")
	}
	if errs[0].Code != "E-MOD-CYCLE" {
		t.Errorf("Code = %q, want E-MOD-CYCLE", errs[0].Code)
	}
}

func TestBuild_MissingImportIsNotFound(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.sk", `
import nope;
fn main() -> Int { return 0; }
`)

	_, errs := NewResolver().Build(entry)
	if len(errs) == 0 {
		t.Fatal("expected an error for a missing import target")
	}
	if errs[0].Code != "E-MOD-NOT-FOUND" {
		t.Errorf("Code = %q, want E-MOD-NOT-FOUND", errs[0].Code)
	}
}

func TestBuild_OrderIsDependencyFirst(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.sk", `
import utils.math;
fn main() -> Int { return 0; }
`)
	writeFile(t, dir, "utils/math.sk", `
fn zero() -> Int { return 0; }
export { zero };
`)

	g, errs := NewResolver().Build(entry)
	if len(errs) > 0 {
		t.Fatalf("Build: %v", errs)
	}
	depIdx, mainIdx := -1, -1
	for i, id := range g.Order {
		if id == "utils.math" {
			depIdx = i
		}
		if id == "main" {
			mainIdx = i
		}
	}
	if depIdx == -1 || mainIdx == -1 || depIdx > mainIdx {
		t.Errorf("Order = %v, want utils.math before main", g.Order)
	}
}
