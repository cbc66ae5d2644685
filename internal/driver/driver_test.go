package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/skepa-lang/skepa/internal/bytecode"
	"github.com/skepa-lang/skepa/internal/config"
	"github.com/skepa-lang/skepa/internal/vm"
)

// fakeHost is a minimal in-memory vm.Host, just enough for tests that
// never touch I/O, filesystem, Vec, or RNG builtins.
type fakeHost struct{ out []string }

func (h *fakeHost) Write(s string, newline bool) error {
	h.out = append(h.out, s)
	return nil
}
func (h *fakeHost) ReadLine() (string, error)                             { return "", nil }
func (h *fakeHost) VecNew() (uint64, error)                               { return 0, nil }
func (h *fakeHost) VecLen(id uint64) (int, error)                         { return 0, nil }
func (h *fakeHost) VecPush(id uint64, v bytecode.Value) error             { return nil }
func (h *fakeHost) VecGet(id uint64, idx int64) (bytecode.Value, error)   { return bytecode.Unit, nil }
func (h *fakeHost) VecSet(id uint64, idx int64, v bytecode.Value) error   { return nil }
func (h *fakeHost) VecDelete(id uint64, idx int64) (bytecode.Value, error) {
	return bytecode.Unit, nil
}
func (h *fakeHost) SetRandomSeed(seed int64)                  {}
func (h *fakeHost) NextRandomU64() uint64                     { return 0 }
func (h *fakeHost) NowUnix() int64                            { return 0 }
func (h *fakeHost) NowMillis() int64                          { return 0 }
func (h *fakeHost) FsExists(path string) (bool, error)        { return false, nil }
func (h *fakeHost) FsReadText(path string) (string, error)    { return "", nil }
func (h *fakeHost) FsWriteText(path, content string) error    { return nil }
func (h *fakeHost) FsAppendText(path, content string) error   { return nil }
func (h *fakeHost) FsMkdirAll(path string) error               { return nil }
func (h *fakeHost) FsRemoveFile(path string) error             { return nil }
func (h *fakeHost) FsRemoveDirAll(path string) error           { return nil }
func (h *fakeHost) OsCwd() (string, error)                     { return "/", nil }
func (h *fakeHost) OsPlatform() string                         { return "fake" }
func (h *fakeHost) OsSleep(ms int64)                           {}
func (h *fakeHost) OsExecShell(cmd string) (int, error)        { return 0, nil }
func (h *fakeHost) OsExecShellOut(cmd string) (string, error)  { return "", nil }

func writeEntry(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.sk")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestCompile_SimpleArithmetic(t *testing.T) {
	path := writeEntry(t, `
fn main() -> Int {
    let x: Int = 40;
    let y: Int = 2;
    return x + y;
}
`)

	mod, err := Compile(path)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, ok := mod.Chunk(bytecode.MangleFunc("main", "main")); !ok {
		t.Error("expected a main::main chunk in the lowered module")
	}
}

func TestRun_ReturnsMainResult(t *testing.T) {
	path := writeEntry(t, `
fn main() -> Int {
    return 40 + 2;
}
`)

	result, err := Run(path, &fakeHost{}, vm.NewRegistry(), config.Default())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Kind != bytecode.VInt || result.Int != 42 {
		t.Errorf("result = %v, want Int(42)", result)
	}
}

func TestRun_CallsIOPrintThroughHost(t *testing.T) {
	path := writeEntry(t, `
fn main() -> Int {
    io.println("hello");
    return 0;
}
`)

	host := &fakeHost{}
	if _, err := Run(path, host, vm.NewRegistry(), config.Default()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(host.out) != 1 || host.out[0] != "hello" {
		t.Errorf("host.out = %v, want [hello]", host.out)
	}
}

func TestCompile_TypeErrorSurfacesDiagnostics(t *testing.T) {
	path := writeEntry(t, `
fn main() -> Int {
    return "not an int";
}
`)

	_, err := Compile(path)
	if err == nil {
		t.Fatal("expected a type error")
	}
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("error = %T, want *CompileError", err)
	}
	if len(ce.Checker) == 0 {
		t.Error("expected at least one checker diagnostic")
	}
}

func TestCompile_MissingEntryFileIsResolverError(t *testing.T) {
	_, err := Compile(filepath.Join(t.TempDir(), "missing.sk"))
	if err == nil {
		t.Fatal("expected an error for a missing entry file")
	}
	ce, ok := err.(*CompileError)
	if !ok || len(ce.Resolver) == 0 {
		t.Fatalf("error = %#v, want *CompileError with Resolver entries", err)
	}
}

func TestRun_TraceDoesNotAffectResult(t *testing.T) {
	path := writeEntry(t, `
fn main() -> Int {
    return 40 + 2;
}
`)

	cfg := config.Default()
	cfg.Trace = true
	result, err := Run(path, &fakeHost{}, vm.NewRegistry(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Kind != bytecode.VInt || result.Int != 42 {
		t.Errorf("result = %v, want Int(42)", result)
	}
}

func TestRun_RejectsInvalidMaxCallDepth(t *testing.T) {
	path := writeEntry(t, `
fn main() -> Int {
    return 0;
}
`)

	cfg := config.Default()
	cfg.MaxCallDepth = 0
	if _, err := Run(path, &fakeHost{}, vm.NewRegistry(), cfg); err == nil {
		t.Error("expected an error for max_call_depth 0")
	}
}
