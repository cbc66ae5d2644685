package stdhost

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skepa-lang/skepa/internal/bytecode"
)

func newTestHost() *Host {
	return &Host{out: &bytes.Buffer{}, in: bufio.NewReader(strings.NewReader("")), vecs: map[uint64][]bytecode.Value{}}
}

func TestHost_WriteAppendsNewline(t *testing.T) {
	h := newTestHost()
	buf := h.out.(*bytes.Buffer)
	if err := h.Write("hello", true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := h.Write("world", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, want := buf.String(), "hello\nworld"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestHost_ReadLineStripsTrailingNewline(t *testing.T) {
	h := &Host{in: bufio.NewReader(strings.NewReader("first\nsecond"))}
	line, err := h.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "first" {
		t.Errorf("got %q, want %q", line, "first")
	}
}

func TestHost_RandomSequenceIsDeterministicPerSeed(t *testing.T) {
	h1 := newTestHost()
	h2 := newTestHost()
	h1.SetRandomSeed(42)
	h2.SetRandomSeed(42)
	for i := 0; i < 5; i++ {
		a, b := h1.NextRandomU64(), h2.NextRandomU64()
		if a != b {
			t.Fatalf("sequence diverged at step %d: %d != %d", i, a, b)
		}
	}
}

func TestHost_VecStoreLifecycle(t *testing.T) {
	h := newTestHost()
	id, err := h.VecNew()
	if err != nil {
		t.Fatalf("VecNew: %v", err)
	}
	if err := h.VecPush(id, bytecode.Int64(1)); err != nil {
		t.Fatalf("VecPush: %v", err)
	}
	if err := h.VecPush(id, bytecode.Int64(2)); err != nil {
		t.Fatalf("VecPush: %v", err)
	}
	n, err := h.VecLen(id)
	if err != nil || n != 2 {
		t.Fatalf("VecLen = %d, %v, want 2, nil", n, err)
	}
	if err := h.VecSet(id, 0, bytecode.Int64(9)); err != nil {
		t.Fatalf("VecSet: %v", err)
	}
	v, err := h.VecGet(id, 0)
	if err != nil || !bytecode.Equal(v, bytecode.Int64(9)) {
		t.Fatalf("VecGet = %v, %v, want 9, nil", v, err)
	}
	deleted, err := h.VecDelete(id, 0)
	if err != nil || !bytecode.Equal(deleted, bytecode.Int64(9)) {
		t.Fatalf("VecDelete = %v, %v, want 9, nil", deleted, err)
	}
	if n, _ := h.VecLen(id); n != 1 {
		t.Errorf("VecLen after delete = %d, want 1", n)
	}
}

func TestHost_VecOperationsOnUnknownHandleFail(t *testing.T) {
	h := newTestHost()
	if _, err := h.VecLen(999); err == nil {
		t.Error("expected an error for an unregistered vec handle")
	}
}

func TestHost_FilesystemRoundTrip(t *testing.T) {
	h := newTestHost()
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "note.txt")

	if ok, _ := h.FsExists(path); ok {
		t.Fatalf("FsExists reported true before the file was created")
	}
	if err := h.FsMkdirAll(filepath.Dir(path)); err != nil {
		t.Fatalf("FsMkdirAll: %v", err)
	}
	if err := h.FsWriteText(path, "hello"); err != nil {
		t.Fatalf("FsWriteText: %v", err)
	}
	if err := h.FsAppendText(path, " world"); err != nil {
		t.Fatalf("FsAppendText: %v", err)
	}
	got, err := h.FsReadText(path)
	if err != nil {
		t.Fatalf("FsReadText: %v", err)
	}
	if got != "hello world" {
		t.Errorf("got %q, want %q", got, "hello world")
	}
	if err := h.FsRemoveFile(path); err != nil {
		t.Fatalf("FsRemoveFile: %v", err)
	}
	if ok, _ := h.FsExists(path); ok {
		t.Error("FsExists reported true after FsRemoveFile")
	}
}

func TestHost_OsPlatformIsNonEmpty(t *testing.T) {
	h := newTestHost()
	if h.OsPlatform() == "" {
		t.Error("OsPlatform returned an empty string")
	}
}
