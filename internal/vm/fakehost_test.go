package vm

import (
	"fmt"
	"strings"

	"github.com/skepa-lang/skepa/internal/bytecode"
)

// fakeHost is a fully in-memory Host for tests: output accumulates in a
// buffer instead of touching the real console or filesystem.
type fakeHost struct {
	out      strings.Builder
	lines    []string
	rngState uint64
	vecs     map[uint64][]bytecode.Value
	nextVec  uint64
	files    map[string]string
}

func newFakeHost() *fakeHost {
	return &fakeHost{vecs: map[uint64][]bytecode.Value{}, files: map[string]string{}}
}

func (h *fakeHost) Write(s string, newline bool) error {
	h.out.WriteString(s)
	if newline {
		h.out.WriteString("\n")
	}
	return nil
}

func (h *fakeHost) ReadLine() (string, error) {
	if len(h.lines) == 0 {
		return "", fmt.Errorf("fakeHost: no more lines queued")
	}
	l := h.lines[0]
	h.lines = h.lines[1:]
	return l, nil
}

func (h *fakeHost) VecNew() (uint64, error) {
	id := h.nextVec
	h.nextVec++
	h.vecs[id] = nil
	return id, nil
}

func (h *fakeHost) VecLen(id uint64) (int, error) {
	v, ok := h.vecs[id]
	if !ok {
		return 0, fmt.Errorf("fakeHost: no such vec %d", id)
	}
	return len(v), nil
}

func (h *fakeHost) VecPush(id uint64, v bytecode.Value) error {
	if _, ok := h.vecs[id]; !ok {
		return fmt.Errorf("fakeHost: no such vec %d", id)
	}
	h.vecs[id] = append(h.vecs[id], v)
	return nil
}

func (h *fakeHost) VecGet(id uint64, idx int64) (bytecode.Value, error) {
	vs, ok := h.vecs[id]
	if !ok || idx < 0 || idx >= int64(len(vs)) {
		return bytecode.Value{}, fmt.Errorf("fakeHost: bad vec access")
	}
	return vs[idx], nil
}

func (h *fakeHost) VecSet(id uint64, idx int64, v bytecode.Value) error {
	vs, ok := h.vecs[id]
	if !ok || idx < 0 || idx >= int64(len(vs)) {
		return fmt.Errorf("fakeHost: bad vec access")
	}
	vs[idx] = v
	return nil
}

func (h *fakeHost) VecDelete(id uint64, idx int64) (bytecode.Value, error) {
	vs, ok := h.vecs[id]
	if !ok || idx < 0 || idx >= int64(len(vs)) {
		return bytecode.Value{}, fmt.Errorf("fakeHost: bad vec access")
	}
	v := vs[idx]
	h.vecs[id] = append(vs[:idx], vs[idx+1:]...)
	return v, nil
}

func (h *fakeHost) SetRandomSeed(seed int64) { h.rngState = uint64(seed) }

func (h *fakeHost) NextRandomU64() uint64 {
	h.rngState = h.rngState*6364136223846793005 + 1
	return h.rngState
}

func (h *fakeHost) NowUnix() int64   { return 1700000000 }
func (h *fakeHost) NowMillis() int64 { return 1700000000000 }

func (h *fakeHost) FsExists(path string) (bool, error) {
	_, ok := h.files[path]
	return ok, nil
}
func (h *fakeHost) FsReadText(path string) (string, error) {
	s, ok := h.files[path]
	if !ok {
		return "", fmt.Errorf("fakeHost: no such file %q", path)
	}
	return s, nil
}
func (h *fakeHost) FsWriteText(path, content string) error {
	h.files[path] = content
	return nil
}
func (h *fakeHost) FsAppendText(path, content string) error {
	h.files[path] += content
	return nil
}
func (h *fakeHost) FsMkdirAll(path string) error     { return nil }
func (h *fakeHost) FsRemoveFile(path string) error   { delete(h.files, path); return nil }
func (h *fakeHost) FsRemoveDirAll(path string) error { return nil }

func (h *fakeHost) OsCwd() (string, error)     { return "/fake", nil }
func (h *fakeHost) OsPlatform() string         { return "fake" }
func (h *fakeHost) OsSleep(ms int64)           {}
func (h *fakeHost) OsExecShell(cmd string) (int, error) {
	return 0, nil
}
func (h *fakeHost) OsExecShellOut(cmd string) (string, error) {
	return "", nil
}
