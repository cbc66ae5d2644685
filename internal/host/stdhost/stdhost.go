// Package stdhost is the default vm.Host: real stdin/stdout, the real
// filesystem, and the real OS process/environment. It is the concrete
// port a compiled program talks to outside of tests (spec §4.5 "Host
// surface (minimum)").
package stdhost

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/skepa-lang/skepa/internal/bytecode"
	"github.com/skepa-lang/skepa/internal/errcode"
	"github.com/skepa-lang/skepa/internal/vm"
)

// Host is the default vm.Host: unbuffered writes to stdout, line reads
// from stdin, an in-memory Vec store keyed by a monotonically increasing
// id, and a deterministic LCG for the random builtins (grounded on the
// reference implementation's StdIoHost).
type Host struct {
	out    io.Writer
	in     *bufio.Reader
	rng    uint64
	nextID uint64
	vecs   map[uint64][]bytecode.Value
}

var _ vm.Host = (*Host)(nil)

// New returns a Host writing to stdout and reading from stdin.
func New() *Host {
	return &Host{out: os.Stdout, in: bufio.NewReader(os.Stdin), vecs: map[uint64][]bytecode.Value{}}
}

func (h *Host) Write(s string, newline bool) error {
	if newline {
		s += "\n"
	}
	_, err := io.WriteString(h.out, s)
	return err
}

func (h *Host) ReadLine() (string, error) {
	line, err := h.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func vecNotFound(id uint64) error {
	return errcode.New(errcode.EVMType, "invalid vec handle %d", id)
}

func vecIndexOOB(idx int64, length int) error {
	return errcode.New(errcode.EVMIndexOOB, "vec index %d out of bounds for length %d", idx, length)
}

func (h *Host) VecNew() (uint64, error) {
	id := h.nextID
	h.nextID++
	h.vecs[id] = nil
	return id, nil
}

func (h *Host) VecLen(id uint64) (int, error) {
	v, ok := h.vecs[id]
	if !ok {
		return 0, vecNotFound(id)
	}
	return len(v), nil
}

func (h *Host) VecPush(id uint64, v bytecode.Value) error {
	if _, ok := h.vecs[id]; !ok {
		return vecNotFound(id)
	}
	h.vecs[id] = append(h.vecs[id], v)
	return nil
}

func (h *Host) VecGet(id uint64, idx int64) (bytecode.Value, error) {
	vs, ok := h.vecs[id]
	if !ok {
		return bytecode.Value{}, vecNotFound(id)
	}
	if idx < 0 || idx >= int64(len(vs)) {
		return bytecode.Value{}, vecIndexOOB(idx, len(vs))
	}
	return vs[idx], nil
}

func (h *Host) VecSet(id uint64, idx int64, v bytecode.Value) error {
	vs, ok := h.vecs[id]
	if !ok {
		return vecNotFound(id)
	}
	if idx < 0 || idx >= int64(len(vs)) {
		return vecIndexOOB(idx, len(vs))
	}
	vs[idx] = v
	return nil
}

func (h *Host) VecDelete(id uint64, idx int64) (bytecode.Value, error) {
	vs, ok := h.vecs[id]
	if !ok {
		return bytecode.Value{}, vecNotFound(id)
	}
	if idx < 0 || idx >= int64(len(vs)) {
		return bytecode.Value{}, vecIndexOOB(idx, len(vs))
	}
	v := vs[idx]
	h.vecs[id] = append(vs[:idx], vs[idx+1:]...)
	return v, nil
}

func (h *Host) SetRandomSeed(seed int64) { h.rng = uint64(seed) }

// NextRandomU64 steps a 64-bit linear congruential generator; the
// multiplier is the one used by PCG's underlying state transition.
func (h *Host) NextRandomU64() uint64 {
	h.rng = h.rng*6364136223846793005 + 1
	return h.rng
}

func (h *Host) NowUnix() int64   { return time.Now().Unix() }
func (h *Host) NowMillis() int64 { return time.Now().UnixMilli() }

func (h *Host) FsExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (h *Host) FsReadText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *Host) FsWriteText(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func (h *Host) FsAppendText(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

func (h *Host) FsMkdirAll(path string) error     { return os.MkdirAll(path, 0o755) }
func (h *Host) FsRemoveFile(path string) error   { return os.Remove(path) }
func (h *Host) FsRemoveDirAll(path string) error { return os.RemoveAll(path) }

func (h *Host) OsCwd() (string, error) { return os.Getwd() }
func (h *Host) OsPlatform() string     { return runtime.GOOS }
func (h *Host) OsSleep(ms int64)       { time.Sleep(time.Duration(ms) * time.Millisecond) }

func (h *Host) OsExecShell(cmd string) (int, error) {
	c := shellCommand(cmd)
	c.Stdout = h.out
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}

func (h *Host) OsExecShellOut(cmd string) (string, error) {
	c := shellCommand(cmd)
	out, err := c.Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return string(out), nil
		}
		return "", err
	}
	return string(out), nil
}

func shellCommand(cmd string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.Command("cmd", "/C", cmd)
	}
	return exec.Command("sh", "-c", cmd)
}
