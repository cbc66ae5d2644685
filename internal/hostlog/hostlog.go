// Package hostlog wraps a vm.Host with structured logging of host-side
// calls (I/O, filesystem, OS process, Vec store), off by default so the
// VM's deterministic core never pays for it unless a driver opts in.
package hostlog

import (
	"github.com/sirupsen/logrus"

	"github.com/skepa-lang/skepa/internal/bytecode"
	"github.com/skepa-lang/skepa/internal/vm"
)

// Host decorates an inner vm.Host with Debug-level logging. Write,
// SetRandomSeed and OsSleep are logged before delegating; ReadLine, the
// Vec store, filesystem and shell calls are logged after delegating, with
// their result; NextRandomU64, NowUnix, NowMillis, OsCwd and OsPlatform
// pass through unlogged. It implements vm.Host itself so it can be
// dropped in anywhere a Host is expected.
type Host struct {
	inner vm.Host
	log   *logrus.Entry
}

var _ vm.Host = (*Host)(nil)

// New wraps inner with logging through logger. A nil logger falls back to
// logrus.StandardLogger().
func New(inner vm.Host, logger *logrus.Logger) *Host {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Host{inner: inner, log: logger.WithField("component", "host")}
}

func (h *Host) Write(s string, newline bool) error {
	h.log.WithFields(logrus.Fields{"len": len(s), "newline": newline}).Debug("Write")
	return h.inner.Write(s, newline)
}

func (h *Host) ReadLine() (string, error) {
	line, err := h.inner.ReadLine()
	h.log.WithField("err", err).Debug("ReadLine")
	return line, err
}

func (h *Host) VecNew() (uint64, error) {
	id, err := h.inner.VecNew()
	h.log.WithFields(logrus.Fields{"id": id, "err": err}).Debug("VecNew")
	return id, err
}

func (h *Host) VecLen(id uint64) (int, error) {
	n, err := h.inner.VecLen(id)
	h.log.WithFields(logrus.Fields{"id": id, "len": n, "err": err}).Debug("VecLen")
	return n, err
}

func (h *Host) VecPush(id uint64, v bytecode.Value) error {
	err := h.inner.VecPush(id, v)
	h.log.WithFields(logrus.Fields{"id": id, "err": err}).Debug("VecPush")
	return err
}

func (h *Host) VecGet(id uint64, idx int64) (bytecode.Value, error) {
	v, err := h.inner.VecGet(id, idx)
	h.log.WithFields(logrus.Fields{"id": id, "idx": idx, "err": err}).Debug("VecGet")
	return v, err
}

func (h *Host) VecSet(id uint64, idx int64, v bytecode.Value) error {
	err := h.inner.VecSet(id, idx, v)
	h.log.WithFields(logrus.Fields{"id": id, "idx": idx, "err": err}).Debug("VecSet")
	return err
}

func (h *Host) VecDelete(id uint64, idx int64) (bytecode.Value, error) {
	v, err := h.inner.VecDelete(id, idx)
	h.log.WithFields(logrus.Fields{"id": id, "idx": idx, "err": err}).Debug("VecDelete")
	return v, err
}

func (h *Host) SetRandomSeed(seed int64) {
	h.log.WithField("seed", seed).Debug("SetRandomSeed")
	h.inner.SetRandomSeed(seed)
}

func (h *Host) NextRandomU64() uint64 { return h.inner.NextRandomU64() }

func (h *Host) NowUnix() int64   { return h.inner.NowUnix() }
func (h *Host) NowMillis() int64 { return h.inner.NowMillis() }

func (h *Host) FsExists(path string) (bool, error) {
	ok, err := h.inner.FsExists(path)
	h.log.WithFields(logrus.Fields{"path": path, "exists": ok, "err": err}).Debug("FsExists")
	return ok, err
}

func (h *Host) FsReadText(path string) (string, error) {
	s, err := h.inner.FsReadText(path)
	h.log.WithFields(logrus.Fields{"path": path, "bytes": len(s), "err": err}).Debug("FsReadText")
	return s, err
}

func (h *Host) FsWriteText(path, content string) error {
	err := h.inner.FsWriteText(path, content)
	h.log.WithFields(logrus.Fields{"path": path, "bytes": len(content), "err": err}).Debug("FsWriteText")
	return err
}

func (h *Host) FsAppendText(path, content string) error {
	err := h.inner.FsAppendText(path, content)
	h.log.WithFields(logrus.Fields{"path": path, "bytes": len(content), "err": err}).Debug("FsAppendText")
	return err
}

func (h *Host) FsMkdirAll(path string) error {
	err := h.inner.FsMkdirAll(path)
	h.log.WithFields(logrus.Fields{"path": path, "err": err}).Debug("FsMkdirAll")
	return err
}

func (h *Host) FsRemoveFile(path string) error {
	err := h.inner.FsRemoveFile(path)
	h.log.WithFields(logrus.Fields{"path": path, "err": err}).Debug("FsRemoveFile")
	return err
}

func (h *Host) FsRemoveDirAll(path string) error {
	err := h.inner.FsRemoveDirAll(path)
	h.log.WithFields(logrus.Fields{"path": path, "err": err}).Debug("FsRemoveDirAll")
	return err
}

func (h *Host) OsCwd() (string, error) { return h.inner.OsCwd() }
func (h *Host) OsPlatform() string     { return h.inner.OsPlatform() }

func (h *Host) OsSleep(ms int64) {
	h.log.WithField("ms", ms).Debug("OsSleep")
	h.inner.OsSleep(ms)
}

func (h *Host) OsExecShell(cmd string) (int, error) {
	code, err := h.inner.OsExecShell(cmd)
	h.log.WithFields(logrus.Fields{"cmd": cmd, "exit_code": code, "err": err}).Debug("OsExecShell")
	return code, err
}

func (h *Host) OsExecShellOut(cmd string) (string, error) {
	out, err := h.inner.OsExecShellOut(cmd)
	h.log.WithFields(logrus.Fields{"cmd": cmd, "bytes": len(out), "err": err}).Debug("OsExecShellOut")
	return out, err
}
