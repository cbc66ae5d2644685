package hostlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/skepa-lang/skepa/internal/bytecode"
)

// stubHost is a minimal vm.Host recording calls, enough to prove Host
// delegates correctly without pulling in a real stdhost/fakeHost.
type stubHost struct{ written []string }

func (s *stubHost) Write(str string, newline bool) error {
	s.written = append(s.written, str)
	return nil
}
func (s *stubHost) ReadLine() (string, error)                            { return "line", nil }
func (s *stubHost) VecNew() (uint64, error)                               { return 1, nil }
func (s *stubHost) VecLen(id uint64) (int, error)                         { return 0, nil }
func (s *stubHost) VecPush(id uint64, v bytecode.Value) error             { return nil }
func (s *stubHost) VecGet(id uint64, idx int64) (bytecode.Value, error)   { return bytecode.Unit, nil }
func (s *stubHost) VecSet(id uint64, idx int64, v bytecode.Value) error   { return nil }
func (s *stubHost) VecDelete(id uint64, idx int64) (bytecode.Value, error) {
	return bytecode.Unit, nil
}
func (s *stubHost) SetRandomSeed(seed int64)                     {}
func (s *stubHost) NextRandomU64() uint64                        { return 42 }
func (s *stubHost) NowUnix() int64                               { return 0 }
func (s *stubHost) NowMillis() int64                             { return 0 }
func (s *stubHost) FsExists(path string) (bool, error)           { return false, nil }
func (s *stubHost) FsReadText(path string) (string, error)       { return "", nil }
func (s *stubHost) FsWriteText(path, content string) error       { return nil }
func (s *stubHost) FsAppendText(path, content string) error      { return nil }
func (s *stubHost) FsMkdirAll(path string) error                 { return nil }
func (s *stubHost) FsRemoveFile(path string) error               { return nil }
func (s *stubHost) FsRemoveDirAll(path string) error             { return nil }
func (s *stubHost) OsCwd() (string, error)                       { return "/", nil }
func (s *stubHost) OsPlatform() string                           { return "stub" }
func (s *stubHost) OsSleep(ms int64)                             {}
func (s *stubHost) OsExecShell(cmd string) (int, error)          { return 0, nil }
func (s *stubHost) OsExecShellOut(cmd string) (string, error)    { return "", nil }

func newTestHost(t *testing.T) (*Host, *stubHost, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	inner := &stubHost{}
	return New(inner, logger), inner, &buf
}

func TestHost_WriteDelegatesAndLogs(t *testing.T) {
	h, inner, buf := newTestHost(t)

	if err := h.Write("hello", true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(inner.written) != 1 || inner.written[0] != "hello" {
		t.Errorf("inner did not receive the write: %v", inner.written)
	}
	if !strings.Contains(buf.String(), "Write") {
		t.Errorf("log output missing Write entry: %s", buf.String())
	}
}

func TestHost_NilLoggerFallsBackToStandard(t *testing.T) {
	h := New(&stubHost{}, nil)
	if h.log == nil {
		t.Fatal("expected a non-nil log entry when logger is nil")
	}
}

func TestHost_PassThroughMethodsDelegate(t *testing.T) {
	h, _, _ := newTestHost(t)

	if h.OsPlatform() != "stub" {
		t.Errorf("OsPlatform = %q, want %q", h.OsPlatform(), "stub")
	}
	if h.NextRandomU64() != 42 {
		t.Errorf("NextRandomU64 = %d, want 42", h.NextRandomU64())
	}
}
