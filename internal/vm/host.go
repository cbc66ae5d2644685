package vm

import "github.com/skepa-lang/skepa/internal/bytecode"

// Host is the port every builtin that touches the outside world reaches
// through: console I/O, the filesystem, the OS environment, wall-clock
// time, the pseudo-random generator, and the host-owned Vec store (spec
// §4.5 "Host surface (minimum)"). A VM run never talks to the outside
// world except through this interface, so embedders can substitute a
// fully in-memory Host for tests.
type Host interface {
	Write(s string, newline bool) error
	ReadLine() (string, error)

	VecNew() (uint64, error)
	VecLen(id uint64) (int, error)
	VecPush(id uint64, v bytecode.Value) error
	VecGet(id uint64, idx int64) (bytecode.Value, error)
	VecSet(id uint64, idx int64, v bytecode.Value) error
	VecDelete(id uint64, idx int64) (bytecode.Value, error)

	SetRandomSeed(seed int64)
	NextRandomU64() uint64

	NowUnix() int64
	NowMillis() int64

	FsExists(path string) (bool, error)
	FsReadText(path string) (string, error)
	FsWriteText(path, content string) error
	FsAppendText(path, content string) error
	FsMkdirAll(path string) error
	FsRemoveFile(path string) error
	FsRemoveDirAll(path string) error

	OsCwd() (string, error)
	OsPlatform() string
	OsSleep(ms int64)
	OsExecShell(cmd string) (int, error)
	OsExecShellOut(cmd string) (string, error)
}
