// Package vm executes a linked bytecode.Module: the stack-based
// interpreter loop, its builtin dispatch registry, and the Host port
// builtins reach through for anything host-owned (spec §4.5).
package vm

import "github.com/skepa-lang/skepa/internal/errcode"

// newErr builds a VM-phase CodedError; every failure surfaced out of this
// package is a CodedError (built here, or by hostErr for host failures)
// so callers can branch on Code (spec §7).
func newErr(code, format string, args ...interface{}) *errcode.CodedError {
	return errcode.New(code, format, args...)
}

func unknownFunction(name string) error {
	return newErr(errcode.EVMUnknownFunction, "no chunk named %q", name)
}

func arityErr(name string, want, got int) error {
	return newErr(errcode.EVMArity, "%s expects %d argument(s), got %d", name, want, got)
}

func stackUnderflow(op string) error {
	return newErr(errcode.EVMStackUnderflow, "operand stack underflow in %s", op)
}

func stackOverflow(depth, max int) error {
	return newErr(errcode.EVMStackOverflow, "call depth %d exceeds max_call_depth %d", depth, max)
}

func typeErr(op string, got interface{}) error {
	return newErr(errcode.EVMType, "%s: unexpected operand %v", op, got)
}

func invalidLocal(slot, count int) error {
	return newErr(errcode.EVMInvalidLocal, "local slot %d out of range (locals_count=%d)", slot, count)
}

func divZero(op string) error {
	return newErr(errcode.EVMDivZero, "%s by zero", op)
}

func unknownBuiltin(pkg, name string) error {
	return newErr(errcode.EVMUnknownBuiltin, "no builtin registered for %s.%s", pkg, name)
}

func hostErr(cause error, format string, args ...interface{}) error {
	return errcode.Wrap(errcode.EVMHost, cause, format, args...)
}

func indexOOB(op string, idx, length int) error {
	return newErr(errcode.EVMIndexOOB, "%s: index %d out of bounds for length %d", op, idx, length)
}
