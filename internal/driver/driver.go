// Package driver wires the compiler pipeline together: resolve the module
// graph, type-check it, lower it to bytecode, and hand the linked module to
// a VM against a Host. It is the one place that knows about every stage;
// none of resolver/types/lowering/vm import each other directly for this
// purpose (spec §4 "pipeline").
package driver

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/skepa-lang/skepa/internal/bytecode"
	"github.com/skepa-lang/skepa/internal/config"
	"github.com/skepa-lang/skepa/internal/diag"
	"github.com/skepa-lang/skepa/internal/disasm"
	"github.com/skepa-lang/skepa/internal/errcode"
	"github.com/skepa-lang/skepa/internal/lowering"
	"github.com/skepa-lang/skepa/internal/module"
	"github.com/skepa-lang/skepa/internal/types"
	"github.com/skepa-lang/skepa/internal/vm"
)

// CompileError reports every diagnostic from the resolver or the checker
// that stopped compilation, so a caller can print them all instead of only
// the first.
type CompileError struct {
	Resolver []*errcode.CodedError
	Checker  []diag.Diagnostic
}

func (e *CompileError) Error() string {
	var b strings.Builder
	for _, re := range e.Resolver {
		fmt.Fprintf(&b, "%s\n", re.Error())
	}
	for _, d := range e.Checker {
		if d.Level != diag.Error {
			continue
		}
		fmt.Fprintf(&b, "%s: [%s] %s\n", d.Span, d.Code, d.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Compile resolves, type-checks, and lowers the module graph rooted at
// entry into one linked bytecode.Module. It returns a *CompileError
// wrapping every diagnostic the resolver or checker raised when either
// stage fails; a failure in one stage means later stages never run.
func Compile(entry string) (*bytecode.Module, error) {
	g, bindings, errs := module.Load(entry)
	if len(errs) > 0 {
		return nil, &CompileError{Resolver: errs}
	}

	infos, bag := types.CheckAll(g, bindings)
	if bag.HasErrors() {
		return nil, &CompileError{Checker: bag.Items()}
	}

	mod, err := lowering.Lower(g, infos)
	if err != nil {
		return nil, fmt.Errorf("driver: lowering: %w", err)
	}
	return mod, nil
}

// Run compiles entry and executes it to completion against host, using cfg
// for the VM's call-depth bound. It returns the main function's result
// value (spec §4.5 "running a program evaluates <entry module>::main").
func Run(entry string, host vm.Host, registry *vm.Registry, cfg config.Config) (bytecode.Value, error) {
	mod, err := Compile(entry)
	if err != nil {
		return bytecode.Value{}, err
	}
	if err := cfg.Validate(); err != nil {
		return bytecode.Value{}, fmt.Errorf("driver: %w", err)
	}

	if cfg.Trace {
		log.WithField("component", "driver").Debug("disassembly:\n" + disasm.PrettyModule(mod))
	}

	machine := vm.New(mod, host, registry, cfg.MaxCallDepth)
	return machine.Run(bytecode.MainChunk)
}
