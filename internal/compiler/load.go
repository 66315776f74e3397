package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/tbracht/weft/internal/kernel"
)

// CompileFile compiles every kernel defined in one CUE file, in
// declaration order. Compilation is fail-fast: the first kernel that
// does not compile aborts the whole file.
func CompileFile(path string) ([]*kernel.Kernel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kernel file: %w", err)
	}
	return CompileBytes(path, data)
}

// CompileBytes compiles every kernel in the given CUE source. The
// filename labels positions in error messages. Kernels live under the
// top-level "kernel" struct, one field per kernel:
//
//	kernel: stencil: {
//		domains: [{inames: ["i"], constraints: "1 <= i < N - 1"}]
//		statements: [...]
//	}
func CompileBytes(filename string, src []byte) ([]*kernel.Kernel, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("kernel"))
	if !root.Exists() {
		return nil, &CompileError{
			Field:   "kernel",
			Message: fmt.Sprintf("no kernel block in %s", filename),
			Pos:     v.Pos(),
		}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var kernels []*kernel.Kernel
	for iter.Next() {
		k, err := CompileKernel(iter.Value())
		if err != nil {
			return nil, err
		}
		kernels = append(kernels, k)
	}
	if len(kernels) == 0 {
		return nil, &CompileError{
			Field:   "kernel",
			Message: fmt.Sprintf("kernel block in %s defines no kernels", filename),
			Pos:     root.Pos(),
		}
	}
	return kernels, nil
}
