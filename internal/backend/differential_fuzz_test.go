package backend_test

import (
	"errors"
	"testing"

	"github.com/funvibe/pyhost/internal/config"
	"github.com/funvibe/pyhost/internal/evaluator"
)

// FuzzDifferential runs generated programs under both backends and requires
// the same output, result and exception class.
func FuzzDifferential(f *testing.F) {
	f.Add([]byte("seed"))
	f.Add([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13})
	f.Add([]byte{3, 0, 0, 5, 2, 0, 3, 3, 1, 2, 2, 5, 1, 7, 6, 4, 2})
	f.Add([]byte{1, 1, 1, 1, 1, 1, 1, 5, 5, 5, 5, 2, 2, 6, 1, 7, 0})

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 512 {
			return
		}
		src := generateProgram(data)

		treeCtx, treeExec, treeOut := run(t, config.BackendTree, src)
		compCtx, compExec, compOut := run(t, config.BackendCompiled, src)
		if treeCtx.HasErrors() && treeExec.Err == nil {
			t.Fatalf("generated program does not parse: %v\n%s", treeCtx.Errors[0], src)
		}

		if treeOut != compOut {
			t.Fatalf("output mismatch\n%s\ntree:\n%s\ncompiled:\n%s", src, treeOut, compOut)
		}
		if got, want := errorClass(compExec.Err), errorClass(treeExec.Err); got != want {
			t.Fatalf("error mismatch\n%s\ntree: %v\ncompiled: %v", src, treeExec.Err, compExec.Err)
		}
		if treeExec.Err != nil {
			return
		}
		tr, _ := treeCtx.Result.(evaluator.Object)
		cr, _ := compCtx.Result.(evaluator.Object)
		if tr == nil || cr == nil || tr.Inspect() != cr.Inspect() {
			t.Fatalf("result mismatch\n%s\ntree: %v\ncompiled: %v", src, treeCtx.Result, compCtx.Result)
		}
	})
}

func errorClass(err error) string {
	var exc *evaluator.Exception
	if errors.As(err, &exc) {
		return exc.TypeName()
	}
	if err != nil {
		return "fatal"
	}
	return ""
}
