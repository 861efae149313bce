package backend_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/pyhost/internal/backend"
	"github.com/funvibe/pyhost/internal/config"
	"github.com/funvibe/pyhost/internal/diagnostics"
	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/lexer"
	"github.com/funvibe/pyhost/internal/parser"
	"github.com/funvibe/pyhost/internal/pipeline"
)

func run(t *testing.T, name, src string) (*pipeline.PipelineContext, *backend.ExecutionProcessor, string) {
	t.Helper()
	b, err := backend.New(name)
	if err != nil {
		t.Fatalf("New(%q): %v", name, err)
	}
	var out bytes.Buffer
	e := evaluator.New(evaluator.NewScriptState("main.py"))
	e.Out = &out
	exec := backend.NewExecutionProcessor(b, e)
	ctx := &pipeline.PipelineContext{SourceCode: src, FilePath: "main.py"}
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}, exec).Run(ctx)
	return ctx, exec, out.String()
}

func TestBackendsAgree(t *testing.T) {
	src := "def sq(x):\n    y = x * x\n    return y\nprint([sq(i) for i in range(4)])\nsq(5)\n"
	for _, name := range []string{config.BackendTree, config.BackendCompiled} {
		ctx, _, out := run(t, name, src)
		if ctx.HasErrors() {
			t.Fatalf("%s: %v", name, ctx.Errors[0])
		}
		if out != "[0, 1, 4, 9]\n" {
			t.Errorf("%s: output %q", name, out)
		}
		if v, ok := ctx.Result.(evaluator.Object); !ok || v.Inspect() != "25" {
			t.Errorf("%s: result = %v", name, ctx.Result)
		}
	}
}

func TestUncaughtExceptionBecomesDiagnostic(t *testing.T) {
	for _, name := range []string{config.BackendTree, config.BackendCompiled} {
		ctx, exec, _ := run(t, name, "x = 1\nraise KeyError('gone')\n")
		if len(ctx.Errors) != 1 {
			t.Fatalf("%s: errors = %v", name, ctx.Errors)
		}
		d := ctx.Errors[0]
		if d.Code != diagnostics.ErrR001 || d.Token.Line != 2 || !strings.Contains(d.Message, "KeyError: 'gone'") {
			t.Errorf("%s: diagnostic = %+v", name, d)
		}
		var exc *evaluator.Exception
		if !errors.As(exec.Err, &exc) {
			t.Errorf("%s: Err = %v", name, exec.Err)
		}
	}
}

func TestFatalErrorBecomesDiagnostic(t *testing.T) {
	ctx, _, _ := run(t, config.BackendCompiled, "def f():\n    return f()\nf()\n")
	if len(ctx.Errors) != 1 || ctx.Errors[0].Code != diagnostics.ErrR002 {
		t.Fatalf("errors = %v", ctx.Errors)
	}
}

func TestParseErrorsSkipExecution(t *testing.T) {
	ctx, exec, out := run(t, config.BackendTree, "print('x')\ndef (:\n")
	if !ctx.HasErrors() || exec.Err != nil || out != "" {
		t.Fatalf("errors=%v err=%v out=%q", ctx.Errors, exec.Err, out)
	}
}

func TestUnknownBackend(t *testing.T) {
	if _, err := backend.New("vm"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
