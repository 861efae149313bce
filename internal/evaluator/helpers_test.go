package evaluator_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/funvibe/pyhost/internal/compiler"
	"github.com/funvibe/pyhost/internal/config"
	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/parser"
)

var backends = []string{config.BackendTree, config.BackendCompiled}

type runResult struct {
	out   string
	buf   *bytes.Buffer
	value evaluator.Object
	err   error
	state *evaluator.ScriptState
	eval  *evaluator.Evaluator
}

// runWith executes src under one backend.
func runWith(t *testing.T, backend, src string, setup func(*evaluator.Evaluator)) runResult {
	t.Helper()
	m, diags := parser.Parse(src, "test.py")
	if len(diags) > 0 {
		t.Fatalf("parse error: %v", diags[0])
	}
	var out bytes.Buffer
	state := evaluator.NewScriptState("test.py")
	e := evaluator.New(state)
	e.Out = &out
	if setup != nil {
		setup(e)
	}
	if backend == config.BackendCompiled {
		prog := compiler.CompileModule(m, e.Logger)
		e.Plans = prog.Plans
		m = prog.Module
	}
	v, err := e.ExecModule(m)
	return runResult{out: out.String(), buf: &out, value: v, err: err, state: state, eval: e}
}

// runBoth executes src under every backend and fails unless they agree.
func runBoth(t *testing.T, src string) runResult {
	t.Helper()
	var first runResult
	for i, b := range backends {
		r := runWith(t, b, src, nil)
		if i == 0 {
			first = r
			continue
		}
		if r.out != first.out {
			t.Fatalf("backend %s output differs:\n%s\nvs %s:\n%s", b, r.out, backends[0], first.out)
		}
		if errText(r.err) != errText(first.err) {
			t.Fatalf("backend %s error differs: %q vs %q", b, errText(r.err), errText(first.err))
		}
	}
	return first
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

type outputCase struct {
	name string
	src  string
	want string
}

func runOutputCases(t *testing.T, cases []outputCase) {
	t.Helper()
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			r := runBoth(t, dedent(tt.src))
			if r.err != nil {
				t.Fatalf("unexpected error: %v", r.err)
			}
			if r.out != tt.want {
				t.Errorf("output:\n%s\nwant:\n%s", r.out, tt.want)
			}
		})
	}
}

type errorCase struct {
	name    string
	src     string
	wantErr string
}

func runErrorCases(t *testing.T, cases []errorCase) {
	t.Helper()
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			r := runBoth(t, dedent(tt.src))
			if r.err == nil {
				t.Fatalf("expected error containing %q, got output %q", tt.wantErr, r.out)
			}
			if !strings.Contains(r.err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", r.err.Error(), tt.wantErr)
			}
		})
	}
}

// dedent strips the common leading indentation of a raw-string program.
func dedent(src string) string {
	lines := strings.Split(strings.Trim(src, "\n"), "\n")
	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, "\t "))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, l := range lines {
		if len(l) >= indent && indent > 0 {
			lines[i] = l[indent:]
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
