package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// TestFunctional runs every testdata script with a .want file under both
// backends. A matching .err file holds the expected stderr and implies a
// failing exit status.
func TestFunctional(t *testing.T) {
	var scripts []string
	for _, pattern := range []string{"testdata/*.py", "testdata/*.json"} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			t.Fatal(err)
		}
		scripts = append(scripts, matches...)
	}
	if len(scripts) == 0 {
		t.Fatal("no functional scripts found")
	}
	for _, script := range scripts {
		base := strings.TrimSuffix(script, filepath.Ext(script))
		want, err := os.ReadFile(base + ".want")
		if err != nil {
			continue
		}
		wantErr, _ := os.ReadFile(base + ".err")
		for _, flags := range [][]string{nil, {"--compile"}} {
			name := filepath.Base(base)
			if len(flags) > 0 {
				name += "/compiled"
			}
			t.Run(name, func(t *testing.T) {
				code, stdout, stderr := runCLI(t, "", append(flags, script)...)
				if stdout != string(want) {
					t.Errorf("stdout:\n%s\nwant:\n%s", stdout, want)
				}
				if stderr != string(wantErr) {
					t.Errorf("stderr:\n%s\nwant:\n%s", stderr, wantErr)
				}
				if wantCode := boolToCode(len(wantErr) > 0); code != wantCode {
					t.Errorf("exit code = %d, want %d", code, wantCode)
				}
			})
		}
	}
}

func boolToCode(failed bool) int {
	if failed {
		return 1
	}
	return 0
}

func TestParseErrorsAreReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.py")
	if err := os.WriteFile(path, []byte("x = (1,\nprint(x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	code, stdout, stderr := runCLI(t, "", path)
	if code != 1 || stdout != "" {
		t.Errorf("code = %d, stdout = %q", code, stdout)
	}
	if !strings.HasPrefix(stderr, "- "+path) {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRecursionLimitFromEnvironment(t *testing.T) {
	t.Setenv("PYHOST_MAX_DEPTH", "40")
	path := filepath.Join(t.TempDir(), "deep.py")
	if err := os.WriteFile(path, []byte("def down(n):\n    return down(n + 1)\ndown(0)\n"), 0644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := runCLI(t, "", path)
	if code != 1 || !strings.HasPrefix(stderr, "Fatal error: maximum recursion depth exceeded (line 2,") {
		t.Errorf("code = %d, stderr = %q", code, stderr)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(cfg, []byte("backend: compiled\nhost:\n  packages: [strings]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(dir, "pkgs.py")
	src := "from strings import Builder\nprint(Builder('ok').String())\nimport uuid\nuuid.UUID\n"
	if err := os.WriteFile(script, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	code, stdout, stderr := runCLI(t, "", "--config", cfg, script)
	if code != 1 || stdout != "ok\n" {
		t.Errorf("code = %d, stdout = %q", code, stdout)
	}
	if !strings.Contains(stderr, "ImportError") {
		t.Errorf("disabled package did not fail to import: %q", stderr)
	}

	if err := os.WriteFile(cfg, []byte("backend: bogus\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if code, _, stderr := runCLI(t, "", "--config", cfg, script); code != 2 || !strings.Contains(stderr, "unknown backend") {
		t.Errorf("code = %d, stderr = %q", code, stderr)
	}
}

func TestDumpAST(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "--dump-ast", "testdata/atexit.py")
	if code != 0 || stderr != "" {
		t.Fatalf("code = %d, stderr = %q", code, stderr)
	}
	if !strings.Contains(stdout, "ast.Module{") || !strings.Contains(stdout, `"goodbye"`) {
		t.Errorf("unexpected dump:\n%s", stdout)
	}
	if strings.Contains(stdout, "main done") {
		t.Errorf("--dump-ast executed the script")
	}
}

func TestREPL(t *testing.T) {
	input := strings.Join([]string{
		"x = 2",
		"x * 21",
		"def f(a):",
		"    return a + 1",
		"",
		"f(x)",
		"'hi'",
		"[1,",
		" 2]",
		"undefined",
		"import atexit",
		"atexit.register(print, 'bye')",
	}, "\n") + "\n"
	for _, flags := range [][]string{nil, {"--compile"}} {
		code, stdout, stderr := runCLI(t, input, flags...)
		if code != 0 {
			t.Errorf("%v: exit code %d", flags, code)
		}
		if want := "42\n3\n'hi'\n[1, 2]\n<built-in function print>\nbye\n"; stdout != want {
			t.Errorf("%v: stdout = %q, want %q", flags, stdout, want)
		}
		if !strings.Contains(stderr, "NameError: name 'undefined' is not defined") {
			t.Errorf("%v: stderr = %q", flags, stderr)
		}
	}
}

func TestNeedsMore(t *testing.T) {
	tests := []struct {
		lines []string
		want  bool
	}{
		{[]string{"x = 1"}, false},
		{[]string{"if x:"}, true},
		{[]string{"if x:", "    y = 1"}, true},
		{[]string{"if x:", "    y = 1", ""}, false},
		{[]string{"f(1,"}, true},
		{[]string{"s = '(' # ["}, false},
		{[]string{"x = 1 + \\"}, true},
	}
	for _, tt := range tests {
		if got := needsMore(tt.lines); got != tt.want {
			t.Errorf("needsMore(%q) = %v, want %v", tt.lines, got, tt.want)
		}
	}
}
