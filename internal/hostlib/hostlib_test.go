package hostlib_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/hostbridge"
	"github.com/funvibe/pyhost/internal/hostlib"
	"github.com/funvibe/pyhost/internal/parser"
)

func run(t *testing.T, src string) string {
	t.Helper()
	reg := hostbridge.NewRegistry()
	if err := hostlib.Register(reg, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	m, diags := parser.Parse(src, "lib.py")
	if len(diags) > 0 {
		t.Fatalf("parse: %v", diags[0])
	}
	var out bytes.Buffer
	e := evaluator.New(evaluator.NewScriptState("lib.py"))
	e.Out = &out
	e.Bridge = reg
	if _, err := e.ExecModule(m); err != nil {
		t.Fatalf("exec: %v\noutput so far:\n%s", err, out.String())
	}
	return out.String()
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func TestUUID(t *testing.T) {
	got := run(t, lines(
		`from uuid import UUID`,
		`u = UUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")`,
		`print(str(u) == "6ba7b810-9dad-11d1-80b4-00c04fd430c8", u.version())`,
		`print(UUID.sha1(UUID.NAMESPACE_DNS, "example.com"))`,
		`fresh = UUID.new()`,
		`print(len(str(fresh)), fresh.version(), isinstance(fresh, UUID))`,
		`try:`,
		`    UUID.parse("nope")`,
		`except HostError:`,
		`    print("bad uuid")`,
	))
	want := lines("True 1", "cfbff0d1-9375-5685-968c-48ce8b15ae17", "36 4 True", "bad uuid")
	if got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}
}

func TestSQLite(t *testing.T) {
	got := run(t, lines(
		`import sqlite`,
		`with sqlite.Database(":memory:") as db:`,
		`    db.execute("create table t (id integer, name text)")`,
		`    print(db.execute("insert into t values (?, ?), (?, ?)", 1, "a", 2, "b"))`,
		`    rows = db.query("select id, name from t order by id")`,
		`    print(rows)`,
		`    print([r["name"] for r in rows if r["id"] > 1], db.query("select * from t where id > ?", 5))`,
		`try:`,
		`    db.query("select 1")`,
		`except HostError as err:`,
		`    print("closed:", err)`,
	))
	want := lines(
		"2",
		"[{'id': 1, 'name': 'a'}, {'id': 2, 'name': 'b'}]",
		"['b'] []",
		"closed: sql: database is closed",
	)
	if got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}
}

func TestStringsBuilder(t *testing.T) {
	got := run(t, lines(
		`from strings import Builder`,
		`b = Builder()`,
		`b.WriteString("x")`,
		`b.writeString("y")`,
		`print(b.string(), b.len(), str(b), Builder("pre").String())`,
	))
	if want := lines("xy 2 xy pre"); got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}
}

func TestRegisterFiltersPackages(t *testing.T) {
	reg := hostbridge.NewRegistry()
	err := hostlib.Register(reg, func(pkg string) bool { return pkg == "uuid" })
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "uuid.UUID" {
		t.Errorf("Names() = %v", names)
	}
	if got := hostlib.Packages(); strings.Join(got, ",") != "sqlite,strings,uuid" {
		t.Errorf("Packages() = %v", got)
	}
}
