package hostbridge_test

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/funvibe/pyhost/internal/evaluator"
	"github.com/funvibe/pyhost/internal/hostbridge"
	"github.com/funvibe/pyhost/internal/parser"
)

type point struct {
	X, Y  int
	label string
}

func newPoint(x, y int) *point               { return &point{X: x, Y: y} }
func newPointFromFloats(x, y float64) *point { return &point{X: int(x), Y: int(y), label: "float"} }

func (p *point) Sum() int                  { return p.X + p.Y }
func (p *point) Scale(k int) *point        { return &point{X: p.X * k, Y: p.Y * k} }
func (p *point) Apply(f func(int) int) int { return f(p.X) + f(p.Y) }
func (p *point) Label() string             { return p.label }
func (p *point) Fail() error               { return errors.New("bad point") }
func (p *point) Pair() (int, int)          { return p.X, p.Y }
func (p *point) Panic()                    { panic("kaboom") }
func (p *point) String() string            { return fmt.Sprintf("(%d, %d)", p.X, p.Y) }

func (p *point) Each(f func(int)) int {
	f(p.X)
	f(p.Y)
	return 2
}

func newRegistry(t *testing.T) *hostbridge.Registry {
	t.Helper()
	reg := hostbridge.NewRegistry()
	err := reg.Register(hostbridge.ClassSpec{
		Name:         "geo.Point",
		Type:         reflect.TypeOf(point{}),
		Constructors: []interface{}{newPoint, newPointFromFloats},
		Statics: map[string]interface{}{
			"ORIGIN": point{},
			"origin": func() *point { return &point{Y: 7} },
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg
}

func run(t *testing.T, reg *hostbridge.Registry, src string) (string, error) {
	t.Helper()
	m, diags := parser.Parse(src, "host.py")
	if len(diags) > 0 {
		t.Fatalf("parse: %v", diags[0])
	}
	var out bytes.Buffer
	e := evaluator.New(evaluator.NewScriptState("host.py"))
	e.Out = &out
	e.Bridge = reg
	reg.Marshaller().Call = func(fn evaluator.Object, args []evaluator.Object) (evaluator.Object, error) {
		return e.Call(fn, args, nil)
	}
	_, err := e.ExecModule(m)
	return out.String(), err
}

func TestHostClassFromScript(t *testing.T) {
	src := strings.Join([]string{
		`Point = hostclass("geo.Point")`,
		`p = Point(1, 2)`,
		`print(p.X, p.y, p.sum(), str(p), p.label())`,
		`p.x = 5`,
		`print(p.Sum(), p.scale(2).Sum(), Point(1.5, 2.5).X, Point(1.5, 2.5).label())`,
		`print(p.apply(lambda v: v * 10), p.pair())`,
		`seen = []`,
		`print(p.each(seen.append), seen)`,
		`print(isinstance(p, Point), Point.ORIGIN.X, Point.origin().Y)`,
		`try:`,
		`    p.fail()`,
		`except HostError as err:`,
		`    print("failed:", err, err.cause)`,
		`try:`,
		`    p.panic()`,
		`except HostError as err:`,
		`    print("panicked:", err)`,
		`from geo import Point as P2`,
		`print(P2(3, 4).sum())`,
	}, "\n") + "\n"
	want := strings.Join([]string{
		"1 2 3 (1, 2) ",
		"7 14 1 float",
		"70 (5, 2)",
		"2 [5, 2]",
		"True 0 7",
		"failed: bad point bad point",
		"panicked: host panic: kaboom",
		"7",
	}, "\n") + "\n"
	out, err := run(t, newRegistry(t), src)
	if err != nil {
		t.Fatalf("unexpected error: %v\noutput so far:\n%s", err, out)
	}
	if out != want {
		t.Errorf("output:\n%s\nwant:\n%s", out, want)
	}
}

func TestHostClassErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"no overload", `hostclass("geo.Point")("a", 1)`, "TypeError: geo.Point: no matching overload: no overload accepts (str, int)"},
		{"wrong arity", `hostclass("geo.Point")(1, 2).scale()`, "TypeError"},
		{"missing member", `hostclass("geo.Point")(1, 2).z`, "AttributeError"},
		{"unexported field", `hostclass("geo.Point")(1, 2).label = "x"`, "AttributeError"},
		{"unknown class", `hostclass("geo.Line")`, "ImportError: no such host class: geo.Line"},
		{"keywords rejected", `hostclass("geo.Point")(x=1, y=2)`, "TypeError: geo.Point() takes no keyword arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, newRegistry(t), tt.src+"\n")
			if err == nil || !strings.HasPrefix(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want prefix %q", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	reg := hostbridge.NewRegistry()
	bad := []hostbridge.ClassSpec{
		{Name: "Point", Type: reflect.TypeOf(point{})},
		{Name: "geo.Point"},
		{Name: "geo.Point", Type: reflect.TypeOf(point{}), Constructors: []interface{}{42}},
		{Name: "geo.Point", Type: reflect.TypeOf(point{}), Constructors: []interface{}{func() int { return 0 }}},
	}
	for i, spec := range bad {
		if err := reg.Register(spec); err == nil {
			t.Errorf("spec %d: expected error", i)
		}
	}
	ok := hostbridge.ClassSpec{Name: "geo.Point", Type: reflect.TypeOf(point{}), Constructors: []interface{}{newPoint}}
	if err := reg.Register(ok); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(ok); err == nil {
		t.Error("expected duplicate registration error")
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "geo.Point" {
		t.Errorf("Names() = %v", names)
	}
	if _, err := reg.Resolve("geo.Nope"); !errors.Is(err, evaluator.ErrNoSuchClass) {
		t.Errorf("Resolve error = %v", err)
	}
}

func TestMarshallerToValue(t *testing.T) {
	m := hostbridge.NewRegistry().Marshaller()
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, "None"},
		{int8(-3), "-3"},
		{int64(1) << 40, "1099511627776"},
		{uint(7), "7"},
		{float32(1.5), "1.5"},
		{2.25, "2.25"},
		{"hi", "'hi'"},
		{true, "True"},
		{[]int{1, 2}, "[1, 2]"},
		{[2]string{"a", "b"}, "['a', 'b']"},
		{map[string]int{"b": 2, "a": 1}, "{'a': 1, 'b': 2}"},
		{(*point)(nil), "None"},
	}
	for _, tt := range tests {
		v, err := m.ToValue(tt.in)
		if err != nil {
			t.Fatalf("ToValue(%#v): %v", tt.in, err)
		}
		if got := v.Inspect(); got != tt.want {
			t.Errorf("ToValue(%#v) = %s, want %s", tt.in, got, tt.want)
		}
	}

	v, err := m.ToValue([]byte("raw"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v.(*evaluator.HostObject); !ok {
		t.Errorf("[]byte became %T, want *evaluator.HostObject", v)
	}
	if raw, ok := hostbridge.Unwrap(v); !ok || string(raw.([]byte)) != "raw" {
		t.Errorf("Unwrap = %v, %v", raw, ok)
	}
	if _, ok := v.(*evaluator.HostObject).Value.(evaluator.ForeignIterable); !ok {
		t.Error("byte slices should be iterable host values")
	}
}

func TestMarshallerFromValue(t *testing.T) {
	m := hostbridge.NewRegistry().Marshaller()
	list := &evaluator.List{Elements: []evaluator.Object{evaluator.NewInt(1), evaluator.NewStr("x")}}
	got, err := m.FromValue(list, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []interface{}{int64(1), "x"}) {
		t.Errorf("natural list = %#v", got)
	}

	d := evaluator.NewDict()
	d.SetStr("k", &evaluator.Float{Value: 0.5})
	got, err = m.FromValue(d, reflect.TypeOf(map[string]float32{}))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, map[string]float32{"k": 0.5}) {
		t.Errorf("typed map = %#v", got)
	}

	if _, err := m.FromValue(evaluator.NewInt(300), reflect.TypeOf(int8(0))); err == nil {
		t.Error("expected overflow converting 300 to int8")
	}
	if _, err := m.FromValue(evaluator.NewInt(-1), reflect.TypeOf(uint(0))); err == nil {
		t.Error("expected error converting -1 to uint")
	}
	if _, err := m.FromValue(evaluator.NewStr("x"), reflect.TypeOf(0)); err == nil {
		t.Error("expected error converting str to int")
	}
	got, err = m.FromValue(evaluator.NewStr("ab"), reflect.TypeOf([]byte(nil)))
	if err != nil || string(got.([]byte)) != "ab" {
		t.Errorf("str to []byte = %v, %v", got, err)
	}
	got, err = m.FromValue(evaluator.None, reflect.TypeOf(&point{}))
	if err != nil || got.(*point) != nil {
		t.Errorf("None to pointer = %v, %v", got, err)
	}
}
