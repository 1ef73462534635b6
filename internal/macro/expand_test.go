package macro

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mbullington/wgpu-pp/internal/pperr"
)

func testTable(defs ...Definition) *Table {
	t := NewTable()
	for _, d := range defs {
		t.Define(d)
	}
	return t
}

func obj(name, body string) Definition {
	return Definition{Name: name, Kind: Object, Body: body}
}

func fn(name string, params []string, body string) Definition {
	return Definition{Name: name, Kind: Function, Params: params, Body: body}
}

func TestExpandLine(t *testing.T) {
	for _, tt := range []struct {
		name  string
		defs  []Definition
		input string
		want  string
	}{
		{
			"no macros",
			nil,
			"fn main() {}",
			"fn main() {}",
		},
		{
			"object macro",
			[]Definition{obj("PI", "3.1415926")},
			"let x = PI;",
			"let x = 3.1415926;",
		},
		{
			"identifier boundary",
			[]Definition{obj("PI", "3.1415926")},
			"fn times_PI_bad(x: f32) -> f32 { return x * PI; }",
			"fn times_PI_bad(x: f32) -> f32 { return x * 3.1415926; }",
		},
		{
			"longer identifier is not a match",
			[]Definition{obj("PI", "3.1415926")},
			"PI2 + PIE + PI",
			"PI2 + PIE + 3.1415926",
		},
		{
			"digit prefix is not a boundary",
			[]Definition{obj("PI", "3.1415926")},
			"2PI",
			"2PI",
		},
		{
			"object macro referencing another",
			[]Definition{obj("PI", "3.1415926"), obj("TAU", "(2.0 * PI)")},
			"TAU",
			"(2.0 * 3.1415926)",
		},
		{
			"function macro",
			[]Definition{fn("SQ", []string{"x"}, "((x) * (x))")},
			"SQ(a + b)",
			"((a + b) * (a + b))",
		},
		{
			"function macro without invocation",
			[]Definition{fn("SQ", []string{"x"}, "((x) * (x))")},
			"SQ + SQ (1)",
			"SQ + SQ (1)",
		},
		{
			"zero parameter macro",
			[]Definition{fn("NOW", []string{}, "time.elapsed")},
			"NOW()",
			"time.elapsed",
		},
		{
			"nested composition",
			[]Definition{
				fn("TO_VEC", []string{"r", "g", "b"}, "vec3f(r, g, b)"),
				fn("TO_VEC4", []string{"vec3"}, "vec4f(vec3, 1.0f)"),
			},
			"TO_VEC4(TO_VEC(f32(x), f32(x), f32(x)))",
			"vec4f(vec3f(f32(x), f32(x), f32(x)), 1.0f)",
		},
		{
			"nested parens in one argument",
			[]Definition{fn("FIRST", []string{"a", "b"}, "a")},
			"FIRST(max(x, y), z)",
			"max(x, y)",
		},
		{
			"self reference left unexpanded",
			[]Definition{obj("LOOP", "LOOP + 1")},
			"LOOP",
			"LOOP + 1",
		},
		{
			"mutual recursion left unexpanded",
			[]Definition{obj("A", "B"), obj("B", "A")},
			"A",
			"A",
		},
		{
			"recursive function macro",
			[]Definition{fn("WRAP", []string{"x"}, "WRAP(x)")},
			"WRAP(1)",
			"WRAP(1)",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExpander(testTable(tt.defs...), 32)
			got, err := e.ExpandLine(tt.input)
			if err != nil {
				t.Fatalf("expand error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandErrors(t *testing.T) {
	for _, tt := range []struct {
		name  string
		defs  []Definition
		input string
		kind  pperr.Kind
	}{
		{
			"too many arguments",
			[]Definition{fn("PACK", []string{"a", "b"}, "a | b")},
			"PACK(1, 2, 3)",
			pperr.KindArgumentCountMismatch,
		},
		{
			"too few arguments",
			[]Definition{fn("PACK", []string{"a", "b"}, "a | b")},
			"PACK(1)",
			pperr.KindArgumentCountMismatch,
		},
		{
			"argument for zero parameter macro",
			[]Definition{fn("NOW", []string{}, "t")},
			"NOW(1)",
			pperr.KindArgumentCountMismatch,
		},
		{
			"unterminated argument list",
			[]Definition{fn("SQ", []string{"x"}, "x*x")},
			"SQ(1",
			pperr.KindSyntax,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExpander(testTable(tt.defs...), 32)
			_, err := e.ExpandLine(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if !pperr.IsKind(err, tt.kind) {
				t.Errorf("got %v, want kind %v", err, tt.kind)
			}
		})
	}
}

func TestExpandDepthLimit(t *testing.T) {
	table := NewTable()
	for i := 0; i < 10; i++ {
		table.Define(obj(fmt.Sprintf("M%d", i), fmt.Sprintf("M%d", i+1)))
	}
	e := NewExpander(table, 5)
	_, err := e.ExpandLine("M0")
	if err == nil {
		t.Fatal("expected error")
	}
	if !pperr.IsKind(err, pperr.KindRecursionLimit) {
		t.Errorf("got %v, want RecursionLimitExceeded", err)
	}
}

func TestTable(t *testing.T) {
	table := NewTable()
	table.Define(obj("A", "1"))
	table.Define(obj("A", "2"))
	if def, _ := table.Lookup("A"); def.Body != "2" {
		t.Errorf("redefinition should overwrite, got body %q", def.Body)
	}
	table.Define(obj("B", "3"))
	if diff := cmp.Diff([]string{"A", "B"}, table.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	table.Undef("A")
	table.Undef("A") // second removal is a no-op
	if _, ok := table.Lookup("A"); ok {
		t.Error("A should be gone after undef")
	}
	if table.Len() != 1 {
		t.Errorf("len = %d, want 1", table.Len())
	}
}

func TestIsIdentifier(t *testing.T) {
	for s, want := range map[string]bool{
		"PI":      true,
		"_x1":     true,
		"a":       true,
		"1x":      false,
		"":        false,
		"foo-bar": false,
		"a b":     false,
	} {
		if got := IsIdentifier(s); got != want {
			t.Errorf("IsIdentifier(%q) = %v, want %v", s, got, want)
		}
	}
}
