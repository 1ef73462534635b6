package pperr

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestErrorRendering(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  *Error
		want string
	}{
		{
			"with location",
			At(KindSyntax, "a.wgsl", 3, "bad #define"),
			"a.wgsl:3: bad #define",
		},
		{
			"file only",
			&Error{Kind: KindValidation, File: "a.wgsl", Message: "invalid shader"},
			"a.wgsl: invalid shader",
		},
		{
			"no location",
			New(KindIncludeCycle, "include cycle: a -> b -> a"),
			"include cycle: a -> b -> a",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.err.Error()); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLocate(t *testing.T) {
	err := New(KindArgumentCountMismatch, "macro F expects 1 argument(s), got 2")
	located := Locate(err, "a.wgsl", 7)
	if got, want := located.Error(), "a.wgsl:7: macro F expects 1 argument(s), got 2"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	// A second Locate must not clobber the original attribution.
	Locate(located, "b.wgsl", 1)
	if e := located.(*Error); e.File != "a.wgsl" || e.Line != 7 {
		t.Errorf("location overwritten: %s:%d", e.File, e.Line)
	}
	// Wrapped errors are located through the chain.
	wrapped := fmt.Errorf("context: %w", New(KindSyntax, "oops"))
	Locate(wrapped, "c.wgsl", 2)
	if !IsKind(wrapped, KindSyntax) {
		t.Error("kind lost through wrapping")
	}
}

func TestIsKind(t *testing.T) {
	err := New(KindIncludeNotFound, "missing")
	if !IsKind(err, KindIncludeNotFound) {
		t.Error("expected IncludeNotFound")
	}
	if IsKind(err, KindSyntax) {
		t.Error("unexpected SyntaxError")
	}
	if IsKind(fmt.Errorf("plain"), KindSyntax) {
		t.Error("plain error should have no kind")
	}
}

func TestKindString(t *testing.T) {
	kinds := map[Kind]string{
		KindSyntax:                "SyntaxError",
		KindArgumentCountMismatch: "ArgumentCountMismatch",
		KindIncludeNotFound:       "IncludeNotFound",
		KindIncludeCycle:          "IncludeCycle",
		KindRecursionLimit:        "RecursionLimitExceeded",
		KindValidation:            "ValidationError",
	}
	for k, want := range kinds {
		if diff := cmp.Diff(want, k.String()); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	}
}
