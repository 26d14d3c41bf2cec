package diag

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/lunac-lang/lunac/internal/source"
)

func TestEncodeMatchesExpectedWireShape(t *testing.T) {
	span := source.Span{Start: source.Pos{Line: 3, Column: 5}, End: source.Pos{Line: 3, Column: 9}}
	d := New(KindUnusedSymbol, span, "symbol 'x' is never used").WithData("name", "x")

	got := Encode(d)
	want := Encoded{
		Schema:   Schema,
		Severity: string(SeverityWarning),
		Code:     "SYM003",
		Kind:     string(KindUnusedSymbol),
		Message:  "symbol 'x' is never used",
		Span:     span.String(),
		Data:     map[string]any{"name": "x"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Encode mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeAllPreservesOrderAndOmitsEmptyData(t *testing.T) {
	spanA := source.Span{Start: source.Pos{Line: 1, Column: 1}, End: source.Pos{Line: 1, Column: 2}}
	spanB := source.Span{Start: source.Pos{Line: 2, Column: 1}, End: source.Pos{Line: 2, Column: 2}}
	diags := []*Diagnostic{
		New(KindModuleNotFound, spanA, "module './missing' not found"),
		New(KindUnusedSymbol, spanB, "symbol 'y' is never used"),
	}

	raw, err := EncodeAll(diags)
	require.NoError(t, err)

	var got []Encoded
	require.NoError(t, json.Unmarshal(raw, &got))

	want := []Encoded{
		Encode(diags[0]),
		Encode(diags[1]),
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("EncodeAll round-trip mismatch (-want +got):\n%s", diff)
	}
	require.Nil(t, got[0].Data, "diagnostics with no attached data must omit the field rather than encode an empty map")
}

func TestEncodeAllIsDeterministicAcrossRuns(t *testing.T) {
	span := source.Span{Start: source.Pos{Line: 1, Column: 1}, End: source.Pos{Line: 1, Column: 2}}
	d := New(KindUnusedSymbol, span, "symbol 'z' is never used").WithData("b", 2).WithData("a", 1)

	first, err := EncodeAll([]*Diagnostic{d})
	require.NoError(t, err)
	second, err := EncodeAll([]*Diagnostic{d})
	require.NoError(t, err)

	if diff := cmp.Diff(string(first), string(second)); diff != "" {
		t.Fatalf("two encodings of the same diagnostic diverged (-first +second):\n%s", diff)
	}
}
