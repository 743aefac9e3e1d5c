package llmjson

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func TestFloat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{in: 72.5, want: 72.5, ok: true},
		{in: 8, want: 8, ok: true},
		{in: json.Number("61"), want: 61, ok: true},
		{in: " 85% ", want: 85, ok: true},
		{in: "70/100", want: 70, ok: true},
		{in: "high", ok: false},
		{in: "", ok: false},
		{in: math.NaN(), ok: false},
		{in: nil, ok: false},
		{in: []any{1}, ok: false},
	}

	for _, tc := range cases {
		got, ok := Float(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("Float(%#v) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestInt(t *testing.T) {
	t.Parallel()

	if got, ok := Int("84.6"); !ok || got != 85 {
		t.Fatalf("expected 85, got %d (%v)", got, ok)
	}
}

func TestStrings(t *testing.T) {
	t.Parallel()

	got, ok := Strings([]any{" clear structure ", "", 3})
	if !ok || !reflect.DeepEqual(got, []string{"clear structure", "3"}) {
		t.Fatalf("unexpected list: %v", got)
	}

	got, ok = Strings("- add metrics\n- name a project; tie to outcomes")
	if !ok || !reflect.DeepEqual(got, []string{"add metrics", "name a project", "tie to outcomes"}) {
		t.Fatalf("unexpected split: %v", got)
	}

	if _, ok := Strings(42.0); ok {
		t.Fatalf("expected number to be rejected")
	}
}

func TestStringAndLookup(t *testing.T) {
	t.Parallel()

	if got := String(map[string]any{"a": 1}); got != `{"a":1}` {
		t.Fatalf("unexpected rendering: %s", got)
	}

	data := map[string]any{"weaknesses": []any{"x"}}
	if v, ok := Lookup(data, "improvements", "weaknesses"); !ok || v == nil {
		t.Fatalf("expected alias lookup to succeed")
	}
}
