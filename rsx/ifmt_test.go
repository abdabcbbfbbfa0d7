package rsx

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseIfmt(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Segment
	}{
		{
			name: "plain literal",
			src:  "hello world",
			want: []Segment{{Literal: "hello world"}},
		},
		{
			name: "single interpolation",
			src:  "hello {name}",
			want: []Segment{{Literal: "hello "}, {Expr: "name", Dynamic: true}},
		},
		{
			name: "interpolation only",
			src:  "{count}",
			want: []Segment{{Expr: "count", Dynamic: true}},
		},
		{
			name: "adjacent interpolations",
			src:  "{a}{b}",
			want: []Segment{{Expr: "a", Dynamic: true}, {Expr: "b", Dynamic: true}},
		},
		{
			name: "escaped braces",
			src:  "a {{literal}} b",
			want: []Segment{{Literal: "a {literal} b"}},
		},
		{
			name: "expression is trimmed",
			src:  "{ user.Name }",
			want: []Segment{{Expr: "user.Name", Dynamic: true}},
		},
		{
			name: "repeated segment",
			src:  "{x} and {x}",
			want: []Segment{
				{Expr: "x", Dynamic: true},
				{Literal: " and "},
				{Expr: "x", Dynamic: true},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIfmt(tt.src)
			if err != nil {
				t.Fatalf("ParseIfmt(%q) error: %v", tt.src, err)
			}
			if got.Source != tt.src {
				t.Errorf("Source = %q, want %q", got.Source, tt.src)
			}
			if diff := cmp.Diff(tt.want, got.Segments); diff != "" {
				t.Errorf("segments mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseIfmtErrors(t *testing.T) {
	for _, src := range []string{
		"unterminated {interp",
		"empty {} interp",
		"unmatched } brace",
	} {
		if _, err := ParseIfmt(src); err == nil {
			t.Errorf("ParseIfmt(%q) succeeded, want error", src)
		}
	}
}

func TestIfmtStatic(t *testing.T) {
	static, err := ParseIfmt("a {{b}} c")
	if err != nil {
		t.Fatal(err)
	}
	if !static.IsStatic() {
		t.Errorf("escaped-brace string reported dynamic")
	}
	if got := static.Static(); got != "a {b} c" {
		t.Errorf("Static() = %q, want %q", got, "a {b} c")
	}

	dynamic, err := ParseIfmt("a {b} c")
	if err != nil {
		t.Fatal(err)
	}
	if dynamic.IsStatic() {
		t.Errorf("interpolated string reported static")
	}
	if got := dynamic.DynamicSegments(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("DynamicSegments() = %v, want [b]", got)
	}
}

func mustIfmt(t *testing.T, src string) Ifmt {
	t.Helper()
	f, err := ParseIfmt(src)
	if err != nil {
		t.Fatalf("ParseIfmt(%q): %v", src, err)
	}
	return f
}

func TestScoreIfmt(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
		want int
	}{
		{"identical", "hello {name}", "hello {name}", ScoreMax},
		{"literal text changed", "hi {name}", "hello {name}", scoreNearMax},
		{"segment dropped", "{a} {b}", "{a} kept", 2},
		{"all segments dropped", "{a} {b}", "plain", 1},
		{"new segment", "hello {name}", "hello {name} {age}", 0},
		{"new segment from nothing", "hello", "hello {name}", 0},
		{"repeated old covers repeated new", "{x} {x}", "{x}{x}!", scoreNearMax},
		{"repeated new exceeds old", "{x} once", "{x} {x}", 0},
		{"reordered segments", "{a} {b} end", "{b} {a} end!", scoreNearMax},
		{"static both, text changed", "old text", "new text", scoreNearMax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreIfmt(mustIfmt(t, tt.old), mustIfmt(t, tt.new))
			if got != tt.want {
				t.Errorf("ScoreIfmt(%q, %q) = %d, want %d", tt.old, tt.new, got, tt.want)
			}
		})
	}
}
