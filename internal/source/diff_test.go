package source

import (
	"strings"
	"testing"
)

var macros = []string{"rsx.Render", "RSX"}

const baseFile = `package views

import "github.com/livefir/hotreload/rsx"

var counter = rsx.Render(` + "`" + `
	div {
		h1 { "Count: {count}" }
	}
` + "`" + `)

func helper() int { return 42 }
`

func TestParseFindsInvocations(t *testing.T) {
	invs, err := Parse([]byte(baseFile), macros)
	if err != nil {
		t.Fatal(err)
	}
	if len(invs) != 1 {
		t.Fatalf("got %d invocations, want 1", len(invs))
	}
	if invs[0].Line != 5 {
		t.Errorf("line = %d, want 5", invs[0].Line)
	}
	if !strings.Contains(invs[0].Body, `"Count: {count}"`) {
		t.Errorf("body = %q", invs[0].Body)
	}
}

func TestParseIgnoresOtherCalls(t *testing.T) {
	src := `package views

func Render(s string) string { return s }

var a = Render("not a template")
var b = other.Render("also not")
`
	invs, err := Parse([]byte(src), macros)
	if err != nil {
		t.Fatal(err)
	}
	if len(invs) != 0 {
		t.Errorf("got %d invocations, want 0", len(invs))
	}
}

func TestParseBareMacro(t *testing.T) {
	src := `package views

var v = RSX(` + "`div { }`" + `)
`
	invs, err := Parse([]byte(src), macros)
	if err != nil {
		t.Fatal(err)
	}
	if len(invs) != 1 {
		t.Fatalf("got %d invocations, want 1", len(invs))
	}
	if invs[0].Body != "div { }" {
		t.Errorf("body = %q", invs[0].Body)
	}
}

func TestDiffUnchanged(t *testing.T) {
	res, err := Diff([]byte(baseFile), []byte(baseFile), macros)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Unchanged {
		t.Errorf("outcome = %v, want Unchanged", res.Outcome)
	}
}

func TestDiffTemplateOnlyEdit(t *testing.T) {
	edited := strings.Replace(baseFile, "Count:", "Total:", 1)
	res, err := Diff([]byte(baseFile), []byte(edited), macros)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != TemplateChanged {
		t.Fatalf("outcome = %v, want TemplateChanged", res.Outcome)
	}
	if len(res.Changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(res.Changes))
	}
	if !strings.Contains(res.Changes[0].New.Body, "Total:") {
		t.Errorf("new body = %q", res.Changes[0].New.Body)
	}
}

func TestDiffCodeEdit(t *testing.T) {
	edited := strings.Replace(baseFile, "return 42", "return 43", 1)
	res, err := Diff([]byte(baseFile), []byte(edited), macros)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != CodeChanged {
		t.Errorf("outcome = %v, want CodeChanged", res.Outcome)
	}
}

// Comment and blank-line motion must not read as a code change.
func TestDiffWhitespaceAndComments(t *testing.T) {
	edited := strings.Replace(baseFile, "func helper()",
		"// helper returns the answer.\n\nfunc helper()", 1)
	res, err := Diff([]byte(baseFile), []byte(edited), macros)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Unchanged {
		t.Errorf("outcome = %v, want Unchanged", res.Outcome)
	}
}

// A comment edit combined with a template edit is still template-only.
func TestDiffTemplateEditWithCommentMotion(t *testing.T) {
	edited := strings.Replace(baseFile, "Count:", "Total:", 1)
	edited = "// moved header comment\n" + edited
	res, err := Diff([]byte(baseFile), []byte(edited), macros)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != TemplateChanged {
		t.Errorf("outcome = %v, want TemplateChanged", res.Outcome)
	}
}

func TestDiffInvocationCountChange(t *testing.T) {
	edited := strings.Replace(baseFile, "func helper() int { return 42 }",
		"var second = rsx.Render(`span { }`)\n\nfunc helper() int { return 42 }", 1)
	res, err := Diff([]byte(baseFile), []byte(edited), macros)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != CodeChanged {
		t.Errorf("outcome = %v, want CodeChanged", res.Outcome)
	}
}

func TestDiffParseFailure(t *testing.T) {
	broken := strings.Replace(baseFile, "func helper()", "func helper(", 1)
	if _, err := Diff([]byte(baseFile), []byte(broken), macros); err == nil {
		t.Error("broken new version diffed without error")
	}
	if _, err := Diff([]byte(broken), []byte(baseFile), macros); err == nil {
		t.Error("broken old version diffed without error")
	}
}
