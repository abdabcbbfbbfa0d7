// Package source compares two versions of a watched Go source file and
// isolates which template invocations changed, classifying every other
// difference as a code-level edit that requires a full rebuild.
package source

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strconv"
)

// Invocation is one template call site: a call to a configured macro
// function whose sole argument is a raw string literal holding the
// template body.
type Invocation struct {
	Line   int    // call position, 1-based
	Column int    // call position, 1-based
	Body   string // template DSL source (unquoted)

	argOffset int // byte offset of the string literal, for masking
}

// Changed pairs an old invocation with its edited counterpart at the same
// structural position.
type Changed struct {
	Old Invocation
	New Invocation
}

// Outcome classifies a file diff.
type Outcome int

const (
	// Unchanged means the two versions are token-identical.
	Unchanged Outcome = iota
	// TemplateChanged means every difference sits inside template
	// invocation bodies; Changes lists the differing invocations.
	TemplateChanged
	// CodeChanged means some difference exists outside template bodies
	// and the caller must trigger a full rebuild.
	CodeChanged
)

// Result is the output of one diff pass.
type Result struct {
	Outcome Outcome
	Changes []Changed
}

// Diff compares two versions of the same file. macros lists the accepted
// callee spellings, e.g. "rsx.Render" or "RSX". A parse failure in either
// version is returned as an error, never as an outcome: the caller must be
// able to tell "broken source" apart from "no changes".
//
// Invocations are paired by their position in the tree walk, not by source
// offset, so moving code around with added blank lines or comments does not
// defeat matching. Token comparison likewise ignores whitespace and
// comments.
func Diff(oldSrc, newSrc []byte, macros []string) (*Result, error) {
	oldInv, err := Parse(oldSrc, macros)
	if err != nil {
		return nil, fmt.Errorf("old version: %w", err)
	}
	newInv, err := Parse(newSrc, macros)
	if err != nil {
		return nil, fmt.Errorf("new version: %w", err)
	}
	return DiffParsed(oldSrc, newSrc, oldInv, newInv), nil
}

// DiffParsed compares two already-parsed versions of the same file.
func DiffParsed(oldSrc, newSrc []byte, oldInv, newInv []Invocation) *Result {
	if len(oldInv) != len(newInv) {
		return &Result{Outcome: CodeChanged}
	}
	if !equalOutsideTemplates(oldSrc, newSrc, oldInv, newInv) {
		return &Result{Outcome: CodeChanged}
	}

	res := &Result{Outcome: Unchanged}
	for i := range oldInv {
		if oldInv[i].Body != newInv[i].Body {
			res.Changes = append(res.Changes, Changed{Old: oldInv[i], New: newInv[i]})
		}
	}
	if len(res.Changes) > 0 {
		res.Outcome = TemplateChanged
	}
	return res
}

// Parse parses src as a Go source file and collects template invocations
// in tree walk order.
func Parse(src []byte, macros []string) ([]Invocation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "src.go", src, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	accepted := make(map[string]bool, len(macros))
	for _, m := range macros {
		accepted[m] = true
	}

	var out []Invocation
	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		if !accepted[calleeName(call.Fun)] || len(call.Args) != 1 {
			return true
		}
		lit, ok := call.Args[0].(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			return true
		}
		body, err := strconv.Unquote(lit.Value)
		if err != nil {
			return true
		}
		pos := fset.Position(call.Pos())
		out = append(out, Invocation{
			Line:      pos.Line,
			Column:    pos.Column,
			Body:      body,
			argOffset: fset.Position(lit.Pos()).Offset,
		})
		return true
	})
	return out, nil
}

func calleeName(fun ast.Expr) string {
	switch f := fun.(type) {
	case *ast.Ident:
		return f.Name
	case *ast.SelectorExpr:
		if pkg, ok := f.X.(*ast.Ident); ok {
			return pkg.Name + "." + f.Sel.Name
		}
	}
	return ""
}

// equalOutsideTemplates compares the two files token by token, with the
// string arguments of template invocations replaced by a placeholder.
// Positions are dropped, so blank-line and comment motion compares equal.
func equalOutsideTemplates(oldSrc, newSrc []byte, oldInv, newInv []Invocation) bool {
	oldToks := scanMasked(oldSrc, argOffsets(oldInv))
	newToks := scanMasked(newSrc, argOffsets(newInv))
	if len(oldToks) != len(newToks) {
		return false
	}
	for i := range oldToks {
		if oldToks[i] != newToks[i] {
			return false
		}
	}
	return true
}

func argOffsets(invs []Invocation) map[int]bool {
	out := make(map[int]bool, len(invs))
	for _, inv := range invs {
		out[inv.argOffset] = true
	}
	return out
}

type maskedToken struct {
	tok token.Token
	lit string
}

const maskedBody = "\x00template-body"

func scanMasked(src []byte, masked map[int]bool) []maskedToken {
	fset := token.NewFileSet()
	file := fset.AddFile("src.go", fset.Base(), len(src))
	var s scanner.Scanner
	s.Init(file, src, nil, 0) // mode 0: skip comments

	var out []maskedToken
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			return out
		}
		if tok == token.STRING && masked[fset.Position(pos).Offset] {
			lit = maskedBody
		}
		// Automatic semicolons carry a "\n" literal; normalize so a
		// trailing newline difference does not read as a code change.
		if tok == token.SEMICOLON {
			lit = ";"
		}
		out = append(out, maskedToken{tok: tok, lit: lit})
	}
}
