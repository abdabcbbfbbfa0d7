package rsx

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind identifies a lexical token class in the template DSL.
type TokenKind string

const (
	TokEOF    TokenKind = "EOF"
	TokIdent  TokenKind = "IDENT"
	TokKW     TokenKind = "KW"
	TokString TokenKind = "STRING"
	TokInt    TokenKind = "INT"
	TokFloat  TokenKind = "FLOAT"
	TokLBrace TokenKind = "LBRACE"
	TokRBrace TokenKind = "RBRACE"
	TokColon  TokenKind = "COLON"
	TokComma  TokenKind = "COMMA"
	TokOp     TokenKind = "OP"
)

// Token is one lexical token with its source span.
type Token struct {
	Kind TokenKind
	Val  string // identifier text, keyword, operator, or raw string content
	Pos  int    // byte offset of the first rune
	End  int    // byte offset just past the last rune
}

var keywords = map[string]bool{
	"for":   true,
	"in":    true,
	"if":    true,
	"else":  true,
	"true":  true,
	"false": true,
}

// Lexer tokenizes a template body. It is newline-insensitive: whitespace
// only separates tokens.
type Lexer struct {
	src  string
	pos  int
	toks []Token
}

// NewLexer returns a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Tokenize scans the whole input and returns the token stream, terminated
// by a single EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.toks = append(l.toks, tok)
		if tok.Kind == TokEOF {
			return l.toks, nil
		}
	}
}

func (l *Lexer) next() (Token, error) {
	l.skipSpaceAndComments()
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: TokEOF, Pos: start, End: start}, nil
	}

	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	switch {
	case r == '{':
		l.pos += size
		return Token{Kind: TokLBrace, Val: "{", Pos: start, End: l.pos}, nil
	case r == '}':
		l.pos += size
		return Token{Kind: TokRBrace, Val: "}", Pos: start, End: l.pos}, nil
	case r == ':':
		l.pos += size
		return Token{Kind: TokColon, Val: ":", Pos: start, End: l.pos}, nil
	case r == ',':
		l.pos += size
		return Token{Kind: TokComma, Val: ",", Pos: start, End: l.pos}, nil
	case r == '"':
		return l.scanString()
	case unicode.IsDigit(r):
		return l.scanNumber()
	case unicode.IsLetter(r) || r == '_':
		return l.scanIdent()
	default:
		// Anything else is an operator rune: used inside captured
		// expression spans (patterns, iterables, conditions).
		l.pos += size
		return Token{Kind: TokOp, Val: string(r), Pos: start, End: l.pos}, nil
	}
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if unicode.IsSpace(r) {
			l.pos += size
			continue
		}
		// Line comments run to end of line.
		if strings.HasPrefix(l.src[l.pos:], "//") {
			if idx := strings.IndexByte(l.src[l.pos:], '\n'); idx >= 0 {
				l.pos += idx + 1
				continue
			}
			l.pos = len(l.src)
			continue
		}
		return
	}
}

func (l *Lexer) scanIdent() (Token, error) {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.pos += size
	}
	val := l.src[start:l.pos]
	kind := TokIdent
	if keywords[val] {
		kind = TokKW
	}
	return Token{Kind: kind, Val: val, Pos: start, End: l.pos}, nil
}

func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos
	kind := TokInt
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if r == '.' && kind == TokInt {
			kind = TokFloat
			l.pos += size
			continue
		}
		if !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.pos += size
	}
	val := strings.ReplaceAll(l.src[start:l.pos], "_", "")
	return Token{Kind: kind, Val: val, Pos: start, End: l.pos}, nil
}

// scanString reads a double-quoted literal. Escape sequences are kept
// verbatim except \" and \\ which are resolved; interpolation braces are
// left intact for the ifmt parser.
func (l *Lexer) scanString() (Token, error) {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, fmt.Errorf("unterminated string literal at offset %d", start)
		}
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if r == '"' {
			l.pos += size
			return Token{Kind: TokString, Val: sb.String(), Pos: start, End: l.pos}, nil
		}
		if r == '\\' && l.pos+size < len(l.src) {
			nxt, nsize := utf8.DecodeRuneInString(l.src[l.pos+size:])
			if nxt == '"' || nxt == '\\' {
				sb.WriteRune(nxt)
				l.pos += size + nsize
				continue
			}
		}
		if r == '\n' {
			return Token{}, fmt.Errorf("newline in string literal at offset %d", start)
		}
		sb.WriteRune(r)
		l.pos += size
	}
}
