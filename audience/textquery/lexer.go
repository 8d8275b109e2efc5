package textquery

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// TokenKind classifies a token.
type TokenKind int

const (
	TokIdent TokenKind = iota
	TokString
	TokNumber
	TokAnd
	TokOr
	TokNot
	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokLBrace
	TokRBrace
	TokComma
	TokColon
	TokEq
	TokNeq
	TokGt
	TokGte
	TokLt
	TokLte
	TokEOF
)

var kindNames = [...]string{
	TokIdent:    "Ident",
	TokString:   "String",
	TokNumber:   "Number",
	TokAnd:      "And",
	TokOr:       "Or",
	TokNot:      "Not",
	TokLParen:   "LParen",
	TokRParen:   "RParen",
	TokLBracket: "LBracket",
	TokRBracket: "RBracket",
	TokLBrace:   "LBrace",
	TokRBrace:   "RBrace",
	TokComma:    "Comma",
	TokColon:    "Colon",
	TokEq:       "Eq",
	TokNeq:      "Neq",
	TokGt:       "Gt",
	TokGte:      "Gte",
	TokLt:       "Lt",
	TokLte:      "Lte",
	TokEOF:      "EOF",
}

func (k TokenKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one lexeme. Pos is the rune offset of its first character.
type Token struct {
	Kind  TokenKind
	Value string
	Num   float64
	Pos   int
}

func (t Token) String() string {
	if t.Value == "" {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Value)
}

var punct = map[rune]TokenKind{
	'(': TokLParen,
	')': TokRParen,
	'[': TokLBracket,
	']': TokRBracket,
	'{': TokLBrace,
	'}': TokRBrace,
	',': TokComma,
	':': TokColon,
	'=': TokEq,
}

var keywords = map[string]TokenKind{
	"AND": TokAnd,
	"OR":  TokOr,
	"NOT": TokNot,
}

// Lex splits input into tokens. The last token is always TokEOF.
func Lex(input string) ([]Token, error) {
	s := &scanner{src: []rune(input)}
	var out []Token
	for {
		tok, err := s.scan()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == TokEOF {
			return out, nil
		}
	}
}

type scanner struct {
	src []rune
	off int
}

func (s *scanner) at(i int) rune {
	if i < len(s.src) {
		return s.src[i]
	}
	return 0
}

// two returns kind2 and consumes two runes when the rune after the current
// one is next, else kind1 and one rune.
func (s *scanner) two(next rune, kind2, kind1 TokenKind) Token {
	start := s.off
	if s.at(s.off+1) == next {
		s.off += 2
		return Token{Kind: kind2, Pos: start}
	}
	s.off++
	return Token{Kind: kind1, Pos: start}
}

func (s *scanner) scan() (Token, error) {
	for s.off < len(s.src) && unicode.IsSpace(s.src[s.off]) {
		s.off++
	}
	if s.off >= len(s.src) {
		return Token{Kind: TokEOF, Pos: s.off}, nil
	}

	start, r := s.off, s.src[s.off]
	if k, ok := punct[r]; ok {
		s.off++
		return Token{Kind: k, Pos: start}, nil
	}

	switch {
	case r == '&' || r == '|':
		if s.at(s.off+1) != r {
			return Token{}, fmt.Errorf("unexpected %q at %d, expected %c%c", r, start, r, r)
		}
		s.off += 2
		if r == '&' {
			return Token{Kind: TokAnd, Pos: start}, nil
		}
		return Token{Kind: TokOr, Pos: start}, nil
	case r == '!':
		return s.two('=', TokNeq, TokNot), nil
	case r == '>':
		return s.two('=', TokGte, TokGt), nil
	case r == '<':
		return s.two('=', TokLte, TokLt), nil
	case r == '"':
		return s.quoted()
	case unicode.IsDigit(r) || (r == '-' && unicode.IsDigit(s.at(s.off+1))):
		return s.numberOrWord(), nil
	case isIdentStart(r):
		return s.word(), nil
	}
	return Token{}, fmt.Errorf("unexpected %q at %d", r, start)
}

var escapes = map[rune]rune{'n': '\n', 't': '\t', 'r': '\r'}

func (s *scanner) quoted() (Token, error) {
	start := s.off
	var sb strings.Builder
	for s.off++; s.off < len(s.src); s.off++ {
		r := s.src[s.off]
		switch {
		case r == '"':
			s.off++
			return Token{Kind: TokString, Value: sb.String(), Pos: start}, nil
		case r == '\\' && s.off+1 < len(s.src):
			s.off++
			r = s.src[s.off]
			if e, ok := escapes[r]; ok {
				r = e
			}
		}
		sb.WriteRune(r)
	}
	return Token{}, fmt.Errorf("unterminated string at %d", start)
}

func (s *scanner) run() (int, string) {
	start := s.off
	s.off++
	for s.off < len(s.src) && isIdentChar(s.src[s.off]) {
		s.off++
	}
	return start, string(s.src[start:s.off])
}

// numberOrWord reads a run starting with a digit or minus sign. Runs that do
// not parse as a number, such as the date 2024-01-31, are words.
func (s *scanner) numberOrWord() Token {
	start, text := s.run()
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return Token{Kind: TokNumber, Value: text, Num: f, Pos: start}
	}
	return Token{Kind: TokIdent, Value: text, Pos: start}
}

func (s *scanner) word() Token {
	start, text := s.run()
	if k, ok := keywords[strings.ToUpper(text)]; ok {
		return Token{Kind: k, Pos: start}
	}
	return Token{Kind: TokIdent, Value: text, Pos: start}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || strings.ContainsRune("_@%", r)
}

func isIdentChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_.-@%+", r)
}
