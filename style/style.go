// Package style parses and packs OGR feature style strings.
//
// A style string is a ';'-separated list of tools, each a name followed by a
// parenthesised, ','-separated list of key:value parameters:
//
//	PEN(c:#FF0000,w:2px);BRUSH(fc:#00FF0080);LABEL(f:"Arial",t:"a, b")
//
// A bare reference to a named style ("@roads") is kept as a tool with no
// parameters. Only the syntax is handled here; the meaning of individual
// parameters is left to renderers.
package style

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is returned for malformed style strings.
var ErrSyntax = errors.New("style: syntax error")

// Param is a single key:value pair of a tool.
type Param struct {
	Key   string
	Value string
	// Quoted records whether the value was written in double quotes.
	Quoted bool
}

// Tool is one drawing tool (PEN, BRUSH, SYMBOL, LABEL, or a style reference).
type Tool struct {
	Name   string
	Params []Param
}

// Param returns the value of the named parameter.
func (t Tool) Param(key string) (string, bool) {
	for _, p := range t.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Style is a parsed style string.
type Style struct {
	Tools []Tool
}

// Tool returns the first tool with the given name (case-insensitive).
func (s *Style) Tool(name string) (Tool, bool) {
	if s == nil {
		return Tool{}, false
	}
	for _, t := range s.Tools {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Tool{}, false
}

// Parse parses an OGR style string.
func Parse(s string) (*Style, error) {
	p := parser{src: s}
	st := &Style{}
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		t, err := p.tool()
		if err != nil {
			return nil, err
		}
		st.Tools = append(st.Tools, t)
		p.skipSpace()
		if p.eof() {
			break
		}
		if p.peek() != ';' {
			return nil, p.errorf("expected ';'")
		}
		p.pos++
	}
	return st, nil
}

// String packs the style back into its textual form.
func (s *Style) String() string {
	if s == nil {
		return ""
	}
	var sb strings.Builder
	for i, t := range s.Tools {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(t.Name)
		if strings.HasPrefix(t.Name, "@") && len(t.Params) == 0 {
			continue
		}
		sb.WriteByte('(')
		for j, p := range t.Params {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(p.Key)
			sb.WriteByte(':')
			if p.Quoted || strings.ContainsAny(p.Value, ",;()\"") {
				sb.WriteByte('"')
				sb.WriteString(quoteEscaper.Replace(p.Value))
				sb.WriteByte('"')
			} else {
				sb.WriteString(p.Value)
			}
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool  { return p.pos >= len(p.src) }
func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) skipSpace() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t') {
		p.pos++
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) tool() (Tool, error) {
	start := p.pos
	for !p.eof() && p.peek() != '(' && p.peek() != ';' {
		p.pos++
	}
	name := strings.TrimSpace(p.src[start:p.pos])
	if name == "" {
		return Tool{}, p.errorf("missing tool name")
	}
	t := Tool{Name: name}
	if p.eof() || p.peek() == ';' {
		if !strings.HasPrefix(name, "@") {
			return Tool{}, p.errorf("tool %s has no parameter list", name)
		}
		return t, nil
	}
	p.pos++ // '('
	for {
		p.skipSpace()
		if p.eof() {
			return Tool{}, p.errorf("unterminated tool %s", name)
		}
		if p.peek() == ')' {
			p.pos++
			return t, nil
		}
		param, err := p.param()
		if err != nil {
			return Tool{}, err
		}
		t.Params = append(t.Params, param)
		p.skipSpace()
		if p.eof() {
			return Tool{}, p.errorf("unterminated tool %s", name)
		}
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
		default:
			return Tool{}, p.errorf("expected ',' or ')'")
		}
	}
}

func (p *parser) param() (Param, error) {
	start := p.pos
	for !p.eof() && p.peek() != ':' && p.peek() != ',' && p.peek() != ')' {
		p.pos++
	}
	if p.eof() || p.peek() != ':' {
		return Param{}, p.errorf("expected ':' after parameter key")
	}
	key := strings.TrimSpace(p.src[start:p.pos])
	p.pos++ // ':'
	p.skipSpace()

	if !p.eof() && p.peek() == '"' {
		p.pos++
		var sb strings.Builder
		for {
			if p.eof() {
				return Param{}, p.errorf("unterminated string")
			}
			c := p.peek()
			// \" and \\ are escapes; any other backslash is literal.
			if c == '\\' && p.pos+1 < len(p.src) && (p.src[p.pos+1] == '"' || p.src[p.pos+1] == '\\') {
				sb.WriteByte(p.src[p.pos+1])
				p.pos += 2
				continue
			}
			p.pos++
			if c == '"' {
				break
			}
			sb.WriteByte(c)
		}
		return Param{Key: key, Value: sb.String(), Quoted: true}, nil
	}

	start = p.pos
	for !p.eof() && p.peek() != ',' && p.peek() != ')' {
		p.pos++
	}
	return Param{Key: key, Value: strings.TrimSpace(p.src[start:p.pos])}, nil
}
