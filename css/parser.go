package css

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS style elements and inline style declarations.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. Only rules with simple selectors
// are kept, at-rules other than @import are skipped.
func (p *Parser) Parse(data []byte) *Stylesheet {
	sheet := &Stylesheet{}

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				p.log.Debug("CSS parse error", zap.Error(err))
			}
			return sheet

		case css.AtRuleGrammar:
			if string(data) == "@import" {
				if url := extractImportURL(parser.Values()); url != "" {
					sheet.Imports = append(sheet.Imports, url)
				}
			}

		case css.BeginAtRuleGrammar:
			p.log.Debug("Skipping @-rule", zap.String("rule", string(data)))
			skipBlock(parser)

		case css.BeginRulesetGrammar:
			selectors := splitSelectors(data, parser.Values())
			decls := p.declarations(parser)
			for _, raw := range selectors {
				sel := p.parseSelector(raw, sheet)
				if !sel.IsSimple() {
					continue
				}
				sheet.Rules = append(sheet.Rules, Rule{Selector: sel, Declarations: decls})
			}
		}
	}
}

// Declaration parses inline style attribute value ("color: red; margin: 0").
func (p *Parser) Declaration(decl string) []Declaration {
	var out []Declaration

	parser := css.NewParser(parse.NewInput(strings.NewReader(decl)), true)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				p.log.Debug("Inline style parse error", zap.String("style", decl), zap.Error(err))
			}
			return out
		case css.DeclarationGrammar:
			if values := parser.Values(); len(values) > 0 {
				out = append(out, Declaration{
					Property: strings.ToLower(string(data)),
					Value:    parseValue(values),
				})
			}
		}
	}
}

func (p *Parser) declarations(parser *css.Parser) []Declaration {
	var decls []Declaration
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return decls
		case css.DeclarationGrammar:
			if values := parser.Values(); len(values) > 0 {
				decls = append(decls, Declaration{
					Property: strings.ToLower(string(data)),
					Value:    parseValue(values),
				})
			}
		}
	}
}

func skipBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

func splitSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}
	var selectors []string
	for s := range strings.SplitSeq(sb.String(), ",") {
		if s = strings.TrimSpace(s); s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

func (p *Parser) parseSelector(raw string, sheet *Stylesheet) Selector {
	if strings.ContainsAny(raw, "+~>[:") {
		sheet.Warnings = append(sheet.Warnings, "unsupported selector: "+raw)
		p.log.Debug("Skipping selector", zap.String("selector", raw))
		return Selector{Raw: raw}
	}
	parts := strings.Fields(raw)
	sel := simpleSelector(parts[len(parts)-1])
	sel.Raw = raw
	if len(parts) > 1 {
		anc := simpleSelector(parts[len(parts)-2])
		if anc.IsSimple() {
			sel.Ancestor = &anc
		}
	}
	return sel
}

func simpleSelector(s string) Selector {
	sel := Selector{Raw: s}
	if before, id, found := strings.Cut(s, "#"); found {
		sel.ID = id
		s = before
	}
	if element, class, found := strings.Cut(s, "."); found {
		sel.Element = strings.ToLower(element)
		sel.Class = class
	} else {
		sel.Element = strings.ToLower(s)
	}
	return sel
}

func extractImportURL(tokens []css.Token) string {
	for _, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			return unquote(string(t.Data))
		case css.URLToken:
			s := strings.TrimSuffix(strings.TrimPrefix(string(t.Data), "url("), ")")
			return unquote(strings.TrimSpace(s))
		}
	}
	return ""
}

func parseValue(tokens []css.Token) Value {
	var raw strings.Builder
	pendingSpace := false
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			pendingSpace = raw.Len() > 0
			continue
		}
		if pendingSpace {
			raw.WriteByte(' ')
			pendingSpace = false
		}
		raw.Write(t.Data)
	}
	val := Value{Raw: raw.String()}

	var significant []css.Token
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			significant = append(significant, t)
		}
	}
	if len(significant) != 1 {
		val.Keyword = val.Raw
		return val
	}
	t := significant[0]
	switch t.TokenType {
	case css.DimensionToken:
		val.Value, val.Unit = parseDimension(string(t.Data))
	case css.PercentageToken:
		val.Value, _ = strconv.ParseFloat(strings.TrimSuffix(string(t.Data), "%"), 64)
		val.Unit = "%"
	case css.NumberToken:
		val.Value, _ = strconv.ParseFloat(string(t.Data), 64)
	case css.IdentToken:
		val.Keyword = strings.ToLower(string(t.Data))
	case css.StringToken:
		val.Keyword = unquote(string(t.Data))
	default:
		val.Keyword = string(t.Data)
	}
	return val
}

func parseDimension(s string) (float64, string) {
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}
	if numEnd == 0 {
		return 0, ""
	}
	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	return num, strings.ToLower(s[numEnd:])
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
