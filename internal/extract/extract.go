// Package extract turns the free text of a model turn into a canonical
// survey record. The upstream model is not a trusted structured-data
// producer: it wraps the terminating JSON block in prose, embeds raw line
// breaks inside quoted values, and sometimes slips into Python literal
// dialect. The extractor is deliberately permissive about all of that and
// strict about nothing else.
package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/asocolnef/epiaki-backend/internal/domain"
	"github.com/asocolnef/epiaki-backend/internal/survey"
)

// FindPayload scans a turn for a brace-delimited block, greedy from the
// first '{' to the last '}' across the whole text. No block means the turn
// is an ordinary conversational turn.
func FindPayload(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(text, '}')
	if end < start {
		return "", false
	}
	return text[start : end+1], true
}

// ParseError reports a block that survived neither parse tier. Raw carries
// the captured substring verbatim so an operator can diagnose it.
type ParseError struct {
	Raw        string
	StrictErr  error
	RelaxedErr error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("payload failed both parse tiers (strict: %v; relaxed: %v)", e.StrictErr, e.RelaxedErr)
}

// Parse runs the two-tier parse over a captured block.
//
// Tier one normalizes raw control bytes to spaces and attempts a plain
// JSON parse. Tier two additionally maps Python literal tokens outside
// quoted strings (True/False/None) to their JSON equivalents and reparses.
// Tier order matters: the relaxed tier is a superset and must only run
// after the stricter one fails.
func Parse(block string) (map[string]any, error) {
	normalized := normalizeControlBytes(block)

	var payload map[string]any
	strictErr := json.Unmarshal([]byte(normalized), &payload)
	if strictErr == nil {
		return payload, nil
	}

	payload = nil
	relaxedErr := json.Unmarshal([]byte(relaxLiterals(normalized)), &payload)
	if relaxedErr == nil {
		return payload, nil
	}

	return nil, &ParseError{Raw: block, StrictErr: strictErr, RelaxedErr: relaxedErr}
}

// Record coerces a parsed payload into a canonical record under the given
// schema, reading each field by name. A missing key is not an error; it
// degrades to an empty value for that field.
func Record(payload map[string]any, sch *survey.Schema) *domain.SurveyRecord {
	values := make(map[string]string, sch.Width())
	for _, f := range sch.Fields {
		raw, ok := payload[f.Key]
		if !ok || raw == nil {
			continue
		}
		switch f.Kind {
		case survey.FieldBool:
			if v, ok := coerceBool(raw); ok {
				values[f.Key] = strconv.FormatBool(v)
			}
		default:
			if s := strings.TrimSpace(coerceString(raw)); s != "" {
				values[f.Key] = s
			}
		}
	}
	return &domain.SurveyRecord{SchemaVersion: sch.Version, Values: values}
}

// normalizeControlBytes replaces newline, carriage-return, and tab bytes
// with single spaces. The model emits these raw inside quoted values, which
// a JSON grammar rejects outright.
func normalizeControlBytes(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t':
			return ' '
		}
		return r
	}, s)
}

// relaxLiterals rewrites bare True/False/None tokens to true/false/null,
// leaving quoted string content untouched.
func relaxLiterals(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c == '"' {
			j := i + 1
			for j < len(s) {
				if s[j] == '\\' {
					j += 2
					continue
				}
				if s[j] == '"' {
					j++
					break
				}
				j++
			}
			if j > len(s) {
				j = len(s)
			}
			b.WriteString(s[i:j])
			i = j
			continue
		}
		if isIdentByte(c) {
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			switch s[i:j] {
			case "True":
				b.WriteString("true")
			case "False":
				b.WriteString("false")
			case "None":
				b.WriteString("null")
			default:
				b.WriteString(s[i:j])
			}
			i = j
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func coerceBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		return t != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "si", "sí", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	}
	return false, false
}
