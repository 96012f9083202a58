package extract

import (
	"errors"
	"testing"

	"github.com/asocolnef/epiaki-backend/internal/survey"
)

func TestFindPayload(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{
			name:  "no_block",
			text:  "Gracias por su respuesta. ¿Cuál es el tipo de su centro principal?",
			found: false,
		},
		{
			name:  "only_open_brace",
			text:  "algo { sin cierre",
			found: false,
		},
		{
			name:  "close_before_open",
			text:  "} texto {",
			found: false,
		},
		{
			name:  "bare_block",
			text:  `{"a":"b"}`,
			want:  `{"a":"b"}`,
			found: true,
		},
		{
			name:  "block_with_surrounding_prose",
			text:  "Aquí está el resumen:\n{\"a\":\"b\"}\n¡Gracias!",
			want:  "{\"a\":\"b\"}",
			found: true,
		},
		{
			name:  "greedy_across_nested_braces",
			text:  `pre {"a":{"b":1}} post`,
			want:  `{"a":{"b":1}}`,
			found: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, found := FindPayload(tc.text)
			if found != tc.found {
				t.Fatalf("FindPayload(%q) found=%v, want %v", tc.text, found, tc.found)
			}
			if found && got != tc.want {
				t.Fatalf("FindPayload(%q)=%q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestParseStrictTier(t *testing.T) {
	payload, err := Parse(`{"employment_mode": "Multiple", "resource_gap_flag": true}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if payload["employment_mode"] != "Multiple" {
		t.Fatalf("employment_mode=%v", payload["employment_mode"])
	}
	if payload["resource_gap_flag"] != true {
		t.Fatalf("resource_gap_flag=%v", payload["resource_gap_flag"])
	}
}

func TestParseNormalizesControlBytes(t *testing.T) {
	// Raw newline and tab bytes inside a quoted value, as the model
	// actually emits them.
	block := "{\"dose_description\": \"30\nml/kg/h\ten TRRC\"}"
	payload, err := Parse(block)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := payload["dose_description"]; got != "30 ml/kg/h en TRRC" {
		t.Fatalf("dose_description=%q, want space-normalized value", got)
	}
}

func TestParseRelaxedLiteralTier(t *testing.T) {
	cases := []struct {
		name  string
		block string
		check func(t *testing.T, payload map[string]any)
	}{
		{
			name:  "python_booleans",
			block: `{"resource_gap_flag": True, "other": False}`,
			check: func(t *testing.T, payload map[string]any) {
				if payload["resource_gap_flag"] != true || payload["other"] != false {
					t.Fatalf("payload=%v", payload)
				}
			},
		},
		{
			name:  "python_none_becomes_absent",
			block: `{"dose_description": None}`,
			check: func(t *testing.T, payload map[string]any) {
				if payload["dose_description"] != nil {
					t.Fatalf("dose_description=%v, want nil", payload["dose_description"])
				}
			},
		},
		{
			name:  "literal_tokens_inside_strings_untouched",
			block: `{"dose_description": "True dose unknown", "resource_gap_flag": True}`,
			check: func(t *testing.T, payload map[string]any) {
				if payload["dose_description"] != "True dose unknown" {
					t.Fatalf("dose_description=%v", payload["dose_description"])
				}
				if payload["resource_gap_flag"] != true {
					t.Fatalf("resource_gap_flag=%v", payload["resource_gap_flag"])
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := Parse(tc.block)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			tc.check(t, payload)
		})
	}
}

func TestParseFailureCarriesRawBlock(t *testing.T) {
	block := `{this is not json at all`
	_, err := Parse(block + "}")
	if err == nil {
		t.Fatal("Parse should have failed")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error is %T, want *ParseError", err)
	}
	if perr.Raw != block+"}" {
		t.Fatalf("Raw=%q, want original block", perr.Raw)
	}
	if perr.StrictErr == nil || perr.RelaxedErr == nil {
		t.Fatal("ParseError should carry both tier errors")
	}
}

func TestRecordPartialPayload(t *testing.T) {
	sch, err := survey.Load("v2")
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}

	text := `Gracias, aquí está el resumen: {"employment_mode":"Multiple","primary_center_type":"Universitario"}`
	block, found := FindPayload(text)
	if !found {
		t.Fatal("payload not found")
	}
	payload, err := Parse(block)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	rec := Record(payload, sch)
	if rec.Get("employment_mode") != "Multiple" {
		t.Fatalf("employment_mode=%q", rec.Get("employment_mode"))
	}
	// Enumerations are opaque strings: a foreign-language value passes
	// through verbatim.
	if rec.Get("primary_center_type") != "Universitario" {
		t.Fatalf("primary_center_type=%q", rec.Get("primary_center_type"))
	}

	row := sch.Row(rec)
	if len(row) != 8 {
		t.Fatalf("row width=%d, want 8", len(row))
	}
	empty := 0
	for _, cell := range row {
		if cell == "" {
			empty++
		}
	}
	if empty != 6 {
		t.Fatalf("empty cells=%d, want 6", empty)
	}
}

func TestRecordBoolCoercion(t *testing.T) {
	sch, err := survey.Load("v2")
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}

	cases := []struct {
		name string
		raw  any
		want string
	}{
		{name: "bool_true", raw: true, want: "true"},
		{name: "bool_false", raw: false, want: "false"},
		{name: "string_si", raw: "Si", want: "true"},
		{name: "string_no", raw: "no", want: "false"},
		{name: "number_one", raw: float64(1), want: "true"},
		{name: "unrecognized_string", raw: "tal vez", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := Record(map[string]any{"resource_gap_flag": tc.raw}, sch)
			if got := rec.Get("resource_gap_flag"); got != tc.want {
				t.Fatalf("resource_gap_flag=%q, want %q", got, tc.want)
			}
		})
	}
}

func TestRecordMissingFieldsDegradeEmpty(t *testing.T) {
	sch, err := survey.Load("v1")
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	rec := Record(map[string]any{}, sch)
	row := sch.Row(rec)
	if len(row) != 7 {
		t.Fatalf("row width=%d, want 7", len(row))
	}
	for i, cell := range row {
		if cell != "" {
			t.Fatalf("cell %d=%q, want empty", i, cell)
		}
	}
}
