package survey

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/asocolnef/epiaki-backend/internal/domain"
)

//go:embed schema.yaml
var schemaYAML []byte

// DefaultVersion is the canonical schema for new deployments. The original
// collector persisted both seven- and eight-column rows into the same sheet
// with no marker; keeping the version explicit here is how we avoid that.
const DefaultVersion = "v2"

type FieldKind string

const (
	FieldEnum FieldKind = "enum"
	FieldText FieldKind = "text"
	FieldBool FieldKind = "bool"
)

// Field is one column of the persisted row and one question of the
// interview. Enumerated values are opaque strings as far as this system is
// concerned; they constrain the model via the brief, not the extractor.
type Field struct {
	Key      string    `yaml:"key"`
	Column   string    `yaml:"column"`
	Kind     FieldKind `yaml:"kind"`
	Values   []string  `yaml:"values,omitempty"`
	Optional bool      `yaml:"optional,omitempty"`
	Question string    `yaml:"question,omitempty"`
}

// Schema is one versioned questionnaire: ordered fields, fixed row width.
type Schema struct {
	Version string  `yaml:"version"`
	Fields  []Field `yaml:"fields"`
}

type schemaFile struct {
	Versions []Schema `yaml:"versions"`
}

var (
	loadOnce sync.Once
	loaded   map[string]*Schema
	loadErr  error
)

func load() (map[string]*Schema, error) {
	loadOnce.Do(func() {
		var file schemaFile
		if err := yaml.Unmarshal(schemaYAML, &file); err != nil {
			loadErr = fmt.Errorf("parse embedded survey schema: %w", err)
			return
		}
		byVersion := make(map[string]*Schema, len(file.Versions))
		for i := range file.Versions {
			s := &file.Versions[i]
			if s.Version == "" || len(s.Fields) == 0 {
				loadErr = fmt.Errorf("embedded survey schema has an empty version entry")
				return
			}
			byVersion[s.Version] = s
		}
		loaded = byVersion
	})
	return loaded, loadErr
}

// Load returns the schema for a version, or an error naming the known
// versions when the requested one does not exist.
func Load(version string) (*Schema, error) {
	byVersion, err := load()
	if err != nil {
		return nil, err
	}
	s, ok := byVersion[version]
	if !ok {
		known := make([]string, 0, len(byVersion))
		for v := range byVersion {
			known = append(known, v)
		}
		return nil, fmt.Errorf("unknown survey schema version %q (known: %s)", version, strings.Join(known, ", "))
	}
	return s, nil
}

func (s *Schema) Width() int { return len(s.Fields) }

func (s *Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Column
	}
	return cols
}

func (s *Schema) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Row projects a record into persisted column order. A field missing from
// the record renders as an empty cell; the row is always full width so
// optional fields never shift column positions.
func (s *Schema) Row(rec *domain.SurveyRecord) []string {
	row := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		row[i] = rec.Get(f.Key)
	}
	return row
}
