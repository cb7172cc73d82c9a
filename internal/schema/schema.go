// Package schema validates catalog records against the embedded unit JSON
// Schema.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/JonMunkholm/unitcat/internal/catalog"
	"github.com/JonMunkholm/unitcat/internal/diag"
)

//go:embed unit.schema.json
var unitSchema []byte

// Validator checks records against a compiled schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// New compiles the embedded unit schema.
func New() (*Validator, error) {
	return Compile(unitSchema)
}

// Compile compiles a schema document.
func Compile(doc []byte) (*Validator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile unit schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

// Document returns the embedded schema text.
func Document() []byte {
	return append([]byte(nil), unitSchema...)
}

// Validate checks one record. The returned problems are "field: description"
// strings; none means the record is valid.
func (v *Validator) Validate(rec catalog.Record) ([]string, error) {
	doc, err := rec.MarshalJSON()
	if err != nil {
		return nil, err
	}
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate %s (%s): %w", rec.Unit, rec.Property, err)
	}
	if result.Valid() {
		return nil, nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return problems, nil
}

// ValidateAll checks every record and records a fatal diagnostic per invalid
// record in c. It returns the number of invalid records.
func (v *Validator) ValidateAll(records []catalog.Record, c *diag.Collector) (int, error) {
	invalid := 0
	for _, rec := range records {
		problems, err := v.Validate(rec)
		if err != nil {
			return invalid, err
		}
		if len(problems) == 0 {
			continue
		}
		invalid++
		c.Add(diag.Diagnostic{
			Code:       diag.CodeSchemaViolation,
			Property:   rec.Property,
			Identifier: rec.Unit,
			Message:    strings.Join(problems, "; "),
		})
	}
	return invalid, nil
}
