package domain

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed draft.schema.json
var draftSchemaJSON []byte

var (
	draftSchemaOnce sync.Once
	draftSchema     *gojsonschema.Schema
	draftSchemaErr  error
)

func compiledDraftSchema() (*gojsonschema.Schema, error) {
	draftSchemaOnce.Do(func() {
		draftSchema, draftSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(draftSchemaJSON))
	})
	return draftSchema, draftSchemaErr
}

// ValidatePartialJSON checks a raw save request against the draft schema.
// Validation failures wrap ErrInvalidDocument.
func ValidatePartialJSON(raw []byte) error {
	return validate(gojsonschema.NewBytesLoader(raw))
}

// ValidateValue validates an already decoded value (map, struct) the same way.
func ValidateValue(v interface{}) error {
	return validate(gojsonschema.NewGoLoader(v))
}

func validate(doc gojsonschema.JSONLoader) error {
	schema, err := compiledDraftSchema()
	if err != nil {
		return fmt.Errorf("failed to compile draft schema: %w", err)
	}

	res, err := schema.Validate(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
}
