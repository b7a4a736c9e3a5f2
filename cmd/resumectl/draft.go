package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	guestdomain "github.com/resumeforge/resume-builder-backend/internal/guest/domain"
)

// loadDraft reads a YAML or JSON draft, checks it against the draft schema
// and decodes it.
func loadDraft(path string) (guestdomain.Document, error) {
	var doc guestdomain.Document

	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("failed to read draft: %w", err)
	}

	raw := data
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err = yamlToJSON(data)
		if err != nil {
			return doc, err
		}
	case ".json", "":
	default:
		return doc, fmt.Errorf("unsupported draft format %q (want .yaml, .yml or .json)", filepath.Ext(path))
	}

	if err := guestdomain.ValidatePartialJSON(raw); err != nil {
		return doc, err
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode draft: %w", err)
	}
	return doc.Normalize(), nil
}

// yamlToJSON converts through a generic value so the schema sees exactly
// what the YAML author wrote.
func yamlToJSON(data []byte) ([]byte, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if v == nil {
		v = map[string]interface{}{}
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to convert yaml: %w", err)
	}
	return out, nil
}

// asPartial replaces every section of a stored draft with doc.
func asPartial(doc guestdomain.Document) guestdomain.Partial {
	personal := doc.Personal
	summary := doc.OptimizedSummary
	return guestdomain.Partial{
		Personal:         &personal,
		Experiences:      nonNil(doc.Experiences),
		Educations:       nonNil(doc.Educations),
		Projects:         nonNil(doc.Projects),
		Certifications:   nonNil(doc.Certifications),
		Skills:           nonNil(doc.Skills),
		Languages:        nonNil(doc.Languages),
		Interests:        nonNil(doc.Interests),
		OptimizedSummary: &summary,
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
