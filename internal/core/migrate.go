package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// documentWire is the on-disk shape of versions 1 and 2.
type documentWire struct {
	Version    int                     `json:"version"`
	Categories *Registry               `json:"categories"`
	Months     map[string]*MonthRecord `json:"months"`
}

// Migrate decodes a stored document of any known version and upgrades it to
// DocumentVersion:
//
//	v0: month keys at the top level, optional "categories" list
//	v1: {"categories", "months"} without a version field
//	v2: current layout
//
// Empty input yields a new default document.
func Migrate(raw []byte) (*Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return NewDocument(), nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	_, hasMonths := top["months"]
	_, hasVersion := top["version"]
	if !hasMonths && !hasVersion {
		return migrateFlat(top)
	}

	var w documentWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if w.Version > DocumentVersion {
		return nil, fmt.Errorf("document version %d is newer than supported version %d", w.Version, DocumentVersion)
	}
	doc := &Document{Months: w.Months}
	if w.Categories != nil {
		doc.Categories = *w.Categories
	} else {
		doc.Categories = NewRegistry(DefaultCategories...)
	}
	doc.normalize()
	return doc, nil
}

func migrateFlat(top map[string]json.RawMessage) (*Document, error) {
	doc := &Document{Months: make(map[string]*MonthRecord, len(top))}
	if rawCats, ok := top["categories"]; ok {
		if err := json.Unmarshal(rawCats, &doc.Categories); err != nil {
			return nil, fmt.Errorf("decode categories: %w", err)
		}
	} else {
		doc.Categories = NewRegistry(DefaultCategories...)
	}
	for key, rawMonth := range top {
		if ValidateMonthKey(key) != nil {
			continue
		}
		var m MonthRecord
		if err := json.Unmarshal(rawMonth, &m); err != nil {
			return nil, fmt.Errorf("decode month %s: %w", key, err)
		}
		doc.Months[key] = &m
	}
	doc.normalize()
	return doc, nil
}

// UnmarshalJSON decodes and upgrades any supported document version.
func (d *Document) UnmarshalJSON(b []byte) error {
	doc, err := Migrate(b)
	if err != nil {
		return err
	}
	*d = *doc
	return nil
}

// EncodeDocument renders the canonical form: indented JSON with sorted keys
// and a trailing newline. Encoding a decoded canonical document reproduces
// the same bytes.
func EncodeDocument(doc *Document) ([]byte, error) {
	doc.normalize()
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return append(b, '\n'), nil
}
