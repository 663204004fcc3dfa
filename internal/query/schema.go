package query

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "job-tracker/pkg/errors"
)

type Kind int

const (
	KindText Kind = iota
	KindTime
	KindUUID
)

var timeLayouts = []string{time.RFC3339, "2006-01-02"}

type Column struct {
	Name string
	Kind Kind
}

// Schema whitelists the API fields of one resource and maps them to columns.
type Schema struct {
	fields map[string]Column
	// always selected, whatever the projection
	required []string
}

func NewSchema(fields map[string]Column, required ...string) Schema {
	return Schema{fields: fields, required: required}
}

func (s Schema) Column(field string) (Column, error) {
	col, ok := s.fields[field]
	if !ok {
		return Column{}, apperrors.NewValidationError(fmt.Sprintf("Invalid field: %s", field), nil)
	}
	return col, nil
}

// Value converts a raw filter value to the column's Go type.
func (s Schema) Value(field, raw string) (interface{}, error) {
	col, err := s.Column(field)
	if err != nil {
		return nil, err
	}

	switch col.Kind {
	case KindTime:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return nil, apperrors.NewValidationError(fmt.Sprintf("Invalid %s: %s", field, raw), nil)
	case KindUUID:
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("Invalid %s: %s", field, raw), err)
		}
		return id, nil
	default:
		return raw, nil
	}
}

// Projection returns the columns to select for the requested API fields.
// An empty list means every column.
func (s Schema) Projection(fields []string) ([]string, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	cols := make([]string, 0, len(fields)+len(s.required))
	seen := make(map[string]struct{})
	add := func(name string) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			cols = append(cols, name)
		}
	}

	for _, name := range s.required {
		add(name)
	}
	for _, field := range fields {
		col, err := s.Column(field)
		if err != nil {
			return nil, err
		}
		add(col.Name)
	}
	return cols, nil
}

// Validate checks every field referenced by req against the whitelist.
func (s Schema) Validate(req Request) error {
	for _, c := range req.Filters {
		if _, err := s.Value(c.Field, c.Value); err != nil {
			return err
		}
	}
	for _, sf := range req.Sort {
		if _, err := s.Column(sf.Field); err != nil {
			return err
		}
	}
	_, err := s.Projection(req.Fields)
	return err
}
