package server

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"github.com/vanshika/finadvisor/backend/internal/domain"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// nestedSchemas lists object members validated against another schema once
// the enclosing document passes.
var nestedSchemas = map[string]map[string]string{
	"register": {"financialProfile": "profile"},
}

type requestValidator struct {
	schemas map[string]*jsonschema.Schema
}

func newRequestValidator() (*requestValidator, error) {
	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	v := &requestValidator{schemas: make(map[string]*jsonschema.Schema, len(entries))}
	for _, entry := range entries {
		data, err := schemaFS.ReadFile("schemas/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", entry.Name(), err)
		}
		schema, err := compiler.Compile(data)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", entry.Name(), err)
		}
		v.schemas[strings.TrimSuffix(entry.Name(), ".json")] = schema
	}
	return v, nil
}

// validate checks doc, a decoded JSON value, against the named schema.
func (v *requestValidator) validate(name string, doc any) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown request schema %q", name)
	}

	result := schema.Validate(doc)
	if !result.IsValid() {
		messages := make([]string, 0, len(result.Errors))
		for keyword, evalErr := range result.Errors {
			messages = append(messages, fmt.Sprintf("%s: %s", keyword, evalErr.Error()))
		}
		sort.Strings(messages)
		return domain.Invalid("", "invalid request body: %s", strings.Join(messages, "; "))
	}

	obj, _ := doc.(map[string]any)
	for member, nested := range nestedSchemas[name] {
		if value, ok := obj[member].(map[string]any); ok {
			if err := v.validate(nested, value); err != nil {
				return err
			}
		}
	}
	return nil
}
