package generation

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemasOnce sync.Once
	schemas     map[Kind]*gojsonschema.Schema
	schemasErr  error
)

func loadSchemas() (map[Kind]*gojsonschema.Schema, error) {
	schemasOnce.Do(func() {
		schemas = make(map[Kind]*gojsonschema.Schema, len(Kinds))
		for _, kind := range Kinds {
			data, err := schemaFS.ReadFile("schemas/" + string(kind) + ".json")
			if err != nil {
				schemasErr = fmt.Errorf("read schema %s: %w", kind, err)
				return
			}
			s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
			if err != nil {
				schemasErr = fmt.Errorf("compile schema %s: %w", kind, err)
				return
			}
			schemas[kind] = s
		}
	})
	return schemas, schemasErr
}

// ValidateResponse checks raw model output against the schema for kind.
func ValidateResponse(kind Kind, raw []byte) error {
	all, err := loadSchemas()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	s, ok := all[kind]
	if !ok {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, kind)
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidResponse, strings.Join(msgs, "; "))
	}
	return nil
}
