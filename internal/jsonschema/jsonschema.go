// Package jsonschema derives JSON-schema-shaped values from Go types via
// reflection. Tool parameter schemas advertised to language models are
// generated from the tool's typed input struct, so tools never hand-write
// schema literals.
package jsonschema

import (
	"reflect"
	"strings"
)

// Schema represents the subset of JSON Schema used to describe tool
// parameters and structured outputs: object/array/scalar types, properties,
// required lists, and enums.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
}

// Generate derives a Schema for the type parameter T. Struct fields map to
// object properties using their json tags; fields without omitempty and
// non-pointer fields are listed as required. Field descriptions come from an
// optional `description` struct tag, enums from a comma-separated `enum` tag.
func Generate[T any]() *Schema {
	return fromType(reflect.TypeFor[T]())
}

func fromType(t reflect.Type) *Schema {
	switch t.Kind() {
	case reflect.Ptr:
		return fromType(t.Elem())

	case reflect.Struct:
		return fromStruct(t)

	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: fromType(t.Elem())}

	case reflect.Map:
		// Schemaless map: accept any object.
		return &Schema{Type: "object"}

	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	default:
		// Interfaces and anything else: unconstrained value.
		return &Schema{}
	}
}

func fromStruct(t reflect.Type) *Schema {
	schema := &Schema{
		Type:       "object",
		Properties: map[string]*Schema{},
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		fieldName := field.Name
		omitEmpty := false
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				fieldName = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					omitEmpty = true
				}
			}
		}

		fieldSchema := fromType(field.Type)
		if description := field.Tag.Get("description"); description != "" {
			fieldSchema.Description = description
		}
		if enumTag := field.Tag.Get("enum"); enumTag != "" {
			for _, value := range strings.Split(enumTag, ",") {
				fieldSchema.Enum = append(fieldSchema.Enum, strings.TrimSpace(value))
			}
		}
		schema.Properties[fieldName] = fieldSchema

		if field.Type.Kind() != reflect.Ptr && !omitEmpty {
			schema.Required = append(schema.Required, fieldName)
		}
	}

	return schema
}
