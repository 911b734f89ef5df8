// util/json.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
)

///////////////////////////////////////////////////////////////////////////
// JSON

// DuplicateJSONKey represents a duplicate key found in JSON.
type DuplicateJSONKey struct {
	Path string // dotted path of the object holding the key, e.g. "aircraft.c172.fields"
	Key  string
}

// FindDuplicateJSONKeys walks the JSON token stream and returns every key
// that appears more than once in the same object. encoding/json silently
// keeps the last value for duplicates, which hides typos in hand-edited
// profile files.
func FindDuplicateJSONKeys(data []byte) []DuplicateJSONKey {
	dec := json.NewDecoder(bytes.NewReader(data))
	var dups []DuplicateJSONKey

	var walk func(path []string) bool
	walk = func(path []string) bool {
		tok, err := dec.Token()
		if err != nil {
			return false
		}

		switch tok {
		case json.Delim('{'):
			seen := make(map[string]bool)
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return false
				}
				key, _ := kt.(string)
				if seen[key] {
					dups = append(dups, DuplicateJSONKey{Path: strings.Join(path, "."), Key: key})
				}
				seen[key] = true

				if !walk(append(path[:len(path):len(path)], key)) {
					return false
				}
			}
			_, err := dec.Token() // '}'
			return err == nil

		case json.Delim('['):
			for dec.More() {
				if !walk(path) {
					return false
				}
			}
			_, err := dec.Token() // ']'
			return err == nil
		}
		return true
	}

	walk(nil)
	return dups
}

func UnmarshalJSON[T any](r io.Reader, out *T) error {
	// We need the contents as an array of bytes so that we can issue
	// reasonable errors.
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return UnmarshalJSONBytes(b, out)
}

// UnmarshalJSONBytes unmarshals the bytes into the given type, reporting
// the line and character of the problem when the JSON is invalid.
func UnmarshalJSONBytes[T any](b []byte, out *T) error {
	err := json.Unmarshal(b, out)
	if err == nil {
		return nil
	}

	decodeOffset := func(offset int64) (line, char int) {
		line, char = 1, 1
		for i := 0; i < int(offset) && i < len(b); i++ {
			if b[i] == '\n' {
				line++
				char = 1
			} else {
				char++
			}
		}
		return
	}

	switch jerr := err.(type) {
	case *json.SyntaxError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %v", line, char, jerr)

	case *json.UnmarshalTypeError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %s value for %s.%s invalid for type %s",
			line, char, jerr.Value, jerr.Struct, jerr.Field, jerr.Type.String())

	default:
		return err
	}
}

///////////////////////////////////////////////////////////////////////////

// CheckJSON checks that the provided JSON is syntactically valid and that
// every object key it contains corresponds to a field of T (following
// maps, slices and pointers). Problems are reported to e.
func CheckJSON[T any](contents []byte, e *ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	var items any
	if err := UnmarshalJSONBytes(contents, &items); err != nil {
		e.Error(err)
		return
	}

	for _, d := range FindDuplicateJSONKeys(contents) {
		if d.Path == "" {
			e.ErrorString("%q: key is repeated", d.Key)
		} else {
			e.ErrorString("%s: %q: key is repeated", d.Path, d.Key)
		}
	}

	ty := reflect.TypeOf((*T)(nil)).Elem()
	typeCheckJSON(items, ty, make(map[reflect.Type]map[string]reflect.Type), e)
}

// JSONChecker can be implemented by types with custom JSON unmarshalers
// to report whether raw unmarshaled JSON is compatible with them.
type JSONChecker interface {
	CheckJSON(json any) bool
}

var jsonCheckerType = reflect.TypeOf((*JSONChecker)(nil)).Elem()

func typeCheckJSON(json any, ty reflect.Type, structTypes map[reflect.Type]map[string]reflect.Type, e *ErrorLogger) {
	for ty.Kind() == reflect.Ptr {
		ty = ty.Elem()
	}

	if ty.Implements(jsonCheckerType) || reflect.PointerTo(ty).Implements(jsonCheckerType) {
		if !reflect.New(ty).Interface().(JSONChecker).CheckJSON(json) {
			e.ErrorString("unexpected data format provided for object: %s", reflect.TypeOf(json))
		}
		return
	}

	switch ty.Kind() {
	case reflect.Array, reflect.Slice:
		if array, ok := json.([]any); ok {
			for _, item := range array {
				typeCheckJSON(item, ty.Elem(), structTypes, e)
			}
		} else {
			e.ErrorString("expected an array, got %s", reflect.TypeOf(json))
		}

	case reflect.Map:
		if m, ok := json.(map[string]any); ok {
			for k, v := range m {
				e.Push(k)
				typeCheckJSON(v, ty.Elem(), structTypes, e)
				e.Pop()
			}
		} else {
			e.ErrorString("expected an object, got %s", reflect.TypeOf(json))
		}

	case reflect.Struct:
		items, ok := json.(map[string]any)
		if !ok {
			e.ErrorString("expected an object, got %s", reflect.TypeOf(json))
			return
		}

		// Map from JSON name to field type; cached to avoid repeated
		// calls to reflect.VisibleFields.
		types, ok := structTypes[ty]
		if !ok {
			types = make(map[string]reflect.Type)
			for _, field := range reflect.VisibleFields(ty) {
				if jtag, ok := field.Tag.Lookup("json"); ok {
					name, _, _ := strings.Cut(jtag, ",")
					types[name] = field.Type
				}
			}
			structTypes[ty] = types
		}

		for item, values := range items {
			if fty, ok := types[item]; ok {
				e.Push(item)
				typeCheckJSON(values, fty, structTypes, e)
				e.Pop()
			} else {
				e.ErrorString("The entry %q is not an expected JSON object. Is it misspelled?", item)
			}
		}
	}
}
