// Package decode repairs and parses model output. Repair is limited to
// two mechanical fixes: stripping markdown code fences and wrapping a
// bare object when a list is expected. Anything else is a decode error.
package decode

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Error is a generator-local decode failure. It is never fatal to a
// workflow run; the assembler substitutes a placeholder instead.
type Error struct {
	Raw string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("decode model output: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Lenient decodes raw model text into v. v must be a non-nil pointer.
func Lenient(raw string, v any) error {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return &Error{Raw: raw, Err: fmt.Errorf("empty output")}
	}

	err := json.Unmarshal([]byte(cleaned), v)
	if err == nil {
		return nil
	}

	// A bare object where a list is expected becomes a one-element list.
	if strings.HasPrefix(cleaned, "{") && expectsSlice(v) {
		if wrapErr := json.Unmarshal([]byte("["+cleaned+"]"), v); wrapErr == nil {
			return nil
		}
	}

	return &Error{Raw: raw, Err: err}
}

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func expectsSlice(v any) bool {
	t := reflect.TypeOf(v)
	return t != nil && t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Slice
}
