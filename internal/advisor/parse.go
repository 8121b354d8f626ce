package advisor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"trimtrack/internal/domain"
)

// decodeStrict parses raw as a JSON object into dst after checking that every
// required top-level key is present and not null. dst must be a non-nil
// pointer and is left untouched on failure.
func decodeStrict(raw string, required []string, dst any) error {
	body := []byte(stripCodeFences(raw))

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedAIResponse, err)
	}
	var missing []string
	for _, key := range required {
		v, ok := top[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields %s", domain.ErrMalformedAIResponse, strings.Join(missing, ", "))
	}

	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode into %T: not a non-nil pointer", dst)
	}
	fresh := reflect.New(rv.Elem().Type())
	if err := json.Unmarshal(body, fresh.Interface()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedAIResponse, err)
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}

// stripCodeFences removes a surrounding markdown code fence, which models
// tend to add even when asked for bare JSON.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
