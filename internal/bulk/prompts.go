package bulk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"bulkgen/internal/domain"
)

// ParsePrompts decodes a JSON array of strings. The array may also arrive
// wrapped in a JSON string, the way a form field carries it. Elements are
// trimmed and blanks dropped; an empty result is rejected.
func ParsePrompts(raw []byte) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, &domain.ValidationError{Field: "prompts", Reason: "prompt list is required"}
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, &domain.ValidationError{Field: "prompts", Reason: "must be a JSON array of strings"}
		}
		raw = bytes.TrimSpace([]byte(inner))
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &domain.ValidationError{Field: "prompts", Reason: "must be a JSON array of strings"}
	}
	prompts := CleanPrompts(items)
	if len(prompts) == 0 {
		return nil, &domain.ValidationError{Field: "prompts", Reason: "at least one non-empty prompt is required"}
	}
	return prompts, nil
}

// CleanPrompts trims each prompt and drops blanks, keeping input order.
func CleanPrompts(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

var (
	textArrayPattern = regexp.MustCompile(`text\s*\[\s*((?:"(?:[^"\\]|\\.)*"(?:\s*,\s*)?)*)\s*\]`)
	quotedPattern    = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
	looseUnescaper   = strings.NewReplacer(`\"`, `"`, `\\`, `\`)
)

// ExtractTextArrays pulls every string out of `text [ "...", ... ]` arrays in
// pasted model output, in document order.
func ExtractTextArrays(content string) []string {
	var items []string
	for _, m := range textArrayPattern.FindAllStringSubmatch(content, -1) {
		for _, quoted := range quotedPattern.FindAllString(m[1], -1) {
			item, err := strconv.Unquote(quoted)
			if err != nil {
				item = looseUnescaper.Replace(quoted[1 : len(quoted)-1])
			}
			items = append(items, item)
		}
	}
	return CleanPrompts(items)
}

// MergePromptArrays concatenates consecutive JSON arrays of strings, separated
// by any whitespace, into one prompt list. Each array goes through
// ParsePrompts, so string-wrapped arrays are accepted too.
func MergePromptArrays(r io.Reader) ([]string, error) {
	dec := json.NewDecoder(r)
	var merged []string
	for n := 1; ; n++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("array %d: %w", n, err)
		}
		prompts, err := ParsePrompts(raw)
		if err != nil {
			return nil, fmt.Errorf("array %d: %w", n, err)
		}
		merged = append(merged, prompts...)
	}
	if len(merged) == 0 {
		return nil, &domain.ValidationError{Field: "prompts", Reason: "no prompt arrays found"}
	}
	return merged, nil
}
