package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrEmptyGeneration = errors.New("generated text is empty")
	ErrNoJSONFound     = errors.New("no JSON object found in generated text")

	fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")
)

// ParseGenerated decodes model output into target. It tries the raw text,
// then the first fenced code block, then the span from the first '{' to the
// last '}'. The error of the last attempt is returned when all fail.
func ParseGenerated(raw string, target any) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ErrEmptyGeneration
	}

	err := json.Unmarshal([]byte(text), target)
	if err == nil {
		return nil
	}

	if m := fencedBlock.FindStringSubmatch(text); len(m) == 2 && strings.TrimSpace(m[1]) != "" {
		if err = json.Unmarshal([]byte(m[1]), target); err == nil {
			return nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return fmt.Errorf("failed to parse generated JSON: %w", ErrNoJSONFound)
	}

	if err = json.Unmarshal([]byte(text[start:end+1]), target); err != nil {
		return fmt.Errorf("failed to parse generated JSON: %w", err)
	}
	return nil
}

// ToStringList normalises a field the model may return either as a list or as
// a comma-separated string. Blank entries are dropped.
func ToStringList(v any) []string {
	var parts []string
	switch val := v.(type) {
	case nil:
		return []string{}
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []any:
		for _, item := range val {
			switch s := item.(type) {
			case string:
				parts = append(parts, s)
			case nil:
			default:
				parts = append(parts, fmt.Sprint(s))
			}
		}
	default:
		parts = []string{fmt.Sprint(val)}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
