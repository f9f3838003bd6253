package mcp

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mschirtzinger/tasktree/internal/repo"
)

// args wraps the decoded arguments of one tool call.
type args map[string]any

func argError(format string, a ...any) error {
	return fmt.Errorf("%w: %s", repo.ErrInvalidInput, fmt.Sprintf(format, a...))
}

func (a args) has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

func (a args) requireID(key string) (int64, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return 0, argError("%s is required", key)
	}

	var id int64
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, argError("%s must be an integer", key)
		}
		id = int64(n)
	case int:
		id = int64(n)
	case int64:
		id = n
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, argError("%s must be an integer", key)
		}
		id = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(n), "#"), 10, 64)
		if err != nil {
			return 0, argError("%s must be an integer", key)
		}
		id = parsed
	default:
		return 0, argError("%s must be an integer", key)
	}

	if id <= 0 {
		return 0, argError("%s must be positive", key)
	}
	return id, nil
}

func (a args) optionalInt(key string) (int, error) {
	if !a.has(key) {
		return 0, nil
	}
	id, err := a.requireID(key)
	return int(id), err
}

func (a args) requireString(key string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", argError("%s is required", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", argError("%s must be a string", key)
	}
	return s, nil
}

// optionalString returns nil when key is absent.
func (a args) optionalString(key string) (*string, error) {
	if !a.has(key) {
		return nil, nil
	}
	s, err := a.requireString(key)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (a args) optionalBool(key string) (bool, error) {
	if !a.has(key) {
		return false, nil
	}
	b, ok := a[key].(bool)
	if !ok {
		return false, argError("%s must be a boolean", key)
	}
	return b, nil
}

func (a args) requireStrings(key string) ([]string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, argError("%s is required", key)
	}

	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, argError("%s[%d] must be a string", key, i)
			}
			out[i] = s
		}
		return out, nil
	case string:
		// a newline-separated block, as the legacy how_to_guide field was
		var out []string
		for _, line := range strings.Split(list, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out, nil
	}
	return nil, argError("%s must be a list of strings", key)
}
