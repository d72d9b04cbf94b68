package patient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

var (
	ErrOutOfRange   = errors.New("value out of range")
	ErrInvalidValue = errors.New("invalid value")
)

// Value is a single feature value: numeric or categorical.
type Value struct {
	Num   float64
	Str   string
	IsStr bool
}

func Number(v float64) Value { return Value{Num: v} }

func Category(s string) Value { return Value{Str: s, IsStr: true} }

// String renders the value the way a form control would submit it.
func (v Value) String() string {
	if v.IsStr {
		return v.Str
	}
	return strconv.FormatFloat(v.Num, 'f', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsStr {
		return json.Marshal(v.Str)
	}
	return []byte(strconv.FormatFloat(v.Num, 'f', -1, 64)), nil
}

// UnmarshalYAML accepts either a number or a string scalar.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: %w: expected scalar", node.Line, ErrInvalidValue)
	}
	if tag := node.ShortTag(); tag == "!!int" || tag == "!!float" {
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*v = Number(f)
		return nil
	}
	*v = Category(node.Value)
	return nil
}

// Input is one patient row keyed by model feature name.
type Input map[string]Value

// Num returns the numeric value for name.
func (in Input) Num(name string) (float64, error) {
	v, ok := in[name]
	if !ok {
		return 0, fmt.Errorf("feature %q: %w: missing", name, ErrInvalidValue)
	}
	if v.IsStr {
		return 0, fmt.Errorf("feature %q: %w: expected number, got %q", name, ErrInvalidValue, v.Str)
	}
	return v.Num, nil
}

// Cat returns the categorical value for name.
func (in Input) Cat(name string) (string, error) {
	v, ok := in[name]
	if !ok {
		return "", fmt.Errorf("feature %q: %w: missing", name, ErrInvalidValue)
	}
	if !v.IsStr {
		return "", fmt.Errorf("feature %q: %w: expected category, got %s", name, ErrInvalidValue, v)
	}
	return v.Str, nil
}
