package disease

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Skufu/chronicrisk/internal/patient"
)

type FieldKind string

const (
	KindNumber FieldKind = "number"
	KindChoice FieldKind = "choice"
)

type Option struct {
	Label string        `yaml:"label" json:"label"`
	Value patient.Value `yaml:"value" json:"value"`
}

// Field is one input control. Numbers default to Min; choices default to
// the first option, or to unset when a Placeholder is declared.
type Field struct {
	Name        string    `yaml:"name" json:"name"`
	Label       string    `yaml:"label" json:"label"`
	Kind        FieldKind `yaml:"kind" json:"kind"`
	Min         float64   `yaml:"min" json:"min,omitempty"`
	Max         float64   `yaml:"max" json:"max,omitempty"`
	Step        float64   `yaml:"step" json:"step,omitempty"`
	Precision   int       `yaml:"precision" json:"precision,omitempty"`
	Placeholder string    `yaml:"placeholder" json:"placeholder,omitempty"`
	Options     []Option  `yaml:"options" json:"options,omitempty"`
}

func (f Field) validate() error {
	if f.Name == "" || f.Label == "" {
		return errors.New("field needs name and label")
	}
	switch f.Kind {
	case KindNumber:
		if f.Min > f.Max || f.Step <= 0 {
			return fmt.Errorf("field %q: bad numeric domain [%v,%v] step %v", f.Name, f.Min, f.Max, f.Step)
		}
	case KindChoice:
		if len(f.Options) == 0 {
			return fmt.Errorf("field %q: no options", f.Name)
		}
	default:
		return fmt.Errorf("field %q: unknown kind %q", f.Name, f.Kind)
	}
	return nil
}

// Required reports whether the control starts unset and must be chosen.
func (f Field) Required() bool {
	return f.Kind == KindChoice && f.Placeholder != ""
}

// Default is the raw form value a fresh control shows.
func (f Field) Default() string {
	if f.Kind == KindNumber {
		return f.Format(f.Min)
	}
	if f.Required() {
		return ""
	}
	return f.Options[0].Label
}

// Format renders a number at the control's precision.
func (f Field) Format(v float64) string {
	return strconv.FormatFloat(v, 'f', f.Precision, 64)
}

// StepAttr is the HTML step attribute.
func (f Field) StepAttr() string {
	return strconv.FormatFloat(f.Step, 'f', -1, 64)
}

// Parse converts a raw form value. ok is false when a required choice is
// left at its placeholder.
func (f Field) Parse(raw string) (v patient.Value, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case KindNumber:
		n, perr := strconv.ParseFloat(raw, 64)
		if perr != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return v, false, fmt.Errorf("%s: %w: %q is not a number", f.Label, patient.ErrInvalidValue, raw)
		}
		if n < f.Min || n > f.Max {
			return v, false, fmt.Errorf("%s: %w: %v not in [%v, %v]", f.Label, patient.ErrOutOfRange, n, f.Min, f.Max)
		}
		return patient.Number(n), true, nil
	case KindChoice:
		if raw == "" || raw == f.Placeholder {
			if f.Required() {
				return v, false, nil
			}
			return v, false, fmt.Errorf("%s: %w: no option selected", f.Label, patient.ErrInvalidValue)
		}
		for _, o := range f.Options {
			if o.Label == raw {
				return o.Value, true, nil
			}
		}
		for _, o := range f.Options {
			if o.Value.String() == raw {
				return o.Value, true, nil
			}
		}
		return v, false, fmt.Errorf("%s: %w: unknown option %q", f.Label, patient.ErrInvalidValue, raw)
	}
	return v, false, fmt.Errorf("%s: %w: unknown kind %q", f.Label, patient.ErrInvalidValue, f.Kind)
}
