package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/Skufu/chronicrisk/internal/patient"
)

var (
	ErrArtifactMissing = errors.New("model artifact missing")
	ErrArtifactCorrupt = errors.New("model artifact corrupt")
)

// Classifier is a pre-trained binary classifier. Implementations must be
// safe for concurrent use once constructed.
type Classifier interface {
	// PredictProba returns the distribution over {negative, positive}.
	PredictProba(in patient.Input) ([]float64, error)
}

const kindLogisticRegression = "logistic_regression"

type FeatureKind string

const (
	FeatureNumeric     FeatureKind = "numeric"
	FeatureCategorical FeatureKind = "categorical"
)

// Feature describes how one input column expands into the model vector.
type Feature struct {
	Name       string      `json:"name"`
	Kind       FeatureKind `json:"type"`
	Mean       float64     `json:"mean,omitempty"`
	Scale      float64     `json:"scale,omitempty"`
	Categories []string    `json:"categories,omitempty"`
}

func (f Feature) width() int {
	if f.Kind == FeatureCategorical {
		return len(f.Categories)
	}
	return 1
}

// Artifact is the on-disk representation of a trained pipeline.
type Artifact struct {
	Disease      string    `json:"disease"`
	Kind         string    `json:"kind"`
	Features     []Feature `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// LogisticPipeline standardizes numeric features, one-hot encodes
// categorical ones and applies a logistic regression.
type LogisticPipeline struct {
	features  []Feature
	weights   *mat.VecDense
	intercept float64
}

// Decode reads and validates an artifact.
func Decode(r io.Reader) (*LogisticPipeline, error) {
	var a Artifact
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}
	return NewLogisticPipeline(a)
}

func NewLogisticPipeline(a Artifact) (*LogisticPipeline, error) {
	if a.Kind != kindLogisticRegression {
		return nil, fmt.Errorf("%w: unsupported kind %q", ErrArtifactCorrupt, a.Kind)
	}
	if len(a.Features) == 0 {
		return nil, fmt.Errorf("%w: no features", ErrArtifactCorrupt)
	}

	width := 0
	for _, f := range a.Features {
		switch f.Kind {
		case FeatureNumeric:
			if f.Scale == 0 || math.IsNaN(f.Scale) {
				return nil, fmt.Errorf("%w: feature %q has zero scale", ErrArtifactCorrupt, f.Name)
			}
		case FeatureCategorical:
			if len(f.Categories) == 0 {
				return nil, fmt.Errorf("%w: feature %q has no categories", ErrArtifactCorrupt, f.Name)
			}
		default:
			return nil, fmt.Errorf("%w: feature %q has unknown type %q", ErrArtifactCorrupt, f.Name, f.Kind)
		}
		width += f.width()
	}
	if len(a.Coefficients) != width {
		return nil, fmt.Errorf("%w: %d coefficients for %d encoded columns", ErrArtifactCorrupt, len(a.Coefficients), width)
	}

	return &LogisticPipeline{
		features:  a.Features,
		weights:   mat.NewVecDense(width, append([]float64(nil), a.Coefficients...)),
		intercept: a.Intercept,
	}, nil
}

// FeatureNames lists the input columns the pipeline expects, in order.
func (p *LogisticPipeline) FeatureNames() []string {
	names := make([]string, len(p.features))
	for i, f := range p.features {
		names[i] = f.Name
	}
	return names
}

func (p *LogisticPipeline) encode(in patient.Input) (*mat.VecDense, error) {
	x := mat.NewVecDense(p.weights.Len(), nil)
	col := 0
	for _, f := range p.features {
		switch f.Kind {
		case FeatureNumeric:
			v, err := in.Num(f.Name)
			if err != nil {
				return nil, err
			}
			x.SetVec(col, (v-f.Mean)/f.Scale)
		case FeatureCategorical:
			v, err := in.Cat(f.Name)
			if err != nil {
				return nil, err
			}
			// Unknown categories stay all-zero.
			for i, c := range f.Categories {
				if c == v {
					x.SetVec(col+i, 1)
				}
			}
		}
		col += f.width()
	}
	return x, nil
}

func (p *LogisticPipeline) PredictProba(in patient.Input) ([]float64, error) {
	x, err := p.encode(in)
	if err != nil {
		return nil, err
	}
	z := mat.Dot(p.weights, x) + p.intercept
	pos := 1 / (1 + math.Exp(-z))
	return []float64{1 - pos, pos}, nil
}
