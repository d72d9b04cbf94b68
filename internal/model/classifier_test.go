package model

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/chronicrisk/internal/patient"
)

const mixedArtifact = `{
	"disease": "test",
	"kind": "logistic_regression",
	"features": [
		{"name": "age", "type": "numeric", "mean": 50, "scale": 10},
		{"name": "htn", "type": "categorical", "categories": ["no", "yes"]}
	],
	"coefficients": [0.5, -1, 1],
	"intercept": 0.25
}`

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func TestDecodeAndPredict(t *testing.T) {
	p, err := Decode(strings.NewReader(mixedArtifact))
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "htn"}, p.FeatureNames())

	proba, err := p.PredictProba(patient.Input{
		"age": patient.Number(70),
		"htn": patient.Category("yes"),
	})
	require.NoError(t, err)
	require.Len(t, proba, 2)

	want := sigmoid(0.5*2 + 1 + 0.25)
	assert.InDelta(t, want, proba[1], 1e-12)
	assert.InDelta(t, 1, proba[0]+proba[1], 1e-12)
}

func TestPredictUnknownCategoryEncodesZero(t *testing.T) {
	p, err := Decode(strings.NewReader(mixedArtifact))
	require.NoError(t, err)

	proba, err := p.PredictProba(patient.Input{
		"age": patient.Number(50),
		"htn": patient.Category("unknown"),
	})
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(0.25), proba[1], 1e-12)
}

func TestPredictRejectsMismatchedRow(t *testing.T) {
	p, err := Decode(strings.NewReader(mixedArtifact))
	require.NoError(t, err)

	_, err = p.PredictProba(patient.Input{"age": patient.Number(50)})
	assert.ErrorIs(t, err, patient.ErrInvalidValue)

	_, err = p.PredictProba(patient.Input{
		"age": patient.Category("old"),
		"htn": patient.Category("no"),
	})
	assert.ErrorIs(t, err, patient.ErrInvalidValue)
}

func TestDecodeRejectsCorruptArtifacts(t *testing.T) {
	tests := map[string]string{
		"not json":       `{"kind":`,
		"unknown kind":   `{"kind": "random_forest", "features": [{"name": "a", "type": "numeric", "scale": 1}], "coefficients": [1]}`,
		"no features":    `{"kind": "logistic_regression", "coefficients": []}`,
		"zero scale":     `{"kind": "logistic_regression", "features": [{"name": "a", "type": "numeric"}], "coefficients": [1]}`,
		"width mismatch": `{"kind": "logistic_regression", "features": [{"name": "a", "type": "categorical", "categories": ["x", "y"]}], "coefficients": [1]}`,
		"unknown field":  `{"kind": "logistic_regression", "pickle": true}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrArtifactCorrupt), "got %v", err)
		})
	}
}
