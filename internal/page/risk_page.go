package page

import (
	"errors"
	"fmt"

	"github.com/Skufu/chronicrisk/internal/disease"
	"github.com/Skufu/chronicrisk/internal/model"
	"github.com/Skufu/chronicrisk/internal/patient"
	"github.com/Skufu/chronicrisk/internal/risk"
)

var ErrMissingSelection = errors.New("missing required selection")

const (
	missingSelectionMessage = "Please select all categorical values (no 'Select...')."
	awaitingPrompt          = "Fill in the form and select Load Results to run the prediction."
)

// MissingSelectionError lists the choice fields left at their placeholder.
type MissingSelectionError struct {
	Fields []string
}

func (e *MissingSelectionError) Error() string {
	return missingSelectionMessage
}

func (e *MissingSelectionError) Is(target error) bool {
	return target == ErrMissingSelection
}

type Status int

const (
	AwaitingInput Status = iota
	Validated
	Rejected
	Scored
)

func (s Status) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting_input"
	case Validated:
		return "validated"
	case Rejected:
		return "rejected"
	case Scored:
		return "scored"
	}
	return "unknown"
}

// Form holds raw control values keyed by field name. Missing keys fall back
// to the control default.
type Form map[string]string

type FieldView struct {
	disease.Field
	Value string
}

type Result struct {
	Score   risk.Score
	Level   risk.Level
	Message string
	Plan    *disease.Plan
}

type View struct {
	Disease *disease.Disease
	Status  Status
	Fields  []FieldView
	Prompt  string
	Err     error
	Result  *Result
}

// RiskPage is the one risk-assessment page every disease is an instance of.
type RiskPage struct {
	Disease    *disease.Disease
	Classifier model.Handle
	Threshold  int
}

func NewRiskPage(d *disease.Disease, clf model.Handle, threshold int) *RiskPage {
	return &RiskPage{Disease: d, Classifier: clf, Threshold: threshold}
}

func (p *RiskPage) fieldViews(form Form) []FieldView {
	views := make([]FieldView, len(p.Disease.Fields))
	for i, f := range p.Disease.Fields {
		v, ok := form[f.Name]
		if !ok {
			v = f.Default()
		}
		views[i] = FieldView{Field: f, Value: v}
	}
	return views
}

// Build turns raw form values into a patient row. Every field is checked;
// missing required choices yield a *MissingSelectionError, joined with the
// first malformed value if there is one.
func (p *RiskPage) Build(form Form) (patient.Input, error) {
	in := make(patient.Input, len(p.Disease.Fields))
	var missing []string
	var invalid error
	for _, fv := range p.fieldViews(form) {
		v, ok, err := fv.Parse(fv.Value)
		switch {
		case err != nil:
			if invalid == nil {
				invalid = err
			}
		case !ok:
			missing = append(missing, fv.Label)
		default:
			in[fv.Name] = v
		}
	}
	if len(missing) > 0 {
		return nil, errors.Join(&MissingSelectionError{Fields: missing}, invalid)
	}
	if invalid != nil {
		return nil, invalid
	}
	return in, nil
}

// Assess scores a complete row. Errors here are model failures, never
// user input problems.
func (p *RiskPage) Assess(in patient.Input) (*Result, error) {
	clf, err := p.Classifier()
	if err != nil {
		return nil, fmt.Errorf("load %s model: %w", p.Disease.Key, err)
	}
	proba, err := clf.PredictProba(in)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", p.Disease.Key, err)
	}
	if len(proba) != 2 {
		return nil, fmt.Errorf("predict %s: %w: got %d classes", p.Disease.Key, model.ErrArtifactCorrupt, len(proba))
	}
	score, err := risk.ScoreFromProbability(proba[1])
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", p.Disease.Key, err)
	}

	level := risk.Classify(score, p.Threshold)
	return &Result{
		Score:   score,
		Level:   level,
		Message: LevelMessage(level, p.Disease.Noun),
		Plan:    p.Disease.Plan(level),
	}, nil
}

// Render runs one pass of the page. Rejections are reported in the view;
// the returned error is reserved for classifier failures.
func (p *RiskPage) Render(form Form, submitted bool) (View, error) {
	v := View{
		Disease: p.Disease,
		Status:  AwaitingInput,
		Fields:  p.fieldViews(form),
	}
	if !submitted {
		v.Prompt = awaitingPrompt
		return v, nil
	}

	in, err := p.Build(form)
	if err != nil {
		v.Status = Rejected
		v.Err = err
		return v, nil
	}
	v.Status = Validated

	res, err := p.Assess(in)
	if err != nil {
		return v, err
	}
	v.Status = Scored
	v.Result = res
	return v, nil
}

func LevelMessage(level risk.Level, noun string) string {
	if level.High() {
		return fmt.Sprintf("Patient at high risk for %s.", noun)
	}
	return fmt.Sprintf("Patient at low to medium risk for %s.", noun)
}
