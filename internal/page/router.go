package page

import (
	"github.com/rs/zerolog/log"
)

// Kind is the active page. Home has no disease behind it; the rest map to
// catalog keys.
type Kind int

const (
	Home Kind = iota
	Diabetes
	KidneyDisease
	HeartDisease
	BreastCancer
)

type kindInfo struct {
	label string
	slug  string
}

var kindTable = [...]kindInfo{
	Home:          {label: "Home", slug: "home"},
	Diabetes:      {label: "Diabetes", slug: "diabetes"},
	KidneyDisease: {label: "Kidney Disease", slug: "kidney_disease"},
	HeartDisease:  {label: "Heart Disease", slug: "heart_disease"},
	BreastCancer:  {label: "Breast Cancer", slug: "breast_cancer"},
}

// Kinds lists every page in navigation order.
func Kinds() []Kind {
	return []Kind{Home, Diabetes, KidneyDisease, HeartDisease, BreastCancer}
}

func (k Kind) valid() bool { return k >= Home && k <= BreastCancer }

// Label is the navigation label.
func (k Kind) Label() string {
	if !k.valid() {
		return ""
	}
	return kindTable[k].label
}

// Slug identifies the page in cookies and URLs. For disease pages it is
// also the catalog key.
func (k Kind) Slug() string {
	if !k.valid() {
		return ""
	}
	return kindTable[k].slug
}

func (k Kind) String() string { return k.Label() }

func KindFromSlug(slug string) (Kind, bool) {
	for _, k := range Kinds() {
		if kindTable[k].slug == slug {
			return k, true
		}
	}
	return Home, false
}

func KindFromLabel(label string) (Kind, bool) {
	for _, k := range Kinds() {
		if kindTable[k].label == label {
			return k, true
		}
	}
	return Home, false
}

// State is the per-session application state.
type State struct {
	Page Kind
}

func NewState() State {
	return State{Page: Home}
}

// Select switches to the page with the given navigation label. Unknown
// labels leave the state as it was.
func Select(s State, label string) State {
	k, ok := KindFromLabel(label)
	if !ok {
		log.Warn().Str("label", label).Msg("unknown page selected")
		return s
	}
	s.Page = k
	return s
}
