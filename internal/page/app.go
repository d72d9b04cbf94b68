package page

import (
	"fmt"

	"github.com/Skufu/chronicrisk/internal/disease"
	"github.com/Skufu/chronicrisk/internal/model"
)

// ClassifierSource resolves classifier handles per disease key.
type ClassifierSource interface {
	Handle(disease string) model.Handle
}

// Screen is one rendered pass of the whole app.
type Screen struct {
	State State
	Nav   []Kind
	Home  *disease.Home
	Page  *View
}

type App struct {
	catalog *disease.Catalog
	pages   map[Kind]*RiskPage
}

// NewApp builds one RiskPage per disease page kind from the catalog.
func NewApp(catalog *disease.Catalog, models ClassifierSource, threshold int) (*App, error) {
	a := &App{catalog: catalog, pages: make(map[Kind]*RiskPage)}
	for _, k := range Kinds() {
		if k == Home {
			continue
		}
		d, ok := catalog.Get(k.Slug())
		if !ok {
			return nil, fmt.Errorf("catalog has no disease %q", k.Slug())
		}
		a.pages[k] = NewRiskPage(d, models.Handle(d.Key), threshold)
	}
	return a, nil
}

// Page returns the risk page for k; Home has none.
func (a *App) Page(k Kind) (*RiskPage, bool) {
	p, ok := a.pages[k]
	return p, ok
}

// Render dispatches on the active page. State is passed through untouched.
// On a model failure the screen still carries the page view.
func (a *App) Render(s State, form Form, submitted bool) (Screen, error) {
	screen := Screen{State: s, Nav: Kinds()}
	p, ok := a.pages[s.Page]
	if !ok {
		screen.Home = &a.catalog.Home
		return screen, nil
	}
	v, err := p.Render(form, submitted)
	screen.Page = &v
	return screen, err
}
