// Package disease holds the per-disease input schemas and recommendation
// content. Everything is data in catalog.yaml; nothing here is disease
// specific.
package disease

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"github.com/Skufu/chronicrisk/internal/risk"
)

//go:embed catalog.yaml
var catalogYAML []byte

// SectionTitles is the fixed outline every recommendation plan follows.
var SectionTitles = []string{
	"Lifestyle Changes",
	"Diet & Nutrition",
	"Exercise & Physical Activity",
	"Monitoring & Tracking",
	"Next Steps",
}

var ErrInvalidCatalog = errors.New("invalid catalog")

type Section struct {
	Title string        `yaml:"title" json:"title"`
	Body  string        `yaml:"body" json:"body"`
	HTML  template.HTML `yaml:"-" json:"-"`
}

type Plan struct {
	Heading     string        `yaml:"heading" json:"heading"`
	Summary     string        `yaml:"summary" json:"summary"`
	SummaryHTML template.HTML `yaml:"-" json:"-"`
	Sections    []Section     `yaml:"sections" json:"sections"`
}

type Plans struct {
	High Plan `yaml:"high"`
	Low  Plan `yaml:"low"`
}

type Disease struct {
	Key      string  `yaml:"key" json:"key"`
	Label    string  `yaml:"label" json:"label"`
	Noun     string  `yaml:"noun" json:"noun"`
	Title    string  `yaml:"title" json:"title"`
	Intro    string  `yaml:"intro" json:"intro"`
	Artifact string  `yaml:"artifact" json:"-"`
	Fields   []Field `yaml:"fields" json:"fields"`
	Plans    Plans   `yaml:"plans" json:"-"`
}

// Plan selects the recommendation plan for level.
func (d *Disease) Plan(level risk.Level) *Plan {
	if level.High() {
		return &d.Plans.High
	}
	return &d.Plans.Low
}

func (d *Disease) Field(name string) (*Field, bool) {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i], true
		}
	}
	return nil, false
}

type Home struct {
	Title    string        `yaml:"title"`
	Body     string        `yaml:"body"`
	BodyHTML template.HTML `yaml:"-"`
}

type Catalog struct {
	Home     Home       `yaml:"home"`
	Diseases []*Disease `yaml:"diseases"`

	byKey map[string]*Disease
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := c.prepare(goldmark.New()); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) prepare(md goldmark.Markdown) error {
	var err error
	if c.Home.BodyHTML, err = render(md, c.Home.Body); err != nil {
		return err
	}

	c.byKey = make(map[string]*Disease, len(c.Diseases))
	for _, d := range c.Diseases {
		if d.Key == "" || d.Label == "" || d.Artifact == "" {
			return fmt.Errorf("%w: disease %q needs key, label and artifact", ErrInvalidCatalog, d.Key)
		}
		if _, dup := c.byKey[d.Key]; dup {
			return fmt.Errorf("%w: duplicate disease %q", ErrInvalidCatalog, d.Key)
		}
		c.byKey[d.Key] = d

		if len(d.Fields) == 0 {
			return fmt.Errorf("%w: disease %q has no fields", ErrInvalidCatalog, d.Key)
		}
		seen := make(map[string]bool, len(d.Fields))
		for _, f := range d.Fields {
			if seen[f.Name] {
				return fmt.Errorf("%w: %s: duplicate field %q", ErrInvalidCatalog, d.Key, f.Name)
			}
			seen[f.Name] = true
			if err := f.validate(); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, d.Key, err)
			}
		}

		for _, p := range []*Plan{&d.Plans.High, &d.Plans.Low} {
			if err := preparePlan(md, p); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, d.Key, err)
			}
		}
	}
	return nil
}

func preparePlan(md goldmark.Markdown, p *Plan) error {
	if p.Heading == "" {
		return errors.New("plan without heading")
	}
	if len(p.Sections) != len(SectionTitles) {
		return fmt.Errorf("plan %q has %d sections, want %d", p.Heading, len(p.Sections), len(SectionTitles))
	}
	var err error
	if p.SummaryHTML, err = render(md, p.Summary); err != nil {
		return err
	}
	for i := range p.Sections {
		if p.Sections[i].Title != SectionTitles[i] {
			return fmt.Errorf("plan %q section %d is %q, want %q", p.Heading, i+1, p.Sections[i].Title, SectionTitles[i])
		}
		if p.Sections[i].HTML, err = render(md, p.Sections[i].Body); err != nil {
			return err
		}
	}
	return nil
}

// render converts trusted catalog markdown; raw HTML is not passed through.
func render(md goldmark.Markdown, src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Get returns the disease registered under key.
func (c *Catalog) Get(key string) (*Disease, bool) {
	d, ok := c.byKey[key]
	return d, ok
}

// Artifacts maps disease keys to artifact file names.
func (c *Catalog) Artifacts() map[string]string {
	files := make(map[string]string, len(c.Diseases))
	for _, d := range c.Diseases {
		files[d.Key] = d.Artifact
	}
	return files
}
