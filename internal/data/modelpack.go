package data

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// TileModel is one placeable tile model.
type TileModel struct {
	Name   string  `yaml:"name"`
	Height float64 `yaml:"height"` // collision height, fraction of the tile size
	Walls  bool    `yaml:"walls"`

	display string
}

// ModelName is the asset-side name: underscores become dashes.
func (m *TileModel) ModelName() string { return strings.ReplaceAll(m.Name, "_", "-") }

// DisplayName is the title-cased name used in listings.
func (m *TileModel) DisplayName() string { return m.display }

// ModelPack is an ordered catalog of tile models. Next and Prev wrap around.
type ModelPack struct {
	Name   string
	Prefix string
	Suffix string

	models  []*TileModel
	byName  map[string]int
	initial string
}

// Get returns a model by name, or nil if not found.
func (p *ModelPack) Get(name string) *TileModel {
	if i, ok := p.byName[name]; ok {
		return p.models[i]
	}
	return nil
}

// Has reports whether name is in the pack.
func (p *ModelPack) Has(name string) bool {
	_, ok := p.byName[name]
	return ok
}

// Count returns the number of models loaded.
func (p *ModelPack) Count() int { return len(p.models) }

// Names returns the model names in pack order.
func (p *ModelPack) Names() []string {
	out := make([]string, len(p.models))
	for i, m := range p.models {
		out[i] = m.Name
	}
	return out
}

// Default returns the model selected when the editor starts.
func (p *ModelPack) Default() string { return p.initial }

// Key returns the asset key of a model: prefix + model name + suffix.
func (p *ModelPack) Key(name string) string {
	m := p.Get(name)
	if m == nil {
		return ""
	}
	return p.Prefix + m.ModelName() + p.Suffix
}

// Next returns the model after name, wrapping to the first.
func (p *ModelPack) Next(name string) string { return p.step(name, 1) }

// Prev returns the model before name, wrapping to the last.
func (p *ModelPack) Prev(name string) string { return p.step(name, -1) }

func (p *ModelPack) step(name string, delta int) string {
	n := len(p.models)
	if n == 0 {
		return ""
	}
	i, ok := p.byName[name]
	if !ok {
		return p.models[0].Name
	}
	return p.models[((i+delta)%n+n)%n].Name
}

// --- YAML loading ---

type modelPackFile struct {
	Pack struct {
		Name    string      `yaml:"name"`
		Prefix  string      `yaml:"prefix"`
		Suffix  string      `yaml:"suffix"`
		Default string      `yaml:"default"`
		Models  []TileModel `yaml:"models"`
	} `yaml:"model_pack"`
}

// LoadModelPack loads a model pack from YAML.
func LoadModelPack(path string) (*ModelPack, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("modelpack: read %s: %w", path, err)
	}
	p, err := ParseModelPack(raw)
	if err != nil {
		return nil, fmt.Errorf("modelpack: parse %s: %w", path, err)
	}
	return p, nil
}

// ParseModelPack decodes a model pack document.
func ParseModelPack(raw []byte) (*ModelPack, error) {
	var f modelPackFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	if len(f.Pack.Models) == 0 {
		return nil, fmt.Errorf("model pack %q has no models", f.Pack.Name)
	}

	title := cases.Title(language.English)
	p := &ModelPack{
		Name:   f.Pack.Name,
		Prefix: f.Pack.Prefix,
		Suffix: f.Pack.Suffix,
		models: make([]*TileModel, 0, len(f.Pack.Models)),
		byName: make(map[string]int, len(f.Pack.Models)),
	}
	for i := range f.Pack.Models {
		m := &f.Pack.Models[i]
		if m.Name == "" {
			return nil, fmt.Errorf("model %d has no name", i)
		}
		if _, dup := p.byName[m.Name]; dup {
			return nil, fmt.Errorf("duplicate model %q", m.Name)
		}
		if m.Height <= 0 {
			m.Height = 0.1
		}
		m.display = title.String(strings.ReplaceAll(m.Name, "_", " "))
		p.byName[m.Name] = len(p.models)
		p.models = append(p.models, m)
	}

	p.initial = f.Pack.Default
	if !p.Has(p.initial) {
		p.initial = p.models[0].Name
	}
	return p, nil
}
