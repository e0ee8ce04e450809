// Package catalog defines the versioned factor catalog that drives
// extraction. The catalog is declarative data: each factor names its value
// range, neutral default, and a scoring rule made of regex pattern groups
// plus a normalization method. Catalogs are loaded from YAML so the rule
// tables can evolve without code changes; a built-in default catalog
// covers Argentine judicial decision texts.
package catalog

import (
	"fmt"
	"regexp"
)

// Kind is the value kind of a factor.
type Kind string

const (
	// KindNumeric is a bounded numeric factor, typically in [0,1].
	KindNumeric Kind = "numeric"
	// KindDirectional is a numeric factor in [-1,1] expressing a balance
	// between two opposed tendencies.
	KindDirectional Kind = "directional"
	// KindCategorical is a factor whose value is one of a declared
	// category list.
	KindCategorical Kind = "categorical"
)

// Method names the normalization applied by a factor's scoring rule.
type Method string

const (
	// MethodDensity scores matches per 1000 words, capped at a declared
	// count, yielding a value in [0,1].
	MethodDensity Method = "density"
	// MethodBalance scores two opposed pattern groups into [-1,1] as
	// (pos-neg)/(pos+neg), 0 when neither side matches.
	MethodBalance Method = "balance"
	// MethodDominant picks the highest-scoring pattern group as the
	// category, falling back to the default category below a threshold.
	MethodDominant Method = "dominant"
)

// PatternGroup is a named set of regex patterns. For categorical factors
// the group name is the category; the declared group order is the
// canonical category order used for mode tie-breaking.
type PatternGroup struct {
	Name     string   `koanf:"name" json:"name"`
	Patterns []string `koanf:"patterns" json:"patterns"`
}

// Factor is one declared factor with its scoring rule.
type Factor struct {
	Name string `koanf:"name" json:"name"`
	Kind Kind   `koanf:"kind" json:"kind"`

	// Min and Max declare the value range for numeric kinds.
	Min float64 `koanf:"min" json:"min"`
	Max float64 `koanf:"max" json:"max"`
	// Neutral is the documented default when the text carries no signal.
	Neutral float64 `koanf:"neutral" json:"neutral"`
	// DefaultCategory is the documented default for categorical factors.
	DefaultCategory string `koanf:"default_category" json:"default_category,omitempty"`

	// Sparse factors exclude neutral defaults from aggregation
	// denominators.
	Sparse bool `koanf:"sparse" json:"sparse,omitempty"`

	Method Method `koanf:"method" json:"method"`
	// Cap is the per-1000-words match count treated as a full score for
	// density scoring. Zero means the catalog default of 5.
	Cap float64 `koanf:"cap" json:"cap,omitempty"`
	// Threshold is the minimum group score for dominant scoring before
	// falling back to DefaultCategory. Zero means the default of 0.1.
	Threshold float64 `koanf:"threshold" json:"threshold,omitempty"`

	Groups []PatternGroup `koanf:"groups" json:"groups"`
}

// Categories returns the declared category order for a categorical
// factor: the group names in declaration order, followed by the default
// category if it is not itself a group.
func (f *Factor) Categories() []string {
	if f.Kind != KindCategorical {
		return nil
	}
	out := make([]string, 0, len(f.Groups)+1)
	seen := make(map[string]bool, len(f.Groups)+1)
	for _, g := range f.Groups {
		if !seen[g.Name] {
			out = append(out, g.Name)
			seen[g.Name] = true
		}
	}
	if f.DefaultCategory != "" && !seen[f.DefaultCategory] {
		out = append(out, f.DefaultCategory)
	}
	return out
}

// Catalog is a versioned set of factors.
type Catalog struct {
	Version string   `koanf:"version" json:"version"`
	Factors []Factor `koanf:"factors" json:"factors"`
}

// Factor returns the factor with the given name, or nil.
func (c *Catalog) Factor(name string) *Factor {
	for i := range c.Factors {
		if c.Factors[i].Name == name {
			return &c.Factors[i]
		}
	}
	return nil
}

// NumericFactors returns numeric and directional factors in declaration
// order.
func (c *Catalog) NumericFactors() []Factor {
	var out []Factor
	for _, f := range c.Factors {
		if f.Kind == KindNumeric || f.Kind == KindDirectional {
			out = append(out, f)
		}
	}
	return out
}

// CategoricalFactors returns categorical factors in declaration order.
func (c *Catalog) CategoricalFactors() []Factor {
	var out []Factor
	for _, f := range c.Factors {
		if f.Kind == KindCategorical {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks structural consistency and compiles every pattern once
// to catch invalid regexes at load time rather than mid-extraction.
func (c *Catalog) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("catalog version is required")
	}
	if len(c.Factors) == 0 {
		return fmt.Errorf("catalog declares no factors")
	}

	seen := make(map[string]bool, len(c.Factors))
	for i := range c.Factors {
		f := &c.Factors[i]
		if f.Name == "" {
			return fmt.Errorf("factor %d has no name", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate factor %q", f.Name)
		}
		seen[f.Name] = true

		if err := validateFactor(f); err != nil {
			return fmt.Errorf("factor %q: %w", f.Name, err)
		}
	}
	return nil
}

func validateFactor(f *Factor) error {
	if len(f.Groups) == 0 {
		return fmt.Errorf("no pattern groups")
	}
	for _, g := range f.Groups {
		if len(g.Patterns) == 0 {
			return fmt.Errorf("group %q has no patterns", g.Name)
		}
		for _, p := range g.Patterns {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("group %q pattern %q: %w", g.Name, p, err)
			}
		}
	}

	switch f.Kind {
	case KindNumeric:
		if f.Method != MethodDensity {
			return fmt.Errorf("numeric factors require the density method, got %q", f.Method)
		}
		if f.Min >= f.Max {
			return fmt.Errorf("invalid range [%v,%v]", f.Min, f.Max)
		}
		if f.Neutral < f.Min || f.Neutral > f.Max {
			return fmt.Errorf("neutral %v outside range [%v,%v]", f.Neutral, f.Min, f.Max)
		}
	case KindDirectional:
		if f.Method != MethodBalance {
			return fmt.Errorf("directional factors require the balance method, got %q", f.Method)
		}
		if len(f.Groups) != 2 {
			return fmt.Errorf("balance requires exactly 2 groups, got %d", len(f.Groups))
		}
		if f.Min >= f.Max {
			return fmt.Errorf("invalid range [%v,%v]", f.Min, f.Max)
		}
	case KindCategorical:
		if f.Method != MethodDominant {
			return fmt.Errorf("categorical factors require the dominant method, got %q", f.Method)
		}
		if f.DefaultCategory == "" {
			return fmt.Errorf("categorical factors require a default category")
		}
	default:
		return fmt.Errorf("unknown kind %q", f.Kind)
	}
	return nil
}
