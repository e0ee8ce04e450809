// Package predict trains per-entity outcome classifiers from factor
// records and serves predictions with calibrated class distributions.
// Feature vectors are built against the global catalog (numeric factors
// in declaration order, then one-hot columns for every declared category)
// so models trained for different entities stay comparable.
package predict

import (
	"fmt"

	"github.com/fallaxis/jurimetrics/internal/analysis"
	"github.com/fallaxis/jurimetrics/internal/catalog"
)

// Vectorizer maps factor values onto the ordered feature vector declared
// by a catalog version.
type Vectorizer struct {
	catalogVersion string
	names          []string

	numeric []catalog.Factor
	// oneHot maps categorical factor name -> category -> column index.
	oneHot map[string]map[string]int
	// defaults maps categorical factor name -> declared default category.
	defaults map[string]string
	// numericIndex maps numeric factor name -> column index.
	numericIndex map[string]int
}

// NewVectorizer builds the feature mapping for a catalog. Columns are
// numeric factors in declaration order followed by "factor=category"
// one-hot columns in declaration order.
func NewVectorizer(cat *catalog.Catalog) *Vectorizer {
	v := &Vectorizer{
		catalogVersion: cat.Version,
		oneHot:         make(map[string]map[string]int),
		defaults:       make(map[string]string),
		numericIndex:   make(map[string]int),
	}

	for _, f := range cat.NumericFactors() {
		v.numericIndex[f.Name] = len(v.names)
		v.numeric = append(v.numeric, f)
		v.names = append(v.names, f.Name)
	}
	for _, f := range cat.CategoricalFactors() {
		cols := make(map[string]int)
		for _, c := range f.Categories() {
			cols[c] = len(v.names)
			v.names = append(v.names, f.Name+"="+c)
		}
		v.oneHot[f.Name] = cols
		v.defaults[f.Name] = f.DefaultCategory
	}
	return v
}

// FeatureNames returns the ordered feature vector, one name per column.
func (v *Vectorizer) FeatureNames() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// CatalogVersion reports the catalog the mapping was built from.
func (v *Vectorizer) CatalogVersion() string { return v.catalogVersion }

// FromRecord vectorizes a stored factor record. Missing factors fall back
// to the catalog defaults; a categorical value outside the catalog leaves
// its one-hot block zeroed (stored records from older catalogs are not a
// caller error).
func (v *Vectorizer) FromRecord(r *analysis.DecisionFactorRecord) []float64 {
	x := make([]float64, len(v.names))

	for _, f := range v.numeric {
		val, ok := r.Numeric[f.Name]
		if !ok {
			val = f.Neutral
		}
		x[v.numericIndex[f.Name]] = clamp(val, f.Min, f.Max)
	}
	for factor, cols := range v.oneHot {
		val, ok := r.Categorical[factor]
		if !ok {
			val = v.defaults[factor]
		}
		if col, known := cols[val]; known {
			x[col] = 1
		}
	}
	return x
}

// FromFactorMap vectorizes a caller-supplied hypothetical case. Missing
// factors default per catalog exactly as in extraction, but values that
// cannot be represented under the schema fail with FeatureMismatchError
// instead of being silently zeroed.
func (v *Vectorizer) FromFactorMap(numeric map[string]float64, categorical map[string]string) ([]float64, error) {
	for name := range numeric {
		if _, ok := v.numericIndex[name]; !ok {
			return nil, &analysis.FeatureMismatchError{Feature: name}
		}
	}
	for name, val := range categorical {
		cols, ok := v.oneHot[name]
		if !ok {
			return nil, &analysis.FeatureMismatchError{Feature: name}
		}
		if _, known := cols[val]; !known {
			return nil, &analysis.FeatureMismatchError{Feature: name, Value: val}
		}
	}

	x := make([]float64, len(v.names))
	for _, f := range v.numeric {
		val, ok := numeric[f.Name]
		if !ok {
			val = f.Neutral
		}
		x[v.numericIndex[f.Name]] = clamp(val, f.Min, f.Max)
	}
	for factor, cols := range v.oneHot {
		val, ok := categorical[factor]
		if !ok {
			val = v.defaults[factor]
		}
		if col, known := cols[val]; known {
			x[col] = 1
		}
	}
	return x, nil
}

// matches reports whether the vectorizer produces exactly the given
// feature layout. Predictions against a model trained under a different
// layout must be refused.
func (v *Vectorizer) matches(featureNames []string) error {
	if len(featureNames) != len(v.names) {
		return fmt.Errorf("feature count mismatch: model has %d, catalog has %d",
			len(featureNames), len(v.names))
	}
	for i, n := range v.names {
		if featureNames[i] != n {
			return fmt.Errorf("feature %d mismatch: model %q, catalog %q", i, featureNames[i], n)
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
