package catalog

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrIncompleteSelection means the query does not carry exactly one value
	// for every attribute field, so no single variant can be resolved.
	ErrIncompleteSelection = errors.New("variant selection is incomplete")
	// ErrNoMatch means no available variant carries the selected combination.
	ErrNoMatch = errors.New("no purchasable variant matches the selection")
	// ErrVariantConflict means more than one variant matched a fully specified
	// selection. The uniqueness constraint on variant tables makes this
	// impossible for healthy data, so it is surfaced as an integrity condition
	// instead of picking an arbitrary row.
	ErrVariantConflict = errors.New("multiple variants match a fully specified selection")
)

// Query maps attribute field names to requested values, shaped like url.Values
// so handlers can pass request queries through directly.
type Query map[string][]string

// Values returns the non-blank requested values for one field.
func (q Query) Values(field string) []string {
	var out []string
	for _, v := range q[field] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Filter returns the available variants matching the query: within one
// attribute a variant matches if it carries any of the requested values,
// attributes combine with AND, and an attribute with no requested values
// imposes no constraint. A requested value that cannot be canonicalized for
// its field (e.g. a non-numeric shoe size) fails soft: the whole pass returns
// an empty result rather than an error.
func Filter(spec Spec, variants []Variant, q Query) []Variant {
	want, ok := wantSets(spec, q)
	if !ok {
		return nil
	}

	var out []Variant
	for _, v := range variants {
		if !v.Available {
			continue
		}
		if matches(v, want) {
			out = append(out, v)
		}
	}
	return out
}

// wantSets builds the canonical constraint set per field from the query.
// ok is false when a requested value cannot be canonicalized for its field.
func wantSets(spec Spec, q Query) (map[string]map[string]bool, bool) {
	want := make(map[string]map[string]bool, len(spec.Fields))
	for _, f := range spec.Fields {
		vals := q.Values(f.Name)
		if len(vals) == 0 {
			continue
		}
		set := make(map[string]bool, len(vals))
		for _, raw := range vals {
			cv, ok := canonicalValue(f, raw)
			if !ok {
				return nil, false
			}
			set[cv] = true
		}
		want[f.Name] = set
	}
	return want, true
}

func matches(v Variant, want map[string]map[string]bool) bool {
	for field, set := range want {
		if !set[v.Attrs[field]] {
			return false
		}
	}
	return true
}

// matchesExcept is matches with one field's constraint lifted.
func matchesExcept(v Variant, want map[string]map[string]bool, field string) bool {
	for f, set := range want {
		if f == field {
			continue
		}
		if !set[v.Attrs[f]] {
			return false
		}
	}
	return true
}

// canonicalValue normalizes a requested value into the representation stored
// on variants: decimals are reparsed so "42.0" and "42" compare equal.
func canonicalValue(f AttributeField, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if f.Kind == FieldDecimal {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return "", false
		}
		return d.String(), true
	}
	return raw, true
}

// Facet is the distinct value set of one attribute field across a result set,
// used to render the filter UI.
type Facet struct {
	Field  string       `json:"field"`
	Label  string       `json:"label"`
	Values []FacetValue `json:"values"`
}

type FacetValue struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// Facets computes, for every attribute field of the type, the values that
// remain viable given the query, tagging each value as selected when it
// appears among the query's requested values for that field. Each field's
// listing is cross-filtered by the constraints on every OTHER field, with the
// field's own constraint lifted, so switching to a sibling value or
// deselecting stays possible in the UI. Only available variants contribute.
// Values keep first-seen order; when sorted is true and the type requests
// sorted catalog-wide output, they are ordered instead (numerically for
// decimal fields).
func Facets(spec Spec, variants []Variant, q Query, sorted bool) []Facet {
	want, ok := wantSets(spec, q)
	if !ok {
		// a malformed selection filters to nothing; the facet listing keeps
		// showing the unconstrained values so the user can recover
		want = nil
	}

	out := make([]Facet, 0, len(spec.Fields))
	for _, f := range spec.Fields {
		selected := want[f.Name]

		seen := make(map[string]bool)
		var values []FacetValue
		for _, v := range variants {
			if !v.Available {
				continue
			}
			if !matchesExcept(v, want, f.Name) {
				continue
			}
			val := v.Attrs[f.Name]
			if val == "" || seen[val] {
				continue
			}
			seen[val] = true
			values = append(values, FacetValue{Value: val, Selected: selected[val]})
		}

		if sorted && spec.SortedFacets {
			sortFacetValues(f, values)
		}
		out = append(out, Facet{Field: f.Name, Label: f.Label, Values: values})
	}
	return out
}

func sortFacetValues(f AttributeField, values []FacetValue) {
	sort.SliceStable(values, func(i, j int) bool {
		if f.Kind == FieldDecimal {
			a, errA := decimal.NewFromString(values[i].Value)
			b, errB := decimal.NewFromString(values[j].Value)
			if errA == nil && errB == nil {
				return a.LessThan(b)
			}
		}
		return values[i].Value < values[j].Value
	})
}

// ResolveExact determines whether the query pins down exactly one purchasable
// variant. It requires exactly one non-blank value per attribute field.
func ResolveExact(spec Spec, variants []Variant, q Query) (*Variant, error) {
	for _, f := range spec.Fields {
		if len(q.Values(f.Name)) != 1 {
			return nil, ErrIncompleteSelection
		}
	}

	matched := Filter(spec, variants, q)
	switch len(matched) {
	case 0:
		return nil, ErrNoMatch
	case 1:
		v := matched[0]
		return &v, nil
	default:
		return nil, ErrVariantConflict
	}
}
