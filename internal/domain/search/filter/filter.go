package filter

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kailas-cloud/notesearch/internal/domain"
)

// MaxConditions is the maximum number of filter entries per search request.
const MaxConditions = 32

// Expression is a conjunction of filter conditions, ordered by field name.
type Expression struct {
	conditions []Condition
}

// NewExpression validates and creates a filter Expression.
// Conditions are sorted by key so equal inputs always build equal queries.
func NewExpression(conditions ...Condition) (Expression, error) {
	if len(conditions) > MaxConditions {
		return Expression{}, fmt.Errorf("%w: too many filters (max %d)", domain.ErrInvalidFilter, MaxConditions)
	}
	seen := make(map[string]struct{}, len(conditions))
	for _, c := range conditions {
		if _, dup := seen[c.key]; dup {
			return Expression{}, fmt.Errorf("%w: duplicate filter for field %q", domain.ErrInvalidFilter, c.key)
		}
		seen[c.key] = struct{}{}
	}
	sorted := append([]Condition(nil), conditions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].key < sorted[j].key })
	return Expression{conditions: sorted}, nil
}

// Parse converts a decoded JSON object (field name -> value or range object) into an Expression.
// Scalars become exact matches; objects with gt/gte/lt/lte keys become ranges.
// Any other shape fails with domain.ErrInvalidFilter.
func Parse(raw map[string]any) (Expression, error) {
	conditions := make([]Condition, 0, len(raw))
	for key, v := range raw {
		c, err := parseCondition(key, v)
		if err != nil {
			return Expression{}, err
		}
		conditions = append(conditions, c)
	}
	return NewExpression(conditions...)
}

func parseCondition(key string, v any) (Condition, error) {
	if obj, ok := v.(map[string]any); ok {
		r, err := parseRange(key, obj)
		if err != nil {
			return Condition{}, err
		}
		return NewRange(key, r)
	}
	return NewMatch(key, v)
}

func parseRange(key string, obj map[string]any) (Range, error) {
	var bounds [4]any
	for op, bound := range obj {
		idx, ok := rangeOps[op]
		if !ok {
			return Range{}, fmt.Errorf("%w: unsupported range operator %q for field %q",
				domain.ErrInvalidFilter, op, key)
		}
		bounds[idx] = bound
	}
	return NewRangeFilter(bounds[0], bounds[1], bounds[2], bounds[3])
}

var rangeOps = map[string]int{"gt": 0, "gte": 1, "lt": 2, "lte": 3}

// Conditions returns the conditions in field-name order.
func (e Expression) Conditions() []Condition { return e.conditions }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.conditions) == 0 }

// Condition is a single filter clause: either an exact match or a range.
type Condition struct {
	key       string
	match     any
	rangeExpr *Range
}

// NewMatch creates an exact-match condition. The value must be a non-empty string, a number or a bool.
func NewMatch(key string, value any) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("%w: filter key is required", domain.ErrInvalidFilter)
	}
	v, err := scalar(value)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: field %q: %w", domain.ErrInvalidFilter, key, err)
	}
	if s, ok := v.(string); ok && s == "" {
		return Condition{}, fmt.Errorf("%w: match value is required for field %q", domain.ErrInvalidFilter, key)
	}
	return Condition{key: key, match: v}, nil
}

// NewRange creates a range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("%w: filter key is required", domain.ErrInvalidFilter)
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() any { return c.match }

// Range returns the range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.match != nil }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// Range is a range with gt/gte/lt/lte boundaries over numbers or strings (dates).
type Range struct {
	gt  any
	gte any
	lt  any
	lte any
}

// NewRangeFilter validates and creates a Range. Nil arguments are absent boundaries.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte any) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("%w: at least one range boundary is required", domain.ErrInvalidFilter)
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("%w: cannot specify both gt and gte", domain.ErrInvalidFilter)
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("%w: cannot specify both lt and lte", domain.ErrInvalidFilter)
	}
	var r Range
	for _, b := range []struct {
		dst *any
		src any
	}{{&r.gt, gt}, {&r.gte, gte}, {&r.lt, lt}, {&r.lte, lte}} {
		if b.src == nil {
			continue
		}
		v, err := scalar(b.src)
		if err != nil {
			return Range{}, fmt.Errorf("%w: range boundary: %w", domain.ErrInvalidFilter, err)
		}
		if _, isBool := v.(bool); isBool {
			return Range{}, fmt.Errorf("%w: range boundary cannot be a bool", domain.ErrInvalidFilter)
		}
		*b.dst = v
	}
	return r, nil
}

// GT returns the lower exclusive bound, or nil.
func (r Range) GT() any { return r.gt }

// GTE returns the lower inclusive bound, or nil.
func (r Range) GTE() any { return r.gte }

// LT returns the upper exclusive bound, or nil.
func (r Range) LT() any { return r.lt }

// LTE returns the upper inclusive bound, or nil.
func (r Range) LTE() any { return r.lte }

// scalar normalizes JSON scalars; numbers become float64 or json.Number.
func scalar(v any) (any, error) {
	switch x := v.(type) {
	case string, bool, float64, json.Number:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	case nil:
		return nil, fmt.Errorf("null is not a supported filter value")
	default:
		return nil, fmt.Errorf("unsupported filter value of type %T", v)
	}
}
