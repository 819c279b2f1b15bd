package order

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/notesearch/internal/domain"
)

// Direction is a sort direction.
type Direction string

// Supported directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// IsValid reports whether d is a supported direction.
func (d Direction) IsValid() bool {
	return d == Asc || d == Desc
}

// ParseDirection accepts asc/desc in any case.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("%w: invalid sort direction %q (want asc or desc)", domain.ErrInvalidInput, s)
	}
	return d, nil
}

// relevanceFields are the aliases that sort by the engine score.
var relevanceFields = map[string]struct{}{"score": {}, "_score": {}}

// Clause is a single sort instruction.
type Clause struct {
	field     string
	direction Direction
}

// New validates and creates a sort Clause. An empty direction defaults to asc,
// except for relevance which defaults to desc.
func New(field string, direction string) (Clause, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return Clause{}, fmt.Errorf("%w: sort field is required", domain.ErrInvalidInput)
	}
	c := Clause{field: field}
	if _, ok := relevanceFields[field]; ok {
		c.field = "_score"
	}
	if direction == "" {
		c.direction = Asc
		if c.IsRelevance() {
			c.direction = Desc
		}
		return c, nil
	}
	d, err := ParseDirection(direction)
	if err != nil {
		return Clause{}, err
	}
	c.direction = d
	return c, nil
}

// Parse reads "field" or "field:dir".
func Parse(s string) (Clause, error) {
	field, dir, _ := strings.Cut(s, ":")
	return New(field, dir)
}

// ParseList reads a comma-separated list of "field:dir" entries.
func ParseList(s string) ([]Clause, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]Clause, 0, len(parts))
	for _, p := range parts {
		c, err := Parse(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Field returns the sort field; relevance is reported as "_score".
func (c Clause) Field() string { return c.field }

// Direction returns the sort direction.
func (c Clause) Direction() Direction { return c.direction }

// IsRelevance reports whether the clause sorts by engine score.
func (c Clause) IsRelevance() bool { return c.field == "_score" }
