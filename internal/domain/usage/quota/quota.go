package quota

import "fmt"

// Policy is the process-wide daily AI quota. Zero limits are unlimited.
type Policy struct {
	maxWordsPerDay    int64
	maxRequestsPerDay int64
}

// NewPolicy validates and creates a Policy.
func NewPolicy(maxWordsPerDay, maxRequestsPerDay int64) (Policy, error) {
	if maxWordsPerDay < 0 {
		return Policy{}, fmt.Errorf("max words per day must be >= 0, got %d", maxWordsPerDay)
	}
	if maxRequestsPerDay < 0 {
		return Policy{}, fmt.Errorf("max requests per day must be >= 0, got %d", maxRequestsPerDay)
	}
	return Policy{maxWordsPerDay: maxWordsPerDay, maxRequestsPerDay: maxRequestsPerDay}, nil
}

// MaxWordsPerDay returns the word cap (0 = unlimited).
func (p Policy) MaxWordsPerDay() int64 { return p.maxWordsPerDay }

// MaxRequestsPerDay returns the request cap (0 = unlimited).
func (p Policy) MaxRequestsPerDay() int64 { return p.maxRequestsPerDay }

// Reason names the bound that caused a denial.
type Reason string

// Denial reasons.
const (
	ReasonNone     Reason = ""
	ReasonWords    Reason = "words"
	ReasonRequests Reason = "requests"
)

// Reservation is the outcome of a quota check.
type Reservation struct {
	Allowed bool
	// Remaining is the number of words left before this request, -1 when unlimited.
	Remaining int64
	Reason    Reason
}

// Evaluate checks whether one more request of estimatedWords fits on top of
// the current counters. It never mutates anything.
func (p Policy) Evaluate(wordsUsed, requestsCount, estimatedWords int64) Reservation {
	res := Reservation{Allowed: true, Remaining: Remaining(p.maxWordsPerDay, wordsUsed)}
	if p.maxWordsPerDay > 0 && wordsUsed+estimatedWords > p.maxWordsPerDay {
		res.Allowed = false
		res.Reason = ReasonWords
		return res
	}
	if p.maxRequestsPerDay > 0 && requestsCount+1 > p.maxRequestsPerDay {
		res.Allowed = false
		res.Reason = ReasonRequests
	}
	return res
}

// Remaining returns limit-used floored at 0, or -1 when limit is 0 (unlimited).
func Remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	if used >= limit {
		return 0
	}
	return limit - used
}
