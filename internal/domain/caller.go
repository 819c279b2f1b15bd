package domain

import "context"

type callerKey struct{}

type wordUsageKey struct{}

// ContextWithCaller stores the authenticated user ID in the context.
func ContextWithCaller(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, callerKey{}, userID)
}

// CallerFromContext returns the user ID placed by the identity middleware, or "".
func CallerFromContext(ctx context.Context) string {
	id, _ := ctx.Value(callerKey{}).(string)
	return id
}

// WordUsage collects the words charged against the quota for a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service;
// the service writes after a committed call; the handler reads it for response headers.
type WordUsage struct {
	Words     int
	Remaining int64
	Charged   bool
}

// NewContextWithWordUsage returns a context with an embedded usage collector.
func NewContextWithWordUsage(ctx context.Context) (context.Context, *WordUsage) {
	u := &WordUsage{Remaining: -1}
	return context.WithValue(ctx, wordUsageKey{}, u), u
}

// WordUsageFromContext extracts the usage collector from context. Returns nil if not set.
func WordUsageFromContext(ctx context.Context) *WordUsage {
	u, _ := ctx.Value(wordUsageKey{}).(*WordUsage)
	return u
}

// Charge records committed words and the remaining daily allowance.
func (u *WordUsage) Charge(words int, remaining int64) {
	if u != nil {
		u.Words += words
		u.Remaining = remaining
		u.Charged = true
	}
}
