package quota

import "testing"

func TestNewPolicy(t *testing.T) {
	p, err := NewPolicy(5000, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MaxWordsPerDay() != 5000 || p.MaxRequestsPerDay() != 100 {
		t.Errorf("policy = %d/%d", p.MaxWordsPerDay(), p.MaxRequestsPerDay())
	}
}

func TestNewPolicy_Negative(t *testing.T) {
	if _, err := NewPolicy(-1, 0); err == nil {
		t.Error("expected error for negative words")
	}
	if _, err := NewPolicy(0, -1); err == nil {
		t.Error("expected error for negative requests")
	}
}

func TestEvaluate(t *testing.T) {
	p, _ := NewPolicy(100, 3)

	tests := []struct {
		name          string
		words, reqs   int64
		estimate      int64
		wantAllowed   bool
		wantReason    Reason
		wantRemaining int64
	}{
		{"fresh day", 0, 0, 10, true, ReasonNone, 100},
		{"exactly at word limit", 90, 0, 10, true, ReasonNone, 10},
		{"over word limit", 95, 0, 10, false, ReasonWords, 5},
		{"request limit reached", 10, 3, 1, false, ReasonRequests, 90},
		{"last request allowed", 10, 2, 1, true, ReasonNone, 90},
		{"already over", 150, 0, 0, false, ReasonWords, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Evaluate(tt.words, tt.reqs, tt.estimate)
			if got.Allowed != tt.wantAllowed || got.Reason != tt.wantReason || got.Remaining != tt.wantRemaining {
				t.Errorf("Evaluate = %+v, want allowed=%v reason=%q remaining=%d",
					got, tt.wantAllowed, tt.wantReason, tt.wantRemaining)
			}
		})
	}
}

func TestEvaluate_Unlimited(t *testing.T) {
	got := Policy{}.Evaluate(1_000_000, 1_000_000, 1_000_000)
	if !got.Allowed || got.Remaining != -1 {
		t.Errorf("Evaluate = %+v, want allowed unlimited", got)
	}
}
