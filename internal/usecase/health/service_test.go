package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockPinger struct {
	err   error
	delay time.Duration
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

type mockAIChecker struct {
	err error
}

func (m *mockAIChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{}, &mockAIChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{ComponentSearchEngine, ComponentUsageStore, ComponentAI} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_EngineDown(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("connection refused")}, &mockPinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentSearchEngine] != CheckError {
		t.Errorf("expected engine error, got %q", r.Checks[ComponentSearchEngine])
	}
	if r.Checks[ComponentUsageStore] != CheckOK {
		t.Errorf("expected usage ok, got %q", r.Checks[ComponentUsageStore])
	}
}

func TestCheck_AllDown(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("x")}, &mockPinger{err: errors.New("y")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_OptionalComponentsOmitted(t *testing.T) {
	svc := New(&mockPinger{}, nil, nil)
	r := svc.Check(context.Background())

	if len(r.Checks) != 1 {
		t.Errorf("expected 1 check, got %d", len(r.Checks))
	}
	if _, ok := r.Checks[ComponentAI]; ok {
		t.Error("ai check should be omitted when nil")
	}
}

func TestCheck_SlowComponentTimesOut(t *testing.T) {
	svc := New(&mockPinger{delay: time.Minute}, &mockPinger{}, nil)
	svc.timeout = 20 * time.Millisecond

	start := time.Now()
	r := svc.Check(context.Background())
	if time.Since(start) > 5*time.Second {
		t.Fatal("check did not honor timeout")
	}
	if r.Checks[ComponentSearchEngine] != CheckError {
		t.Errorf("expected engine error, got %q", r.Checks[ComponentSearchEngine])
	}
	if r.Checks[ComponentUsageStore] != CheckOK {
		t.Errorf("expected usage ok, got %q", r.Checks[ComponentUsageStore])
	}
}

func TestPingFunc(t *testing.T) {
	want := errors.New("nope")
	if err := PingFunc(func(context.Context) error { return want }).Ping(context.Background()); !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}
