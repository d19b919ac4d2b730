package resilience

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})

	if rl.config.Rate != 100 {
		t.Errorf("Rate = %v, want 100", rl.config.Rate)
	}
	if rl.config.Burst != 10 {
		t.Errorf("Burst = %d, want 10", rl.config.Burst)
	}
	if rl.config.MaxWait != time.Second {
		t.Errorf("MaxWait = %v, want 1s", rl.config.MaxWait)
	}
}

func TestRateLimiter_StartsFull(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 5})

	if got := rl.Tokens(); got < 4.99 || got > 5 {
		t.Errorf("Tokens() = %v, want 5", got)
	}
}

func TestRateLimiter_AllowConsumesBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 3})

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Errorf("Allow() #%d = false, want true", i+1)
		}
	}
	if rl.Allow() {
		t.Error("Allow() after burst exhausted = true, want false")
	}
}

func TestRateLimiter_TokensNeverExceedBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1000, Burst: 5})

	// Deplete, then wait far longer than needed to refill.
	for i := 0; i < 5; i++ {
		rl.Allow()
	}
	time.Sleep(50 * time.Millisecond)

	if got := rl.Tokens(); got > 5 {
		t.Errorf("Tokens() = %v, want <= burst (5)", got)
	}
}

func TestRateLimiter_TokensNeverNegative(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2})

	for i := 0; i < 10; i++ {
		rl.Allow()
	}

	if got := rl.Tokens(); got < 0 {
		t.Errorf("Tokens() = %v, want >= 0", got)
	}
}

func TestRateLimiter_RefillsToCapacity(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 100, Burst: 3})

	for i := 0; i < 3; i++ {
		rl.Allow()
	}

	// capacity / rate = 30ms to refill from empty.
	time.Sleep(40 * time.Millisecond)

	if got := rl.Tokens(); got < 2.99 {
		t.Errorf("Tokens() after full refill window = %v, want 3", got)
	}
}

func TestRateLimiter_AllowN(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 5})

	if !rl.AllowN(3) {
		t.Error("AllowN(3) = false, want true")
	}
	if rl.AllowN(3) {
		t.Error("AllowN(3) with 2 tokens left = true, want false")
	}
	if !rl.AllowN(2) {
		t.Error("AllowN(2) = false, want true")
	}
}

func TestRateLimiter_WaitAccrues(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 100, Burst: 1, MaxWait: time.Second})

	rl.Allow() // drain

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Wait() took %v, want ~10ms", elapsed)
	}
}

func TestRateLimiter_WaitMaxWaitExceeded(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.1, Burst: 1, MaxWait: 20 * time.Millisecond})

	rl.Allow() // drain; next token is 10s away

	err := rl.Wait(context.Background())
	if err != ErrRateLimited {
		t.Errorf("Wait() = %v, want ErrRateLimited", err)
	}
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.1, Burst: 1, MaxWait: time.Minute})

	rl.Allow() // drain

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Wait() = %v, want context.DeadlineExceeded", err)
	}
}

func TestRateLimiter_WaitCancelledBeforeStart(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 100, Burst: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.Wait(ctx); err != context.Canceled {
		t.Errorf("Wait() = %v, want context.Canceled", err)
	}
}

func TestRateLimiter_Rejections(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})

	rl.Allow()
	rl.Allow()
	rl.Allow()

	if got := rl.Rejections(); got != 2 {
		t.Errorf("Rejections() = %d, want 2", got)
	}
}

func TestRateLimiter_Execute(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})

	called := 0
	op := func(ctx context.Context) error {
		called++
		return nil
	}

	if err := rl.Execute(context.Background(), false, op); err != nil {
		t.Errorf("Execute() = %v", err)
	}
	if err := rl.Execute(context.Background(), false, op); err != ErrRateLimited {
		t.Errorf("Execute() with empty bucket = %v, want ErrRateLimited", err)
	}
	if called != 1 {
		t.Errorf("op called %d times, want 1", called)
	}
}

func TestRateLimiter_ConcurrentConservation(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 50})

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 50 {
		t.Errorf("admitted = %d, want exactly burst (50)", admitted)
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2})

	rl.Allow()
	rl.Allow()
	rl.Reset()

	if !rl.Allow() {
		t.Error("Allow() after Reset = false, want true")
	}
}
