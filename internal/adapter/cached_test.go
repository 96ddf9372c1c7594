package adapter

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCachedSource_ServesFromCache(t *testing.T) {
	f := &stubFetcher{body: loadFixture(t, "provider_one.json")}
	c := NewCachedSource(NewProviderOne(f, "http://provider.invalid"), time.Minute)

	for i := 0; i < 3; i++ {
		jobs, err := c.FetchJobs(context.Background())
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if len(jobs) != 3 {
			t.Fatalf("call %d: expected 3 jobs, got %d", i, len(jobs))
		}
	}
	if got := f.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
	if c.Name() != ProviderOneName {
		t.Errorf("Name() = %s", c.Name())
	}
}

func TestCachedSource_DoesNotCacheErrors(t *testing.T) {
	f := &stubFetcher{err: errors.New("boom")}
	c := NewCachedSource(NewProviderOne(f, "http://provider.invalid"), time.Minute)

	if _, err := c.FetchJobs(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	f.err = nil
	f.body = loadFixture(t, "provider_one.json")
	jobs, err := c.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if len(jobs) != 3 {
		t.Errorf("expected 3 jobs, got %d", len(jobs))
	}
	if got := f.calls.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
}

func TestCachedSource_ReturnsCopies(t *testing.T) {
	f := &stubFetcher{body: loadFixture(t, "provider_one.json")}
	c := NewCachedSource(NewProviderOne(f, "http://provider.invalid"), time.Minute)

	first, _ := c.FetchJobs(context.Background())
	first[0].Title = "mutated"
	second, _ := c.FetchJobs(context.Background())
	if second[0].Title == "mutated" {
		t.Error("cached slice was mutated through a returned copy")
	}
}
