package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"
)

type flakySigner struct {
	failing map[string]bool
}

func (f *flakySigner) SignGetURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.failing[key] {
		return "", fmt.Errorf("signer rejected %s", key)
	}
	return "https://signed.example.com/" + key, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolve(t *testing.T) {
	r := NewResolver(&flakySigner{}, time.Minute, quietLogger())
	u, err := r.Resolve(context.Background(), "properties/a.jpg")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if u != "https://signed.example.com/properties/a.jpg" {
		t.Errorf("unexpected url %q", u)
	}
}

func TestResolveAllPreservesOrderAndSkipsFailures(t *testing.T) {
	r := NewResolver(&flakySigner{failing: map[string]bool{"b": true}}, time.Minute, quietLogger())

	urls := r.ResolveAll(context.Background(), []string{"a", "b", "c"})
	want := []string{
		"https://signed.example.com/a",
		"https://signed.example.com/c",
	}
	if len(urls) != len(want) {
		t.Fatalf("expected %d urls, got %d: %v", len(want), len(urls), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("url %d: expected %q, got %q", i, want[i], urls[i])
		}
	}
}

func TestResolveAllEmpty(t *testing.T) {
	r := NewResolver(&flakySigner{}, time.Minute, quietLogger())
	if urls := r.ResolveAll(context.Background(), nil); len(urls) != 0 {
		t.Errorf("expected no urls, got %v", urls)
	}
}

func TestStaticSigner(t *testing.T) {
	s, err := NewStaticSigner("https://cdn.example.com/media/")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	u, err := s.SignGetURL(context.Background(), "properties/x.png", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if u != "https://cdn.example.com/media/properties/x.png" {
		t.Errorf("unexpected url %q", u)
	}
	if _, err := s.SignGetURL(context.Background(), "", time.Minute); err == nil {
		t.Error("expected error for empty key")
	}
}
