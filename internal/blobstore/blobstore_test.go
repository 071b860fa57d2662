package blobstore

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	ref, err := m.Put(ctx, Object{Name: "Data.CSV", Data: []byte("a,b\n1,2\n")})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasSuffix(ref.ID, ".csv") {
		t.Fatalf("ID = %q, want .csv extension", ref.ID)
	}
	got, err := m.Get(ctx, ref.ID)
	if err != nil || string(got) != "a,b\n1,2\n" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if err := m.Delete(ctx, ref.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := m.Delete(ctx, ref.ID); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if _, err := m.Get(ctx, ref.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err = %v, want ErrNotFound", err)
	}
	if m.Len() != 0 {
		t.Fatalf("Len = %d, want 0", m.Len())
	}
}

func TestNewKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, name, wantPrefix, wantSuffix string
	}{
		{"", "x.csv", "", ".csv"},
		{"uploads/", "x.CSV", "uploads/", ".csv"},
		{"uploads", "noext", "uploads/", ""},
	}
	for _, tt := range tests {
		got := NewKey(tt.prefix, tt.name)
		if !strings.HasPrefix(got, tt.wantPrefix) || !strings.HasSuffix(got, tt.wantSuffix) {
			t.Fatalf("NewKey(%q, %q) = %q", tt.prefix, tt.name, got)
		}
	}
	if a, b := NewKey("", "a.csv"), NewKey("", "a.csv"); a == b {
		t.Fatalf("NewKey returned the same key twice: %q", a)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	s, err := New(context.Background(), Config{Kind: "memory"})
	if err != nil {
		t.Fatalf("New(memory): %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("New(memory) = %T", s)
	}
	_, err = New(context.Background(), Config{Kind: "nope"})
	if err == nil || !strings.Contains(err.Error(), "unsupported blobstore.kind=nope") {
		t.Fatalf("New(nope) err = %v", err)
	}
}

func TestJoinURL(t *testing.T) {
	t.Parallel()

	if got := JoinURL("https://cdn.example.com/", "/a/b.csv"); got != "https://cdn.example.com/a/b.csv" {
		t.Fatalf("JoinURL = %q", got)
	}
}
