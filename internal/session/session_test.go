package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewID_FormatAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := NewID()
		if !validID(id) {
			t.Fatalf("invalid id %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestNewID_TimeOrdered(t *testing.T) {
	a := NewID()
	time.Sleep(2 * time.Millisecond)
	b := NewID()
	if a[:10] >= b[:10] {
		t.Errorf("expected timestamp prefix to increase: %q then %q", a, b)
	}
}

func TestNewID_SortsWithinMillisecond(t *testing.T) {
	prev := NewID()
	for range 500 {
		next := NewID()
		if next <= prev {
			t.Fatalf("expected %q to sort after %q", next, prev)
		}
		prev = next
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"01ARZ3NDEKTSV4RRFFQ69G5FAV", true},
		{"short", false},
		{"01ARZ3NDEKTSV4RRFFQ69G5FAU", false}, // U is not Crockford
		{"../../../../etc/passwd0000", false},
		{"01arz3ndektsv4rrffq69g5fav", false}, // not canonical
		{"81ARZ3NDEKTSV4RRFFQ69G5FAV", false}, // timestamp overflow
		{"", false},
	}
	for _, tt := range tests {
		if got := validID(tt.in); got != tt.want {
			t.Errorf("validID(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestStore_CreateGet(t *testing.T) {
	store := NewStore(time.Hour)
	sess := store.Create([]File{
		{Name: "A.pdf", Original: []byte("a"), PDF: []byte("a"), Pages: 1},
		{Name: "B.pdf", Original: []byte("bb"), PDF: []byte("bb"), Pages: 2},
	})

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	files := got.Files()
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].Name != "A.pdf" || files[1].Name != "B.pdf" {
		t.Errorf("expected upload order preserved, got %q, %q", files[0].Name, files[1].Name)
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := NewStore(time.Hour)
	if _, err := store.Get(NewID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get("not-an-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(time.Hour)
	sess := store.Create([]File{{Name: "A.pdf"}})
	if !store.Delete(sess.ID) {
		t.Fatal("expected delete to report existing session")
	}
	if store.Delete(sess.ID) {
		t.Error("expected second delete to report missing session")
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d", store.Len())
	}
}

func TestStore_TTLCleanup(t *testing.T) {
	store := NewStore(50 * time.Millisecond)

	old := store.Create([]File{{Name: "old.pdf"}})

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := store.Create([]File{{Name: "new.pdf"}})

	if removed := store.Cleanup(); removed != 1 {
		t.Errorf("expected 1 session removed, got %d", removed)
	}
	if _, err := store.Get(old.ID); !errors.Is(err, ErrNotFound) {
		t.Error("expected expired session to be cleaned up")
	}
	if _, err := store.Get(fresh.ID); err != nil {
		t.Error("expected fresh session to survive cleanup")
	}
}

func TestStore_GetRefreshesExpiry(t *testing.T) {
	store := NewStore(80 * time.Millisecond)
	sess := store.Create([]File{{Name: "A.pdf"}})

	time.Sleep(50 * time.Millisecond)
	if _, err := store.Get(sess.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	store.Cleanup()
	if _, err := store.Get(sess.ID); err != nil {
		t.Error("expected touched session to survive cleanup")
	}
}

func TestStore_CleanupLoop(t *testing.T) {
	store := NewStore(10 * time.Millisecond)
	store.Create([]File{{Name: "A.pdf"}})

	store.Start(context.Background(), 5*time.Millisecond)
	defer store.Stop()

	deadline := time.Now().Add(time.Second)
	for store.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.Len() != 0 {
		t.Error("expected cleanup loop to evict the expired session")
	}
}

func TestStore_StopWithoutStart(t *testing.T) {
	store := NewStore(time.Hour)
	// Should not block or panic.
	store.Stop()
}

func TestSession_File(t *testing.T) {
	store := NewStore(time.Hour)
	sess := store.Create([]File{{Name: "A.pdf", Original: []byte("%PDF")}})

	f, err := sess.File(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(f.Original) != "%PDF" {
		t.Errorf("expected original bytes, got %q", f.Original)
	}
	if _, err := sess.File(1); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
	if _, err := sess.File(-1); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound for negative index, got %v", err)
	}
}

func TestSession_Snapshot(t *testing.T) {
	store := NewStore(time.Hour)
	sess := store.Create([]File{{Name: "A.pdf", Original: []byte("abc"), Pages: 4, Excerpt: "Intro"}})

	snap := sess.Snapshot(store.TTL())
	if snap.ID != sess.ID {
		t.Errorf("expected id %q, got %q", sess.ID, snap.ID)
	}
	if len(snap.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(snap.Files))
	}
	fi := snap.Files[0]
	if fi.Title != "A.pdf" {
		t.Errorf("expected default title to be the file name, got %q", fi.Title)
	}
	if fi.Pages != 4 || fi.Bytes != 3 || fi.Excerpt != "Intro" {
		t.Errorf("unexpected file info %+v", fi)
	}
	if !snap.ExpiresAt.After(snap.CreatedAt) {
		t.Error("expected expiry after creation")
	}
}

func TestUniqueNames(t *testing.T) {
	in := []File{{Name: "a.pdf"}, {Name: "a.pdf"}, {Name: "a (2).pdf"}, {Name: "b.pdf"}}
	got := UniqueNames(in)
	want := []string{"a.pdf", "a (2).pdf", "a (2) (2).pdf", "b.pdf"}
	for i, w := range want {
		if got[i].Name != w {
			t.Errorf("file %d: expected %q, got %q", i, w, got[i].Name)
		}
	}
	if in[1].Name != "a.pdf" {
		t.Error("expected input slice to be left untouched")
	}
}
