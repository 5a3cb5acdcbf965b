package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestGradebookStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewGradebookStore(newClient(mr), time.Minute)

	if _, created := store.GetOrCreate("quiz-1"); !created {
		t.Fatalf("expected gradebook to be created")
	}
	if !mr.Exists("quiz:gradebook:quiz-1") {
		t.Fatalf("expected redis key to be set")
	}

	store.DeleteIfIdle("quiz-1")
	if mr.Exists("quiz:gradebook:quiz-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("quiz-1"); ok {
		t.Fatalf("expected gradebook dropped")
	}
}

func TestGradebookStoreRefreshesLiveness(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewGradebookStore(newClient(mr), time.Minute)
	store.GetOrCreate("quiz-1")

	mr.FastForward(45 * time.Second)
	if _, created := store.GetOrCreate("quiz-1"); created {
		t.Fatalf("expected existing gradebook")
	}
	if ttl := mr.TTL("quiz:gradebook:quiz-1"); ttl != time.Minute {
		t.Fatalf("expected marker ttl refreshed to 1m, got %v", ttl)
	}

	mr.FastForward(45 * time.Second)
	if !mr.Exists("quiz:gradebook:quiz-1") {
		t.Fatalf("expected marker alive past the original ttl")
	}
}
