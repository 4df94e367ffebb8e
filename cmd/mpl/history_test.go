package main

import (
	"context"
	"path/filepath"
	"testing"
)

func TestHistoryStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := openHistory(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ctx := context.Background()
	inputs := []string{"bind x to 1", "echo x", "echo y"}
	for i, input := range inputs {
		if err := store.Append(ctx, "s1", input, i == 2); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0] != "echo x" || recent[1] != "echo y" {
		t.Fatalf("unexpected recent history %v", recent)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := openHistory(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	all, err := reopened.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent after reopen: %v", err)
	}
	if len(all) != 3 || all[0] != "bind x to 1" {
		t.Fatalf("history not persisted: %v", all)
	}
}
