package files

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	text := "original"
	saved, err := store.Save(context.Background(), FileMetadata{
		UserID:        "u1",
		FileName:      "a.pdf",
		StorageKey:    "u1/t_a.pdf",
		UploadedAt:    time.Now(),
		ExtractedText: &text,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	text = "mutated"
	*saved.ExtractedText = "mutated too"

	got, err := store.FindByID(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if *got.ExtractedText != "original" {
		t.Fatalf("stored record was mutated: %q", *got.ExtractedText)
	}
}

func TestMemoryStoreOrdering(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	var ids []string
	for i, name := range []string{"a.txt", "b.txt", "a.txt"} {
		meta, err := store.Save(ctx, FileMetadata{
			UserID:     "u1",
			FileName:   name,
			StorageKey: name + string(rune('0'+i)),
			UploadedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		ids = append(ids, meta.ID)
	}

	list, err := store.FindByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("FindByUser: %v", err)
	}
	if len(list) != 3 || list[0].ID != ids[2] || list[2].ID != ids[0] {
		t.Fatalf("unexpected order: %+v", list)
	}

	newest, err := store.FindByUserAndName(ctx, "u1", "a.txt")
	if err != nil {
		t.Fatalf("FindByUserAndName: %v", err)
	}
	if newest.ID != ids[2] {
		t.Fatalf("expected %s, got %s", ids[2], newest.ID)
	}
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Save(ctx, FileMetadata{UserID: "u1"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
