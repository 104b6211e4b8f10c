package memory

import (
	"context"
	"testing"
	"time"

	"finsync/internal/core"
)

func TestAppendAndItems(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx := core.Transaction{
		OwnerID:  "u1",
		Kind:     core.Expense,
		Amount:   250,
		Category: "Food",
		Date:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}

	ref, err := s.Append(ctx, tx)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("ref = %q, want mem:1", ref)
	}

	items := s.Items()
	if len(items) != 1 || items[0].Amount != 250 {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	s := New()
	if _, err := s.Append(context.Background(), core.Transaction{Kind: "bogus"}); err == nil {
		t.Fatal("expected validation error")
	}
}
