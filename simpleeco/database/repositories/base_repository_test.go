package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestHandleErrorWithID(t *testing.T) {
	br := &BaseRepository{}

	if err := br.HandleErrorWithID("get", "cash_balance", 1, nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	err := br.HandleErrorWithID("get", "cash_balance", "abc", fmt.Errorf("scan: %w", sql.ErrNoRows))
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if IsRepositoryError(err) {
		t.Fatalf("not found must not be a repository error")
	}

	cause := errors.New("connection reset")
	err = br.HandleErrorWithID("upsert", "item_stats", "DIAMOND", cause)
	if !IsRepositoryError(err) || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
	if got := err.Error(); got != "repository error during upsert for item_stats: connection reset" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestIsNotFoundWrapped(t *testing.T) {
	err := fmt.Errorf("load: %w", &NotFoundError{Entity: "item_stats", ID: "STONE"})
	if !IsNotFound(err) {
		t.Fatal("expected wrapped not found to match")
	}
}
