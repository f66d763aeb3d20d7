package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/neurobridge-grading/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domainagg.ErrorCode
	}{
		{"validation", ValidationError("bad"), domainagg.CodeValidation},
		{"record_not_found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), domainagg.CodeNotFound},
		{"canceled", context.Canceled, domainagg.CodeRetryable},
		{"unique", &pgconn.PgError{Code: "23505"}, domainagg.CodeConflict},
		{"fk", &pgconn.PgError{Code: "23503"}, domainagg.CodePreconditionFailed},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, domainagg.CodeRetryable},
		{"sqlite_unique", errors.New("UNIQUE constraint failed: criterion_score.submission_id"), domainagg.CodeConflict},
		{"sqlite_locked", errors.New("database is locked"), domainagg.CodeRetryable},
		{"other", errors.New("boom"), domainagg.CodeInternal},
	}
	for _, tc := range cases {
		if got := domainagg.CodeOf(MapError("op", tc.err)); got != tc.want {
			t.Fatalf("%s: want %s got %s", tc.name, tc.want, got)
		}
	}
	if MapError("op", nil) != nil {
		t.Fatalf("nil should map to nil")
	}
}

func TestSwapStatusRejectsIncompleteRequests(t *testing.T) {
	if _, err := swapStatus(nil, submissionTable, uuid.Nil, []string{"submitted"}, map[string]any{"status": "grading"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("nil id: want validation, got %v", err)
	}
	if _, err := swapStatus(nil, submissionTable, uuid.New(), nil, map[string]any{"status": "grading"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("no source statuses: want validation, got %v", err)
	}
	if _, err := writeDB(dbctx.Context{Ctx: context.Background()}, nil); !errors.Is(err, ErrInvariant) {
		t.Fatalf("no db: want invariant, got %v", err)
	}
}

func TestRequireStatusAllowed(t *testing.T) {
	if err := RequireStatusAllowed("Graded", "graded", "returned"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireStatusAllowed("grading", "graded", "returned"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestTxAbortedOnlyForRerunnableFailures(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&pgconn.PgError{Code: "40001"}, true},
		{fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"}), true},
		{errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{&pgconn.PgError{Code: "23505"}, false},
		{&pgconn.PgError{Code: "55P03"}, false},
		{errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := txAborted(tc.err); got != tc.want {
			t.Fatalf("%v: want %v got %v", tc.err, tc.want, got)
		}
	}
}
