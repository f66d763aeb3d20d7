package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	domainagg "github.com/yungbote/neurobridge-grading/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
)

func TestExecuteWriteReportsStatus(t *testing.T) {
	cases := []struct {
		name      string
		fnErr     error
		want      string
		conflicts int
		retries   int
	}{
		{name: "success", want: "success"},
		{name: "invariant", fnErr: InvariantError("sum mismatch"), want: string(domainagg.CodeInvariantViolation)},
		{name: "conflict", fnErr: ConflictError("claim lost"), want: string(domainagg.CodeConflict), conflicts: 1},
		{name: "retryable", fnErr: RetryableError("lock timeout"), want: string(domainagg.CodeRetryable), retries: 1},
		{name: "not_found", fnErr: NotFoundError("submission missing"), want: string(domainagg.CodeNotFound)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hooks := &spyHooks{}
			err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, "grading.test", func(_ dbctx.Context) error {
				return tc.fnErr
			})
			if (err == nil) != (tc.fnErr == nil) {
				t.Fatalf("unexpected err: %v", err)
			}
			if len(hooks.Operations) != 1 || hooks.Operations[0].Status != tc.want {
				t.Fatalf("operation status: want=%s got=%+v", tc.want, hooks.Operations)
			}
			if len(hooks.Conflicts) != tc.conflicts || len(hooks.Retries) != tc.retries {
				t.Fatalf("conflicts=%v retries=%v", hooks.Conflicts, hooks.Retries)
			}
		})
	}
}

func TestExecuteWriteKeepsCodedErrors(t *testing.T) {
	coded := domainagg.NewError(domainagg.CodeTransport, "generator", "upstream 503", nil)
	err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}}, "grading.test", func(_ dbctx.Context) error {
		return coded
	})
	if !errors.Is(err, coded) || !domainagg.IsCode(err, domainagg.CodeTransport) {
		t.Fatalf("coded error should pass through, got %v", err)
	}
}

func TestOutcomeLabel(t *testing.T) {
	if got := outcomeLabel(nil); got != "success" {
		t.Fatalf("nil status: got=%s", got)
	}
	if got := outcomeLabel(context.DeadlineExceeded); got != string(domainagg.CodeRetryable) {
		t.Fatalf("deadline status: got=%s", got)
	}
	if got := outcomeLabel(errors.New("boom")); got != string(domainagg.CodeInternal) {
		t.Fatalf("plain error status: got=%s", got)
	}
}

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

type spyHooks struct {
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

type spyOperation struct {
	Name   string
	Status string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.Operations = append(h.Operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) { h.Conflicts = append(h.Conflicts, name) }

func (h *spyHooks) IncRetry(name string) { h.Retries = append(h.Retries, name) }
