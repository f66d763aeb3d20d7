package aggregates

import (
	"context"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/neurobridge-grading/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

// BaseDeps is what every grading write needs regardless of the tables it touches.
// Zero fields get defaults: a gorm runner over DB, no-op hooks, a nop logger and UTC now.
type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
	Now    func() time.Time
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// executeWrite runs fn in one transaction and returns its error coded under op.
// Every call reports one operation outcome; conflicts and retryable failures are also tallied.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	start := time.Now()
	err := MapError(op, deps.Runner.InTx(ctx, fn))

	code := domainagg.CodeOf(err)
	switch code {
	case domainagg.CodeConflict:
		deps.Hooks.IncConflict(op)
	case domainagg.CodeRetryable:
		deps.Hooks.IncRetry(op)
	}
	deps.Hooks.ObserveOperation(op, outcomeLabel(err), time.Since(start))
	return err
}

// outcomeLabel is "success" for nil and the error code otherwise.
func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	return string(domainagg.CodeOf(MapError("", err)))
}
