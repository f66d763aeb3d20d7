package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/neurobridge-grading/internal/domain/aggregates"
)

// Sentinels joined into errors raised inside a grading write so MapError can pick a code.
var (
	ErrValidation = errors.New("grading write rejected")
	ErrNotFound   = errors.New("grading row missing")
	ErrInvariant  = errors.New("grading invariant broken")
	ErrConflict   = errors.New("grading state changed")
	ErrRetryable  = errors.New("grading write can be retried")
)

var sentinelCodes = []struct {
	sentinel error
	code     domainagg.ErrorCode
}{
	{ErrValidation, domainagg.CodeValidation},
	{ErrNotFound, domainagg.CodeNotFound},
	{ErrInvariant, domainagg.CodeInvariantViolation},
	{ErrConflict, domainagg.CodeConflict},
	{ErrRetryable, domainagg.CodeRetryable},
}

// SQLSTATEs that map to something other than internal.
var pgStateCodes = map[string]domainagg.ErrorCode{
	pgerrcode.UniqueViolation:      domainagg.CodeConflict,
	pgerrcode.ForeignKeyViolation:  domainagg.CodePreconditionFailed,
	pgerrcode.SerializationFailure: domainagg.CodeRetryable,
	pgerrcode.DeadlockDetected:     domainagg.CodeRetryable,
	pgerrcode.LockNotAvailable:     domainagg.CodeRetryable,
}

func tagged(sentinel error, msg string) error {
	return errors.Join(sentinel, errors.New(strings.TrimSpace(msg)))
}

func ValidationError(msg string) error { return tagged(ErrValidation, msg) }
func NotFoundError(msg string) error   { return tagged(ErrNotFound, msg) }
func InvariantError(msg string) error  { return tagged(ErrInvariant, msg) }
func ConflictError(msg string) error   { return tagged(ErrConflict, msg) }
func RetryableError(msg string) error  { return tagged(ErrRetryable, msg) }

// MapError gives err a code under op. Errors that already carry one are returned as is.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if domainagg.CodeOf(err) != "" {
		return err
	}
	return domainagg.Wrap(classify(err), op, err)
}

func classify(err error) domainagg.ErrorCode {
	for _, s := range sentinelCodes {
		if errors.Is(err, s.sentinel) {
			return s.code
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainagg.CodeNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domainagg.CodeRetryable
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := pgStateCodes[strings.TrimSpace(pgErr.Code)]; ok {
			return code
		}
		return domainagg.CodeInternal
	}
	// sqlite reports constraint and lock failures only through the message.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return domainagg.CodeConflict
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "deadlock"):
		return domainagg.CodeRetryable
	}
	return domainagg.CodeInternal
}

// txAborted reports whether the database rolled the transaction back on its own and the
// same body can be run again.
func txAborted(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return strings.Contains(strings.ToLower(err.Error()), "database is locked")
}
