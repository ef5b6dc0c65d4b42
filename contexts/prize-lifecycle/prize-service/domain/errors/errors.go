package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrPrizeNotFound             = errors.New("prize not found")
	ErrContributionNotFound      = errors.New("contribution not found")
	ErrInvalidInput              = errors.New("invalid prize input")
	ErrUnauthorized              = errors.New("caller is not authorized")
	ErrInvalidPhase              = errors.New("operation not allowed in current phase")
	ErrNotFunded                 = fmt.Errorf("%w: pool is not funded", ErrInvalidPhase)
	ErrIncompleteEvaluation      = fmt.Errorf("%w: evaluation is incomplete", ErrInvalidPhase)
	ErrAllocationIncomplete      = fmt.Errorf("%w: reward allocation is incomplete", ErrInvalidPhase)
	ErrNoTransition              = errors.New("no transition from current phase")
	ErrDuplicateContribution     = errors.New("contribution already submitted")
	ErrCriteriaCountMismatch     = errors.New("criteria count mismatch")
	ErrBatchSizeExceedsAvailable = errors.New("batch size exceeds available contestants")
	ErrOutOfOrderBatch           = errors.New("batch start does not match cursor")
	ErrRewardAlreadyClaimed      = errors.New("reward already claimed")
	ErrNoRewardAvailable         = errors.New("no reward available")
	ErrNoFundsToWithdraw         = errors.New("no funds to withdraw")
	ErrFundingAmountMismatch     = errors.New("funding amount does not match pool size")
	ErrAlreadyFunded             = errors.New("pool is already funded")
	ErrUnknownStrategy           = errors.New("unknown allocation strategy")
	ErrStrategyRegistered        = errors.New("allocation strategy already registered")
	ErrUnknownSelector           = errors.New("unknown operation selector")
	ErrSelectorClash             = errors.New("operation selector already registered")
	ErrReentrantCall             = errors.New("reentrant call on prize")
	ErrConcurrentModification    = errors.New("prize was modified concurrently")
	ErrArithmeticOverflow        = errors.New("arithmetic overflow")
	ErrSchemeMismatch            = errors.New("value scheme mismatch")
	ErrInvalidPermit             = errors.New("invalid sealing permit")
	ErrIdempotencyKeyRequired    = errors.New("idempotency key is required")
	ErrIdempotencyConflict       = errors.New("idempotency key conflict")
)

// Error attaches the offending values to a sentinel kind so callers can
// correct and resubmit without re-reading prize state.
type Error struct {
	Kind   error
	Fields map[string]any
}

// New builds an Error from alternating key/value pairs.
func New(kind error, keyvals ...any) *Error {
	fields := make(map[string]any, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		fields[key] = keyvals[i+1]
	}
	return &Error{Kind: kind, Fields: fields}
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Kind.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, e.Fields[key]))
	}
	return e.Kind.Error() + " (" + strings.Join(parts, ", ") + ")"
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Field returns a detail value recorded on err, if any.
func Field(err error, key string) (any, bool) {
	var detailed *Error
	if !errors.As(err, &detailed) {
		return nil, false
	}
	value, ok := detailed.Fields[key]
	return value, ok
}
