package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidOperation is the single error category every validator failure
// belongs to. Callers reject the whole transaction on any error that
// matches it.
var ErrInvalidOperation = errors.New("invalid operation")

// ErrNotFound is returned by read-side lookups outside the evaluator path.
var ErrNotFound = errors.New("not found")

// Reason enumerates the validator failure triggers.
type Reason string

const (
	ReasonReferenceNotFound          Reason = "reference-not-found"
	ReasonWrongReferenceType         Reason = "wrong-reference-type"
	ReasonNotAProposal               Reason = "not-a-proposal"
	ReasonNothingToUpdate            Reason = "nothing-to-update"
	ReasonRedundantNoOp              Reason = "redundant-no-op"
	ReasonAssetMismatch              Reason = "asset-mismatch"
	ReasonMarketFrozen               Reason = "market-frozen"
	ReasonUnauthorizedAsset          Reason = "unauthorized-asset"
	ReasonOddsOutOfRange             Reason = "odds-out-of-range"
	ReasonOddsNotOnIncrement         Reason = "odds-not-on-increment"
	ReasonNonPositiveAmount          Reason = "non-positive-amount"
	ReasonInsufficientBalance        Reason = "insufficient-balance"
	ReasonDuplicateProposedOperation Reason = "duplicate-proposed-operation"
	ReasonResolutionCoverageMismatch Reason = "resolution-coverage-mismatch"
	ReasonResolutionLabelIllegal     Reason = "resolution-label-illegal"
	ReasonCancelForeignBet           Reason = "cancel-foreign-bet"
)

// OperationError is the error a validator returns. It carries a machine
// reason and a human-readable detail, and matches ErrInvalidOperation under
// errors.Is.
type OperationError struct {
	Reason Reason
	Detail string
}

// Error implements error.
func (e *OperationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("invalid operation: %s", e.Reason)
	}
	return fmt.Sprintf("invalid operation: %s: %s", e.Reason, e.Detail)
}

// Is makes every OperationError match ErrInvalidOperation.
func (e *OperationError) Is(target error) bool {
	return target == ErrInvalidOperation
}

// NewOpError builds an OperationError with a formatted detail message.
func NewOpError(reason Reason, format string, args ...any) *OperationError {
	return &OperationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the Reason from an evaluator error, or "" when the error
// is not an OperationError.
func ReasonOf(err error) Reason {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Reason
	}
	return ""
}
