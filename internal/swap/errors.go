package swap

import (
	"fmt"
	"strings"
)

// Kind tags a swap failure with its cause category.
type Kind string

const (
	KindPreconditions       Kind = "preconditions"
	KindInsufficientBalance Kind = "insufficient_balance"
	KindApprovalRequired    Kind = "approval_required"
	KindNoLiquidity         Kind = "no_liquidity"
	KindUserRejected        Kind = "user_rejected"
	KindSubmissionFailed    Kind = "submission_failed"
	KindConfirmationFailed  Kind = "confirmation_failed"
)

// Error is a swap failure with a tagged kind and a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a tagged swap error.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// maxRawMessageLen bounds the raw node message carried into the generic
// fallback category.
const maxRawMessageLen = 160

// ClassifySubmission maps an error surfaced at the wallet/node submission
// boundary to a tagged kind by message content. Errors raised inside the
// engine carry their kind from the point of detection and never pass
// through here.
func ClassifySubmission(err error) *Error {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "user rejected"), strings.Contains(msg, "user denied"):
		return NewError(KindUserRejected, "transaction rejected", err)
	case strings.Contains(msg, "insufficient funds"), strings.Contains(msg, "insufficient balance"):
		return NewError(KindInsufficientBalance, "insufficient funds for transaction", err)
	case strings.Contains(msg, "slippage"), strings.Contains(msg, "price impact"), strings.Contains(msg, "insufficient_output_amount"):
		return NewError(KindSubmissionFailed, "price moved beyond slippage tolerance", err)
	case strings.Contains(msg, "liquidity"):
		return NewError(KindNoLiquidity, "not enough liquidity for this trade", err)
	case strings.Contains(msg, "gas"), strings.Contains(msg, "fee"):
		return NewError(KindSubmissionFailed, "transaction fee estimation failed", err)
	case strings.Contains(msg, "allowance"), strings.Contains(msg, "approval"):
		return NewError(KindApprovalRequired, "token approval required", err)
	case strings.Contains(msg, "deadline"), strings.Contains(msg, "expired"):
		return NewError(KindSubmissionFailed, "transaction deadline passed", err)
	}

	raw := err.Error()
	if len(raw) > maxRawMessageLen {
		raw = raw[:maxRawMessageLen] + "..."
	}
	return NewError(KindSubmissionFailed, "swap failed: "+raw, err)
}
