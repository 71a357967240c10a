package evm

import (
	"context"
	"strings"

	xcerrors "github.com/cordialsys/stakeboard/client/errors"
	"github.com/pkg/errors"
)

// CheckError maps an RPC or wallet error onto an error status.
func CheckError(err error) xcerrors.Status {
	if errors.Is(err, context.DeadlineExceeded) {
		return xcerrors.ConnectionUnavailable
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "user denied") ||
		strings.Contains(msg, "user rejected") ||
		strings.Contains(msg, "rejected by user") {
		return xcerrors.TransactionRejectedByUser
	}
	if strings.Contains(msg, "insufficient funds") ||
		strings.Contains(msg, "nonce too low") ||
		strings.Contains(msg, "exceeds allowance") ||
		strings.Contains(msg, "exceeds balance") {
		return xcerrors.UserInputInvalid
	}
	if strings.Contains(msg, "execution reverted") {
		return xcerrors.TransactionFailedOnChain
	}
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "response body closed") ||
		strings.Contains(msg, "i/o timeout") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "eof") {
		return xcerrors.ConnectionUnavailable
	}
	return xcerrors.UnknownError
}

// alreadyKnown is returned by nodes when the same transaction was broadcast before.
func alreadyKnown(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already known") ||
		strings.Contains(msg, "known transaction:") ||
		strings.Contains(msg, "transaction already imported") ||
		strings.Contains(msg, "transaction already in block chain")
}

// classify wraps err into an error carrying its status. Errors that already
// carry one are returned as they are.
func classify(err error, step string) error {
	if err == nil {
		return nil
	}
	var known *xcerrors.Error
	if errors.As(err, &known) {
		return err
	}
	return &xcerrors.Error{Status: CheckError(err), Message: errors.Wrap(err, step).Error()}
}
