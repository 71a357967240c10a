package errors

import (
	"errors"
	"fmt"
)

type Status string

// The entered amount or guardian is not acceptable (amount <= 0, more than
// available, invalid address, ...). Caught before anything is submitted.
const UserInputInvalid Status = "UserInputInvalid"

// The signer refused to approve the transaction.
const TransactionRejectedByUser Status = "TransactionRejectedByUser"

// The transaction was mined and reverted, or would revert.
const TransactionFailedOnChain Status = "TransactionFailedOnChain"

// The chain endpoint or wallet cannot be reached -- there may be nothing wrong with the transaction
const ConnectionUnavailable Status = "ConnectionUnavailable"

// No outcome for this error known
const UnknownError Status = "UnknownError"

type Error struct {
	Status  Status
	Message string
}

var _ error = &Error{}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// Is lets errors.Is match on status alone, e.g. errors.Is(err, &Error{Status: ConnectionUnavailable}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Status == e.Status && (t.Message == "" || t.Message == e.Message)
}

func Errorf(status Status, format string, args ...interface{}) error {
	return &Error{
		Status:  status,
		Message: fmt.Sprintf(format, args...),
	}
}

func UserInputInvalidf(format string, args ...interface{}) error {
	return Errorf(UserInputInvalid, format, args...)
}

func RejectedByUserf(format string, args ...interface{}) error {
	return Errorf(TransactionRejectedByUser, format, args...)
}

// Used when a transaction reverted, or would revert during gas estimation.
func FailedOnChainf(format string, args ...interface{}) error {
	return Errorf(TransactionFailedOnChain, format, args...)
}

func ConnectionUnavailablef(format string, args ...interface{}) error {
	return Errorf(ConnectionUnavailable, format, args...)
}

func Unknownf(format string, args ...interface{}) error {
	return Errorf(UnknownError, format, args...)
}

// StatusOf returns the status of the first *Error in err's chain.
func StatusOf(err error) Status {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return UnknownError
}

func Is(err error, status Status) bool {
	return err != nil && StatusOf(err) == status
}
