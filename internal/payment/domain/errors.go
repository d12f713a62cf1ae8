package domain

import (
	"errors"
	"fmt"
	"strings"
)

// State is the terminal state of one submission.
type State string

const (
	StateRejected      State = "rejected"
	StateGatewayFailed State = "gateway_failed"
	StatePersistFailed State = "persist_failed"
	StateCompleted     State = "completed"
)

var (
	ErrEmptyResponse = errors.New("Empty response body")
	ErrNotFound      = errors.New("transaction not found")
)

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "Validation failed: " + strings.Join(e.Errors, ", ")
}

// TransportError carries a network level failure. Its message is the cause's message.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("Payment failed with status: %d - %s", e.StatusCode, e.Body)
}

// GatewayRejection is a 2xx answer whose success flag is false.
type GatewayRejection struct {
	Message string
}

func (e *GatewayRejection) Error() string { return e.Message }

// PersistenceError means the gateway accepted the payment but the transaction
// record could not be stored. Nothing is rolled back.
type PersistenceError struct {
	Transaction Transaction
	Err         error
}

func (e *PersistenceError) Error() string {
	return "Payment processed but failed to save transaction: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// StateOf classifies the error returned by a submission.
func StateOf(err error) State {
	if err == nil {
		return StateCompleted
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return StateRejected
	}
	var perr *PersistenceError
	if errors.As(err, &perr) {
		return StatePersistFailed
	}
	return StateGatewayFailed
}
