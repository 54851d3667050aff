package provider

import (
	"errors"
	"fmt"
)

// Sentinels for the three calendar failure classes. Callers branch with
// errors.Is; the concrete types below carry the detail.
var (
	ErrAuthExpired = errors.New("authorization expired")
	ErrAPI         = errors.New("calendar api request failed")
	ErrNetwork     = errors.New("network failure")
)

// AuthExpiredError means the account must reauthorize before the operation
// can succeed.
type AuthExpiredError struct {
	Account string
	Reason  string
}

func (e AuthExpiredError) Error() string {
	if e.Account == "" {
		return fmt.Sprintf("%v: %s", ErrAuthExpired, e.Reason)
	}
	return fmt.Sprintf("%v for %s: %s", ErrAuthExpired, e.Account, e.Reason)
}

func (e AuthExpiredError) Unwrap() error { return ErrAuthExpired }

// APIError is a non-auth failure reported by the provider's API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%v: %s", ErrAPI, e.Message)
	}
	return fmt.Sprintf("%v: status %d: %s", ErrAPI, e.StatusCode, e.Message)
}

func (e APIError) Unwrap() error { return ErrAPI }

// NetworkError is a transport-level failure: the request never produced a
// provider response.
type NetworkError struct {
	Op  string
	Err error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrNetwork, e.Op, e.Err)
}

func (e NetworkError) Unwrap() error { return ErrNetwork }
