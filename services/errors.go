package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Machine-readable error codes. Clients branch on these to render different
// messaging (move closer, wait out cooldown, reconnect wallet, ...).
const (
	CodeInvalidIdentity  = "invalid_identity"
	CodeBadSignature     = "bad_signature"
	CodeStaleMessage     = "stale_message"
	CodeUnknownLocation  = "unknown_location"
	CodeOutOfRange       = "out_of_range"
	CodeAlreadyClaimed   = "already_claimed"
	CodeCooldownActive   = "cooldown_active"
	CodeConflict         = "conflict"
	CodeStoreUnavailable = "store_unavailable"
	CodeNotClaimed       = "not_claimed"
	CodeUnknownItem      = "unknown_item"
	CodeUnknownGear      = "unknown_gear"
	CodeInsufficientCaps = "insufficient_caps"
	CodeBadRequest       = "bad_request"
)

// GameError is the single error shape every validation and store failure
// surfaces as. No partial state ever accompanies one.
type GameError struct {
	Code       string
	HTTPStatus int
	Message    string

	// DistanceM rides along on out_of_range so the client can say how far.
	DistanceM float64
	// RetryAfter rides along on cooldown_active.
	RetryAfter time.Duration
}

func (e *GameError) Error() string { return e.Message }

// AsGameError unwraps err into a *GameError if one is in the chain.
func AsGameError(err error) (*GameError, bool) {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

func errInvalidIdentity() *GameError {
	return &GameError{Code: CodeInvalidIdentity, HTTPStatus: fiber.StatusBadRequest,
		Message: "invalid wallet address"}
}

func errBadSignature() *GameError {
	return &GameError{Code: CodeBadSignature, HTTPStatus: fiber.StatusUnauthorized,
		Message: "signature verification failed"}
}

func errStaleMessage() *GameError {
	return &GameError{Code: CodeStaleMessage, HTTPStatus: fiber.StatusUnauthorized,
		Message: "signed message expired, sign a fresh one"}
}

func errUnknownLocation(name string) *GameError {
	return &GameError{Code: CodeUnknownLocation, HTTPStatus: fiber.StatusNotFound,
		Message: fmt.Sprintf("unknown location: %s", name)}
}

func errOutOfRange(distance float64, reason string) *GameError {
	return &GameError{Code: CodeOutOfRange, HTTPStatus: fiber.StatusForbidden,
		Message: reason, DistanceM: distance}
}

func errAlreadyClaimed(name string) *GameError {
	return &GameError{Code: CodeAlreadyClaimed, HTTPStatus: fiber.StatusConflict,
		Message: fmt.Sprintf("location already claimed: %s", name)}
}

func errCooldownActive(retryAfter time.Duration) *GameError {
	return &GameError{Code: CodeCooldownActive, HTTPStatus: fiber.StatusTooManyRequests,
		Message: fmt.Sprintf("cooldown active, retry in %ds", int(retryAfter.Seconds())+1),
		RetryAfter: retryAfter}
}

func errConflict() *GameError {
	return &GameError{Code: CodeConflict, HTTPStatus: fiber.StatusServiceUnavailable,
		Message: "concurrent update conflict, retry"}
}

func errStoreUnavailable(cause error) *GameError {
	return &GameError{Code: CodeStoreUnavailable, HTTPStatus: fiber.StatusServiceUnavailable,
		Message: fmt.Sprintf("backing store unavailable: %v", cause)}
}

func errNotClaimed(name string) *GameError {
	return &GameError{Code: CodeNotClaimed, HTTPStatus: fiber.StatusForbidden,
		Message: fmt.Sprintf("location not claimed yet: %s", name)}
}

func errUnknownItem(item string) *GameError {
	return &GameError{Code: CodeUnknownItem, HTTPStatus: fiber.StatusBadRequest,
		Message: fmt.Sprintf("unknown shop item: %s", item)}
}

func errUnknownGear(id string) *GameError {
	return &GameError{Code: CodeUnknownGear, HTTPStatus: fiber.StatusNotFound,
		Message: fmt.Sprintf("gear not owned: %s", id)}
}

func errInsufficientCaps(need, have int64) *GameError {
	return &GameError{Code: CodeInsufficientCaps, HTTPStatus: fiber.StatusPaymentRequired,
		Message: fmt.Sprintf("not enough caps: need %d, have %d", need, have)}
}

func errBadRequest(msg string) *GameError {
	return &GameError{Code: CodeBadRequest, HTTPStatus: fiber.StatusBadRequest, Message: msg}
}
