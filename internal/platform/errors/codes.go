// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Realm errors
	CodeRealmDepositOutOfBounds Code = "DEPOSIT_OUT_OF_BOUNDS"
	CodeRealmAlreadyCreated     Code = "REALM_ALREADY_CREATED"
	CodeRealmNotFound           Code = "REALM_NOT_FOUND"

	// Round errors
	CodeRoundConcluded       Code = "ROUND_CONCLUDED"
	CodeAlreadyHolder        Code = "ALREADY_HOLDER"
	CodeInsufficientOffer    Code = "INSUFFICIENT_OFFER"
	CodeRoundNotYetConcluded Code = "ROUND_NOT_YET_CONCLUDED"
	CodeRoundStillActive     Code = "ROUND_STILL_ACTIVE"
	CodeNotCurrentHolder     Code = "NOT_CURRENT_HOLDER"
	CodeNotAuthorized        Code = "NOT_AUTHORIZED"

	// Reward errors
	CodeNothingOwed Code = "NOTHING_OWED"

	// Treasury errors
	CodeFundsUnavailable         Code = "FUNDS_UNAVAILABLE"
	CodePayoutFailed             Code = "PAYOUT_FAILED"
	CodeExpiredForwardFailed     Code = "EXPIRED_FORWARD_FAILED"
	CodeSettlementTransferFailed Code = "SETTLEMENT_TRANSFER_FAILED"
	CodeUnattributedTransfer     Code = "UNATTRIBUTED_TRANSFER"
	CodeAccountNotFound          Code = "ACCOUNT_NOT_FOUND"
	CodeAccountAlreadyExists     Code = "ACCOUNT_ALREADY_EXISTS"
	CodeSolvencyFault            Code = "SOLVENCY_FAULT"

	// Grant errors
	CodeGrantInvalid  Code = "GRANT_INVALID"
	CodeGrantExpired  Code = "GRANT_EXPIRED"
	CodeGrantMismatch Code = "GRANT_MISMATCH"

	// Query errors
	CodeFilterInvalid Code = "FILTER_INVALID"

	// Storage errors
	CodeNotFound           Code = "NOT_FOUND"
	CodeIntegrityViolation Code = "INTEGRITY_VIOLATION"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeRealmDepositOutOfBounds,
		CodeGrantInvalid,
		CodeGrantMismatch,
		CodeFilterInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow the operation
	case CodeRoundConcluded,
		CodeAlreadyHolder,
		CodeInsufficientOffer,
		CodeRoundNotYetConcluded,
		CodeRoundStillActive,
		CodeNothingOwed,
		CodeUnattributedTransfer,
		CodeGrantExpired:
		return codes.FailedPrecondition

	// PermissionDenied - caller identity doesn't allow the operation
	case CodeNotCurrentHolder,
		CodeNotAuthorized:
		return codes.PermissionDenied

	// Aborted - the operation was rolled back mid-flight
	case CodeFundsUnavailable,
		CodePayoutFailed,
		CodeExpiredForwardFailed,
		CodeSettlementTransferFailed:
		return codes.Aborted

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeRealmNotFound,
		CodeAccountNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeRealmAlreadyCreated,
		CodeAccountAlreadyExists:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
