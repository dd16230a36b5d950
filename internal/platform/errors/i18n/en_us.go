package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeRealmDepositOutOfBounds = "DEPOSIT_OUT_OF_BOUNDS"
	CodeRealmAlreadyCreated     = "REALM_ALREADY_CREATED"
	CodeRealmNotFound           = "REALM_NOT_FOUND"

	CodeRoundConcluded       = "ROUND_CONCLUDED"
	CodeAlreadyHolder        = "ALREADY_HOLDER"
	CodeInsufficientOffer    = "INSUFFICIENT_OFFER"
	CodeRoundNotYetConcluded = "ROUND_NOT_YET_CONCLUDED"
	CodeRoundStillActive     = "ROUND_STILL_ACTIVE"
	CodeNotCurrentHolder     = "NOT_CURRENT_HOLDER"
	CodeNotAuthorized        = "NOT_AUTHORIZED"

	CodeNothingOwed = "NOTHING_OWED"

	CodeFundsUnavailable         = "FUNDS_UNAVAILABLE"
	CodePayoutFailed             = "PAYOUT_FAILED"
	CodeExpiredForwardFailed     = "EXPIRED_FORWARD_FAILED"
	CodeSettlementTransferFailed = "SETTLEMENT_TRANSFER_FAILED"
	CodeUnattributedTransfer     = "UNATTRIBUTED_TRANSFER"
	CodeAccountNotFound          = "ACCOUNT_NOT_FOUND"
	CodeAccountAlreadyExists     = "ACCOUNT_ALREADY_EXISTS"
	CodeSolvencyFault            = "SOLVENCY_FAULT"

	CodeGrantInvalid  = "GRANT_INVALID"
	CodeGrantExpired  = "GRANT_EXPIRED"
	CodeGrantMismatch = "GRANT_MISMATCH"

	CodeFilterInvalid = "FILTER_INVALID"

	CodeNotFound           = "NOT_FOUND"
	CodeIntegrityViolation = "INTEGRITY_VIOLATION"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		// Realm errors
		CodeRealmDepositOutOfBounds: "Initial deposit {{.Got}} must be between {{.Min}} and {{.Max}}",
		CodeRealmAlreadyCreated:     "Realm has already been created",
		CodeRealmNotFound:           "Realm was not found",

		// Round errors
		CodeRoundConcluded:       "The round has concluded; no further claims are accepted",
		CodeAlreadyHolder:        "You already hold the throne",
		CodeInsufficientOffer:    "Offer {{.Got}} must exceed the required bid {{.Required}}",
		CodeRoundNotYetConcluded: "The round has not concluded yet",
		CodeRoundStillActive:     "The round is still active",
		CodeNotCurrentHolder:     "Only the current holder may claim the prize pool",
		CodeNotAuthorized:        "Only the current holder or the realm owner may start a new round",

		// Reward errors
		CodeNothingOwed: "No reward is owed to this account",

		// Treasury errors
		CodeFundsUnavailable:         "Account funds are unavailable for this claim",
		CodePayoutFailed:             "Reward payout failed; nothing was withdrawn",
		CodeExpiredForwardFailed:     "Expired reward forwarding failed; the reward is unchanged",
		CodeSettlementTransferFailed: "Prize transfer failed; the round is unchanged",
		CodeUnattributedTransfer:     "Direct transfers into the prize pool are not accepted",
		CodeAccountNotFound:          "Account was not found",
		CodeAccountAlreadyExists:     "Account already exists",
		CodeSolvencyFault:            "The pool no longer covers outstanding rewards",

		// Grant errors
		CodeGrantInvalid:  "Play grant is invalid",
		CodeGrantExpired:  "Play grant has expired",
		CodeGrantMismatch: "Play grant {{.Field}} does not match",

		// Query errors
		CodeFilterInvalid: "List filter is invalid",

		// Storage errors
		CodeNotFound:           "The requested resource was not found",
		CodeIntegrityViolation: "Event journal integrity verification failed",
	},
}
