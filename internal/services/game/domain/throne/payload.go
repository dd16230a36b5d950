package throne

// ClaimPayload captures the payload for throne.claim commands.
type ClaimPayload struct {
	Offered int64 `json:"offered"`
}

// ClaimedPayload captures the payload for throne.claimed events.
type ClaimedPayload struct {
	Claimant       string `json:"claimant"`
	Offered        int64  `json:"offered"`
	Reward         int64  `json:"reward"`
	Beneficiary    string `json:"beneficiary"`
	RoundEnd       int64  `json:"round_end"`
	RewardDeadline int64  `json:"reward_deadline"`
}

// RewardClaimPayload captures the payload for reward.claim commands. The
// claimant is the command actor; the payload carries nothing.
type RewardClaimPayload struct{}

// RewardPaidPayload captures the payload for reward.paid events.
type RewardPaidPayload struct {
	Claimant string `json:"claimant"`
	Amount   int64  `json:"amount"`
}

// RewardExpiredPayload captures the payload for reward.expired events.
type RewardExpiredPayload struct {
	Claimant     string `json:"claimant"`
	Amount       int64  `json:"amount"`
	RedirectedTo string `json:"redirected_to"`
	NewDeadline  int64  `json:"new_deadline"`
}

// PrizeClaimPayload captures the payload for prize.claim commands.
type PrizeClaimPayload struct{}

// PrizeClaimedPayload captures the payload for prize.claimed events.
type PrizeClaimedPayload struct {
	Winner   string `json:"winner"`
	Winnings int64  `json:"winnings"`
	RoundEnd int64  `json:"round_end"`
}

// RoundStartPayload captures the payload for round.start commands.
type RoundStartPayload struct{}

// RoundStartedPayload captures the payload for round.started events.
type RoundStartedPayload struct {
	Starter string `json:"starter"`
	BaseFee int64  `json:"base_fee"`
}
