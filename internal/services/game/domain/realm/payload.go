package realm

// CreatePayload captures the payload for realm.create commands.
type CreatePayload struct {
	Name    string `json:"name,omitempty"`
	Deposit int64  `json:"deposit"`
}

// CreatedPayload captures the payload for realm.created events.
type CreatedPayload struct {
	Name    string `json:"name,omitempty"`
	OwnerID string `json:"owner_id"`
	Deposit int64  `json:"deposit"`
	BaseFee int64  `json:"base_fee"`
}
