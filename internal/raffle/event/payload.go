package event

// RaffleOpenedPayload captures the payload for raffle.opened events.
// Amounts are decimal wei strings.
type RaffleOpenedPayload struct {
	Owner       string `json:"owner"`
	EntranceFee string `json:"entrance_fee"`
}

// RaffleEnteredPayload captures the payload for raffle.entered events.
type RaffleEnteredPayload struct {
	Player  string `json:"player"`
	Payment string `json:"payment"`
}

// WinnerRequestedPayload captures the payload for raffle.winner_requested events.
type WinnerRequestedPayload struct {
	RequestID   string `json:"request_id"`
	PlayerCount int    `json:"player_count"`
}

// WinnerPickedPayload captures the payload for raffle.winner_picked events.
type WinnerPickedPayload struct {
	Winner       string `json:"winner"`
	RequestID    string `json:"request_id"`
	OwnerFee     string `json:"owner_fee"`
	WinnerAmount string `json:"winner_amount"`
}

// RaffleResetPayload captures the payload for raffle.reset events emitted
// when a session ends with zero entries.
type RaffleResetPayload struct {
	Owner string `json:"owner"`
}
