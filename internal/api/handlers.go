// Package api exposes the raffle service over HTTP. Amounts cross the wire
// as decimal wei strings.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"

	"github.com/0xGIDHUB/raffle-engine/internal/platform/errors"
	"github.com/0xGIDHUB/raffle-engine/internal/platform/id"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/domain"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/service"
)

// Handler serves the raffle endpoints.
type Handler struct {
	service *service.Service
}

// NewHandler creates a Handler backed by svc.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// raffleView is the read model returned by GET /raffle.
type raffleView struct {
	Owner            string   `json:"owner"`
	PreviousOwner    string   `json:"previous_owner"`
	State            string   `json:"state"`
	EntranceFee      string   `json:"entrance_fee"`
	Players          []string `json:"players"`
	PreviousPlayers  []string `json:"previous_session_players"`
	RecentWinner     string   `json:"recent_winner"`
	PendingRequestID string   `json:"pending_request_id,omitempty"`
}

func (h *Handler) Open(c *gin.Context) {
	var payload struct {
		Owner string `json:"owner"`
		Fee   string `json:"fee"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, errors.Wrap(errors.CodeInvalidPayload, "invalid request body", err))
		return
	}
	owner, err := domain.ParseAddress(payload.Owner)
	if err != nil {
		writeError(c, errors.Wrap(errors.CodeInvalidAddress, "invalid owner address", err))
		return
	}
	fee, err := parseAmount(payload.Fee)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.service.Open(c.Request.Context(), owner, fee); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.view())
}

func (h *Handler) Enter(c *gin.Context) {
	var payload struct {
		Player  string `json:"player"`
		Payment string `json:"payment"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, errors.Wrap(errors.CodeInvalidPayload, "invalid request body", err))
		return
	}
	player, err := domain.ParseAddress(payload.Player)
	if err != nil {
		writeError(c, errors.Wrap(errors.CodeInvalidAddress, "invalid player address", err))
		return
	}
	payment, err := parseAmount(payload.Payment)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.service.Enter(c.Request.Context(), player, payment); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"players_count": h.service.PlayersCount()})
}

func (h *Handler) End(c *gin.Context) {
	var payload struct {
		Caller string `json:"caller"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, errors.Wrap(errors.CodeInvalidPayload, "invalid request body", err))
		return
	}
	caller, err := domain.ParseAddress(payload.Caller)
	if err != nil {
		writeError(c, errors.Wrap(errors.CodeInvalidAddress, "invalid caller address", err))
		return
	}

	requestID, err := h.service.End(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request_id": requestID})
}

func (h *Handler) Fulfill(c *gin.Context) {
	var payload struct {
		RequestID string   `json:"request_id"`
		Words     []string `json:"words"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, errors.Wrap(errors.CodeInvalidPayload, "invalid request body", err))
		return
	}
	words := make([]*uint256.Int, 0, len(payload.Words))
	for _, w := range payload.Words {
		word, err := parseAmount(w)
		if err != nil {
			writeError(c, err)
			return
		}
		words = append(words, word)
	}

	if err := h.service.FulfillRandomWords(c.Request.Context(), payload.RequestID, words); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"winner": h.service.RecentWinner().String()})
}

func (h *Handler) GetRaffle(c *gin.Context) {
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) ListEvents(c *gin.Context) {
	events, err := h.service.Events(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handler) Fund(c *gin.Context) {
	var payload struct {
		Address string `json:"address"`
		Amount  string `json:"amount"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, errors.Wrap(errors.CodeInvalidPayload, "invalid request body", err))
		return
	}
	addr, err := domain.ParseAddress(payload.Address)
	if err != nil {
		writeError(c, errors.Wrap(errors.CodeInvalidAddress, "invalid address", err))
		return
	}
	amount, err := parseAmount(payload.Amount)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.service.Fund(c.Request.Context(), addr, amount); err != nil {
		writeError(c, err)
		return
	}
	balance, err := h.service.Balance(c.Request.Context(), addr)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr.String(), "balance": balance.Dec()})
}

// CreateAccount mints a fresh ledger account, funding it when the request
// carries a non-zero funding amount.
func (h *Handler) CreateAccount(c *gin.Context) {
	var payload struct {
		Funding string `json:"funding"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			writeError(c, errors.Wrap(errors.CodeInvalidPayload, "invalid request body", err))
			return
		}
	}

	minted, err := id.NewAddress()
	if err != nil {
		writeError(c, err)
		return
	}
	addr, err := domain.ParseAddress(minted)
	if err != nil {
		writeError(c, err)
		return
	}

	if payload.Funding != "" {
		funding, err := parseAmount(payload.Funding)
		if err != nil {
			writeError(c, err)
			return
		}
		if err := h.service.Fund(c.Request.Context(), addr, funding); err != nil {
			writeError(c, err)
			return
		}
	}

	balance, err := h.service.Balance(c.Request.Context(), addr)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"address": addr.String(), "balance": balance.Dec()})
}

func (h *Handler) GetBalance(c *gin.Context) {
	addr, err := domain.ParseAddress(c.Param("address"))
	if err != nil {
		writeError(c, errors.Wrap(errors.CodeInvalidAddress, "invalid address", err))
		return
	}
	balance, err := h.service.Balance(c.Request.Context(), addr)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr.String(), "balance": balance.Dec()})
}

func (h *Handler) view() raffleView {
	snapshot := h.service.Snapshot()

	players := make([]string, len(snapshot.Players))
	for i, p := range snapshot.Players {
		players[i] = p.String()
	}
	previous := make([]string, len(snapshot.PreviousSessionPlayers))
	for i, p := range snapshot.PreviousSessionPlayers {
		previous[i] = p.String()
	}

	fee := "0"
	if snapshot.EntranceFee != nil {
		fee = snapshot.EntranceFee.Dec()
	}

	return raffleView{
		Owner:            snapshot.Owner.String(),
		PreviousOwner:    snapshot.PreviousOwner.String(),
		State:            snapshot.State.String(),
		EntranceFee:      fee,
		Players:          players,
		PreviousPlayers:  previous,
		RecentWinner:     snapshot.RecentWinner.String(),
		PendingRequestID: snapshot.PendingRequestID,
	}
}

func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, errors.New(errors.CodeInvalidAmount, "amount is required")
	}
	amount, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInvalidAmount, "amount must be a decimal wei string", err)
	}
	return amount, nil
}

func writeError(c *gin.Context, err error) {
	coded := errors.FromError(err)
	body := gin.H{"code": string(coded.Code), "error": coded.Message}
	if len(coded.Metadata) > 0 {
		body["details"] = coded.Metadata
	}
	c.JSON(coded.Code.HTTPStatus(), body)
}
