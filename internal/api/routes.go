package api

import "github.com/gin-gonic/gin"

// NewRouter builds the gin engine with all raffle routes mounted.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	raffle := r.Group("/raffle")
	{
		raffle.POST("/open", h.Open)
		raffle.POST("/enter", h.Enter)
		raffle.POST("/end", h.End)
		raffle.GET("", h.GetRaffle)
		raffle.GET("/events", h.ListEvents)
	}

	oracle := r.Group("/oracle")
	{
		oracle.POST("/fulfill", h.Fulfill)
	}

	ledger := r.Group("/ledger")
	{
		ledger.POST("/accounts", h.CreateAccount)
		ledger.POST("/fund", h.Fund)
		ledger.GET("/:address", h.GetBalance)
	}

	return r
}
