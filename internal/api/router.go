package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/ferrante/splitledger/internal/auth"
	"github.com/ferrante/splitledger/internal/middleware"
)

// NewRouter wires the handlers into an http.Handler with the full
// middleware chain applied. Auth endpoints and health/metrics are public;
// everything under /v1/groups requires a valid token.
func NewRouter(h *Handler, jwtManager *auth.JWTManager, writeRPS rate.Limit, writeBurst int) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/auth/register", h.handleRegister)
	mux.HandleFunc("POST /v1/auth/login", h.handleLogin)

	requireAuth := middleware.RequireAuth(jwtManager)
	protected := func(pattern string, handler http.HandlerFunc) {
		mux.Handle(pattern, requireAuth(handler))
	}

	protected("POST /v1/groups", h.handleCreateGroup)
	protected("GET /v1/groups/{groupID}", h.handleGetGroup)
	protected("POST /v1/groups/{groupID}/members", h.handleAddMembers)
	protected("POST /v1/groups/{groupID}/expenses", h.handleAddExpense)
	protected("DELETE /v1/groups/{groupID}/expenses/{expenseID}", h.handleVoidExpense)
	protected("POST /v1/groups/{groupID}/settlements", h.handleRecordSettlement)
	protected("GET /v1/groups/{groupID}/balances", h.handleBalances)
	protected("GET /v1/groups/{groupID}/debts", h.handleDetailedDebts)
	protected("GET /v1/groups/{groupID}/suggestions", h.handleSuggestions)
	protected("POST /v1/groups/{groupID}/whatif/expense", h.handleWhatIfExpense)
	protected("POST /v1/groups/{groupID}/whatif/settlement", h.handleWhatIfSettlement)

	var handler http.Handler = mux
	handler = middleware.WriteLimit(writeRPS, writeBurst)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.Metrics(handler)
	return handler
}
