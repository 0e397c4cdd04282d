// Package api exposes the ledger over a JSON HTTP interface.
//
// Monetary amounts cross this boundary as decimal strings ("12.34");
// everything behind it works in integer minor units.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ferrante/splitledger/internal/middleware"
	"github.com/ferrante/splitledger/internal/models"
	"github.com/ferrante/splitledger/internal/money"
	"github.com/ferrante/splitledger/internal/service"
)

type Handler struct {
	auth        *service.AuthService
	groups      *service.GroupService
	ledger      *service.LedgerService
	settlements *service.SettlementService
}

func NewHandler(auth *service.AuthService, groups *service.GroupService, ledger *service.LedgerService, settlements *service.SettlementService) *Handler {
	return &Handler{
		auth:        auth,
		groups:      groups,
		ledger:      ledger,
		settlements: settlements,
	}
}

type memberJSON struct {
	Key         string `json:"key"`
	UserID      string `json:"user_id,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name"`
}

func toMemberJSON(m models.Member) memberJSON {
	return memberJSON{
		Key:         m.Key(),
		UserID:      m.UserID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
	}
}

type groupJSON struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Currency string       `json:"currency"`
	Members  []memberJSON `json:"members"`
}

func toGroupJSON(g *models.Group) groupJSON {
	members := make([]memberJSON, len(g.Members))
	for i, m := range g.Members {
		members[i] = toMemberJSON(m)
	}
	return groupJSON{ID: g.ID, Name: g.Name, Currency: g.Currency, Members: members}
}

type balanceJSON struct {
	Member memberJSON `json:"member"`
	Amount string     `json:"amount"`
}

type edgeJSON struct {
	From   memberJSON `json:"from"`
	To     memberJSON `json:"to"`
	Amount string     `json:"amount"`
}

func toBalancesJSON(balances []models.NetBalance) []balanceJSON {
	out := make([]balanceJSON, len(balances))
	for i, nb := range balances {
		out[i] = balanceJSON{Member: toMemberJSON(nb.Member), Amount: money.Format(nb.Amount)}
	}
	return out
}

func toEdgesJSON(edges []models.DebtEdge) []edgeJSON {
	out := make([]edgeJSON, len(edges))
	for i, e := range edges {
		out[i] = edgeJSON{From: toMemberJSON(e.From), To: toMemberJSON(e.To), Amount: money.Format(e.Amount)}
	}
	return out
}

type projectionJSON struct {
	Balances    []balanceJSON `json:"balances"`
	Suggestions []edgeJSON    `json:"suggestions"`
}

type expenseJSON struct {
	ID            string       `json:"id"`
	Description   string       `json:"description"`
	Amount        string       `json:"amount"`
	Currency      string       `json:"currency"`
	Payer         memberJSON   `json:"payer"`
	Beneficiaries []memberJSON `json:"beneficiaries"`
	CreatedAt     int64        `json:"created_at"`
}

func toExpenseJSON(e *models.ExpenseRecord) expenseJSON {
	beneficiaries := make([]memberJSON, len(e.Beneficiaries))
	for i, m := range e.Beneficiaries {
		beneficiaries[i] = toMemberJSON(m)
	}
	return expenseJSON{
		ID:            e.ID,
		Description:   e.Description,
		Amount:        money.Format(e.Amount),
		Currency:      e.Currency,
		Payer:         toMemberJSON(e.Payer),
		Beneficiaries: beneficiaries,
		CreatedAt:     e.CreatedAt,
	}
}

type settlementJSON struct {
	ID        string     `json:"id"`
	From      memberJSON `json:"from"`
	To        memberJSON `json:"to"`
	Amount    string     `json:"amount"`
	Currency  string     `json:"currency"`
	Status    string     `json:"status"`
	Note      string     `json:"note,omitempty"`
	CreatedAt int64      `json:"created_at"`
}

func toSettlementJSON(s *models.SettlementRecord) settlementJSON {
	return settlementJSON{
		ID:        s.ID,
		From:      toMemberJSON(s.From),
		To:        toMemberJSON(s.To),
		Amount:    money.Format(s.Amount),
		Currency:  s.Currency,
		Status:    string(s.Status),
		Note:      s.Note,
		CreatedAt: s.CreatedAt,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "invalid request body")
		return false
	}
	return true
}

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	} `json:"user"`
}

func toAuthResponse(user *models.User, token string) authResponse {
	var resp authResponse
	resp.Token = token
	resp.User.ID = user.ID
	resp.User.Email = user.Email
	resp.User.DisplayName = user.DisplayName
	return resp
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, token, err := h.auth.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toAuthResponse(user, token))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toAuthResponse(user, token))
}

type createGroupRequest struct {
	Name     string                `json:"name"`
	Currency string                `json:"currency"`
	Members  []service.MemberInput `json:"members"`
}

func (h *Handler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	// The creator is always part of the group.
	members := append([]service.MemberInput{{UserID: middleware.GetUserID(r.Context())}}, req.Members...)
	group, err := h.groups.CreateGroup(r.Context(), req.Name, req.Currency, members)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toGroupJSON(group))
}

func (h *Handler) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.GetGroup(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toGroupJSON(group))
}

type addMembersRequest struct {
	Members []service.MemberInput `json:"members"`
}

func (h *Handler) handleAddMembers(w http.ResponseWriter, r *http.Request) {
	var req addMembersRequest
	if !decodeBody(w, r, &req) {
		return
	}
	group, err := h.groups.AddMembers(r.Context(), r.PathValue("groupID"), req.Members)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toGroupJSON(group))
}

type expenseRequest struct {
	Description   string   `json:"description"`
	Amount        string   `json:"amount"`
	Currency      string   `json:"currency"`
	Payer         string   `json:"payer"`
	Beneficiaries []string `json:"beneficiaries"`
	Shares        []string `json:"shares"`
}

func (req *expenseRequest) toInput(w http.ResponseWriter) (service.ExpenseInput, bool) {
	amount, err := money.Parse(req.Amount)
	if err != nil {
		badRequest(w, "invalid amount: "+err.Error())
		return service.ExpenseInput{}, false
	}
	var shares []int64
	for _, s := range req.Shares {
		share, err := money.ParseShare(s)
		if err != nil {
			badRequest(w, "invalid share: "+err.Error())
			return service.ExpenseInput{}, false
		}
		shares = append(shares, share)
	}
	return service.ExpenseInput{
		Description:     req.Description,
		Amount:          amount,
		Currency:        req.Currency,
		PayerRef:        req.Payer,
		BeneficiaryRefs: req.Beneficiaries,
		Shares:          shares,
	}, true
}

func (h *Handler) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	input, ok := req.toInput(w)
	if !ok {
		return
	}
	expense, err := h.groups.AddExpense(r.Context(), r.PathValue("groupID"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toExpenseJSON(expense))
}

func (h *Handler) handleVoidExpense(w http.ResponseWriter, r *http.Request) {
	err := h.groups.VoidExpense(r.Context(), r.PathValue("groupID"), r.PathValue("expenseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settlementRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Note     string `json:"note"`
}

func (req *settlementRequest) toInput(w http.ResponseWriter) (service.SettlementInput, bool) {
	amount, err := money.Parse(req.Amount)
	if err != nil {
		badRequest(w, "invalid amount: "+err.Error())
		return service.SettlementInput{}, false
	}
	return service.SettlementInput{
		FromRef:  req.From,
		ToRef:    req.To,
		Amount:   amount,
		Currency: req.Currency,
		Note:     req.Note,
	}, true
}

func (h *Handler) handleRecordSettlement(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if !decodeBody(w, r, &req) {
		return
	}
	input, ok := req.toInput(w)
	if !ok {
		return
	}
	settlement, err := h.settlements.Record(r.Context(), r.PathValue("groupID"), input, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSettlementJSON(settlement))
}

func (h *Handler) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.ledger.Balances(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]balanceJSON{"balances": toBalancesJSON(balances)})
}

func (h *Handler) handleDetailedDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.ledger.DetailedDebts(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]edgeJSON{"debts": toEdgesJSON(debts)})
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.ledger.Suggestions(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]edgeJSON{"suggestions": toEdgesJSON(suggestions)})
}

func toProjectionJSON(p *models.Projection) projectionJSON {
	return projectionJSON{
		Balances:    toBalancesJSON(p.Balances),
		Suggestions: toEdgesJSON(p.Suggestions),
	}
}

func (h *Handler) handleWhatIfExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	input, ok := req.toInput(w)
	if !ok {
		return
	}
	projection, err := h.ledger.WhatIfExpense(r.Context(), r.PathValue("groupID"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toProjectionJSON(projection))
}

func (h *Handler) handleWhatIfSettlement(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if !decodeBody(w, r, &req) {
		return
	}
	input, ok := req.toInput(w)
	if !ok {
		return
	}
	projection, err := h.ledger.WhatIfSettlement(r.Context(), r.PathValue("groupID"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toProjectionJSON(projection))
}
