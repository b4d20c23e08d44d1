package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/ports"
)

type alertRequest struct {
	UserID          string          `json:"userId"`
	ThresholdAmount decimal.Decimal `json:"thresholdAmount"`
	AlertType       string          `json:"alertType"`
	ExpenseIDs      []string        `json:"expenseIds"`
}

type investmentRequest struct {
	UserID         string          `json:"userId"`
	Amount         decimal.Decimal `json:"amount"`
	PurchaseDate   string          `json:"purchaseDate"`
	ExpectedReturn decimal.Decimal `json:"expectedReturn"`
}

type recurringRequest struct {
	UserID     string          `json:"userId"`
	CategoryID string          `json:"categoryId"`
	Frequency  string          `json:"frequency"`
	Amount     decimal.Decimal `json:"amount"`
}

type goalRequest struct {
	UserID        string          `json:"userId"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Deadline      string          `json:"deadline"`
	Status        string          `json:"status"`
}

type goalPatchRequest struct {
	ID            string           `json:"id"`
	UserID        string           `json:"userId"`
	CurrentAmount *decimal.Decimal `json:"currentAmount"`
	Status        *core.GoalStatus `json:"status"`
}

// Alerts

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	owner, err := queryOwner(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()
	alerts, err := s.store.ListAlerts(ctx, owner)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(alerts))
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	owner, err := ownerFor(r, req.UserID)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	a := core.Alert{
		UserID:          owner,
		ThresholdAmount: req.ThresholdAmount.Round(2),
		AlertType:       core.AlertType(strings.ToLower(strings.TrimSpace(req.AlertType))),
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	created, err := s.ledger.CreateAlert(ctx, a, dedupe(req.ExpenseIDs))
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, err := requireID(r)
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	owner, err := queryOwner(r)
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()
	if err := s.ledger.DeleteAlert(ctx, owner, id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	writeDeleted(w)
}

// dedupe drops blank and repeated trigger ids, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Investments

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	owner, err := queryOwner(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()
	investments, err := s.store.ListInvestments(ctx, owner)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(investments))
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req investmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	owner, err := ownerFor(r, req.UserID)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	inv := core.Investment{
		UserID:         owner,
		Amount:         req.Amount.Round(2),
		PurchaseDate:   strings.TrimSpace(req.PurchaseDate),
		ExpectedReturn: req.ExpectedReturn,
	}
	if err := inv.Validate(); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	inv.PurchaseDate, _ = core.NormalizeDate(inv.PurchaseDate)

	ctx, cancel := s.storeContext(r)
	defer cancel()
	created, err := s.store.CreateInvestment(ctx, inv)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Recurring expenses

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	owner, err := queryOwner(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()
	rs, err := s.store.ListRecurringExpenses(ctx, owner)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rs))
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	owner, err := ownerFor(r, req.UserID)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	re := core.RecurringExpense{
		UserID:     owner,
		CategoryID: strings.TrimSpace(req.CategoryID),
		Frequency:  core.Frequency(strings.ToLower(strings.TrimSpace(req.Frequency))),
		Amount:     req.Amount.Round(2),
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	created, err := s.ledger.CreateRecurringExpense(ctx, re)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := requireID(r)
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	owner, err := queryOwner(r)
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()
	if err := s.ledger.DeleteRecurringExpense(ctx, owner, id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	writeDeleted(w)
}

// Savings goals

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	owner, err := queryOwner(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()
	goals, err := s.store.ListSavingsGoals(ctx, owner)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(goals))
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	owner, err := ownerFor(r, req.UserID)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	g := core.SavingsGoal{
		UserID:        owner,
		Name:          sanitizeInput(req.Name),
		TargetAmount:  req.TargetAmount.Round(2),
		CurrentAmount: req.CurrentAmount.Round(2),
		Deadline:      strings.TrimSpace(req.Deadline),
		Status:        core.GoalStatus(strings.ToLower(strings.TrimSpace(req.Status))),
	}
	if g.Status == "" {
		g.Status = core.GoalActive
	}
	if err := g.Validate(); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	if g.Deadline != "" {
		g.Deadline, _ = core.NormalizeDate(g.Deadline)
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	created, err := s.store.CreateSavingsGoal(ctx, g)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handlePatchGoal(w http.ResponseWriter, r *http.Request) {
	var req goalPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	if req.ID == "" {
		req.ID = strings.TrimSpace(r.URL.Query().Get("id"))
	}
	patch, err := req.patch()
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	owner, err := ownerFor(r, req.UserID)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	updated, err := s.store.UpdateSavingsGoal(ctx, owner, req.ID, patch)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (req goalPatchRequest) patch() (ports.GoalPatch, error) {
	if strings.TrimSpace(req.ID) == "" {
		return ports.GoalPatch{}, core.Invalid("id", core.ErrMissingField)
	}
	p := ports.GoalPatch{Status: req.Status}
	if req.CurrentAmount != nil {
		if req.CurrentAmount.IsNegative() {
			return p, core.Invalid("currentAmount", core.ErrNegativeAmount)
		}
		amount := req.CurrentAmount.Round(2)
		p.CurrentAmount = &amount
	}
	if p.Status != nil && !p.Status.Valid() {
		return p, core.Invalid("status", core.ErrInvalidStatus)
	}
	if p.Empty() {
		return p, core.Invalid("currentAmount", core.ErrMissingField)
	}
	return p, nil
}
