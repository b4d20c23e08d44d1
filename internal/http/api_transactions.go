package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/analytics"
	"wallet/internal/core"
	"wallet/internal/log"
)

type transactionRequest struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	AccountID       string          `json:"accountId"`
	CategoryID      string          `json:"categoryId"`
	TransactionDate string          `json:"transactionDate"`
	Description     string          `json:"description"`
	Amount          *decimal.Decimal `json:"amount"`
	Direction       string           `json:"direction"`
}

func (req transactionRequest) transaction(owner string) (core.Transaction, error) {
	t := core.Transaction{
		ID:          strings.TrimSpace(req.ID),
		UserID:      owner,
		AccountID:   strings.TrimSpace(req.AccountID),
		CategoryID:  strings.TrimSpace(req.CategoryID),
		Date:        strings.TrimSpace(req.TransactionDate),
		Description: sanitizeInput(req.Description),
		Direction:   core.Direction(strings.ToUpper(strings.TrimSpace(req.Direction))),
	}
	if req.Amount == nil {
		return t, core.Invalid("amount", core.ErrMissingField)
	}
	t.Amount = *req.Amount
	return t, nil
}

// tableQuery is the range/search/category triple shared by the API and the
// transactions screen.
type tableQuery struct {
	Window    analytics.Window
	Windowed  bool
	Reference time.Time
	Query     analytics.Query
}

func (s *Server) parseTableQuery(r *http.Request) (tableQuery, error) {
	q := r.URL.Query()
	tq := tableQuery{
		Window:    s.window,
		Reference: s.now(),
		Query: analytics.Query{
			Term:     sanitizeInput(q.Get("search")),
			Category: sanitizeInput(q.Get("category")),
		},
	}
	if v := strings.TrimSpace(q.Get("range")); v != "" {
		w, err := analytics.ParseWindow(v)
		if err != nil {
			return tq, core.Invalid("range", err)
		}
		tq.Window, tq.Windowed = w, true
	}
	if v := strings.TrimSpace(q.Get("reference")); v != "" {
		ref, err := core.ParseDate(v)
		if err != nil {
			return tq, core.Invalid("reference", err)
		}
		tq.Reference = ref
	}
	return tq, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	tq, err := s.parseTableQuery(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	owner, err := queryOwner(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	txs, err := s.store.ListTransactions(ctx, owner)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	if tq.Windowed {
		txs = analytics.FilterWindow(txs, tq.Reference, tq.Window)
	}
	writeJSON(w, http.StatusOK, analytics.Search(txs, tq.Query))
}

func (s *Server) handleTransactionAnalytics(w http.ResponseWriter, r *http.Request) {
	tq, err := s.parseTableQuery(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	owner, err := queryOwner(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	txs, err := s.store.ListTransactions(ctx, owner)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	report := analytics.Build(txs, tq.Reference, tq.Window, tq.Query)
	report.Breakdown = nonNil(report.Breakdown)
	report.Daily = nonNil(report.Daily)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	owner, err := ownerFor(r, req.UserID)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	t, err := req.transaction(owner)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	t.ID = ""

	ctx, cancel := s.storeContext(r)
	defer cancel()
	created, err := s.ledger.CreateTransaction(ctx, t)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	owner, err := ownerFor(r, req.UserID)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	t, err := req.transaction(owner)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	updated, err := s.ledger.UpdateTransaction(ctx, t)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
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
	if err := s.ledger.DeleteTransaction(ctx, owner, id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	writeDeleted(w)
}
