package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/log"
)

type bankRequest struct {
	Name    string `json:"name"`
	Branch  string `json:"branch"`
	Address string `json:"address"`
}

type accountRequest struct {
	ID      string          `json:"id"`
	UserID  string          `json:"userId"`
	Type    string          `json:"type"`
	Balance *decimal.Decimal `json:"balance"`
	Bank    *bankRequest     `json:"bank"`
}

// account builds the record to write. Type and balance are both required;
// a missing balance never falls back to zero.

func (req accountRequest) account(owner string) (core.Account, error) {
	a := core.Account{
		ID:     strings.TrimSpace(req.ID),
		UserID: owner,
		Type:   core.AccountType(strings.ToUpper(strings.TrimSpace(req.Type))),
	}
	if strings.TrimSpace(req.Type) == "" {
		return a, core.Invalid("type", core.ErrMissingField)
	}
	if req.Balance == nil {
		return a, core.Invalid("balance", core.ErrMissingField)
	}
	a.Balance = req.Balance.Round(2)
	if req.Bank != nil {
		a.Bank = &core.Bank{
			Name:    sanitizeInput(req.Bank.Name),
			Branch:  sanitizeInput(req.Bank.Branch),
			Address: sanitizeInput(req.Bank.Address),
		}
	}
	return a, a.Validate()
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	owner, err := queryOwner(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	accounts, err := s.store.ListAccounts(ctx, owner)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(accounts))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	owner, err := ownerFor(r, req.UserID)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	a, err := req.account(owner)
	a.ID = ""
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	created, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	owner, err := ownerFor(r, req.UserID)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	a, err := req.account(owner)
	if a.ID == "" {
		s.writeError(w, r, log.OpUpdate, core.Invalid("id", core.ErrMissingField))
		return
	}
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	updated, err := s.store.UpdateAccount(ctx, a)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
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
	if err := s.store.DeleteAccount(ctx, owner, id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	writeDeleted(w)
}

// nonNil keeps empty collections serialised as [] rather than null.
func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
