package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/view"
)

// formView is what every editor partial renders: the editor state, the
// values typed so far and the error that sent it back, if any.
type formView[F any] struct {
	State   string
	IsNew   bool
	Error   string
	Fields  F
	Options formOptions
}

type formOptions struct {
	Categories   []core.Category
	Accounts     []view.AccountRow
	AccountTypes []core.AccountType
	Roles        []core.Role
}

func newFormView[T, F any](ed *view.Editor[T], fields F) formView[F] {
	v := formView[F]{State: ed.State().String(), IsNew: ed.IsNew(), Fields: fields}
	if err := ed.Err(); err != nil {
		_, v.Error = statusFor(err)
	}
	return v
}

// failEditor records err on the editor. Validation and ownership failures go
// back to the form and yield nil; anything else comes back as the error to
// report.
func failEditor[T any](ed *view.Editor[T], err error) error {
	if ferr := ed.Fail(err); ferr != nil {
		return fmt.Errorf("%w (recording %v)", ferr, err)
	}
	if status, _ := statusFor(err); status >= http.StatusInternalServerError {
		return err
	}
	return nil
}

// editorFault reports a rejected editor transition as a server error. It
// returns false when there was nothing to report.
func (s *Server) editorFault(w http.ResponseWriter, r *http.Request, op string, errs ...error) bool {
	err := errors.Join(errs...)
	if err == nil {
		return false
	}
	s.uiError(w, r, op, err)
	return true
}

func (s *Server) uiError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "UI request failed",
			log.FieldOperation, op,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
	ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
}

// Transactions

type transactionFields struct {
	ID          string
	Date        string
	Description string
	Amount      string
	Direction   core.Direction
	CategoryID  string
	AccountID   string
}

func transactionFieldsOf(t *core.Transaction, today string) transactionFields {
	if t == nil {
		return transactionFields{Date: today, Direction: core.Debit}
	}
	return transactionFields{
		ID:          t.ID,
		Date:        t.Date,
		Description: t.Description,
		Amount:      t.Amount.StringFixed(2),
		Direction:   t.Direction,
		CategoryID:  t.CategoryID,
		AccountID:   t.AccountID,
	}
}

func (s *Server) transactionOptions(ctx context.Context, userID string) formOptions {
	var opts formOptions
	if cats, err := s.store.ListCategories(ctx); err == nil {
		opts.Categories = cats
	}
	if accounts, err := s.store.ListAccounts(ctx, userID); err == nil {
		opts.Accounts = view.AccountRows(accounts)
	}
	return opts
}

func (s *Server) handleTransactionsPanel(w http.ResponseWriter, r *http.Request) {
	v, err := s.loadTransactionsView(r)
	if err != nil {
		s.uiError(w, r, log.OpList, err)
		return
	}
	s.render(w, r, "transactions_panel", v)
}

func (s *Server) findTransaction(ctx context.Context, userID, id string) (*core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		if txs[i].ID == id {
			return &txs[i], nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Server) handleTransactionForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	userID := identity(r).UserID

	var target *core.Transaction
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		t, err := s.findTransaction(ctx, userID, id)
		if err != nil {
			s.uiError(w, r, log.OpRead, err)
			return
		}
		target = t
	}

	var ed view.Editor[core.Transaction]
	if s.editorFault(w, r, log.OpRead, ed.Open(target)) {
		return
	}
	v := newFormView(&ed, transactionFieldsOf(target, s.now().Format(core.DateLayout)))
	v.Options = s.transactionOptions(ctx, userID)
	s.render(w, r, "transaction_form", v)
}

func (s *Server) handleTransactionSubmit(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.uiError(w, r, log.OpCreate, errBadRequest)
		return
	}
	fields := transactionFields{
		ID:          p.Get("id"),
		Date:        p.Get("transactionDate"),
		Description: p.Get("description"),
		Amount:      p.Get("amount"),
		Direction:   core.Direction(strings.ToUpper(p.Get("direction"))),
		CategoryID:  p.Get("categoryId"),
		AccountID:   p.Get("accountId"),
	}
	userID := identity(r).UserID

	var ed view.Editor[core.Transaction]
	var target *core.Transaction
	if fields.ID != "" {
		target = &core.Transaction{ID: fields.ID, UserID: userID}
	}
	if s.editorFault(w, r, log.OpCreate, ed.Open(target), ed.Submit()) {
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()

	t := core.Transaction{
		ID:          fields.ID,
		UserID:      userID,
		AccountID:   fields.AccountID,
		CategoryID:  fields.CategoryID,
		Date:        fields.Date,
		Description: fields.Description,
		Direction:   fields.Direction,
	}
	amount, err := p.Amount("amount", false)
	if err == nil {
		t.Amount = amount
		if ed.IsNew() {
			_, err = s.ledger.CreateTransaction(ctx, t)
		} else {
			_, err = s.ledger.UpdateTransaction(ctx, t)
		}
	}
	if err != nil {
		if ferr := failEditor(&ed, err); ferr != nil {
			s.uiError(w, r, log.OpCreate, ferr)
			return
		}
		v := newFormView(&ed, fields)
		v.Options = s.transactionOptions(ctx, userID)
		s.render(w, r, "transaction_form", v)
		return
	}

	if s.editorFault(w, r, log.OpCreate, ed.Succeed()) {
		return
	}
	NewHTMXResponse().
		TriggerTransactionsChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Transaction saved").
		Write(w)
}

func (s *Server) handleTransactionDelete(w http.ResponseWriter, r *http.Request) {
	var ed view.Editor[core.Transaction]
	confirmed, err := ed.ConfirmDelete(formBool(r.URL.Query().Get("confirm")))
	if s.editorFault(w, r, log.OpDelete, err) {
		return
	}
	if !confirmed {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	id, err := requireID(r)
	if err != nil {
		s.uiError(w, r, log.OpDelete, err)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	if err := s.ledger.DeleteTransaction(ctx, identity(r).UserID, id); err != nil {
		s.uiError(w, r, log.OpDelete, err)
		return
	}
	NewHTMXResponse().
		TriggerTransactionsChanged().
		TriggerSuccessNotification("Transaction deleted").
		Write(w)
}

// Accounts

type accountFields struct {
	ID          string
	Type        core.AccountType
	Balance     string
	BankName    string
	BankBranch  string
	BankAddress string
}

func accountFieldsOf(a *core.Account) accountFields {
	if a == nil {
		return accountFields{Type: core.Chequing, Balance: "0.00"}
	}
	f := accountFields{ID: a.ID, Type: a.Type, Balance: a.Balance.StringFixed(2)}
	if a.Bank != nil {
		f.BankName, f.BankBranch, f.BankAddress = a.Bank.Name, a.Bank.Branch, a.Bank.Address
	}
	return f
}

func accountOptions() formOptions {
	return formOptions{AccountTypes: core.AccountTypes()}
}

func (s *Server) handleAccountForm(w http.ResponseWriter, r *http.Request) {
	var target *core.Account
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		ctx, cancel := s.storeContext(r)
		defer cancel()
		a, err := s.store.GetAccount(ctx, identity(r).UserID, id)
		if err != nil {
			s.uiError(w, r, log.OpRead, err)
			return
		}
		target = &a
	}

	var ed view.Editor[core.Account]
	if s.editorFault(w, r, log.OpRead, ed.Open(target)) {
		return
	}
	v := newFormView(&ed, accountFieldsOf(target))
	v.Options = accountOptions()
	s.render(w, r, "account_form", v)
}

func (s *Server) handleAccountSubmit(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.uiError(w, r, log.OpCreate, errBadRequest)
		return
	}
	fields := accountFields{
		ID:          p.Get("id"),
		Type:        core.AccountType(strings.ToUpper(p.Get("type"))),
		Balance:     p.Get("balance"),
		BankName:    p.Get("bankName"),
		BankBranch:  p.Get("bankBranch"),
		BankAddress: p.Get("bankAddress"),
	}
	userID := identity(r).UserID

	var ed view.Editor[core.Account]
	var target *core.Account
	if fields.ID != "" {
		target = &core.Account{ID: fields.ID, UserID: userID}
	}
	if s.editorFault(w, r, log.OpCreate, ed.Open(target), ed.Submit()) {
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()

	a := core.Account{ID: fields.ID, UserID: userID, Type: fields.Type}
	if fields.BankName != "" || fields.BankBranch != "" || fields.BankAddress != "" {
		a.Bank = &core.Bank{Name: fields.BankName, Branch: fields.BankBranch, Address: fields.BankAddress}
	}
	balance, err := p.Amount("balance", true)
	if err == nil {
		a.Balance = balance
		err = a.Validate()
	}
	if err == nil {
		if ed.IsNew() {
			_, err = s.store.CreateAccount(ctx, a)
		} else {
			_, err = s.store.UpdateAccount(ctx, a)
		}
	}
	if err != nil {
		if ferr := failEditor(&ed, err); ferr != nil {
			s.uiError(w, r, log.OpCreate, ferr)
			return
		}
		v := newFormView(&ed, fields)
		v.Options = accountOptions()
		s.render(w, r, "account_form", v)
		return
	}

	if s.editorFault(w, r, log.OpCreate, ed.Succeed()) {
		return
	}
	rows, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		s.uiError(w, r, log.OpList, err)
		return
	}
	s.renderAccountsTable(w, r, rows, "Account saved")
}

func (s *Server) handleAccountDelete(w http.ResponseWriter, r *http.Request) {
	var ed view.Editor[core.Account]
	confirmed, err := ed.ConfirmDelete(formBool(r.URL.Query().Get("confirm")))
	if s.editorFault(w, r, log.OpDelete, err) {
		return
	}
	if !confirmed {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	id, err := requireID(r)
	if err != nil {
		s.uiError(w, r, log.OpDelete, err)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	userID := identity(r).UserID
	if err := s.store.DeleteAccount(ctx, userID, id); err != nil {
		s.uiError(w, r, log.OpDelete, err)
		return
	}
	rows, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		s.uiError(w, r, log.OpList, err)
		return
	}
	s.renderAccountsTable(w, r, rows, "Account deleted")
}

// renderAccountsTable answers a successful account write with the refreshed
// table; the HX-Retarget header moves the swap off the editor.
func (s *Server) renderAccountsTable(w http.ResponseWriter, r *http.Request, accounts []core.Account, notice string) {
	NewHTMXResponse().
		TriggerFormReset().
		TriggerSuccessNotification(notice).
		Header("HX-Retarget", "#accounts-table").
		Header("HX-Reswap", "outerHTML").
		ApplyHeaders(w)
	s.render(w, r, "accounts_table", accountsView{Rows: view.AccountRows(accounts)})
}

// Users

type userFields struct {
	Name        string
	Email       string
	PhoneNumber string
	Role        core.Role
}

func (s *Server) handleUsersTable(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "users_table", s.loadUsersView(r))
}

func (s *Server) handleUserForm(w http.ResponseWriter, r *http.Request) {
	var ed view.Editor[core.User]
	if s.editorFault(w, r, log.OpRead, ed.Open(nil)) {
		return
	}
	v := newFormView(&ed, userFields{Role: core.RoleUser})
	v.Options = formOptions{Roles: []core.Role{core.RoleUser, core.RoleAdmin}}
	s.render(w, r, "user_form", v)
}

func (s *Server) handleUserSubmit(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.uiError(w, r, log.OpCreate, errBadRequest)
		return
	}
	req := userRequest{
		Name:        p.Get("name"),
		Email:       p.Get("email"),
		PhoneNumber: p.Get("phoneNumber"),
		Role:        p.Get("role"),
	}
	u := req.user()

	var ed view.Editor[core.User]
	if s.editorFault(w, r, log.OpCreate, ed.Open(nil), ed.Submit()) {
		return
	}

	err := u.Validate()
	if err == nil {
		ctx, cancel := s.storeContext(r)
		defer cancel()
		_, err = s.store.CreateUser(ctx, u)
	}
	if err != nil {
		if ferr := failEditor(&ed, err); ferr != nil {
			s.uiError(w, r, log.OpCreate, ferr)
			return
		}
		v := newFormView(&ed, userFields{Name: u.Name, Email: u.Email, PhoneNumber: u.PhoneNumber, Role: u.Role})
		v.Options = formOptions{Roles: []core.Role{core.RoleUser, core.RoleAdmin}}
		s.render(w, r, "user_form", v)
		return
	}

	if s.editorFault(w, r, log.OpCreate, ed.Succeed()) {
		return
	}
	NewHTMXResponse().
		TriggerUsersChanged().
		TriggerFormReset().
		TriggerSuccessNotification("User created").
		Write(w)
}
