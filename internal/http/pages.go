package http

import (
	"bytes"
	"net/http"

	"github.com/shopspring/decimal"

	"wallet/internal/analytics"
	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/middleware/session"
	"wallet/internal/services"
	"wallet/internal/view"
)

type navItem struct {
	Label  string
	Href   string
	Active bool
}

// pageData is the view model every full page renders with.
type pageData struct {
	Title          string
	Identity       session.Identity
	SignedIn       bool
	Nav            []navItem
	AuthURL        string
	RedirectedFrom string
	Content        any
}

var (
	userNav  = []navItem{{Label: "Dashboard", Href: "/dashboard"}, {Label: "Transactions", Href: "/transactions"}, {Label: "Accounts", Href: "/accounts"}}
	adminNav = append(append([]navItem(nil), userNav...), navItem{Label: "Users", Href: "/admin/users"})
)

// navFor picks the sidebar from the session role. The URL never decides it.
func navFor(id session.Identity, active string) []navItem {
	base := userNav
	if id.IsAdmin() {
		base = adminNav
	}
	out := make([]navItem, len(base))
	for i, item := range base {
		item.Active = item.Href == active
		out[i] = item
	}
	return out
}

func (s *Server) newPage(r *http.Request, title, active string, content any) pageData {
	id, ok := session.FromContext(r.Context())
	p := pageData{
		Title:    title,
		Identity: id,
		SignedIn: ok,
		AuthURL:  s.authURL,
		Content:  content,
	}
	if ok {
		p.Nav = navFor(id, active)
	}
	return p
}

// render executes a template into a buffer so a failing template never
// leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) adminPage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !identity(r).IsAdmin() {
			ErrorResponse(http.StatusForbidden, "Admin access required").Write(w)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "landing_page", s.newPage(r, "Wallet", "/", nil))
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	p := s.newPage(r, "Sign in", "", nil)
	p.RedirectedFrom = r.URL.Query().Get("redirectedFrom")
	s.render(w, r, "sign_in_page", p)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "sign_up_page", s.newPage(r, "Sign up", "", nil))
}

// Dashboard

type goalView struct {
	Name     string
	Current  string
	Target   string
	Progress string
	Status   core.GoalStatus
	Deadline string
}

type recurringView struct {
	ID        string
	Category  string
	Frequency core.Frequency
	Amount    string
	Monthly   string
}

type alertView struct {
	ID        string
	Type      core.AlertType
	Threshold string
	Triggers  int
}

type investmentView struct {
	Amount         string
	PurchaseDate   string
	ExpectedReturn string
}

type dashboardView struct {
	Accounts         []view.AccountRow
	Investments      []investmentView
	Goals            []goalView
	Recurring        []recurringView
	RecurringMonthly string
	Alerts           []alertView
	Errors           map[string]string
}

func newDashboardView(ov services.Overview) dashboardView {
	v := dashboardView{
		Accounts: view.AccountRows(ov.Accounts),
		Errors:   ov.Errors,
	}
	for _, inv := range ov.Investments {
		v.Investments = append(v.Investments, investmentView{
			Amount:         view.Currency(inv.Amount),
			PurchaseDate:   inv.PurchaseDate,
			ExpectedReturn: inv.ExpectedReturn.StringFixed(2) + "%",
		})
	}
	for _, g := range ov.SavingsGoals {
		progress := 0.0
		if g.TargetAmount.IsPositive() {
			progress = g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		v.Goals = append(v.Goals, goalView{
			Name:     g.Name,
			Current:  view.Currency(g.CurrentAmount),
			Target:   view.Currency(g.TargetAmount),
			Progress: view.Percent(progress),
			Status:   g.Status,
			Deadline: g.Deadline,
		})
	}
	for _, re := range ov.RecurringExpenses {
		rv := recurringView{
			ID:        re.ID,
			Category:  core.UncategorizedName,
			Frequency: re.Frequency,
			Amount:    view.Currency(re.Amount),
		}
		if re.Category != nil {
			rv.Category = re.Category.Name
		}
		if m, err := services.MonthlyEquivalent(re); err == nil {
			rv.Monthly = view.Currency(m)
		}
		v.Recurring = append(v.Recurring, rv)
	}
	v.RecurringMonthly = view.Currency(services.MonthlyTotal(ov.RecurringExpenses))
	for _, a := range ov.Alerts {
		v.Alerts = append(v.Alerts, alertView{
			ID:        a.ID,
			Type:      a.AlertType,
			Threshold: view.Currency(a.ThresholdAmount),
			Triggers:  len(a.Triggers),
		})
	}
	return v
}

func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	ov := s.dashboard.Load(ctx, identity(r).UserID)
	s.render(w, r, "dashboard_page", s.newPage(r, "Dashboard", "/dashboard", newDashboardView(ov)))
}

// Transactions

type transactionsView struct {
	Window     analytics.Window
	Windows    []analytics.Window
	Reference  string
	Search     string
	Category   string
	Categories []core.Category
	Total      string
	Breakdown  []view.BreakdownRow
	Daily      []view.DayRow
	Rows       []view.TransactionRow
	Error      string
}

// loadTransactionsView builds the breakdown and table for the caller. The
// breakdown covers the whole window; the table is the searched subset.
func (s *Server) loadTransactionsView(r *http.Request) (transactionsView, error) {
	tq, err := s.parseTableQuery(r)
	if err != nil {
		return transactionsView{}, err
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	txs, err := s.store.ListTransactions(ctx, identity(r).UserID)
	if err != nil {
		return transactionsView{}, err
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return transactionsView{}, err
	}
	if tq.Query.Category == "" {
		tq.Query.Category = analytics.AllCategories
	}
	report := analytics.Build(txs, tq.Reference, tq.Window, tq.Query)
	return transactionsView{
		Window:     report.Window,
		Windows:    analytics.Windows(),
		Reference:  report.Reference,
		Search:     tq.Query.Term,
		Category:   tq.Query.Category,
		Categories: cats,
		Total:      view.Currency(report.Total),
		Breakdown:  view.BreakdownRows(report.Breakdown),
		Daily:      view.DailyRows(report.Daily),
		Rows:       view.TransactionRows(report.Transactions),
	}, nil
}

func (s *Server) handleTransactionsPage(w http.ResponseWriter, r *http.Request) {
	v, err := s.loadTransactionsView(r)
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load transactions", log.FieldError, err)
		}
		v = transactionsView{Windows: analytics.Windows(), Window: s.window, Error: msg}
	}
	s.render(w, r, "transactions_page", s.newPage(r, "Transactions", "/transactions", v))
}

// Accounts

type accountsView struct {
	Rows []view.AccountRow
}

func (s *Server) handleAccountsPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	accounts, err := s.store.ListAccounts(ctx, identity(r).UserID)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to list accounts", log.FieldError, err)
	}
	s.render(w, r, "accounts_page", s.newPage(r, "Accounts", "/accounts", accountsView{Rows: view.AccountRows(accounts)}))
}

// Admin

type usersView struct {
	Search string
	Users  []core.User
	Error  string
}

func (s *Server) loadUsersView(r *http.Request) usersView {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	term := sanitizeInput(r.URL.Query().Get("search"))
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to list users", log.FieldError, err)
		return usersView{Search: term, Error: "failed to load users"}
	}
	return usersView{Search: term, Users: analytics.SearchUsers(users, term)}
}

func (s *Server) handleAdminUsersPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "admin_users_page", s.newPage(r, "Users", "/admin/users", s.loadUsersView(r)))
}
