package http

import (
	"net/http"
	"strings"

	"wallet/internal/analytics"
	"wallet/internal/core"
	"wallet/internal/log"
)

type userRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
}

func (req userRequest) user() core.User {
	u := core.User{
		ID:          strings.TrimSpace(req.ID),
		Name:        sanitizeInput(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		PhoneNumber: sanitizeInput(req.PhoneNumber),
		Role:        core.Role(strings.ToLower(strings.TrimSpace(req.Role))),
	}
	if u.Role == "" {
		u.Role = core.RoleUser
	}
	return u
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(analytics.SearchUsers(users, r.URL.Query().Get("search"))))
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	u := req.user()
	if err := u.Validate(); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	log.FromContext(ctx).InfoContext(ctx, "User created",
		log.FieldUserID, created.ID,
		"by", identity(r).UserID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cats))
}

func (s *Server) handleDashboardAPI(w http.ResponseWriter, r *http.Request) {
	owner, err := queryOwner(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()
	writeJSON(w, http.StatusOK, s.dashboard.Load(ctx, owner))
}
