package devbackend

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-admin-console/apiclient"
	"github.com/jrsteele09/go-admin-console/rbac"
)

// requirePermission answers 403 unless the caller's role allows action on feature
func (s *Server) requirePermission(w http.ResponseWriter, r *http.Request, feature string, action rbac.Action) bool {
	mine := s.store.permissionsFor(authFrom(r.Context()).account.RoleID)
	if !rbac.NewPermissions(&mine).HasPermission(feature, action) {
		writeError(w, http.StatusForbidden, "You do not have permission to perform this action")
		return false
	}
	return true
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.FeatureUserManagement, rbac.ActionRead) {
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, paginate(r, s.store.listAccounts(q.Get("search"), q.Get("role"))))
}

func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.FeatureUserManagement, rbac.ActionRead) {
		return
	}
	account, err := s.store.accountByID(chi.URLParam(r, "userID"))
	if err != nil {
		mapError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", s.store.managedUser(account))
}

func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.FeatureUserManagement, rbac.ActionCreate) {
		return
	}
	var in apiclient.UserInput
	if !decodeBody(w, r, &in) {
		return
	}
	if !s.validUser(w, in, true) {
		return
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		mapError(w, err)
		return
	}
	now := NowTimeFunc()
	account := &Account{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		IsActive:     in.IsActive,
		RoleID:       in.RoleID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.upsertAccount(account); err != nil {
		mapError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "User created successfully", s.store.managedUser(account))
}

func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.FeatureUserManagement, rbac.ActionUpdate) {
		return
	}
	account, err := s.store.accountByID(chi.URLParam(r, "userID"))
	if err != nil {
		mapError(w, err)
		return
	}
	var in apiclient.UserInput
	if !decodeBody(w, r, &in) {
		return
	}
	if !s.validUser(w, in, false) {
		return
	}
	if in.Password != "" {
		hash, err := HashPassword(in.Password)
		if err != nil {
			mapError(w, err)
			return
		}
		account.PasswordHash = hash
	}
	account.Email = in.Email
	account.Name = in.Name
	account.RoleID = in.RoleID
	account.IsActive = in.IsActive
	account.UpdatedAt = NowTimeFunc()
	if err := s.store.upsertAccount(account); err != nil {
		mapError(w, err)
		return
	}
	if !account.IsActive {
		s.refresh.revokeUser(account.ID)
	}
	writeData(w, http.StatusOK, "User updated successfully", s.store.managedUser(account))
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.FeatureUserManagement, rbac.ActionDelete) {
		return
	}
	id := chi.URLParam(r, "userID")
	if id == authFrom(r.Context()).account.ID {
		writeError(w, http.StatusBadRequest, "You cannot delete your own account")
		return
	}
	account, err := s.store.deleteAccount(id)
	if err != nil {
		mapError(w, err)
		return
	}
	s.refresh.revokeUser(account.ID)
	writeData(w, http.StatusOK, "User deleted successfully", account.toManagedUser(""))
}

func (s *Server) validUser(w http.ResponseWriter, in apiclient.UserInput, creating bool) bool {
	issues := validateUserInput(in, creating)
	if in.RoleID != "" && !s.store.roleExists(in.RoleID) {
		issues = append(issues, apiclient.Issue{Field: "roleId", Message: "Role does not exist"})
	}
	if len(issues) > 0 {
		writeIssues(w, issues)
		return false
	}
	return true
}
