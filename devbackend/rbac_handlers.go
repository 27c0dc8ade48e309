package devbackend

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-admin-console/apiclient"
	"github.com/jrsteele09/go-admin-console/rbac"
)

func (s *Server) ListRoles(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.FeatureRBACManagement, rbac.ActionRead) {
		return
	}
	writeJSON(w, http.StatusOK, paginate(r, s.store.listRoles(r.URL.Query().Get("search"))))
}

func (s *Server) GetRole(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.FeatureRBACManagement, rbac.ActionRead) {
		return
	}
	role, err := s.store.role(chi.URLParam(r, "roleID"))
	if err != nil {
		mapError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", role)
}

func (s *Server) CreateRole(w http.ResponseWriter, r *http.Request) {
	s.saveRole(w, r, "", rbac.ActionCreate, http.StatusCreated, "Role created successfully")
}

func (s *Server) UpdateRole(w http.ResponseWriter, r *http.Request) {
	s.saveRole(w, r, chi.URLParam(r, "roleID"), rbac.ActionUpdate, http.StatusOK, "Role updated successfully")
}

func (s *Server) saveRole(w http.ResponseWriter, r *http.Request, id string, action rbac.Action, status int, message string) {
	if !s.requirePermission(w, r, rbac.FeatureRBACManagement, action) {
		return
	}
	var in apiclient.RoleInput
	if !decodeBody(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeIssues(w, []apiclient.Issue{{Field: "name", Message: "Name is required"}})
		return
	}
	role, err := s.store.saveRole(id, in)
	if err != nil {
		mapError(w, err)
		return
	}
	writeData(w, status, message, role)
}

func (s *Server) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.FeatureRBACManagement, rbac.ActionDelete) {
		return
	}
	role, err := s.store.deleteRole(chi.URLParam(r, "roleID"))
	if err != nil {
		mapError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Role deleted successfully", role)
}

// RoleOptions lists every role for user forms. Any signed-in user may read it.
func (s *Server) RoleOptions(w http.ResponseWriter, r *http.Request) {
	roles := s.store.listRoles("")
	options := make([]apiclient.RoleOption, 0, len(roles))
	for _, role := range roles {
		options = append(options, apiclient.RoleOption{ID: role.ID, Name: role.Name})
	}
	writeJSON(w, http.StatusOK, apiclient.Envelope[[]apiclient.RoleOption]{
		Data:       options,
		Pagination: &apiclient.Pagination{Total: len(options), Page: 1, Limit: len(options), TotalPages: 1},
	})
}

func (s *Server) MyPermissions(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "", s.store.permissionsFor(authFrom(r.Context()).account.RoleID))
}

func (s *Server) ListFeatures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, paginate(r, s.store.listFeatures()))
}

func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.FeatureDashboard, rbac.ActionRead) {
		return
	}
	writeData(w, http.StatusOK, "", s.store.stats())
}
