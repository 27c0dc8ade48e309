package devbackend

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-admin-console/apiclient"
)

func (s *Server) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.refreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req apiclient.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var issues []apiclient.Issue
	if strings.TrimSpace(req.Email) == "" {
		issues = append(issues, apiclient.Issue{Field: "email", Message: "Email is required"})
	}
	if req.Password == "" {
		issues = append(issues, apiclient.Issue{Field: "password", Message: "Password is required"})
	}
	if len(issues) > 0 {
		writeIssues(w, issues)
		return
	}

	account, err := s.store.accountByEmail(req.Email)
	if err != nil || !CheckPasswordHash(req.Password, account.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !account.IsActive {
		writeError(w, http.StatusForbidden, "Account is disabled")
		return
	}

	refreshToken, err := s.refresh.create(account.ID)
	if err != nil {
		s.log.Err(err).Msg("Creating refresh token")
		mapError(w, err)
		return
	}
	accessToken, err := s.access.issue(account)
	if err != nil {
		s.log.Err(err).Msg("Issuing access token")
		mapError(w, err)
		return
	}

	s.setRefreshCookie(w, refreshToken)
	s.log.Info().Str("user_id", account.ID).Msg("Login")
	writeData(w, http.StatusOK, "Login successful", apiclient.AuthResponseData{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         s.sessionUser(account),
	})
}

// Refresh rotates the refresh cookie and returns a new access token
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "Refresh token missing")
		return
	}
	newToken, userID, err := s.refresh.rotate(cookie.Value)
	if err != nil {
		clearRefreshCookie(w)
		writeError(w, http.StatusUnauthorized, "Refresh token is invalid or expired")
		return
	}
	account, err := s.store.accountByID(userID)
	if err != nil || !account.IsActive {
		s.refresh.revoke(newToken)
		clearRefreshCookie(w)
		writeError(w, http.StatusUnauthorized, "Account is not available")
		return
	}
	accessToken, err := s.access.issue(account)
	if err != nil {
		mapError(w, err)
		return
	}

	s.setRefreshCookie(w, newToken)
	writeData(w, http.StatusOK, "Token refreshed", apiclient.RefreshData{AccessToken: accessToken})
}

// Logout revokes the presented refresh cookie and, when valid, the access token
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		s.refresh.revoke(cookie.Value)
	}
	if raw, ok := bearerToken(r); ok {
		if claims, err := s.access.verify(raw); err == nil {
			s.access.revoke(claims)
		}
	}
	clearRefreshCookie(w)
	writeData(w, http.StatusOK, "Logged out", struct{}{})
}

func (s *Server) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ac := authFrom(r.Context())
	s.refresh.revokeUser(ac.account.ID)
	s.access.revoke(ac.claims)
	clearRefreshCookie(w)
	writeData(w, http.StatusOK, "Logged out of all sessions", struct{}{})
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "", s.sessionUser(authFrom(r.Context()).account))
}

func (s *Server) sessionUser(account *Account) apiclient.User {
	mu := s.store.managedUser(account)
	return apiclient.User{ID: mu.ID, Email: mu.Email, Name: mu.Name, RoleName: mu.RoleName}
}
