package httpapi

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/nazeru/storefront-api/internal/domain"
)

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c credentials) validate(requireName bool) error {
	if requireName && strings.TrimSpace(c.Name) == "" {
		return domain.Invalid("name", "is required")
	}
	if !strings.Contains(c.Email, "@") {
		return domain.Invalid("email", "must be a valid address")
	}
	if len(c.Password) < 6 {
		return domain.Invalid("password", "must be at least 6 characters")
	}
	return nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.validate(true); err != nil {
		s.writeError(w, err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		s.writeError(w, err)
		return
	}
	u := &domain.User{Name: strings.TrimSpace(in.Name), Email: in.Email, PasswordHash: string(hash)}
	if err := s.users.Create(r.Context(), u); err != nil {
		s.writeError(w, err)
		return
	}
	token, err := s.auth.Issue(u)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": u, "token": token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := s.users.GetByEmail(r.Context(), in.Email)
	if err != nil {
		// Same answer for unknown email and bad password.
		s.writeError(w, domain.ErrInvalidCredentials)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		s.writeError(w, domain.ErrInvalidCredentials)
		return
	}
	token, err := s.auth.Issue(u)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "token": token})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	u, err := s.users.Get(r.Context(), ident.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	var in credentials
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := s.users.Get(r.Context(), ident.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		u.Name = name
	}
	if in.Email != "" {
		if !strings.Contains(in.Email, "@") {
			s.writeError(w, domain.Invalid("email", "must be a valid address"))
			return
		}
		u.Email = in.Email
	}
	if in.Password != "" {
		if len(in.Password) < 6 {
			s.writeError(w, domain.Invalid("password", "must be at least 6 characters"))
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			s.writeError(w, err)
			return
		}
		u.PasswordHash = string(hash)
	}
	if err := s.users.Update(r.Context(), u); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
