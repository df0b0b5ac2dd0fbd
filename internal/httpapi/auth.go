package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nazeru/storefront-api/internal/domain"
)

// Auth issues and verifies HS256 bearer tokens carrying the user id and
// role.
type Auth struct {
	secret []byte
	ttl    time.Duration
}

func NewAuth(secret string, ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Auth{secret: []byte(secret), ttl: ttl}
}

func (a *Auth) Issue(u *domain.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"role": string(u.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(a.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Auth) Verify(token string) (domain.Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	return domain.Identity{UserID: sub, Role: domain.Role(role)}, nil
}

type authedHandler func(w http.ResponseWriter, r *http.Request, ident domain.Identity)

// authenticate resolves the bearer token once and hands the identity to the
// handler explicitly.
func (s *Server) authenticate(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing bearer token"})
			return
		}
		ident, err := s.auth.Verify(strings.TrimSpace(token))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
			return
		}
		next(w, r, ident)
	}
}

func (s *Server) requireAdmin(next authedHandler) http.HandlerFunc {
	return s.authenticate(func(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
		if !ident.Admin() {
			writeJSON(w, http.StatusForbidden, map[string]any{"error": "admin only"})
			return
		}
		next(w, r, ident)
	})
}
