// Package auth names the learner behind a request. There are no accounts
// or passwords: POST /auth/session mints an HMAC token carrying a learner
// id (a supplied one, or a fresh guest id), and the middleware resolves it
// so the API can route to the right progression session.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Service struct{ hmac []byte }

func NewService(secret string) *Service { return &Service{hmac: []byte(secret)} }

type Claims struct {
	Sub string `json:"sub"` // learner id
	jwt.RegisteredClaims
}

func (s *Service) IssueToken(learnerID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub: learnerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "courseplayer",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(30 * 24 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.hmac)
}

func (s *Service) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	})
	if err != nil || !token.Valid {
		return nil, err
	}
	c, _ := token.Claims.(*Claims)
	return c, nil
}

// POST /auth/session  { "learner_id": "..." }  (learner_id optional)
func SessionHandler(s *Service) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		LearnerID   string `json:"learner_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LearnerID string `json:"learner_id"`
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		id := req.LearnerID
		if id == "" {
			id = "guest-" + uuid.NewString()
		}
		tok, err := s.IssueToken(id)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, LearnerID: id})
	}
}

type ctxKey int

const learnerKey ctxKey = iota

// LearnerID returns the learner id resolved by Middleware.
func LearnerID(ctx context.Context) string {
	id, _ := ctx.Value(learnerKey).(string)
	return id
}

func Middleware(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := s.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil || c == nil || c.Sub == "" {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), learnerKey, c.Sub)))
		})
	}
}

// AdminMiddleware gates the ops routes with basic auth against a bcrypt
// hash, in lieu of any real account system.
func AdminMiddleware(user, passHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok || u != user ||
				bcrypt.CompareHashAndPassword([]byte(passHash), []byte(p)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
