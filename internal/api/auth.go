package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"dealerwatch/internal/config"
	"dealerwatch/internal/logging"
)

type contextKey string

const userContextKey contextKey = "user"

const tokenLifetime = 2 * time.Hour

// LoginRequest carries admin credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse returns the session token.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// HandleLogin verifies the admin credentials and issues a JWT.
func HandleLogin(cfg *config.Config) http.HandlerFunc {
	log := logging.Named("api")
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.Username != cfg.AdminUsername {
			log.Warnw("login failed: unknown user", "remote", r.RemoteAddr)
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(cfg.AdminPasswordHash), []byte(req.Password)); err != nil {
			log.Warnw("login failed: bad password", "remote", r.RemoteAddr)
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		token, err := generateJWT(req.Username, cfg.JWTSecret)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to generate token")
			return
		}

		log.Infow("login succeeded", "user", req.Username)
		respondJSON(w, http.StatusOK, LoginResponse{Token: token, Username: req.Username})
	}
}

// HandleLogout exists for client symmetry; JWT sessions end client-side.
func HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				respondError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				respondError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}
			sub, _ := claims["sub"].(string)
			if sub == "" {
				respondError(w, http.StatusUnauthorized, "invalid token subject")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// currentUser returns the authenticated username from the request context.
func currentUser(r *http.Request) string {
	user, _ := r.Context().Value(userContextKey).(string)
	return user
}

func generateJWT(username, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(tokenLifetime).Unix(),
		"iat": time.Now().Unix(),
	})
	return token.SignedString([]byte(secret))
}
