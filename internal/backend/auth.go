package backend

import (
	"context"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fjod/go_cart/storefront/internal/api"
)

type ctxKey int

const userIDKey ctxKey = iota

func userIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if req.FirstName == "" || req.LastName == "" || email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[email]; exists {
		respondError(w, http.StatusConflict, "Email already registered")
		return
	}
	u := &user{
		id:           s.nextUserID,
		passwordHash: hash,
		profile: api.ProfileResponse{
			Username:  email,
			Email:     email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		},
	}
	s.nextUserID++
	s.usersByEmail[email] = u
	s.usersByID[u.id] = u

	respondJSON(w, http.StatusCreated, api.StatusResponse{Success: true, Message: "User registered successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	u, ok := s.usersByEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(req.Password)) != nil {
		respondJSON(w, http.StatusOK, api.LoginResponse{Success: false, Message: "Invalid email or password"})
		return
	}

	access, err := s.issueAccessToken(u.id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	refresh := s.issueRefreshToken(u.id)

	respondJSON(w, http.StatusOK, api.LoginResponse{
		Success:      true,
		Token:        access,
		RefreshToken: refresh,
		Message:      "Login successful",
	})
}

// handleRefresh rotates the refresh token: the presented one stops working.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req api.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	userID, ok := s.refreshTokens[req.RefreshToken]
	if ok {
		delete(s.refreshTokens, req.RefreshToken)
	}
	s.mu.Unlock()
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	access, err := s.issueAccessToken(userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	respondJSON(w, http.StatusOK, api.RefreshResponse{
		JWTToken:     access,
		RefreshToken: s.issueRefreshToken(userID),
	})
}

func (s *Server) issueAccessToken(userID int64) (string, error) {
	now := s.cfg.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Server) issueRefreshToken(userID int64) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.refreshTokens[token] = userID
	s.mu.Unlock()
	return token
}

// authenticate validates the bearer token and puts the user id on the context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.cfg.Now),
		jwt.WithExpirationRequired(),
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || raw == "" {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var claims jwt.RegisteredClaims
		if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return []byte(s.cfg.JWTSecret), nil
		}); err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		s.mu.Lock()
		_, known := s.usersByID[userID]
		s.mu.Unlock()
		if !known {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// SeedUser registers a user directly, bypassing the HTTP API. Profile email
// and username are taken from email.
func (s *Server) SeedUser(email, password string, profile api.ProfileResponse) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	profile.Email = email
	if profile.Username == "" {
		profile.Username = email
	}
	u := &user{id: s.nextUserID, passwordHash: hash, profile: profile}
	s.nextUserID++
	s.usersByEmail[email] = u
	s.usersByID[u.id] = u
	return u.id, nil
}
