package backend

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/fjod/go_cart/storefront/internal/api"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.usersByID[userIDFrom(r.Context())]
	respondJSON(w, http.StatusOK, u.profile)
}

// handleUpdateProfile overwrites the editable fields and echoes the stored
// profile. Email stays unique across users.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req api.ProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		respondError(w, http.StatusBadRequest, "First name, last name and email are required")
		return
	}

	var hash []byte
	if req.Password != "" {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.usersByID[userIDFrom(r.Context())]
	if other, taken := s.usersByEmail[req.Email]; taken && other.id != u.id {
		respondError(w, http.StatusConflict, "Email already registered")
		return
	}

	delete(s.usersByEmail, u.profile.Email)
	u.profile.FirstName = req.FirstName
	u.profile.MiddleInitial = req.MiddleInitial
	u.profile.LastName = req.LastName
	u.profile.Email = req.Email
	u.profile.Birthdate = req.Birthdate
	u.profile.Address = req.Address
	s.usersByEmail[req.Email] = u
	if hash != nil {
		u.passwordHash = hash
	}

	respondJSON(w, http.StatusOK, u.profile)
}

func (s *Server) handleUpdateUserInfo(w http.ResponseWriter, r *http.Request) {
	var req api.UserInfoRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.usersByID[userIDFrom(r.Context())]
	u.profile.ContactNumber = req.ContactNumber
	u.profile.Address = req.Address
	u.profile.Birthdate = req.Birthdate

	respondOK(w, "User info updated successfully")
}
