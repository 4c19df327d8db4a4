package httpapi

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	errInvalidCredentials = contract.NewUnauthorizedError("아이디 또는 비밀번호가 올바르지 않습니다.")
	errLoginRequired      = contract.NewUnauthorizedError("로그인이 필요합니다.")
	errAdminRequired      = contract.NewForbiddenError("관리자 권한이 필요합니다.")
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool        `json:"success"`
	User    schema.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "아이디와 비밀번호를 입력해주세요.")
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, contract.ErrNotFound) {
			s.writeError(w, r, errInvalidCredentials)
			return
		}
		s.writeError(w, r, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.writeError(w, r, errInvalidCredentials)
		return
	}

	session := schema.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		IsAdmin:   user.IsAdmin,
		ExpiresAt: s.now().Add(s.cfg.SessionTTL),
	}
	if err := s.store.CreateSession(r.Context(), session); err != nil {
		s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.Bool("admin", user.IsAdmin))
	writeJSON(w, http.StatusOK, loginResponse{Success: true, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if err := s.store.DeleteSession(r.Context(), cookie.Value); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, successBody{Success: true})
}
