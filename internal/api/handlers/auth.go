package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/evently-app/server/internal/api/middleware"
	"github.com/evently-app/server/internal/api/problem"
	"github.com/evently-app/server/internal/auth"
	"github.com/evently-app/server/internal/domain/users"
)

type AuthHandler struct {
	Users       *users.Service
	JWT         *auth.JWTManager
	Revocations auth.RevocationStore
	Env         string
}

func NewAuthHandler(userService *users.Service, manager *auth.JWTManager, revocations auth.RevocationStore, env string) *AuthHandler {
	return &AuthHandler{Users: userService, JWT: manager, Revocations: revocations, Env: env}
}

type signupRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input signupRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body", err, h.Env)
		return
	}

	user, err := h.Users.Signup(r.Context(), users.SignupParams{
		Email:    input.Email,
		Phone:    input.Phone,
		Password: input.Password,
	})
	if err != nil {
		var verrs users.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
				problem.WithErrors(verrs.Fields()))
		case errors.Is(err, users.ErrEmailTaken):
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Email already registered", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		}
		return
	}

	writeJSON(w, http.StatusCreated, user.Profile())
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body", err, h.Env)
		return
	}

	user, err := h.Users.Authenticate(r.Context(), input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidCredentials), errors.Is(err, users.ErrUserInactive):
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid credentials", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		}
		return
	}

	token, err := h.JWT.Generate(user.Email, string(user.Role))
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// Logout revokes the presented token for the remainder of the process
// lifetime. It sits behind Authenticate, so the token is known valid.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, h.Env)
		return
	}

	h.Revocations.Add(token)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
