package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/henriquecmelo1/library-app/pkg/catalog"
	"github.com/henriquecmelo1/library-app/pkg/catalog/auth"
)

// AuthHandler serves signup, login and the authenticated probe route.
type AuthHandler struct {
	service catalog.Service
	tokens  *auth.TokenService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service catalog.Service, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{service: service, tokens: tokens}
}

// Routes returns the authentication routes
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/signup", h.SignUp)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(Authenticated(h.tokens, h.service))
		r.Get("/test_login", h.TestLogin)
	})

	return r
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp creates a user account.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.service.SignUp(r.Context(), catalog.SignUpRequest{
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]string{"message": "User created successfully!"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a short-lived bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.service.VerifyCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, errorResponse{Error: "Email or password is invalid"})
		return
	}

	token, err := h.tokens.IssueToken(user.ID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"token": token})
}

// TestLogin returns the authenticated user, proving the token works.
func (h *AuthHandler) TestLogin(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		renderUnauthorized(w, r)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"message": "Authenticated user",
		"user":    user,
	})
}
