package handlers

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Werneck0live/cadastro-clientes/internal/auth"
	"github.com/Werneck0live/cadastro-clientes/internal/utils"
)

type AuthHandler struct {
	Auth     *auth.Authenticator
	Validate *validator.Validate
}

func NewAuthHandler(a *auth.Authenticator) *AuthHandler {
	return &AuthHandler{Auth: a, Validate: NewValidator()}
}

type LoginResponse struct {
	Token   string       `json:"token"`
	Session auth.Session `json:"session"`
}

// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := utils.DecodeStrict(r.Body, &dto); err != nil {
		utils.BadRequest(w, utils.FormatDecodeError(err))
		return
	}
	if err := h.Validate.Struct(dto); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "validation failed", invalidFields(err)...)
		return
	}
	token, sess, err := h.Auth.Login(dto.Username, dto.Password)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	utils.WriteJSON(w, http.StatusOK, LoginResponse{Token: token, Session: sess})
}

// RequireSession exige "Authorization: Bearer <token>" e coloca a sessão no contexto.
func RequireSession(a *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				utils.WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			sess, err := a.Verify(token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				utils.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), sess)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
