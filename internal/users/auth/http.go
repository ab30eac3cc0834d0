// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/libria/internal/platform/middleware"
	requestutil "github.com/taibuivan/libria/internal/platform/request"
	"github.com/taibuivan/libria/internal/platform/respond"
)

// Handler exposes the authentication service over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs the HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

/*
Routes mounts the authentication endpoints.

Mounted under /api/v1/auth:

	POST /register         — create an account, returns token + user
	POST /login            — authenticate, returns token + user
	POST /logout           — revoke the presented token (idempotent)
	GET  /me               — resolve the presented token to a user, or null
	POST /forgot-password  — start the password reset flow
	POST /reset-password   — complete the password reset flow
	POST /verify-email     — consume an email verification token
	POST /change-password  — rotate the password (authenticated)

Everything except /change-password is public: /me and /logout read the
bearer token themselves, so a request without credentials gets data: null
(or a 204) instead of a 401.
*/
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)
	router.Get("/me", handler.currentUser)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)
	router.Post("/verify-email", handler.verifyEmail)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)
		protected.Post("/change-password", handler.changePassword)
	})

	return router
}

// register handles POST /register.
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input RegisterInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.Register(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, session)
}

// login handles POST /login.
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input LoginInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.Login(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, session)
}

// logout handles POST /logout. Succeeds even when the token is unknown.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.BearerToken(request)
	if err := handler.service.Logout(request.Context(), token); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// currentUser handles GET /me. An anonymous request yields data: null with
// a 200, not an error, so clients can probe session state cheaply.
func (handler *Handler) currentUser(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.BearerToken(request)
	user, err := handler.service.CurrentUser(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

// forgotPassword handles POST /forgot-password.
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{
		"message": "If the address is registered, a reset email is on its way",
	})
}

// resetPassword handles POST /reset-password.
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ResetPassword(request.Context(), input.Token, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": "Password has been reset"})
}

// verifyEmail handles POST /verify-email.
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	var input struct {
		Token string `json:"token"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.VerifyEmail(request.Context(), input.Token); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": "Email verified"})
}

// changePassword handles POST /change-password.
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ChangePassword(request.Context(), userID, input.CurrentPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": "Password changed"})
}
