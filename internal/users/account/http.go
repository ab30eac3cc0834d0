// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/libria/internal/platform/middleware"
	requestutil "github.com/taibuivan/libria/internal/platform/request"
	"github.com/taibuivan/libria/internal/platform/respond"
	"github.com/taibuivan/libria/internal/platform/sec"
	"github.com/taibuivan/libria/pkg/pagination"
)

// Handler exposes the account service over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs the HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

/*
Routes mounts the user management endpoints.

Mounted under /api/v1/users:

	GET   /me           — own profile (authenticated)
	PATCH /me           — update own profile (authenticated)
	GET   /             — list users (librarian+)
	GET   /{id}         — one user (librarian+)
	PATCH /{id}/role    — change role (admin+)
	PATCH /{id}/status  — change account status (admin+)
*/
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/me", handler.profile)
	router.Patch("/me", handler.updateProfile)

	router.Group(func(staff chi.Router) {
		staff.Use(middleware.RequireRole(sec.RoleLibrarian))
		staff.Get("/", handler.list)
		staff.Get("/{id}", handler.get)
	})

	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))
		admin.Patch("/{id}/role", handler.setRole)
		admin.Patch("/{id}/status", handler.setStatus)
	})

	return router
}

// profile handles GET /me.
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

// updateProfile handles PATCH /me.
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var update ProfileUpdate
	if err := requestutil.DecodeJSON(request, &update); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.UpdateProfile(request.Context(), userID, update)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

// list handles GET /.
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	filter := ListFilter{
		Search: request.URL.Query().Get("q"),
		Status: request.URL.Query().Get("status"),
		Role:   request.URL.Query().Get("role"),
	}
	page := pagination.FromRequest(request)

	users, meta, err := handler.service.List(request.Context(), filter, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, users, meta)
}

// get handles GET /{id}.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.service.Get(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

// setRole handles PATCH /{id}/role.
func (handler *Handler) setRole(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		Role string `json:"role"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.SetRole(request.Context(), actor, requestutil.Param(request, "id"), input.Role)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

// setStatus handles PATCH /{id}/status.
func (handler *Handler) setStatus(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.SetStatus(request.Context(), actor, requestutil.Param(request, "id"), input.Status)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}
