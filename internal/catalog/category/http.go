package category

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taibuivan/libria/internal/platform/middleware"
	requestutil "github.com/taibuivan/libria/internal/platform/request"
	"github.com/taibuivan/libria/internal/platform/respond"
	"github.com/taibuivan/libria/internal/platform/sec"
	"github.com/taibuivan/libria/pkg/uuidv7"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	// Public
	router.Get("/", handler.listCategories)
	router.Get("/{idOrSlug}", handler.getCategory)

	// Staff Only
	router.Group(func(staffRoute chi.Router) {
		staffRoute.Use(middleware.RequireRole(sec.RoleLibrarian))

		staffRoute.Post("/", handler.createCategory)
		staffRoute.Patch("/{idOrSlug}", handler.updateCategory)

		// Admin strict only
		staffRoute.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{idOrSlug}", handler.deleteCategory)
	})
}

func (handler *Handler) listCategories(writer http.ResponseWriter, request *http.Request) {
	categories, err := handler.service.ListCategories(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, categories)
}

// getCategory resolves either a UUID or a slug, so public URLs stay pretty
// while internal tooling can use stable ids.
func (handler *Handler) getCategory(writer http.ResponseWriter, request *http.Request) {
	idOrSlug := requestutil.Param(request, "idOrSlug")

	category, err := handler.service.GetCategoryBySlug(request.Context(), idOrSlug)
	if err != nil && uuidv7.IsValid(idOrSlug) {
		category, err = handler.service.GetCategory(request.Context(), idOrSlug)
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, category)
}

func (handler *Handler) createCategory(writer http.ResponseWriter, request *http.Request) {
	var input Category

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CreateCategory(request.Context(), &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, input)
}

func (handler *Handler) updateCategory(writer http.ResponseWriter, request *http.Request) {
	var input Category
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.UpdateCategory(request.Context(), requestutil.Param(request, "idOrSlug"), &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, input)
}

func (handler *Handler) deleteCategory(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteCategory(request.Context(), requestutil.Param(request, "idOrSlug")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
