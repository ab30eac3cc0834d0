package book

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taibuivan/libria/internal/platform/middleware"
	requestutil "github.com/taibuivan/libria/internal/platform/request"
	"github.com/taibuivan/libria/internal/platform/respond"
	"github.com/taibuivan/libria/internal/platform/sec"
	"github.com/taibuivan/libria/pkg/pagination"
	"github.com/taibuivan/libria/pkg/query"
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
	router.Get("/", handler.listBooks)
	router.Get("/{bookID}", handler.getBook)

	// Staff Only
	router.Group(func(staffRoute chi.Router) {
		staffRoute.Use(middleware.RequireRole(sec.RoleLibrarian))

		staffRoute.Post("/", handler.createBook)
		staffRoute.Patch("/{bookID}", handler.updateBook)
		staffRoute.Patch("/{bookID}/copies", handler.setTotalCopies)

		// Admin strict only
		staffRoute.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{bookID}", handler.deleteBook)
	})
}

func (handler *Handler) listBooks(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	values := request.URL.Query()

	filter := Filter{
		Query:         values.Get("q"),
		AuthorID:      values.Get("author"),
		CategoryID:    values.Get("category"),
		Tags:          query.StringSlice(values.Get("tags")),
		AvailableOnly: values.Get("available") == "true",
	}

	books, total, err := handler.service.ListBooks(request.Context(), filter, paginationParams)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, books, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

// getBook resolves either a UUID or a slug.
func (handler *Handler) getBook(writer http.ResponseWriter, request *http.Request) {
	idOrSlug := requestutil.Param(request, "bookID")

	book, err := handler.service.GetBookBySlug(request.Context(), idOrSlug)
	if err != nil && uuidv7.IsValid(idOrSlug) {
		book, err = handler.service.GetBook(request.Context(), idOrSlug)
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, book)
}

func (handler *Handler) createBook(writer http.ResponseWriter, request *http.Request) {
	var input Book

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CreateBook(request.Context(), &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, input)
}

func (handler *Handler) updateBook(writer http.ResponseWriter, request *http.Request) {
	var input Book
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.UpdateBook(request.Context(), requestutil.Param(request, "bookID"), &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, input)
}

func (handler *Handler) setTotalCopies(writer http.ResponseWriter, request *http.Request) {
	var input struct {
		TotalCopies int `json:"total_copies"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.SetTotalCopies(request.Context(), requestutil.Param(request, "bookID"), input.TotalCopies)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, book)
}

func (handler *Handler) deleteBook(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteBook(request.Context(), requestutil.Param(request, "bookID")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
