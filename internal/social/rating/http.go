package rating

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taibuivan/libria/internal/platform/apperr"
	"github.com/taibuivan/libria/internal/platform/middleware"
	requestutil "github.com/taibuivan/libria/internal/platform/request"
	"github.com/taibuivan/libria/internal/platform/respond"
	"github.com/taibuivan/libria/pkg/pagination"
	"github.com/taibuivan/libria/pkg/uuidv7"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the rating endpoints. The router is nested under
// /books/{bookID}, so every handler reads the book id from the URL.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	// Public
	router.Get("/", handler.listForBook)
	router.Get("/summary", handler.summarize)

	// Members
	router.Group(func(memberRoute chi.Router) {
		memberRoute.Use(middleware.RequireAuth)

		memberRoute.Get("/me", handler.getOwn)
		memberRoute.Put("/", handler.rate)
		memberRoute.Delete("/", handler.deleteOwn)
	})
}

// requireBookID extracts and checks the book id from the URL. Slug addressing
// is a book-detail convenience only; rating routes take the id.
func requireBookID(request *http.Request) (string, error) {
	id := requestutil.Param(request, "bookID")
	if !uuidv7.IsValid(id) {
		return "", apperr.NotFound("Book")
	}
	return id, nil
}

func (handler *Handler) listForBook(writer http.ResponseWriter, request *http.Request) {
	bookID, err := requireBookID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	paginationParams := pagination.FromRequest(request)

	ratings, total, err := handler.service.ListForBook(request.Context(), bookID, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, ratings, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) summarize(writer http.ResponseWriter, request *http.Request) {
	bookID, err := requireBookID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	summary, err := handler.service.Summarize(request.Context(), bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, summary)
}

func (handler *Handler) getOwn(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	bookID, err := requireBookID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	rating, err := handler.service.GetOwn(request.Context(), userID, bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, rating)
}

func (handler *Handler) rate(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		Score  int     `json:"score"`
		Review *string `json:"review"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	bookID, err := requireBookID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	rating, err := handler.service.Rate(request.Context(), userID, bookID, input.Score, input.Review)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, rating)
}

func (handler *Handler) deleteOwn(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	bookID, err := requireBookID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteOwn(request.Context(), userID, bookID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
