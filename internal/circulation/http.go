package circulation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taibuivan/libria/internal/platform/middleware"
	requestutil "github.com/taibuivan/libria/internal/platform/request"
	"github.com/taibuivan/libria/internal/platform/respond"
	"github.com/taibuivan/libria/internal/platform/sec"
	"github.com/taibuivan/libria/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	// Every circulation endpoint needs an authenticated caller.
	router.Use(middleware.RequireAuth)

	router.Post("/", handler.borrow)
	router.Get("/", handler.listOwn)
	router.Get("/{id}", handler.get)
	router.Post("/{id}/renew", handler.renew)
	router.Post("/{id}/return", handler.returnLoan)

	// Staff Only
	router.Group(func(staffRoute chi.Router) {
		staffRoute.Use(middleware.RequireRole(sec.RoleLibrarian))

		staffRoute.Get("/overdue", handler.listOverdue)
		staffRoute.Get("/user/{userID}", handler.listForUser)
		staffRoute.Post("/{id}/lost", handler.markLost)
	})
}

func (handler *Handler) borrow(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		BookID string `json:"book_id"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	loan, err := handler.service.Borrow(request.Context(), userID, input.BookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, loan)
}

func (handler *Handler) listOwn(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromRequest(request)
	loans, meta, err := handler.service.ListForUser(request.Context(), userID, request.URL.Query().Get("status"), page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, loans, meta)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	loan, err := handler.service.Get(request.Context(), actor, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, loan)
}

func (handler *Handler) renew(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	loan, err := handler.service.Renew(request.Context(), actor, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, loan)
}

func (handler *Handler) returnLoan(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	loan, err := handler.service.Return(request.Context(), actor, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, loan)
}

func (handler *Handler) markLost(writer http.ResponseWriter, request *http.Request) {
	loan, err := handler.service.MarkLost(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, loan)
}

func (handler *Handler) listOverdue(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)
	loans, meta, err := handler.service.ListOverdue(request.Context(), page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, loans, meta)
}

func (handler *Handler) listForUser(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)
	loans, meta, err := handler.service.ListForUser(
		request.Context(), requestutil.Param(request, "userID"),
		request.URL.Query().Get("status"), page,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, loans, meta)
}
