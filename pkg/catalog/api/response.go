package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/henriquecmelo1/library-app/pkg/catalog"
)

// Pagination is the metadata block attached to list responses.
type Pagination struct {
	Page  int   `json:"page"`
	Items int   `json:"items"`
	Count int64 `json:"count"`
	Pages int   `json:"pages"`
}

func newPagination(page catalog.Page, total int64) Pagination {
	page = page.Normalize()
	pages := int((total + int64(page.Items) - 1) / int64(page.Items))
	if pages < 1 {
		pages = 1
	}
	return Pagination{
		Page:  page.Number,
		Items: page.Items,
		Count: total,
		Pages: pages,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type errorsResponse struct {
	Errors []string `json:"errors"`
}

// renderError maps a domain failure onto the HTTP taxonomy: validation
// and dependent-material failures are 422, unknown ids 404, refused
// transitions and bad search parameters 400, authentication and
// ownership failures both 401. Everything else is an internal error.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *catalog.ValidationError

	switch {
	case errors.As(err, &ve):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, errorsResponse{Errors: ve.Messages})
	case errors.Is(err, catalog.ErrHasDependentMaterials):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, errorsResponse{Errors: []string{"cannot delete record because dependent materials exist"}})
	case errors.Is(err, catalog.ErrMaterialNotFound),
		errors.Is(err, catalog.ErrAuthorNotFound),
		errors.Is(err, catalog.ErrUserNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: notFoundMessage(err)})
	case errors.Is(err, catalog.ErrInvalidTransition),
		errors.Is(err, catalog.ErrMissingSearchParameter),
		errors.Is(err, catalog.ErrUnknownAuthorKind),
		errors.Is(err, catalog.ErrInvalidStatus):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: rootMessage(err)})
	case errors.Is(err, catalog.ErrAuthenticationFailed),
		errors.Is(err, catalog.ErrAuthorizationFailed):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, errorResponse{Error: "Unauthorized"})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: "internal server error"})
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, catalog.ErrMaterialNotFound):
		return "Material not found"
	case errors.Is(err, catalog.ErrAuthorNotFound):
		return "Author not found"
	default:
		return "User not found"
	}
}

// rootMessage strips the operation wrappers so the client sees the
// domain message, not the internal call chain.
func rootMessage(err error) string {
	var me *catalog.MaterialError
	if errors.As(err, &me) {
		return me.Err.Error()
	}
	var ae *catalog.AuthorError
	if errors.As(err, &ae) {
		return ae.Err.Error()
	}
	return err.Error()
}
