package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/m1stadev/ios-beta-api/internal/model"
)

const (
	error400Title  = "Bad Request"
	error404Title  = "Not Found"
	error503Title  = "Service Unavailable"
	error500Title  = "Internal Server Error"
	error500Detail = "An unhandled error has occurred. Try again later. If it is a bug we already recorded it. Retrying will most likely not help"

	HeaderContentType         = "Content-Type"
	headerCacheControl        = "Cache-Control"
	headerXContentTypeOptions = "X-Content-Type-Options"
	mimeJSON                  = "application/json"
	mimeProblemJSON           = "application/problem+json"
	noSniff                   = "nosniff"
	noCache                   = "no-cache, no-store, max-age=0, must-revalidate"
)

// ErrorResponse is a problem+json error body.
type ErrorResponse struct {
	Title    string  `json:"title"`
	Detail   *string `json:"detail,omitempty"`
	Status   int     `json:"status"`
	Instance *string `json:"instance,omitempty"`
}

func HandleJsonResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	body, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		HandleErrorResponse(w, r, err)
		return
	}

	w.Header().Set(HeaderContentType, mimeJSON)
	w.Header().Set(headerXContentTypeOptions, noSniff)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func HandleHealthyResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(headerCacheControl, noCache)
	w.WriteHeader(http.StatusNoContent)
	_, _ = w.Write(nil)
}

func HandleErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	errTitle := error500Title
	errDetail := error500Detail
	errStatus := http.StatusInternalServerError

	if errors.Is(err, model.ErrDeviceNotFound) {
		errTitle = error404Title
		errDetail = err.Error()
		errStatus = http.StatusNotFound
	} else if errors.Is(err, model.ErrCatalogNotReady) {
		errTitle = error503Title
		errDetail = err.Error()
		errStatus = http.StatusServiceUnavailable
	} else if sErr, ok := err.(*BaseHttpError); ok {
		errTitle = sErr.Title
		errDetail = sErr.Detail
		errStatus = sErr.Status
	} else if err != nil {
		slog.Default().Error("unhandled error in http handler", "error", err)
	}

	problem := ErrorResponse{
		Title:    errTitle,
		Detail:   &errDetail,
		Status:   errStatus,
		Instance: &r.RequestURI,
	}

	respBody, _ := json.MarshalIndent(problem, "", "  ")
	w.Header().Set(HeaderContentType, mimeProblemJSON)
	w.Header().Set(headerXContentTypeOptions, noSniff)
	w.WriteHeader(errStatus)
	_, _ = w.Write(respBody)
}

type BaseHttpError struct {
	Status int
	Title  string
	Detail string
	Err    error
}

func (e *BaseHttpError) Error() string {
	return e.Detail
}

func (e *BaseHttpError) Unwrap() error {
	return e.Err
}

func NewNotFoundError(err error, detail string) *BaseHttpError {
	return &BaseHttpError{
		Status: http.StatusNotFound,
		Title:  error404Title,
		Detail: detail,
		Err:    err,
	}
}

func NewBadRequestError(err error, detail string) *BaseHttpError {
	return &BaseHttpError{
		Status: http.StatusBadRequest,
		Title:  error400Title,
		Detail: detail,
		Err:    err,
	}
}
