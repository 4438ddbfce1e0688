package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// CatalogHandler serves the published firmware catalog. It exposes
// read-only endpoints; the catalog is only ever replaced by the
// scraping pipeline.
type CatalogHandler struct {
	service HandlerService
}

func NewCatalogHandler(service HandlerService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func NewRouter(h *CatalogHandler) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handleNoRoute)
	r.HandleFunc("/betas", h.GetIdentifiers).Methods(http.MethodGet)
	r.HandleFunc("/betas/{identifier}", h.GetFirmwares).Methods(http.MethodGet)
	r.HandleFunc("/healthz/live", h.GetHealthLive).Methods(http.MethodGet)
	r.HandleFunc("/healthz/ready", h.GetHealthReady).Methods(http.MethodGet)
	r.HandleFunc("/healthz/startup", h.GetHealthStartup).Methods(http.MethodGet)
	return r
}

func handleNoRoute(w http.ResponseWriter, r *http.Request) {
	HandleErrorResponse(w, r, NewNotFoundError(nil, "Path not handled by beta firmware catalog"))
}

// GetFirmwares returns the known firmware records for one device.
// (GET /betas/{identifier})
func (h *CatalogHandler) GetFirmwares(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]

	firmwares, err := h.service.GetFirmwares(r.Context(), identifier)
	if err != nil {
		HandleErrorResponse(w, r, err)
		return
	}

	HandleJsonResponse(w, r, http.StatusOK, firmwares)
}

// GetIdentifiers returns all device identifiers present in the catalog.
// (GET /betas)
func (h *CatalogHandler) GetIdentifiers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.ListIdentifiers(r.Context())
	if err != nil {
		HandleErrorResponse(w, r, err)
		return
	}

	HandleJsonResponse(w, r, http.StatusOK, ids)
}

func (h *CatalogHandler) GetHealthLive(w http.ResponseWriter, r *http.Request) {
	err := h.service.CheckHealthLive(r.Context())
	if err != nil {
		HandleErrorResponse(w, r, err)
		return
	}
	HandleHealthyResponse(w, r)
}

func (h *CatalogHandler) GetHealthReady(w http.ResponseWriter, r *http.Request) {
	err := h.service.CheckHealthReady(r.Context())
	if err != nil {
		HandleErrorResponse(w, r, err)
		return
	}
	HandleHealthyResponse(w, r)
}

func (h *CatalogHandler) GetHealthStartup(w http.ResponseWriter, r *http.Request) {
	err := h.service.CheckHealthStartup(r.Context())
	if err != nil {
		HandleErrorResponse(w, r, err)
		return
	}
	HandleHealthyResponse(w, r)
}
