package httpx

import (
	"net/http"

	"github.com/gorilla/mux"
)

const MethodPurge = "PURGE"

// NewRouter wires the page, section, purge and health routes.
func NewRouter(h *Handler, purge http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if purge != nil {
		r.Methods(MethodPurge).Handler(purge)
	}
	r.HandleFunc("/sections/{id}", h.ServeSection).Methods(http.MethodGet, http.MethodHead)
	r.PathPrefix("/").Handler(h).Methods(http.MethodGet, http.MethodHead)
	return r
}
