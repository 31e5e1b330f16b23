package api

import "net/http"

type rootResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// RootHandler reports that the service is up.
type RootHandler struct {
	serviceName string
}

// NewRootHandler creates a new root handler.
func NewRootHandler(serviceName string) *RootHandler {
	return &RootHandler{serviceName: serviceName}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{Status: "ok", Service: h.serviceName})
}
