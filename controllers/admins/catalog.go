package admins

import (
	"net/http"

	"github.com/Digitallaureate/kabirFirstBackend/utils"

	"github.com/gorilla/mux"
)

// GET /v3/admin/monuments
func (h *Handler) ListMonuments(w http.ResponseWriter, r *http.Request) {
	monuments, err := h.catalog.Monuments(r.Context())
	if err != nil {
		h.writeStoreError(w, err, "Monuments not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    map[string]interface{}{"monuments": monuments, "count": len(monuments)},
	})
}

// GET /v3/admin/monuments/{id}/services
func (h *Handler) ListMonumentServices(w http.ResponseWriter, r *http.Request) {
	m, err := h.catalog.Monument(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeStoreError(w, err, "Monument not found")
		return
	}
	svcs := m.AvailableServices()
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"monument": m.DisplayName(),
			"services": svcs,
			"count":    len(svcs),
		},
	})
}

// GET /v3/admin/service-languages
func (h *Handler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := h.catalog.Languages(r.Context())
	if err != nil {
		h.writeStoreError(w, err, "Languages not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    map[string]interface{}{"languages": langs, "count": len(langs)},
	})
}
