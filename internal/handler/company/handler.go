package company

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/benchmarket/benchchat/internal/model/company"
	"github.com/benchmarket/benchchat/pkg/utils"
)

// Handler serves the public company directory.
type Handler struct {
	companies company.Store
}

// New creates the company handler.
func New(companies company.Store) *Handler {
	return &Handler{
		companies: companies,
	}
}

// RegisterRoutes mounts the directory routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/companies", h.handleListCompanies)
	r.Get("/companies/{companyID}", h.handleGetCompany)
}

func (h *Handler) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.companies.List())
}

func (h *Handler) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	c, ok := h.companies.FindByID(chi.URLParam(r, "companyID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "company not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, c)
}
