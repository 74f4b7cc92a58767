package handler

import (
	"net/http"

	"github.com/straye-as/bid-estimator/internal/catalog"
	"github.com/straye-as/bid-estimator/internal/domain"
	"github.com/straye-as/bid-estimator/internal/mapper"
	"github.com/straye-as/bid-estimator/internal/takeoff"
)

type CatalogHandler struct {
	catalog domain.CatalogDTO
	rules   []takeoff.Rule
}

func NewCatalogHandler(registry *catalog.Registry, takeoffMapper *takeoff.Mapper) *CatalogHandler {
	return &CatalogHandler{
		catalog: mapper.ToCatalogDTO(registry),
		rules:   takeoffMapper.Rules(),
	}
}

// Get godoc
// @Summary Get catalog
// @Description The template registry new estimates are seeded from
// @Tags Catalog
// @Produce json
// @Success 200 {object} domain.CatalogDTO
// @Router /catalog [get]
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog)
}

// Rules godoc
// @Summary Get takeoff mapping rules
// @Description Keyword rules in priority order; the first rule whose keyword appears in a description wins
// @Tags Catalog
// @Produce json
// @Success 200 {array} takeoff.Rule
// @Router /catalog/takeoff-rules [get]
func (h *CatalogHandler) Rules(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.rules)
}
