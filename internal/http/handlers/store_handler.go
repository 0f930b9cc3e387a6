package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/0xVampirot/justZappIt/internal/domain"
	"github.com/0xVampirot/justZappIt/internal/http/middleware"
	"github.com/0xVampirot/justZappIt/internal/services"
	"github.com/0xVampirot/justZappIt/internal/utils"
)

// StoreView is the public representation of a store.
type StoreView struct {
	ID                 string   `json:"id" example:"fa4dfbe0-c3bf-47bd-b32f-d7de221cf43b"`
	OperatorName       string   `json:"operator_name" example:"Acme Exchange"`
	StreetAddress      *string  `json:"street_address,omitempty" example:"12 Ledger Lane"`
	City               string   `json:"city" example:"Lisbon"`
	Country            string   `json:"country" example:"Portugal"`
	Lat                float64  `json:"lat" example:"38.7223"`
	Lng                float64  `json:"lng" example:"-9.1393"`
	IsApproximate      bool     `json:"is_approximate" example:"false"`
	Website            *string  `json:"website,omitempty" example:"https://acme.example"`
	OpeningHours       *string  `json:"opening_hours,omitempty" example:"Mon-Fri 9-18"`
	Phone              *string  `json:"phone,omitempty" example:"+351 210 000 000"`
	Email              *string  `json:"email,omitempty" example:"hello@acme.example"`
	AcceptsCrypto      []string `json:"accepts_crypto" example:"BTC,ETH"`
	VerificationStatus string   `json:"verification_status" example:"community_verified"`
	ConfirmCount       int      `json:"confirm_count" example:"3"`
	FlagCount          int      `json:"flag_count" example:"0"`
	Source             string   `json:"source" example:"community"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page" example:"1"`
	Limit      int   `json:"limit" example:"50"`
	Total      int64 `json:"total" example:"128"`
	TotalPages int   `json:"total_pages" example:"3"`
}

// ListStoresResponse wraps a page of publicly visible stores and pagination
// information.
type ListStoresResponse struct {
	Stores     []StoreView `json:"stores"`
	Pagination Pagination  `json:"pagination"`
}

func storeView(s domain.Store) StoreView {
	crypto := []string(s.AcceptsCrypto)
	if crypto == nil {
		crypto = []string{}
	}
	return StoreView{
		ID:                 s.ID,
		OperatorName:       s.OperatorName,
		StreetAddress:      s.StreetAddress,
		City:               s.City,
		Country:            s.Country,
		Lat:                s.Lat,
		Lng:                s.Lng,
		IsApproximate:      s.IsApproximate,
		Website:            s.Website,
		OpeningHours:       s.OpeningHours,
		Phone:              s.Phone,
		Email:              s.Email,
		AcceptsCrypto:      crypto,
		VerificationStatus: string(s.Status),
		ConfirmCount:       s.ConfirmCount,
		FlagCount:          s.FlagCount,
		Source:             s.Source,
	}
}

// ListStores godoc
// @ID          listStores
// @Summary     List visible stores
// @Description Returns a page of stores, excluding closed ones, ordered by operator name.
// @Tags        Stores
// @Produce     json
// @Param       page  query int false "Page number (1-based)" default(1)
// @Param       limit query int false "Page size (max 100)"   default(50)
// @Success     200 {object} handlers.ListStoresResponse
// @Failure     500 {object} handlers.ErrorResponse "Internal server error"
// @Router      /stores [get]
func (h *Handlers) ListStores(c *gin.Context) {
	page := utils.PageParam(c.Query("page"))
	limit := utils.LimitParam(c.Query("limit"), 50, 100)

	stores, total, err := h.storeSvc.ListPage(c.Request.Context(), page, limit)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("store listing failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred. Please try again.")
		return
	}

	views := make([]StoreView, 0, len(stores))
	for _, s := range stores {
		views = append(views, storeView(s))
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	ok(c, http.StatusOK, ListStoresResponse{
		Stores: views,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// GetStore godoc
// @ID          getStore
// @Summary     Fetch a single store
// @Description Returns a store by ID. Closed stores remain fetchable by direct ID.
// @Tags        Stores
// @Produce     json
// @Param       id path string true "Store ID"
// @Success     200 {object} handlers.StoreView
// @Failure     404 {object} handlers.ErrorResponse "Store not found"
// @Failure     500 {object} handlers.ErrorResponse "Internal server error"
// @Router      /stores/{id} [get]
func (h *Handlers) GetStore(c *gin.Context) {
	store, err := h.storeSvc.Get(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		ok(c, http.StatusOK, storeView(*store))
	case errors.Is(err, services.ErrStoreNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "store not found")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("store fetch failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred. Please try again.")
	}
}
