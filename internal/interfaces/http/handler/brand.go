package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/catalog"
)

// BrandHandler serves brands
type BrandHandler struct {
	BaseHandler
	brandService *catalog.BrandService
}

// NewBrandHandler creates a new brand handler
func NewBrandHandler(brandService *catalog.BrandService) *BrandHandler {
	return &BrandHandler{brandService: brandService}
}

// List pages through active brands
func (h *BrandHandler) List(c *gin.Context) {
	h.list(c, true)
}

// AdminList pages through brands of any status
func (h *BrandHandler) AdminList(c *gin.Context) {
	h.list(c, false)
}

func (h *BrandHandler) list(c *gin.Context, public bool) {
	var filter catalog.BrandListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	if public {
		filter.Status = "active"
	}
	page, err := h.brandService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// GetByID returns one brand
func (h *BrandHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	brand, err := h.brandService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, brand)
}

// Create adds a brand
func (h *BrandHandler) Create(c *gin.Context) {
	var req catalog.CreateBrandRequest
	if !h.BindJSON(c, &req) {
		return
	}
	brand, err := h.brandService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, brand)
}

// Update edits a brand
func (h *BrandHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req catalog.UpdateBrandRequest
	if !h.BindJSON(c, &req) {
		return
	}
	brand, err := h.brandService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, brand)
}

// Delete removes a brand without products
func (h *BrandHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.brandService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
