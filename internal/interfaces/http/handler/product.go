package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/application/engagement"
)

// ProductHandler serves products, their variations and images
type ProductHandler struct {
	BaseHandler
	productService *catalog.ProductService
	reviewService  *engagement.ReviewService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *catalog.ProductService, reviewService *engagement.ReviewService) *ProductHandler {
	return &ProductHandler{productService: productService, reviewService: reviewService}
}

// List godoc
// @Summary      List products
// @Description  Active products, filtered by category (with descendants), brand, price range, stock and search
// @Tags         catalog
// @Produce      json
// @Param        category_id query string false "Category ID"
// @Param        brand_id    query string false "Brand ID"
// @Param        min_price   query string false "Minimum price"
// @Param        max_price   query string false "Maximum price"
// @Param        search      query string false "Name or SKU"
// @Success      200 {object} dto.Response{data=[]catalog.ProductResponse,meta=dto.Meta}
// @Router       /catalog/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalog.ProductListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	page, err := h.productService.ListPublic(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// AdminList pages through products of any status
func (h *ProductHandler) AdminList(c *gin.Context) {
	var filter catalog.ProductListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	page, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// GetByID returns an active product
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetPublicByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// GetBySlug returns an active product
func (h *ProductHandler) GetBySlug(c *gin.Context) {
	product, err := h.productService.GetPublicBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// AdminGetByID returns a product of any status
func (h *ProductHandler) AdminGetByID(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Reviews lists the approved reviews of a product with its rating summary
func (h *ProductHandler) Reviews(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var filter engagement.ReviewListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	result, err := h.reviewService.ListForProduct(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Create adds a draft product
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalog.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Update edits a product
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req catalog.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Activate puts a product on sale
func (h *ProductHandler) Activate(c *gin.Context) {
	h.transition(c, h.productService.Activate)
}

// Deactivate takes a product off sale
func (h *ProductHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.productService.Deactivate)
}

// Discontinue retires a product for good
func (h *ProductHandler) Discontinue(c *gin.Context) {
	h.transition(c, h.productService.Discontinue)
}

func (h *ProductHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*catalog.ProductResponse, error)) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	product, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete removes a product
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AdjustStock adds or removes stock of the product or one option
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req catalog.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.productService.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// AddVariation adds a named dimension such as "Color"
func (h *ProductHandler) AddVariation(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req catalog.VariationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.productService.AddVariation(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// RenameVariation renames a variation
func (h *ProductHandler) RenameVariation(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	variationID, ok := h.ParamUUID(c, "variationId")
	if !ok {
		return
	}
	var req catalog.VariationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.productService.RenameVariation(c.Request.Context(), id, variationID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// RemoveVariation removes a variation with its options
func (h *ProductHandler) RemoveVariation(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	variationID, ok := h.ParamUUID(c, "variationId")
	if !ok {
		return
	}
	product, err := h.productService.RemoveVariation(c.Request.Context(), id, variationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// AddOption adds an option to a variation
func (h *ProductHandler) AddOption(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	variationID, ok := h.ParamUUID(c, "variationId")
	if !ok {
		return
	}
	var req catalog.OptionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.productService.AddOption(c.Request.Context(), id, variationID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// UpdateOption edits an option
func (h *ProductHandler) UpdateOption(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	optionID, ok := h.ParamUUID(c, "optionId")
	if !ok {
		return
	}
	var req catalog.OptionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.productService.UpdateOption(c.Request.Context(), id, optionID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// RemoveOption removes an option
func (h *ProductHandler) RemoveOption(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	optionID, ok := h.ParamUUID(c, "optionId")
	if !ok {
		return
	}
	product, err := h.productService.RemoveOption(c.Request.Context(), id, optionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// RequestImageUpload returns a presigned URL the client uploads the image to
func (h *ProductHandler) RequestImageUpload(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req catalog.ImageUploadRequest
	if !h.BindJSON(c, &req) {
		return
	}
	upload, err := h.productService.RequestImageUpload(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, upload)
}

// ConfirmImage attaches an uploaded object to the product
func (h *ProductHandler) ConfirmImage(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req catalog.ConfirmImageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.productService.ConfirmImage(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// SetPrimaryImage marks an image as the product's primary one
func (h *ProductHandler) SetPrimaryImage(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	imageID, ok := h.ParamUUID(c, "imageId")
	if !ok {
		return
	}
	product, err := h.productService.SetPrimaryImage(c.Request.Context(), id, imageID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// RemoveImage detaches an image and deletes the stored object
func (h *ProductHandler) RemoveImage(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	imageID, ok := h.ParamUUID(c, "imageId")
	if !ok {
		return
	}
	product, err := h.productService.RemoveImage(c.Request.Context(), id, imageID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
