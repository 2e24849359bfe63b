package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agroflow/agroflow-backend/internal/dto"
	"github.com/agroflow/agroflow-backend/internal/http/handlers/common"
	"github.com/agroflow/agroflow-backend/internal/service"
)

// ProductHandler serves the product catalog endpoints.
type ProductHandler struct {
	products *service.ProductService
}

// NewProductHandler creates the handler.
func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// CreateProduct handles POST /products.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	product, err := h.products.CreateProduct(c.Request.Context(), userID, service.ProductInput{
		Name:         req.Name,
		Category:     req.Category,
		SubCategory:  req.SubCategory,
		Amount:       req.Amount,
		Unit:         req.Unit,
		Price:        req.Price,
		Description:  req.Description,
		Manufacturer: req.Manufacturer,
		ExpiryDate:   req.ExpiryDate,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// ListProducts handles GET /products. Optionally only the caller's own
// with ?mine=true.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	var products interface{}
	if c.Query("mine") == "true" {
		products, err = h.products.ListMyProducts(c.Request.Context(), userID, limit, offset)
	} else {
		products, err = h.products.ListProducts(c.Request.Context(), limit, offset)
	}
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct handles GET /products/:id.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), productID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// UpdateProduct handles PUT /products/:id.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	productID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	product, err := h.products.UpdateProduct(c.Request.Context(), userID, productID, service.ProductInput{
		Name:         req.Name,
		Category:     req.Category,
		SubCategory:  req.SubCategory,
		Amount:       req.Amount,
		Unit:         req.Unit,
		Price:        req.Price,
		Description:  req.Description,
		Manufacturer: req.Manufacturer,
		ExpiryDate:   req.ExpiryDate,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/:id.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	productID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.products.DeleteProduct(c.Request.Context(), userID, productID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "product deleted", nil)
}
