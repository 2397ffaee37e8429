package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Devkz19/Take-Home-inventory/internal/apperrors"
	"github.com/Devkz19/Take-Home-inventory/internal/auth"
	"github.com/Devkz19/Take-Home-inventory/internal/models"
	"github.com/Devkz19/Take-Home-inventory/internal/service"
	"github.com/Devkz19/Take-Home-inventory/internal/upload"
)

type ProductHandler struct {
	service *service.ProductService
}

func NewProductHandler(svc *service.ProductService) *ProductHandler {
	return &ProductHandler{service: svc}
}

// CreateProduct creates a product owned by the caller
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	input, ok := bindInput(c)
	if !ok {
		return
	}

	product, err := h.service.Create(c.Request.Context(), auth.UserID(c), input, upload.FromContext(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// ListProducts returns the caller's products, newest first
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.service.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.service.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	input, ok := bindInput(c)
	if !ok {
		return
	}

	product, err := h.service.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), input, upload.FromContext(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// ProductStats returns the dashboard figures for the caller's products
func (h *ProductHandler) ProductStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// bindInput reads JSON or form fields. Missing fields are left to the service.
func bindInput(c *gin.Context) (models.ProductInput, bool) {
	var input models.ProductInput
	if err := c.ShouldBind(&input); err != nil {
		c.Error(&apperrors.Error{Kind: apperrors.KindValidation, Message: "Invalid product data", Err: err})
		return input, false
	}
	return input, true
}
