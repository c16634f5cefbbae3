package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/models"
	"storefront/repository"
)

const defaultHighlightLimit = 8

type productInput struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	Images        []string `json:"images"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	Stock         int      `json:"stock"`
	IsFeatured    bool     `json:"isFeatured"`
	IsTrending    bool     `json:"isTrending"`
	Rating        float64  `json:"rating"`
	ReviewCount   int      `json:"reviewCount"`
}

func (in productInput) model() *models.Product {
	return &models.Product{
		Title:         in.Title,
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Category:      in.Category,
		Tags:          in.Tags,
		Images:        in.Images,
		Sizes:         in.Sizes,
		Colors:        in.Colors,
		Stock:         in.Stock,
		IsFeatured:    in.IsFeatured,
		IsTrending:    in.IsTrending,
		Rating:        in.Rating,
		ReviewCount:   in.ReviewCount,
	}
}

// ListProducts answers GET /api/products with filters and paging.
func (h *Handler) ListProducts(c *gin.Context) {
	filter := repository.ProductFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	var ok bool
	if filter.Featured, ok = queryBool(c, "featured"); !ok {
		return
	}
	if filter.MinPrice, ok = queryFloat(c, "minPrice"); !ok {
		return
	}
	if filter.MaxPrice, ok = queryFloat(c, "maxPrice"); !ok {
		return
	}
	if filter.Limit, ok = queryInt(c, "limit", repository.DefaultLimit); !ok {
		return
	}
	if filter.Offset, ok = queryInt(c, "offset", 0); !ok {
		return
	}

	page, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) ProductCategories(c *gin.Context) {
	categories, err := h.products.Categories(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) ProductsByCategory(c *gin.Context) {
	limit, ok := queryInt(c, "limit", repository.DefaultLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}
	page, err := h.products.ListByCategory(c.Request.Context(), c.Param("category"), limit, offset)
	if err != nil {
		h.respondError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) FeaturedProducts(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultHighlightLimit)
	if !ok {
		return
	}
	products, err := h.products.Featured(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) TrendingProducts(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultHighlightLimit)
	if !ok {
		return
	}
	products, err := h.products.Trending(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var in productInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid product data", err)
		return
	}
	product := in.model()
	if err := h.products.Create(c.Request.Context(), product); err != nil {
		h.respondError(c, err, "product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var upd repository.ProductUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, "invalid product data", err)
		return
	}
	product, err := h.products.Update(c.Request.Context(), id, upd)
	if err != nil {
		h.respondError(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}
