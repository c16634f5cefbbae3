package repository

import (
	"context"
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/models"
)

// Trending weights: normalized rating (0..5) and review count relative to the catalog maximum.
const (
	trendingRatingWeight = 0.7
	trendingReviewWeight = 0.3
)

type ProductFilter struct {
	Category string
	Featured *bool
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Limit    int
	Offset   int
}

type ProductPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
	HasMore  bool             `json:"hasMore"`
}

// ProductUpdate carries the mutable product fields; nil means unchanged.
type ProductUpdate struct {
	Title         *string   `json:"title"`
	Description   *string   `json:"description"`
	Price         *float64  `json:"price"`
	OriginalPrice *float64  `json:"originalPrice"`
	Category      *string   `json:"category"`
	Tags          *[]string `json:"tags"`
	Images        *[]string `json:"images"`
	Sizes         *[]string `json:"sizes"`
	Colors        *[]string `json:"colors"`
	Stock         *int      `json:"stock"`
	IsFeatured    *bool     `json:"isFeatured"`
	IsTrending    *bool     `json:"isTrending"`
	Rating        *float64  `json:"rating"`
	ReviewCount   *int      `json:"reviewCount"`
}

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (f ProductFilter) validate() error {
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return invalid("minPrice", "minPrice must not be negative")
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return invalid("maxPrice", "maxPrice must not be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return invalid("minPrice", "minPrice must not exceed maxPrice")
	}
	return nil
}

func (f ProductFilter) scope(db *gorm.DB) *gorm.DB {
	if category := strings.TrimSpace(f.Category); category != "" {
		db = db.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	if f.Featured != nil {
		db = db.Where("is_featured = ?", *f.Featured)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := containsPattern(search)
		db = db.Where(anyLike("title", "category", "tags"), pattern, pattern, pattern)
	}
	if f.MinPrice != nil {
		db = db.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		db = db.Where("price <= ?", *f.MaxPrice)
	}
	return db
}

// List returns one page of products matching the filter, newest first.
func (r *ProductRepository) List(ctx context.Context, filter ProductFilter) (*ProductPage, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset)

	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Scopes(filter.scope).
		Count(&total).
		Error
	if err != nil {
		return nil, err
	}

	// one extra row tells us whether another page exists
	var products []models.Product
	err = r.db.WithContext(ctx).
		Scopes(filter.scope).
		Order("id DESC").
		Limit(limit + 1).
		Offset(offset).
		Find(&products).
		Error
	if err != nil {
		return nil, err
	}

	hasMore := len(products) > limit
	if hasMore {
		products = products[:limit]
	}

	return &ProductPage{
		Products: products,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
		HasMore:  hasMore,
	}, nil
}

func (r *ProductRepository) Get(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// GetMany loads products by id, keyed by id. Missing ids are simply absent.
func (r *ProductRepository) GetMany(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category <> ''").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).
		Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *ProductRepository) ListByCategory(ctx context.Context, category string, limit, offset int) (*ProductPage, error) {
	if strings.TrimSpace(category) == "" {
		return nil, invalid("category", "category is required")
	}
	return r.List(ctx, ProductFilter{Category: category, Limit: limit, Offset: offset})
}

func (r *ProductRepository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	limit, _ = normalizePage(limit, 0)
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("is_featured = ?", true).
		Order("id DESC").
		Limit(limit).
		Find(&products).
		Error
	return products, err
}

// Trending ranks products by a weighted sum of normalized rating and review count,
// ties broken by descending id.
func (r *ProductRepository) Trending(ctx context.Context, limit int) ([]models.Product, error) {
	limit, _ = normalizePage(limit, 0)

	var maxReviews int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("COALESCE(MAX(review_count), 0)").
		Scan(&maxReviews).
		Error
	if err != nil {
		return nil, err
	}
	if maxReviews <= 0 {
		maxReviews = 1
	}

	var products []models.Product
	err = r.db.WithContext(ctx).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "(? * rating / 5.0 + ? * review_count * 1.0 / ?) DESC, id DESC",
			Vars:               []interface{}{trendingRatingWeight, trendingReviewWeight, float64(maxReviews)},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&products).
		Error
	return products, err
}

func validateProduct(p *models.Product) error {
	p.Title = strings.TrimSpace(p.Title)
	p.Category = strings.TrimSpace(p.Category)
	if p.Title == "" {
		return invalid("title", "title is required")
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price <= 0 {
		return invalid("price", "price must be a positive number")
	}
	if p.OriginalPrice < 0 {
		return invalid("originalPrice", "originalPrice must not be negative")
	}
	if p.Stock < 0 {
		return invalid("stock", "stock must not be negative")
	}
	if p.Rating < 0 || p.Rating > 5 {
		return invalid("rating", "rating must be between 0 and 5")
	}
	if p.ReviewCount < 0 {
		return invalid("reviewCount", "reviewCount must not be negative")
	}
	return nil
}

func (r *ProductRepository) titleTaken(ctx context.Context, title string, exceptID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("LOWER(title) = ? AND id <> ?", strings.ToLower(title), exceptID).
		Count(&count).
		Error
	return count > 0, err
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	taken, err := r.titleTaken(ctx, product.Title, 0)
	if err != nil {
		return err
	}
	if taken {
		return duplicate("title", "product with this title already exists")
	}
	product.ID = 0
	return translate(r.db.WithContext(ctx).Create(product).Error)
}

func (r *ProductRepository) Update(ctx context.Context, id uint, upd ProductUpdate) (*models.Product, error) {
	product, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		product.Title = *upd.Title
	}
	if upd.Description != nil {
		product.Description = *upd.Description
	}
	if upd.Price != nil {
		product.Price = *upd.Price
	}
	if upd.OriginalPrice != nil {
		product.OriginalPrice = *upd.OriginalPrice
	}
	if upd.Category != nil {
		product.Category = *upd.Category
	}
	if upd.Tags != nil {
		product.Tags = *upd.Tags
	}
	if upd.Images != nil {
		product.Images = *upd.Images
	}
	if upd.Sizes != nil {
		product.Sizes = *upd.Sizes
	}
	if upd.Colors != nil {
		product.Colors = *upd.Colors
	}
	if upd.Stock != nil {
		product.Stock = *upd.Stock
	}
	if upd.IsFeatured != nil {
		product.IsFeatured = *upd.IsFeatured
	}
	if upd.IsTrending != nil {
		product.IsTrending = *upd.IsTrending
	}
	if upd.Rating != nil {
		product.Rating = *upd.Rating
	}
	if upd.ReviewCount != nil {
		product.ReviewCount = *upd.ReviewCount
	}

	if err := validateProduct(product); err != nil {
		return nil, err
	}
	taken, err := r.titleTaken(ctx, product.Title, product.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, duplicate("title", "product with this title already exists")
	}

	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, translate(err)
	}
	return product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
