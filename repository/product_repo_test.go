package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/models"
)

func TestProductCreateGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newTestDB(t))

	mug := seedProduct(t, repo, models.Product{Title: "Mug", Price: 9.5, Category: "Kitchen"})
	require.NotZero(t, mug.ID)

	got, err := repo.Get(ctx, mug.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mug", got.Title)
	assert.Equal(t, 9.5, got.Price)

	require.NoError(t, repo.Delete(ctx, mug.ID))

	_, err = repo.Get(ctx, mug.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, mug.ID), ErrNotFound)
}

func TestProductCreateValidation(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newTestDB(t))

	cases := []struct {
		name    string
		product models.Product
		field   string
	}{
		{"blank title", models.Product{Title: "   ", Price: 1}, "title"},
		{"zero price", models.Product{Title: "Free", Price: 0}, "price"},
		{"negative stock", models.Product{Title: "Bad", Price: 1, Stock: -1}, "stock"},
		{"rating too high", models.Product{Title: "Star", Price: 1, Rating: 6}, "rating"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.product
			err := repo.Create(ctx, &p)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestProductDuplicateTitle(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newTestDB(t))

	seedProduct(t, repo, models.Product{Title: "Mug", Price: 5})
	dup := models.Product{Title: "mug", Price: 6}
	err := repo.Create(ctx, &dup)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.EqualError(t, err, "product with this title already exists")

	other := seedProduct(t, repo, models.Product{Title: "Plate", Price: 7})
	title := "MUG"
	_, err = repo.Update(ctx, other.ID, ProductUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrDuplicate)

	// renaming onto its own title is fine
	same := "Plate"
	_, err = repo.Update(ctx, other.ID, ProductUpdate{Title: &same})
	assert.NoError(t, err)
}

func TestProductUpdateWhitelist(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newTestDB(t))
	p := seedProduct(t, repo, models.Product{Title: "Lamp", Price: 20, Stock: 3})

	price := 25.0
	tags := []string{"light", "desk"}
	updated, err := repo.Update(ctx, p.ID, ProductUpdate{Price: &price, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, 25.0, updated.Price)
	assert.Equal(t, 3, updated.Stock)

	reloaded, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"light", "desk"}, reloaded.Tags)

	bad := -1.0
	_, err = repo.Update(ctx, p.ID, ProductUpdate{Price: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = repo.Update(ctx, 9999, ProductUpdate{Price: &price})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductListFiltersAndPaging(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newTestDB(t))

	for i := 1; i <= 5; i++ {
		seedProduct(t, repo, models.Product{
			Title:    fmt.Sprintf("Shirt %d", i),
			Price:    float64(i * 10),
			Category: "Clothing",
			Tags:     []string{"cotton"},
		})
	}
	seedProduct(t, repo, models.Product{Title: "Kettle", Price: 30, Category: "Kitchen", IsFeatured: true})

	page, err := repo.List(ctx, ProductFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)
	assert.True(t, page.HasMore)
	assert.EqualValues(t, 6, page.Total)
	assert.Equal(t, "Kettle", page.Products[0].Title)

	page, err = repo.List(ctx, ProductFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)
	assert.False(t, page.HasMore)

	page, err = repo.List(ctx, ProductFilter{Category: "clothing"})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)

	page, err = repo.List(ctx, ProductFilter{Search: "COTTON"})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)

	minPrice, maxPrice := 20.0, 30.0
	page, err = repo.List(ctx, ProductFilter{MinPrice: &minPrice, MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)

	featured := true
	page, err = repo.List(ctx, ProductFilter{Featured: &featured})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Kettle", page.Products[0].Title)

	_, err = repo.List(ctx, ProductFilter{MinPrice: &maxPrice, MaxPrice: &minPrice})
	assert.ErrorIs(t, err, ErrValidation)

	page, err = repo.List(ctx, ProductFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, page.Limit)
}

func TestProductCategoriesAndFeatured(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newTestDB(t))
	seedProduct(t, repo, models.Product{Title: "A", Price: 1, Category: "Toys"})
	seedProduct(t, repo, models.Product{Title: "B", Price: 1, Category: "Books", IsFeatured: true})
	seedProduct(t, repo, models.Product{Title: "C", Price: 1, Category: "Toys"})

	categories, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Books", "Toys"}, categories)

	featured, err := repo.Featured(ctx, 10)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "B", featured[0].Title)

	page, err := repo.ListByCategory(ctx, "toys", 10, 0)
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)

	_, err = repo.ListByCategory(ctx, " ", 10, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProductTrendingOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newTestDB(t))

	// scores: popular 0.7*4/5+0.3*1 = 0.86, rated 0.7*5/5+0.3*0.1 = 0.73
	popular := seedProduct(t, repo, models.Product{Title: "Popular", Price: 1, Rating: 4, ReviewCount: 100})
	rated := seedProduct(t, repo, models.Product{Title: "Rated", Price: 1, Rating: 5, ReviewCount: 10})
	tieOld := seedProduct(t, repo, models.Product{Title: "Tie old", Price: 1})
	tieNew := seedProduct(t, repo, models.Product{Title: "Tie new", Price: 1})

	trending, err := repo.Trending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trending, 4)

	ids := []uint{trending[0].ID, trending[1].ID, trending[2].ID, trending[3].ID}
	assert.Equal(t, []uint{popular.ID, rated.ID, tieNew.ID, tieOld.ID}, ids)
}

func TestProductTrendingEmptyCatalog(t *testing.T) {
	trending, err := NewProductRepository(newTestDB(t)).Trending(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, trending)
}

func TestProductSearchTreatsWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newTestDB(t))

	seedProduct(t, repo, models.Product{Title: "Tee 50% off", Price: 10, Category: "Tops"})
	seedProduct(t, repo, models.Product{Title: "Tee 500 pack", Price: 10, Category: "Tops"})
	seedProduct(t, repo, models.Product{Title: "snake_case mug", Price: 10, Category: "Kitchen"})
	seedProduct(t, repo, models.Product{Title: "snakeXcase mug", Price: 10, Category: "Kitchen"})
	seedProduct(t, repo, models.Product{Title: "Wow! hat", Price: 10, Category: "Hats"})

	cases := []struct {
		search string
		want   []string
	}{
		{"50%", []string{"Tee 50% off"}},
		{"e_c", []string{"snake_case mug"}},
		{"%", []string{"Tee 50% off"}},
		{"wow!", []string{"Wow! hat"}},
		{"tee", []string{"Tee 50% off", "Tee 500 pack"}},
	}
	for _, tc := range cases {
		t.Run(tc.search, func(t *testing.T) {
			page, err := repo.List(ctx, ProductFilter{Search: tc.search})
			require.NoError(t, err)
			var titles []string
			for _, p := range page.Products {
				titles = append(titles, p.Title)
			}
			assert.ElementsMatch(t, tc.want, titles)
		})
	}
}
