package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aquapet/backend/internal/domain/catalog"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormProductRepository_FindByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	taxonomy := NewGormTaxonomyRepository(db)
	dogs, err := taxonomy.EnsureAnimal(ctx, "Cani")
	require.NoError(t, err)

	p, err := catalog.NewProduct("Crocchette", decimal.RequireFromString("20.00"))
	require.NoError(t, err)
	p.AnimalID = &dogs.ID
	_, err = p.AddVariant("5kg", decimal.RequireFromString("10"))
	require.NoError(t, err)
	_, err = p.AddVariant("2kg", decimal.RequireFromString("4"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))

	t.Run("loads relations", func(t *testing.T) {
		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Crocchette", found.Name)
		assert.Equal(t, "20.00", found.Price.StringFixed(2))
		require.Len(t, found.Variants, 2)
		assert.Equal(t, "2kg", found.Variants[0].Name)
		assert.Equal(t, "Cani", found.AnimalName())
		assert.Equal(t, catalog.DefaultCategoryName, found.CategoryName())
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_FindByBarcode(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := seedProduct(t, db, "Osso", "3.50", 4)
	require.NoError(t, p.SetBarcode("8001234567890"))
	require.NoError(t, repo.Save(ctx, p))

	found, err := repo.FindByBarcode(ctx, "8001234567890")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	_, err = repo.FindByBarcode(ctx, "0000")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindByBarcode(ctx, "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductRepository_Save_DuplicateBarcode(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	first := seedProduct(t, db, "Osso", "3.50", 1)
	require.NoError(t, first.SetBarcode("123"))
	require.NoError(t, repo.Save(ctx, first))

	second, err := catalog.NewProduct("Osso grande", decimal.NewFromInt(5))
	require.NoError(t, err)
	require.NoError(t, second.SetBarcode("123"))

	err = repo.Save(ctx, second)
	assert.Error(t, err)
}

func TestGormProductRepository_FindAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	taxonomy := NewGormTaxonomyRepository(db)
	ctx := context.Background()

	food, err := taxonomy.EnsureCategory(ctx, "Cibo")
	require.NoError(t, err)

	kibble := seedProduct(t, db, "Crocchette Gatto", "12", 3)
	kibble.CategoryID = &food.ID
	kibble.IsFeatured = true
	require.NoError(t, repo.Save(ctx, kibble))

	seedProduct(t, db, "Pallina", "2", 10)
	hidden := seedProduct(t, db, "Crocchette Ritirate", "1", 0)
	hidden.Published = false
	require.NoError(t, repo.Save(ctx, hidden))

	grooming, err := catalog.NewService("Toelettatura", decimal.NewFromInt(30))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, grooming))

	tests := []struct {
		name   string
		filter shared.Filter
		want   []string
	}{
		{
			name:   "published only, by name",
			filter: shared.Filter{},
			want:   []string{"Crocchette Gatto", "Pallina", "Toelettatura"},
		},
		{
			name:   "search is case insensitive",
			filter: shared.Filter{Search: "crocch"},
			want:   []string{"Crocchette Gatto"},
		},
		{
			name:   "category by name",
			filter: shared.Filter{Filters: map[string]any{catalog.FilterCategory: "cibo"}},
			want:   []string{"Crocchette Gatto"},
		},
		{
			name:   "featured",
			filter: shared.Filter{Filters: map[string]any{catalog.FilterFeatured: true}},
			want:   []string{"Crocchette Gatto"},
		},
		{
			name:   "services",
			filter: shared.Filter{Filters: map[string]any{catalog.FilterService: true}},
			want:   []string{"Toelettatura"},
		},
		{
			name:   "paged and sorted by price desc",
			filter: shared.Filter{Page: 1, PageSize: 2, OrderBy: "price", OrderDir: "desc"},
			want:   []string{"Toelettatura", "Crocchette Gatto"},
		},
		{
			name:   "unknown sort field falls back to name",
			filter: shared.Filter{OrderBy: "name; DROP TABLE products"},
			want:   []string{"Crocchette Gatto", "Pallina", "Toelettatura"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := repo.FindAll(ctx, tt.filter)
			require.NoError(t, err)

			names := make([]string, len(products))
			for i := range products {
				names[i] = products[i].Name
			}
			assert.Equal(t, tt.want, names)
		})
	}

	count, err := repo.Count(ctx, shared.Filter{Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestGormProductRepository_DecrementStock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := seedProduct(t, db, "Guinzaglio", "8", 5)

	remaining, err := repo.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	// never below zero
	remaining, err = repo.DecrementStock(ctx, p.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	reloaded, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)
	assert.Equal(t, p.Version+2, reloaded.Version)

	_, err = repo.DecrementStock(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductRepository_TakeOne(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := seedProduct(t, db, "Snack", "1.20", 1)

	remaining, err := repo.TakeOne(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	_, err = repo.TakeOne(ctx, p.ID)
	assert.ErrorIs(t, err, shared.ErrOutOfStock)

	_, err = repo.TakeOne(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductRepository_UpdateDetails_KeepsConcurrentStock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := seedProduct(t, db, "Acquario 60L", "89.00", 5)

	loaded, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	// a scan lands between the load and the write
	remaining, err := repo.TakeOne(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 4, remaining)

	require.NoError(t, loaded.AddImage("https://img.example.com/products/a.png"))
	require.NoError(t, loaded.AddImage("https://img.example.com/products/b.png"))
	loaded.Description = "Vasca in vetro"
	require.NoError(t, repo.UpdateDetails(ctx, loaded))

	reloaded, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, reloaded.Stock)
	assert.Equal(t, "https://img.example.com/products/a.png", reloaded.ImageURL)
	assert.Equal(t, []string{"https://img.example.com/products/b.png"}, reloaded.Gallery)
	assert.Equal(t, "Vasca in vetro", reloaded.Description)
}

func TestGormProductRepository_UpdateDetails_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)

	ghost, err := catalog.NewProduct("Fantasma", decimal.RequireFromString("1.00"))
	require.NoError(t, err)

	err = repo.UpdateDetails(context.Background(), ghost)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductRepository_DecrementStock_Postgres(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormProductRepository(db.DB)

	id := uuid.New()
	mock.ExpectExec(`UPDATE "products" SET "stock"=CASE WHEN stock > \$1 THEN stock - \$2 ELSE 0 END,"updated_at"=\$3,"version"=version \+ 1 WHERE id = \$4`).
		WithArgs(3, 3, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT "stock" FROM "products" WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(7))

	remaining, err := repo.DecrementStock(context.Background(), id, 3)

	require.NoError(t, err)
	assert.Equal(t, 7, remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}
