package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTaxonomyRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTaxonomyRepository(db)
	ctx := context.Background()

	cats, err := repo.EnsureAnimal(ctx, "Gatti")
	require.NoError(t, err)
	again, err := repo.EnsureAnimal(ctx, "gatti")
	require.NoError(t, err)
	assert.Equal(t, cats.ID, again.ID)

	_, err = repo.EnsureAnimal(ctx, "Cani")
	require.NoError(t, err)
	_, err = repo.EnsureCategory(ctx, "Giochi")
	require.NoError(t, err)
	_, err = repo.EnsureCategory(ctx, "Cibo")
	require.NoError(t, err)

	animals, err := repo.AnimalNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cani", "Gatti"}, animals)

	categories, err := repo.CategoryNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cibo", "Giochi"}, categories)
}
