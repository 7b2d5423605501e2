package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/models"
)

func TestUnitRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUnitRepository(db)
	ctx := context.Background()

	zone := &models.Zone{Name: "Forest", Status: models.StatusActive}
	require.NoError(t, repo.CreateZone(ctx, zone))

	gotZone, err := repo.GetZone(ctx, zone.ID)
	require.NoError(t, err)
	assert.Equal(t, "Forest", gotZone.Name)

	unit := &models.AccommodationUnit{ZoneID: zone.ID, Name: "Dome", InventoryQuantity: 3, Status: models.StatusActive}
	require.NoError(t, repo.Create(ctx, unit))

	require.NoError(t, repo.UpdateFields(ctx, unit.ID, map[string]interface{}{"is_unlimited": true}))

	err = db.Transaction(func(tx *gorm.DB) error {
		locked, err := repo.GetForUpdate(ctx, tx, unit.ID)
		if err != nil {
			return err
		}
		assert.True(t, locked.IsUnlimited)
		return nil
	})
	require.NoError(t, err)

	units, err := repo.ListByZone(ctx, zone.ID)
	require.NoError(t, err)
	assert.Len(t, units, 1)
}

func TestUnitRepository_Parameters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUnitRepository(db)
	ctx := context.Background()

	unit := createTestUnit(t, db, 1)
	adult := &models.Parameter{Code: "adult", Name: "Adult"}
	child := &models.Parameter{Code: "child", Name: "Child"}
	require.NoError(t, repo.CreateParameter(ctx, adult))
	require.NoError(t, repo.CreateParameter(ctx, child))

	require.NoError(t, repo.AttachParameter(ctx, unit.ID, child.ID, 2))
	require.NoError(t, repo.AttachParameter(ctx, unit.ID, adult.ID, 1))
	require.NoError(t, repo.AttachParameter(ctx, unit.ID, adult.ID, 1))

	params, err := repo.ListParameters(ctx, unit.ID)
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, "adult", params[0].Code)
	assert.Equal(t, "child", params[1].Code)

	byID, err := repo.GetParameters(ctx, []int64{adult.ID, 999})
	require.NoError(t, err)
	assert.Len(t, byID, 1)
	assert.Equal(t, "Adult", byID[adult.ID].Name)

	empty, err := repo.GetParameters(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
