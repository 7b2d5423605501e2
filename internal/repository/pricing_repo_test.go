package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/glamping-backend/internal/models"
)

func TestPricingRepository_UpsertRate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPricingRepository(db)
	ctx := context.Background()

	unit := createTestUnit(t, db, 1)

	first := &models.PricingRate{UnitID: unit.ID, ParameterID: 1, Amount: decimal.NewFromInt(100), PricingMode: models.PricingModePerPerson}
	require.NoError(t, repo.UpsertRate(ctx, first))
	assert.NotZero(t, first.ID)

	second := &models.PricingRate{UnitID: unit.ID, ParameterID: 1, Amount: decimal.NewFromInt(120), PricingMode: models.PricingModePerGroup}
	require.NoError(t, repo.UpsertRate(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	eventID := int64(7)
	seasonal := &models.PricingRate{UnitID: unit.ID, ParameterID: 1, EventID: &eventID, Amount: decimal.NewFromInt(200), PricingMode: models.PricingModePerPerson}
	require.NoError(t, repo.UpsertRate(ctx, seasonal))
	assert.NotEqual(t, first.ID, seasonal.ID)

	var count int64
	require.NoError(t, db.Model(&models.PricingRate{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	base, err := repo.ListRates(ctx, unit.ID, nil)
	require.NoError(t, err)
	require.Len(t, base, 1)
	assert.Equal(t, "120", base[0].Amount.String())
	assert.Equal(t, models.PricingModePerGroup, base[0].PricingMode)

	all, err := repo.ListRates(ctx, unit.ID, []int64{eventID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unrelated, err := repo.ListRates(ctx, unit.ID, []int64{eventID + 1})
	require.NoError(t, err)
	assert.Len(t, unrelated, 1)
}

func TestPricingRepository_Events(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPricingRepository(db)
	ctx := context.Background()

	unit := createTestUnit(t, db, 1)
	start, end := day(6, 1), day(8, 31)
	event := &models.PricingEvent{
		Name:      "High season",
		RuleType:  models.PricingRuleDateRange,
		StartDate: &start,
		EndDate:   &end,
		Status:    models.StatusActive,
	}
	require.NoError(t, repo.CreateEvent(ctx, event))

	attachedAt := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	link, err := repo.AttachEvent(ctx, unit.ID, event.ID, attachedAt)
	require.NoError(t, err)
	assert.NotZero(t, link.ID)

	links, err := repo.ListAttachedEvents(ctx, unit.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.NotNil(t, links[0].Event)
	assert.Equal(t, "High season", links[0].Event.Name)
	assert.True(t, links[0].Event.Matches(day(8, 31)))

	require.NoError(t, repo.DetachEvent(ctx, unit.ID, event.ID))
	links, err = repo.ListAttachedEvents(ctx, unit.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}
