package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/storage"
)

func TestIntegration_EquipmentAndRequests(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	e1 := newEquipment("SN-1")
	require.NoError(t, st.SaveEquipment(ctx, e1))

	t.Run("duplicate_serial", func(t *testing.T) {
		require.ErrorIs(t, st.SaveEquipment(ctx, newEquipment("SN-1")), storage.ErrAlreadyExists)
	})

	t.Run("unknown_team_reference", func(t *testing.T) {
		e := newEquipment("SN-FK")
		team := uuid.New()
		e.TeamID = &team
		require.ErrorIs(t, st.SaveEquipment(ctx, e), storage.ErrNotFound)
	})

	t.Run("request_for_missing_equipment", func(t *testing.T) {
		require.ErrorIs(t, st.SaveRequest(ctx, newRequest(uuid.New(), models.StageNew, nil)), storage.ErrNotFound)
	})

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	r1 := newRequest(e1.ID, models.StageInProgress, &past)
	require.NoError(t, st.SaveRequest(ctx, r1))

	t.Run("open_requests_counted", func(t *testing.T) {
		got, err := st.EquipmentByID(ctx, e1.ID)
		require.NoError(t, err)
		require.Equal(t, 1, got.OpenRequests)
		require.Equal(t, models.EquipmentOperational, got.Status)
	})

	t.Run("overdue_filter", func(t *testing.T) {
		now := time.Now().UTC()
		items, err := st.ListRequests(ctx, storage.RequestFilter{OverdueBefore: &now})
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, r1.ID, items[0].ID)
	})

	t.Run("update_returns_previous_stage", func(t *testing.T) {
		scrap := models.StageScrap
		subject := "Scrap it"
		prev, got, err := st.UpdateRequest(ctx, r1.ID, storage.RequestUpdate{Stage: &scrap, Subject: &subject})
		require.NoError(t, err)
		require.Equal(t, models.StageInProgress, prev)
		require.Equal(t, models.StageScrap, got.Stage)
		require.Equal(t, "Scrap it", got.Subject)
		require.NotNil(t, got.ScheduledDate)

		prev, got, err = st.UpdateRequest(ctx, r1.ID, storage.RequestUpdate{Stage: &scrap, ClearScheduledDate: true})
		require.NoError(t, err)
		require.Equal(t, models.StageScrap, prev)
		require.Nil(t, got.ScheduledDate)

		_, _, err = st.UpdateRequest(ctx, uuid.New(), storage.RequestUpdate{Stage: &scrap})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("scrap_idempotent", func(t *testing.T) {
		changed, err := st.MarkEquipmentScrapped(ctx, e1.ID)
		require.NoError(t, err)
		require.True(t, changed)

		changed, err = st.MarkEquipmentScrapped(ctx, e1.ID)
		require.NoError(t, err)
		require.False(t, changed)

		got, err := st.EquipmentByID(ctx, e1.ID)
		require.NoError(t, err)
		require.Equal(t, models.EquipmentScrapped, got.Status)
		require.Equal(t, 0, got.OpenRequests)

		_, err = st.MarkEquipmentScrapped(ctx, uuid.New())
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("list_filters", func(t *testing.T) {
		status := models.EquipmentScrapped
		items, err := st.ListEquipment(ctx, storage.EquipmentFilter{Status: &status})
		require.NoError(t, err)
		require.Len(t, items, 1)

		reqs, err := st.ListRequests(ctx, storage.RequestFilter{EquipmentID: &e1.ID})
		require.NoError(t, err)
		require.Len(t, reqs, 1)
	})
}
