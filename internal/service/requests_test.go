package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/storage"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func equipment(status models.EquipmentStatus) *models.Equipment {
	team := uuid.New()
	return &models.Equipment{
		ID:           uuid.New(),
		Name:         "Lathe",
		SerialNumber: "SN-1",
		TeamID:       &team,
		PurchaseDate: testNow.AddDate(-2, 0, 0),
		Status:       status,
	}
}

func TestCreateRequest_OK(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	fixedNow(svc, testNow)
	eq := equipment(models.EquipmentOperational)
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	st.EXPECT().EquipmentByID(gomock.Any(), eq.ID).Return(eq, nil)
	st.EXPECT().SaveRequest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *models.MaintenanceRequest) error {
			require.Equal(t, models.StageNew, r.Stage)
			require.Equal(t, eq.TeamID, r.TeamID)
			require.Equal(t, "Oil leak", r.Subject)
			return nil
		})

	r, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		Subject:       "  Oil leak ",
		EquipmentID:   eq.ID,
		Type:          models.RequestPreventive,
		ScheduledDate: &past,
		DurationHours: 1.5,
	})
	require.NoError(t, err)
	require.True(t, r.IsOverdue)
}

func TestCreateRequest_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newSvc(t)
	eqID := uuid.New()

	cases := []struct {
		name string
		in   CreateRequestInput
	}{
		{"empty subject", CreateRequestInput{Subject: " ", EquipmentID: eqID, Type: models.RequestCorrective}},
		{"no equipment", CreateRequestInput{Subject: "x", Type: models.RequestCorrective}},
		{"bad type", CreateRequestInput{Subject: "x", EquipmentID: eqID, Type: "URGENT"}},
		{"preventive without date", CreateRequestInput{Subject: "x", EquipmentID: eqID, Type: models.RequestPreventive}},
		{"negative duration", CreateRequestInput{Subject: "x", EquipmentID: eqID, Type: models.RequestCorrective, DurationHours: -1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateRequest(context.Background(), tc.in)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestCreateRequest_EquipmentMissingOrScrapped(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	missing := uuid.New()
	scrapped := equipment(models.EquipmentScrapped)

	st.EXPECT().EquipmentByID(gomock.Any(), missing).Return(nil, storage.ErrNotFound)
	st.EXPECT().EquipmentByID(gomock.Any(), scrapped.ID).Return(scrapped, nil)

	_, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		Subject: "x", EquipmentID: missing, Type: models.RequestCorrective,
	})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreateRequest(context.Background(), CreateRequestInput{
		Subject: "x", EquipmentID: scrapped.ID, Type: models.RequestCorrective,
	})
	require.ErrorIs(t, err, ErrEquipmentScrapped)
}

func TestUpdateRequest_RepairedClearsOverdue(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	fixedNow(svc, testNow)

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &models.MaintenanceRequest{
		ID:            uuid.New(),
		Subject:       "Belt",
		EquipmentID:   uuid.New(),
		Type:          models.RequestPreventive,
		Stage:         models.StageInProgress,
		ScheduledDate: &past,
	}

	st.EXPECT().RequestByID(gomock.Any(), r.ID).Return(r, nil)

	got, err := svc.RequestByID(context.Background(), r.ID)
	require.NoError(t, err)
	require.True(t, got.IsOverdue)

	repaired := *r
	repaired.Stage = models.StageRepaired
	st.EXPECT().UpdateRequest(gomock.Any(), r.ID, storage.RequestUpdate{Stage: ptr(models.StageRepaired)}).
		Return(models.StageInProgress, &repaired, nil)

	res, err := svc.UpdateRequest(context.Background(), r.ID, UpdateRequestInput{Stage: ptr(models.StageRepaired)})
	require.NoError(t, err)
	require.False(t, res.Request.IsOverdue)
	require.Equal(t, CascadeNone, res.Cascade)
}

func TestUpdateRequest_ScrapCascades(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	fixedNow(svc, testNow)
	pub := mocksPublisher(t)
	svc.SetPublisher(pub)

	e1 := uuid.New()
	r := &models.MaintenanceRequest{ID: uuid.New(), EquipmentID: e1, Stage: models.StageScrap, Type: models.RequestCorrective}

	st.EXPECT().UpdateRequest(gomock.Any(), r.ID, gomock.Any()).Return(models.StageNew, r, nil)
	st.EXPECT().MarkEquipmentScrapped(gomock.Any(), e1).Return(true, nil)
	pub.EXPECT().PublishEquipmentScrapped(gomock.Any(), gomock.Any()).Return(nil)

	res, err := svc.UpdateRequest(context.Background(), r.ID, UpdateRequestInput{Stage: ptr(models.StageScrap)})
	require.NoError(t, err)
	require.Equal(t, CascadeApplied, res.Cascade)
	require.Equal(t, models.StageScrap, res.Request.Stage)
}

func TestUpdateRequest_ScrapToScrapDoesNotCascade(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	r := &models.MaintenanceRequest{ID: uuid.New(), EquipmentID: uuid.New(), Stage: models.StageScrap}

	st.EXPECT().UpdateRequest(gomock.Any(), r.ID, gomock.Any()).Return(models.StageScrap, r, nil)

	res, err := svc.UpdateRequest(context.Background(), r.ID, UpdateRequestInput{Stage: ptr(models.StageScrap)})
	require.NoError(t, err)
	require.Equal(t, CascadeNone, res.Cascade)
}

func TestUpdateRequest_CascadeOutcomes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		changed bool
		err     error
		want    CascadeOutcome
	}{
		{"already scrapped", false, nil, CascadeAlreadyScrapped},
		{"equipment missing", false, storage.ErrNotFound, CascadeEquipmentMissing},
		{"storage failure", false, errors.New("db down"), CascadeFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, st := newSvc(t)
			r := &models.MaintenanceRequest{ID: uuid.New(), EquipmentID: uuid.New(), Stage: models.StageScrap}

			st.EXPECT().UpdateRequest(gomock.Any(), r.ID, gomock.Any()).Return(models.StageInProgress, r, nil)
			st.EXPECT().MarkEquipmentScrapped(gomock.Any(), r.EquipmentID).Return(tc.changed, tc.err)

			// Сбой каскада не откатывает и не проваливает апдейт заявки.
			res, err := svc.UpdateRequest(context.Background(), r.ID, UpdateRequestInput{Stage: ptr(models.StageScrap)})
			require.NoError(t, err)
			require.Equal(t, tc.want, res.Cascade)
			require.Equal(t, models.StageScrap, res.Request.Stage)
		})
	}
}

func TestUpdateRequest_PublishFailureIgnored(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	pub := mocksPublisher(t)
	svc.SetPublisher(pub)

	r := &models.MaintenanceRequest{ID: uuid.New(), EquipmentID: uuid.New(), Stage: models.StageScrap}

	st.EXPECT().UpdateRequest(gomock.Any(), r.ID, gomock.Any()).Return(models.StageNew, r, nil)
	st.EXPECT().MarkEquipmentScrapped(gomock.Any(), r.EquipmentID).Return(true, nil)
	pub.EXPECT().PublishEquipmentScrapped(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	res, err := svc.UpdateRequest(context.Background(), r.ID, UpdateRequestInput{Stage: ptr(models.StageScrap)})
	require.NoError(t, err)
	require.Equal(t, CascadeApplied, res.Cascade)
}

func TestUpdateRequest_Validation(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	id := uuid.New()

	_, err := svc.UpdateRequest(context.Background(), id, UpdateRequestInput{Stage: ptr(models.Stage("DONE"))})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.UpdateRequest(context.Background(), id, UpdateRequestInput{DurationHours: ptr(-2.0)})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.UpdateRequest(context.Background(), id, UpdateRequestInput{Subject: ptr("  ")})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.UpdateRequest(context.Background(), uuid.Nil, UpdateRequestInput{})
	require.ErrorIs(t, err, ErrInvalidArgument)

	st.EXPECT().UpdateRequest(gomock.Any(), id, gomock.Any()).Return(models.Stage(""), nil, storage.ErrNotFound)
	_, err = svc.UpdateRequest(context.Background(), id, UpdateRequestInput{Stage: ptr(models.StageNew)})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestApplyScrapCascade(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)

	scrap := &models.MaintenanceRequest{ID: uuid.New(), EquipmentID: uuid.New(), Stage: models.StageScrap}
	open := &models.MaintenanceRequest{ID: uuid.New(), EquipmentID: uuid.New(), Stage: models.StageNew}

	st.EXPECT().RequestByID(gomock.Any(), scrap.ID).Return(scrap, nil)
	st.EXPECT().MarkEquipmentScrapped(gomock.Any(), scrap.EquipmentID).Return(false, nil)

	res, err := svc.ApplyScrapCascade(context.Background(), scrap.ID)
	require.NoError(t, err)
	require.Equal(t, CascadeAlreadyScrapped, res.Cascade)

	st.EXPECT().RequestByID(gomock.Any(), open.ID).Return(open, nil)

	_, err = svc.ApplyScrapCascade(context.Background(), open.ID)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestListRequests_OverdueOnly(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	fixedNow(svc, testNow)

	past := testNow.Add(-time.Hour)
	st.EXPECT().ListRequests(gomock.Any(), storage.RequestFilter{OverdueBefore: &testNow}).
		Return([]models.MaintenanceRequest{{ID: uuid.New(), Stage: models.StageNew, ScheduledDate: &past}}, nil)

	items, err := svc.ListRequests(context.Background(), RequestListFilter{OverdueOnly: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, items[0].IsOverdue)

	_, err = svc.ListRequests(context.Background(), RequestListFilter{Stage: ptr(models.Stage("x"))})
	require.ErrorIs(t, err, ErrInvalidArgument)
}
