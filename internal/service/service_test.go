package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-award-notifier/internal/notify"
	"procurement-award-notifier/internal/report"
	"procurement-award-notifier/internal/roster"
	"procurement-award-notifier/internal/store"
	"procurement-award-notifier/internal/store/memory"
)

const reportJSON = `{
  "numero_procedure": "2024-AO-017",
  "titre": "Réhabilitation du groupe scolaire",
  "lots": [
    {"numero": 1, "intitule": "Gros oeuvre", "tableau": [
      {"raison_sociale": "Alpha", "rang": 1, "note_finale": 95, "montant_ttc": 1000},
      {"raison_sociale": "Beta", "rang": 2, "note_finale": 80, "montant_ttc": 1200}
    ]},
    {"numero": 2, "intitule": "Menuiseries", "tableau": [
      {"raison_sociale": "Beta", "rang": 1, "note_finale": 90, "montant_ttc": 2000},
      {"raison_sociale": "Alpha", "rang": 2, "note_finale": 70, "montant_ttc": 2500}
    ]}
  ]
}`

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	mem := memory.NewStore()
	repos := Repositories{Procedures: mem, Reports: mem, Roster: mem, Notifications: mem}
	svc := New(repos, Settings{Buyer: notify.BuyerIdentity{Name: "Ville de Exemple"}}, nil)
	svc.now = func() time.Time { return time.Unix(100, 0) }

	rep, err := report.Decode([]byte(reportJSON))
	require.NoError(t, err)
	contacts := []roster.Contact{{Name: "ALPHA", Email: "contact@alpha.fr"}}
	require.NoError(t, svc.Import(context.Background(), &store.Procedure{ID: "p1"}, rep, contacts))
	return svc, mem
}

func TestClassify(t *testing.T) {
	svc, _ := newService(t)

	result, err := svc.Classify(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalLots)
	assert.Empty(t, result.Winners)
	assert.Empty(t, result.Losers)
	require.Len(t, result.Mixed, 2)
	require.NotNil(t, result.Mixed[0].Contact)
	assert.Equal(t, "contact@alpha.fr", result.Mixed[0].Contact.Email)
}

func TestClassifyUnknownProcedure(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Classify(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClassifyWithoutReport(t *testing.T) {
	svc, mem := newService(t)
	require.NoError(t, mem.SaveProcedure(context.Background(), &store.Procedure{ID: "p2"}))

	_, err := svc.Classify(context.Background(), "p2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNotificationsArePersisted(t *testing.T) {
	svc, mem := newService(t)

	batch, err := svc.Notifications(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, batch.Attributions, 2)
	assert.Len(t, batch.Rejections, 2)
	assert.Len(t, batch.Awards, 2)
	assert.Equal(t, "2024-AO-017", batch.Attributions[0].ProcedureNumero)
	assert.Equal(t, "Ville de Exemple", batch.Rejections[0].Buyer.Name)

	records, err := mem.ListNotifications(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, notify.KindAttribution, records[0].Kind)
	assert.Equal(t, notify.KindRejection, records[2].Kind)
	assert.Equal(t, time.Unix(100, 0), records[0].CreatedAt)
}

func TestNotificationsRegenerationReplacesRecords(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Notifications(ctx, "p1")
		require.NoError(t, err)
	}

	records, err := svc.StoredNotifications(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, records, 6)
}

func TestStoredNotifications(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	records, err := svc.StoredNotifications(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = svc.StoredNotifications(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStandstillDaysSetting(t *testing.T) {
	svc, _ := newService(t)
	svc.settings.StandstillDays = 16

	batch, err := svc.Notifications(context.Background(), "p1")
	require.NoError(t, err)
	for _, rejection := range batch.Rejections {
		assert.Equal(t, 16, rejection.StandstillDays)
	}
}

func TestExport(t *testing.T) {
	svc, _ := newService(t)

	var buf bytes.Buffer
	n, err := svc.Export(context.Background(), "p1", &buf)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	archive, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Len(t, archive.File, 6)
}

type failingNotifications struct{}

func (failingNotifications) SaveNotifications(context.Context, string, []store.Notification) error {
	return errors.New("connection reset")
}

func (failingNotifications) ListNotifications(context.Context, string) ([]store.Notification, error) {
	return nil, errors.New("connection reset")
}

func TestNotificationsSaveError(t *testing.T) {
	svc, _ := newService(t)
	svc.repos.Notifications = failingNotifications{}

	_, err := svc.Notifications(context.Background(), "p1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to save notifications for p1")
	assert.ErrorContains(t, err, "connection reset")
}
