package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/Dan9191/world-service/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	stats *models.StoreStats
	err   error
}

func (f fakeSource) Stats(context.Context) (*models.StoreStats, error) {
	return f.stats, f.err
}

func TestStatsReporter_Report(t *testing.T) {
	log, hook := test.NewNullLogger()
	r, err := NewStatsReporter(fakeSource{stats: &models.StoreStats{Users: 1, Worlds: 2, Events: 5}}, log, "@every 1h")
	require.NoError(t, err)

	r.Report()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "Store stats", entry.Message)
	assert.Equal(t, int64(2), entry.Data["worlds"])
	assert.Equal(t, int64(5), entry.Data["events"])
}

func TestStatsReporter_ReportError(t *testing.T) {
	log, hook := test.NewNullLogger()
	r, err := NewStatsReporter(fakeSource{err: errors.New("db gone")}, log, "@hourly")
	require.NoError(t, err)

	r.Report()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
}

func TestNewStatsReporter_InvalidSchedule(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := NewStatsReporter(fakeSource{}, log, "whenever")
	assert.Error(t, err)
}

func TestStatsReporter_StartStop(t *testing.T) {
	log, hook := test.NewNullLogger()
	r, err := NewStatsReporter(fakeSource{stats: &models.StoreStats{}}, log, "@every 1h")
	require.NoError(t, err)

	r.Start()
	r.Stop()
	assert.Equal(t, "Stats reporter stopped", hook.LastEntry().Message)
}
