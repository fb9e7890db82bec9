package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsFlushOnStop(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)

	a.Track(EvtSessionStart, 0, "s1", "")
	for i := 0; i < 4; i++ {
		a.Track(EvtShot, 1, "s1", "")
	}
	a.Track(EvtKill, 1, "s1", "")
	a.Track(EvtRoundEnd, 1, "s1", `{"score":1}`)
	a.Stop()
	a.Stop()

	counts, err := a.EventCounts(1)
	require.NoError(t, err)
	assert.Equal(t, 4, counts[EvtShot])
	assert.Equal(t, 1, counts[EvtKill])
	assert.Equal(t, 1, counts[EvtSessionStart])
	assert.Equal(t, 0, a.Dropped())

	acc, err := a.Accuracy(1)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, acc, 1e-9)
}

func TestAnalyticsBatchFlush(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)
	defer a.Stop()

	for i := 0; i < analyticsBatchSize; i++ {
		a.Track(EvtShot, 0, "", "")
	}
	assert.Eventually(t, func() bool {
		counts, err := a.EventCounts(1)
		return err == nil && counts[EvtShot] == analyticsBatchSize
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAnalyticsNilSafe(t *testing.T) {
	var a *Analytics
	a.Track(EvtShot, 0, "", "")

	b := NewAnalytics(nil)
	b.Track(EvtShot, 0, "", "")
	b.Stop()
	counts, err := b.EventCounts(1)
	assert.NoError(t, err)
	assert.Nil(t, counts)
}
