package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/susu3304/sharetabbot/internal/pricing"
)

func TestOrderedCharges(t *testing.T) {
	got := orderedCharges([]string{"John", "Jane", "Ghost"}, map[string]float64{
		"Jane": 20000, "John": 30000, "zed": 1, "Amy": 2,
	})
	assert.Equal(t, []Charge{
		{Participant: "John", Amount: 30000},
		{Participant: "Jane", Amount: 20000},
		{Participant: "Amy", Amount: 2},
		{Participant: "zed", Amount: 1},
	}, got)

	assert.Empty(t, orderedCharges([]string{"A"}, nil))
}

// openTestDB connects to TEST_DATABASE_URL; the test is skipped without it.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	database, err := New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(database.Close)
	require.NoError(t, database.RunMigrations(ctx))
	return database
}

func TestRecordAndListSplits(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	channel := "test-" + t.Name()

	_, err := database.pool.Exec(ctx, `DELETE FROM split_history WHERE channel_id = $1`, channel)
	require.NoError(t, err)

	require.NoError(t, database.RecordSplit(ctx, channel, pricing.MethodEqual, []string{"John", "Jane"}, &pricing.Result{
		PerPersonCharges: map[string]float64{"John": 25000, "Jane": 25000},
		Amount:           50000,
	}))
	require.NoError(t, database.RecordSplit(ctx, channel, pricing.MethodItemized, []string{"A", "B"}, &pricing.Result{
		PerPersonCharges: map[string]float64{"A": 17500, "B": 7500},
	}))

	records, err := database.ListSplits(ctx, channel, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	newest := records[0]
	assert.Equal(t, "itemized", newest.Method)
	assert.Equal(t, 25000.0, newest.Total)
	assert.Equal(t, []Charge{{"A", 17500}, {"B", 7500}}, newest.Charges)

	assert.Equal(t, "equal", records[1].Method)
	assert.Equal(t, []string{"John", "Jane"}, records[1].Participants)

	empty, err := database.ListSplits(ctx, "no-such-channel", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
