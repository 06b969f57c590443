package fileledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GlebRadaev/courierstats/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const headerLine = "timestamp,courier_user_id,courier_username,amount,message_id,status\n"

func newTestRepo(t *testing.T) (*Repository, string) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "data", "deliveries.csv")
	repo := New(path, loc)
	require.NoError(t, repo.Init(context.Background()))
	return repo, path
}

func collect(t *testing.T, repo *Repository) []domain.DeliveryRecord {
	t.Helper()
	var out []domain.DeliveryRecord
	err := repo.Scan(context.Background(), func(rec domain.DeliveryRecord) error {
		out = append(out, rec)
		return nil
	})
	require.NoError(t, err)
	return out
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zapcore.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestRepository_Init(t *testing.T) {
	repo, path := newTestRepo(t)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, headerLine, string(content))

	rec := domain.DeliveryRecord{
		Timestamp:     time.Date(2026, time.October, 12, 10, 0, 0, 0, repo.loc),
		CourierID:     "1",
		CourierHandle: domain.Handle("alice"),
		Amount:        500,
		MessageRef:    "10",
		Status:        domain.StatusDelivered,
	}
	require.NoError(t, repo.Append(context.Background(), rec))

	require.NoError(t, repo.Init(context.Background()))
	require.NoError(t, repo.Init(context.Background()))

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(content), "timestamp,"))
	assert.Len(t, collect(t, repo), 1)
}

func TestRepository_InitEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deliveries.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	repo := New(path, time.UTC)
	require.NoError(t, repo.Init(context.Background()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, headerLine, string(content))
}

func TestRepository_RoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)

	records := []domain.DeliveryRecord{
		{
			Timestamp:     time.Date(2026, time.October, 12, 10, 0, 1, 0, repo.loc),
			CourierID:     "1001",
			CourierHandle: domain.Handle("алиса"),
			Amount:        500,
			MessageRef:    "77",
			Status:        domain.StatusDelivered,
		},
		{
			Timestamp:     time.Date(2026, time.October, 13, 23, 59, 59, 0, repo.loc),
			CourierID:     "1002",
			CourierHandle: domain.Handle(""),
			Amount:        9223372036854775807,
			MessageRef:    "with,comma \"quoted\"",
			Status:        domain.StatusDelivered,
		},
	}
	for _, rec := range records {
		require.NoError(t, repo.Append(context.Background(), rec))
	}

	got := collect(t, repo)
	require.Len(t, got, len(records))
	for i := range records {
		assert.True(t, records[i].Timestamp.Equal(got[i].Timestamp))
		got[i].Timestamp = records[i].Timestamp
		assert.Equal(t, records[i], got[i])
	}
}

func TestRepository_TimestampZone(t *testing.T) {
	repo, path := newTestRepo(t)

	utc := time.Date(2026, time.October, 11, 21, 30, 0, 0, time.UTC)
	require.NoError(t, repo.Append(context.Background(), domain.DeliveryRecord{
		Timestamp: utc, CourierID: "1", Amount: 1, MessageRef: "1", Status: domain.StatusDelivered,
	}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "2026-10-12 00:30:00")

	got := collect(t, repo)
	require.Len(t, got, 1)
	assert.True(t, utc.Equal(got[0].Timestamp))
}

func TestRepository_SkipsMalformedRows(t *testing.T) {
	repo, path := newTestRepo(t)
	logs := observeLogs(t)

	rows := headerLine +
		"2026-10-12 10:00:00,1,alice,500,1,delivered\n" +
		"2026-10-12 10:05:00,1,alice,five hundred,2,delivered\n" +
		"2026-10-12 11:00:00,1,alice,300,3,delivered\n" +
		"not-a-date,2,bob,100,4,delivered\n" +
		"2026-10-12 12:00:00,2,bob,100\n" +
		"2026-10-12 12:30:00,,bob,100,5,delivered\n" +
		"2026-10-12 13:00:00,2,bob,-5,6,delivered\n" +
		"2026-10-12 13:30:00,2,bob,50,7,\n" +
		"2026-10-13 09:00:00,2,bob,1000,8,delivered\n" +
		"2026-10-13 09:30:00,2,bob,1000,9,refunded\n"
	require.NoError(t, os.WriteFile(path, []byte(rows), 0o644))

	got := collect(t, repo)

	require.Len(t, got, 3)
	assert.Equal(t, int64(500), got[0].Amount)
	assert.Equal(t, int64(300), got[1].Amount)
	assert.Equal(t, int64(1000), got[2].Amount)
	assert.Equal(t, 7, logs.FilterMessage("skipping malformed ledger row").Len())
}

func TestRepository_ScanMissingFile(t *testing.T) {
	repo := New(filepath.Join(t.TempDir(), "absent.csv"), time.UTC)
	assert.Empty(t, collect(t, repo))
}

func TestRepository_ScanStopsOnCallbackError(t *testing.T) {
	repo, _ := newTestRepo(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Append(context.Background(), domain.DeliveryRecord{
			Timestamp: time.Now(), CourierID: "1", Amount: 1, MessageRef: "1", Status: domain.StatusDelivered,
		}))
	}

	stop := errors.New("stop")
	calls := 0
	err := repo.Scan(context.Background(), func(domain.DeliveryRecord) error {
		calls++
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestRepository_ScanCancelled(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Scan(ctx, func(domain.DeliveryRecord) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRepository_AppendFault(t *testing.T) {
	repo := New(filepath.Join(t.TempDir(), "missing-dir", "deliveries.csv"), time.UTC)

	err := repo.Append(context.Background(), domain.DeliveryRecord{CourierID: "1", Amount: 1})
	assert.Error(t, err)
}

func TestRepository_ConcurrentAppend(t *testing.T) {
	repo, _ := newTestRepo(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Append(context.Background(), domain.DeliveryRecord{
				Timestamp:     time.Now(),
				CourierID:     "1",
				CourierHandle: domain.Handle("alice"),
				Amount:        10,
				MessageRef:    strings.Repeat("x", 512),
				Status:        domain.StatusDelivered,
			}))
		}()
	}
	wg.Wait()

	got := collect(t, repo)
	assert.Len(t, got, 50)
}

func TestRepository_AppendAfterTornRow(t *testing.T) {
	repo, path := newTestRepo(t)
	logs := observeLogs(t)

	torn := headerLine + "2026-10-12 10:00:00,1,alice,500,1,deliv"
	require.NoError(t, os.WriteFile(path, []byte(torn), 0o644))

	rec := domain.DeliveryRecord{
		Timestamp:     time.Date(2026, time.October, 12, 11, 0, 0, 0, repo.loc),
		CourierID:     "2",
		CourierHandle: domain.Handle("bob"),
		Amount:        300,
		MessageRef:    "2",
		Status:        domain.StatusDelivered,
	}
	require.NoError(t, repo.Append(context.Background(), rec))
	require.NoError(t, repo.Append(context.Background(), rec))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(content), "\n"))

	got := collect(t, repo)
	require.Len(t, got, 2)
	assert.True(t, rec.Timestamp.Equal(got[0].Timestamp))
	got[0].Timestamp = rec.Timestamp
	assert.Equal(t, rec, got[0])
	assert.Equal(t, "2", got[1].CourierID)
	assert.Equal(t, 1, logs.FilterMessage("skipping malformed ledger row").Len())
}

func TestRepository_AppendRejectsLineBreaks(t *testing.T) {
	repo, path := newTestRepo(t)

	err := repo.Append(context.Background(), domain.DeliveryRecord{
		Timestamp: time.Now(), CourierID: "1", Amount: 1, MessageRef: "first\nsecond", Status: domain.StatusDelivered,
	})
	assert.ErrorIs(t, err, ErrLineBreak)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, headerLine, string(content))
}

func TestRepository_UnterminatedQuoteIsIsolated(t *testing.T) {
	repo, path := newTestRepo(t)
	logs := observeLogs(t)

	rows := headerLine +
		"2026-10-12 10:00:00,1,alice,500,1,delivered\n" +
		"2026-10-12 10:30:00,2,\"bob,100,2,delivered\n" +
		"2026-10-12 11:00:00,3,carol,300,3,delivered\n" +
		"2026-10-12 12:00:00,4,dave,200,4,delivered\n"
	require.NoError(t, os.WriteFile(path, []byte(rows), 0o644))

	got := collect(t, repo)

	ids := make([]string, 0, len(got))
	for _, rec := range got {
		ids = append(ids, rec.CourierID)
	}
	assert.Equal(t, []string{"1", "3", "4"}, ids)

	skipped := logs.FilterMessage("skipping malformed ledger row")
	require.Equal(t, 1, skipped.Len())
	assert.Equal(t, int64(3), skipped.All()[0].ContextMap()["line"])
}

func TestRepository_ScanToleratesCRLFAndBlankLines(t *testing.T) {
	repo, path := newTestRepo(t)

	rows := "timestamp,courier_user_id,courier_username,amount,message_id,status\r\n" +
		"2026-10-12 10:00:00,1,alice,500,1,delivered\r\n" +
		"\n" +
		"2026-10-12 11:00:00,2,,300,2,delivered\n"
	require.NoError(t, os.WriteFile(path, []byte(rows), 0o644))

	got := collect(t, repo)

	require.Len(t, got, 2)
	assert.Equal(t, domain.Handle("alice"), got[0].CourierHandle)
	assert.False(t, got[1].CourierHandle.Valid)
}
