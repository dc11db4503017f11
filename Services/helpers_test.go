package Services

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"Attendance/Models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var baseTime = time.Date(2024, time.August, 15, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock { return &testClock{now: baseTime} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Models.Open(filepath.Join(t.TempDir(), "test.db"), Models.NewGormLogger(gormLogger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() { Models.Close(db) })
	return db
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

func receive[T any](t *testing.T, ch <-chan []T) []T {
	t.Helper()
	select {
	case list, ok := <-ch:
		require.True(t, ok, "stream closed")
		return list
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
	}
	return nil
}

func ids[T Record](list []T) []string {
	out := make([]string, 0, len(list))
	for _, rec := range list {
		out = append(out, rec.RecordID())
	}
	return out
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
