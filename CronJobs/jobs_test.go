package CronJobs

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"Attendance/Models"
	"Attendance/Services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormLogger "gorm.io/gorm/logger"
)

type fakeUploader struct {
	mu            sync.Mutex
	attendance    [][]Models.Attendance
	leaves        [][]Models.Leave
	attendanceErr error
	// runs while a leave batch is in flight
	duringLeaves func()
}

func (f *fakeUploader) UploadAttendance(_ context.Context, recs []Models.Attendance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attendanceErr != nil {
		return f.attendanceErr
	}
	f.attendance = append(f.attendance, recs)
	return nil
}

func (f *fakeUploader) UploadLeaves(_ context.Context, leaves []Models.Leave) error {
	if f.duringLeaves != nil {
		f.duringLeaves()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaves = append(f.leaves, leaves)
	return nil
}

type fixture struct {
	attendance *Services.AttendanceService
	types      *Services.LeaveTypeService
	leaves     *Services.LeaveService
	uploader   *fakeUploader
	job        *SyncJob
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := Models.Open(filepath.Join(t.TempDir(), "sync.db"), Models.NewGormLogger(gormLogger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() { Models.Close(db) })

	attendance := Services.NewAttendanceService(db)
	types := Services.NewLeaveTypeService(db)
	leaves := Services.NewLeaveService(db, types)
	uploader := &fakeUploader{}

	return fixture{
		attendance: attendance,
		types:      types,
		leaves:     leaves,
		uploader:   uploader,
		job:        NewSyncJob(attendance, leaves, uploader, "", false),
	}
}

func TestRunNowUploadsAndMarksRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.attendance.CheckIn(ctx, Services.RecordOptions{})
	require.NoError(t, err)
	require.NoError(t, f.types.Create(ctx, &Models.LeaveType{ID: "annual", Name: "Annual", MaxDays: 21, Criterion: Models.CriterionYearly}))
	_, err = f.leaves.Apply(ctx, Services.ApplyRequest{LeaveTypeID: "annual"})
	require.NoError(t, err)

	result, err := f.job.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attendance)
	assert.Equal(t, 1, result.Leaves)
	require.Len(t, f.uploader.attendance, 1)
	require.Len(t, f.uploader.leaves, 1)

	pending, err := f.attendance.PendingUpload(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// nothing left to send
	result, err = f.job.RunNow(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Attendance)
	assert.Len(t, f.uploader.attendance, 1)
	require.NotNil(t, f.job.LastResult())
}

func TestRunNowKeepsRecordsPendingOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.uploader.attendanceErr = errors.New("offline")

	_, err := f.attendance.CheckIn(ctx, Services.RecordOptions{})
	require.NoError(t, err)

	_, err = f.job.RunNow(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")

	pending, err := f.attendance.PendingUpload(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRunNowRequeuesLeaveApprovedDuringUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.types.Create(ctx, &Models.LeaveType{ID: "annual", Name: "Annual", MaxDays: 21, Criterion: Models.CriterionYearly}))
	leave, err := f.leaves.Apply(ctx, Services.ApplyRequest{LeaveTypeID: "annual"})
	require.NoError(t, err)

	f.uploader.duringLeaves = func() {
		f.uploader.duringLeaves = nil
		_, err := f.leaves.Approve(ctx, leave.ID, "HR")
		require.NoError(t, err)
	}

	result, err := f.job.RunNow(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Leaves)

	got, err := f.leaves.Get(ctx, leave.ID)
	require.NoError(t, err)
	assert.Equal(t, Models.LeaveApproved, got.Status)
	assert.Equal(t, Models.UploadPending, got.UploadStatus)

	pending, err := f.leaves.PendingUpload(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// the next run sends the approved version
	result, err = f.job.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Leaves)
	require.Len(t, f.uploader.leaves, 2)
	assert.Equal(t, Models.LeaveApproved, f.uploader.leaves[1][0].Status)

	pending, err = f.leaves.PendingUpload(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRunNowRejectsOverlappingRuns(t *testing.T) {
	f := newFixture(t)
	f.job.running.Lock()
	defer f.job.running.Unlock()

	_, err := f.job.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)
}

func TestScheduleLifecycle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.job.Start())
	defer f.job.Stop()

	assert.Equal(t, DefaultSchedule, f.job.Schedule())
	assert.Error(t, f.job.UpdateSchedule("not a schedule"))
	assert.Equal(t, DefaultSchedule, f.job.Schedule())

	require.NoError(t, f.job.UpdateSchedule("@every 1h"))
	assert.Equal(t, "@every 1h", f.job.Schedule())
	require.Eventually(t, func() bool {
		return !f.job.Next().IsZero()
	}, time.Second, 10*time.Millisecond)
}
