package Services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"Attendance/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	applied  []string
	approved []string
	err      error
}

func (n *recordingNotifier) LeaveApplied(_ context.Context, l Models.Leave) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.applied = append(n.applied, l.ID)
	return n.err
}

func (n *recordingNotifier) LeaveApproved(_ context.Context, l Models.Leave) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved = append(n.approved, l.ID)
	return n.err
}

type leaveFixture struct {
	types    *LeaveTypeService
	leaves   *LeaveService
	clock    *testClock
	notifier *recordingNotifier
}

func newLeaveFixture(t *testing.T) leaveFixture {
	t.Helper()
	db := newTestDB(t)
	clock := newTestClock()
	notifier := &recordingNotifier{}

	types := NewLeaveTypeService(db, WithClock(clock.Now))
	leaves := NewLeaveService(db, types,
		WithClock(clock.Now),
		WithIDGenerator(sequentialIDs("leave")),
		WithNotifier(notifier),
	)
	t.Cleanup(types.Close)
	t.Cleanup(leaves.Close)

	return leaveFixture{types: types, leaves: leaves, clock: clock, notifier: notifier}
}

func TestLeaveTypeCRUD(t *testing.T) {
	f := newLeaveFixture(t)
	ctx := testContext(t)

	annual := &Models.LeaveType{ID: "annual", Name: "Annual", MaxDays: 21, Criterion: Models.CriterionYearly}
	casual := &Models.LeaveType{ID: "casual", Name: "Casual", MaxDays: 2, Criterion: Models.CriterionMonthly}
	require.NoError(t, f.types.Create(ctx, annual))
	require.NoError(t, f.types.Create(ctx, casual))
	assert.ErrorIs(t, f.types.Create(ctx, annual), ErrDuplicateID)

	list, err := f.types.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"annual", "casual"}, ids(list))

	casual.MaxDays = 3
	require.NoError(t, f.types.Update(ctx, "casual", casual))
	got, err := f.types.Get(ctx, "casual")
	require.NoError(t, err)
	assert.Equal(t, 3, got.MaxDays)

	assert.ErrorIs(t, f.types.Update(ctx, "annual", casual), ErrIDMismatch)
	require.NoError(t, f.types.Delete(ctx, "annual"))
	assert.ErrorIs(t, f.types.Delete(ctx, "annual"), ErrNotFound)
}

func TestLeaveTypeRejectsInvalidPolicy(t *testing.T) {
	f := newLeaveFixture(t)
	err := f.types.Create(testContext(t), &Models.LeaveType{ID: "x", Name: "X", MaxDays: 0, Criterion: "daily"})

	var verr *Models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "max_days")
	assert.Contains(t, verr.Fields, "criterion")
}

func TestLeaveApplyCopiesLeaveType(t *testing.T) {
	f := newLeaveFixture(t)
	ctx := testContext(t)
	require.NoError(t, f.types.Create(ctx, &Models.LeaveType{ID: "sick", Name: "Sick", MaxDays: 5, Criterion: Models.CriterionMonthly}))

	leave, err := f.leaves.Apply(ctx, ApplyRequest{LeaveTypeID: "sick", Remark: "  flu  ", DeviceID: "pixel-7"})
	require.NoError(t, err)
	assert.Equal(t, "leave-1", leave.ID)
	assert.Equal(t, Models.LeavePending, leave.Status)
	assert.Equal(t, "flu", leave.Remark)
	assert.True(t, leave.AppliedAt.Equal(baseTime))
	assert.Equal(t, []string{"leave-1"}, f.notifier.applied)

	// editing or removing the policy leaves the request untouched
	require.NoError(t, f.types.Update(ctx, "sick", &Models.LeaveType{ID: "sick", Name: "Sick leave", MaxDays: 10, Criterion: Models.CriterionYearly}))
	require.NoError(t, f.types.Delete(ctx, "sick"))

	got, err := f.leaves.Get(ctx, "leave-1")
	require.NoError(t, err)
	assert.Equal(t, "Sick", got.LeaveType.Name)
	assert.Equal(t, 5, got.LeaveType.MaxDays)
}

func TestLeaveApplyUnknownType(t *testing.T) {
	f := newLeaveFixture(t)
	_, err := f.leaves.Apply(testContext(t), ApplyRequest{LeaveTypeID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaveApplyAllowance(t *testing.T) {
	f := newLeaveFixture(t)
	ctx := testContext(t)
	require.NoError(t, f.types.Create(ctx, &Models.LeaveType{ID: "casual", Name: "Casual", MaxDays: 2, Criterion: Models.CriterionWeekly}))
	require.NoError(t, f.types.Create(ctx, &Models.LeaveType{ID: "sick", Name: "Sick", MaxDays: 1, Criterion: Models.CriterionWeekly}))

	_, err := f.leaves.Apply(ctx, ApplyRequest{LeaveTypeID: "casual"})
	require.NoError(t, err)
	remaining, err := f.leaves.Remaining(ctx, "casual")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	f.clock.Advance(time.Hour)
	_, err = f.leaves.Apply(ctx, ApplyRequest{LeaveTypeID: "casual"})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.leaves.Apply(ctx, ApplyRequest{LeaveTypeID: "casual"})
	assert.ErrorIs(t, err, ErrAllowanceExceeded)

	// other types keep their own allowance
	_, err = f.leaves.Apply(ctx, ApplyRequest{LeaveTypeID: "sick"})
	require.NoError(t, err)

	// next week the allowance resets
	f.clock.Advance(7 * 24 * time.Hour)
	_, err = f.leaves.Apply(ctx, ApplyRequest{LeaveTypeID: "casual"})
	assert.NoError(t, err)
}

func TestLeaveApprove(t *testing.T) {
	f := newLeaveFixture(t)
	ctx := testContext(t)
	require.NoError(t, f.types.Create(ctx, &Models.LeaveType{ID: "annual", Name: "Annual", MaxDays: 21, Criterion: Models.CriterionYearly}))

	leave, err := f.leaves.Apply(ctx, ApplyRequest{LeaveTypeID: "annual"})
	require.NoError(t, err)
	_, err = f.leaves.MarkUploaded(ctx, []Models.Leave{*leave}, baseTime)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	approved, err := f.leaves.Approve(ctx, leave.ID, " HR Manager ")
	require.NoError(t, err)
	assert.Equal(t, Models.LeaveApproved, approved.Status)
	assert.Equal(t, "HR Manager", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	assert.True(t, approved.ApprovedAt.Equal(baseTime.Add(time.Hour)))
	assert.Equal(t, Models.UploadPending, approved.UploadStatus)
	assert.EqualValues(t, 2, approved.Revision)
	assert.Equal(t, []string{leave.ID}, f.notifier.approved)

	_, err = f.leaves.Approve(ctx, leave.ID, "someone")
	assert.ErrorIs(t, err, ErrAlreadyApproved)

	_, err = f.leaves.Approve(ctx, "missing", "someone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaveNotifierFailureDoesNotUndoApply(t *testing.T) {
	f := newLeaveFixture(t)
	ctx := testContext(t)
	f.notifier.err = errors.New("smtp down")
	require.NoError(t, f.types.Create(ctx, &Models.LeaveType{ID: "annual", Name: "Annual", MaxDays: 21, Criterion: Models.CriterionYearly}))

	leave, err := f.leaves.Apply(ctx, ApplyRequest{LeaveTypeID: "annual"})
	require.NoError(t, err)

	_, err = f.leaves.Get(ctx, leave.ID)
	assert.NoError(t, err)
}

type blockingNotifier struct {
	NopNotifier
	entered chan string
	release chan struct{}
}

func (n *blockingNotifier) LeaveApplied(ctx context.Context, l Models.Leave) error {
	n.entered <- l.ID
	select {
	case <-n.release:
	case <-ctx.Done():
	}
	return nil
}

func TestLeaveApplyDoesNotWaitForOtherNotifications(t *testing.T) {
	db := newTestDB(t)
	clock := newTestClock()
	notifier := &blockingNotifier{entered: make(chan string, 2), release: make(chan struct{})}
	types := NewLeaveTypeService(db, WithClock(clock.Now))
	leaves := NewLeaveService(db, types, WithClock(clock.Now), WithNotifier(notifier))
	t.Cleanup(types.Close)
	t.Cleanup(leaves.Close)

	ctx := testContext(t)
	require.NoError(t, types.Create(ctx, &Models.LeaveType{ID: "annual", Name: "Annual", MaxDays: 21, Criterion: Models.CriterionYearly}))

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := leaves.Apply(ctx, ApplyRequest{LeaveTypeID: "annual"})
			errs <- err
		}()
	}

	// both applications reach the notifier while the first is still sending
	for i := 0; i < 2; i++ {
		select {
		case <-notifier.entered:
		case <-time.After(5 * time.Second):
			close(notifier.release)
			t.Fatal("second application waited for the first notification")
		}
	}
	close(notifier.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	remaining, err := leaves.Remaining(ctx, "annual")
	require.NoError(t, err)
	assert.Equal(t, 19, remaining)
}

func TestLeaveWatchNewestFirst(t *testing.T) {
	f := newLeaveFixture(t)
	ctx := testContext(t)
	require.NoError(t, f.types.Create(ctx, &Models.LeaveType{ID: "annual", Name: "Annual", MaxDays: 21, Criterion: Models.CriterionYearly}))

	stream, err := f.leaves.Watch(ctx)
	require.NoError(t, err)
	assert.Empty(t, receive(t, stream))

	_, err = f.leaves.Apply(ctx, ApplyRequest{LeaveTypeID: "annual"})
	require.NoError(t, err)
	assert.Equal(t, []string{"leave-1"}, ids(receive(t, stream)))

	f.clock.Advance(time.Minute)
	_, err = f.leaves.Apply(ctx, ApplyRequest{LeaveTypeID: "annual"})
	require.NoError(t, err)
	assert.Equal(t, []string{"leave-2", "leave-1"}, ids(receive(t, stream)))

	_, err = f.leaves.Approve(ctx, "leave-1", "HR")
	require.NoError(t, err)
	list := receive(t, stream)
	assert.Equal(t, []string{"leave-2", "leave-1"}, ids(list))
	assert.Equal(t, Models.LeaveApproved, list[1].Status)
}

func TestLeaveCreateRejectsFutureAppliedAt(t *testing.T) {
	f := newLeaveFixture(t)
	err := f.leaves.Create(testContext(t), &Models.Leave{
		ID:        "l",
		LeaveType: Models.LeaveType{ID: "annual", Name: "Annual", MaxDays: 21, Criterion: Models.CriterionYearly},
		Status:    Models.LeavePending,
		AppliedAt: baseTime.Add(time.Hour),
	})
	var verr *Models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "applied_at")
}
