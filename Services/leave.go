package Services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"Attendance/Models"

	"gorm.io/gorm"
)

const notifyTimeout = 15 * time.Second

// LeaveTypeService manages leave policies. Watch lists them by name.
type LeaveTypeService struct {
	*collection[Models.LeaveType]
}

func NewLeaveTypeService(db *gorm.DB, opts ...Option) *LeaveTypeService {
	o := buildOptions(opts)
	return &LeaveTypeService{
		collection: newCollection[Models.LeaveType]("leave type", "name ASC, id ASC", db, o.validator()),
	}
}

// LeaveService manages leave requests. Watch lists them newest first.
type LeaveService struct {
	*collection[Models.Leave]
	types    *LeaveTypeService
	notifier Notifier
	now      func() time.Time
	newID    func() string

	applyMu sync.Mutex
}

func NewLeaveService(db *gorm.DB, types *LeaveTypeService, opts ...Option) *LeaveService {
	o := buildOptions(opts)
	return &LeaveService{
		collection: newCollection[Models.Leave]("leave", "applied_at DESC, id DESC", db, o.validator()),
		types:      types,
		notifier:   o.notifier,
		now:        o.now,
		newID:      o.newID,
	}
}

// ApplyRequest is what an employee fills in to ask for leave.
type ApplyRequest struct {
	LeaveTypeID string `json:"leave_type_id"`
	Remark      string `json:"remark"`
	DeviceID    string `json:"device_id"`
}

// Apply files a pending leave of the requested type. Each leave counts as one
// day against the type's allowance for the current period.
func (s *LeaveService) Apply(ctx context.Context, req ApplyRequest) (*Models.Leave, error) {
	leaveType, err := s.types.Get(ctx, req.LeaveTypeID)
	if err != nil {
		return nil, err
	}

	leave, err := s.file(ctx, *leaveType, req)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, *leave, s.notifier.LeaveApplied)
	return leave, nil
}

// file checks the allowance and stores the leave under applyMu.
func (s *LeaveService) file(ctx context.Context, leaveType Models.LeaveType, req ApplyRequest) (*Models.Leave, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	now := s.now()
	used, err := s.usedInPeriod(ctx, leaveType, now)
	if err != nil {
		return nil, err
	}
	if used >= leaveType.MaxDays {
		log.Printf("Leave %s refused: %d of %d days used since %s\n",
			leaveType.Name, used, leaveType.MaxDays, leaveType.Criterion.PeriodStart(now).Format("2006-01-02"))
		return nil, fmt.Errorf("%s: %w", leaveType.Name, ErrAllowanceExceeded)
	}

	leave := Models.Leave{
		ID:        s.newID(),
		LeaveType: leaveType,
		Remark:    strings.TrimSpace(req.Remark),
		Status:    Models.LeavePending,
		AppliedAt: now,
		DeviceID:  req.DeviceID,
	}
	if err := s.Create(ctx, &leave); err != nil {
		return nil, err
	}
	return &leave, nil
}

// Remaining returns how many days of the leave type are still available in
// the current period.
func (s *LeaveService) Remaining(ctx context.Context, leaveTypeID string) (int, error) {
	leaveType, err := s.types.Get(ctx, leaveTypeID)
	if err != nil {
		return 0, err
	}
	used, err := s.usedInPeriod(ctx, *leaveType, s.now())
	if err != nil {
		return 0, err
	}
	if used >= leaveType.MaxDays {
		return 0, nil
	}
	return leaveType.MaxDays - used, nil
}

// Approve moves a pending leave to approved. The approval is a new revision
// and is uploaded again.
func (s *LeaveService) Approve(ctx context.Context, id, approver string) (*Models.Leave, error) {
	leave, err := s.modify(ctx, id, func(l *Models.Leave) error {
		if l.Status == Models.LeaveApproved {
			return ErrAlreadyApproved
		}
		at := s.now()
		l.Status = Models.LeaveApproved
		l.ApprovedBy = strings.TrimSpace(approver)
		l.ApprovedAt = &at
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, *leave, s.notifier.LeaveApproved)
	return leave, nil
}

// PendingUpload returns the leaves that still need to reach the server.
func (s *LeaveService) PendingUpload(ctx context.Context) ([]Models.Leave, error) {
	return s.pendingUpload(ctx, "applied_at")
}

// MarkUploaded confirms an upload of recs and returns how many were marked.
// Records changed after recs were read are not marked.
func (s *LeaveService) MarkUploaded(ctx context.Context, recs []Models.Leave, at time.Time) (int64, error) {
	return s.markUploaded(ctx, recs, at)
}

func (s *LeaveService) usedInPeriod(ctx context.Context, leaveType Models.LeaveType, now time.Time) (int, error) {
	start := leaveType.Criterion.PeriodStart(now)

	var leaves []Models.Leave
	if err := s.db.WithContext(ctx).Where("applied_at >= ?", start.UTC()).Find(&leaves).Error; err != nil {
		log.Printf("Error counting leaves since %s: %v\n", start, err)
		return 0, fmt.Errorf("count leaves: %w", err)
	}

	used := 0
	for _, l := range leaves {
		if l.LeaveType.ID == leaveType.ID {
			used++
		}
	}
	return used, nil
}

// notify runs outside the request context; a failed notification never
// undoes the change it reports.
func (s *LeaveService) notify(ctx context.Context, leave Models.Leave, send func(context.Context, Models.Leave) error) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := send(nctx, leave); err != nil {
		log.Printf("Error sending notification for leave %s: %v\n", leave.ID, err)
	}
}
