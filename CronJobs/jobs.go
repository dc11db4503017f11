package CronJobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"Attendance/Services"
	"Attendance/Sync"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the upload every fifteen minutes.
const DefaultSchedule = "0 */15 * * * *"

var ErrSyncInProgress = errors.New("a sync run is already in progress")

// SyncResult counts what one run uploaded and confirmed.
type SyncResult struct {
	Attendance int       `json:"attendance"`
	Leaves     int       `json:"leaves"`
	FinishedAt time.Time `json:"finished_at"`
}

// SyncJob periodically uploads pending attendance marks and leaves.
type SyncJob struct {
	cronScheduler  *cron.Cron
	schedule       string
	runImmediately bool
	jobID          cron.EntryID
	timeout        time.Duration

	attendance *Services.AttendanceService
	leaves     *Services.LeaveService
	uploader   Sync.Uploader
	now        func() time.Time

	running sync.Mutex
	mu      sync.Mutex
	last    *SyncResult
}

// NewSyncJob creates a sync job. An empty schedule means DefaultSchedule.
func NewSyncJob(attendance *Services.AttendanceService, leaves *Services.LeaveService, uploader Sync.Uploader, schedule string, runImmediately bool) *SyncJob {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &SyncJob{
		cronScheduler:  cron.New(cron.WithSeconds()),
		schedule:       schedule,
		runImmediately: runImmediately,
		timeout:        2 * time.Minute,
		attendance:     attendance,
		leaves:         leaves,
		uploader:       uploader,
		now:            time.Now,
	}
}

// Start schedules the job and starts the scheduler.
func (s *SyncJob) Start() error {
	var err error
	s.jobID, err = s.cronScheduler.AddFunc(s.schedule, s.scheduledRun)
	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	s.cronScheduler.Start()
	log.Printf("Sync scheduler started with schedule %q\n", s.schedule)

	if s.runImmediately {
		go s.scheduledRun()
	}
	return nil
}

// Stop terminates the scheduler and waits for a running upload to finish.
func (s *SyncJob) Stop() {
	if s.cronScheduler != nil {
		<-s.cronScheduler.Stop().Done()
		log.Println("Sync scheduler stopped")
	}
}

// UpdateSchedule changes the schedule of the job.
// Format: "0 */15 * * * *" = every 15 minutes, or a descriptor such as "@hourly".
func (s *SyncJob) UpdateSchedule(schedule string) error {
	id, err := s.cronScheduler.AddFunc(schedule, s.scheduledRun)
	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}
	s.cronScheduler.Remove(s.jobID)
	s.jobID = id
	s.schedule = schedule

	log.Printf("Sync schedule updated to: %s\n", schedule)
	return nil
}

// Schedule returns the active cron expression.
func (s *SyncJob) Schedule() string {
	return s.schedule
}

// Next returns when the job runs next; zero when the scheduler is not running.
func (s *SyncJob) Next() time.Time {
	return s.cronScheduler.Entry(s.jobID).Next
}

// LastResult returns the outcome of the last completed run, if any.
func (s *SyncJob) LastResult() *SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	r := *s.last
	return &r
}

// RunNow uploads everything pending. Attendance and leaves are uploaded
// independently; a failure in one does not stop the other.
func (s *SyncJob) RunNow(ctx context.Context) (SyncResult, error) {
	if !s.running.TryLock() {
		return SyncResult{}, ErrSyncInProgress
	}
	defer s.running.Unlock()

	var result SyncResult
	var errs []error

	if n, err := s.uploadAttendance(ctx); err != nil {
		errs = append(errs, fmt.Errorf("attendance: %w", err))
	} else {
		result.Attendance = n
	}

	if n, err := s.uploadLeaves(ctx); err != nil {
		errs = append(errs, fmt.Errorf("leaves: %w", err))
	} else {
		result.Leaves = n
	}

	result.FinishedAt = s.now()
	s.mu.Lock()
	s.last = &result
	s.mu.Unlock()

	return result, errors.Join(errs...)
}

func (s *SyncJob) scheduledRun() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.RunNow(ctx)
	if errors.Is(err, ErrSyncInProgress) {
		log.Println("Skipping scheduled sync: previous run still in progress")
		return
	}
	if err != nil {
		log.Printf("Error in sync run: %v\n", err)
	}
	if result.Attendance > 0 || result.Leaves > 0 {
		log.Printf("Uploaded %d attendance marks and %d leaves\n", result.Attendance, result.Leaves)
	}
}

func (s *SyncJob) uploadAttendance(ctx context.Context) (int, error) {
	pending, err := s.attendance.PendingUpload(ctx)
	if err != nil || len(pending) == 0 {
		return 0, err
	}
	if err := s.uploader.UploadAttendance(ctx, pending); err != nil {
		return 0, err
	}

	// records changed while the batch was in flight stay pending
	n, err := s.attendance.MarkUploaded(ctx, pending, s.now())
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SyncJob) uploadLeaves(ctx context.Context) (int, error) {
	pending, err := s.leaves.PendingUpload(ctx)
	if err != nil || len(pending) == 0 {
		return 0, err
	}
	if err := s.uploader.UploadLeaves(ctx, pending); err != nil {
		return 0, err
	}

	// records changed while the batch was in flight stay pending
	n, err := s.leaves.MarkUploaded(ctx, pending, s.now())
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
