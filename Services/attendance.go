package Services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"Attendance/Models"

	"gorm.io/gorm"
)

// AttendanceService is the attendance collection facade. Watch subscribers
// receive the full list, newest first.
type AttendanceService struct {
	*collection[Models.Attendance]
	now   func() time.Time
	newID func() string
}

func NewAttendanceService(db *gorm.DB, opts ...Option) *AttendanceService {
	o := buildOptions(opts)
	return &AttendanceService{
		collection: newCollection[Models.Attendance]("attendance", "timestamp DESC, id DESC", db, o.validator()),
		now:        o.now,
		newID:      o.newID,
	}
}

// RecordOptions carries the optional details captured with a mark.
type RecordOptions struct {
	Latitude           *float64                  `json:"latitude,omitempty"`
	Longitude          *float64                  `json:"longitude,omitempty"`
	DeviceID           string                    `json:"device_id,omitempty"`
	VerificationMethod Models.VerificationMethod `json:"verification_method,omitempty"`
}

// Record creates a mark of the given type stamped with the current time.
func (s *AttendanceService) Record(ctx context.Context, typ Models.AttendanceType, opts RecordOptions) (*Models.Attendance, error) {
	a := Models.Attendance{
		ID:                 s.newID(),
		Timestamp:          s.now(),
		Type:               typ,
		Latitude:           opts.Latitude,
		Longitude:          opts.Longitude,
		DeviceID:           opts.DeviceID,
		VerificationMethod: opts.VerificationMethod,
	}
	if err := s.Create(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AttendanceService) CheckIn(ctx context.Context, opts RecordOptions) (*Models.Attendance, error) {
	return s.Record(ctx, Models.AttendanceCheckIn, opts)
}

func (s *AttendanceService) CheckOut(ctx context.Context, opts RecordOptions) (*Models.Attendance, error) {
	return s.Record(ctx, Models.AttendanceCheckOut, opts)
}

// ListBetween returns marks with from <= timestamp < to, oldest first.
func (s *AttendanceService) ListBetween(ctx context.Context, from, to time.Time) ([]Models.Attendance, error) {
	recs := []Models.Attendance{}
	err := s.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", from.UTC(), to.UTC()).
		Order("timestamp ASC, id ASC").
		Find(&recs).Error
	if err != nil {
		log.Printf("Error listing attendance between %s and %s: %v\n", from, to, err)
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return recs, nil
}

// PendingUpload returns the marks that still need to reach the server.
func (s *AttendanceService) PendingUpload(ctx context.Context) ([]Models.Attendance, error) {
	return s.pendingUpload(ctx, "timestamp")
}

// MarkUploaded confirms an upload of recs and returns how many were marked.
// Records changed after recs were read are not marked.
func (s *AttendanceService) MarkUploaded(ctx context.Context, recs []Models.Attendance, at time.Time) (int64, error) {
	return s.markUploaded(ctx, recs, at)
}

// DaySummary folds one calendar day of marks.
type DaySummary struct {
	Date          string     `json:"date"`
	FirstCheckIn  *time.Time `json:"first_check_in,omitempty"`
	LastCheckOut  *time.Time `json:"last_check_out,omitempty"`
	WorkedMinutes int64      `json:"worked_minutes"`
	OnLeave       bool       `json:"on_leave"`
	WorkFromHome  bool       `json:"work_from_home"`
	Marks         int        `json:"marks"`
}

// DailySummary groups marks in [from, to) by calendar day in from's location.
// Worked time runs from the first check-in to the last check-out of the day.
func (s *AttendanceService) DailySummary(ctx context.Context, from, to time.Time) ([]DaySummary, error) {
	recs, err := s.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return Summarize(recs, from.Location()), nil
}

// Summarize folds marks into one DaySummary per calendar day in loc, ordered
// by date.
func Summarize(recs []Models.Attendance, loc *time.Location) []DaySummary {
	days := make(map[string]*DaySummary)
	for _, rec := range recs {
		ts := rec.Timestamp.In(loc)
		key := ts.Format("2006-01-02")
		day, ok := days[key]
		if !ok {
			day = &DaySummary{Date: key}
			days[key] = day
		}
		day.Marks++

		switch rec.Type {
		case Models.AttendanceCheckIn:
			if day.FirstCheckIn == nil || ts.Before(*day.FirstCheckIn) {
				day.FirstCheckIn = &ts
			}
		case Models.AttendanceCheckOut:
			if day.LastCheckOut == nil || ts.After(*day.LastCheckOut) {
				day.LastCheckOut = &ts
			}
		case Models.AttendanceLeave:
			day.OnLeave = true
		case Models.AttendanceWorkFromHome:
			day.WorkFromHome = true
		}
	}

	out := make([]DaySummary, 0, len(days))
	for _, day := range days {
		if day.FirstCheckIn != nil && day.LastCheckOut != nil && day.LastCheckOut.After(*day.FirstCheckIn) {
			day.WorkedMinutes = int64(day.LastCheckOut.Sub(*day.FirstCheckIn) / time.Minute)
		}
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
