package Models

import (
	"fmt"
	"time"
)

// enumTable is the one list of members for a string enum. Parsing,
// validation and the listing helpers all read from it.
type enumTable[T ~string] struct {
	name    string
	members []T
}

func (e enumTable[T]) contains(v T) bool {
	for _, m := range e.members {
		if m == v {
			return true
		}
	}
	return false
}

// parse accepts the empty string as the zero value so optional fields can be
// left out; "required" is enforced by the validator.
func (e enumTable[T]) parse(s string) (T, error) {
	v := T(s)
	if s == "" || e.contains(v) {
		return v, nil
	}
	return v, fmt.Errorf("unknown %s %q", e.name, s)
}

func (e enumTable[T]) list() []T {
	out := make([]T, len(e.members))
	copy(out, e.members)
	return out
}

// Enum is implemented by every string enum in this package.
type Enum interface {
	Valid() bool
}

type AttendanceType string

const (
	AttendanceCheckIn      AttendanceType = "check_in"
	AttendanceCheckOut     AttendanceType = "check_out"
	AttendanceLeave        AttendanceType = "leave"
	AttendanceWorkFromHome AttendanceType = "work_from_home"
)

var attendanceTypes = enumTable[AttendanceType]{
	name:    "attendance type",
	members: []AttendanceType{AttendanceCheckIn, AttendanceCheckOut, AttendanceLeave, AttendanceWorkFromHome},
}

func (t AttendanceType) Valid() bool { return attendanceTypes.contains(t) }

func (t *AttendanceType) UnmarshalText(b []byte) error {
	v, err := attendanceTypes.parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func ParseAttendanceType(s string) (AttendanceType, error) { return attendanceTypes.parse(s) }

func AttendanceTypes() []AttendanceType { return attendanceTypes.list() }

type VerificationMethod string

const (
	VerificationGeolocation VerificationMethod = "geolocation"
	VerificationFace        VerificationMethod = "face"
	VerificationQR          VerificationMethod = "qr"
	VerificationFingerprint VerificationMethod = "fingerprint"
)

var verificationMethods = enumTable[VerificationMethod]{
	name:    "verification method",
	members: []VerificationMethod{VerificationGeolocation, VerificationFace, VerificationQR, VerificationFingerprint},
}

func (m VerificationMethod) Valid() bool { return verificationMethods.contains(m) }

func (m *VerificationMethod) UnmarshalText(b []byte) error {
	v, err := verificationMethods.parse(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func ParseVerificationMethod(s string) (VerificationMethod, error) {
	return verificationMethods.parse(s)
}

type UploadStatus string

const (
	UploadPending  UploadStatus = "pending"
	UploadUploaded UploadStatus = "uploaded"
)

var uploadStatuses = enumTable[UploadStatus]{
	name:    "upload status",
	members: []UploadStatus{UploadPending, UploadUploaded},
}

func (s UploadStatus) Valid() bool { return uploadStatuses.contains(s) }

func (s *UploadStatus) UnmarshalText(b []byte) error {
	v, err := uploadStatuses.parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
)

var leaveStatuses = enumTable[LeaveStatus]{
	name:    "leave status",
	members: []LeaveStatus{LeavePending, LeaveApproved},
}

func (s LeaveStatus) Valid() bool { return leaveStatuses.contains(s) }

func (s *LeaveStatus) UnmarshalText(b []byte) error {
	v, err := leaveStatuses.parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Criterion is the recurrence period a leave allowance resets on.
type Criterion string

const (
	CriterionWeekly      Criterion = "weekly"
	CriterionFortnightly Criterion = "fortnightly"
	CriterionMonthly     Criterion = "monthly"
	CriterionQuarterly   Criterion = "quarterly"
	CriterionHalfYearly  Criterion = "half_yearly"
	CriterionYearly      Criterion = "yearly"
)

var criteria = enumTable[Criterion]{
	name: "criterion",
	members: []Criterion{
		CriterionWeekly, CriterionFortnightly, CriterionMonthly,
		CriterionQuarterly, CriterionHalfYearly, CriterionYearly,
	},
}

func (c Criterion) Valid() bool { return criteria.contains(c) }

func (c *Criterion) UnmarshalText(b []byte) error {
	v, err := criteria.parse(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func ParseCriterion(s string) (Criterion, error) { return criteria.parse(s) }

func Criteria() []Criterion { return criteria.list() }

// PeriodStart returns midnight of the first day of the allowance window that
// contains t, in t's location. Weeks start on Monday; fortnights are the 14
// days ending on t's day.
func (c Criterion) PeriodStart(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch c {
	case CriterionWeekly:
		offset := (int(t.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case CriterionFortnightly:
		return day.AddDate(0, 0, -13)
	case CriterionMonthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case CriterionQuarterly:
		first := time.Month((int(m)-1)/3*3 + 1)
		return time.Date(y, first, 1, 0, 0, 0, 0, loc)
	case CriterionHalfYearly:
		if m >= time.July {
			return time.Date(y, time.July, 1, 0, 0, 0, 0, loc)
		}
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	case CriterionYearly:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	}
	return day
}
