package Models

import (
	"time"

	"gorm.io/gorm"
)

// LeaveType is a leave policy: how many days may be taken per recurrence period.
type LeaveType struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)" validate:"required,max=64"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	MaxDays   int       `json:"max_days" gorm:"not null" validate:"gt=0"`
	Criterion Criterion `json:"criterion" gorm:"type:varchar(20);not null" validate:"required,enum"`
}

func (LeaveType) TableName() string { return "leave_types" }

func (t LeaveType) RecordID() string { return t.ID }

// Leave is a leave request. The policy is stored as a copy so later edits to
// the leave type do not rewrite history.
type Leave struct {
	ID           string       `json:"id" gorm:"primaryKey;type:varchar(64)" validate:"required,max=64"`
	LeaveType    LeaveType    `json:"leave_type" gorm:"serializer:json;type:text"`
	Remark       string       `json:"remark,omitempty" validate:"max=500"`
	ApprovedBy   string       `json:"approved_by,omitempty" gorm:"type:varchar(100)"`
	ApprovedAt   *time.Time   `json:"approved_at,omitempty"`
	Status       LeaveStatus  `json:"status" gorm:"type:varchar(20);not null" validate:"required,enum"`
	AppliedAt    time.Time    `json:"applied_at" gorm:"index;not null" validate:"required,notfuture"`
	DeviceID     string       `json:"device_id,omitempty" gorm:"type:varchar(128)"`
	UploadStatus UploadStatus `json:"upload_status,omitempty" gorm:"type:varchar(20);index" validate:"omitempty,enum"`
	UploadedAt   *time.Time   `json:"uploaded_at,omitempty"`
	Revision     int64        `json:"revision" gorm:"not null;default:0"`
}

func (Leave) TableName() string { return "leaves" }

func (l Leave) RecordID() string { return l.ID }

func (l Leave) RecordRevision() int64 { return l.Revision }

// Touch moves the leave to revision and queues it for upload again.
func (l *Leave) Touch(revision int64) {
	l.Revision = revision
	l.UploadStatus = UploadPending
	l.UploadedAt = nil
}

func (l *Leave) BeforeCreate(tx *gorm.DB) error {
	if l.UploadStatus == "" {
		l.UploadStatus = UploadPending
	}
	if l.Status == "" {
		l.Status = LeavePending
	}
	return nil
}

func (l *Leave) BeforeSave(tx *gorm.DB) error {
	l.AppliedAt = l.AppliedAt.UTC()
	l.ApprovedAt = utcPtr(l.ApprovedAt)
	l.UploadedAt = utcPtr(l.UploadedAt)
	return nil
}
