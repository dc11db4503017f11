package Models

import (
	"time"

	"gorm.io/gorm"
)

// Syncable records are uploaded to the server. Every change moves the record
// to a new revision and queues it again; an upload only confirms the
// revision it carried.
type Syncable interface {
	RecordRevision() int64
	Touch(revision int64)
}

// Attendance is a single check-in, check-out, leave or work-from-home mark.
type Attendance struct {
	ID                 string             `json:"id" gorm:"primaryKey;type:varchar(64)" validate:"required,max=64"`
	Timestamp          time.Time          `json:"timestamp" gorm:"index;not null" validate:"required,notfuture"`
	Type               AttendanceType     `json:"type" gorm:"type:varchar(20);not null" validate:"required,enum"`
	Latitude           *float64           `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude          *float64           `json:"longitude,omitempty" validate:"omitempty,longitude"`
	DeviceID           string             `json:"device_id,omitempty" gorm:"type:varchar(128)"`
	VerificationMethod VerificationMethod `json:"verification_method,omitempty" gorm:"type:varchar(20)" validate:"omitempty,enum"`
	UploadStatus       UploadStatus       `json:"upload_status,omitempty" gorm:"type:varchar(20);index" validate:"omitempty,enum"`
	UploadedAt         *time.Time         `json:"uploaded_at,omitempty"`
	Revision           int64              `json:"revision" gorm:"not null;default:0"`
}

func (Attendance) TableName() string { return "attendances" }

func (a Attendance) RecordID() string { return a.ID }

func (a Attendance) RecordRevision() int64 { return a.Revision }

// Touch moves the mark to revision and queues it for upload again.
func (a *Attendance) Touch(revision int64) {
	a.Revision = revision
	a.UploadStatus = UploadPending
	a.UploadedAt = nil
}

// HasLocation reports whether both coordinates were captured.
func (a Attendance) HasLocation() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// BeforeCreate marks new records as waiting for upload.
func (a *Attendance) BeforeCreate(tx *gorm.DB) error {
	if a.UploadStatus == "" {
		a.UploadStatus = UploadPending
	}
	return nil
}

// BeforeSave stores timestamps in UTC so range queries compare like with like.
func (a *Attendance) BeforeSave(tx *gorm.DB) error {
	a.Timestamp = a.Timestamp.UTC()
	a.UploadedAt = utcPtr(a.UploadedAt)
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
