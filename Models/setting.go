package Models

import (
	"time"

	"gorm.io/datatypes"
)

// Well known setting keys.
const (
	SettingProfile  = "profile"
	SettingPINHash  = "security.pin_hash"
	SettingFCMToken = "notifications.fcm_token"
)

// Setting is one entry of the key-value settings collection.
type Setting struct {
	Key       string         `json:"key" gorm:"primaryKey;type:varchar(100)"`
	Value     datatypes.JSON `json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Setting) TableName() string { return "settings" }

// Profile holds the employee details shown on the profile screen.
type Profile struct {
	EmployeeID string `json:"employee_id" validate:"max=64"`
	FullName   string `json:"full_name" validate:"required,max=100"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Department string `json:"department,omitempty" validate:"max=100"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,e164"`
}
