package Services

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateID       = errors.New("a record with this id already exists")
	ErrIDMismatch        = errors.New("record id does not match the target id")
	ErrEmptyID           = errors.New("record id is empty")
	ErrAllowanceExceeded = errors.New("leave allowance for the current period is used up")
	ErrAlreadyApproved   = errors.New("leave is already approved")
	ErrClosed            = errors.New("service is closed")
)
