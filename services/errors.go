package services

import "errors"

var (
	// Client import
	ErrMissingRequiredFields = errors.New("missing required fields")
	ErrDuplicateEmail        = errors.New("a client with this email already exists")
	ErrInvalidClientDate     = errors.New("invalid date")
	ErrEmptyCSV              = errors.New("CSV file has no header row")
	ErrUnreadableCSV         = errors.New("CSV file could not be parsed")

	// Workflow timeline
	ErrInvalidTimeline = errors.New("invalid timeline")

	// Reminders
	ErrReminderDisabled = errors.New("reminder delivery is not configured")
)
