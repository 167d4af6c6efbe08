package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")
)

// Entity errors
var (
	ErrContactNotFound      = errors.New("contact not found")
	ErrContactAlreadyLinked = errors.New("contact has already been promoted")
	ErrRequestNotFound      = errors.New("request not found")
	ErrNoteNotFound         = errors.New("note not found")
	ErrFollowUpNotFound     = errors.New("follow-up not found")
	ErrAttachmentNotFound   = errors.New("attachment not found")
	ErrFileTooLarge         = errors.New("file exceeds the maximum upload size")
	ErrCompanyNotFound      = errors.New("company not found")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrCaseNotFound         = errors.New("case not found")
	ErrChecklistItemMissing = errors.New("checklist item not found")
	ErrChecklistIncomplete  = errors.New("required checklist items are incomplete")
	ErrCaseNotWon           = errors.New("case must be won before an order can be created")
	ErrCaseHasOrder         = errors.New("case already has an order")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidStage         = errors.New("invalid stage for order type")
	ErrNoNextStage          = errors.New("order is already at its last stage")
	ErrStepNotFound         = errors.New("production step not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationClosed   = errors.New("conversation is closed")
	ErrAuditLogNotFound     = errors.New("audit log not found")
)

// Sync, settings and maintenance errors
var (
	ErrAlreadyLinked          = errors.New("record is already linked")
	ErrMergeSelf              = errors.New("primary record cannot be merged into itself")
	ErrUnknownSettingsKey     = errors.New("unknown settings key")
	ErrInvalidSettingsPayload = errors.New("settings payload must be a JSON object")
	ErrInvalidConfirmation    = errors.New("confirmation phrase does not match")
	ErrMessagingNotConfigured = errors.New("messaging integration is not configured")
)
