package domain

import (
	"time"

	"github.com/google/uuid"
)

// DTOs for API responses. Timestamps are ISO 8601 strings in UTC.

// CursorPage is a page of results addressed by the id of the last item
type CursorPage struct {
	Data       interface{} `json:"data"`
	NextCursor string      `json:"nextCursor,omitempty"`
	HasMore    bool        `json:"hasMore"`
}

type ContactDTO struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email,omitempty"`
	Phone     string        `json:"phone,omitempty"`
	Company   string        `json:"company,omitempty"`
	Service   string        `json:"service,omitempty"`
	Product   string        `json:"product,omitempty"`
	Message   string        `json:"message,omitempty"`
	Status    ContactStatus `json:"status"`
	Priority  Priority      `json:"priority"`
	Source    string        `json:"source,omitempty"`
	RequestID *uuid.UUID    `json:"requestId,omitempty"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt"`
}

type RequestDTO struct {
	ID             uuid.UUID         `json:"id"`
	RequestNumber  string            `json:"requestNumber"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Requirements   string            `json:"requirements,omitempty"`
	Category       RequestCategory   `json:"category"`
	Status         RequestStatus     `json:"status"`
	Priority       Priority          `json:"priority"`
	Source         string            `json:"source,omitempty"`
	CompanyID      *uuid.UUID        `json:"companyId,omitempty"`
	CompanyName    string            `json:"companyName,omitempty"`
	ContactID      *uuid.UUID        `json:"contactId,omitempty"`
	ContactName    string            `json:"contactName,omitempty"`
	ContactEmail   string            `json:"contactEmail,omitempty"`
	ContactPhone   string            `json:"contactPhone,omitempty"`
	EstimatedValue float64           `json:"estimatedValue"`
	ActualValue    float64           `json:"actualValue"`
	Currency       string            `json:"currency"`
	AssignedTo     string            `json:"assignedTo,omitempty"`
	Notes          []RequestNote     `json:"notes"`
	FollowUps      []RequestFollowUp `json:"followUps"`
	CreatedAt      string            `json:"createdAt"`
	UpdatedAt      string            `json:"updatedAt"`
}

type AttachmentDTO struct {
	ID          uuid.UUID `json:"id"`
	RequestID   uuid.UUID `json:"requestId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedBy  string    `json:"uploadedBy,omitempty"`
	CreatedAt   string    `json:"createdAt"`
}

type CompanyDTO struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email,omitempty"`
	Phone      string        `json:"phone,omitempty"`
	Website    string        `json:"website,omitempty"`
	Address    string        `json:"address,omitempty"`
	City       string        `json:"city,omitempty"`
	Country    string        `json:"country,omitempty"`
	Industry   string        `json:"industry,omitempty"`
	Type       CompanyType   `json:"type"`
	Status     CompanyStatus `json:"status"`
	Priority   Priority      `json:"priority"`
	Tags       []string      `json:"tags"`
	Stats      EntityStats   `json:"stats"`
	Notes      string        `json:"notes,omitempty"`
	Source     string        `json:"source,omitempty"`
	CustomerID *uuid.UUID    `json:"customerId,omitempty"`
	CreatedAt  string        `json:"createdAt"`
	UpdatedAt  string        `json:"updatedAt"`
}

type CustomerDTO struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	CompanyName   string         `json:"companyName,omitempty"`
	Email         string         `json:"email,omitempty"`
	Phone         string         `json:"phone,omitempty"`
	Type          CustomerType   `json:"type"`
	Status        CustomerStatus `json:"status"`
	Priority      Priority       `json:"priority"`
	Source        string         `json:"source,omitempty"`
	Tags          []string       `json:"tags"`
	Stats         EntityStats    `json:"stats"`
	LastContactAt string         `json:"lastContactAt,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	CompanyID     *uuid.UUID     `json:"companyId,omitempty"`
	CreatedAt     string         `json:"createdAt"`
	UpdatedAt     string         `json:"updatedAt"`
}

type CaseDTO struct {
	ID              uuid.UUID       `json:"id"`
	CustomerID      uuid.UUID       `json:"customerId"`
	CustomerName    string          `json:"customerName,omitempty"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Type            CaseType        `json:"type"`
	Status          CaseStatus      `json:"status"`
	Phase           CasePhase       `json:"phase"`
	StatusChangedAt string          `json:"statusChangedAt"`
	Financials      CaseFinancials  `json:"financials"`
	Checklist       []ChecklistItem `json:"checklist"`
	AssignedTo      string          `json:"assignedTo,omitempty"`
	OrderID         *uuid.UUID      `json:"orderId,omitempty"`
	LostReason      string          `json:"lostReason,omitempty"`
	SLA             *SLAEvaluation  `json:"sla,omitempty"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
}

type OrderDTO struct {
	ID            uuid.UUID     `json:"id"`
	OrderNumber   string        `json:"orderNumber"`
	Type          OrderType     `json:"type"`
	CaseID        *uuid.UUID    `json:"caseId,omitempty"`
	CustomerID    uuid.UUID     `json:"customerId"`
	CustomerName  string        `json:"customerName,omitempty"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	TotalAmount   float64       `json:"totalAmount"`
	PaidAmount    float64       `json:"paidAmount"`
	Currency      string        `json:"currency"`
	Stage         string        `json:"stage,omitempty"`
	Stages        []string      `json:"stages"`
	Progress      int           `json:"progress"`
	Details       OrderDetails  `json:"details"`
	DueDate       string        `json:"dueDate,omitempty"`
	CreatedAt     string        `json:"createdAt"`
	UpdatedAt     string        `json:"updatedAt"`
}

type ConversationDTO struct {
	ID            uuid.UUID           `json:"id"`
	CustomerID    uuid.UUID           `json:"customerId"`
	Channel       ConversationChannel `json:"channel"`
	Subject       string              `json:"subject,omitempty"`
	Status        ConversationStatus  `json:"status"`
	MessageCount  int                 `json:"messageCount"`
	UnreadCount   int                 `json:"unreadCount"`
	LastMessageAt string              `json:"lastMessageAt,omitempty"`
	CreatedAt     string              `json:"createdAt"`
	UpdatedAt     string              `json:"updatedAt"`
}

type MessageDTO struct {
	ID             uuid.UUID        `json:"id"`
	ConversationID uuid.UUID        `json:"conversationId"`
	Direction      MessageDirection `json:"direction"`
	Body           string           `json:"body"`
	Sender         string           `json:"sender,omitempty"`
	SentAt         string           `json:"sentAt"`
	ReadAt         string           `json:"readAt,omitempty"`
}

type AuditLogDTO struct {
	ID         uuid.UUID   `json:"id"`
	UserID     string      `json:"userId,omitempty"`
	UserName   string      `json:"userName,omitempty"`
	Action     AuditAction `json:"action"`
	EntityType string      `json:"entityType"`
	EntityID   *uuid.UUID  `json:"entityId,omitempty"`
	Method     string      `json:"method"`
	Path       string      `json:"path"`
	StatusCode int         `json:"statusCode"`
	Changes    string      `json:"changes,omitempty"`
	CreatedAt  string      `json:"createdAt"`
}

// ============================================================================
// Promotion
// ============================================================================

// RequestDraft is the request a contact would be promoted into
type RequestDraft struct {
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Requirements      string            `json:"requirements"`
	Category          RequestCategory   `json:"category"`
	AmbiguousCategory bool              `json:"ambiguousCategory"`
	MatchedCategories []RequestCategory `json:"matchedCategories,omitempty"`
	Priority          Priority          `json:"priority"`
}

// PromotionPreview is shown to the operator before promotion is confirmed
type PromotionPreview struct {
	Contact         ContactDTO   `json:"contact"`
	MatchedCompany  *CompanyDTO  `json:"matchedCompany,omitempty"`
	NeedsNewCompany bool         `json:"needsNewCompany"`
	Draft           RequestDraft `json:"draft"`
}

// PromotionResult is returned after a successful promotion
type PromotionResult struct {
	Request        RequestDTO  `json:"request"`
	Contact        ContactDTO  `json:"contact"`
	Company        *CompanyDTO `json:"company,omitempty"`
	CompanyCreated bool        `json:"companyCreated"`
}

// ============================================================================
// Bulk operations and sync
// ============================================================================

// BulkError describes one failed item of a bulk operation
type BulkError struct {
	ID    string `json:"id,omitempty"`
	Row   int    `json:"row,omitempty"`
	Error string `json:"error"`
}

// BulkResult is the skip-and-count tally of a bulk operation
type BulkResult struct {
	Processed int         `json:"processed"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Errors    []BulkError `json:"errors,omitempty"`
}

// SyncOutcome is the result of syncing one record
type SyncOutcome string

const (
	SyncOutcomeSkipped SyncOutcome = "skipped"
	SyncOutcomeLinked  SyncOutcome = "linked"
	SyncOutcomeCreated SyncOutcome = "created"
)

// SyncResult is returned when syncing a single record
type SyncResult struct {
	Outcome    SyncOutcome `json:"outcome"`
	CompanyID  uuid.UUID   `json:"companyId"`
	CustomerID uuid.UUID   `json:"customerId"`
}

// SyncPhaseResult tallies one phase of a bidirectional sync
type SyncPhaseResult struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Linked    int `json:"linked"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// BidirectionalSyncResult is the report of a full sync run
type BidirectionalSyncResult struct {
	CompaniesToCustomers SyncPhaseResult `json:"companiesToCustomers"`
	CustomersToCompanies SyncPhaseResult `json:"customersToCompanies"`
	Errors               []BulkError     `json:"errors,omitempty"`
	StartedAt            time.Time       `json:"startedAt"`
	FinishedAt           time.Time       `json:"finishedAt"`
}

// DuplicateGroup is a set of records that look like the same entity
type DuplicateGroup struct {
	Key    string      `json:"key"`
	Reason string      `json:"reason"`
	IDs    []uuid.UUID `json:"ids"`
	Names  []string    `json:"names"`
}

// MergeResult reports what a merge changed
type MergeResult struct {
	PrimaryID      uuid.UUID `json:"primaryId"`
	MergedCount    int       `json:"mergedCount"`
	ReassignedRows int64     `json:"reassignedRows"`
}

// RecalculateResult reports a counter repair run
type RecalculateResult struct {
	Checked int `json:"checked"`
	Fixed   int `json:"fixed"`
}

// ResetResult reports rows removed by a data reset
type ResetResult struct {
	Deleted map[string]int64 `json:"deleted"`
}

// Reminder is a due reminder produced by evaluating reminder rules
type Reminder struct {
	RuleID     string          `json:"ruleId"`
	Trigger    ReminderTrigger `json:"trigger"`
	Channel    string          `json:"channel"`
	EntityType string          `json:"entityType"`
	EntityID   uuid.UUID       `json:"entityId"`
	Title      string          `json:"title"`
	Since      time.Time       `json:"since"`
}

// ============================================================================
// Messaging integration
// ============================================================================

// MessagingResponse is the envelope of every messaging-settings route
type MessagingResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SequenceStatus is one row of the number sequence table
type SequenceStatus struct {
	Scope        string `json:"scope"`
	Year         int    `json:"year"`
	LastSequence int    `json:"lastSequence"`
	UpdatedAt    string `json:"updatedAt"`
}

// SequenceOverview reports sequence positions and the numbers that will be
// issued next
type SequenceOverview struct {
	Sequences         []SequenceStatus `json:"sequences"`
	NextRequestNumber string           `json:"nextRequestNumber"`
	NextOrderNumber   string           `json:"nextOrderNumber"`
}
