package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns a random UUID when the caller did not set one.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Priority is shared by contacts, requests, companies and customers
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid reports whether p is one of the known priorities
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// EntityStats holds denormalized counters kept on companies and customers
type EntityStats struct {
	TotalConversations int     `gorm:"not null;default:0" json:"totalConversations"`
	TotalCases         int     `gorm:"not null;default:0" json:"totalCases"`
	TotalValue         float64 `gorm:"type:decimal(15,2);not null;default:0" json:"totalValue"`
	WonCases           int     `gorm:"not null;default:0" json:"wonCases"`
	LostCases          int     `gorm:"not null;default:0" json:"lostCases"`
}

// ============================================================================
// Contact
// ============================================================================

// ContactStatus represents the handling state of an inbound contact form submission
type ContactStatus string

const (
	ContactStatusNew        ContactStatus = "new"
	ContactStatusInProgress ContactStatus = "in_progress"
	ContactStatusResponded  ContactStatus = "responded"
	ContactStatusClosed     ContactStatus = "closed"
)

// IsValid reports whether s is a known contact status
func (s ContactStatus) IsValid() bool {
	switch s {
	case ContactStatusNew, ContactStatusInProgress, ContactStatusResponded, ContactStatusClosed:
		return true
	}
	return false
}

// Contact is a raw submission from the public contact form
type Contact struct {
	BaseModel
	Name      string        `gorm:"type:varchar(200);not null"`
	Email     string        `gorm:"type:varchar(255);index"`
	Phone     string        `gorm:"type:varchar(50)"`
	Company   string        `gorm:"type:varchar(200)"`
	Service   string        `gorm:"type:varchar(500)"`
	Product   string        `gorm:"type:varchar(500)"`
	Message   string        `gorm:"type:text"`
	Status    ContactStatus `gorm:"type:varchar(50);not null;default:'new';index"`
	Priority  Priority      `gorm:"type:varchar(50);not null;default:'normal'"`
	Source    string        `gorm:"type:varchar(100)"`
	RequestID *uuid.UUID    `gorm:"type:uuid;column:request_id"`
}

// ============================================================================
// Request
// ============================================================================

// RequestStatus is the lifecycle state of a sales request. Any status may be
// set from any other status.
type RequestStatus string

const (
	RequestStatusNew           RequestStatus = "new"
	RequestStatusAssigned      RequestStatus = "assigned"
	RequestStatusInProgress    RequestStatus = "in_progress"
	RequestStatusWaitingClient RequestStatus = "waiting_client"
	RequestStatusQuotationSent RequestStatus = "quotation_sent"
	RequestStatusApproved      RequestStatus = "approved"
	RequestStatusRejected      RequestStatus = "rejected"
	RequestStatusCompleted     RequestStatus = "completed"
	RequestStatusCancelled     RequestStatus = "cancelled"
)

// AllRequestStatuses lists request statuses in pipeline order
var AllRequestStatuses = []RequestStatus{
	RequestStatusNew,
	RequestStatusAssigned,
	RequestStatusInProgress,
	RequestStatusWaitingClient,
	RequestStatusQuotationSent,
	RequestStatusApproved,
	RequestStatusRejected,
	RequestStatusCompleted,
	RequestStatusCancelled,
}

// IsValid reports whether s is a known request status
func (s RequestStatus) IsValid() bool {
	for _, v := range AllRequestStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsClosed reports whether the request has reached a terminal status
func (s RequestStatus) IsClosed() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled || s == RequestStatusRejected
}

// RequestCategory is one of the fixed business lines a request belongs to
type RequestCategory string

const (
	CategoryCosmeticManufacturing   RequestCategory = "cosmetic_manufacturing"
	CategorySupplementManufacturing RequestCategory = "supplement_manufacturing"
	CategoryCleaningManufacturing   RequestCategory = "cleaning_manufacturing"
	CategoryPackagingSupply         RequestCategory = "packaging_supply"
	CategoryEcommerceOperations     RequestCategory = "ecommerce_operations"
	CategoryDigitalMarketing        RequestCategory = "digital_marketing"
	CategoryFormulationDevelopment  RequestCategory = "formulation_development"
	CategoryConsultation            RequestCategory = "consultation"
)

// AllRequestCategories lists every category
var AllRequestCategories = []RequestCategory{
	CategoryCosmeticManufacturing,
	CategorySupplementManufacturing,
	CategoryCleaningManufacturing,
	CategoryPackagingSupply,
	CategoryEcommerceOperations,
	CategoryDigitalMarketing,
	CategoryFormulationDevelopment,
	CategoryConsultation,
}

// IsValid reports whether c is a known category
func (c RequestCategory) IsValid() bool {
	for _, v := range AllRequestCategories {
		if v == c {
			return true
		}
	}
	return false
}

// FollowUpType is the kind of scheduled follow-up on a request
type FollowUpType string

const (
	FollowUpCall    FollowUpType = "call"
	FollowUpEmail   FollowUpType = "email"
	FollowUpMeeting FollowUpType = "meeting"
	FollowUpVisit   FollowUpType = "visit"
)

// RequestNote is a free-text note on a request. Notes are stored newest first.
type RequestNote struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// RequestFollowUp is a scheduled follow-up. Follow-ups are stored in insertion order.
type RequestFollowUp struct {
	ID          uuid.UUID    `json:"id"`
	Type        FollowUpType `json:"type"`
	Description string       `json:"description"`
	DueAt       time.Time    `json:"dueAt"`
	Completed   bool         `json:"completed"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	CreatedBy   string       `json:"createdBy"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Request is a structured sales request
type Request struct {
	BaseModel
	RequestNumber  string            `gorm:"type:varchar(50);not null;uniqueIndex;column:request_number"`
	Title          string            `gorm:"type:varchar(300);not null"`
	Description    string            `gorm:"type:text"`
	Requirements   string            `gorm:"type:text"`
	Category       RequestCategory   `gorm:"type:varchar(50);not null;index"`
	Status         RequestStatus     `gorm:"type:varchar(50);not null;default:'new';index"`
	Priority       Priority          `gorm:"type:varchar(50);not null;default:'normal'"`
	Source         string            `gorm:"type:varchar(100)"`
	CompanyID      *uuid.UUID        `gorm:"type:uuid;index;column:company_id"`
	CompanyName    string            `gorm:"type:varchar(200);column:company_name"`
	ContactID      *uuid.UUID        `gorm:"type:uuid;column:contact_id"`
	ContactName    string            `gorm:"type:varchar(200);column:contact_name"`
	ContactEmail   string            `gorm:"type:varchar(255);column:contact_email"`
	ContactPhone   string            `gorm:"type:varchar(50);column:contact_phone"`
	EstimatedValue float64           `gorm:"type:decimal(15,2);not null;default:0;column:estimated_value"`
	ActualValue    float64           `gorm:"type:decimal(15,2);not null;default:0;column:actual_value"`
	Currency       string            `gorm:"type:varchar(3);not null;default:'TRY'"`
	AssignedTo     string            `gorm:"type:varchar(200);column:assigned_to"`
	Notes          []RequestNote     `gorm:"serializer:json;type:text"`
	FollowUps      []RequestFollowUp `gorm:"serializer:json;type:text;column:follow_ups"`
}

// RequestAttachment is a file stored against a request
type RequestAttachment struct {
	BaseModel
	RequestID   uuid.UUID `gorm:"type:uuid;not null;index;column:request_id"`
	Filename    string    `gorm:"type:varchar(255);not null"`
	ContentType string    `gorm:"type:varchar(100);not null;column:content_type"`
	Size        int64     `gorm:"not null"`
	StoragePath string    `gorm:"type:varchar(500);not null;column:storage_path"`
	UploadedBy  string    `gorm:"type:varchar(200);column:uploaded_by"`
}

// ============================================================================
// Company (legacy) and Customer (CRM v2)
// ============================================================================

// CompanyType classifies a legacy company record
type CompanyType string

const (
	CompanyTypeLead     CompanyType = "lead"
	CompanyTypeProspect CompanyType = "prospect"
	CompanyTypeCustomer CompanyType = "customer"
	CompanyTypePartner  CompanyType = "partner"
	CompanyTypeSupplier CompanyType = "supplier"
)

// CompanyStatus is the activity state of a company
type CompanyStatus string

const (
	CompanyStatusActive   CompanyStatus = "active"
	CompanyStatusInactive CompanyStatus = "inactive"
)

// Company is the legacy organization record
type Company struct {
	BaseModel
	Name     string        `gorm:"type:varchar(200);not null;index"`
	Email    string        `gorm:"type:varchar(255);index"`
	Phone    string        `gorm:"type:varchar(50)"`
	Website  string        `gorm:"type:varchar(500)"`
	Address  string        `gorm:"type:varchar(500)"`
	City     string        `gorm:"type:varchar(100)"`
	Country  string        `gorm:"type:varchar(100)"`
	Industry string        `gorm:"type:varchar(100)"`
	Type     CompanyType   `gorm:"type:varchar(50);not null;default:'lead'"`
	Status   CompanyStatus `gorm:"type:varchar(50);not null;default:'active'"`
	Priority Priority      `gorm:"type:varchar(50);not null;default:'normal'"`
	Tags     []string      `gorm:"serializer:json;type:text"`
	Stats    EntityStats   `gorm:"embedded;embeddedPrefix:stats_"`
	Notes    string        `gorm:"type:text"`
	Source   string        `gorm:"type:varchar(100)"`
}

// CustomerType distinguishes people from organizations
type CustomerType string

const (
	CustomerTypeIndividual CustomerType = "individual"
	CustomerTypeBusiness   CustomerType = "business"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusLead     CustomerStatus = "lead"
	CustomerStatusProspect CustomerStatus = "prospect"
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
	CustomerStatusChurned  CustomerStatus = "churned"
)

// Customer is the CRM v2 representation of an organization or lead
type Customer struct {
	BaseModel
	Name          string         `gorm:"type:varchar(200);not null;index"`
	CompanyName   string         `gorm:"type:varchar(200);column:company_name"`
	Email         string         `gorm:"type:varchar(255);index"`
	Phone         string         `gorm:"type:varchar(50)"`
	Type          CustomerType   `gorm:"type:varchar(50);not null;default:'business'"`
	Status        CustomerStatus `gorm:"type:varchar(50);not null;default:'lead'"`
	Priority      Priority       `gorm:"type:varchar(50);not null;default:'normal'"`
	Source        string         `gorm:"type:varchar(100)"`
	Tags          []string       `gorm:"serializer:json;type:text"`
	Stats         EntityStats    `gorm:"embedded;embeddedPrefix:stats_"`
	LastContactAt *time.Time     `gorm:"column:last_contact_at"`
	Notes         string         `gorm:"type:text"`
}

// LinkMethod records how a company/customer pair was linked
type LinkMethod string

const (
	LinkMethodMatched         LinkMethod = "matched"
	LinkMethodCreatedCustomer LinkMethod = "created_customer"
	LinkMethodCreatedCompany  LinkMethod = "created_company"
	LinkMethodMerged          LinkMethod = "merged"
)

// CompanyCustomerLink pairs one company with one customer. Both foreign keys
// carry a unique index.
type CompanyCustomerLink struct {
	BaseModel
	CompanyID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex;column:company_id"`
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex;column:customer_id"`
	Method     LinkMethod `gorm:"type:varchar(50);not null"`
	LinkedBy   string     `gorm:"type:varchar(200);column:linked_by"`
}

// ============================================================================
// Case
// ============================================================================

// CaseType mirrors the kind of order a case is expected to produce
type CaseType string

const (
	CaseTypeProduction   CaseType = "production"
	CaseTypeSupply       CaseType = "supply"
	CaseTypeService      CaseType = "service"
	CaseTypeConsultation CaseType = "consultation"
)

// IsValid reports whether t is a known case type
func (t CaseType) IsValid() bool {
	switch t {
	case CaseTypeProduction, CaseTypeSupply, CaseTypeService, CaseTypeConsultation:
		return true
	}
	return false
}

// CaseStatus is the pipeline status of a case
type CaseStatus string

const (
	CaseStatusNew            CaseStatus = "new"
	CaseStatusQualifying     CaseStatus = "qualifying"
	CaseStatusQuotePreparing CaseStatus = "quote_preparing"
	CaseStatusQuoteSent      CaseStatus = "quote_sent"
	CaseStatusNegotiating    CaseStatus = "negotiating"
	CaseStatusWon            CaseStatus = "won"
	CaseStatusLost           CaseStatus = "lost"
	CaseStatusOnHold         CaseStatus = "on_hold"
)

// AllCaseStatuses lists case statuses in pipeline order
var AllCaseStatuses = []CaseStatus{
	CaseStatusNew,
	CaseStatusQualifying,
	CaseStatusQuotePreparing,
	CaseStatusQuoteSent,
	CaseStatusNegotiating,
	CaseStatusWon,
	CaseStatusLost,
	CaseStatusOnHold,
}

// IsValid reports whether s is a known case status
func (s CaseStatus) IsValid() bool {
	for _, v := range AllCaseStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsClosed reports whether the case is won or lost
func (s CaseStatus) IsClosed() bool {
	return s == CaseStatusWon || s == CaseStatusLost
}

// CaseFinancials holds quoted and final values of a case
type CaseFinancials struct {
	QuotedValue float64 `gorm:"type:decimal(15,2);not null;default:0" json:"quotedValue"`
	FinalValue  float64 `gorm:"type:decimal(15,2);not null;default:0" json:"finalValue"`
	Currency    string  `gorm:"type:varchar(3);not null;default:'TRY'" json:"currency"`
}

// ChecklistItem is a phase-scoped task on a case
type ChecklistItem struct {
	ID          uuid.UUID  `json:"id"`
	Key         string     `json:"key"`
	Label       string     `json:"label"`
	Phase       CasePhase  `json:"phase"`
	Required    bool       `json:"required"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CompletedBy string     `json:"completedBy,omitempty"`
}

// Case is a pipeline deal linked to a customer
type Case struct {
	BaseModel
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index;column:customer_id"`
	CustomerName    string          `gorm:"type:varchar(200);column:customer_name"`
	Title           string          `gorm:"type:varchar(300);not null"`
	Description     string          `gorm:"type:text"`
	Type            CaseType        `gorm:"type:varchar(50);not null"`
	Status          CaseStatus      `gorm:"type:varchar(50);not null;default:'new';index"`
	HeldFromStatus  CaseStatus      `gorm:"type:varchar(50);column:held_from_status"`
	StatusChangedAt time.Time       `gorm:"not null;column:status_changed_at"`
	Financials      CaseFinancials  `gorm:"embedded;embeddedPrefix:financials_"`
	Checklist       []ChecklistItem `gorm:"serializer:json;type:text"`
	AssignedTo      string          `gorm:"type:varchar(200);column:assigned_to"`
	OrderID         *uuid.UUID      `gorm:"type:uuid;column:order_id"`
	LostReason      string          `gorm:"type:text;column:lost_reason"`
}

// ============================================================================
// Order
// ============================================================================

// OrderType is the variant tag of an order
type OrderType string

const (
	OrderTypeProduction OrderType = "production"
	OrderTypeSupply     OrderType = "supply"
	OrderTypeService    OrderType = "service"
)

// IsValid reports whether t is a known order type
func (t OrderType) IsValid() bool {
	switch t {
	case OrderTypeProduction, OrderTypeSupply, OrderTypeService:
		return true
	}
	return false
}

// OrderStatus is the fulfilment status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus is the payment state of an order
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPartial  PaymentStatus = "partial"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ProductionStep is one step of a production run
type ProductionStep struct {
	Key         string     `json:"key"`
	Label       string     `json:"label"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ProductionInfo is the production-specific part of an order
type ProductionInfo struct {
	FormulaCode string           `json:"formulaCode,omitempty"`
	BatchSize   int              `json:"batchSize,omitempty"`
	Steps       []ProductionStep `json:"steps"`
}

// SupplyInfo is the supply-specific part of an order
type SupplyInfo struct {
	Supplier       string `json:"supplier,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

// ServiceInfo is the service-specific part of an order
type ServiceInfo struct {
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	Location    string     `json:"location,omitempty"`
}

// Order is a production, supply or service commitment
type Order struct {
	BaseModel
	OrderNumber   string          `gorm:"type:varchar(50);not null;uniqueIndex;column:order_number"`
	Type          OrderType       `gorm:"type:varchar(50);not null;index"`
	CaseID        *uuid.UUID      `gorm:"type:uuid;index;column:case_id"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index;column:customer_id"`
	CustomerName  string          `gorm:"type:varchar(200);column:customer_name"`
	Title         string          `gorm:"type:varchar(300);not null"`
	Description   string          `gorm:"type:text"`
	Status        OrderStatus     `gorm:"type:varchar(50);not null;default:'pending'"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(50);not null;default:'unpaid';column:payment_status"`
	TotalAmount   float64         `gorm:"type:decimal(15,2);not null;default:0;column:total_amount"`
	PaidAmount    float64         `gorm:"type:decimal(15,2);not null;default:0;column:paid_amount"`
	Currency      string          `gorm:"type:varchar(3);not null;default:'TRY'"`
	Stage         string          `gorm:"type:varchar(50)"`
	Production    *ProductionInfo `gorm:"serializer:json;type:text"`
	Supply        *SupplyInfo     `gorm:"serializer:json;type:text"`
	Service       *ServiceInfo    `gorm:"serializer:json;type:text"`
	DueDate       *time.Time      `gorm:"column:due_date"`
}

// ============================================================================
// Conversation / Message
// ============================================================================

// ConversationChannel is the medium a conversation happens on
type ConversationChannel string

const (
	ChannelEmail     ConversationChannel = "email"
	ChannelWhatsApp  ConversationChannel = "whatsapp"
	ChannelInstagram ConversationChannel = "instagram"
	ChannelPhone     ConversationChannel = "phone"
	ChannelWeb       ConversationChannel = "web"
)

// ConversationStatus is the inbox state of a conversation
type ConversationStatus string

const (
	ConversationStatusOpen    ConversationStatus = "open"
	ConversationStatusPending ConversationStatus = "pending"
	ConversationStatusClosed  ConversationStatus = "closed"
)

// MessageDirection tells whether a message was received or sent
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// Conversation is a message thread with a customer. MessageCount is
// denormalized and may be repaired from the messages table.
type Conversation struct {
	BaseModel
	CustomerID    uuid.UUID           `gorm:"type:uuid;not null;index;column:customer_id"`
	Channel       ConversationChannel `gorm:"type:varchar(50);not null"`
	Subject       string              `gorm:"type:varchar(300)"`
	Status        ConversationStatus  `gorm:"type:varchar(50);not null;default:'open'"`
	MessageCount  int                 `gorm:"not null;default:0;column:message_count"`
	UnreadCount   int                 `gorm:"not null;default:0;column:unread_count"`
	LastMessageAt *time.Time          `gorm:"column:last_message_at"`
}

// Message is a single inbound or outbound message
type Message struct {
	BaseModel
	ConversationID uuid.UUID        `gorm:"type:uuid;not null;index;column:conversation_id"`
	Direction      MessageDirection `gorm:"type:varchar(20);not null"`
	Body           string           `gorm:"type:text;not null"`
	Sender         string           `gorm:"type:varchar(200)"`
	SentAt         time.Time        `gorm:"not null;column:sent_at"`
	ReadAt         *time.Time       `gorm:"column:read_at"`
}

// ============================================================================
// Supporting tables
// ============================================================================

// NumberSequence tracks the last issued sequence per scope and year
type NumberSequence struct {
	Scope        string    `gorm:"type:varchar(20);primaryKey"`
	Year         int       `gorm:"primaryKey"`
	LastSequence int       `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// SettingsDocument is a singleton JSON document per settings concern
type SettingsDocument struct {
	Key       string    `gorm:"type:varchar(100);primaryKey"`
	Data      string    `gorm:"type:text;not null"`
	UpdatedBy string    `gorm:"type:varchar(200);column:updated_by"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName keeps the settings table name explicit
func (SettingsDocument) TableName() string {
	return "settings_documents"
}

// AuditAction represents the type of audit action
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionImport AuditAction = "import"
	AuditActionExport AuditAction = "export"
	AuditActionReset  AuditAction = "reset"
)

// AuditLog represents an audit trail entry for a mutating API call
type AuditLog struct {
	BaseModel
	UserID     string      `gorm:"type:varchar(100);column:user_id"`
	UserName   string      `gorm:"type:varchar(200);column:user_name"`
	Action     AuditAction `gorm:"type:varchar(50);not null"`
	EntityType string      `gorm:"type:varchar(50);not null;column:entity_type;index"`
	EntityID   *uuid.UUID  `gorm:"type:uuid;column:entity_id"`
	Method     string      `gorm:"type:varchar(10);not null"`
	Path       string      `gorm:"type:varchar(500);not null"`
	StatusCode int         `gorm:"not null;column:status_code"`
	Changes    string      `gorm:"type:text"`
	IPAddress  string      `gorm:"type:varchar(64);column:ip_address"`
}

// ============================================================================
// Roles and permissions
// ============================================================================

// UserRoleType represents a role a user can have
type UserRoleType string

const (
	RoleSuperAdmin UserRoleType = "super_admin"
	RoleAdmin      UserRoleType = "admin"
	RoleSales      UserRoleType = "sales"
	RoleProduction UserRoleType = "production"
	RoleViewer     UserRoleType = "viewer"
	RoleAPIService UserRoleType = "api_service"
)

// PermissionType represents a capability checked before a mutation
type PermissionType string

const (
	PermissionContactsRead   PermissionType = "contacts:read"
	PermissionContactsWrite  PermissionType = "contacts:write"
	PermissionContactsDelete PermissionType = "contacts:delete"

	PermissionRequestsRead   PermissionType = "requests:read"
	PermissionRequestsWrite  PermissionType = "requests:write"
	PermissionRequestsDelete PermissionType = "requests:delete"

	PermissionCustomersRead   PermissionType = "customers:read"
	PermissionCustomersWrite  PermissionType = "customers:write"
	PermissionCustomersDelete PermissionType = "customers:delete"

	PermissionCasesRead  PermissionType = "cases:read"
	PermissionCasesWrite PermissionType = "cases:write"

	PermissionOrdersRead  PermissionType = "orders:read"
	PermissionOrdersWrite PermissionType = "orders:write"

	PermissionConversationsRead  PermissionType = "conversations:read"
	PermissionConversationsWrite PermissionType = "conversations:write"

	PermissionSettingsRead  PermissionType = "settings:read"
	PermissionSettingsWrite PermissionType = "settings:write"

	PermissionSyncRun         PermissionType = "sync:run"
	PermissionReportsView     PermissionType = "reports:view"
	PermissionReportsExport   PermissionType = "reports:export"
	PermissionIntegrations    PermissionType = "integrations:manage"
	PermissionSystemAuditLogs PermissionType = "system:audit_logs"
	PermissionSystemReset     PermissionType = "system:reset"
)

// AllPermissions lists every permission in display order
var AllPermissions = []PermissionType{
	PermissionContactsRead, PermissionContactsWrite, PermissionContactsDelete,
	PermissionRequestsRead, PermissionRequestsWrite, PermissionRequestsDelete,
	PermissionCustomersRead, PermissionCustomersWrite, PermissionCustomersDelete,
	PermissionCasesRead, PermissionCasesWrite,
	PermissionOrdersRead, PermissionOrdersWrite,
	PermissionConversationsRead, PermissionConversationsWrite,
	PermissionSettingsRead, PermissionSettingsWrite,
	PermissionSyncRun, PermissionReportsView, PermissionReportsExport,
	PermissionIntegrations, PermissionSystemAuditLogs, PermissionSystemReset,
}
