package domain

import (
	"time"

	"github.com/google/uuid"
)

// Request payloads. Validation tags are checked by the HTTP layer.

type CreateContactRequest struct {
	Name     string   `json:"name" validate:"required,max=200"`
	Email    string   `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone    string   `json:"phone,omitempty" validate:"max=50"`
	Company  string   `json:"company,omitempty" validate:"max=200"`
	Service  string   `json:"service,omitempty" validate:"max=500"`
	Product  string   `json:"product,omitempty" validate:"max=500"`
	Message  string   `json:"message,omitempty" validate:"max=5000"`
	Priority Priority `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	Source   string   `json:"source,omitempty" validate:"max=100"`
}

type UpdateContactRequest struct {
	Name     *string        `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email    *string        `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone    *string        `json:"phone,omitempty" validate:"omitempty,max=50"`
	Company  *string        `json:"company,omitempty" validate:"omitempty,max=200"`
	Service  *string        `json:"service,omitempty" validate:"omitempty,max=500"`
	Product  *string        `json:"product,omitempty" validate:"omitempty,max=500"`
	Message  *string        `json:"message,omitempty" validate:"omitempty,max=5000"`
	Status   *ContactStatus `json:"status,omitempty" validate:"omitempty,oneof=new in_progress responded closed"`
	Priority *Priority      `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
}

type BulkContactDeleteRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
}

type BulkContactStatusRequest struct {
	IDs    []uuid.UUID   `json:"ids" validate:"required,min=1,max=500"`
	Status ContactStatus `json:"status" validate:"required,oneof=new in_progress responded closed"`
}

type PromoteContactRequest struct {
	CreateCompany  bool             `json:"createCompany"`
	CompanyID      *uuid.UUID       `json:"companyId,omitempty"`
	Title          *string          `json:"title,omitempty" validate:"omitempty,min=1,max=300"`
	Category       *RequestCategory `json:"category,omitempty" validate:"omitempty,oneof=cosmetic_manufacturing supplement_manufacturing cleaning_manufacturing packaging_supply ecommerce_operations digital_marketing formulation_development consultation"`
	Priority       *string          `json:"priority,omitempty" validate:"omitempty,max=50"`
	EstimatedValue *float64         `json:"estimatedValue,omitempty" validate:"omitempty,gte=0"`
}

type CreateRequestRequest struct {
	Title          string          `json:"title" validate:"required,max=300"`
	Description    string          `json:"description,omitempty"`
	Requirements   string          `json:"requirements,omitempty"`
	Category       RequestCategory `json:"category" validate:"required,oneof=cosmetic_manufacturing supplement_manufacturing cleaning_manufacturing packaging_supply ecommerce_operations digital_marketing formulation_development consultation"`
	Priority       Priority        `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	Source         string          `json:"source,omitempty" validate:"max=100"`
	CompanyID      *uuid.UUID      `json:"companyId,omitempty"`
	ContactName    string          `json:"contactName,omitempty" validate:"max=200"`
	ContactEmail   string          `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone   string          `json:"contactPhone,omitempty" validate:"max=50"`
	EstimatedValue float64         `json:"estimatedValue,omitempty" validate:"gte=0"`
	Currency       string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	AssignedTo     string          `json:"assignedTo,omitempty" validate:"max=200"`
}

type UpdateRequestRequest struct {
	Title          *string          `json:"title,omitempty" validate:"omitempty,min=1,max=300"`
	Description    *string          `json:"description,omitempty"`
	Requirements   *string          `json:"requirements,omitempty"`
	Category       *RequestCategory `json:"category,omitempty" validate:"omitempty,oneof=cosmetic_manufacturing supplement_manufacturing cleaning_manufacturing packaging_supply ecommerce_operations digital_marketing formulation_development consultation"`
	Status         *RequestStatus   `json:"status,omitempty" validate:"omitempty,oneof=new assigned in_progress waiting_client quotation_sent approved rejected completed cancelled"`
	Priority       *Priority        `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	CompanyID      *uuid.UUID       `json:"companyId,omitempty"`
	EstimatedValue *float64         `json:"estimatedValue,omitempty" validate:"omitempty,gte=0"`
	ActualValue    *float64         `json:"actualValue,omitempty" validate:"omitempty,gte=0"`
	AssignedTo     *string          `json:"assignedTo,omitempty" validate:"omitempty,max=200"`
}

type UpdateRequestStatusRequest struct {
	Status RequestStatus `json:"status" validate:"required,oneof=new assigned in_progress waiting_client quotation_sent approved rejected completed cancelled"`
}

type AddNoteRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

type AddFollowUpRequest struct {
	Type        FollowUpType `json:"type" validate:"required,oneof=call email meeting visit"`
	Description string       `json:"description,omitempty" validate:"max=2000"`
	DueAt       time.Time    `json:"dueAt" validate:"required"`
}

type CreateCompanyRequest struct {
	Name     string      `json:"name" validate:"required,max=200"`
	Email    string      `json:"email,omitempty" validate:"omitempty,email"`
	Phone    string      `json:"phone,omitempty" validate:"max=50"`
	Website  string      `json:"website,omitempty" validate:"omitempty,url"`
	Address  string      `json:"address,omitempty" validate:"max=500"`
	City     string      `json:"city,omitempty" validate:"max=100"`
	Country  string      `json:"country,omitempty" validate:"max=100"`
	Industry string      `json:"industry,omitempty" validate:"max=100"`
	Type     CompanyType `json:"type,omitempty" validate:"omitempty,oneof=lead prospect customer partner supplier"`
	Priority Priority    `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	Tags     []string    `json:"tags,omitempty"`
	Notes    string      `json:"notes,omitempty"`
	Source   string      `json:"source,omitempty" validate:"max=100"`
}

type UpdateCompanyRequest struct {
	Name     *string        `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email    *string        `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string        `json:"phone,omitempty" validate:"omitempty,max=50"`
	Website  *string        `json:"website,omitempty" validate:"omitempty,url"`
	Address  *string        `json:"address,omitempty"`
	City     *string        `json:"city,omitempty"`
	Country  *string        `json:"country,omitempty"`
	Industry *string        `json:"industry,omitempty"`
	Type     *CompanyType   `json:"type,omitempty" validate:"omitempty,oneof=lead prospect customer partner supplier"`
	Status   *CompanyStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	Priority *Priority      `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	Tags     []string       `json:"tags,omitempty"`
	Notes    *string        `json:"notes,omitempty"`
}

type CreateCustomerRequest struct {
	Name        string       `json:"name" validate:"required,max=200"`
	CompanyName string       `json:"companyName,omitempty" validate:"max=200"`
	Email       string       `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string       `json:"phone,omitempty" validate:"max=50"`
	Type        CustomerType `json:"type,omitempty" validate:"omitempty,oneof=individual business"`
	Priority    Priority     `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	Source      string       `json:"source,omitempty" validate:"max=100"`
	Tags        []string     `json:"tags,omitempty"`
	Notes       string       `json:"notes,omitempty"`
}

type UpdateCustomerRequest struct {
	Name        *string         `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	CompanyName *string         `json:"companyName,omitempty"`
	Email       *string         `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string         `json:"phone,omitempty" validate:"omitempty,max=50"`
	Type        *CustomerType   `json:"type,omitempty" validate:"omitempty,oneof=individual business"`
	Status      *CustomerStatus `json:"status,omitempty" validate:"omitempty,oneof=lead prospect active inactive churned"`
	Priority    *Priority       `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	Tags        []string        `json:"tags,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
}

type CreateCaseRequest struct {
	CustomerID  uuid.UUID `json:"customerId" validate:"required"`
	Title       string    `json:"title" validate:"required,max=300"`
	Description string    `json:"description,omitempty"`
	Type        CaseType  `json:"type" validate:"required,oneof=production supply service consultation"`
	QuotedValue float64   `json:"quotedValue,omitempty" validate:"gte=0"`
	Currency    string    `json:"currency,omitempty" validate:"omitempty,len=3"`
	AssignedTo  string    `json:"assignedTo,omitempty" validate:"max=200"`
}

type UpdateCaseRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1,max=300"`
	Description *string  `json:"description,omitempty"`
	QuotedValue *float64 `json:"quotedValue,omitempty" validate:"omitempty,gte=0"`
	FinalValue  *float64 `json:"finalValue,omitempty" validate:"omitempty,gte=0"`
	AssignedTo  *string  `json:"assignedTo,omitempty" validate:"omitempty,max=200"`
}

type UpdateCaseStatusRequest struct {
	Status     CaseStatus `json:"status" validate:"required,oneof=new qualifying quote_preparing quote_sent negotiating won lost on_hold"`
	Force      bool       `json:"force"`
	LostReason string     `json:"lostReason,omitempty" validate:"max=2000"`
}

type CreateOrderRequest struct {
	Type        OrderType  `json:"type" validate:"required,oneof=production supply service"`
	CaseID      *uuid.UUID `json:"caseId,omitempty"`
	CustomerID  uuid.UUID  `json:"customerId" validate:"required"`
	Title       string     `json:"title" validate:"required,max=300"`
	Description string     `json:"description,omitempty"`
	TotalAmount float64    `json:"totalAmount,omitempty" validate:"gte=0"`
	Currency    string     `json:"currency,omitempty" validate:"omitempty,len=3"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	FormulaCode string     `json:"formulaCode,omitempty"`
	BatchSize   int        `json:"batchSize,omitempty" validate:"gte=0"`
	Supplier    string     `json:"supplier,omitempty"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	Location    string     `json:"location,omitempty"`
}

type UpdateOrderRequest struct {
	Title          *string    `json:"title,omitempty" validate:"omitempty,min=1,max=300"`
	Description    *string    `json:"description,omitempty"`
	TotalAmount    *float64   `json:"totalAmount,omitempty" validate:"omitempty,gte=0"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	Supplier       *string    `json:"supplier,omitempty"`
	TrackingNumber *string    `json:"trackingNumber,omitempty"`
	ScheduledAt    *time.Time `json:"scheduledAt,omitempty"`
	Location       *string    `json:"location,omitempty"`
}

type SetOrderStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending confirmed in_progress ready shipped delivered completed cancelled"`
}

type UpdatePaymentRequest struct {
	PaidAmount    float64       `json:"paidAmount" validate:"gte=0"`
	PaymentStatus PaymentStatus `json:"paymentStatus,omitempty" validate:"omitempty,oneof=unpaid partial paid refunded"`
}

type CreateConversationRequest struct {
	CustomerID uuid.UUID           `json:"customerId" validate:"required"`
	Channel    ConversationChannel `json:"channel" validate:"required,oneof=email whatsapp instagram phone web"`
	Subject    string              `json:"subject,omitempty" validate:"max=300"`
}

type AddMessageRequest struct {
	Direction MessageDirection `json:"direction" validate:"required,oneof=inbound outbound"`
	Body      string           `json:"body" validate:"required,max=10000"`
	Sender    string           `json:"sender,omitempty" validate:"max=200"`
	SentAt    *time.Time       `json:"sentAt,omitempty"`
}

type MergeRequest struct {
	PrimaryID    uuid.UUID   `json:"primaryId" validate:"required"`
	DuplicateIDs []uuid.UUID `json:"duplicateIds" validate:"required,min=1"`
}

type DataResetRequest struct {
	Confirmation string `json:"confirmation" validate:"required"`
}

// UpdateMessagingSettingsRequest persists only the fields that are present
type UpdateMessagingSettingsRequest struct {
	Enabled            *bool   `json:"enabled,omitempty"`
	AppID              *string `json:"appId,omitempty" validate:"omitempty,max=100"`
	AppSecret          *string `json:"appSecret,omitempty" validate:"omitempty,max=200"`
	AccessToken        *string `json:"accessToken,omitempty" validate:"omitempty,max=1000"`
	PhoneNumberID      *string `json:"phoneNumberId,omitempty" validate:"omitempty,max=100"`
	BusinessAccountID  *string `json:"businessAccountId,omitempty" validate:"omitempty,max=100"`
	WebhookVerifyToken *string `json:"webhookVerifyToken,omitempty" validate:"omitempty,max=200"`
}
