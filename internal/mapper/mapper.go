package mapper

import (
	"fmt"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/google/uuid"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// ToContactDTO converts Contact to ContactDTO
func ToContactDTO(contact *domain.Contact) domain.ContactDTO {
	return domain.ContactDTO{
		ID:        contact.ID,
		Name:      contact.Name,
		Email:     contact.Email,
		Phone:     contact.Phone,
		Company:   contact.Company,
		Service:   contact.Service,
		Product:   contact.Product,
		Message:   contact.Message,
		Status:    contact.Status,
		Priority:  contact.Priority,
		Source:    contact.Source,
		RequestID: contact.RequestID,
		CreatedAt: formatTime(contact.CreatedAt),
		UpdatedAt: formatTime(contact.UpdatedAt),
	}
}

// ToRequestDTO converts Request to RequestDTO
func ToRequestDTO(request *domain.Request) domain.RequestDTO {
	notes := request.Notes
	if notes == nil {
		notes = []domain.RequestNote{}
	}
	followUps := request.FollowUps
	if followUps == nil {
		followUps = []domain.RequestFollowUp{}
	}
	return domain.RequestDTO{
		ID:             request.ID,
		RequestNumber:  request.RequestNumber,
		Title:          request.Title,
		Description:    request.Description,
		Requirements:   request.Requirements,
		Category:       request.Category,
		Status:         request.Status,
		Priority:       request.Priority,
		Source:         request.Source,
		CompanyID:      request.CompanyID,
		CompanyName:    request.CompanyName,
		ContactID:      request.ContactID,
		ContactName:    request.ContactName,
		ContactEmail:   request.ContactEmail,
		ContactPhone:   request.ContactPhone,
		EstimatedValue: request.EstimatedValue,
		ActualValue:    request.ActualValue,
		Currency:       request.Currency,
		AssignedTo:     request.AssignedTo,
		Notes:          notes,
		FollowUps:      followUps,
		CreatedAt:      formatTime(request.CreatedAt),
		UpdatedAt:      formatTime(request.UpdatedAt),
	}
}

// ToAttachmentDTO converts RequestAttachment to AttachmentDTO
func ToAttachmentDTO(a *domain.RequestAttachment) domain.AttachmentDTO {
	return domain.AttachmentDTO{
		ID:          a.ID,
		RequestID:   a.RequestID,
		Filename:    a.Filename,
		ContentType: a.ContentType,
		Size:        a.Size,
		UploadedBy:  a.UploadedBy,
		CreatedAt:   formatTime(a.CreatedAt),
	}
}

// ToCompanyDTO converts Company to CompanyDTO. customerID is the linked
// customer, if any.
func ToCompanyDTO(company *domain.Company, customerID *uuid.UUID) domain.CompanyDTO {
	tags := company.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.CompanyDTO{
		ID:         company.ID,
		Name:       company.Name,
		Email:      company.Email,
		Phone:      company.Phone,
		Website:    company.Website,
		Address:    company.Address,
		City:       company.City,
		Country:    company.Country,
		Industry:   company.Industry,
		Type:       company.Type,
		Status:     company.Status,
		Priority:   company.Priority,
		Tags:       tags,
		Stats:      company.Stats,
		Notes:      company.Notes,
		Source:     company.Source,
		CustomerID: customerID,
		CreatedAt:  formatTime(company.CreatedAt),
		UpdatedAt:  formatTime(company.UpdatedAt),
	}
}

// ToCustomerDTO converts Customer to CustomerDTO. companyID is the linked
// legacy company, if any.
func ToCustomerDTO(customer *domain.Customer, companyID *uuid.UUID) domain.CustomerDTO {
	tags := customer.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.CustomerDTO{
		ID:            customer.ID,
		Name:          customer.Name,
		CompanyName:   customer.CompanyName,
		Email:         customer.Email,
		Phone:         customer.Phone,
		Type:          customer.Type,
		Status:        customer.Status,
		Priority:      customer.Priority,
		Source:        customer.Source,
		Tags:          tags,
		Stats:         customer.Stats,
		LastContactAt: formatOptionalTime(customer.LastContactAt),
		Notes:         customer.Notes,
		CompanyID:     companyID,
		CreatedAt:     formatTime(customer.CreatedAt),
		UpdatedAt:     formatTime(customer.UpdatedAt),
	}
}

// ToCaseDTO converts Case to CaseDTO. sla is attached when the caller
// evaluated it.
func ToCaseDTO(c *domain.Case, sla *domain.SLAEvaluation) domain.CaseDTO {
	checklist := c.Checklist
	if checklist == nil {
		checklist = []domain.ChecklistItem{}
	}
	return domain.CaseDTO{
		ID:              c.ID,
		CustomerID:      c.CustomerID,
		CustomerName:    c.CustomerName,
		Title:           c.Title,
		Description:     c.Description,
		Type:            c.Type,
		Status:          c.Status,
		Phase:           c.Phase(),
		StatusChangedAt: formatTime(c.StatusChangedAt),
		Financials:      c.Financials,
		Checklist:       checklist,
		AssignedTo:      c.AssignedTo,
		OrderID:         c.OrderID,
		LostReason:      c.LostReason,
		SLA:             sla,
		CreatedAt:       formatTime(c.CreatedAt),
		UpdatedAt:       formatTime(c.UpdatedAt),
	}
}

// ToOrderDTO converts Order to OrderDTO with its stage list and progress
func ToOrderDTO(order *domain.Order) domain.OrderDTO {
	stages := domain.OrderStages[order.Type]
	if stages == nil {
		stages = []string{}
	}
	return domain.OrderDTO{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Type:          order.Type,
		CaseID:        order.CaseID,
		CustomerID:    order.CustomerID,
		CustomerName:  order.CustomerName,
		Title:         order.Title,
		Description:   order.Description,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		PaidAmount:    order.PaidAmount,
		Currency:      order.Currency,
		Stage:         order.Stage,
		Stages:        stages,
		Progress:      order.Progress(),
		Details:       order.Details(),
		DueDate:       formatOptionalTime(order.DueDate),
		CreatedAt:     formatTime(order.CreatedAt),
		UpdatedAt:     formatTime(order.UpdatedAt),
	}
}

// ToConversationDTO converts Conversation to ConversationDTO
func ToConversationDTO(conv *domain.Conversation) domain.ConversationDTO {
	return domain.ConversationDTO{
		ID:            conv.ID,
		CustomerID:    conv.CustomerID,
		Channel:       conv.Channel,
		Subject:       conv.Subject,
		Status:        conv.Status,
		MessageCount:  conv.MessageCount,
		UnreadCount:   conv.UnreadCount,
		LastMessageAt: formatOptionalTime(conv.LastMessageAt),
		CreatedAt:     formatTime(conv.CreatedAt),
		UpdatedAt:     formatTime(conv.UpdatedAt),
	}
}

// ToMessageDTO converts Message to MessageDTO
func ToMessageDTO(msg *domain.Message) domain.MessageDTO {
	return domain.MessageDTO{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Direction:      msg.Direction,
		Body:           msg.Body,
		Sender:         msg.Sender,
		SentAt:         formatTime(msg.SentAt),
		ReadAt:         formatOptionalTime(msg.ReadAt),
	}
}

// ToAuditLogDTO converts AuditLog to AuditLogDTO
func ToAuditLogDTO(log *domain.AuditLog) domain.AuditLogDTO {
	return domain.AuditLogDTO{
		ID:         log.ID,
		UserID:     log.UserID,
		UserName:   log.UserName,
		Action:     log.Action,
		EntityType: log.EntityType,
		EntityID:   log.EntityID,
		Method:     log.Method,
		Path:       log.Path,
		StatusCode: log.StatusCode,
		Changes:    log.Changes,
		CreatedAt:  formatTime(log.CreatedAt),
	}
}

// ToCursorPage wraps mapped items in the cursor page envelope
func ToCursorPage[T any](items []T, nextCursor string, hasMore bool) domain.CursorPage {
	return domain.CursorPage{
		Data:       items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}
}

// FormatError creates a formatted error message
func FormatError(entity, operation string, err error) error {
	return fmt.Errorf("failed to %s %s: %w", operation, entity, err)
}
