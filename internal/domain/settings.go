package domain

import "time"

// SettingsKey identifies a singleton settings document
type SettingsKey string

const (
	SettingsSync          SettingsKey = "sync"
	SettingsQuickReplies  SettingsKey = "quick_replies"
	SettingsChecklists    SettingsKey = "checklists"
	SettingsSLA           SettingsKey = "sla"
	SettingsAutoReminders SettingsKey = "auto_reminders"
	SettingsMessaging     SettingsKey = "messaging"
)

// SyncSettings controls company/customer synchronization
type SyncSettings struct {
	AutoSyncEnabled     bool       `json:"autoSyncEnabled"`
	SyncIntervalMinutes int        `json:"syncIntervalMinutes"`
	SyncOnPageLoad      bool       `json:"syncOnPageLoad"`
	EmailHistoryDays    int        `json:"emailHistoryDays"`
	LastSyncAt          *time.Time `json:"lastSyncAt,omitempty"`
}

// QuickReply is a canned inbox response
type QuickReply struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category,omitempty"`
	Shortcut string `json:"shortcut,omitempty"`
}

// QuickReplySettings holds all quick replies
type QuickReplySettings struct {
	Replies []QuickReply `json:"replies"`
}

// ChecklistTemplateItem is a template entry copied onto new cases
type ChecklistTemplateItem struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Phase    CasePhase `json:"phase"`
	Required bool      `json:"required"`
}

// ChecklistSettings holds checklist templates per case type
type ChecklistSettings struct {
	Templates map[CaseType][]ChecklistTemplateItem `json:"templates"`
}

// SLAThreshold is measured in hours
type SLAThreshold struct {
	MaxDuration      float64 `json:"maxDuration"`
	WarningThreshold float64 `json:"warningThreshold"`
}

// SLASettings holds thresholds per case status
type SLASettings struct {
	Thresholds map[CaseStatus]SLAThreshold `json:"thresholds"`
}

// ReminderTrigger is the condition a reminder rule watches
type ReminderTrigger string

const (
	TriggerFollowUpDue       ReminderTrigger = "follow_up_due"
	TriggerCaseStale         ReminderTrigger = "case_stale"
	TriggerQuoteNoResponse   ReminderTrigger = "quote_no_response"
	TriggerContactUnanswered ReminderTrigger = "contact_unanswered"
)

// ReminderRule is one auto-reminder rule
type ReminderRule struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Trigger    ReminderTrigger `json:"trigger"`
	AfterHours int             `json:"afterHours"`
	Enabled    bool            `json:"enabled"`
	Channel    string          `json:"channel"`
}

// AutoReminderSettings holds all reminder rules
type AutoReminderSettings struct {
	Rules []ReminderRule `json:"rules"`
}

// MessagingSettings holds messaging-platform credentials
type MessagingSettings struct {
	Enabled            bool       `json:"enabled"`
	AppID              string     `json:"appId"`
	AppSecret          string     `json:"appSecret"`
	AccessToken        string     `json:"accessToken"`
	PhoneNumberID      string     `json:"phoneNumberId"`
	BusinessAccountID  string     `json:"businessAccountId"`
	WebhookVerifyToken string     `json:"webhookVerifyToken"`
	ConnectedAt        *time.Time `json:"connectedAt,omitempty"`
}

// DefaultSyncSettings returns the documented sync defaults
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		AutoSyncEnabled:     false,
		SyncIntervalMinutes: 60,
		SyncOnPageLoad:      false,
		EmailHistoryDays:    30,
	}
}

// DefaultQuickReplySettings returns the documented quick replies
func DefaultQuickReplySettings() QuickReplySettings {
	return QuickReplySettings{Replies: []QuickReply{
		{ID: "greeting", Title: "Karşılama", Body: "Merhaba, bizimle iletişime geçtiğiniz için teşekkür ederiz. Talebinizi inceliyoruz.", Category: "general", Shortcut: "/merhaba"},
		{ID: "quote-ready", Title: "Teklif hazır", Body: "Talebinize ait teklifimiz hazırlanmıştır, e-posta adresinize gönderilmiştir.", Category: "sales", Shortcut: "/teklif"},
		{ID: "sample", Title: "Numune", Body: "Numune talebiniz alınmıştır. Hazırlık süresi yaklaşık 7 iş günüdür.", Category: "production", Shortcut: "/numune"},
		{ID: "follow-up", Title: "Takip", Body: "Önceki görüşmemizle ilgili sizden geri dönüş bekliyoruz. Sorularınız için buradayız.", Category: "sales", Shortcut: "/takip"},
	}}
}

// DefaultChecklistSettings returns the documented checklist templates
func DefaultChecklistSettings() ChecklistSettings {
	common := []ChecklistTemplateItem{
		{Key: "needs_identified", Label: "İhtiyaç analizi yapıldı", Phase: PhaseQualification, Required: true},
		{Key: "budget_confirmed", Label: "Bütçe teyit edildi", Phase: PhaseQualification, Required: false},
		{Key: "quote_prepared", Label: "Teklif hazırlandı", Phase: PhaseQuote, Required: true},
		{Key: "quote_approved_internal", Label: "Teklif iç onayı alındı", Phase: PhaseQuote, Required: false},
		{Key: "terms_agreed", Label: "Ticari şartlar üzerinde anlaşıldı", Phase: PhaseNegotiation, Required: true},
	}
	production := append([]ChecklistTemplateItem{
		{Key: "formula_reviewed", Label: "Formül incelendi", Phase: PhaseQualification, Required: true},
		{Key: "sample_approved", Label: "Numune onaylandı", Phase: PhaseQuote, Required: true},
	}, common...)
	supply := append([]ChecklistTemplateItem{
		{Key: "supplier_selected", Label: "Tedarikçi belirlendi", Phase: PhaseQualification, Required: true},
	}, common...)

	return ChecklistSettings{Templates: map[CaseType][]ChecklistTemplateItem{
		CaseTypeProduction:   production,
		CaseTypeSupply:       supply,
		CaseTypeService:      append([]ChecklistTemplateItem(nil), common...),
		CaseTypeConsultation: append([]ChecklistTemplateItem(nil), common[:1]...),
	}}
}

// DefaultSLASettings returns the documented SLA table, in hours
func DefaultSLASettings() SLASettings {
	return SLASettings{Thresholds: map[CaseStatus]SLAThreshold{
		CaseStatusNew:            {MaxDuration: 24, WarningThreshold: 12},
		CaseStatusQualifying:     {MaxDuration: 72, WarningThreshold: 48},
		CaseStatusQuotePreparing: {MaxDuration: 48, WarningThreshold: 36},
		CaseStatusQuoteSent:      {MaxDuration: 120, WarningThreshold: 72},
		CaseStatusNegotiating:    {MaxDuration: 168, WarningThreshold: 120},
		CaseStatusOnHold:         {MaxDuration: 336, WarningThreshold: 240},
	}}
}

// DefaultAutoReminderSettings returns the documented reminder rules
func DefaultAutoReminderSettings() AutoReminderSettings {
	return AutoReminderSettings{Rules: []ReminderRule{
		{ID: "follow-up-due", Name: "Vadesi gelen takipler", Trigger: TriggerFollowUpDue, AfterHours: 0, Enabled: true, Channel: "in_app"},
		{ID: "case-stale", Name: "Hareketsiz fırsatlar", Trigger: TriggerCaseStale, AfterHours: 168, Enabled: true, Channel: "in_app"},
		{ID: "quote-no-response", Name: "Yanıtsız teklifler", Trigger: TriggerQuoteNoResponse, AfterHours: 72, Enabled: true, Channel: "email"},
		{ID: "contact-unanswered", Name: "Yanıtlanmamış iletişim formları", Trigger: TriggerContactUnanswered, AfterHours: 24, Enabled: false, Channel: "email"},
	}}
}

// DefaultMessagingSettings returns a disconnected integration
func DefaultMessagingSettings() MessagingSettings {
	return MessagingSettings{}
}

// NewSettingsDefault returns a pointer to a fresh default value for key
func NewSettingsDefault(key SettingsKey) (any, bool) {
	switch key {
	case SettingsSync:
		v := DefaultSyncSettings()
		return &v, true
	case SettingsQuickReplies:
		v := DefaultQuickReplySettings()
		return &v, true
	case SettingsChecklists:
		v := DefaultChecklistSettings()
		return &v, true
	case SettingsSLA:
		v := DefaultSLASettings()
		return &v, true
	case SettingsAutoReminders:
		v := DefaultAutoReminderSettings()
		return &v, true
	case SettingsMessaging:
		v := DefaultMessagingSettings()
		return &v, true
	}
	return nil, false
}

// AllSettingsKeys lists every settings document
var AllSettingsKeys = []SettingsKey{
	SettingsSync,
	SettingsQuickReplies,
	SettingsChecklists,
	SettingsSLA,
	SettingsAutoReminders,
	SettingsMessaging,
}
