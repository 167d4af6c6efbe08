package service

import (
	"context"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/messaging"
	"go.uber.org/zap"
)

// MessagingAPI is the subset of the Graph API the integration calls
type MessagingAPI interface {
	Me(ctx context.Context, accessToken string) (*messaging.Profile, error)
	BusinessAccount(ctx context.Context, accessToken, accountID string) (*messaging.BusinessAccount, error)
	DebugToken(ctx context.Context, inputToken, appID, appSecret string) (*messaging.TokenInfo, error)
}

// MaskedMessagingSettings is the messaging document as returned to clients
type MaskedMessagingSettings struct {
	Enabled            bool       `json:"enabled"`
	Connected          bool       `json:"connected"`
	AppID              string     `json:"appId"`
	AppSecret          string     `json:"appSecret"`
	AccessToken        string     `json:"accessToken"`
	PhoneNumberID      string     `json:"phoneNumberId"`
	BusinessAccountID  string     `json:"businessAccountId"`
	WebhookVerifyToken string     `json:"webhookVerifyToken"`
	ConnectedAt        *time.Time `json:"connectedAt,omitempty"`
}

// MessagingService manages the messaging-platform credentials
type MessagingService struct {
	settings *SettingsService
	api      MessagingAPI
	logger   *zap.Logger
	now      func() time.Time
}

func NewMessagingService(settings *SettingsService, api MessagingAPI, logger *zap.Logger) *MessagingService {
	return &MessagingService{
		settings: settings,
		api:      api,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the stored settings with secrets masked
func (s *MessagingService) Get(ctx context.Context) MaskedMessagingSettings {
	return maskMessaging(s.settings.Messaging(ctx))
}

// Test validates the stored access token
func (s *MessagingService) Test(ctx context.Context) (*messaging.Profile, error) {
	v := s.settings.Messaging(ctx)
	if v.AccessToken == "" {
		return nil, ErrMessagingNotConfigured
	}
	return s.api.Me(ctx, v.AccessToken)
}

// FetchAccount returns the business account profile
func (s *MessagingService) FetchAccount(ctx context.Context) (*messaging.BusinessAccount, error) {
	v := s.settings.Messaging(ctx)
	if v.AccessToken == "" || v.BusinessAccountID == "" {
		return nil, ErrMessagingNotConfigured
	}
	return s.api.BusinessAccount(ctx, v.AccessToken, v.BusinessAccountID)
}

// DebugToken inspects the stored access token with the app credentials
func (s *MessagingService) DebugToken(ctx context.Context) (*messaging.TokenInfo, error) {
	v := s.settings.Messaging(ctx)
	if v.AccessToken == "" || v.AppID == "" || v.AppSecret == "" {
		return nil, ErrMessagingNotConfigured
	}
	return s.api.DebugToken(ctx, v.AccessToken, v.AppID, v.AppSecret)
}

// Update persists only the fields present in req
func (s *MessagingService) Update(ctx context.Context, req *domain.UpdateMessagingSettingsRequest) (MaskedMessagingSettings, error) {
	v := s.settings.Messaging(ctx)
	previousToken := v.AccessToken

	if req.Enabled != nil {
		v.Enabled = *req.Enabled
	}
	if req.AppID != nil {
		v.AppID = *req.AppID
	}
	if req.AppSecret != nil {
		v.AppSecret = *req.AppSecret
	}
	if req.AccessToken != nil {
		v.AccessToken = *req.AccessToken
	}
	if req.PhoneNumberID != nil {
		v.PhoneNumberID = *req.PhoneNumberID
	}
	if req.BusinessAccountID != nil {
		v.BusinessAccountID = *req.BusinessAccountID
	}
	if req.WebhookVerifyToken != nil {
		v.WebhookVerifyToken = *req.WebhookVerifyToken
	}

	switch {
	case v.AccessToken == "":
		v.ConnectedAt = nil
	case v.AccessToken != previousToken || v.ConnectedAt == nil:
		now := s.now()
		v.ConnectedAt = &now
	}

	if err := s.settings.SaveMessaging(ctx, v); err != nil {
		return MaskedMessagingSettings{}, err
	}
	s.logger.Info("messaging settings updated", zap.String("updated_by", actor(ctx)), zap.Bool("enabled", v.Enabled))
	return maskMessaging(v), nil
}

// Disconnect clears every credential and disables the integration
func (s *MessagingService) Disconnect(ctx context.Context) error {
	if err := s.settings.SaveMessaging(ctx, domain.DefaultMessagingSettings()); err != nil {
		return err
	}
	s.logger.Info("messaging integration disconnected", zap.String("disconnected_by", actor(ctx)))
	return nil
}

func maskMessaging(v domain.MessagingSettings) MaskedMessagingSettings {
	return MaskedMessagingSettings{
		Enabled:            v.Enabled,
		Connected:          v.AccessToken != "",
		AppID:              v.AppID,
		AppSecret:          MaskSecret(v.AppSecret),
		AccessToken:        MaskSecret(v.AccessToken),
		PhoneNumberID:      v.PhoneNumberID,
		BusinessAccountID:  v.BusinessAccountID,
		WebhookVerifyToken: MaskSecret(v.WebhookVerifyToken),
		ConnectedAt:        v.ConnectedAt,
	}
}

// MaskSecret keeps the first 6 and last 4 characters. Values too short to
// keep both are replaced by the ellipsis alone.
func MaskSecret(v string) string {
	if v == "" {
		return ""
	}
	r := []rune(v)
	if len(r) <= 10 {
		return "…"
	}
	return string(r[:6]) + "…" + string(r[len(r)-4:])
}
