package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/formula-lab/crm-api/internal/auth"
	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"go.uber.org/zap"
)

// SettingsService reads and writes the singleton settings documents. Reads
// never fail: a missing or unreadable document yields the documented default.
type SettingsService struct {
	store  repository.SettingsStore
	logger *zap.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(store repository.SettingsStore, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		store:  store,
		logger: logger,
	}
}

// Keys lists the settings documents the service manages
func (s *SettingsService) Keys() []domain.SettingsKey {
	return domain.AllSettingsKeys
}

// Get returns the document for key as a generic JSON object. Stored values
// are overlaid on the default so fields added later still have a value.
func (s *SettingsService) Get(ctx context.Context, key domain.SettingsKey) (map[string]interface{}, error) {
	def, ok := domain.NewSettingsDefault(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSettingsKey, key)
	}
	base, err := toObject(def)
	if err != nil {
		return nil, fmt.Errorf("failed to encode default settings: %w", err)
	}

	stored, err := s.readStored(ctx, key)
	if err != nil || stored == nil {
		return base, nil
	}
	return deepMerge(base, stored), nil
}

// Update deep-merges patch into the current document and persists the result.
// Nested objects merge key by key; arrays and scalars are replaced.
func (s *SettingsService) Update(ctx context.Context, key domain.SettingsKey, patch map[string]interface{}) (map[string]interface{}, error) {
	if patch == nil {
		return nil, ErrInvalidSettingsPayload
	}
	current, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	merged := deepMerge(current, patch)

	// Round trip through the typed document to reject wrongly typed fields
	typed, _ := domain.NewSettingsDefault(key)
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettingsPayload, err)
	}
	if err := json.Unmarshal(raw, typed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettingsPayload, err)
	}

	if err := s.write(ctx, key, typed); err != nil {
		return nil, err
	}
	s.logger.Info("settings updated", zap.String("key", string(key)), zap.String("updated_by", actor(ctx)))
	return toObject(typed)
}

// Reset overwrites the document with its default
func (s *SettingsService) Reset(ctx context.Context, key domain.SettingsKey) (map[string]interface{}, error) {
	def, ok := domain.NewSettingsDefault(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSettingsKey, key)
	}
	if err := s.write(ctx, key, def); err != nil {
		return nil, err
	}
	s.logger.Info("settings reset to default", zap.String("key", string(key)), zap.String("updated_by", actor(ctx)))
	return toObject(def)
}

// Sync returns the typed sync settings
func (s *SettingsService) Sync(ctx context.Context) domain.SyncSettings {
	v := domain.DefaultSyncSettings()
	s.loadTyped(ctx, domain.SettingsSync, &v)
	return v
}

// SaveSync persists the typed sync settings
func (s *SettingsService) SaveSync(ctx context.Context, v domain.SyncSettings) error {
	return s.write(ctx, domain.SettingsSync, v)
}

// QuickReplies returns the typed quick replies
func (s *SettingsService) QuickReplies(ctx context.Context) domain.QuickReplySettings {
	v := domain.DefaultQuickReplySettings()
	s.loadTyped(ctx, domain.SettingsQuickReplies, &v)
	return v
}

// Checklists returns the typed checklist templates
func (s *SettingsService) Checklists(ctx context.Context) domain.ChecklistSettings {
	v := domain.DefaultChecklistSettings()
	s.loadTyped(ctx, domain.SettingsChecklists, &v)
	return v
}

// SLA returns the typed SLA table
func (s *SettingsService) SLA(ctx context.Context) domain.SLASettings {
	v := domain.DefaultSLASettings()
	s.loadTyped(ctx, domain.SettingsSLA, &v)
	return v
}

// AutoReminders returns the typed reminder rules
func (s *SettingsService) AutoReminders(ctx context.Context) domain.AutoReminderSettings {
	v := domain.DefaultAutoReminderSettings()
	s.loadTyped(ctx, domain.SettingsAutoReminders, &v)
	return v
}

// Messaging returns the typed messaging credentials
func (s *SettingsService) Messaging(ctx context.Context) domain.MessagingSettings {
	v := domain.DefaultMessagingSettings()
	s.loadTyped(ctx, domain.SettingsMessaging, &v)
	return v
}

// SaveMessaging persists the typed messaging credentials
func (s *SettingsService) SaveMessaging(ctx context.Context, v domain.MessagingSettings) error {
	return s.write(ctx, domain.SettingsMessaging, v)
}

// loadTyped decodes the stored document over dst, which already holds the
// default. Failures are logged and leave the default in place.
func (s *SettingsService) loadTyped(ctx context.Context, key domain.SettingsKey, dst interface{}) {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrSettingsNotFound) {
			s.logger.Warn("failed to read settings, using default", zap.String("key", string(key)), zap.Error(err))
		}
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("stored settings are invalid, using default", zap.String("key", string(key)), zap.Error(err))
		fresh, _ := domain.NewSettingsDefault(key)
		freshRaw, _ := json.Marshal(fresh)
		_ = json.Unmarshal(freshRaw, dst)
	}
}

func (s *SettingsService) readStored(ctx context.Context, key domain.SettingsKey) (map[string]interface{}, error) {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrSettingsNotFound) {
			s.logger.Warn("failed to read settings, using default", zap.String("key", string(key)), zap.Error(err))
		}
		return nil, err
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		s.logger.Warn("stored settings are invalid, using default", zap.String("key", string(key)), zap.Error(err))
		return nil, err
	}
	return obj, nil
}

func (s *SettingsService) write(ctx context.Context, key domain.SettingsKey, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode settings %s: %w", key, err)
	}
	if err := s.store.Put(ctx, key, raw, actor(ctx)); err != nil {
		return fmt.Errorf("failed to save settings %s: %w", key, err)
	}
	return nil
}

func toObject(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// deepMerge returns a new object with patch applied over base
func deepMerge(base, patch map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		if pm, ok := v.(map[string]interface{}); ok {
			if bm, ok := out[k].(map[string]interface{}); ok {
				out[k] = deepMerge(bm, pm)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// actor names the user in ctx for audit fields
func actor(ctx context.Context) string {
	if userCtx, ok := auth.FromContext(ctx); ok {
		return userCtx.Actor()
	}
	return "system"
}
