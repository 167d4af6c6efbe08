package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"go.uber.org/zap"
)

// ReminderService evaluates the auto-reminder rules
type ReminderService struct {
	requests    *RequestService
	caseRepo    *repository.CaseRepository
	contactRepo *repository.ContactRepository
	settings    *SettingsService
	scanLimit   int
	logger      *zap.Logger
}

func NewReminderService(
	requests *RequestService,
	caseRepo *repository.CaseRepository,
	contactRepo *repository.ContactRepository,
	settings *SettingsService,
	scanLimit int,
	logger *zap.Logger,
) *ReminderService {
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	return &ReminderService{
		requests:    requests,
		caseRepo:    caseRepo,
		contactRepo: contactRepo,
		settings:    settings,
		scanLimit:   scanLimit,
		logger:      logger,
	}
}

// Due returns the reminders every enabled rule produces at now, oldest first
func (s *ReminderService) Due(ctx context.Context, now time.Time) ([]domain.Reminder, error) {
	rules := s.settings.AutoReminders(ctx).Rules

	reminders := []domain.Reminder{}
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		found, err := s.evaluate(ctx, rule, now)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate reminder rule %s: %w", rule.ID, err)
		}
		reminders = append(reminders, found...)
	}

	sort.SliceStable(reminders, func(i, j int) bool { return reminders[i].Since.Before(reminders[j].Since) })
	return reminders, nil
}

func (s *ReminderService) evaluate(ctx context.Context, rule domain.ReminderRule, now time.Time) ([]domain.Reminder, error) {
	cutoff := now.Add(-time.Duration(rule.AfterHours) * time.Hour)
	base := domain.Reminder{RuleID: rule.ID, Trigger: rule.Trigger, Channel: rule.Channel}

	var out []domain.Reminder
	switch rule.Trigger {
	case domain.TriggerFollowUpDue:
		due, err := s.requests.DueFollowUps(ctx, cutoff, s.scanLimit)
		if err != nil {
			return nil, err
		}
		for _, d := range due {
			r := base
			r.EntityType = "request"
			r.EntityID = d.RequestID
			r.Title = fmt.Sprintf("%s: %s", d.RequestNumber, followUpTitle(d.FollowUp))
			r.Since = d.FollowUp.DueAt
			out = append(out, r)
		}

	case domain.TriggerCaseStale, domain.TriggerQuoteNoResponse:
		statuses := []domain.CaseStatus{domain.CaseStatusQuoteSent}
		if rule.Trigger == domain.TriggerCaseStale {
			statuses = []domain.CaseStatus{
				domain.CaseStatusNew,
				domain.CaseStatusQualifying,
				domain.CaseStatusQuotePreparing,
				domain.CaseStatusNegotiating,
				domain.CaseStatusOnHold,
			}
		}
		cases, err := s.caseRepo.ListInStatusSince(ctx, statuses, cutoff, s.scanLimit)
		if err != nil {
			return nil, err
		}
		for _, c := range cases {
			r := base
			r.EntityType = "case"
			r.EntityID = c.ID
			r.Title = c.Title
			r.Since = c.StatusChangedAt
			out = append(out, r)
		}

	case domain.TriggerContactUnanswered:
		contacts, err := s.contactRepo.ListNewCreatedBefore(ctx, cutoff, s.scanLimit)
		if err != nil {
			return nil, err
		}
		for _, c := range contacts {
			r := base
			r.EntityType = "contact"
			r.EntityID = c.ID
			r.Title = c.Name
			r.Since = c.CreatedAt
			out = append(out, r)
		}

	default:
		s.logger.Warn("unknown reminder trigger", zap.String("rule_id", rule.ID), zap.String("trigger", string(rule.Trigger)))
	}
	return out, nil
}

func followUpTitle(f domain.RequestFollowUp) string {
	if f.Description != "" {
		return f.Description
	}
	return string(f.Type)
}
