package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"sensai/internal/companion"
	"sensai/internal/logger"
	"sensai/internal/models"
	"sensai/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
	log       *logger.Logger
}

func NewEventLogService(eventRepo repository.EventRepo, log *logger.Logger) *EventLogService {
	if log == nil {
		log = logger.Nop()
	}
	return &EventLogService{eventRepo: eventRepo, log: log}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	return from, to, eventType, nil
}

// List returns the caller's journal entries.
func (s *EventLogService) List(ctx context.Context, userID int, f LogFilter) ([]models.CompanionEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, strconv.Itoa(userID), from, to, typ)
}

// For returns the journal a user's companion writes to.
func (s *EventLogService) For(userID string) companion.Journal {
	return &userJournal{svc: s, userID: userID}
}

type userJournal struct {
	svc    *EventLogService
	userID string
}

// Record appends an entry; failures are logged and otherwise ignored.
func (j *userJournal) Record(ctx context.Context, typ, description string, meta map[string]any) {
	ev := models.CompanionEvent{
		UserID:      j.userID,
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: description,
	}
	if len(meta) > 0 {
		ev.Metadata = meta
	}
	if err := j.svc.eventRepo.Append(ctx, ev); err != nil {
		j.svc.log.Warnw("journal_append_failed", "user_id", j.userID, "type", typ, "err", err)
	}
}
