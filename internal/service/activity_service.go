package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/styledna/api/internal/model"
	"github.com/styledna/api/internal/store"
)

// dateLayout is the day-partition key format.
const dateLayout = "2006-01-02"

// ActivityService appends to and reads the per-user day logs. Day
// boundaries are computed in one fixed zone so a record lands in the
// same partition no matter where the request came from.
type ActivityService struct {
	store  store.ActivityStore
	zone   *time.Location
	logger *slog.Logger
}

// NewActivityService creates an activity service partitioning days in
// the named time zone.
func NewActivityService(st store.ActivityStore, timezone string, logger *slog.Logger) (*ActivityService, error) {
	zone, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid activity timezone %q: %w", timezone, err)
	}

	return &ActivityService{
		store:  st,
		zone:   zone,
		logger: logger,
	}, nil
}

// Log appends one record to today's log. Best-effort telemetry: it
// never returns an error, only false when the append did not land, and
// the failure itself is logged server-side.
func (s *ActivityService) Log(ctx context.Context, userID, action string, details map[string]any) bool {
	now := time.Now()
	rec := &model.ActivityRecord{
		Timestamp: now.UTC(),
		Action:    action,
		Details:   details,
	}

	date := now.In(s.zone).Format(dateLayout)
	if err := s.store.Append(ctx, userID, date, rec); err != nil {
		s.logger.Warn("activity append failed",
			"user_id", userID,
			"action", action,
			"error", err)
		return false
	}

	return true
}

// Today returns the current day's log for a user.
func (s *ActivityService) Today(ctx context.Context, userID string) (*model.ActivityDay, error) {
	return s.Day(ctx, userID, time.Now().In(s.zone).Format(dateLayout))
}

// Day returns one day's log. An absent day yields the fixed empty
// shape, not an error.
func (s *ActivityService) Day(ctx context.Context, userID, date string) (*model.ActivityDay, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	records, err := s.store.Day(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	if records == nil {
		records = []model.ActivityRecord{}
	}

	return &model.ActivityDay{
		Date:       date,
		Activities: records,
	}, nil
}
