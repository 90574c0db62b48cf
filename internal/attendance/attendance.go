// Package attendance records staff check-ins. There is at most one record per
// staff member, date and staff kind; a later check-in replaces the earlier one.
package attendance

import (
	"context"
	"fmt"

	"park-ops/internal/logger"
	"park-ops/internal/models"
	"park-ops/internal/store"
	"park-ops/internal/utils"
)

type Recorder interface {
	Append(ctx context.Context, user, action, details string) (models.HistoryRecord, error)
}

type Service struct {
	Collections *store.Collections
	History     Recorder
	Badges      *BadgeGenerator
	Logger      *logger.Logger
}

func NewService(c *store.Collections, h Recorder, badges *BadgeGenerator, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{Collections: c, History: h, Badges: badges, Logger: log}
}

// CheckIn upserts rec, keyed by staff id, date and kind.
func (s *Service) CheckIn(ctx context.Context, rec models.AttendanceRecord, user string) (models.AttendanceRecord, error) {
	if _, err := utils.ParseDate(rec.Date); err != nil {
		return rec, utils.NewValidationError("date", err.Error())
	}
	kind := rec.StaffKind()
	rec.Kind = kind
	if !rec.AttendedBriefing {
		rec.BriefingTime = ""
	}

	name, err := s.staffName(ctx, kind, rec.OperatorID)
	if err != nil {
		return rec, err
	}

	err = s.Collections.UpdateAttendance(ctx, func(records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
		return upsert(records, rec), nil
	})
	if err != nil {
		return rec, err
	}

	details := fmt.Sprintf("%s checked in for %s", name, rec.Date)
	if rec.AttendedBriefing {
		details += " (attended briefing"
		if rec.BriefingTime != "" {
			details += " at " + rec.BriefingTime
		}
		details += ")"
	}
	if _, err := s.History.Append(ctx, user, "Check-In", details); err != nil {
		return rec, fmt.Errorf("check-in saved but history append failed: %w", err)
	}
	return rec, nil
}

// CheckInWithBadge decodes a badge token and checks its holder in.
func (s *Service) CheckInWithBadge(ctx context.Context, token, date string, attendedBriefing bool, briefingTime, user string) (models.AttendanceRecord, error) {
	if s.Badges == nil {
		return models.AttendanceRecord{}, fmt.Errorf("badge check-in is not configured")
	}
	badge, err := s.Badges.Decode(token)
	if err != nil {
		s.Logger.LogSecurity("BADGE_REJECTED", err.Error())
		return models.AttendanceRecord{}, utils.NewValidationError("badge", "badge could not be read")
	}
	return s.CheckIn(ctx, models.AttendanceRecord{
		OperatorID:       badge.StaffID,
		Date:             date,
		AttendedBriefing: attendedBriefing,
		BriefingTime:     briefingTime,
		Kind:             badge.Kind,
	}, user)
}

// Undo removes a check-in. Removing a missing record is not an error.
func (s *Service) Undo(ctx context.Context, staffID int, date string, kind models.StaffKind, user string) error {
	removed := false
	err := s.Collections.UpdateAttendance(ctx, func(records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
		out := records[:0:0]
		for _, r := range records {
			if r.Matches(staffID, date, kind) {
				removed = true
				continue
			}
			out = append(out, r)
		}
		return out, nil
	})
	if err != nil || !removed {
		return err
	}

	name, _ := s.staffName(ctx, kind, staffID)
	if _, err := s.History.Append(ctx, user, "Undo Check-In", fmt.Sprintf("%s check-in for %s removed", name, date)); err != nil {
		return fmt.Errorf("check-in removed but history append failed: %w", err)
	}
	return nil
}

// ForDate returns the check-ins of one kind on date.
func (s *Service) ForDate(ctx context.Context, date string, kind models.StaffKind) ([]models.AttendanceRecord, error) {
	records, err := s.Collections.Attendance(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.AttendanceRecord, 0)
	for _, r := range records {
		if r.Date == date && r.StaffKind() == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

// BadgeFor renders the QR badge of a staff member.
func (s *Service) BadgeFor(ctx context.Context, kind models.StaffKind, staffID, size int) ([]byte, error) {
	if s.Badges == nil {
		return nil, fmt.Errorf("badges are not configured")
	}
	name, err := s.staffName(ctx, kind, staffID)
	if err != nil {
		return nil, err
	}
	return s.Badges.PNG(Badge{StaffID: staffID, Kind: kind, Name: name}, size)
}

func (s *Service) staffName(ctx context.Context, kind models.StaffKind, id int) (string, error) {
	staff, err := s.Collections.Staff(ctx, kind)
	if err != nil {
		return "", err
	}
	for _, st := range staff {
		if st.ID == id {
			return st.Name, nil
		}
	}
	return "", utils.NewValidationError("operatorId", fmt.Sprintf("unknown %s id %d", kind, id))
}

func upsert(records []models.AttendanceRecord, rec models.AttendanceRecord) []models.AttendanceRecord {
	out := make([]models.AttendanceRecord, 0, len(records)+1)
	for _, r := range records {
		if r.Matches(rec.OperatorID, rec.Date, rec.StaffKind()) {
			continue
		}
		out = append(out, r)
	}
	return append(out, rec)
}
