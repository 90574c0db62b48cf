// Package history keeps the bounded audit log and the counter handover trail.
package history

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"park-ops/internal/kafka"
	"park-ops/internal/logger"
	"park-ops/internal/models"
	"park-ops/internal/store"
	"park-ops/internal/utils"
)

const (
	MaxHistory   = 1000
	MaxHandovers = 500
)

// Publisher mirrors audit records onto a message bus.
type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}

type Log struct {
	Collections *store.Collections
	Publisher   Publisher
	Logger      *logger.Logger

	clock *utils.IDClock
	now   func() time.Time
}

// NewLog returns a Log. pub may be nil.
func NewLog(c *store.Collections, pub Publisher, log *logger.Logger) *Log {
	if log == nil {
		log = logger.NewNop()
	}
	return &Log{
		Collections: c,
		Publisher:   pub,
		Logger:      log,
		clock:       utils.NewIDClock(),
		now:         time.Now,
	}
}

// Append prepends a record and keeps the newest MaxHistory.
func (l *Log) Append(ctx context.Context, user, action, details string) (models.HistoryRecord, error) {
	var rec models.HistoryRecord

	err := l.Collections.UpdateHistory(ctx, func(records []models.HistoryRecord) []models.HistoryRecord {
		var floor int64
		if len(records) > 0 {
			floor = records[0].ID
		}
		rec = models.HistoryRecord{
			ID:        l.clock.Next(floor),
			Timestamp: l.now().UTC(),
			User:      user,
			Action:    action,
			Details:   details,
		}
		return prepend(records, rec, MaxHistory)
	})
	if err != nil {
		return models.HistoryRecord{}, err
	}

	l.publish(ctx, kafka.TopicHistoryAppended, strconv.FormatInt(rec.ID, 10), rec)
	return rec, nil
}

// AppendHandover prepends rec, filling in its id and timestamp when unset,
// and keeps the newest MaxHandovers.
func (l *Log) AppendHandover(ctx context.Context, rec models.HandoverRecord) (models.HandoverRecord, error) {
	if rec.ID == "" {
		rec.ID = utils.GenerateUUID()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now().UTC()
	}

	err := l.Collections.UpdateHandovers(ctx, func(records []models.HandoverRecord) []models.HandoverRecord {
		return prepend(records, rec, MaxHandovers)
	})
	if err != nil {
		return models.HandoverRecord{}, err
	}

	l.publish(ctx, kafka.TopicHandoverCreated, rec.ID, rec)
	return rec, nil
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (l *Log) Recent(ctx context.Context, limit int) ([]models.HistoryRecord, error) {
	records, err := l.Collections.History(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Handovers returns the handover trail, newest first, optionally for one date.
func (l *Log) Handovers(ctx context.Context, date string) ([]models.HandoverRecord, error) {
	records, err := l.Collections.Handovers(ctx)
	if err != nil {
		return nil, err
	}
	if date == "" {
		return records, nil
	}
	out := make([]models.HandoverRecord, 0, len(records))
	for _, r := range records {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

// publish never fails the caller; the store write has already happened.
func (l *Log) publish(ctx context.Context, topic, key string, v any) {
	if l.Publisher == nil {
		return
	}
	if err := l.Publisher.PublishJSON(ctx, topic, key, v); err != nil {
		l.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish %s event %s: %v", topic, key, err))
	}
}

func prepend[T any](list []T, item T, max int) []T {
	n := len(list) + 1
	if n > max {
		n = max
	}
	out := make([]T, 0, n)
	out = append(out, item)
	for _, v := range list {
		if len(out) == n {
			break
		}
		out = append(out, v)
	}
	return out
}
