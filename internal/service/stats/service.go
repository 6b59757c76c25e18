// Package stats aggregates classification records into dashboard series.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/kshitijgupta505/text-classify/internal/model/classification"
	"github.com/kshitijgupta505/text-classify/internal/store"
)

const dateLayout = "2006-01-02"

// Service answers the dashboard queries over stored classifications.
type Service struct {
	records store.ClassificationStore
	now     func() time.Time
}

// NewService builds the stats service.
func NewService(records store.ClassificationStore) *Service {
	return &Service{records: records, now: time.Now}
}

// RecentStats returns one zero-filled row per day for the last `days`
// days (UTC), oldest first, ending today.
func (s *Service) RecentStats(ctx context.Context, userID string, days int) ([]classification.DailyStat, error) {
	if days < 1 {
		days = 1
	}

	now := s.now().UTC()
	start := dayStart(now.AddDate(0, 0, -(days - 1)))

	records, err := s.records.ListClassifications(ctx, userID, start, now)
	if err != nil {
		return nil, fmt.Errorf("load classifications: %w", err)
	}

	rows := make([]classification.DailyStat, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format(dateLayout)
		rows[i] = classification.DailyStat{Date: date}
		index[date] = i
	}

	for _, r := range records {
		i, ok := index[r.Timestamp.UTC().Format(dateLayout)]
		if !ok {
			continue
		}
		countInto(&rows[i], r.Type)
	}

	return rows, nil
}

// DayStat returns the single row for the day containing ts.
func (s *Service) DayStat(ctx context.Context, userID string, ts time.Time) (classification.DailyStat, error) {
	start := dayStart(ts.UTC())
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)

	records, err := s.records.ListClassifications(ctx, userID, start, end)
	if err != nil {
		return classification.DailyStat{}, fmt.Errorf("load classifications: %w", err)
	}

	row := classification.DailyStat{Date: start.Format(dateLayout)}
	for _, r := range records {
		countInto(&row, r.Type)
	}
	return row, nil
}

// Distribution aggregates per-type counts and mean confidence over
// [from, to]. Zero times default to the last 30 days ending now.
func (s *Service) Distribution(ctx context.Context, userID string, from, to time.Time) (classification.Distribution, error) {
	now := s.now().UTC()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = dayStart(now.AddDate(0, 0, -30))
	}

	records, err := s.records.ListClassifications(ctx, userID, from, to)
	if err != nil {
		return classification.Distribution{}, fmt.Errorf("load classifications: %w", err)
	}

	var dist classification.Distribution
	var sums classification.ConfidenceAvgs
	for _, r := range records {
		switch r.Type {
		case classification.TypeLegitimate:
			dist.Legitimate++
			sums.Legitimate += r.Confidence
		case classification.TypeSpam:
			dist.Spam++
			sums.Spam += r.Confidence
		case classification.TypePhishing:
			dist.Phishing++
			sums.Phishing += r.Confidence
		}
	}
	dist.Total = len(records)

	if dist.Legitimate > 0 {
		dist.ConfidenceAvg.Legitimate = sums.Legitimate / float64(dist.Legitimate)
	}
	if dist.Spam > 0 {
		dist.ConfidenceAvg.Spam = sums.Spam / float64(dist.Spam)
	}
	if dist.Phishing > 0 {
		dist.ConfidenceAvg.Phishing = sums.Phishing / float64(dist.Phishing)
	}

	return dist, nil
}

func countInto(row *classification.DailyStat, recordType string) {
	switch recordType {
	case classification.TypeLegitimate:
		row.Legitimate++
	case classification.TypeSpam:
		row.Spam++
	case classification.TypePhishing:
		row.Phishing++
	}
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
