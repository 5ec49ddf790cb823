package service

import (
	"context"
	"sort"
	"time"

	"velorent/internal/domain"
	"velorent/internal/models"
)

type ReportService struct {
	repo domain.ReportRepository
}

func NewReportService(repo domain.ReportRepository) *ReportService {
	return &ReportService{repo: repo}
}

// FSNAnalysis classifies every product as fast, slow or non-moving by the number of
// confirmed bookings created during the trailing window ending at now.
func (s *ReportService) FSNAnalysis(ctx context.Context, now time.Time) (*models.FSNReport, error) {
	since := now.AddDate(0, -models.FSNWindowMonths, 0)

	products, err := s.repo.AllProducts(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.repo.GetConfirmedBookingsSince(ctx, since)
	if err != nil {
		return nil, err
	}
	lastBooked, err := s.repo.LastBookedAtByProduct(ctx)
	if err != nil {
		return nil, err
	}

	type usage struct {
		count int
		last  time.Time
	}
	byProduct := make(map[int64]*usage, len(products))
	for _, b := range bookings {
		u := byProduct[b.ProductID]
		if u == nil {
			u = &usage{}
			byProduct[b.ProductID] = u
		}
		u.count++
		if b.CreatedAt.After(u.last) {
			u.last = b.CreatedAt
		}
	}

	report := &models.FSNReport{
		GeneratedAt: now,
		Since:       since,
		Fast:        []models.FSNEntry{},
		Slow:        []models.FSNEntry{},
		NonMoving:   []models.FSNEntry{},
	}
	for _, p := range products {
		entry := models.FSNEntry{
			ProductID:    p.ID,
			Name:         p.Name,
			Category:     p.Category,
			LastBookedAt: time.Unix(0, 0).UTC(),
		}
		if last, ok := lastBooked[p.ID]; ok {
			entry.LastBookedAt = last
		}
		if u := byProduct[p.ID]; u != nil {
			entry.BookingCount = u.count
			if u.last.After(entry.LastBookedAt) {
				entry.LastBookedAt = u.last
			}
		}
		entry.Movement = Movement(entry.BookingCount)

		switch entry.Movement {
		case models.MovementFast:
			report.Fast = append(report.Fast, entry)
		case models.MovementSlow:
			report.Slow = append(report.Slow, entry)
		default:
			report.NonMoving = append(report.NonMoving, entry)
		}
	}

	byCount := func(entries []models.FSNEntry) {
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].BookingCount != entries[j].BookingCount {
				return entries[i].BookingCount > entries[j].BookingCount
			}
			return entries[i].ProductID < entries[j].ProductID
		})
	}
	byCount(report.Fast)
	byCount(report.Slow)
	sort.SliceStable(report.NonMoving, func(i, j int) bool {
		return report.NonMoving[i].LastBookedAt.After(report.NonMoving[j].LastBookedAt)
	})

	return report, nil
}

// Movement maps a confirmed booking count to its FSN class.
func Movement(count int) string {
	switch {
	case count >= models.FSNFastThreshold:
		return models.MovementFast
	case count > 0:
		return models.MovementSlow
	default:
		return models.MovementNonMoving
	}
}
