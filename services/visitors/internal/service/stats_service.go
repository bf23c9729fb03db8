package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/visitor-desk/pkg/logger"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/policy"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/repository"
)

const topAddressLimit = 5

type StatsService interface {
	Summary(ctx context.Context, actor domain.Actor) (*domain.SummaryMetrics, error)
	Trends(ctx context.Context, actor domain.Actor, tf domain.Timeframe) ([]domain.TrendPoint, error)
	Gender(ctx context.Context, actor domain.Actor) (*domain.GenderCounts, error)
	TopAddresses(ctx context.Context, actor domain.Actor) ([]domain.AddressCount, error)
}

type statsService struct {
	stats repository.StatsRepository
	cache *expirable.LRU[string, any]
	now   func() time.Time
}

// NewStatsService caches aggregates for ttl. A zero ttl disables caching.
func NewStatsService(stats repository.StatsRepository, ttl time.Duration) StatsService {
	s := &statsService{stats: stats, now: time.Now}
	if ttl > 0 {
		s.cache = expirable.NewLRU[string, any](32, nil, ttl)
	}
	return s
}

func (s *statsService) Summary(ctx context.Context, actor domain.Actor) (*domain.SummaryMetrics, error) {
	if err := policy.Authorize(actor, policy.StatsView, nil); err != nil {
		return nil, err
	}
	v, err := s.cached(ctx, "summary", func(ctx context.Context) (any, error) {
		return s.summary(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.SummaryMetrics), nil
}

func (s *statsService) Trends(ctx context.Context, actor domain.Actor, tf domain.Timeframe) ([]domain.TrendPoint, error) {
	if err := policy.Authorize(actor, policy.StatsView, nil); err != nil {
		return nil, err
	}
	tf, ok := domain.ParseTimeframe(string(tf))
	if !ok {
		return nil, domain.ValidationError("timeframe must be weekly, monthly or yearly", "timeframe")
	}
	v, err := s.cached(ctx, "trends:"+string(tf), func(ctx context.Context) (any, error) {
		return s.trends(ctx, tf)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.TrendPoint), nil
}

func (s *statsService) Gender(ctx context.Context, actor domain.Actor) (*domain.GenderCounts, error) {
	if err := policy.Authorize(actor, policy.StatsView, nil); err != nil {
		return nil, err
	}
	v, err := s.cached(ctx, "gender", func(ctx context.Context) (any, error) {
		counts, err := s.stats.GenderCounts(ctx)
		if err != nil {
			return nil, err
		}
		return &counts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.GenderCounts), nil
}

func (s *statsService) TopAddresses(ctx context.Context, actor domain.Actor) ([]domain.AddressCount, error) {
	if err := policy.Authorize(actor, policy.StatsView, nil); err != nil {
		return nil, err
	}
	v, err := s.cached(ctx, "top-addresses", func(ctx context.Context) (any, error) {
		rows, err := s.stats.TopAddresses(ctx, topAddressLimit)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []domain.AddressCount{}
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.AddressCount), nil
}

func (s *statsService) cached(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v, nil
		}
	}
	v, err := load(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load stats", "key", key, "error", err)
		return nil, domain.NetworkError("Failed to load statistics", err)
	}
	if s.cache != nil {
		s.cache.Add(key, v)
	}
	return v, nil
}

func (s *statsService) clock() time.Time {
	return s.now().UTC()
}

func (s *statsService) summary(ctx context.Context) (*domain.SummaryMetrics, error) {
	now := s.clock()
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)
	thisWeek := startOfWeek(now)
	lastWeek := thisWeek.AddDate(0, 0, -7)

	var (
		m                          domain.SummaryMetrics
		weekTotal, lastWeekTotal   int
		weekMale, lastWeekMale     int
		weekFemale, lastWeekFemale int
		todayCount, yesterdayCount int
		visits                     []domain.VisitTimes
	)

	g, ctx := errgroup.WithContext(ctx)
	count := func(dst *int, f domain.CountFilter) {
		g.Go(func() error {
			n, err := s.stats.Count(ctx, f)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	count(&m.TotalVisitors, domain.CountFilter{})
	count(&m.MaleVisitors, domain.CountFilter{Gender: domain.GenderMale})
	count(&m.FemaleVisitors, domain.CountFilter{Gender: domain.GenderFemale})
	count(&weekTotal, domain.CountFilter{From: thisWeek, To: tomorrow})
	count(&lastWeekTotal, domain.CountFilter{From: lastWeek, To: thisWeek})
	count(&weekMale, domain.CountFilter{Gender: domain.GenderMale, From: thisWeek, To: tomorrow})
	count(&lastWeekMale, domain.CountFilter{Gender: domain.GenderMale, From: lastWeek, To: thisWeek})
	count(&weekFemale, domain.CountFilter{Gender: domain.GenderFemale, From: thisWeek, To: tomorrow})
	count(&lastWeekFemale, domain.CountFilter{Gender: domain.GenderFemale, From: lastWeek, To: thisWeek})
	count(&todayCount, domain.CountFilter{From: today, To: tomorrow})
	count(&yesterdayCount, domain.CountFilter{From: yesterday, To: today})

	g.Go(func() error {
		rows, err := s.stats.CompletedVisits(ctx)
		if err != nil {
			return err
		}
		visits = rows
		return nil
	})
	g.Go(func() error {
		n, err := s.stats.ActiveStaffCreators(ctx)
		if err != nil {
			return err
		}
		m.ActiveAdmins = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	m.TotalVisitorsChange = percentChange(weekTotal, lastWeekTotal)
	m.MaleVisitorsChange = percentChange(weekMale, lastWeekMale)
	m.FemaleVisitorsChange = percentChange(weekFemale, lastWeekFemale)
	m.TodayVisitors = todayCount
	m.VisitorsChange = dailyChange(todayCount, yesterdayCount)
	m.AverageDuration = averageDuration(ctx, visits)
	return &m, nil
}

func (s *statsService) trends(ctx context.Context, tf domain.Timeframe) ([]domain.TrendPoint, error) {
	points := trendBuckets(tf, s.clock())
	from := points[0].Start
	to := bucketEnd(tf, points[len(points)-1].Start)

	created, err := s.stats.CreatedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	for _, ts := range created {
		ts = ts.UTC()
		for i := len(points) - 1; i >= 0; i-- {
			if !ts.Before(points[i].Start) {
				points[i].Count++
				break
			}
		}
	}
	return points, nil
}

// trendBuckets returns the empty, oldest-first buckets ending at now:
// 7 days, 30 days or 12 months.
func trendBuckets(tf domain.Timeframe, now time.Time) []domain.TrendPoint {
	today := startOfDay(now)
	var points []domain.TrendPoint
	switch tf {
	case domain.TimeframeYearly:
		month := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		for i := 11; i >= 0; i-- {
			start := month.AddDate(0, -i, 0)
			points = append(points, domain.TrendPoint{Label: start.Format("Jan"), Start: start})
		}
	case domain.TimeframeMonthly:
		for i := 29; i >= 0; i-- {
			start := today.AddDate(0, 0, -i)
			points = append(points, domain.TrendPoint{Label: start.Format("Jan 2"), Start: start})
		}
	default:
		for i := 6; i >= 0; i-- {
			start := today.AddDate(0, 0, -i)
			points = append(points, domain.TrendPoint{Label: start.Format("Mon"), Start: start})
		}
	}
	return points
}

func bucketEnd(tf domain.Timeframe, start time.Time) time.Time {
	if tf == domain.TimeframeYearly {
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(0, 0, 1)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// startOfWeek returns the Monday on or before t.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func percentChange(current, previous int) int {
	if previous == 0 {
		return 0
	}
	return int(math.Round(float64(current-previous) / float64(previous) * 100))
}

func dailyChange(today, yesterday int) int {
	if yesterday == 0 {
		if today > 0 {
			return 100
		}
		return 0
	}
	return percentChange(today, yesterday)
}

func averageDuration(ctx context.Context, visits []domain.VisitTimes) string {
	total, n := 0, 0
	for _, v := range visits {
		minutes, err := domain.VisitMinutes(v.TimeIn, v.TimeOut)
		if err != nil {
			logger.DebugContext(ctx, "Skipping visit with unreadable times", "time_in", v.TimeIn, "time_out", v.TimeOut)
			continue
		}
		total += minutes
		n++
	}
	if n == 0 {
		return "0m"
	}
	return fmt.Sprintf("%dm", int(math.Round(float64(total)/float64(n))))
}
