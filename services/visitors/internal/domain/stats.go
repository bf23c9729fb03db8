package domain

import "time"

type Timeframe string

const (
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeYearly  Timeframe = "yearly"
)

func ParseTimeframe(s string) (Timeframe, bool) {
	switch Timeframe(s) {
	case "":
		return TimeframeWeekly, true
	case TimeframeWeekly, TimeframeMonthly, TimeframeYearly:
		return Timeframe(s), true
	default:
		return "", false
	}
}

// TrendPoint is one bucket of the visitor trend chart.
type TrendPoint struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	Count int       `json:"count"`
}

type GenderCounts struct {
	Male   int `json:"male"`
	Female int `json:"female"`
}

type AddressCount struct {
	Address string `json:"name" db:"address"`
	Count   int    `json:"count" db:"count"`
}

// VisitTimes is the pair of clock values of one completed visit.
type VisitTimes struct {
	TimeIn  string `db:"time_in"`
	TimeOut string `db:"time_out"`
}

// CountFilter narrows a visitor count. Zero values mean unbounded.
type CountFilter struct {
	Gender Gender
	From   time.Time
	To     time.Time
}

type SummaryMetrics struct {
	TotalVisitors        int    `json:"totalVisitors"`
	TotalVisitorsChange  int    `json:"totalVisitorsChange"`
	MaleVisitors         int    `json:"maleVisitors"`
	MaleVisitorsChange   int    `json:"maleVisitorsChange"`
	FemaleVisitors       int    `json:"femaleVisitors"`
	FemaleVisitorsChange int    `json:"femaleVisitorsChange"`
	TodayVisitors        int    `json:"todayVisitors"`
	VisitorsChange       int    `json:"visitorsChange"`
	AverageDuration      string `json:"averageDuration"`
	ActiveAdmins         int    `json:"activeAdmins"`
}
