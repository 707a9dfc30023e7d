package reminders

import (
	"math"
	"sort"
	"time"
)

// Policy is the effective reminder configuration for one user.
type Policy struct {
	Enabled    bool  `json:"enabled"`
	DaysBefore int   `json:"days_before"`
	OnDueDate  bool  `json:"on_due_date"`
	DaysAfter  []int `json:"days_after"`
}

func DefaultPolicy() Policy {
	return Policy{
		Enabled:    true,
		DaysBefore: 3,
		OnDueDate:  true,
		DaysAfter:  []int{7, 14, 30},
	}
}

// Merge applies stored overrides on top of def. Each field is taken from s
// when set there, otherwise from def. A nil s yields def unchanged.
func Merge(def Policy, s *Settings) Policy {
	out := def
	out.DaysAfter = append([]int(nil), def.DaysAfter...)
	if s == nil {
		return out
	}
	if s.Enabled != nil {
		out.Enabled = *s.Enabled
	}
	if s.DaysBefore != nil {
		out.DaysBefore = *s.DaysBefore
	}
	if s.OnDueDate != nil {
		out.OnDueDate = *s.OnDueDate
	}
	if s.DaysAfter != nil {
		out.DaysAfter = normalizeDays(s.DaysAfter)
	}
	return out
}

func normalizeDays(days []int) []int {
	seen := make(map[int]bool, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d > 0 && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysSinceDue counts whole UTC calendar days from the due date to now.
// It is negative before the due date.
func DaysSinceDue(due, now time.Time) int {
	return int(utcDate(now).Sub(utcDate(due)).Hours() / 24)
}

// Due names the reminder an invoice needs today.
type Due struct {
	Type   Type
	Offset int
}

// Eligible reports which reminder, if any, an invoice due on `due` should
// get on `now` under p.
func Eligible(p Policy, due, now time.Time) (Due, bool) {
	if !p.Enabled {
		return Due{}, false
	}
	days := DaysSinceDue(due, now)
	switch {
	case days < 0:
		if p.DaysBefore > 0 && -days == p.DaysBefore {
			return Due{Type: TypeUpcoming, Offset: days}, true
		}
	case days == 0:
		if p.OnDueDate {
			return Due{Type: TypeDueToday, Offset: 0}, true
		}
	default:
		for _, d := range p.DaysAfter {
			if d == days {
				return Due{Type: TypeOverdue, Offset: days}, true
			}
		}
	}
	return Due{}, false
}

// EffectiveWindow is how soon after a reminder a payment must land to count.
const EffectiveWindow = 7 * 24 * time.Hour

// StatsWindow is the trailing period the effectiveness figure covers.
const StatsWindow = 30 * 24 * time.Hour

// Effective reports whether a payment at paidAt followed a reminder sent at
// sentAt closely enough to credit the reminder.
func Effective(sentAt time.Time, paidAt *time.Time) bool {
	if paidAt == nil || !paidAt.After(sentAt) {
		return false
	}
	return paidAt.Sub(sentAt) <= EffectiveWindow
}

// Effectiveness is the rounded percentage of effective reminders. Zero sent
// gives zero.
func Effectiveness(effective, sent int) int {
	if sent == 0 {
		return 0
	}
	return int(math.Round(100 * float64(effective) / float64(sent)))
}
