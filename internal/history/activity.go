package history

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StudyDays returns the distinct UTC days with any recorded activity, oldest first.
func (h History) StudyDays() []time.Time {
	set := make(map[time.Time]bool)
	for _, p := range h.Practice {
		set[Day(p.TakenAt)] = true
	}
	for _, r := range h.Tests {
		set[Day(r.TakenAt)] = true
	}
	for _, l := range h.Lessons {
		set[Day(l.CompletedAt)] = true
	}
	for _, c := range h.Concepts {
		set[Day(c.AttemptedAt)] = true
	}
	days := make([]time.Time, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// LastActivity returns the latest timestamp across all records.
func (h History) LastActivity() (time.Time, bool) {
	var last time.Time
	bump := func(t time.Time) {
		if t.After(last) {
			last = t
		}
	}
	for _, p := range h.Practice {
		bump(p.TakenAt)
	}
	for _, r := range h.Tests {
		bump(r.TakenAt)
	}
	for _, l := range h.Lessons {
		bump(l.CompletedAt)
	}
	for _, c := range h.Concepts {
		bump(c.AttemptedAt)
	}
	return last, !last.IsZero()
}

// DaysSince returns whole UTC calendar days between t and now.
func DaysSince(t, now time.Time) int {
	d := int(Day(now).Sub(Day(t)).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// QuestionsAnswered returns the number of questions answered across practice
// sessions and standalone concept attempts, whichever is larger.
func (h History) QuestionsAnswered() int {
	practice := 0
	for _, p := range h.Practice {
		practice += p.Total
	}
	if len(h.Concepts) > practice {
		return len(h.Concepts)
	}
	return practice
}

// ModuleIDs returns every module id that appears in the history, sorted.
func (h History) ModuleIDs() []string {
	set := make(map[string]bool)
	for _, p := range h.Practice {
		set[p.ModuleID] = true
	}
	for _, r := range h.Tests {
		set[r.ModuleID] = true
	}
	for _, l := range h.Lessons {
		set[l.ModuleID] = true
	}
	for _, c := range h.Concepts {
		set[c.ModuleID] = true
	}
	ids := lo.Keys(set)
	sort.Strings(ids)
	return ids
}
