// Package ledger tracks per-question correct and wrong counts within a drill
// session. A Ledger is a value: RecordAttempt returns a new ledger and leaves
// its input untouched.
package ledger

import (
	"sort"
	"time"
)

// QuestionPerformance is the session record for a single question.
type QuestionPerformance struct {
	QuestionID string    `json:"question_id"`
	Correct    int       `json:"correct"`
	Wrong      int       `json:"wrong"`
	LastSeen   time.Time `json:"last_seen"`
}

// Attempts returns the number of times the question was answered.
func (p QuestionPerformance) Attempts() int {
	return p.Correct + p.Wrong
}

// Ledger maps question ids to their session performance.
// The zero value is an empty ledger.
type Ledger struct {
	records map[string]QuestionPerformance
}

// New builds a ledger from existing records, keyed by QuestionID.
func New(records ...QuestionPerformance) Ledger {
	m := make(map[string]QuestionPerformance, len(records))
	for _, r := range records {
		m[r.QuestionID] = r
	}
	return Ledger{records: m}
}

// RecordAttempt returns a copy of l with one more attempt recorded for questionID.
func RecordAttempt(l Ledger, questionID string, correct bool, now time.Time) Ledger {
	next := make(map[string]QuestionPerformance, len(l.records)+1)
	for id, r := range l.records {
		next[id] = r
	}

	r, ok := next[questionID]
	if !ok {
		r = QuestionPerformance{QuestionID: questionID}
	}
	if correct {
		r.Correct++
	} else {
		r.Wrong++
	}
	r.LastSeen = now
	next[questionID] = r

	return Ledger{records: next}
}

// Get returns the record for questionID. ok is false for unseen questions.
func (l Ledger) Get(questionID string) (QuestionPerformance, bool) {
	r, ok := l.records[questionID]
	return r, ok
}

// Len returns the number of distinct questions attempted.
func (l Ledger) Len() int {
	return len(l.records)
}

// Records returns all records sorted by question id.
func (l Ledger) Records() []QuestionPerformance {
	out := make([]QuestionPerformance, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

// MostRecent returns the record with the latest LastSeen. Ties resolve to the
// smallest question id so the result is deterministic.
func (l Ledger) MostRecent() (QuestionPerformance, bool) {
	var best QuestionPerformance
	found := false
	for _, r := range l.records {
		if !found || r.LastSeen.After(best.LastSeen) ||
			(r.LastSeen.Equal(best.LastSeen) && r.QuestionID < best.QuestionID) {
			best = r
			found = true
		}
	}
	return best, found
}

// Totals returns the summed correct and wrong counts over all questions.
func (l Ledger) Totals() (correct, wrong int) {
	for _, r := range l.records {
		correct += r.Correct
		wrong += r.Wrong
	}
	return correct, wrong
}
