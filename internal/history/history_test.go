package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/certprep/internal/apperr"
)

var now = time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

func sample() History {
	return History{
		LearnerID: "l1",
		Practice: []PracticeAttempt{
			{ModuleID: "hazards", Mode: ModeFullQuiz, Correct: 8, Total: 10, Score: 80, TakenAt: now.AddDate(0, 0, -3)},
			{ModuleID: "temperature", Mode: ModeSmartDrill, Correct: 3, Total: 5, Score: 60, TakenAt: now.AddDate(0, 0, -1)},
		},
		Tests: []ModuleTestResult{
			{ModuleID: "hazards", Passed: true, Score: 85, TakenAt: now.AddDate(0, 0, -2)},
		},
		Lessons: []LessonCompletion{
			{ModuleID: "cleaning", LessonID: "cleaning-pests", CompletedAt: now.AddDate(0, 0, -3).Add(time.Hour)},
		},
		Concepts: []ConceptAttempt{
			{ConceptSlug: "allergens", ModuleID: "hazards", Correct: true, ResponseTimeMs: 4000, AttemptedAt: now.AddDate(0, 0, -1)},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, sample().Validate())
	require.NoError(t, History{}.Validate())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(h *History)
		field string
	}{
		{"score above 100", func(h *History) { h.Practice[0].Score = 120 }, "practice[0].score"},
		{"negative count", func(h *History) { h.Practice[1].Correct = -1 }, "practice[1].correct"},
		{"correct exceeds total", func(h *History) { h.Practice[0].Correct = 11 }, "practice[0].correct"},
		{"unknown mode", func(h *History) { h.Practice[0].Mode = "marathon" }, "practice[0].mode"},
		{"empty test module", func(h *History) { h.Tests[0].ModuleID = "" }, "tests[0].module_id"},
		{"zero lesson time", func(h *History) { h.Lessons[0].CompletedAt = time.Time{} }, "lessons[0].completed_at"},
		{"negative response time", func(h *History) { h.Concepts[0].ResponseTimeMs = -5 }, "concepts[0].response_time_ms"},
		{"empty concept", func(h *History) { h.Concepts[0].ConceptSlug = "" }, "concepts[0].concept"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := sample()
			tt.mut(&h)
			err := h.Validate()
			require.Error(t, err)
			var inv *apperr.InvalidInput
			require.ErrorAs(t, err, &inv)
			assert.Equal(t, tt.field, inv.Field)
		})
	}
}

func TestStudyDays(t *testing.T) {
	days := sample().StudyDays()
	require.Len(t, days, 3)
	assert.Equal(t, Day(now.AddDate(0, 0, -3)), days[0])
	assert.Equal(t, Day(now.AddDate(0, 0, -1)), days[2])
}

func TestLastActivity(t *testing.T) {
	_, ok := History{}.LastActivity()
	assert.False(t, ok)

	last, ok := sample().LastActivity()
	require.True(t, ok)
	assert.Equal(t, now.AddDate(0, 0, -1), last)
}

func TestDaysSince(t *testing.T) {
	assert.Equal(t, 0, DaysSince(now, now))
	assert.Equal(t, 1, DaysSince(now.Add(-16*time.Hour), now), "previous calendar day")
	assert.Equal(t, 0, DaysSince(now.Add(time.Hour*48), now))
}

func TestQuestionsAnsweredAndModules(t *testing.T) {
	h := sample()
	assert.Equal(t, 15, h.QuestionsAnswered())
	assert.Equal(t, []string{"cleaning", "hazards", "temperature"}, h.ModuleIDs())
	assert.False(t, h.IsEmpty())
	assert.True(t, History{LearnerID: "x"}.IsEmpty())
}

func TestPracticeAccuracy(t *testing.T) {
	assert.Equal(t, 0.0, PracticeAttempt{}.Accuracy())
	assert.InDelta(t, 0.6, sample().Practice[1].Accuracy(), 1e-9)
}
