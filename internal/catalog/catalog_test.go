package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDefault(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	require.NoError(t, err)
	return c
}

func TestDefault_Loads(t *testing.T) {
	c := mustDefault(t)
	assert.Equal(t, "1.0.0", c.Version())
	assert.Equal(t, []string{"hazards", "temperature", "cleaning"}, c.ModuleOrder())
	assert.Len(t, c.Questions(), 18)
	assert.Equal(t, 9, c.ConceptCount())
}

func TestQuestionsForModule(t *testing.T) {
	c := mustDefault(t)
	tests := []struct {
		module string
		want   int
	}{
		{"hazards", 6},
		{"temperature", 6},
		{"cleaning", 6},
		{"missing", 0},
	}
	for _, tt := range tests {
		qs := c.QuestionsForModule(tt.module)
		if len(qs) != tt.want {
			t.Errorf("QuestionsForModule(%q) = %d questions, want %d", tt.module, len(qs), tt.want)
		}
		for _, q := range qs {
			if q.ModuleID != tt.module {
				t.Errorf("question %s has module %s, want %s", q.ID, q.ModuleID, tt.module)
			}
		}
	}
}

func TestQuestionsForModule_ReturnsCopy(t *testing.T) {
	c := mustDefault(t)
	qs := c.QuestionsForModule("hazards")
	qs[0].Prompt = "mutated"
	q, ok := c.Question(qs[0].ID)
	require.True(t, ok)
	assert.NotEqual(t, "mutated", q.Prompt)
}

func TestQuestionsForConcepts(t *testing.T) {
	c := mustDefault(t)
	qs := c.QuestionsForConcepts("allergens", "danger-zone", "allergens")
	require.Len(t, qs, 4)
	assert.Equal(t, "allergens", qs[0].ConceptSlug)
	assert.Equal(t, "danger-zone", qs[3].ConceptSlug)
}

func TestQuestion_IsCorrect(t *testing.T) {
	c := mustDefault(t)
	q, ok := c.Question("tc-01")
	require.True(t, ok)
	assert.True(t, q.IsCorrect(1))
	assert.False(t, q.IsCorrect(0))
	assert.Equal(t, "5 to 63 C", q.CorrectOption())
}

func TestBoostPool(t *testing.T) {
	c := mustDefault(t)

	pool := BoostPool(c, []string{"chilling", "pest-control"}, 3)
	require.Len(t, pool, 3)
	assert.Equal(t, "chilling", pool[0].ConceptSlug)
	assert.Equal(t, "pest-control", pool[1].ConceptSlug)
	assert.Equal(t, "chilling", pool[2].ConceptSlug)

	all := BoostPool(c, []string{"chilling", "unknown"}, 0)
	assert.Len(t, all, 2)

	assert.Empty(t, BoostPool(c, nil, 5))
}

func TestLoad_RejectsSchemaViolations(t *testing.T) {
	_, err := Load([]byte(`{"version":"1.0.0","title":"x","modules":[],"concepts":[],"questions":[]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")

	_, err = Load([]byte(`not json`))
	require.Error(t, err)
}

func TestLoad_RejectsUnsupportedVersion(t *testing.T) {
	doc := strings.Replace(string(defaultCatalog), `"version": "1.0.0"`, `"version": "2.1.0"`, 1)
	_, err := Load([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")

	doc = strings.Replace(string(defaultCatalog), `"version": "1.0.0"`, `"version": "latest"`, 1)
	_, err = Load([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a semantic version")
}

func TestLoad_RejectsDanglingReferences(t *testing.T) {
	doc := `{
		"version": "v1.0.0",
		"title": "t",
		"modules": [{"id": "m1", "title": "M1", "order": 1}],
		"concepts": [{"slug": "c1", "name": "C1", "module_id": "m2"}],
		"questions": [
			{"id": "q1", "module_id": "m1", "concept": "c9", "prompt": "p", "options": ["a", "b"], "correct_index": 2},
			{"id": "q1", "module_id": "m1", "concept": "c1", "prompt": "p", "options": ["a", "b"], "correct_index": 0}
		]
	}`
	_, err := Load([]byte(doc))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `concept "c1" references nonexistent module "m2"`)
	assert.Contains(t, msg, `nonexistent concept "c9"`)
	assert.Contains(t, msg, "correct_index 2 out of range")
	assert.Contains(t, msg, `duplicate question ID: "q1"`)
}

type countingSource struct {
	calls    int
	concepts []Concept
}

func (s *countingSource) Concepts() []Concept {
	s.calls++
	return s.concepts
}

func TestConceptCache_TTLAndInvalidate(t *testing.T) {
	src := &countingSource{concepts: []Concept{{Slug: "a", Name: "A", ModuleID: "m"}}}
	cache := NewConceptCache(src, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cc, ok := cache.ResolveConcept("a")
	require.True(t, ok)
	assert.Equal(t, "A", cc.Name)
	assert.Equal(t, 1, cache.ConceptCount())
	assert.Equal(t, 1, src.calls)

	now = now.Add(2 * time.Minute)
	src.concepts = append(src.concepts, Concept{Slug: "b", Name: "B", ModuleID: "m"})
	assert.Equal(t, 2, cache.ConceptCount())
	assert.Equal(t, 2, src.calls)

	src.concepts = src.concepts[:1]
	cache.Invalidate()
	_, ok = cache.ResolveConcept("b")
	assert.False(t, ok)
	assert.Equal(t, 3, src.calls)
}
