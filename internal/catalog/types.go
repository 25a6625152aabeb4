package catalog

// Question is an immutable catalog entry.
type Question struct {
	ID           string   `json:"id"`
	ModuleID     string   `json:"module_id"`
	ConceptSlug  string   `json:"concept"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	Remember     string   `json:"remember"`
}

// IsCorrect reports whether the option at index answers the question.
func (q Question) IsCorrect(index int) bool {
	return index == q.CorrectIndex
}

// CorrectOption returns the text of the correct option.
func (q Question) CorrectOption() string {
	return q.Options[q.CorrectIndex]
}

// Module is a unit of the course: lessons, a practice pool and a gating test.
type Module struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Order   int      `json:"order"`
	Lessons []string `json:"lessons"`
}

// Concept is a named idea examined by one or more questions.
type Concept struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	ModuleID string `json:"module_id"`
}

// document is the on-disk shape of a catalog file.
type document struct {
	Version   string     `json:"version"`
	Title     string     `json:"title"`
	Modules   []Module   `json:"modules"`
	Concepts  []Concept  `json:"concepts"`
	Questions []Question `json:"questions"`
}
