// Package catalog loads the static question bank and answers lookups against it.
// A Catalog is immutable after Load and safe to share between goroutines.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
)

//go:embed data/catalog.json
var defaultCatalog []byte

// Catalog holds the question bank with precomputed indices.
type Catalog struct {
	version   string
	title     string
	modules   []Module
	concepts  []Concept
	questions []Question

	moduleByID    map[string]*Module
	conceptBySlug map[string]*Concept
	questionByID  map[string]*Question
	byModule      map[string][]Question
	byConcept     map[string][]Question
}

// Default loads the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Load(defaultCatalog)
}

// Load parses and validates a catalog document.
func Load(data []byte) (*Catalog, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := validateVersion(doc.Version); err != nil {
		return nil, err
	}
	if err := validateReferences(doc); err != nil {
		return nil, err
	}
	return build(doc), nil
}

func build(doc document) *Catalog {
	c := &Catalog{
		version:       doc.Version,
		title:         doc.Title,
		modules:       doc.Modules,
		concepts:      doc.Concepts,
		questions:     doc.Questions,
		moduleByID:    make(map[string]*Module, len(doc.Modules)),
		conceptBySlug: make(map[string]*Concept, len(doc.Concepts)),
		questionByID:  make(map[string]*Question, len(doc.Questions)),
		byModule:      make(map[string][]Question),
		byConcept:     make(map[string][]Question),
	}

	sort.SliceStable(c.modules, func(i, j int) bool {
		return c.modules[i].Order < c.modules[j].Order
	})
	for i := range c.modules {
		c.moduleByID[c.modules[i].ID] = &c.modules[i]
	}
	for i := range c.concepts {
		c.conceptBySlug[c.concepts[i].Slug] = &c.concepts[i]
	}
	for i := range c.questions {
		q := c.questions[i]
		c.questionByID[q.ID] = &c.questions[i]
		c.byModule[q.ModuleID] = append(c.byModule[q.ModuleID], q)
		c.byConcept[q.ConceptSlug] = append(c.byConcept[q.ConceptSlug], q)
	}
	return c
}

// Version returns the semantic version of the loaded catalog.
func (c *Catalog) Version() string { return c.version }

// Title returns the course title.
func (c *Catalog) Title() string { return c.title }

// Modules returns the modules in course order.
func (c *Catalog) Modules() []Module {
	out := make([]Module, len(c.modules))
	copy(out, c.modules)
	return out
}

// ModuleOrder returns module ids in course order.
func (c *Catalog) ModuleOrder() []string {
	ids := make([]string, len(c.modules))
	for i, m := range c.modules {
		ids[i] = m.ID
	}
	return ids
}

// Module looks up a module by id.
func (c *Catalog) Module(id string) (Module, bool) {
	m, ok := c.moduleByID[id]
	if !ok {
		return Module{}, false
	}
	return *m, true
}

// Concepts returns every concept in the catalog.
func (c *Catalog) Concepts() []Concept {
	out := make([]Concept, len(c.concepts))
	copy(out, c.concepts)
	return out
}

// Concept looks up a concept by slug.
func (c *Catalog) Concept(slug string) (Concept, bool) {
	cc, ok := c.conceptBySlug[slug]
	if !ok {
		return Concept{}, false
	}
	return *cc, true
}

// Question looks up a question by id.
func (c *Catalog) Question(id string) (Question, bool) {
	q, ok := c.questionByID[id]
	if !ok {
		return Question{}, false
	}
	return *q, true
}

// Questions returns the full question bank.
func (c *Catalog) Questions() []Question {
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// QuestionsForModule returns the practice pool of a module.
func (c *Catalog) QuestionsForModule(moduleID string) []Question {
	src := c.byModule[moduleID]
	out := make([]Question, len(src))
	copy(out, src)
	return out
}

// QuestionsForConcepts returns every question examining one of the given
// concepts, grouped by concept in argument order. Duplicate slugs are ignored.
func (c *Catalog) QuestionsForConcepts(slugs ...string) []Question {
	seen := make(map[string]bool, len(slugs))
	var out []Question
	for _, slug := range slugs {
		if seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, c.byConcept[slug]...)
	}
	return out
}
