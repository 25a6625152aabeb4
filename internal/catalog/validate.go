package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
)

// SupportedMajor is the catalog format major version this build understands.
const SupportedMajor = "v1"

//go:embed data/catalog.schema.json
var schemaJSON []byte

const schemaURL = "schema://certprep/catalog.schema.json"

var (
	compiledOnce sync.Once
	compiled     *jsonschema.Schema
	compileErr   error
)

func catalogSchema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		var def any
		if err := json.Unmarshal(schemaJSON, &def); err != nil {
			compileErr = fmt.Errorf("parse catalog schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// validateDocument checks raw catalog JSON against the embedded schema.
func validateDocument(data []byte) error {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("invalid catalog JSON: %w", err)
	}
	sch, err := catalogSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(parsed); err != nil {
		return fmt.Errorf("catalog schema validation failed: %w", err)
	}
	return nil
}

// validateVersion accepts "1.2.0" and "v1.2.0" with major version v1.
func validateVersion(v string) error {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("catalog version %q is not a semantic version", v)
	}
	if major := semver.Major(v); major != SupportedMajor {
		return fmt.Errorf("catalog version %s unsupported: want major %s", v, SupportedMajor)
	}
	return nil
}

// validateReferences performs the structural checks the schema cannot express.
// Returns a combined error describing all problems found, or nil if valid.
func validateReferences(doc document) error {
	var errs []string

	modules := make(map[string]bool, len(doc.Modules))
	for _, m := range doc.Modules {
		if modules[m.ID] {
			errs = append(errs, fmt.Sprintf("duplicate module ID: %q", m.ID))
		}
		modules[m.ID] = true
	}

	concepts := make(map[string]bool, len(doc.Concepts))
	for _, c := range doc.Concepts {
		if concepts[c.Slug] {
			errs = append(errs, fmt.Sprintf("duplicate concept slug: %q", c.Slug))
		}
		concepts[c.Slug] = true
		if !modules[c.ModuleID] {
			errs = append(errs, fmt.Sprintf("concept %q references nonexistent module %q", c.Slug, c.ModuleID))
		}
	}

	questions := make(map[string]bool, len(doc.Questions))
	for _, q := range doc.Questions {
		if questions[q.ID] {
			errs = append(errs, fmt.Sprintf("duplicate question ID: %q", q.ID))
		}
		questions[q.ID] = true
		if !modules[q.ModuleID] {
			errs = append(errs, fmt.Sprintf("question %q references nonexistent module %q", q.ID, q.ModuleID))
		}
		if !concepts[q.ConceptSlug] {
			errs = append(errs, fmt.Sprintf("question %q references nonexistent concept %q", q.ID, q.ConceptSlug))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			errs = append(errs, fmt.Sprintf("question %q correct_index %d out of range", q.ID, q.CorrectIndex))
		}
	}

	if len(errs) > 0 {
		return errors.New("catalog validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
