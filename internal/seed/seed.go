// Package seed carries the embedded default curriculum: the grade 1-5
// skill graph and its question bank, validated against JSON Schemas at
// load time.
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/brightmath/brightmath/internal/questionbank"
	"github.com/brightmath/brightmath/internal/skillgraph"
)

//go:embed data schema
var files embed.FS

// schemaCache caches compiled JSON schemas by file name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// Catalog is a validated skill and question set ready to seed.
type Catalog struct {
	Skills    []skillgraph.Skill
	Questions []questionbank.Question
}

// CatalogWriter persists a catalog. Satisfied by *store.Store.
type CatalogWriter interface {
	SaveCatalog(ctx context.Context, skills []skillgraph.Skill, questions []questionbank.Question) error
}

// Default loads and validates the embedded curriculum.
func Default() (*Catalog, error) {
	skillsRaw, err := files.ReadFile("data/skills.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded skills: %w", err)
	}
	questionsRaw, err := files.ReadFile("data/questions.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded questions: %w", err)
	}
	return Parse(skillsRaw, questionsRaw)
}

// Parse validates raw skill and question JSON against the schemas and
// decodes them into a catalog. Skills missing an explicit threshold get
// the default mastery threshold.
func Parse(skillsRaw, questionsRaw []byte) (*Catalog, error) {
	if err := validate("skills.schema.json", skillsRaw); err != nil {
		return nil, fmt.Errorf("skills: %w", err)
	}
	if err := validate("questions.schema.json", questionsRaw); err != nil {
		return nil, fmt.Errorf("questions: %w", err)
	}

	c := &Catalog{}
	if err := json.Unmarshal(skillsRaw, &c.Skills); err != nil {
		return nil, fmt.Errorf("decode skills: %w", err)
	}
	if err := json.Unmarshal(questionsRaw, &c.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}

	for i := range c.Skills {
		if c.Skills[i].Threshold == 0 {
			c.Skills[i].Threshold = skillgraph.DefaultMasteryThreshold
		}
	}

	// The graph loader is the authority on referential integrity and
	// acyclicity; run it here so a bad seed fails before any write.
	if _, err := skillgraph.Load(c.Skills); err != nil {
		return nil, fmt.Errorf("validate skill graph: %w", err)
	}
	skillIDs := make(map[string]bool, len(c.Skills))
	for _, s := range c.Skills {
		skillIDs[s.ID] = true
	}
	for _, q := range c.Questions {
		if !skillIDs[q.SkillID] {
			return nil, fmt.Errorf("question %q references unknown skill %q", q.ID, q.SkillID)
		}
	}

	return c, nil
}

// Apply writes the catalog through the given writer.
func (c *Catalog) Apply(ctx context.Context, w CatalogWriter) error {
	return w.SaveCatalog(ctx, c.Skills, c.Questions)
}

// validate checks raw JSON against the named embedded schema.
func validate(name string, raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	compiled, err := compiledSchema(name)
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", name, err)
	}
	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// compiledSchema returns a cached compiled schema or compiles and
// caches it.
func compiledSchema(name string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	raw, err := files.ReadFile("schema/" + name)
	if err != nil {
		return nil, fmt.Errorf("read embedded schema: %w", err)
	}
	var def any
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := "schema://" + name
	if err := c.AddResource(schemaURL, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(name, compiled)
	return compiled, nil
}
