package constraint

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rendis/conform/pkg/schema"
)

// Compiler verifies that exported JSON Schemas are well-formed by compiling
// them with a real Draft 2020-12 compiler before they are handed to a
// producer. Compiled schemas are cached by their serialized form.
// Safe for concurrent use.
type Compiler struct {
	cache *lru.Cache[string, *jsonschema.Schema]
}

// NewCompiler creates a Compiler with an LRU cache of the given capacity.
func NewCompiler(capacity int) (*Compiler, error) {
	c, err := lru.New[string, *jsonschema.Schema](capacity)
	if err != nil {
		return nil, fmt.Errorf("create schema cache: %w", err)
	}
	return &Compiler{cache: c}, nil
}

// Compile exports the model and compiles the resulting JSON Schema.
// A compile failure means the export produced an ill-formed description,
// which is a build defect, not a payload defect.
func (c *Compiler) Compile(n *Node) (*jsonschema.Schema, error) {
	raw, err := ExportJSON(n)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeBuild, "serialize exported schema").WithCause(err)
	}

	key := string(raw)
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(key))
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeBuild, "unmarshal exported schema").WithCause(err)
	}

	// Each schema gets a unique URL to avoid resource collisions.
	url := fmt.Sprintf("conform://exported-schema/%d", c.cache.Len())
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, schema.NewError(schema.ErrCodeBuild, "add schema resource").WithCause(err)
	}

	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeBuild, "compile exported schema").WithCause(err)
	}

	c.cache.Add(key, compiled)
	return compiled, nil
}
