package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/openscribe/agentkit/providers/ai"
)

// Catalog is a thread-safe registry of tools keyed by name. It doubles as
// the agent loop's tool executor: register tools once, then hand the catalog
// to the agent.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]GenericTool
}

// NewCatalog builds a catalog holding the given tools. Later registrations
// with the same name overwrite earlier ones.
func NewCatalog(tools ...GenericTool) *Catalog {
	c := &Catalog{tools: make(map[string]GenericTool, len(tools))}
	for _, t := range tools {
		c.Register(t)
	}
	return c
}

// Register adds a tool to the catalog, replacing any existing tool with the
// same name.
func (c *Catalog) Register(t GenericTool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools[t.Info().Name] = t
}

// Get returns the tool registered under name, or false if none exists.
func (c *Catalog) Get(name string) (GenericTool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tools[name]
	return t, ok
}

// Descriptions returns the descriptions of all registered tools, sorted by
// name for deterministic request payloads.
func (c *Catalog) Descriptions() []ai.ToolDescription {
	c.mu.RLock()
	defer c.mu.RUnlock()

	descriptions := make([]ai.ToolDescription, 0, len(c.tools))
	for _, t := range c.tools {
		descriptions = append(descriptions, t.Info())
	}
	sort.Slice(descriptions, func(i, j int) bool {
		return descriptions[i].Name < descriptions[j].Name
	})
	return descriptions
}

// Execute dispatches a tool call by name with a JSON-encoded argument string.
// An unknown tool name is an error, so the agent loop can report it back to
// the model instead of crashing the run.
func (c *Catalog) Execute(ctx context.Context, name, argumentsJSON string) (string, error) {
	t, ok := c.Get(name)
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	return t.Call(ctx, argumentsJSON)
}
