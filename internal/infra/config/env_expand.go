package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// expandConfigEnv substitutes ${VAR} and ${VAR:-fallback} references in
// string scalars and returns the re-encoded document together with the
// names of referenced variables that were unset.
func expandConfigEnv(raw []byte, lookup func(string) (string, bool)) (string, []string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return "", nil, fmt.Errorf("parse config: %w", err)
	}
	if root.Kind == 0 {
		return "", nil, nil
	}

	e := &expander{lookup: lookup, missing: make(map[string]struct{})}
	e.node(&root)

	expanded, err := yaml.Marshal(&root)
	if err != nil {
		return "", nil, fmt.Errorf("encode expanded config: %w", err)
	}
	return string(expanded), e.missingList(), nil
}

type expander struct {
	lookup  func(string) (string, bool)
	missing map[string]struct{}
}

func (e *expander) node(node *yaml.Node) {
	switch node.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, child := range node.Content {
			e.node(child)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			e.node(node.Content[i+1])
		}
	case yaml.AliasNode:
		if node.Alias != nil {
			e.node(node.Alias)
		}
	case yaml.ScalarNode:
		e.scalar(node)
	}
}

func (e *expander) scalar(node *yaml.Node) {
	if node.Tag != "" && node.Tag != "!!str" {
		return
	}
	if !strings.Contains(node.Value, "$") {
		return
	}

	expanded := os.Expand(node.Value, e.resolve)
	if expanded == node.Value {
		return
	}

	// Quoted scalars stay strings after expansion.
	if node.Style != 0 {
		node.Tag = "!!str"
		node.Value = expanded
		return
	}
	node.Tag, node.Value = coerceExpandedScalar(expanded)
}

func (e *expander) resolve(key string) string {
	name, fallback, hasFallback := strings.Cut(key, ":-")
	if val, ok := e.lookup(name); ok && (val != "" || !hasFallback) {
		return val
	}
	if hasFallback {
		return fallback
	}
	e.missing[name] = struct{}{}
	return ""
}

func (e *expander) missingList() []string {
	if len(e.missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(e.missing))
	for name := range e.missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func coerceExpandedScalar(value string) (string, string) {
	if strings.TrimSpace(value) == "" {
		return "!!str", value
	}

	var parsed any
	if err := yaml.Unmarshal([]byte(value), &parsed); err != nil {
		return "!!str", value
	}

	switch v := parsed.(type) {
	case nil:
		return "!!null", "null"
	case bool:
		return "!!bool", strconv.FormatBool(v)
	case int:
		return "!!int", strconv.Itoa(v)
	case float64:
		return "!!float", strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return "!!str", value
	}
}
