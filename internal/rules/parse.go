package rules

import (
	"fmt"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ruleDoc is the decoding shape: `command` may be a string or a list, so it
// is decoded loosely and normalized into a CommandPattern afterwards.
type ruleDoc struct {
	Command any `toml:"command" yaml:"command"`
	RuleSet `yaml:",inline"`
}

// Parse decodes rule-file bytes into a RuleSet. The format is chosen by
// filename extension: ".yaml"/".yml" is YAML, anything else is TOML.
func Parse(data []byte, filename string) (*RuleSet, error) {
	var doc ruleDoc
	var err error
	if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = toml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse rule file %s: %w", filename, err)
	}

	rs := doc.RuleSet
	rs.Command, err = commandPattern(doc.Command)
	if err != nil {
		return nil, fmt.Errorf("rule file %s: %w", filename, err)
	}
	return &rs, nil
}

// commandPattern normalizes the decoded `command` value into the explicit
// Single/Multiple variant.
func commandPattern(v any) (CommandPattern, error) {
	switch val := v.(type) {
	case string:
		if val == "" {
			return CommandPattern{}, fmt.Errorf("empty 'command'")
		}
		return Single(val), nil
	case []any:
		patterns := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return CommandPattern{}, fmt.Errorf("'command' list must contain only strings, got %T", item)
			}
			patterns = append(patterns, s)
		}
		if len(patterns) == 0 {
			return CommandPattern{}, fmt.Errorf("empty 'command' list")
		}
		return Multiple(patterns), nil
	case []string:
		if len(val) == 0 {
			return CommandPattern{}, fmt.Errorf("empty 'command' list")
		}
		return Multiple(val), nil
	case nil:
		return CommandPattern{}, fmt.Errorf("missing 'command'")
	default:
		return CommandPattern{}, fmt.Errorf("'command' must be a string or list of strings, got %T", v)
	}
}
