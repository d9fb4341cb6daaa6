package classification

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk form of a rule table:
//
//	bands:
//	  - name: over 500
//	    above: 500
//	    ready: always
//	  - name: 101-200
//	    above: 100
//	    up_to: 200
//	    months: 3
//	  - name: not overdue
//	    up_to: 0
//	    ready: never
//
// A missing above/up_to leaves that side open.
type ruleFile struct {
	Bands []bandEntry `yaml:"bands"`
}

type bandEntry struct {
	Name   string   `yaml:"name"`
	Above  *float64 `yaml:"above"`
	UpTo   *float64 `yaml:"up_to"`
	Ready  string   `yaml:"ready"`
	Months int      `yaml:"months"`
	Days   int      `yaml:"days"`
}

// LoadRules reads and validates a YAML rule table.
func LoadRules(path string) (Rules, error) {
	const op = "LoadRules"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read rule file: %w", op, err)
	}

	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}
	return rules, nil
}

// ParseRules decodes and validates a YAML rule table.
func ParseRules(data []byte) (Rules, error) {
	var f ruleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode rule file: %w", err)
	}

	rules := make(Rules, 0, len(f.Bands))
	for i, e := range f.Bands {
		b := Band{
			Name:  e.Name,
			Above: math.Inf(-1),
			UpTo:  math.Inf(1),
		}
		if b.Name == "" {
			b.Name = fmt.Sprintf("band %d", i+1)
		}
		if e.Above != nil {
			b.Above = *e.Above
		}
		if e.UpTo != nil {
			b.UpTo = *e.UpTo
		}

		switch strings.ToLower(strings.TrimSpace(e.Ready)) {
		case "always":
			b.Requirement = Requirement{Kind: AlwaysReady}
		case "never":
			b.Requirement = Requirement{Kind: NeverReady}
		case "", "stale":
			b.Requirement = StaleFor(e.Months, e.Days)
		default:
			return nil, fmt.Errorf("%w: band %q: ready must be always, never or stale, got %q", ErrInvalidRules, b.Name, e.Ready)
		}
		rules = append(rules, b)
	}

	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}
