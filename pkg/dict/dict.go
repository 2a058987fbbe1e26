package dict

import (
	"bufio"
	"os"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Direction selects which way the conversion runs. Forward is
// Simplified -> Traditional, Reverse is Traditional -> Simplified.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// String returns the short flag-style name for the direction
func (d Direction) String() string {
	if d == Reverse {
		return "t2s"
	}
	return "s2t"
}

// Opposite returns the other direction
func (d Direction) Opposite() Direction {
	if d == Forward {
		return Reverse
	}
	return Forward
}

// Scope marks which directions a dictionary line applies to
type Scope int

const (
	ScopeBoth Scope = iota
	ScopeForwardOnly
	ScopeReverseOnly
)

// Rule is a single literal substitution loaded from a dictionary file
type Rule struct {
	Source string
	Target string
	Scope  Scope
}

// RuleSet is an ordered list of rules compiled for one direction. It is
// built once per run and shared read-only across workers.
type RuleSet struct {
	Direction Direction
	rules     []Rule
}

// Rules returns the compiled rules in application order
func (rs *RuleSet) Rules() []Rule {
	return rs.rules
}

// Len returns the number of compiled rules
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Apply runs every rule over text in file order. Rules are literal
// substitutions, not patterns, so overlapping rules resolve by order.
func (rs *RuleSet) Apply(text string) string {
	for _, r := range rs.rules {
		if r.Source == "" {
			continue
		}
		text = strings.ReplaceAll(text, r.Source, r.Target)
	}
	return text
}

// Count reports how many rule hits Apply would make on text
func (rs *RuleSet) Count(text string) int {
	total := 0
	for _, r := range rs.rules {
		if r.Source == "" {
			continue
		}
		n := strings.Count(text, r.Source)
		total += n
		if n > 0 {
			text = strings.ReplaceAll(text, r.Source, r.Target)
		}
	}
	return total
}

// Load reads the primary dictionary plus any extra dictionaries and
// compiles them for the requested direction. The primary file must
// exist; a missing extra file is treated as empty.
func Load(primary string, extras []string, direction Direction) (*RuleSet, error) {
	raw, err := parseFile(primary)
	if err != nil {
		return nil, errors.Errorf("loading dictionary %s: %w", primary, err)
	}

	for _, extra := range extras {
		more, err := parseFile(extra)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, errors.Errorf("loading extra dictionary %s: %w", extra, err)
		}
		raw = append(raw, more...)
	}

	return Compile(raw, direction), nil
}

// Compile builds a directional RuleSet from parsed rules. For Reverse,
// bidirectional rules are mirrored (source and target swapped) and
// forward-only rules are dropped, and vice versa for Forward.
func Compile(raw []Rule, direction Direction) *RuleSet {
	rs := &RuleSet{Direction: direction}
	for _, r := range raw {
		switch direction {
		case Forward:
			if r.Scope == ScopeReverseOnly {
				continue
			}
			rs.rules = append(rs.rules, Rule{Source: r.Source, Target: r.Target})
		case Reverse:
			if r.Scope == ScopeForwardOnly {
				continue
			}
			rs.rules = append(rs.rules, Rule{Source: r.Target, Target: r.Source})
		}
	}
	return rs
}

// parseFile reads one tab-separated dictionary file
func parseFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening dictionary: %w", err)
	}
	defer f.Close()

	var rules []Rule
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, errors.Errorf("dictionary %s line %d: expected source<TAB>target", path, lineno)
		}

		rule := Rule{
			Source: strings.TrimSpace(fields[0]),
			Target: strings.TrimSpace(fields[1]),
		}
		if len(fields) >= 3 {
			switch marker := strings.TrimSpace(fields[2]); marker {
			case "->":
				rule.Scope = ScopeForwardOnly
			case "<-":
				rule.Scope = ScopeReverseOnly
			case "":
				rule.Scope = ScopeBoth
			default:
				return nil, errors.Errorf("dictionary %s line %d: unknown marker %q", path, lineno, marker)
			}
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Errorf("reading dictionary: %w", err)
	}

	return rules, nil
}
