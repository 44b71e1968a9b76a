// Package config loads fuzzy system definitions: the plain-text groupset
// and ruleset formats, and YAML engine and network definitions.
//
// The groupset text format is a sequence of blocks
//
//	group temperature
//	leftedge cold 30 40
//	trapezoidal warm 30 40 60 70
//	rightedge hot 60 70
//	domain 30 70
//
// and a ruleset file holds one rule per line. Blank lines and lines
// starting with '#' are skipped in both.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
	"github.com/ericzander/hotfis/pkg/hotfis/membership"
	"github.com/ericzander/hotfis/pkg/hotfis/rules"
)

// LoadGroupset reads a groupset definition from a file.
func LoadGroupset(path string) (*membership.Groupset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	gs, err := ParseGroupset(f)
	if err != nil {
		return nil, fmt.Errorf("load groupset %s: %w", path, err)
	}
	return gs, nil
}

// ParseGroupset reads the groupset text format. Each block opens with
// "group <name>", lists one function per line as
// "<template> <name> <param>...", and closes with "domain <min> <max>".
func ParseGroupset(r io.Reader) (*membership.Groupset, error) {
	var (
		groups  []*membership.Group
		name    string
		inBlock bool
		fns     []*membership.Func
	)

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "group":
			if inBlock {
				return nil, parseErr(lineNum, "group %q missing its domain line", name)
			}
			if len(fields) != 2 {
				return nil, parseErr(lineNum, "want 'group <name>', got %q", line)
			}
			name = fields[1]
			inBlock = true
			fns = nil

		case "domain":
			if !inBlock {
				return nil, parseErr(lineNum, "domain line outside a group block")
			}
			if len(fields) != 3 {
				return nil, parseErr(lineNum, "want 'domain <min> <max>', got %q", line)
			}
			min, err := parseFloat(lineNum, fields[1])
			if err != nil {
				return nil, err
			}
			max, err := parseFloat(lineNum, fields[2])
			if err != nil {
				return nil, err
			}
			g, err := membership.NewGroup(name, min, max, fns)
			if err != nil {
				return nil, err
			}
			groups = append(groups, g)
			inBlock = false

		default:
			if !inBlock {
				return nil, parseErr(lineNum, "function line %q outside a group block", line)
			}
			if len(fields) < 3 {
				return nil, parseErr(lineNum, "want '<template> <name> <param>...', got %q", line)
			}
			params := make([]float64, 0, len(fields)-2)
			for _, tok := range fields[2:] {
				p, err := parseFloat(lineNum, tok)
				if err != nil {
					return nil, err
				}
				params = append(params, p)
			}
			fn, err := membership.New(fields[1], fields[0], params)
			if err != nil {
				return nil, err
			}
			fns = append(fns, fn)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inBlock {
		return nil, parseErr(lineNum, "group %q missing its domain line", name)
	}
	return membership.NewGroupset(groups)
}

// LoadRuleset reads a ruleset definition from a file, one rule per line.
func LoadRuleset(path string) (*rules.Ruleset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rs, err := ParseRuleset(f)
	if err != nil {
		return nil, fmt.Errorf("load ruleset %s: %w", path, err)
	}
	return rs, nil
}

// ParseRuleset reads rules one per line.
func ParseRuleset(r io.Reader) (*rules.Ruleset, error) {
	var parsed []*rules.Rule
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, err := rules.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		parsed = append(parsed, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rules.NewRuleset(parsed), nil
}

func parseFloat(line int, tok string) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, parseErr(line, "bad number %q", tok)
	}
	return v, nil
}

func parseErr(line int, format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s: %w", line, fmt.Sprintf(format, args...), fuzzerr.ErrParse)
}
