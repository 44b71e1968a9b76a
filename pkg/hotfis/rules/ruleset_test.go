package rules

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
)

func TestRulesetNames(t *testing.T) {
	rs, err := ParseRuleset([]string{
		"if service is poor or food is rancid then tip is cheap",
		"if service is good then tip is average",
		"if service is excellent or food is delicious then tip is generous",
	})
	if err != nil {
		t.Fatal(err)
	}

	if got, want := rs.InputNames(), []string{"food", "service"}; !reflect.DeepEqual(got, want) {
		t.Errorf("inputs: expected %v, got %v", want, got)
	}
	if got, want := rs.OutputNames(), []string{"tip"}; !reflect.DeepEqual(got, want) {
		t.Errorf("outputs: expected %v, got %v", want, got)
	}
	if len(rs.Rules()) != 3 {
		t.Errorf("expected 3 rules, got %d", len(rs.Rules()))
	}
}

func TestRulesetChainedGroups(t *testing.T) {
	// A group can be an output of one rule and an input of another.
	rs, err := ParseRuleset([]string{
		"if temperature is hot then fan is on",
		"if fan is on then noise is loud",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := rs.InputNames(), []string{"fan", "temperature"}; !reflect.DeepEqual(got, want) {
		t.Errorf("inputs: expected %v, got %v", want, got)
	}
	if got, want := rs.OutputNames(), []string{"fan", "noise"}; !reflect.DeepEqual(got, want) {
		t.Errorf("outputs: expected %v, got %v", want, got)
	}
}

func TestParseRulesetStopsAtFirstError(t *testing.T) {
	_, err := ParseRuleset([]string{
		"if service is good then tip is average",
		"not a rule",
	})
	if !errors.Is(err, fuzzerr.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}
