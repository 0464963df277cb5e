package extract

import (
	"testing"

	"github.com/aare-ai/aarecore/pkg/aare/value"
)

func TestIntExtractorStripsCommas(t *testing.T) {
	spec := &Spec{Type: KindInt, Pattern: `score[:\s]*([\d,]+)`}
	env, warnings := Extract("Credit score: 1,250 points", map[string]*Spec{"score": spec})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if !env["score"].Equal(value.Int(1250)) {
		t.Fatalf("got %+v", env["score"])
	}
}

func TestFloatExtractorMiss(t *testing.T) {
	spec := &Spec{Type: KindFloat, Pattern: `dti[:\s]*(\d+(?:\.\d+)?)`}
	env, warnings := Extract("no relevant figures here", map[string]*Spec{"dti": spec})
	if !env["dti"].Equal(value.Real(0)) {
		t.Fatalf("expected default 0.0, got %+v", env["dti"])
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
}

func TestMoneyExtractorSuffixes(t *testing.T) {
	spec := &Spec{Type: KindMoney, Pattern: `\$([\d,.]+)\s*([kmbKMB])?`}
	cases := map[string]float64{
		"Approved for $1.5m.": 1_500_000,
		"Approved for $500k.": 500_000,
		"Approved for $750.":  750,
	}
	for text, want := range cases {
		env, _ := Extract(text, map[string]*Spec{"loan_amount": spec})
		if !env["loan_amount"].Equal(value.Real(want)) {
			t.Fatalf("%q: got %+v, want %v", text, env["loan_amount"], want)
		}
	}
}

func TestPercentageExtractorToleratesSign(t *testing.T) {
	spec := &Spec{Type: KindPercentage, Pattern: `DTI[:\s]*(\d+(?:\.\d+)?%?)`}
	env, _ := Extract("DTI: 35%", map[string]*Spec{"dti": spec})
	if !env["dti"].Equal(value.Real(35)) {
		t.Fatalf("got %+v", env["dti"])
	}
}

func TestBooleanExtractorWithNegation(t *testing.T) {
	spec := &Spec{
		Type:          KindBoolean,
		Keywords:      []string{"approved"},
		NegationWords: []string{"not approved", "denied"},
		CheckNegation: true,
	}
	env, _ := Extract("The loan was not approved due to risk.", map[string]*Spec{"approved": spec})
	if !env["approved"].Equal(value.Bool(false)) {
		t.Fatalf("got %+v, want false", env["approved"])
	}

	env2, _ := Extract("The loan was approved.", map[string]*Spec{"approved": spec})
	if !env2["approved"].Equal(value.Bool(true)) {
		t.Fatalf("got %+v, want true", env2["approved"])
	}
}

func TestBooleanExtractorNoKeywordsDefaultsFalse(t *testing.T) {
	spec := &Spec{Type: KindBoolean}
	env, _ := Extract("anything at all", map[string]*Spec{"flag": spec})
	if !env["flag"].Equal(value.Bool(false)) {
		t.Fatalf("got %+v", env["flag"])
	}
}

func TestEnumExtractorFirstMatchWins(t *testing.T) {
	var raw = []EnumChoice{
		{Label: "fixed", Keywords: []string{"fixed rate", "fixed-rate"}},
		{Label: "arm", Keywords: []string{"adjustable", "arm"}},
	}
	spec := &Spec{Type: KindEnum, Choices: raw, Default: "unknown"}
	env, _ := Extract("This is a fixed-rate mortgage with an ARM option.", map[string]*Spec{"rate_type": spec})
	if !env["rate_type"].Equal(value.Enum("fixed")) {
		t.Fatalf("got %+v", env["rate_type"])
	}
}

func TestEnumExtractorFallsBackToDefault(t *testing.T) {
	spec := &Spec{
		Type:    KindEnum,
		Choices: []EnumChoice{{Label: "fixed", Keywords: []string{"fixed rate"}}},
		Default: "unknown",
	}
	env, _ := Extract("nothing relevant", map[string]*Spec{"rate_type": spec})
	if !env["rate_type"].Equal(value.Enum("unknown")) {
		t.Fatalf("got %+v", env["rate_type"])
	}
}

func TestListExtractorCoercesEachItem(t *testing.T) {
	spec := &Spec{Type: KindList, Pattern: `factor:\s*(\d+)`, ItemType: "int"}
	env, _ := Extract("factor: 1, factor: 2, factor: 3", map[string]*Spec{"factors": spec})
	got := env["factors"]
	if got.Kind != value.KindList || len(got.List) != 3 {
		t.Fatalf("got %+v", got)
	}
	if !got.List[0].Equal(value.Int(1)) || !got.List[2].Equal(value.Int(3)) {
		t.Fatalf("got %+v", got.List)
	}
}

func TestDateExtractorISOFormat(t *testing.T) {
	spec := &Spec{Type: KindDate, Pattern: `\d{4}-\d{2}-\d{2}`}
	env, _ := Extract("Closing date: 2026-03-05.", map[string]*Spec{"closing_date": spec})
	if env["closing_date"].Kind != value.KindDate {
		t.Fatalf("got %+v", env["closing_date"])
	}
	if env["closing_date"].Date.Year() != 2026 {
		t.Fatalf("got year %d", env["closing_date"].Date.Year())
	}
}

func TestComputedExtractorRunsAfterBasePass(t *testing.T) {
	extractors := map[string]*Spec{
		"a": {Type: KindBoolean, Keywords: []string{"option a"}},
		"b": {Type: KindBoolean, Keywords: []string{"option b"}},
		"count": {Type: KindComputed, Formula: map[string]any{
			"count_true": []any{"a", "b"},
		}},
	}
	env, warnings := Extract("option a selected, option b selected", extractors)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if !env["count"].Equal(value.Int(2)) {
		t.Fatalf("got %+v", env["count"])
	}
}

func TestComputedExtractorChainResolvesToFixedPoint(t *testing.T) {
	extractors := map[string]*Spec{
		"base": {Type: KindInt, Pattern: `base:\s*(\d+)`},
		"doubled": {Type: KindComputed, Formula: map[string]any{
			"add": []any{"base", "base"},
		}},
		"quadrupled": {Type: KindComputed, Formula: map[string]any{
			"add": []any{"doubled", "doubled"},
		}},
	}
	env, warnings := Extract("base: 3", extractors)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if !env["doubled"].Equal(value.Int(6)) {
		t.Fatalf("doubled: got %+v", env["doubled"])
	}
	if !env["quadrupled"].Equal(value.Int(12)) {
		t.Fatalf("quadrupled: got %+v", env["quadrupled"])
	}
}
