package models

import "testing"

func TestTechniquesCoverAll(t *testing.T) {
	techniques := Techniques()
	if len(techniques) != TechniqueCount {
		t.Fatalf("Techniques() has %d entries, want %d", len(techniques), TechniqueCount)
	}

	seen := make(map[Technique]bool)
	for _, tech := range techniques {
		if seen[tech] {
			t.Errorf("Duplicate technique %s", tech)
		}
		seen[tech] = true
	}
}

func TestClassifyScore(t *testing.T) {
	cases := []struct {
		score float64
		want  Verdict
	}{
		{0, VerdictLow},
		{19.99, VerdictLow},
		{20, VerdictModerate},
		{49.99, VerdictModerate},
		{50, VerdictHigh},
		{74.99, VerdictHigh},
		{75, VerdictSevere},
		{100, VerdictSevere},
	}
	for _, c := range cases {
		if got := ClassifyScore(c.score); got != c.want {
			t.Errorf("ClassifyScore(%g) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0, "NORMAL"},
		{40, "NORMAL"},
		{40.1, "MODERATE"},
		{70, "MODERATE"},
		{70.1, "HIGH SUSPICION"},
		{100, "HIGH SUSPICION"},
	}
	for _, c := range cases {
		if got := StatusLabel(c.score); got != c.want {
			t.Errorf("StatusLabel(%g) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestUsable(t *testing.T) {
	var nilResult *AnalysisResult
	if nilResult.Usable() {
		t.Error("Nil result reported usable")
	}

	r := &AnalysisResult{Technique: TechniqueELA, Completed: true}
	if !r.Usable() {
		t.Error("Completed error-free result not usable")
	}

	r.Error = "boom"
	if r.Usable() {
		t.Error("Errored result reported usable")
	}

	r = &AnalysisResult{Technique: TechniqueELA}
	if r.Usable() {
		t.Error("Incomplete result reported usable")
	}
}

func TestReportResultLookup(t *testing.T) {
	fr := &ForensicsReport{
		Results: []AnalysisResult{
			{Technique: TechniqueELA, Score: 12},
			{Technique: TechniqueClone, Score: 60},
		},
	}

	if res := fr.Result(TechniqueClone); res == nil || res.Score != 60 {
		t.Errorf("Result lookup failed: %+v", res)
	}
	if res := fr.Result(TechniqueBlur); res != nil {
		t.Errorf("Missing technique returned %+v", res)
	}
}
