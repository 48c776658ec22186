package finding

import "testing"

func findingsFixture() []Finding {
	mk := func(cat Category, sev Severity) Finding {
		return New(cat, sev, "t", "d")
	}
	return []Finding{
		mk(CategoryPromptInjection, SeverityCritical),
		mk(CategoryCommandInjection, SeverityCritical),
		mk(CategoryAuthentication, SeverityHigh),
		mk(CategoryExcessiveSurface, SeverityMedium),
		mk(CategoryTransportSecurity, SeverityLow),
		mk(CategoryTransportSecurity, SeverityLow),
		mk(CategoryInformationDisclosure, SeverityInfo),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(findingsFixture())

	if s.Critical != 2 || s.High != 1 || s.Medium != 1 || s.Low != 2 || s.Info != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.Total != s.Critical+s.High+s.Medium+s.Low+s.Info {
		t.Errorf("total %d does not equal sum of counts", s.Total)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 {
		t.Errorf("empty summary total = %d", s.Total)
	}
}

func TestCountByCategory(t *testing.T) {
	counts := CountByCategory(findingsFixture())

	if counts["transport_security"] != 2 {
		t.Errorf("transport_security count = %d", counts["transport_security"])
	}
	if counts["prompt_injection"] != 1 {
		t.Errorf("prompt_injection count = %d", counts["prompt_injection"])
	}
	if _, present := counts["secret_exposure"]; present {
		t.Error("absent category should be omitted")
	}
}

func TestAtOrAbove(t *testing.T) {
	fs := findingsFixture()

	if got := AtOrAbove(fs, SeverityHigh); got != 3 {
		t.Errorf("AtOrAbove(high) = %d, want 3", got)
	}
	if got := AtOrAbove(fs, SeverityInfo); got != len(fs) {
		t.Errorf("AtOrAbove(info) = %d, want %d", got, len(fs))
	}
}
