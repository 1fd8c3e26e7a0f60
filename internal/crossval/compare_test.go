package crossval

import "testing"

func TestComparePageLinesAllMatch(t *testing.T) {
	t.Parallel()

	lines := []string{"ਸਤਿ ਨਾਮੁ", "ਕਰਤਾ ਪੁਰਖੁ"}
	got := ComparePageLines(3, lines, lines)
	if len(got) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(got))
	}
	for i, cmp := range got {
		if !cmp.Match {
			t.Fatalf("comparison %d should match: %+v", i, cmp)
		}
		if cmp.PrimaryText != "" || cmp.SecondaryText != "" {
			t.Fatalf("matched pairs must not retain text: %+v", cmp)
		}
		if cmp.Ang != 3 || cmp.LineIndex != i {
			t.Fatalf("bad position on comparison %d: %+v", i, cmp)
		}
	}
}

func TestComparePageLinesMismatchRetainsText(t *testing.T) {
	t.Parallel()

	got := ComparePageLines(3, []string{"ਸਤਿ ਨਾਮੁ"}, []string{"ਸਤਿ ਕਰਤਾ"})
	if len(got) != 1 || got[0].Match {
		t.Fatalf("expected one mismatch, got %+v", got)
	}
	cmp := got[0]
	if cmp.PrimaryText != "ਸਤਿ ਨਾਮੁ" || cmp.SecondaryText != "ਸਤਿ ਕਰਤਾ" {
		t.Fatalf("mismatch must retain both texts: %+v", cmp)
	}
	if cmp.DiscrepancyType != Substantive {
		t.Fatalf("expected substantive, got %s", cmp.DiscrepancyType)
	}
}

func TestComparePageLinesSurplusPrimary(t *testing.T) {
	t.Parallel()

	got := ComparePageLines(1, []string{"ਸਤਿ", "ਨਾਮੁ"}, []string{"ਸਤਿ"})
	if len(got) != 2 {
		t.Fatalf("expected 2 comparisons, got %+v", got)
	}
	last := got[1]
	if last.Match || last.DiscrepancyType != MissingLine {
		t.Fatalf("surplus primary line should be missing_line: %+v", last)
	}
	if last.PrimaryText != "ਨਾਮੁ" || last.SecondaryText != "" {
		t.Fatalf("missing_line retains only the primary text: %+v", last)
	}
}

func TestComparePageLinesSurplusSecondary(t *testing.T) {
	t.Parallel()

	got := ComparePageLines(1, []string{"ਸਤਿ"}, []string{"ਸਤਿ", "ਨਾਮੁ"})
	last := got[1]
	if last.Match || last.DiscrepancyType != ExtraLine {
		t.Fatalf("surplus secondary line should be extra_line: %+v", last)
	}
	if last.SecondaryText != "ਨਾਮੁ" || last.PrimaryText != "" {
		t.Fatalf("extra_line retains only the secondary text: %+v", last)
	}
}

func TestComparePageLinesBothEmpty(t *testing.T) {
	t.Parallel()

	if got := ComparePageLines(1, nil, nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}
