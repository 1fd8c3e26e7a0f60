package crossval

// LineComparison is one aligned (primary, secondary) pair at a given ang
// and position. Text fields are retained only for mismatches so that
// reports over large samples stay small.
type LineComparison struct {
	Ang             int             `json:"ang"`
	LineIndex       int             `json:"line_index"`
	PrimaryText     string          `json:"primary_text,omitempty"`
	SecondaryText   string          `json:"secondary_text,omitempty"`
	Match           bool            `json:"match"`
	DiscrepancyType DiscrepancyType `json:"discrepancy_type,omitempty"`
}

// ComparePageLines aligns two sources positionally for one ang and
// classifies every pair. Surplus primary lines are reported as
// MissingLine (present here, absent in the secondary); surplus secondary
// lines as ExtraLine. Two empty inputs yield an empty result.
func ComparePageLines(ang int, primary, secondary []string) []LineComparison {
	n := len(primary)
	if len(secondary) > n {
		n = len(secondary)
	}
	comparisons := make([]LineComparison, 0, n)

	for i := 0; i < n; i++ {
		switch {
		case i >= len(primary):
			comparisons = append(comparisons, LineComparison{
				Ang:             ang,
				LineIndex:       i,
				SecondaryText:   secondary[i],
				DiscrepancyType: ExtraLine,
			})
		case i >= len(secondary):
			comparisons = append(comparisons, LineComparison{
				Ang:             ang,
				LineIndex:       i,
				PrimaryText:     primary[i],
				DiscrepancyType: MissingLine,
			})
		case primary[i] == secondary[i]:
			comparisons = append(comparisons, LineComparison{
				Ang:       ang,
				LineIndex: i,
				Match:     true,
			})
		default:
			comparisons = append(comparisons, LineComparison{
				Ang:             ang,
				LineIndex:       i,
				PrimaryText:     primary[i],
				SecondaryText:   secondary[i],
				DiscrepancyType: Classify(primary[i], secondary[i]),
			})
		}
	}

	return comparisons
}
