package regions

import "strings"

// Insights renders the region's deduction categories as a short plain-text note.
func (t *Table) Insights(region string) string {
	var b strings.Builder
	b.WriteString("Based on your ")
	b.WriteString(region)
	b.WriteString(" tax filing, consider these potential deductions:\n\n")
	for _, d := range t.DeductionCategories(region) {
		b.WriteString("- ")
		b.WriteString(d)
		b.WriteString("\n")
	}
	b.WriteString("\nConsult with your tax professional for a more detailed analysis based on your specific situation.")
	return b.String()
}
