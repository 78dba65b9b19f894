package services

import (
	"fmt"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/models"
)

const (
	// SummaryCharBudget is the number of response characters kept in a summary.
	SummaryCharBudget = 500

	IndividualReportHeader = "INDIVIDUAL TAX ADVISORY SUMMARY"
	BusinessReportHeader   = "BUSINESS TAX ADVISORY SUMMARY"

	truncationMarker = "..."
)

// FormatReport renders the summary for an advisory. "Individual" selects the
// individual template; any other entity type gets the business one.
func FormatReport(entityType models.EntityType, clientName, region, fullText string) string {
	body := truncateRunes(fullText, SummaryCharBudget)
	if entityType == models.EntityIndividual {
		return fmt.Sprintf("%s\nTaxpayer: %s\nRegion: %s\n\n%s\n\n"+
			"These suggestions reflect personal income tax rules in %s. Review them with a qualified tax professional before filing.",
			IndividualReportHeader, clientName, region, body, region)
	}
	return fmt.Sprintf("%s\nEntity: %s\nRegion: %s\n\n%s\n\n"+
		"These suggestions reflect business tax obligations in %s. Review them with your accountant before filing.",
		BusinessReportHeader, clientName, region, body, region)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + truncationMarker
}
