// backend/src/services/advisory_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/models"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/regions"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/security/validation"
)

const (
	// FallbackSuggestion replaces the response text whenever the completion service fails.
	FallbackSuggestion = "Unable to generate tax suggestions at this time. Please try again later."

	advisorSystemInstruction = "You are a specialized regional tax advisor. Provide clear, accurate and actionable tax guidance " +
		"that reflects the tax rules, deductions and filing obligations of the client's region."

	DefaultAdvisoryMaxTokens   = 1000
	DefaultAdvisoryTemperature = 0.2
	DefaultAdvisoryTimeout     = 30 * time.Second
)

// AdvisoryConfig bounds the single completion call made per advisory.
type AdvisoryConfig struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type advisoryServiceImpl struct {
	client CompletionClient
	table  *regions.Table
	cfg    AdvisoryConfig
}

// completionOutcome keeps the cause of a failed completion until the result
// is handed back, where it collapses to FallbackSuggestion.
type completionOutcome struct {
	text  string
	cause error
}

func (o completionOutcome) responseText() string {
	if o.cause != nil {
		return FallbackSuggestion
	}
	return o.text
}

// NewAdvisoryService wires the composer to a completion client and a region table.
// A nil table means regions.Default.
func NewAdvisoryService(client CompletionClient, table *regions.Table, cfg AdvisoryConfig) AdvisoryService {
	if table == nil {
		table = regions.Default
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultAdvisoryMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAdvisoryTimeout
	}
	return &advisoryServiceImpl{client: client, table: table, cfg: cfg}
}

func (s *advisoryServiceImpl) Generate(ctx context.Context, profile models.ClientTaxProfile) models.TaxAdvisoryResult {
	ctxLogger := logger.FromContext(ctx)

	estimate := s.estimate(ctx, profile)
	deductions := s.table.DeductionCategories(profile.Region)
	prompt := BuildAdvisoryPrompt(profile, estimate, deductions)

	outcome := s.complete(ctx, prompt)
	if outcome.cause != nil {
		ctxLogger.Error("Tax suggestion generation failed, returning fallback",
			"client", profile.ClientName, "region", profile.Region, "error", outcome.cause)
	} else {
		ctxLogger.Info("Tax suggestions generated",
			"client", profile.ClientName, "region", profile.Region, "responseLength", len(outcome.text))
	}

	fullText := outcome.responseText()
	return models.TaxAdvisoryResult{
		ID:                          uuid.New().String(),
		EstimatedRate:               estimate.Rate,
		EstimatedLiabilityFormatted: estimate.LiabilityFormatted,
		PromptText:                  prompt,
		FullResponseText:            fullText,
		SummaryText:                 FormatReport(profile.TaxEntityType, profile.ClientName, profile.Region, fullText),
		Fallback:                    outcome.cause != nil,
		GeneratedAt:                 time.Now().UTC(),
	}
}

// LiabilityEstimate is the table-derived part of an advisory.
type LiabilityEstimate struct {
	Income             float64
	HasIncome          bool
	Rate               float64
	Liability          float64
	LiabilityFormatted string
}

func (s *advisoryServiceImpl) estimate(ctx context.Context, profile models.ClientTaxProfile) LiabilityEstimate {
	est := LiabilityEstimate{Rate: regions.DefaultRate}
	if strings.TrimSpace(profile.Region) == "" || strings.TrimSpace(profile.AnnualIncome) == "" {
		return est
	}
	income, err := validation.ParseIncome(profile.AnnualIncome)
	if err != nil {
		logger.FromContext(ctx).Debug("Ignoring unparseable annual income", "value", profile.AnnualIncome, "error", err)
		return est
	}
	est.Income = income
	est.HasIncome = true
	est.Rate = s.table.EstimateRate(income, profile.Region)
	est.Liability = income * est.Rate
	est.LiabilityFormatted = s.table.FormatCurrency(est.Liability, profile.Region)
	return est
}

func (s *advisoryServiceImpl) complete(ctx context.Context, prompt string) completionOutcome {
	if s.client == nil {
		return completionOutcome{cause: ErrCompletionNotConfigured}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	text, err := s.client.Complete(callCtx, CompletionRequest{
		SystemInstruction: advisorSystemInstruction,
		Prompt:            prompt,
		MaxTokens:         s.cfg.MaxTokens,
		Temperature:       s.cfg.Temperature,
	})
	if err != nil {
		return completionOutcome{cause: err}
	}
	return completionOutcome{text: text}
}

// BuildAdvisoryPrompt assembles the user prompt sent to the completion service.
func BuildAdvisoryPrompt(profile models.ClientTaxProfile, est LiabilityEstimate, deductions []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate a detailed tax analysis and suggestions for a %s taxpayer in %s.\n\n", profile.TaxEntityType, profile.Region)
	fmt.Fprintf(&b, "Client Name: %s\n", profile.ClientName)
	fmt.Fprintf(&b, "Entity Type: %s\n", profile.TaxEntityType)
	fmt.Fprintf(&b, "Region: %s\n", profile.Region)
	if income := strings.TrimSpace(profile.AnnualIncome); income != "" {
		fmt.Fprintf(&b, "Annual Income: %s\n", income)
	}

	docs := "None"
	if len(profile.AvailableDocuments) > 0 {
		docs = strings.Join(profile.AvailableDocuments, ", ")
	}
	fmt.Fprintf(&b, "Available Documents: %s\n", docs)

	liability := est.LiabilityFormatted
	if liability == "" {
		liability = "Not available"
	}
	fmt.Fprintf(&b, "Estimated Tax Liability: %s (estimated rate: %.1f%%)\n", liability, est.Rate*100)

	if len(deductions) > 0 {
		fmt.Fprintf(&b, "Region-specific deductions and credits to evaluate: %s\n", strings.Join(deductions, ", "))
	}

	b.WriteString("\nStructure the response with the following sections:\n")
	b.WriteString("1. Tax Liability Breakdown\n")
	b.WriteString("2. Deductions and Credits\n")
	b.WriteString("3. Risk and Compliance Considerations\n")
	b.WriteString("4. Tax Planning Recommendations\n")
	return b.String()
}
