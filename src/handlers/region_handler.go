// backend/src/handlers/region_handler.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/regions"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/security/validation"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/utils"
)

type RegionHandler struct {
	table *regions.Table
}

func NewRegionHandler(table *regions.Table) *RegionHandler {
	if table == nil {
		table = regions.Default
	}
	return &RegionHandler{table: table}
}

type regionSummary struct {
	Region     string    `json:"region"`
	Currency   string    `json:"currency"`
	Locale     string    `json:"locale"`
	Thresholds []float64 `json:"thresholds"`
	Rates      []float64 `json:"rates"`
}

type estimateResponse struct {
	Region              string  `json:"region"`
	Known               bool    `json:"known_region"`
	Income              float64 `json:"income"`
	Rate                float64 `json:"rate"`
	Liability           float64 `json:"liability"`
	LiabilityFormatted  string  `json:"liability_formatted"`
	BracketTax          float64 `json:"bracket_tax"`
	BracketTaxFormatted string  `json:"bracket_tax_formatted"`
	Currency            string  `json:"currency"`
}

type deductionsResponse struct {
	Region     string   `json:"region"`
	Deductions []string `json:"deductions"`
	Insights   string   `json:"insights"`
}

func (h *RegionHandler) HandleListRegions(w http.ResponseWriter, r *http.Request) {
	summaries := []regionSummary{}
	for _, name := range h.table.Regions() {
		schedule, _ := h.table.Lookup(name)
		summaries = append(summaries, regionSummary{
			Region:     name,
			Currency:   schedule.Currency,
			Locale:     regions.LocaleForRegion(name).String(),
			Thresholds: schedule.Thresholds,
			Rates:      schedule.Rates,
		})
	}
	utils.WriteJSONWithETag(w, r, summaries)
}

func (h *RegionHandler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	region := strings.TrimSpace(r.URL.Query().Get("region"))
	if err := validation.ValidateRequiredText(region, validation.DefaultMaxStringLength, "region"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	income, err := validation.ParseIncome(r.URL.Query().Get("income"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	_, known := h.table.Lookup(region)
	rate := h.table.EstimateRate(income, region)
	liability := income * rate
	bracketTax := h.table.ProgressiveTax(income, region)
	logger.FromContext(r.Context()).Debug("Estimated tax rate", "region", region, "known", known, "rate", rate)

	utils.WriteJSON(w, http.StatusOK, estimateResponse{
		Region:              region,
		Known:               known,
		Income:              income,
		Rate:                rate,
		Liability:           liability,
		LiabilityFormatted:  h.table.FormatCurrency(liability, region),
		BracketTax:          bracketTax,
		BracketTaxFormatted: h.table.FormatCurrency(bracketTax, region),
		Currency:            h.table.CurrencyCode(region),
	})
}

func (h *RegionHandler) HandleDeductions(w http.ResponseWriter, r *http.Request) {
	region := strings.TrimSpace(r.URL.Query().Get("region"))
	if err := validation.ValidateRequiredText(region, validation.DefaultMaxStringLength, "region"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	utils.WriteJSONWithETag(w, r, deductionsResponse{
		Region:     region,
		Deductions: h.table.DeductionCategories(region),
		Insights:   h.table.Insights(region),
	})
}
