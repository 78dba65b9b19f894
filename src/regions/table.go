// backend/src/regions/table.go
package regions

import (
	"fmt"
	"sort"

	"golang.org/x/text/currency"
)

const (
	// DefaultRate is returned for regions that are not in the table.
	DefaultRate = 0.20
	// DefaultCurrency is used to format amounts for unknown regions.
	DefaultCurrency = "USD"
)

// Schedule is the bracket schedule of one region. Thresholds are income
// ceilings in ascending order; Rates[i] is the marginal rate up to Thresholds[i].
type Schedule struct {
	Region     string
	Thresholds []float64
	Rates      []float64
	Currency   string
}

// Table is a read-only view over region schedules and deduction categories.
// It has no write path and is safe for concurrent use.
type Table struct {
	schedules  map[string]Schedule
	deductions map[string][]string
	names      []string
}

var usThresholds = []float64{10000, 50000, 100000, 500000, 1000000}

var defaultSchedules = []Schedule{
	{Region: "US - California", Thresholds: usThresholds, Rates: []float64{0.10, 0.12, 0.22, 0.32, 0.37}, Currency: "USD"},
	{Region: "US - New York", Thresholds: usThresholds, Rates: []float64{0.11, 0.13, 0.24, 0.33, 0.38}, Currency: "USD"},
	// Texas has no state income tax; these are the federal brackets.
	{Region: "US - Texas", Thresholds: usThresholds, Rates: []float64{0.08, 0.10, 0.20, 0.30, 0.35}, Currency: "USD"},
	{Region: "US - Federal", Thresholds: usThresholds, Rates: []float64{0.10, 0.12, 0.22, 0.32, 0.37}, Currency: "USD"},
	{Region: "UK - England", Thresholds: []float64{12570, 50270, 125140, 150000, 1000000}, Rates: []float64{0.20, 0.40, 0.45, 0.45, 0.45}, Currency: "GBP"},
	{Region: "India - Maharashtra", Thresholds: []float64{250000, 500000, 750000, 1000000, 5000000}, Rates: []float64{0.05, 0.10, 0.15, 0.20, 0.30}, Currency: "INR"},
	{Region: "Australia - Victoria", Thresholds: []float64{18200, 45000, 120000, 180000, 1000000}, Rates: []float64{0.19, 0.325, 0.37, 0.45, 0.45}, Currency: "AUD"},
	{Region: "Singapore", Thresholds: []float64{20000, 50000, 80000, 120000, 320000}, Rates: []float64{0.02, 0.035, 0.07, 0.115, 0.22}, Currency: "SGD"},
}

var defaultDeductions = map[string][]string{
	"US - California": {
		"Mortgage Interest",
		"State and Local Taxes",
		"Charitable Contributions",
		"Medical Expenses",
		"California-specific Credits",
		"Education Expenses",
		"Retirement Contributions",
	},
	"US - New York": {
		"Mortgage Interest",
		"State and Local Taxes",
		"Charitable Contributions",
		"NY College Tuition Credit",
		"NY Long-Term Care Insurance Credit",
		"Property Tax Relief Credit",
	},
	"US - Texas": {
		"Mortgage Interest",
		"Charitable Contributions",
		"Medical Expenses",
		"Property Tax Deductions",
		"Retirement Contributions",
	},
	"US - Federal": {
		"R&D Credits",
		"Employee Retention Credits",
		"Depreciation",
		"Business Interest Expense",
		"Qualified Business Income Deduction",
	},
	"UK - England": {
		"Pension Contributions",
		"Gift Aid Donations",
		"Marriage Allowance",
		"Work-related Expenses",
		"Blind Person's Allowance",
		"Maintenance Payments",
	},
	"India - Maharashtra": {
		"Section 80C Investments",
		"Section 80D Health Insurance",
		"Section 24 Home Loan Interest",
		"HRA Exemption",
		"LTA Exemption",
		"NPS Contributions",
	},
	"Australia - Victoria": {
		"Work-related Expenses",
		"Charitable Donations",
		"Cost of Managing Tax Affairs",
		"Personal Super Contributions",
		"Income Protection Insurance",
	},
	"Singapore": {
		"Earned Income Relief",
		"CPF Cash Top-up Relief",
		"Course Fees Relief",
		"NSman Relief",
		"Parenthood Tax Rebate",
		"Foreign Tax Credit",
	},
}

// Default is the process-wide table built from the static schedules.
var Default = MustNewTable(defaultSchedules, defaultDeductions)

// NewTable validates the schedules and builds a Table that owns copies of them.
func NewTable(schedules []Schedule, deductions map[string][]string) (*Table, error) {
	t := &Table{
		schedules:  make(map[string]Schedule, len(schedules)),
		deductions: make(map[string][]string, len(deductions)),
	}
	for _, s := range schedules {
		if err := validateSchedule(s); err != nil {
			return nil, err
		}
		if _, dup := t.schedules[s.Region]; dup {
			return nil, fmt.Errorf("region %q defined twice", s.Region)
		}
		t.schedules[s.Region] = Schedule{
			Region:     s.Region,
			Thresholds: append([]float64(nil), s.Thresholds...),
			Rates:      append([]float64(nil), s.Rates...),
			Currency:   s.Currency,
		}
		t.names = append(t.names, s.Region)
	}
	for region, items := range deductions {
		t.deductions[region] = append([]string(nil), items...)
	}
	sort.Strings(t.names)
	return t, nil
}

// MustNewTable is NewTable that panics on invalid static data.
func MustNewTable(schedules []Schedule, deductions map[string][]string) *Table {
	t, err := NewTable(schedules, deductions)
	if err != nil {
		panic(fmt.Sprintf("regions: invalid tax table: %v", err))
	}
	return t
}

func validateSchedule(s Schedule) error {
	if s.Region == "" {
		return fmt.Errorf("schedule with empty region name")
	}
	if len(s.Thresholds) == 0 {
		return fmt.Errorf("region %q has no brackets", s.Region)
	}
	if len(s.Thresholds) != len(s.Rates) {
		return fmt.Errorf("region %q has %d thresholds but %d rates", s.Region, len(s.Thresholds), len(s.Rates))
	}
	for i, rate := range s.Rates {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("region %q bracket %d rate %v outside [0,1]", s.Region, i, rate)
		}
		if i > 0 && s.Thresholds[i] <= s.Thresholds[i-1] {
			return fmt.Errorf("region %q thresholds not strictly increasing at bracket %d", s.Region, i)
		}
	}
	if _, err := currency.ParseISO(s.Currency); err != nil {
		return fmt.Errorf("region %q currency %q: %w", s.Region, s.Currency, err)
	}
	return nil
}

// Lookup returns a copy of the region's schedule.
func (t *Table) Lookup(region string) (Schedule, bool) {
	s, ok := t.schedules[region]
	if !ok {
		return Schedule{}, false
	}
	return Schedule{
		Region:     s.Region,
		Thresholds: append([]float64(nil), s.Thresholds...),
		Rates:      append([]float64(nil), s.Rates...),
		Currency:   s.Currency,
	}, true
}

// Regions returns the known region names in sorted order.
func (t *Table) Regions() []string {
	return append([]string(nil), t.names...)
}

// EstimateRate returns the marginal rate of the bracket the income falls into:
// the rate of the first threshold >= income, or the last rate when income is
// above every threshold. Unknown regions get DefaultRate.
//
// This is a single-bracket lookup, not a progressive computation; see
// ProgressiveTax for the bracket-integrated figure.
func (t *Table) EstimateRate(income float64, region string) float64 {
	s, ok := t.schedules[region]
	if !ok {
		return DefaultRate
	}
	for i, threshold := range s.Thresholds {
		if income <= threshold {
			return s.Rates[i]
		}
	}
	return s.Rates[len(s.Rates)-1]
}

// ProgressiveTax integrates the brackets: each rate applies to the slice of
// income between the previous threshold and its own. Income above the last
// threshold is taxed at the last rate. Unknown regions use DefaultRate flat.
func (t *Table) ProgressiveTax(income float64, region string) float64 {
	if income <= 0 {
		return 0
	}
	s, ok := t.schedules[region]
	if !ok {
		return income * DefaultRate
	}
	var tax, lower float64
	for i, threshold := range s.Thresholds {
		if income <= threshold {
			return tax + (income-lower)*s.Rates[i]
		}
		tax += (threshold - lower) * s.Rates[i]
		lower = threshold
	}
	return tax + (income-lower)*s.Rates[len(s.Rates)-1]
}

// CurrencyCode returns the region's ISO currency or DefaultCurrency.
func (t *Table) CurrencyCode(region string) string {
	if s, ok := t.schedules[region]; ok {
		return s.Currency
	}
	return DefaultCurrency
}

// DeductionCategories returns the region's deduction and credit categories in
// order, or an empty slice for unknown regions.
func (t *Table) DeductionCategories(region string) []string {
	items, ok := t.deductions[region]
	if !ok {
		return []string{}
	}
	return append([]string(nil), items...)
}

// EstimateRate looks up the marginal rate in the Default table.
func EstimateRate(income float64, region string) float64 {
	return Default.EstimateRate(income, region)
}

// DeductionCategories looks up deduction categories in the Default table.
func DeductionCategories(region string) []string {
	return Default.DeductionCategories(region)
}

// FormatCurrency formats an amount with the Default table's currency for region.
func FormatCurrency(amount float64, region string) string {
	return Default.FormatCurrency(amount, region)
}
