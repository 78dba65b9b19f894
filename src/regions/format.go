package regions

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var localePrefixes = []struct {
	prefix string
	tag    language.Tag
}{
	{"US", language.MustParse("en-US")},
	{"UK", language.MustParse("en-GB")},
	{"India", language.MustParse("en-IN")},
	{"Australia", language.MustParse("en-AU")},
}

var (
	fallbackLocale  = language.MustParse("en-US")
	singaporeLocale = language.MustParse("en-SG")
)

// Currency symbols as rendered in the currency's home locale. Elsewhere the
// narrow "$" would be ambiguous, so the prefixed form is used.
var currencySymbols = map[string]struct {
	home   language.Tag
	local  string
	abroad string
}{
	"USD": {language.MustParse("en-US"), "$", "US$"},
	"GBP": {language.MustParse("en-GB"), "£", "£"},
	"INR": {language.MustParse("en-IN"), "₹", "₹"},
	"AUD": {language.MustParse("en-AU"), "$", "A$"},
	"SGD": {singaporeLocale, "$", "S$"},
}

// LocaleForRegion maps a region name to its display locale by prefix.
// Singapore must match exactly; everything unmatched is en-US.
func LocaleForRegion(region string) language.Tag {
	if region == "Singapore" {
		return singaporeLocale
	}
	for _, lp := range localePrefixes {
		if strings.HasPrefix(region, lp.prefix) {
			return lp.tag
		}
	}
	return fallbackLocale
}

func currencySymbol(code string, locale language.Tag) string {
	sym, ok := currencySymbols[code]
	if !ok {
		return code + " "
	}
	if sym.home.String() == locale.String() {
		return sym.local
	}
	return sym.abroad
}

// FormatCurrency renders amount in the region's currency with the region's
// locale grouping and no fractional digits, e.g. "$22,000" for US regions.
func (t *Table) FormatCurrency(amount float64, region string) string {
	locale := LocaleForRegion(region)
	code := t.CurrencyCode(region)

	rounded := math.Round(amount)
	sign := ""
	if rounded < 0 {
		sign = "-"
		rounded = -rounded
	}

	p := message.NewPrinter(locale)
	digits := p.Sprint(number.Decimal(rounded, number.MaxFractionDigits(0)))
	return sign + currencySymbol(code, locale) + digits
}
