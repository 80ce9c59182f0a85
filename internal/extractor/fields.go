package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"sjsage522/inventoryhub/internal/inventory"
)

var (
	priceRegex      = regexp.MustCompile(`\d+(?:\.\d+)?`)
	priceStripper   = strings.NewReplacer(",", "", "$", "", "£", "", "€", "")
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// ExtractPrice returns the first decimal number in text after removing
// thousands separators and currency symbols, or nil when text has no digits.
func ExtractPrice(text string) *float64 {
	if text == "" {
		return nil
	}

	match := priceRegex.FindString(priceStripper.Replace(text))
	if match == "" {
		return nil
	}

	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &price
}

// DetectCurrency infers an ISO currency code from the symbol in text,
// falling back to defaultCurrency.
func DetectCurrency(text, defaultCurrency string) string {
	switch {
	case strings.Contains(text, "£"):
		return "GBP"
	case strings.Contains(text, "€"):
		return "EUR"
	case strings.Contains(text, "$"):
		return "USD"
	}
	if defaultCurrency == "" {
		return "USD"
	}
	return defaultCurrency
}

type conditionRule struct {
	phrases   []string
	condition string
}

// checked in order, specific phrases first
var conditionRules = []conditionRule{
	{[]string{"like new", "like-new", "excellent"}, inventory.ConditionLikeNew},
	{[]string{"new"}, inventory.ConditionNew},
	{[]string{"good"}, inventory.ConditionGood},
	{[]string{"fair"}, inventory.ConditionFair},
	{[]string{"poor"}, inventory.ConditionPoor},
}

// NormalizeCondition maps free-text condition descriptions onto the closed
// condition set. Anything unrecognised is "used".
func NormalizeCondition(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range conditionRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(lower, phrase) {
				return rule.condition
			}
		}
	}
	return inventory.ConditionUsed
}

var outOfStockKeywords = []string{"out of stock", "sold out", "unavailable", "not available"}

// InStockFromText reports false when the stock text carries an out-of-stock
// keyword. Empty text counts as in stock.
func InStockFromText(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range outOfStockKeywords {
		if strings.Contains(lower, keyword) {
			return false
		}
	}
	return true
}

// NormalizeText trims text and collapses internal whitespace runs
func NormalizeText(text string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}
