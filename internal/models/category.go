package models

// categoryLabels maps category identifiers to display labels. Lookups are a
// read-only presentation concern; unknown ids fall back to "Other".
var categoryLabels = map[string]string{
	"salary":         "Salary",
	"freelance":      "Freelance",
	"investments":    "Investments",
	"business":       "Business",
	"rental":         "Rental",
	"other-income":   "Other Income",
	"housing":        "Housing",
	"transportation": "Transportation",
	"groceries":      "Groceries",
	"utilities":      "Utilities",
	"entertainment":  "Entertainment",
	"food":           "Food",
	"shopping":       "Shopping",
	"healthcare":     "Healthcare",
	"education":      "Education",
	"travel":         "Travel",
	"insurance":      "Insurance",
	"gifts":          "Gifts & Donations",
	"bills":          "Bills & Fees",
	"other-expense":  "Other Expense",
}

// CategoryLabel returns the display label for a category id.
func CategoryLabel(id string) string {
	if label, ok := categoryLabels[id]; ok {
		return label
	}
	return "Other"
}
