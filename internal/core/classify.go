package core

import "strings"

// incomePatterns mark a category name as income when contained in it,
// case-insensitively.
var incomePatterns = []string{"salary", "freelance", "investment", "gift", "refund", "income"}

// ClassifyCategoryName is a best-effort heuristic: names matching none of the
// income patterns are treated as expenses, even when a renamed category is
// conceptually income. Prefer Category.Kind when it is set.
func ClassifyCategoryName(name string) Kind {
	lower := strings.ToLower(name)
	for _, p := range incomePatterns {
		if strings.Contains(lower, p) {
			return Deposit
		}
	}
	return Expense
}

// Direction resolves the kind of c, preferring the stored value.
func (c Category) Direction() Kind {
	if c.Kind != nil && c.Kind.Validate() == nil {
		return *c.Kind
	}
	return ClassifyCategoryName(c.Name)
}

// GroupCategories splits categories into expense and income lists, keeping
// their order.
func GroupCategories(cats []Category) GroupedCategories {
	g := GroupedCategories{Expense: []Category{}, Income: []Category{}}
	for _, c := range cats {
		if c.Direction() == Deposit {
			g.Income = append(g.Income, c)
		} else {
			g.Expense = append(g.Expense, c)
		}
	}
	return g
}

type DefaultCategory struct {
	Name  string
	Color string
	Kind  Kind
}

// DefaultCategories is the catalog seeded for new users.
var DefaultCategories = []DefaultCategory{
	{"Food & Dining", "#e74c3c", Expense},
	{"Groceries", "#27ae60", Expense},
	{"Transportation", "#3498db", Expense},
	{"Gas", "#f39c12", Expense},
	{"Entertainment", "#9b59b6", Expense},
	{"Shopping", "#e67e22", Expense},
	{"Bills & Utilities", "#34495e", Expense},
	{"Healthcare", "#1abc9c", Expense},
	{"Education", "#2ecc71", Expense},
	{"Travel", "#8e44ad", Expense},
	{"Subscriptions", "#95a5a6", Expense},
	{"Other Expenses", "#7f8c8d", Expense},

	{"Salary", "#16a085", Deposit},
	{"Freelance", "#27ae60", Deposit},
	{"Investment", "#2980b9", Deposit},
	{"Gift", "#e91e63", Deposit},
	{"Refund", "#607d8b", Deposit},
	{"Other Income", "#4caf50", Deposit},
}

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#007bff"
