package core

// MonthlySummary aggregates one calendar month of transactions.
type MonthlySummary struct {
	Year          int    `json:"year"`
	Month         int    `json:"month"` // 1-12
	MonthName     string `json:"month_name"`
	Period        string `json:"period"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	TotalIncome   Money  `json:"total_income"`
	TotalExpenses Money  `json:"total_expenses"`
	NetChange     Money  `json:"net_change"`
	IncomeCount   int    `json:"income_transactions"`
	ExpenseCount  int    `json:"expense_transactions"`
	TotalCount    int    `json:"total_transactions"`
}

// CategoryTotal is an amount aggregated by category name and kind.
type CategoryTotal struct {
	Category         string `json:"category"`
	Kind             Kind   `json:"kind"`
	TransactionCount int    `json:"transaction_count"`
	TotalAmount      Money  `json:"total_amount"`
	AverageAmount    Money  `json:"avg_amount"`
}

// MonthTotals is one entry of a YearlyOverview.
type MonthTotals struct {
	Month        int    `json:"month"`
	MonthName    string `json:"month_name"`
	Income       Money  `json:"income"`
	Expenses     Money  `json:"expenses"`
	Net          Money  `json:"net"`
	IncomeCount  int    `json:"income_count"`
	ExpenseCount int    `json:"expense_count"`
}

type YearTotals struct {
	Income       Money `json:"income"`
	Expenses     Money `json:"expenses"`
	Net          Money `json:"net"`
	Transactions int   `json:"transactions"`
}

// YearlyOverview always holds twelve months, January first.
type YearlyOverview struct {
	Year   int           `json:"year"`
	Months []MonthTotals `json:"months"`
	Totals YearTotals    `json:"totals"`
}

type TrendDeltas struct {
	IncomeChangePct  float64 `json:"income_change"`
	ExpenseChangePct float64 `json:"expense_change"`
	// NetChange is an absolute currency delta, not a percentage.
	NetChange Money `json:"net_change"`
}

type SpendingTrends struct {
	Current  MonthlySummary `json:"current"`
	Previous MonthlySummary `json:"previous"`
	Trends   TrendDeltas    `json:"trends"`
}

// DailyTotals is one day of a month's daily series.
type DailyTotals struct {
	Date     string `json:"date"`
	Day      int    `json:"day"`
	Income   Money  `json:"income"`
	Expenses Money  `json:"expenses"`
	Net      Money  `json:"net"`
}

// GroupedCategories splits a user's categories by direction.
type GroupedCategories struct {
	Expense []Category `json:"expense"`
	Income  []Category `json:"income"`
}
