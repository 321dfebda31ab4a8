package finance

import (
	"sort"
	"time"
)

// RecentLimit is how many transactions the dashboard lists.
const RecentLimit = 5

// Dashboard is the aggregate view for one month.
type Dashboard struct {
	Month             time.Time        `json:"month"`
	Balances          []CurrencyAmount `json:"balances"`
	IncomeExpense     []IncomeExpense  `json:"income_expense"`
	ExpenseByCategory []CategoryAmount `json:"expense_by_category"`
	Recent            []Transaction    `json:"recent_transactions"`
	Budgets           []BudgetStatus   `json:"budgets"`
}

// BuildDashboard assembles the view from the month's rows.
func BuildDashboard(month time.Time, accounts []Account, monthTxs []Transaction, budgets []Budget) Dashboard {
	recent := make([]Transaction, len(monthTxs))
	copy(recent, monthTxs)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date.After(recent[j].Date) })
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}

	return Dashboard{
		Month:             month,
		Balances:          BalanceSummary(accounts),
		IncomeExpense:     IncomeExpenseByCurrency(monthTxs),
		ExpenseByCategory: ExpenseByCategory(monthTxs, ""),
		Recent:            recent,
		Budgets:           BudgetsWithSpending(budgets, monthTxs),
	}
}
