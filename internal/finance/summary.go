package finance

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopCategoryLimit caps the spending categories reported per currency.
const TopCategoryLimit = 5

var hundred = decimal.NewFromInt(100)

// CurrencyAmount is a total in one currency.
type CurrencyAmount struct {
	Currency Currency        `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// CategoryAmount is an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// IncomeExpense holds the month's flows in one currency.
type IncomeExpense struct {
	Currency Currency        `json:"currency"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
}

// CurrencySummary is the per-currency snapshot forwarded to the assistant.
type CurrencySummary struct {
	TotalIncome           decimal.Decimal  `json:"total_income"`
	TotalExpense          decimal.Decimal  `json:"total_expense"`
	TransactionCount      int              `json:"transaction_count"`
	NetSavings            decimal.Decimal  `json:"net_savings"`
	TopSpendingCategories []CategoryAmount `json:"top_spending_categories"`
}

// BalanceSummary totals account balances per currency.
func BalanceSummary(accounts []Account) []CurrencyAmount {
	totals := map[Currency]decimal.Decimal{}
	for _, a := range accounts {
		totals[a.Currency] = totals[a.Currency].Add(a.Balance)
	}
	out := make([]CurrencyAmount, 0, len(totals))
	for cur, amt := range totals {
		out = append(out, CurrencyAmount{Currency: cur, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// IncomeExpenseByCurrency splits flows per currency.
func IncomeExpenseByCurrency(txs []Transaction) []IncomeExpense {
	byCur := map[Currency]*IncomeExpense{}
	for _, tx := range txs {
		ie, ok := byCur[tx.Currency]
		if !ok {
			ie = &IncomeExpense{Currency: tx.Currency}
			byCur[tx.Currency] = ie
		}
		if tx.Type == Income {
			ie.Income = ie.Income.Add(tx.Amount)
		} else {
			ie.Expense = ie.Expense.Add(tx.Amount)
		}
	}
	out := make([]IncomeExpense, 0, len(byCur))
	for _, ie := range byCur {
		out = append(out, *ie)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// ExpenseByCategory sums expenses per category name, largest first. An empty
// currency includes every currency.
func ExpenseByCategory(txs []Transaction, currency Currency) []CategoryAmount {
	totals := map[string]decimal.Decimal{}
	for _, tx := range txs {
		if tx.Type != Expense {
			continue
		}
		if currency != "" && tx.Currency != currency {
			continue
		}
		totals[categoryName(tx)] = totals[categoryName(tx)].Add(tx.Amount)
	}
	return sortedCategories(totals)
}

// Summarize builds the per-currency financial summary.
func Summarize(txs []Transaction) map[Currency]CurrencySummary {
	type acc struct {
		sum        CurrencySummary
		byCategory map[string]decimal.Decimal
	}
	byCur := map[Currency]*acc{}
	for _, tx := range txs {
		a, ok := byCur[tx.Currency]
		if !ok {
			a = &acc{byCategory: map[string]decimal.Decimal{}}
			byCur[tx.Currency] = a
		}
		a.sum.TransactionCount++
		if tx.Type == Income {
			a.sum.TotalIncome = a.sum.TotalIncome.Add(tx.Amount)
			continue
		}
		a.sum.TotalExpense = a.sum.TotalExpense.Add(tx.Amount)
		a.byCategory[categoryName(tx)] = a.byCategory[categoryName(tx)].Add(tx.Amount)
	}

	out := make(map[Currency]CurrencySummary, len(byCur))
	for cur, a := range byCur {
		a.sum.NetSavings = a.sum.TotalIncome.Sub(a.sum.TotalExpense)
		top := sortedCategories(a.byCategory)
		if len(top) > TopCategoryLimit {
			top = top[:TopCategoryLimit]
		}
		a.sum.TopSpendingCategories = top
		out[cur] = a.sum
	}
	return out
}

// BudgetLevel classifies how much of a budget is used.
type BudgetLevel string

const (
	BudgetOK       BudgetLevel = "ok"
	BudgetWarning  BudgetLevel = "warning"
	BudgetExceeded BudgetLevel = "exceeded"
)

// WarningThreshold is the progress percentage that starts the warning level.
var WarningThreshold = decimal.NewFromInt(80)

// BudgetStatus is a budget with the month's spending against it.
type BudgetStatus struct {
	Budget
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Progress  decimal.Decimal `json:"progress"`
	Level     BudgetLevel     `json:"level"`
}

// Status computes spending for b from expenses in b's category and currency.
// txs should already be limited to b's month.
func Status(b Budget, txs []Transaction) BudgetStatus {
	spent := decimal.Zero
	for _, tx := range txs {
		if tx.Type != Expense || tx.CategoryID == nil || *tx.CategoryID != b.CategoryID {
			continue
		}
		if tx.Currency != b.Currency {
			continue
		}
		spent = spent.Add(tx.Amount)
	}
	return newStatus(b, spent)
}

// BudgetsWithSpending computes the status of every budget in one pass.
func BudgetsWithSpending(budgets []Budget, txs []Transaction) []BudgetStatus {
	type key struct {
		category uuid.UUID
		currency Currency
	}
	spent := map[key]decimal.Decimal{}
	for _, tx := range txs {
		if tx.Type != Expense || tx.CategoryID == nil {
			continue
		}
		k := key{*tx.CategoryID, tx.Currency}
		spent[k] = spent[k].Add(tx.Amount)
	}

	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, newStatus(b, spent[key{b.CategoryID, b.Currency}]))
	}
	return out
}

func newStatus(b Budget, spent decimal.Decimal) BudgetStatus {
	progress := decimal.Zero
	if b.Amount.IsPositive() {
		progress = spent.Div(b.Amount).Mul(hundred).Round(2)
	}
	return BudgetStatus{
		Budget:    b,
		Spent:     spent,
		Remaining: b.Amount.Sub(spent),
		Progress:  progress,
		Level:     levelFor(progress),
	}
}

func levelFor(progress decimal.Decimal) BudgetLevel {
	switch {
	case progress.GreaterThanOrEqual(hundred):
		return BudgetExceeded
	case progress.GreaterThanOrEqual(WarningThreshold):
		return BudgetWarning
	default:
		return BudgetOK
	}
}

func categoryName(tx Transaction) string {
	if tx.CategoryName == "" {
		return Uncategorized
	}
	return tx.CategoryName
}

func sortedCategories(totals map[string]decimal.Decimal) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(totals))
	for name, amt := range totals {
		out = append(out, CategoryAmount{Name: name, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}
