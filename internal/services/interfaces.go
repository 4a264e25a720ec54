package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"drachma/internal/dispatch"
	"drachma/internal/models"
	"drachma/internal/pagination"
)

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, name string, initialBalance decimal.Decimal, isDefault bool) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	GetDefaultAccount(userID string) (*models.Account, error)
	SetDefaultAccount(userID, accountID string) (*models.Account, error)

	// ApplyBalanceDelta is the single mutation path for account balances:
	// an in-database increment executed inside the caller's transaction,
	// never an absolute overwrite.
	ApplyBalanceDelta(tx *gorm.DB, accountID string, delta decimal.Decimal) error
}

// TransactionDraft is the typed input for posting or reposting a
// transaction. It is validated at the boundary before any store write.
type TransactionDraft struct {
	AccountID         string
	Type              models.TransactionType
	Amount            decimal.Decimal
	Description       string
	Category          string
	Date              time.Time
	IsRecurring       bool
	RecurringInterval *models.RecurringInterval
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Type      *models.TransactionType
	Category  *string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

// TransactionServicer defines the contract for the ledger's atomic posting
// operations.
type TransactionServicer interface {
	PostTransaction(userID string, draft TransactionDraft) (*models.Transaction, error)
	RepostTransaction(userID, transactionID string, draft TransactionDraft) (*models.Transaction, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

// RecurringServicer scans for due recurring templates and materializes
// occurrences. MaterializeTemplate is idempotent per (template, due date)
// and safe under at-least-once trigger delivery.
type RecurringServicer interface {
	DueTemplates(now time.Time) ([]dispatch.Trigger, error)
	MaterializeTemplate(templateID, userID string, now time.Time) (bool, error)
}

// BudgetStatus reports month-to-date spending against a budget.
type BudgetStatus struct {
	Budget          *models.Budget  `json:"budget"`
	CurrentExpenses decimal.Decimal `json:"current_expenses"`
	PercentageUsed  float64         `json:"percentage_used"`
}

// BudgetCheckSummary summarizes one budget-monitor sweep.
type BudgetCheckSummary struct {
	Evaluated int
	Alerted   int
	Skipped   int
	Failed    int
}

// BudgetServicer defines the contract for budget management and the
// periodic threshold monitor.
type BudgetServicer interface {
	SetBudget(userID string, amount decimal.Decimal) (*models.Budget, error)
	GetBudgetStatus(userID string) (*BudgetStatus, error)
	CheckBudgets(now time.Time) (BudgetCheckSummary, error)
}

// ReportSummary summarizes one monthly-report run.
type ReportSummary struct {
	Processed int
	Failed    int
}

// ReportServicer generates the prior month's financial report for every
// user. Per-user failures are isolated.
type ReportServicer interface {
	GenerateMonthlyReports(ctx context.Context, now time.Time) (ReportSummary, error)
}
