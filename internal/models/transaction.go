package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// Valid reports whether the type is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// RecurringInterval represents the cadence of a recurring template.
type RecurringInterval string

const (
	RecurringDaily   RecurringInterval = "DAILY"
	RecurringWeekly  RecurringInterval = "WEEKLY"
	RecurringMonthly RecurringInterval = "MONTHLY"
	RecurringYearly  RecurringInterval = "YEARLY"
)

// Valid reports whether the interval is one of the known cadences.
func (r RecurringInterval) Valid() bool {
	switch r {
	case RecurringDaily, RecurringWeekly, RecurringMonthly, RecurringYearly:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle status of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// Transaction represents a financial transaction in the system.
//
// A transaction with IsRecurring set is a template: its own posting affects
// the balance once, at creation, and thereafter it only spawns derived
// non-recurring transactions on each due occurrence.
type Transaction struct {
	Base
	UserID      string          `gorm:"not null;index" json:"user_id"`
	AccountID   string          `gorm:"not null;index" json:"account_id"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        time.Time       `gorm:"not null;index" json:"date"`

	IsRecurring       bool               `gorm:"not null;default:false" json:"is_recurring"`
	RecurringInterval *RecurringInterval `json:"recurring_interval,omitempty"`
	NextRecurringDate *time.Time         `gorm:"index" json:"next_recurring_date,omitempty"`
	LastProcessedDate *time.Time         `json:"last_processed_date,omitempty"`

	Status TransactionStatus `gorm:"not null;default:'COMPLETED'" json:"status"`

	Account Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

// SignedAmount returns the amount with sign applied by type: positive for
// income, negative for expense. All balance arithmetic goes through this.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}
