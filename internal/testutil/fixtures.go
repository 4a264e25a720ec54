package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"drachma/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email: email,
		Name:  fmt.Sprintf("Test User %d", nextID()),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a non-default account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return createAccount(t, db, userID, false)
}

// CreateTestDefaultAccount creates a default account with zero balance.
func CreateTestDefaultAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return createAccount(t, db, userID, true)
}

func createAccount(t *testing.T, db *gorm.DB, userID string, isDefault bool) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:    userID,
		Name:      fmt.Sprintf("Test Account %d", nextID()),
		Balance:   decimal.Zero,
		IsDefault: isDefault,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestTransaction creates a completed, non-recurring transaction.
// The account balance is NOT adjusted; tests that care about the balance
// invariant go through the transaction service instead.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, txType models.TransactionType, amount decimal.Decimal, date time.Time) *models.Transaction {
	t.Helper()

	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		Type:        txType,
		Amount:      amount,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Category:    "other-expense",
		Date:        date,
		Status:      models.TransactionStatusCompleted,
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return transaction
}

// CreateTestRecurringTemplate creates a completed recurring template whose
// next occurrence is due at nextDate.
func CreateTestRecurringTemplate(t *testing.T, db *gorm.DB, userID, accountID string, interval models.RecurringInterval, nextDate time.Time) *models.Transaction {
	t.Helper()

	template := &models.Transaction{
		UserID:            userID,
		AccountID:         accountID,
		Type:              models.TransactionTypeExpense,
		Amount:            decimal.NewFromInt(25),
		Description:       fmt.Sprintf("Test Subscription %d", nextID()),
		Category:          "entertainment",
		Date:              nextDate.AddDate(0, -1, 0),
		IsRecurring:       true,
		RecurringInterval: &interval,
		NextRecurringDate: &nextDate,
		Status:            models.TransactionStatusCompleted,
	}
	if err := db.Create(template).Error; err != nil {
		t.Fatalf("failed to create test recurring template: %v", err)
	}
	return template
}

// CreateTestBudget creates a budget for the user.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, amount decimal.Decimal) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID: userID,
		Amount: amount,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
