package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "drachma/internal/errors"
	"drachma/internal/logger"
	"drachma/internal/mail"
	"drachma/internal/models"
)

// alertThresholdPct is the spend percentage at which a budget alert fires.
const alertThresholdPct = 80.0

type budgetService struct {
	db       *gorm.DB
	accounts AccountServicer
	sender   mail.Sender
}

// NewBudgetService creates a new budget service instance.
func NewBudgetService(db *gorm.DB, accounts AccountServicer, sender mail.Sender) BudgetServicer {
	return &budgetService{db: db, accounts: accounts, sender: sender}
}

func (s *budgetService) SetBudget(userID string, amount decimal.Decimal) (*models.Budget, error) {
	if amount.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget amount must be greater than zero")
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, storeError(err)
	}

	var budget models.Budget
	err := s.db.Where("user_id = ?", userID).First(&budget).Error
	switch {
	case err == nil:
		if err := s.db.Model(&budget).Update("amount", amount).Error; err != nil {
			return nil, storeError(err)
		}
		budget.Amount = amount
	case errors.Is(err, gorm.ErrRecordNotFound):
		budget = models.Budget{UserID: userID, Amount: amount}
		if err := s.db.Create(&budget).Error; err != nil {
			return nil, storeError(err)
		}
	default:
		return nil, storeError(err)
	}
	return &budget, nil
}

func (s *budgetService) GetBudgetStatus(userID string) (*BudgetStatus, error) {
	var budget models.Budget
	if err := s.db.Where("user_id = ?", userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, storeError(err)
	}

	status := &BudgetStatus{Budget: &budget, CurrentExpenses: decimal.Zero}

	account, err := s.accounts.GetDefaultAccount(userID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrAccountNotFound) {
			return status, nil
		}
		return nil, err
	}

	now := time.Now()
	expenses, err := s.monthToDateExpenses(userID, account.ID, now)
	if err != nil {
		return nil, err
	}
	status.CurrentExpenses = expenses
	if budget.Amount.IsPositive() {
		status.PercentageUsed, _ = expenses.Div(budget.Amount).Mul(decimal.NewFromInt(100)).Float64()
	}
	return status, nil
}

func (s *budgetService) CheckBudgets(now time.Time) (BudgetCheckSummary, error) {
	var budgets []models.Budget
	if err := s.db.Preload("User").Find(&budgets).Error; err != nil {
		return BudgetCheckSummary{}, storeError(err)
	}

	summary := BudgetCheckSummary{}
	for i := range budgets {
		summary.Evaluated++
		alerted, err := s.evaluateBudget(&budgets[i], now)
		switch {
		case err != nil:
			summary.Failed++
			logger.Get().Errorw("budget check failed",
				"user_id", budgets[i].UserID,
				"error", err)
		case alerted:
			summary.Alerted++
		default:
			summary.Skipped++
		}
	}
	return summary, nil
}

// evaluateBudget checks one budget against the default account's
// month-to-date expenses and sends at most one alert per calendar month.
// LastAlertSent is only advanced after the alert was actually delivered.
func (s *budgetService) evaluateBudget(budget *models.Budget, now time.Time) (bool, error) {
	if budget.Amount.Sign() <= 0 {
		return false, nil
	}

	account, err := s.accounts.GetDefaultAccount(budget.UserID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}

	expenses, err := s.monthToDateExpenses(budget.UserID, account.ID, now)
	if err != nil {
		return false, err
	}

	pct, _ := expenses.Div(budget.Amount).Mul(decimal.NewFromInt(100)).Float64()
	if pct < alertThresholdPct {
		return false, nil
	}
	if budget.LastAlertSent != nil && sameMonth(*budget.LastAlertSent, now) {
		return false, nil
	}

	body, err := mail.RenderBudgetAlert(mail.BudgetAlertData{
		UserName:       budget.User.Name,
		AccountName:    account.Name,
		PercentageUsed: pct,
		BudgetAmount:   budget.Amount,
		TotalExpenses:  expenses,
	})
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.sender.Send(mail.Message{
		To:       budget.User.Email,
		Subject:  fmt.Sprintf("Budget Alert for %s", account.Name),
		HTMLBody: body,
	}); err != nil {
		return false, apperrors.Wrap(apperrors.ErrExternalService, err)
	}

	if err := s.db.Model(budget).Update("last_alert_sent", now).Error; err != nil {
		return false, storeError(err)
	}
	budget.LastAlertSent = &now
	return true, nil
}

func (s *budgetService) monthToDateExpenses(userID, accountID string, now time.Time) (decimal.Decimal, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	row := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND account_id = ? AND type = ?", userID, accountID, models.TransactionTypeExpense).
		Where("date >= ?", monthStart).
		Row()

	var total decimal.Decimal
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, storeError(err)
	}
	return total, nil
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
