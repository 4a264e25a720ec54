package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "drachma/internal/errors"
	"drachma/internal/models"
	"drachma/internal/pagination"
	"drachma/internal/recurrence"
)

type transactionService struct {
	db       *gorm.DB
	accounts AccountServicer
}

// NewTransactionService creates a new transaction service instance.
func NewTransactionService(db *gorm.DB, accounts AccountServicer) TransactionServicer {
	return &transactionService{db: db, accounts: accounts}
}

func (s *transactionService) PostTransaction(userID string, draft TransactionDraft) (*models.Transaction, error) {
	if err := normalizeDraft(&draft); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccountByID(userID, draft.AccountID)
	if err != nil {
		return nil, err
	}

	duplicate, err := s.duplicateExists(userID, account.ID, draft, "")
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, apperrors.ErrDuplicateTransaction
	}

	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   account.ID,
		Type:        draft.Type,
		Amount:      draft.Amount,
		Description: draft.Description,
		Category:    draft.Category,
		Date:        draft.Date,
		IsRecurring: draft.IsRecurring,
		Status:      models.TransactionStatusCompleted,
	}
	if draft.IsRecurring {
		next, err := recurrence.Next(draft.Date, *draft.RecurringInterval)
		if err != nil {
			return nil, err
		}
		transaction.RecurringInterval = draft.RecurringInterval
		transaction.NextRecurringDate = &next
	}

	err = retryOnConflict(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(transaction).Error; err != nil {
				return storeError(err)
			}
			return s.accounts.ApplyBalanceDelta(tx, account.ID, transaction.SignedAmount())
		})
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *transactionService) RepostTransaction(userID, transactionID string, draft TransactionDraft) (*models.Transaction, error) {
	if err := normalizeDraft(&draft); err != nil {
		return nil, err
	}

	var updated *models.Transaction
	err := retryOnConflict(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			var original models.Transaction
			if err := tx.Where("id = ? AND user_id = ?", transactionID, userID).First(&original).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.ErrTransactionNotFound
				}
				return storeError(err)
			}
			if draft.AccountID != original.AccountID {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction cannot be moved between accounts")
			}

			// The compensating delta is computed against the stored row,
			// inside the same atomic unit that rewrites it.
			oldSigned := original.SignedAmount()

			original.Type = draft.Type
			original.Amount = draft.Amount
			original.Description = draft.Description
			original.Category = draft.Category
			original.Date = draft.Date
			original.IsRecurring = draft.IsRecurring
			if draft.IsRecurring {
				next, err := recurrence.Next(draft.Date, *draft.RecurringInterval)
				if err != nil {
					return err
				}
				original.RecurringInterval = draft.RecurringInterval
				original.NextRecurringDate = &next
			} else {
				original.RecurringInterval = nil
				original.NextRecurringDate = nil
				original.LastProcessedDate = nil
			}

			if err := tx.Save(&original).Error; err != nil {
				return storeError(err)
			}

			netDelta := original.SignedAmount().Sub(oldSigned)
			if !netDelta.IsZero() {
				if err := s.accounts.ApplyBalanceDelta(tx, original.AccountID, netDelta); err != nil {
					return err
				}
			}
			updated = &original
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, storeError(err)
	}
	return &transaction, nil
}

func (s *transactionService) GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := s.accounts.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}

	query := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND account_id = ?", userID, accountID)
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, storeError(err)
	}

	page.Defaults()
	var transactions []models.Transaction
	if err := query.
		Order("date DESC, created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, storeError(err)
	}

	response := pagination.NewPageResponse(transactions, page.Page, page.PageSize, total)
	return &response, nil
}

// normalizeDraft validates the draft in place, defaulting the date to now
// and clearing a stray interval on non-recurring drafts.
func normalizeDraft(draft *TransactionDraft) error {
	if !draft.Type.Valid() {
		return apperrors.ErrInvalidTransactionType
	}
	if draft.Amount.Sign() <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if draft.AccountID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "account id is required")
	}
	if draft.Date.IsZero() {
		draft.Date = time.Now()
	}
	if draft.IsRecurring {
		if draft.RecurringInterval == nil || !draft.RecurringInterval.Valid() {
			return apperrors.ErrInvalidRecurringInterval
		}
	} else {
		draft.RecurringInterval = nil
	}
	return nil
}

// duplicateExists reports whether a transaction with the same account, type,
// amount and description was already posted on the same calendar day.
// excludeID carves out the row being edited during a repost.
func (s *transactionService) duplicateExists(userID, accountID string, draft TransactionDraft, excludeID string) (bool, error) {
	dayStart := time.Date(draft.Date.Year(), draft.Date.Month(), draft.Date.Day(), 0, 0, 0, 0, draft.Date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND account_id = ? AND type = ? AND description = ?",
			userID, accountID, draft.Type, draft.Description).
		Where("amount = ?", draft.Amount).
		Where("date >= ? AND date < ?", dayStart, dayEnd)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, storeError(err)
	}
	return count > 0, nil
}
