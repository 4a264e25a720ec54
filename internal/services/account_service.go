package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "drachma/internal/errors"
	"drachma/internal/models"
	"drachma/internal/pagination"
)

type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new account service instance.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

func (s *accountService) CreateAccount(userID, name string, initialBalance decimal.Decimal, isDefault bool) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if initialBalance.Sign() < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "initial balance cannot be negative")
	}

	var existing int64
	if err := s.db.Model(&models.Account{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
		return nil, storeError(err)
	}
	// The user's first account is always the default.
	if existing == 0 {
		isDefault = true
	}

	account := &models.Account{
		UserID:    userID,
		Name:      name,
		Balance:   decimal.Zero,
		IsDefault: isDefault,
	}

	err := retryOnConflict(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if isDefault {
				if err := tx.Model(&models.Account{}).
					Where("user_id = ? AND is_default = ?", userID, true).
					Update("is_default", false).Error; err != nil {
					return storeError(err)
				}
			}
			if err := tx.Create(account).Error; err != nil {
				return storeError(err)
			}
			if initialBalance.IsPositive() {
				opening := &models.Transaction{
					UserID:      userID,
					AccountID:   account.ID,
					Type:        models.TransactionTypeIncome,
					Amount:      initialBalance,
					Description: "Initial balance",
					Category:    "other-income",
					Status:      models.TransactionStatusCompleted,
				}
				if err := tx.Create(opening).Error; err != nil {
					return storeError(err)
				}
				if err := s.ApplyBalanceDelta(tx, account.ID, initialBalance); err != nil {
					return err
				}
				account.Balance = initialBalance
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *accountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	query := s.db.Model(&models.Account{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, storeError(err)
	}

	var accounts []models.Account
	if err := query.
		Order("is_default DESC, created_at ASC").
		Scopes(pagination.Paginate(page)).
		Find(&accounts).Error; err != nil {
		return nil, storeError(err)
	}

	response := pagination.NewPageResponse(accounts, page.Page, page.PageSize, total)
	return &response, nil
}

func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, storeError(err)
	}
	return &account, nil
}

func (s *accountService) GetDefaultAccount(userID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("user_id = ? AND is_default = ?", userID, true).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, storeError(err)
	}
	return &account, nil
}

func (s *accountService) SetDefaultAccount(userID, accountID string) (*models.Account, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	err = retryOnConflict(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Account{}).
				Where("user_id = ? AND is_default = ?", userID, true).
				Update("is_default", false).Error; err != nil {
				return storeError(err)
			}
			if err := tx.Model(&models.Account{}).
				Where("id = ?", account.ID).
				Update("is_default", true).Error; err != nil {
				return storeError(err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	account.IsDefault = true
	return account, nil
}

func (s *accountService) ApplyBalanceDelta(tx *gorm.DB, accountID string, delta decimal.Decimal) error {
	result := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return storeError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}
