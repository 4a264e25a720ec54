package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"drachma/internal/dispatch"
	apperrors "drachma/internal/errors"
	"drachma/internal/models"
	"drachma/internal/recurrence"
)

// derivedMarker labels transactions materialized from a recurring template.
// Rows carrying it are never treated as templates themselves.
const derivedMarker = "(Recurring)"

const derivedSuffix = " " + derivedMarker

type recurringService struct {
	db       *gorm.DB
	accounts AccountServicer
}

// NewRecurringService creates a new recurring-transaction service instance.
func NewRecurringService(db *gorm.DB, accounts AccountServicer) RecurringServicer {
	return &recurringService{db: db, accounts: accounts}
}

func (s *recurringService) DueTemplates(now time.Time) ([]dispatch.Trigger, error) {
	var templates []models.Transaction
	err := s.db.Model(&models.Transaction{}).
		Select("id", "user_id").
		Where("is_recurring = ? AND status = ?", true, models.TransactionStatusCompleted).
		Where("description NOT LIKE ?", "%"+derivedMarker+"%").
		Where("last_processed_date IS NULL OR next_recurring_date <= ?", now).
		Find(&templates).Error
	if err != nil {
		return nil, storeError(err)
	}

	triggers := make([]dispatch.Trigger, 0, len(templates))
	for _, template := range templates {
		triggers = append(triggers, dispatch.Trigger{
			TemplateID: template.ID,
			UserID:     template.UserID,
		})
	}
	return triggers, nil
}

func (s *recurringService) MaterializeTemplate(templateID, userID string, now time.Time) (bool, error) {
	materialized := false
	err := retryOnConflict(func() error {
		materialized = false
		return s.db.Transaction(func(tx *gorm.DB) error {
			var template models.Transaction
			if err := tx.Where("id = ? AND user_id = ?", templateID, userID).First(&template).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// The template was deleted between scan and delivery.
					return nil
				}
				return storeError(err)
			}
			if !template.IsRecurring || template.Status != models.TransactionStatusCompleted {
				return nil
			}
			if !recurrence.Due(template.NextRecurringDate, template.LastProcessedDate, now) {
				return nil
			}
			if template.RecurringInterval == nil {
				return apperrors.ErrInvalidRecurringInterval
			}

			next, err := recurrence.Next(now, *template.RecurringInterval)
			if err != nil {
				return err
			}

			// Claim the template by advancing its schedule with the due
			// predicate re-applied. A concurrent redelivery loses the race
			// here and rolls back as a no-op.
			claim := tx.Model(&models.Transaction{}).
				Where("id = ?", template.ID).
				Where("last_processed_date IS NULL OR next_recurring_date <= ?", now).
				Updates(map[string]interface{}{
					"last_processed_date": now,
					"next_recurring_date": next,
				})
			if claim.Error != nil {
				return storeError(claim.Error)
			}
			if claim.RowsAffected == 0 {
				return nil
			}

			derived := &models.Transaction{
				UserID:      template.UserID,
				AccountID:   template.AccountID,
				Type:        template.Type,
				Amount:      template.Amount,
				Description: template.Description + derivedSuffix,
				Category:    template.Category,
				Date:        now,
				Status:      models.TransactionStatusCompleted,
			}
			if err := tx.Create(derived).Error; err != nil {
				return storeError(err)
			}
			if err := s.accounts.ApplyBalanceDelta(tx, template.AccountID, derived.SignedAmount()); err != nil {
				return err
			}
			materialized = true
			return nil
		})
	})
	if err != nil {
		return false, err
	}
	return materialized, nil
}
