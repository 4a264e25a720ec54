package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a user's monthly spending ceiling for their default account.
// LastAlertSent, when set, falls within the calendar month of the most recent
// threshold alert; the budget monitor sends at most one alert per month.
type Budget struct {
	Base
	UserID        string          `gorm:"not null;uniqueIndex" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	LastAlertSent *time.Time      `json:"last_alert_sent,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
