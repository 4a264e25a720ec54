package models

import "github.com/shopspring/decimal"

// Account represents a ledger account owned by a single user.
//
// Balance is derived state: it always equals the signed sum of the
// transactions posted to the account and is only ever mutated through the
// delta-based atomic update in the account service, in the same database
// transaction as the transaction row write.
type Account struct {
	Base
	UserID    string          `gorm:"not null;index" json:"user_id"`
	Name      string          `gorm:"not null" json:"name"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"balance"`
	IsDefault bool            `gorm:"not null;default:false" json:"is_default"`

	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}
