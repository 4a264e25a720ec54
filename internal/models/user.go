package models

// User represents an application user. Registration and authentication live
// upstream; this core only needs identity and a delivery address for reports.
type User struct {
	Base
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `json:"name"`

	Accounts     []Account     `gorm:"foreignKey:UserID" json:"accounts,omitempty"`
	Budgets      []Budget      `gorm:"foreignKey:UserID" json:"budgets,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}
