// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("recurring_interval", validateRecurringInterval)
		_ = v.RegisterValidation("decimal_positive", validateDecimalPositive)
	}
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "INCOME", "EXPENSE":
		return true
	}
	return false
}

func validateRecurringInterval(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "DAILY", "WEEKLY", "MONTHLY", "YEARLY":
		return true
	}
	return false
}

// validateDecimalPositive handles shopspring decimal fields, which bind as
// structs and so fall outside the numeric gt=0 tag.
func validateDecimalPositive(fl validator.FieldLevel) bool {
	type positive interface{ Sign() int }
	if d, ok := fl.Field().Interface().(positive); ok {
		return d.Sign() > 0
	}
	return false
}
