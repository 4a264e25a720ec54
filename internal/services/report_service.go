package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "drachma/internal/errors"
	"drachma/internal/insights"
	"drachma/internal/logger"
	"drachma/internal/mail"
	"drachma/internal/models"
)

// insightAttempts bounds calls to the insight generator before the static
// fallback is used. A report is always produced.
const insightAttempts = 3

type reportService struct {
	db        *gorm.DB
	generator insights.Generator
	sender    mail.Sender
	sleep     func(time.Duration)
}

// NewReportService creates a new monthly-report service instance.
func NewReportService(db *gorm.DB, generator insights.Generator, sender mail.Sender) ReportServicer {
	return &reportService{db: db, generator: generator, sender: sender, sleep: time.Sleep}
}

func (s *reportService) GenerateMonthlyReports(ctx context.Context, now time.Time) (ReportSummary, error) {
	// The report always covers the calendar month before now.
	monthEnd := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthStart := monthEnd.AddDate(0, -1, 0)

	var users []models.User
	if err := s.db.Find(&users).Error; err != nil {
		return ReportSummary{}, storeError(err)
	}

	summary := ReportSummary{}
	for i := range users {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if err := s.reportForUser(ctx, &users[i], monthStart, monthEnd); err != nil {
			summary.Failed++
			logger.Get().Errorw("monthly report failed",
				"user_id", users[i].ID,
				"error", err)
			continue
		}
		summary.Processed++
	}
	return summary, nil
}

func (s *reportService) reportForUser(ctx context.Context, user *models.User, monthStart, monthEnd time.Time) error {
	stats, err := s.monthlyStats(user.ID, monthStart, monthEnd)
	if err != nil {
		return err
	}

	insightList := s.generateInsights(ctx, stats)

	body, err := mail.RenderMonthlyReport(mail.MonthlyReportData{
		UserName:         user.Name,
		Month:            stats.Month,
		TotalIncome:      stats.TotalIncome,
		TotalExpenses:    stats.TotalExpenses,
		Net:              stats.Net,
		TransactionCount: stats.TransactionCount,
		ByCategory:       stats.ByCategory,
		Insights:         insightList,
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.sender.Send(mail.Message{
		To:       user.Email,
		Subject:  fmt.Sprintf("Your Monthly Financial Report - %s", stats.Month),
		HTMLBody: body,
	}); err != nil {
		return apperrors.Wrap(apperrors.ErrExternalService, err)
	}
	return nil
}

// generateInsights calls the generator with a bounded retry and linear
// backoff. On exhaustion it falls back to the static insights so the report
// still goes out.
func (s *reportService) generateInsights(ctx context.Context, stats insights.MonthlyStats) []string {
	var lastErr error
	for attempt := 1; attempt <= insightAttempts; attempt++ {
		list, err := s.generator.Generate(ctx, stats)
		if err == nil {
			return list
		}
		lastErr = err
		if attempt < insightAttempts {
			s.sleep(time.Duration(attempt) * time.Second)
		}
	}
	logger.Get().Warnw("insight generation failed, using fallback",
		"month", stats.Month,
		"error", lastErr)
	return insights.Fallback()
}

func (s *reportService) monthlyStats(userID string, monthStart, monthEnd time.Time) (insights.MonthlyStats, error) {
	var transactions []models.Transaction
	err := s.db.
		Where("user_id = ? AND date >= ? AND date < ?", userID, monthStart, monthEnd).
		Find(&transactions).Error
	if err != nil {
		return insights.MonthlyStats{}, storeError(err)
	}

	stats := insights.MonthlyStats{
		Month:            monthStart.Format("January"),
		TransactionCount: len(transactions),
		ByCategory:       make(map[string]decimal.Decimal),
	}
	for _, transaction := range transactions {
		switch transaction.Type {
		case models.TransactionTypeIncome:
			stats.TotalIncome = stats.TotalIncome.Add(transaction.Amount)
		case models.TransactionTypeExpense:
			stats.TotalExpenses = stats.TotalExpenses.Add(transaction.Amount)
			stats.ByCategory[transaction.Category] = stats.ByCategory[transaction.Category].Add(transaction.Amount)
		}
	}
	stats.Net = stats.TotalIncome.Sub(stats.TotalExpenses)
	return stats, nil
}
