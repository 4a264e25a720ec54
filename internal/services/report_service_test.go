package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"drachma/internal/insights"
	"drachma/internal/mail"
	"drachma/internal/models"
	"drachma/internal/testutil"
)

// stubGenerator fails the first failures calls, then returns fixed insights.
type stubGenerator struct {
	failures int
	calls    int
	last     insights.MonthlyStats
}

func (g *stubGenerator) Generate(_ context.Context, stats insights.MonthlyStats) ([]string, error) {
	g.calls++
	g.last = stats
	if g.calls <= g.failures {
		return nil, errors.New("model overloaded")
	}
	return []string{"Insight one", "Insight two"}, nil
}

func newReportService(t *testing.T, generator insights.Generator) (*reportService, *recordingSender, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sender := &recordingSender{}
	svc := NewReportService(db, generator, sender).(*reportService)
	svc.sleep = func(time.Duration) {}
	return svc, sender, func() { testutil.TeardownTestDB(t, db) }
}

func TestGenerateMonthlyReports(t *testing.T) {
	// Reports generated on Sep 1 cover August.
	now := time.Date(2024, 9, 1, 3, 0, 0, 0, time.UTC)

	t.Run("covers_prior_month_only", func(t *testing.T) {
		generator := &stubGenerator{}
		svc, sender, teardown := newReportService(t, generator)
		defer teardown()

		user := testutil.CreateTestUser(t, svc.db)
		account := testutil.CreateTestDefaultAccount(t, svc.db, user.ID)

		inAugust := time.Date(2024, 8, 15, 10, 0, 0, 0, time.UTC)
		testutil.CreateTestTransaction(t, svc.db, user.ID, account.ID,
			models.TransactionTypeIncome, decimal.NewFromInt(3000), inAugust)
		testutil.CreateTestTransaction(t, svc.db, user.ID, account.ID,
			models.TransactionTypeExpense, decimal.NewFromInt(1200), inAugust)
		// July and September activity stays out of the report.
		testutil.CreateTestTransaction(t, svc.db, user.ID, account.ID,
			models.TransactionTypeExpense, decimal.NewFromInt(999), inAugust.AddDate(0, -1, 0))
		testutil.CreateTestTransaction(t, svc.db, user.ID, account.ID,
			models.TransactionTypeExpense, decimal.NewFromInt(777), inAugust.AddDate(0, 1, 0))

		summary, err := svc.GenerateMonthlyReports(context.Background(), now)
		testutil.AssertNoError(t, err)
		if summary.Processed != 1 || summary.Failed != 0 {
			t.Fatalf("expected 1 processed, got %+v", summary)
		}

		if generator.last.Month != "August" {
			t.Errorf("expected stats for August, got %s", generator.last.Month)
		}
		if !generator.last.TotalIncome.Equal(decimal.NewFromInt(3000)) {
			t.Errorf("expected income 3000, got %s", generator.last.TotalIncome)
		}
		if !generator.last.TotalExpenses.Equal(decimal.NewFromInt(1200)) {
			t.Errorf("expected expenses 1200, got %s", generator.last.TotalExpenses)
		}
		if !generator.last.Net.Equal(decimal.NewFromInt(1800)) {
			t.Errorf("expected net 1800, got %s", generator.last.Net)
		}
		if generator.last.TransactionCount != 2 {
			t.Errorf("expected 2 transactions, got %d", generator.last.TransactionCount)
		}

		if len(sender.sent) != 1 {
			t.Fatalf("expected 1 report email, got %d", len(sender.sent))
		}
		if !strings.Contains(sender.sent[0].Subject, "August") {
			t.Errorf("subject should name the month, got %q", sender.sent[0].Subject)
		}
		if !strings.Contains(sender.sent[0].HTMLBody, "Insight one") {
			t.Error("report body should include the generated insights")
		}
	})

	t.Run("retries_then_succeeds", func(t *testing.T) {
		generator := &stubGenerator{failures: 2}
		svc, sender, teardown := newReportService(t, generator)
		defer teardown()
		testutil.CreateTestUser(t, svc.db)

		_, err := svc.GenerateMonthlyReports(context.Background(), now)
		testutil.AssertNoError(t, err)
		if generator.calls != 3 {
			t.Errorf("expected 3 generator calls, got %d", generator.calls)
		}
		if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].HTMLBody, "Insight one") {
			t.Error("report should carry the late-arriving insights")
		}
	})

	t.Run("fallback_after_exhaustion", func(t *testing.T) {
		generator := &stubGenerator{failures: insightAttempts}
		svc, sender, teardown := newReportService(t, generator)
		defer teardown()
		testutil.CreateTestUser(t, svc.db)

		summary, err := svc.GenerateMonthlyReports(context.Background(), now)
		testutil.AssertNoError(t, err)
		if summary.Processed != 1 {
			t.Fatalf("report must still go out on fallback, got %+v", summary)
		}
		if len(sender.sent) != 1 {
			t.Fatalf("expected 1 email, got %d", len(sender.sent))
		}
		for _, insight := range insights.Fallback() {
			if !strings.Contains(sender.sent[0].HTMLBody, insight) {
				t.Errorf("fallback insight %q missing from report", insight)
			}
		}
	})

	t.Run("per_user_failure_is_isolated", func(t *testing.T) {
		generator := &stubGenerator{}
		svc, sender, teardown := newReportService(t, generator)
		defer teardown()

		broken := testutil.CreateTestUser(t, svc.db)
		healthy := testutil.CreateTestUser(t, svc.db)

		failing := &selectiveSender{inner: sender, rejectTo: broken.Email}
		svc.sender = failing

		summary, err := svc.GenerateMonthlyReports(context.Background(), now)
		testutil.AssertNoError(t, err)
		if summary.Processed != 1 || summary.Failed != 1 {
			t.Errorf("expected one success and one isolated failure, got %+v", summary)
		}
		if len(sender.sent) != 1 || sender.sent[0].To != healthy.Email {
			t.Error("the healthy user's report should still be delivered")
		}
	})

	t.Run("cancelled_context_stops_run", func(t *testing.T) {
		generator := &stubGenerator{}
		svc, sender, teardown := newReportService(t, generator)
		defer teardown()
		testutil.CreateTestUser(t, svc.db)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.GenerateMonthlyReports(ctx, now)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(sender.sent) != 0 {
			t.Errorf("no reports should be sent after cancellation, got %d", len(sender.sent))
		}
	})
}

// selectiveSender rejects mail to one address and forwards the rest.
type selectiveSender struct {
	inner    *recordingSender
	rejectTo string
}

func (s *selectiveSender) Send(msg mail.Message) error {
	if msg.To == s.rejectTo {
		return errors.New("mailbox unavailable")
	}
	return s.inner.Send(msg)
}
