package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "drachma/internal/errors"
	"drachma/internal/models"
	"drachma/internal/services"
)

// --- mock budget service ---

type mockBudgetService struct {
	setBudgetFn       func(userID string, amount decimal.Decimal) (*models.Budget, error)
	getBudgetStatusFn func(userID string) (*services.BudgetStatus, error)
	checkBudgetsFn    func(now time.Time) (services.BudgetCheckSummary, error)
}

func (m *mockBudgetService) SetBudget(userID string, amount decimal.Decimal) (*models.Budget, error) {
	if m.setBudgetFn != nil {
		return m.setBudgetFn(userID, amount)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetBudgetStatus(userID string) (*services.BudgetStatus, error) {
	if m.getBudgetStatusFn != nil {
		return m.getBudgetStatusFn(userID)
	}
	return &services.BudgetStatus{Budget: &models.Budget{}}, nil
}

func (m *mockBudgetService) CheckBudgets(now time.Time) (services.BudgetCheckSummary, error) {
	if m.checkBudgetsFn != nil {
		return m.checkBudgetsFn(now)
	}
	return services.BudgetCheckSummary{}, nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.PUT("/budget", handler.SetBudget)
	auth.GET("/budget", handler.GetBudget)
	return r
}

// --- tests ---

func TestBudgetHandler_SetBudget(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			setBudgetFn: func(userID string, amount decimal.Decimal) (*models.Budget, error) {
				return &models.Budget{UserID: userID, Amount: amount}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc))

		rec := doRequest(r, http.MethodPut, "/budget", `{"amount":"750"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on missing amount", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}))

		rec := doRequest(r, http.MethodPut, "/budget", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestBudgetHandler_GetBudget(t *testing.T) {
	t.Run("returns status", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			getBudgetStatusFn: func(userID string) (*services.BudgetStatus, error) {
				return &services.BudgetStatus{
					Budget:          &models.Budget{UserID: userID, Amount: decimal.NewFromInt(1000)},
					CurrentExpenses: decimal.NewFromInt(800),
					PercentageUsed:  80,
				}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc))

		rec := doRequest(r, http.MethodGet, "/budget", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["percentage_used"] != float64(80) {
			t.Errorf("expected 80%% used, got %v", result["percentage_used"])
		}
	})

	t.Run("returns 404 when no budget", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			getBudgetStatusFn: func(_ string) (*services.BudgetStatus, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc))

		rec := doRequest(r, http.MethodGet, "/budget", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})
}
