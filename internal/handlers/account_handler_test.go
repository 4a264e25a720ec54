package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "drachma/internal/errors"
	"drachma/internal/models"
	"drachma/internal/pagination"
	"drachma/internal/services"
	"drachma/internal/validator"
)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

const testUserID = "0191a6b0-0000-7000-8000-000000000001"

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- mock account service ---

type mockAccountService struct {
	createAccountFn     func(userID, name string, initialBalance decimal.Decimal, isDefault bool) (*models.Account, error)
	getUserAccountsFn   func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	getAccountByIDFn    func(userID, accountID string) (*models.Account, error)
	getDefaultAccountFn func(userID string) (*models.Account, error)
	setDefaultAccountFn func(userID, accountID string) (*models.Account, error)
}

func (m *mockAccountService) CreateAccount(userID, name string, initialBalance decimal.Decimal, isDefault bool) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(userID, name, initialBalance, isDefault)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	if m.getUserAccountsFn != nil {
		return m.getUserAccountsFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.Account{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockAccountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	if m.getAccountByIDFn != nil {
		return m.getAccountByIDFn(userID, accountID)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetDefaultAccount(userID string) (*models.Account, error) {
	if m.getDefaultAccountFn != nil {
		return m.getDefaultAccountFn(userID)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) SetDefaultAccount(userID, accountID string) (*models.Account, error) {
	if m.setDefaultAccountFn != nil {
		return m.setDefaultAccountFn(userID, accountID)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) ApplyBalanceDelta(_ *gorm.DB, _ string, _ decimal.Decimal) error {
	return nil
}

// verify interface compliance
var _ services.AccountServicer = (*mockAccountService)(nil)

func setupAccountRouter(handler *AccountHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/accounts", handler.CreateAccount)
	auth.GET("/accounts", handler.ListAccounts)
	auth.GET("/accounts/:id", handler.GetAccount)
	auth.PUT("/accounts/:id/default", handler.SetDefaultAccount)
	return r
}

// --- tests ---

func TestAccountHandler_CreateAccount(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		acctSvc := &mockAccountService{
			createAccountFn: func(userID, name string, initialBalance decimal.Decimal, isDefault bool) (*models.Account, error) {
				return &models.Account{
					Base:      models.Base{ID: "acct-1"},
					UserID:    userID,
					Name:      name,
					Balance:   initialBalance,
					IsDefault: true,
				}, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc))

		rec := doRequest(r, http.MethodPost, "/accounts", `{"name":"Checking","initial_balance":"100.50"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		result := parseJSON(t, rec)
		account := result["account"].(map[string]interface{})
		if account["name"] != "Checking" {
			t.Errorf("expected name Checking, got %v", account["name"])
		}
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}))

		rec := doRequest(r, http.MethodPost, "/accounts", `{"initial_balance":"10"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("maps service errors", func(t *testing.T) {
		acctSvc := &mockAccountService{
			createAccountFn: func(_, _ string, _ decimal.Decimal, _ bool) (*models.Account, error) {
				return nil, apperrors.ErrInvalidInput
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc))

		rec := doRequest(r, http.MethodPost, "/accounts", `{"name":"Checking"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_GetAccount(t *testing.T) {
	t.Run("returns 404 when missing", func(t *testing.T) {
		acctSvc := &mockAccountService{
			getAccountByIDFn: func(_, _ string) (*models.Account, error) {
				return nil, apperrors.ErrAccountNotFound
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc))

		rec := doRequest(r, http.MethodGet, "/accounts/nope", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_NOT_FOUND")
	})

	t.Run("passes user and account ids", func(t *testing.T) {
		var gotUser, gotAccount string
		acctSvc := &mockAccountService{
			getAccountByIDFn: func(userID, accountID string) (*models.Account, error) {
				gotUser, gotAccount = userID, accountID
				return &models.Account{Base: models.Base{ID: accountID}}, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc))

		rec := doRequest(r, http.MethodGet, "/accounts/acct-9", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotUser != testUserID || gotAccount != "acct-9" {
			t.Errorf("unexpected ids: user=%s account=%s", gotUser, gotAccount)
		}
	})
}

func TestAccountHandler_SetDefaultAccount(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		acctSvc := &mockAccountService{
			setDefaultAccountFn: func(_, accountID string) (*models.Account, error) {
				return &models.Account{Base: models.Base{ID: accountID}, IsDefault: true}, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc))

		rec := doRequest(r, http.MethodPut, "/accounts/acct-1/default", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}
