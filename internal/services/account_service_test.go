package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"drachma/internal/models"
	"drachma/internal/pagination"
	"drachma/internal/testutil"
)

func TestCreateAccount(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, "Savings", decimal.Zero, false)
		testutil.AssertNoError(t, err)

		if account.ID == "" {
			t.Fatal("expected non-empty account ID")
		}
		if account.Name != "Savings" {
			t.Errorf("expected name Savings, got %s", account.Name)
		}
		if !account.IsDefault {
			t.Error("first account should become the default")
		}
	})

	t.Run("with_initial_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, "Checking", decimal.NewFromInt(5000), false)
		testutil.AssertNoError(t, err)

		if !account.Balance.Equal(decimal.NewFromInt(5000)) {
			t.Errorf("expected balance 5000, got %s", account.Balance)
		}

		// The opening balance is itself a transaction so the ledger stays
		// consistent with the account balance.
		var txCount int64
		db.Model(&models.Transaction{}).Where("account_id = ?", account.ID).Count(&txCount)
		if txCount != 1 {
			t.Errorf("expected 1 initial transaction, got %d", txCount)
		}

		var tx models.Transaction
		db.Where("account_id = ?", account.ID).First(&tx)
		if tx.Type != models.TransactionTypeIncome {
			t.Errorf("expected initial transaction type INCOME, got %s", tx.Type)
		}
		if !tx.Amount.Equal(decimal.NewFromInt(5000)) {
			t.Errorf("expected initial transaction amount 5000, got %s", tx.Amount)
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, "", decimal.Zero, false)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("negative_initial_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, "Bad", decimal.NewFromInt(-1), false)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("new_default_demotes_previous", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		first, err := svc.CreateAccount(user.ID, "First", decimal.Zero, false)
		testutil.AssertNoError(t, err)
		second, err := svc.CreateAccount(user.ID, "Second", decimal.Zero, true)
		testutil.AssertNoError(t, err)

		var reloaded models.Account
		db.First(&reloaded, "id = ?", first.ID)
		if reloaded.IsDefault {
			t.Error("previous default should have been demoted")
		}
		if !second.IsDefault {
			t.Error("new account should be the default")
		}
	})
}

func TestGetUserAccounts(t *testing.T) {
	t.Run("default_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestAccount(t, db, user.ID)
		def := testutil.CreateTestDefaultAccount(t, db, user.ID)

		page, err := svc.GetUserAccounts(user.ID, pagination.PageRequest{Page: 1, PageSize: 10})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 2 {
			t.Fatalf("expected 2 accounts, got %d", page.TotalItems)
		}
		if page.Data[0].ID != def.ID {
			t.Error("default account should be listed first")
		}
	})

	t.Run("excludes_other_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		testutil.CreateTestAccount(t, db, other.ID)

		page, err := svc.GetUserAccounts(user.ID, pagination.PageRequest{Page: 1, PageSize: 10})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 0 {
			t.Errorf("expected 0 accounts, got %d", page.TotalItems)
		}
	})
}

func TestGetAccountByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		got, err := svc.GetAccountByID(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if got.ID != account.ID {
			t.Errorf("expected account %s, got %s", account.ID, got.ID)
		}
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, other.ID)

		_, err := svc.GetAccountByID(user.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestSetDefaultAccount(t *testing.T) {
	t.Run("swaps_default", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		old := testutil.CreateTestDefaultAccount(t, db, user.ID)
		account := testutil.CreateTestAccount(t, db, user.ID)

		updated, err := svc.SetDefaultAccount(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if !updated.IsDefault {
			t.Error("account should be default after the swap")
		}

		var previous models.Account
		db.First(&previous, "id = ?", old.ID)
		if previous.IsDefault {
			t.Error("previous default should have been demoted")
		}

		got, err := svc.GetDefaultAccount(user.ID)
		testutil.AssertNoError(t, err)
		if got.ID != account.ID {
			t.Errorf("expected default %s, got %s", account.ID, got.ID)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.SetDefaultAccount(user.ID, "missing")
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestApplyBalanceDelta(t *testing.T) {
	t.Run("increments_in_place", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		testutil.AssertNoError(t, svc.ApplyBalanceDelta(db, account.ID, decimal.NewFromInt(100)))
		testutil.AssertNoError(t, svc.ApplyBalanceDelta(db, account.ID, decimal.NewFromInt(-30)))

		var reloaded models.Account
		db.First(&reloaded, "id = ?", account.ID)
		if !reloaded.Balance.Equal(decimal.NewFromInt(70)) {
			t.Errorf("expected balance 70, got %s", reloaded.Balance)
		}
	})

	t.Run("missing_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		err := svc.ApplyBalanceDelta(db, "missing", decimal.NewFromInt(1))
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}
