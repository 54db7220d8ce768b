package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonymousminati/finly-backend/internal/domain"
)

func newAccountTestFixture(t *testing.T) (*AccountRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewAccountRepository(mock)
	return repo, mock
}

func TestAccountRepository_Create_Success(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()
	a := &domain.Account{
		UserID:           42,
		Name:             "Everyday Checking",
		MaskedNumber:     "1234****5678",
		BankName:         "First National",
		Type:             domain.AccountTypeChecking,
		CurrentBalance:   250_000,
		AvailableBalance: 250_000,
		Currency:         "USD",
		IsActive:         true,
	}

	mock.ExpectQuery("INSERT INTO financial_accounts").
		WithArgs(a.UserID, a.Name, a.MaskedNumber, a.BankName, a.Type,
			a.CurrentBalance, a.AvailableBalance, a.CreditLimit, a.Currency,
			a.IsPrimary, a.IsActive).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(7), now, now))

	err := repo.Create(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, int64(7), a.ID)
	assert.Equal(t, now, a.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Create_InsertFailure(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	a := &domain.Account{UserID: 42, Name: "Everyday Checking", Type: domain.AccountTypeChecking, Currency: "USD", IsActive: true}

	mock.ExpectQuery("INSERT INTO financial_accounts").
		WithArgs(a.UserID, a.Name, a.MaskedNumber, a.BankName, a.Type,
			a.CurrentBalance, a.AvailableBalance, a.CreditLimit, a.Currency,
			a.IsPrimary, a.IsActive).
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), a)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
