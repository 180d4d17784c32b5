package service

import (
	"context"
	"errors"
	"testing"

	"commerce-ledger/internal/core/domain"
	"commerce-ledger/internal/core/ports/mocks"
	"commerce-ledger/internal/ledger"
	"commerce-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type withdrawalTestDeps struct {
	svc      *WithdrawalServiceImpl
	store    *ledger.Store
	bank     *mocks.MockAssetBank
	ctrl     *gomock.Controller
	merchant uuid.UUID
	operator uuid.UUID
}

// setupWithdrawal seeds a whitelisted merchant with 500 TokenX and 300 TokenY.
func setupWithdrawal(t *testing.T) *withdrawalTestDeps {
	ctrl := gomock.NewController(t)
	store := ledger.NewStore()

	d := &withdrawalTestDeps{
		store:    store,
		bank:     mocks.NewMockAssetBank(ctrl),
		ctrl:     ctrl,
		merchant: uuid.New(),
		operator: uuid.New(),
	}
	d.svc = NewWithdrawalService(store, ledger.NewGuard(), d.bank, NewAuditService(nil, zerolog.Nop()), zerolog.Nop())

	m := store.RegisterMutator("test")
	require.NoError(t, store.GrantRole(m, d.operator, domain.RoleBackendOperator))
	require.NoError(t, store.SetMerchantListed(m, d.merchant, true))
	require.NoError(t, store.AddBalance(m, d.merchant, "TokenX", 500))
	require.NoError(t, store.AddBalance(m, d.merchant, "TokenY", 300))
	return d
}

func TestWithdrawalService_Withdraw(t *testing.T) {
	d := setupWithdrawal(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.bank.EXPECT().Push(ctx, "TokenX", d.merchant, int64(500)).Return(nil)

	rec, err := d.svc.Withdraw(ctx, d.merchant, d.merchant, "TokenX")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalKindMerchant, rec.Kind)
	assert.Equal(t, int64(500), rec.Amount, "full balance")
	assert.Equal(t, d.merchant, rec.Recipient)
	assert.Equal(t, int64(0), d.store.Balance(d.merchant, "TokenX"))
	assert.Equal(t, int64(1), d.svc.Count(ctx))

	// Nothing left to withdraw.
	_, err = d.svc.Withdraw(ctx, d.merchant, d.merchant, "TokenX")
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientBalance))
}

func TestWithdrawalService_Withdraw_Authorization(t *testing.T) {
	d := setupWithdrawal(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	_, err := d.svc.Withdraw(ctx, uuid.New(), d.merchant, "TokenX")
	assert.True(t, apperror.IsCode(err, apperror.CodeNotAuthorized))

	// Backend operators may withdraw on the merchant's behalf; the
	// funds still go to the merchant.
	d.bank.EXPECT().Push(ctx, "TokenX", d.merchant, int64(500)).Return(nil)
	rec, err := d.svc.Withdraw(ctx, d.operator, d.merchant, "TokenX")
	require.NoError(t, err)
	assert.Equal(t, d.operator, rec.InitiatedBy)
	assert.Equal(t, d.merchant, rec.Recipient)
}

func TestWithdrawalService_DelistedMerchantCannotWithdraw(t *testing.T) {
	d := setupWithdrawal(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	// Delisting freezes the remaining balance on every withdrawal path.
	m := d.store.RegisterMutator("test2")
	require.NoError(t, d.store.SetMerchantListed(m, d.merchant, false))

	_, err := d.svc.Withdraw(ctx, d.merchant, d.merchant, "TokenX")
	assert.True(t, apperror.IsCode(err, apperror.CodeNotWhitelisted))

	_, err = d.svc.WithdrawTo(ctx, d.merchant, d.merchant, "TokenX", 100, uuid.New())
	assert.True(t, apperror.IsCode(err, apperror.CodeNotWhitelisted))

	_, err = d.svc.WithdrawAll(ctx, d.merchant, d.merchant, []string{"TokenX", "TokenY"})
	assert.True(t, apperror.IsCode(err, apperror.CodeNotWhitelisted))

	assert.Equal(t, int64(500), d.store.Balance(d.merchant, "TokenX"), "balance untouched")
	assert.Equal(t, int64(0), d.svc.Count(ctx), "no record appended")
}

func TestWithdrawalService_WithdrawTo(t *testing.T) {
	d := setupWithdrawal(t)
	defer d.ctrl.Finish()
	ctx := context.Background()
	recipient := uuid.New()

	_, err := d.svc.WithdrawTo(ctx, d.merchant, d.merchant, "TokenX", 0, recipient)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidAmount))

	_, err = d.svc.WithdrawTo(ctx, d.merchant, d.merchant, "TokenX", 100, uuid.Nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidRecipient))

	_, err = d.svc.WithdrawTo(ctx, d.merchant, d.merchant, "TokenX", 600, recipient)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientBalance))

	d.bank.EXPECT().Push(ctx, "TokenX", recipient, int64(100)).Return(nil)
	rec, err := d.svc.WithdrawTo(ctx, d.merchant, d.merchant, "TokenX", 100, recipient)
	require.NoError(t, err)
	assert.Equal(t, recipient, rec.Recipient)
	assert.Equal(t, int64(400), d.store.Balance(d.merchant, "TokenX"))
}

func TestWithdrawalService_WithdrawAll(t *testing.T) {
	d := setupWithdrawal(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	// TokenZ has a zero balance and is silently skipped.
	d.bank.EXPECT().Push(ctx, "TokenX", d.merchant, int64(500)).Return(nil)
	d.bank.EXPECT().Push(ctx, "TokenY", d.merchant, int64(300)).Return(nil)

	recs, err := d.svc.WithdrawAll(ctx, d.merchant, d.merchant, []string{"TokenX", "TokenZ", "TokenY"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(0), d.store.Balance(d.merchant, "TokenX"))
	assert.Equal(t, int64(0), d.store.Balance(d.merchant, "TokenY"))
}

func TestWithdrawalService_PushFailureKeepsCommit(t *testing.T) {
	d := setupWithdrawal(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.bank.EXPECT().Push(ctx, "TokenX", d.merchant, int64(500)).Return(errors.New("custody unreachable"))

	rec, err := d.svc.Withdraw(ctx, d.merchant, d.merchant, "TokenX")
	require.Error(t, err)
	require.NotNil(t, rec, "record is committed before the transfer")
	assert.Equal(t, int64(0), d.store.Balance(d.merchant, "TokenX"), "debit stands")
	assert.Equal(t, int64(1), d.svc.Count(ctx))
}

func TestWithdrawalService_Paused(t *testing.T) {
	d := setupWithdrawal(t)
	defer d.ctrl.Finish()

	m := d.store.RegisterMutator("test2")
	require.NoError(t, d.store.SetPaused(m, true))

	_, err := d.svc.Withdraw(context.Background(), d.merchant, d.merchant, "TokenX")
	assert.True(t, apperror.IsCode(err, apperror.CodeSystemPaused))
}

func TestWithdrawalService_HistoryQueries(t *testing.T) {
	d := setupWithdrawal(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.bank.EXPECT().Push(ctx, "TokenX", d.merchant, int64(500)).Return(nil)
	d.bank.EXPECT().Push(ctx, "TokenY", d.merchant, int64(300)).Return(nil)
	_, err := d.svc.Withdraw(ctx, d.merchant, d.merchant, "TokenX")
	require.NoError(t, err)
	_, err = d.svc.Withdraw(ctx, d.merchant, d.merchant, "TokenY")
	require.NoError(t, err)

	assert.Equal(t, int64(2), d.svc.Count(ctx))

	first, err := d.svc.ByIndex(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "TokenX", first.Asset)

	recent := d.svc.Recent(ctx, 1)
	require.Len(t, recent, 1)
	assert.Equal(t, "TokenY", recent[0].Asset, "newest first")

	byMerchant := d.svc.Query(ctx, domain.WithdrawalQuery{MerchantID: &d.merchant})
	assert.Len(t, byMerchant, 2)

	totals := d.svc.TotalsByAsset(ctx, domain.WithdrawalQuery{MerchantID: &d.merchant})
	assert.Equal(t, int64(500), totals["TokenX"])
	assert.Equal(t, int64(300), totals["TokenY"])
}
