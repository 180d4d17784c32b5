package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"commerce-ledger/internal/core/domain"
	"commerce-ledger/internal/core/ports"
	"commerce-ledger/internal/core/ports/mocks"
	"commerce-ledger/internal/ledger"
	"commerce-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type settlementTestDeps struct {
	svc      *SettlementServiceImpl
	invoices *InvoiceServiceImpl
	store    *ledger.Store
	bank     *mocks.MockAssetBank
	ctrl     *gomock.Controller

	admin    uuid.UUID
	merchant uuid.UUID
	payer    uuid.UUID
}

// setupSettlement wires a store with one whitelisted merchant, one
// whitelisted asset ("TokenX" at 100 bps default fee) and a mock bank.
func setupSettlement(t *testing.T) *settlementTestDeps {
	ctrl := gomock.NewController(t)
	store := ledger.NewStore()
	guard := ledger.NewGuard()
	audit := NewAuditService(nil, zerolog.Nop())

	d := &settlementTestDeps{
		store:    store,
		bank:     mocks.NewMockAssetBank(ctrl),
		ctrl:     ctrl,
		admin:    uuid.New(),
		merchant: uuid.New(),
		payer:    uuid.New(),
	}
	d.svc = NewSettlementService(store, guard, d.bank, audit, zerolog.Nop())
	d.invoices = NewInvoiceService(store, guard, audit, zerolog.Nop())

	m := store.RegisterMutator("test")
	require.NoError(t, store.GrantRole(m, d.admin, domain.RoleAdmin))
	require.NoError(t, store.SetMerchantListed(m, d.merchant, true))
	require.NoError(t, store.SetAssetListed(m, "TokenX", true))
	require.NoError(t, store.SetMerchantAsset(m, d.merchant, "TokenX", true))
	require.NoError(t, store.SetDefaultFeeBps(m, 100))
	return d
}

func (d *settlementTestDeps) createInvoice(t *testing.T, id string, amount int64) {
	_, err := d.invoices.Create(context.Background(), d.merchant, ports.CreateInvoiceRequest{
		ID:         id,
		MerchantID: d.merchant,
		Options:    []domain.PaymentOption{{Asset: "TokenX", Amount: amount}},
	})
	require.NoError(t, err)
}

func TestSettlementService_Pay_Success(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.createInvoice(t, "inv-1", 10000)
	d.bank.EXPECT().Pull(ctx, "TokenX", d.payer, int64(10000)).Return(nil)

	inv, err := d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenX", Amount: 10000})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
	assert.Equal(t, int64(100), inv.Fee, "100 bps of 10000")
	require.NotNil(t, inv.Payer)
	assert.Equal(t, d.payer, *inv.Payer)

	// Net to the merchant, fee to the protocol.
	assert.Equal(t, int64(9900), d.svc.Balance(ctx, d.merchant, "TokenX"))
	assert.Equal(t, int64(100), d.svc.ServiceFeeBalance(ctx, "TokenX"))
}

func TestSettlementService_Pay_FeeRoundsDown(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	// 100 bps of 99 floors to 0; the merchant keeps everything.
	d.createInvoice(t, "inv-1", 99)
	d.bank.EXPECT().Pull(ctx, "TokenX", d.payer, int64(99)).Return(nil)

	inv, err := d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenX", Amount: 99})
	require.NoError(t, err)
	assert.Equal(t, int64(0), inv.Fee)
	assert.Equal(t, int64(99), d.svc.Balance(ctx, d.merchant, "TokenX"))
}

func TestSettlementService_Pay_MerchantFeeOverride(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	m := d.store.RegisterMutator("test2")
	require.NoError(t, d.store.SetMerchantFeeBps(m, d.merchant, 500))

	d.createInvoice(t, "inv-1", 10000)
	d.bank.EXPECT().Pull(ctx, "TokenX", d.payer, int64(10000)).Return(nil)

	inv, err := d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenX", Amount: 10000})
	require.NoError(t, err)
	assert.Equal(t, int64(500), inv.Fee, "override beats the default")
}

func TestSettlementService_Pay_Mismatch(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.createInvoice(t, "inv-1", 10000)

	_, err := d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenX", Amount: 9999})
	assert.True(t, apperror.IsCode(err, apperror.CodePaymentMismatch), "no partial payment")

	_, err = d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenY", Amount: 10000})
	assert.True(t, apperror.IsCode(err, apperror.CodePaymentMismatch), "wrong asset")
}

func TestSettlementService_Pay_NotPending(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.createInvoice(t, "inv-1", 10000)
	d.bank.EXPECT().Pull(ctx, "TokenX", d.payer, int64(10000)).Return(nil)

	_, err := d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenX", Amount: 10000})
	require.NoError(t, err)

	// Second settlement attempt hits the PAID state.
	_, err = d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenX", Amount: 10000})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestSettlementService_Pay_Expired(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	expiry := time.Now().UTC().Add(10 * time.Millisecond)
	_, err := d.invoices.Create(ctx, d.merchant, ports.CreateInvoiceRequest{
		ID:         "inv-exp",
		MerchantID: d.merchant,
		Options:    []domain.PaymentOption{{Asset: "TokenX", Amount: 100}},
		ExpiresAt:  &expiry,
	})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-exp", Asset: "TokenX", Amount: 100})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState), "lapsed expiry blocks settlement")
}

func TestSettlementService_Pay_UnknownInvoice(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()

	_, err := d.svc.Pay(context.Background(), d.payer, ports.PayRequest{InvoiceID: "missing", Asset: "TokenX", Amount: 1})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvoiceNotFound))
}

func TestSettlementService_Pay_DelistedMerchant(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.createInvoice(t, "inv-1", 10000)

	// Delisting after creation blocks settlement of the open invoice.
	m := d.store.RegisterMutator("test2")
	require.NoError(t, d.store.SetMerchantListed(m, d.merchant, false))

	_, err := d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenX", Amount: 10000})
	assert.True(t, apperror.IsCode(err, apperror.CodeNotWhitelisted))
}

func TestSettlementService_Pay_Paused(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.createInvoice(t, "inv-1", 10000)
	m := d.store.RegisterMutator("test2")
	require.NoError(t, d.store.SetPaused(m, true))

	_, err := d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenX", Amount: 10000})
	assert.True(t, apperror.IsCode(err, apperror.CodeSystemPaused))
}

func TestSettlementService_Pay_CancelDuringPullWaitsForCommit(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.createInvoice(t, "inv-1", 10000)

	// A cancel fired while the payment sits at the custody boundary must
	// block on the guard, then see the PAID state. Without that, the
	// cancel lands on the pre-payment snapshot and the commit overwrites
	// a terminal invoice.
	cancelErr := make(chan error, 1)
	d.bank.EXPECT().Pull(ctx, "TokenX", d.payer, int64(10000)).DoAndReturn(
		func(context.Context, string, uuid.UUID, int64) error {
			go func() {
				_, err := d.invoices.Cancel(ctx, d.merchant, "inv-1")
				cancelErr <- err
			}()
			time.Sleep(20 * time.Millisecond) // let the cancel reach the guard
			return nil
		})

	inv, err := d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenX", Amount: 10000})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)

	err = <-cancelErr
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState), "cancel sees the committed PAID state")

	got, err := d.invoices.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, got.Status)
	assert.Equal(t, int64(9900), d.svc.Balance(ctx, d.merchant, "TokenX"))
}

func TestSettlementService_Pay_PullFailureLeavesNothing(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.createInvoice(t, "inv-1", 10000)
	d.bank.EXPECT().Pull(ctx, "TokenX", d.payer, int64(10000)).Return(apperror.ErrInsufficientBalance())

	_, err := d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenX", Amount: 10000})
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientBalance))

	inv, err := d.invoices.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPending, inv.Status, "failed pull commits nothing")
	assert.Equal(t, int64(0), d.svc.Balance(ctx, d.merchant, "TokenX"))
	assert.Equal(t, int64(0), d.svc.ServiceFeeBalance(ctx, "TokenX"))
}

func TestSettlementService_Refund_Success(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.createInvoice(t, "inv-1", 10000)
	d.bank.EXPECT().Pull(ctx, "TokenX", d.payer, int64(10000)).Return(nil)
	_, err := d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenX", Amount: 10000})
	require.NoError(t, err)

	// Gross amount goes back to the payer.
	d.bank.EXPECT().Push(ctx, "TokenX", d.payer, int64(10000)).Return(nil)

	inv, err := d.svc.Refund(ctx, d.admin, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusRefunded, inv.Status)
	assert.Equal(t, int64(0), d.svc.Balance(ctx, d.merchant, "TokenX"))
	assert.Equal(t, int64(0), d.svc.ServiceFeeBalance(ctx, "TokenX"))
}

func TestSettlementService_Refund_AppendsHistoryRecord(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.createInvoice(t, "inv-1", 10000)
	d.bank.EXPECT().Pull(ctx, "TokenX", d.payer, int64(10000)).Return(nil)
	_, err := d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenX", Amount: 10000})
	require.NoError(t, err)

	d.bank.EXPECT().Push(ctx, "TokenX", d.payer, int64(10000)).Return(nil)
	_, err = d.svc.Refund(ctx, d.admin, "inv-1")
	require.NoError(t, err)

	recs := d.store.RecentWithdrawals(1)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, domain.WithdrawalKindMerchant, rec.Kind)
	assert.Equal(t, int64(10000), rec.Amount, "gross amount leaves the ledger")
	assert.Equal(t, d.payer, rec.Recipient)
	assert.Equal(t, d.admin, rec.InitiatedBy)
	require.NotNil(t, rec.MerchantID)
	assert.Equal(t, d.merchant, *rec.MerchantID)
	require.NotNil(t, rec.InvoiceID)
	assert.Equal(t, "inv-1", *rec.InvoiceID)
}

func TestSettlementService_Refund_RequiresOperator(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()

	_, err := d.svc.Refund(context.Background(), d.payer, "inv-1")
	assert.True(t, apperror.IsCode(err, apperror.CodeNotAuthorized))
}

func TestSettlementService_Refund_OnlyPaid(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.createInvoice(t, "inv-1", 10000)

	_, err := d.svc.Refund(ctx, d.admin, "inv-1")
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestSettlementService_Refund_InsufficientMerchantBalance(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.createInvoice(t, "inv-1", 10000)
	d.bank.EXPECT().Pull(ctx, "TokenX", d.payer, int64(10000)).Return(nil)
	_, err := d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenX", Amount: 10000})
	require.NoError(t, err)

	// The merchant withdrew in the meantime; the refund cannot cover
	// the net leg and must fail without touching anything.
	m := d.store.RegisterMutator("test2")
	require.NoError(t, d.store.SubBalance(m, d.merchant, "TokenX", 9900))

	_, err = d.svc.Refund(ctx, d.admin, "inv-1")
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientBalance))

	inv, err := d.invoices.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
	assert.Equal(t, int64(100), d.svc.ServiceFeeBalance(ctx, "TokenX"), "fee leg untouched")
}

func TestSettlementService_Refund_PushFailureKeepsCommit(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.createInvoice(t, "inv-1", 10000)
	d.bank.EXPECT().Pull(ctx, "TokenX", d.payer, int64(10000)).Return(nil)
	_, err := d.svc.Pay(ctx, d.payer, ports.PayRequest{InvoiceID: "inv-1", Asset: "TokenX", Amount: 10000})
	require.NoError(t, err)

	d.bank.EXPECT().Push(ctx, "TokenX", d.payer, int64(10000)).Return(errors.New("custody unreachable"))

	inv, err := d.svc.Refund(ctx, d.admin, "inv-1")
	require.Error(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, domain.InvoiceStatusRefunded, inv.Status, "ledger commit stands")
	assert.Equal(t, int64(0), d.svc.Balance(ctx, d.merchant, "TokenX"))
}
