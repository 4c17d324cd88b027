package pos

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/shared"
)

type stubRepo struct {
	sales    map[int64]Sale
	payments []Payment
	lastList ListFilter
	deleted  []int64
}

func newStubRepo(sales ...Sale) *stubRepo {
	r := &stubRepo{sales: make(map[int64]Sale)}
	for _, s := range sales {
		r.sales[s.ID] = s
	}
	return r
}

func (r *stubRepo) visible(id int64, companyID *int64) (Sale, error) {
	sale, ok := r.sales[id]
	if !ok || (companyID != nil && sale.CompanyID != *companyID) {
		return Sale{}, httpx.ErrNotFound
	}
	return sale, nil
}

func (r *stubRepo) List(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	r.lastList = filter
	var out []Sale
	for _, s := range r.sales {
		if filter.CompanyID == nil || s.CompanyID == *filter.CompanyID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (r *stubRepo) Get(ctx context.Context, id int64, companyID *int64) (Sale, error) {
	return r.visible(id, companyID)
}

func (r *stubRepo) Payments(ctx context.Context, saleID int64) ([]Payment, error) {
	var out []Payment
	for _, p := range r.payments {
		if p.SaleID == saleID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubRepo) Update(ctx context.Context, id int64, companyID *int64, input UpdateInput) error {
	sale, err := r.visible(id, companyID)
	if err != nil {
		return err
	}
	if input.CustomerName != nil {
		sale.CustomerName = *input.CustomerName
	}
	if input.Notes != nil {
		sale.Notes = *input.Notes
	}
	r.sales[id] = sale
	return nil
}

func (r *stubRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *stubRepo) LockSale(ctx context.Context, id int64, companyID *int64) (Sale, error) {
	return r.visible(id, companyID)
}

func (r *stubRepo) InsertPayment(ctx context.Context, payment Payment) (Payment, error) {
	payment.ID = int64(len(r.payments) + 1)
	r.payments = append(r.payments, payment)
	return payment, nil
}

func (r *stubRepo) UpdatePaymentState(ctx context.Context, id int64, paid decimal.Decimal, status PaymentStatus) error {
	sale := r.sales[id]
	sale.AmountPaid = paid
	sale.PaymentStatus = status
	r.sales[id] = sale
	return nil
}

func (r *stubRepo) DeleteSales(ctx context.Context, ids []int64, companyID *int64) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, err := r.visible(id, companyID); err != nil {
			continue
		}
		delete(r.sales, id)
		r.deleted = append(r.deleted, id)
		n++
	}
	return n, nil
}

type recorder struct {
	entries []shared.Activity
	bumps   int
}

func (r *recorder) Record(ctx context.Context, entry shared.Activity) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recorder) Bump(ctx context.Context) error {
	r.bumps++
	return nil
}

func ptr(v int64) *int64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func manager(company int64) shared.Principal {
	return shared.Principal{UserID: 10, Role: shared.RoleManager, CompanyID: ptr(company)}
}

func sampleSale(id, company int64, final, paid string) Sale {
	s := Sale{ID: id, UniqueID: "S-" + strconv.FormatInt(id, 10), CompanyID: company,
		FinalAmount: dec(final), AmountPaid: dec(paid)}
	s.PaymentStatus = ComputePaymentStatus(s.AmountPaid, s.FinalAmount)
	return s
}

func TestComputePaymentStatus(t *testing.T) {
	assert.Equal(t, PaymentUnpaid, ComputePaymentStatus(decimal.Zero, dec("100")))
	assert.Equal(t, PaymentPartial, ComputePaymentStatus(dec("40"), dec("100")))
	assert.Equal(t, PaymentPaid, ComputePaymentStatus(dec("100"), dec("100")))
	assert.Equal(t, PaymentPaid, ComputePaymentStatus(dec("0"), dec("0")))
}

func TestRecordPaymentTransitions(t *testing.T) {
	repo := newStubRepo(sampleSale(1, 3, "100.00", "0"))
	rec := &recorder{}
	svc := NewService(repo, rec, rec, nil)

	sale, payment, err := svc.RecordPayment(context.Background(), manager(3), 1, PaymentInput{Amount: dec("40"), Method: "Cash"})
	require.NoError(t, err)
	assert.Equal(t, PaymentPartial, sale.PaymentStatus)
	assert.Equal(t, "cash", payment.Method)
	assert.True(t, dec("60").Equal(sale.Balance()))

	sale, _, err = svc.RecordPayment(context.Background(), manager(3), 1, PaymentInput{Amount: dec("60"), Method: "card"})
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, sale.PaymentStatus)
	assert.Len(t, repo.payments, 2)
	assert.Equal(t, 2, rec.bumps)
	require.Len(t, rec.entries, 2)
	assert.Equal(t, "sale.payment", rec.entries[0].Action)

	_, _, err = svc.RecordPayment(context.Background(), manager(3), 1, PaymentInput{Amount: dec("1"), Method: "cash"})
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestRecordPaymentValidation(t *testing.T) {
	repo := newStubRepo(sampleSale(1, 3, "100.00", "20"))
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, _, err := svc.RecordPayment(ctx, manager(3), 1, PaymentInput{Amount: dec("0"), Method: "cash"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, _, err = svc.RecordPayment(ctx, manager(3), 1, PaymentInput{Amount: dec("10"), Method: "cheque"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, _, err = svc.RecordPayment(ctx, manager(3), 1, PaymentInput{Amount: dec("80.01"), Method: "cash"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, _, err = svc.RecordPayment(ctx, manager(4), 1, PaymentInput{Amount: dec("10"), Method: "cash"})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Empty(t, repo.payments)
}

func TestListScopesToCompany(t *testing.T) {
	repo := newStubRepo(sampleSale(1, 3, "10", "0"), sampleSale(2, 4, "10", "0"))
	svc := NewService(repo, nil, nil, nil)

	sales, pagination, err := svc.List(context.Background(), manager(3), 0, ListFilter{})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, int64(3), sales[0].CompanyID)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, shared.DefaultPerPage, repo.lastList.Limit)

	_, _, err = svc.List(context.Background(), manager(3), 4, ListFilter{})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	admin := shared.Principal{UserID: 1, Role: shared.RoleSystemAdmin}
	sales, _, err = svc.List(context.Background(), admin, 0, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, sales, 2)

	_, _, err = svc.List(context.Background(), admin, 0, ListFilter{PaymentStatus: "LATE"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestBulkDelete(t *testing.T) {
	repo := newStubRepo(sampleSale(1, 3, "10", "0"), sampleSale(2, 3, "10", "0"), sampleSale(3, 4, "10", "0"))
	rec := &recorder{}
	svc := NewService(repo, rec, rec, nil)

	deleted, err := svc.BulkDelete(context.Background(), manager(3), []int64{1, 2, 2, 3, -1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.ElementsMatch(t, []int64{1, 2}, repo.deleted)
	assert.Equal(t, 1, rec.bumps)

	_, err = svc.BulkDelete(context.Background(), manager(3), nil)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	err = svc.Delete(context.Background(), manager(3), 3)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdateRequiresField(t *testing.T) {
	repo := newStubRepo(sampleSale(1, 3, "10", "0"))
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Update(context.Background(), manager(3), 1, UpdateInput{})
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	name := "Ama"
	sale, err := svc.Update(context.Background(), manager(3), 1, UpdateInput{CustomerName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ama", sale.CustomerName)
}
