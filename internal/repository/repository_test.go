package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/entity"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestSupplierCreateOrGetIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := openTestStore(t).Repos()

	trade := "Agro Sul"
	first, created, err := repos.Suppliers.CreateOrGet(ctx, entity.Supplier{LegalName: "Agro Sul Ltda", TradeName: &trade, TaxID: " 12.345.678/0001-90 "})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "12.345.678/0001-90", first.TaxID)
	require.Equal(t, constants.LifecycleActive, first.Status)
	require.NotNil(t, first.TradeName)
	require.Equal(t, "Agro Sul", *first.TradeName)

	second, created, err := repos.Suppliers.CreateOrGet(ctx, entity.Supplier{LegalName: "Another name", TaxID: "12.345.678/0001-90"})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Agro Sul Ltda", second.LegalName)

	all, err := repos.Suppliers.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestCreateReportsConflictOnDuplicateKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := openTestStore(t).Repos()

	_, err := repos.BilledParties.Create(ctx, entity.BilledParty{FullName: "Maria Souza", TaxID: "123.456.789-00"})
	require.NoError(t, err)

	_, err = repos.BilledParties.Create(ctx, entity.BilledParty{FullName: "Maria S.", TaxID: "123.456.789-00"})
	require.Error(t, err)
	require.True(t, errors.Is(err, common.ErrConflict))

	_, err = repos.Customers.Create(ctx, entity.Customer{Name: "Cliente A", TaxID: "123.456.789-00"})
	require.NoError(t, err, "customers keep their own key space")
}

func TestLookupIgnoresLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := openTestStore(t).Repos()

	cat, err := repos.Categories.Create(ctx, entity.Category{Name: "INSUMOS AGRÍCOLAS"})
	require.NoError(t, err)
	require.NoError(t, repos.Categories.SetLifecycle(ctx, cat.ID, constants.LifecycleInactive))

	found, err := repos.Categories.FindByName(ctx, "INSUMOS AGRÍCOLAS")
	require.NoError(t, err)
	require.Equal(t, cat.ID, found.ID)
	require.Equal(t, constants.LifecycleInactive, found.Status)

	active, err := repos.Categories.List(ctx, true)
	require.NoError(t, err)
	require.Empty(t, active)

	again, created, err := repos.Categories.CreateOrGet(ctx, entity.Category{Name: "INSUMOS AGRÍCOLAS"})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, cat.ID, again.ID)

	err = repos.Suppliers.SetLifecycle(ctx, uuid.New(), constants.LifecycleInactive)
	require.True(t, errors.Is(err, common.ErrNotFound))

	_, err = repos.Suppliers.FindByTaxID(ctx, "missing")
	require.True(t, errors.Is(err, common.ErrNotFound))
}

func TestSeedCategoriesIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := openTestStore(t).Repos()
	tax := constants.DefaultTaxonomy()

	n, err := repos.Categories.SeedCategories(ctx, tax)
	require.NoError(t, err)
	require.Equal(t, len(tax.Categories()), n)

	n, err = repos.Categories.SeedCategories(ctx, tax)
	require.NoError(t, err)
	require.Zero(t, n)

	got, err := repos.Categories.FindByName(ctx, string(constants.TaxesFees))
	require.NoError(t, err)
	require.Contains(t, got.Description, "Categoria: IMPOSTOS E TAXAS. Inclui:")
}

func TestConcurrentCreateOrGetYieldsOneRow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t)

	const workers = 8
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)
	createdCount := 0
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.WithTx(ctx, func(ctx context.Context, r *Repos) error {
				s, created, err := r.Suppliers.CreateOrGet(ctx, entity.Supplier{LegalName: "Posto Central", TaxID: "11.222.333/0001-44"})
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				ids[i] = s.ID
				if created {
					createdCount++
				}
				return nil
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, 1, createdCount)
	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(ctx context.Context, r *Repos) error {
		if _, err := r.Suppliers.Create(ctx, entity.Supplier{LegalName: "Temp", TaxID: "99"}); err != nil {
			return err
		}
		_, err := r.Suppliers.FindByTaxID(ctx, "99")
		require.NoError(t, err, "writes are visible inside the transaction")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Repos().Suppliers.FindByTaxID(ctx, "99")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestPayableGraphAndListing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t)
	repos := store.Repos()

	sup, err := repos.Suppliers.Create(ctx, entity.Supplier{LegalName: "Comercial Diesel Ltda", TaxID: "10.000.000/0001-00"})
	require.NoError(t, err)
	bp, err := repos.BilledParties.Create(ctx, entity.BilledParty{FullName: "João Lima", TaxID: "111.222.333-44"})
	require.NoError(t, err)
	cat, err := repos.Categories.Create(ctx, entity.Category{Name: "MANUTENÇÃO E OPERAÇÃO"})
	require.NoError(t, err)

	issue := civil.Date{Year: 2024, Month: time.March, Day: 5}
	due := civil.Date{Year: 2024, Month: time.April, Day: 5}
	total := decimal.RequireFromString("1234.56")

	p, err := repos.Payables.Create(ctx, entity.Payable{
		SupplierID: sup.ID, BilledPartyID: bp.ID, DocumentNumber: "000123",
		IssueDate: issue, Description: "Óleo Diesel S10", Total: total,
	})
	require.NoError(t, err)

	_, err = repos.Payables.AddInstallment(ctx, entity.Installment{PayableID: p.ID, Seq: 1, DueDate: due, Amount: total})
	require.NoError(t, err)

	added, err := repos.Payables.AddClassification(ctx, p.ID, cat.ID)
	require.NoError(t, err)
	require.True(t, added)
	added, err = repos.Payables.AddClassification(ctx, p.ID, cat.ID)
	require.NoError(t, err)
	require.False(t, added)

	got, err := repos.Payables.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, issue, got.IssueDate)
	require.True(t, total.Equal(got.Total))

	insts, err := repos.Payables.Installments(ctx, p.ID, true)
	require.NoError(t, err)
	require.Len(t, insts, 1)
	require.Equal(t, due, insts[0].DueDate)
	require.Equal(t, "1234.56", insts[0].Amount.StringFixed(2))
	require.Nil(t, insts[0].PaidDate)

	from := civil.Date{Year: 2024, Month: time.January, Day: 1}
	to := civil.Date{Year: 2024, Month: time.December, Day: 31}
	list, err := repos.Payables.List(ctx, &from, &to)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Comercial Diesel Ltda", list[0].SupplierName)
	require.Equal(t, "João Lima", list[0].BilledPartyName)
	require.Equal(t, []string{"MANUTENÇÃO E OPERAÇÃO"}, list[0].Categories)
	require.Equal(t, 1, list[0].Installments)
	require.NotNil(t, list[0].NextDueDate)
	require.Equal(t, due, *list[0].NextDueDate)
	require.Equal(t, "1234.56", list[0].Outstanding.StringFixed(2))

	require.NoError(t, repos.Payables.MarkInstallmentPaid(ctx, insts[0].ID, due, total))
	list, err = repos.Payables.List(ctx, nil, nil)
	require.NoError(t, err)
	require.True(t, list[0].Outstanding.IsZero())
	require.Nil(t, list[0].NextDueDate)

	before := civil.Date{Year: 2023, Month: time.December, Day: 31}
	list, err = repos.Payables.List(ctx, nil, &before)
	require.NoError(t, err)
	require.Empty(t, list)
}
