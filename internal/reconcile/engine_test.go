package reconcile

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/invoice"
	"github.com/joseph-ayodele/payables-tracker/internal/repository"
)

func newTestEngine(t *testing.T) (*Engine, *repository.Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "reconcile.db"), logger)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))
	return NewEngine(store, constants.DefaultTaxonomy(), logger), store
}

func dieselInvoice() *invoice.Invoice {
	issue := civil.Date{Year: 2025, Month: time.March, Day: 10}
	due := civil.Date{Year: 2025, Month: time.April, Day: 10}
	total := decimal.RequireFromString("1234.56")
	return &invoice.Invoice{
		Supplier:     invoice.Supplier{LegalName: "Posto Rio Verde LTDA", TaxID: "12.345.678/0001-90"},
		BilledParty:  invoice.BilledParty{FullName: "João da Silva", TaxID: "123.456.789-00"},
		Number:       "4711",
		IssueDate:    &issue,
		DueDate:      &due,
		Description:  "Óleo Diesel S10 - 500L",
		Total:        &total,
		Installments: 1,
		Category:     string(constants.MaintenanceOperation),
	}
}

func TestDieselInvoiceCreatesMastersAndInstallment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, store := newTestEngine(t)

	res, err := engine.ReconcileAndPersist(ctx, dieselInvoice(), nil)
	require.NoError(t, err)
	require.Equal(t, Created{Supplier: true, BilledParty: true, Category: true}, res.Created)

	require.Equal(t, strings.Join([]string{
		"FORNECEDOR:", "Posto Rio Verde LTDA", "CNPJ: 12.345.678/0001-90", "NÃO EXISTE",
		"FATURADO", "João da Silva", "CPF: 123.456.789-00", "NÃO EXISTE",
		"DESPESA", "MANUTENÇÃO E OPERAÇÃO", "NÃO EXISTE",
	}, "\n"), res.Report)

	repos := store.Repos()
	installments, err := repos.Payables.Installments(ctx, res.IDs.PayableID, true)
	require.NoError(t, err)
	require.Len(t, installments, 1)
	require.Equal(t, 1, installments[0].Seq)
	require.Equal(t, "1234.56", installments[0].Amount.StringFixed(2))
	require.Equal(t, "2025-04-10", installments[0].DueDate.String())

	names, err := repos.Payables.Classifications(ctx, res.IDs.PayableID)
	require.NoError(t, err)
	require.Equal(t, []string{"MANUTENÇÃO E OPERAÇÃO"}, names)

	cat, err := repos.Categories.FindByName(ctx, "MANUTENÇÃO E OPERAÇÃO")
	require.NoError(t, err)
	require.Equal(t, res.IDs.CategoryID, cat.ID)
	require.True(t, strings.HasPrefix(cat.Description, "Categoria: MANUTENÇÃO E OPERAÇÃO"))
}

func TestReconcileReusesExistingMasters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, store := newTestEngine(t)

	first, err := engine.ReconcileAndPersist(ctx, dieselInvoice(), nil)
	require.NoError(t, err)

	again := dieselInvoice()
	again.Number = "4712"
	second, err := engine.ReconcileAndPersist(ctx, again, nil)
	require.NoError(t, err)

	require.Equal(t, Created{}, second.Created)
	require.Equal(t, first.IDs.SupplierID, second.IDs.SupplierID)
	require.Equal(t, first.IDs.BilledPartyID, second.IDs.BilledPartyID)
	require.Equal(t, first.IDs.CategoryID, second.IDs.CategoryID)
	require.NotEqual(t, first.IDs.PayableID, second.IDs.PayableID)
	require.Contains(t, second.Report, "EXISTE – ID: "+first.IDs.SupplierID.String())

	repos := store.Repos()
	suppliers, err := repos.Suppliers.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	payables, err := repos.Payables.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, payables, 2)
}

func TestInactiveSupplierIsReusedAndMarked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, store := newTestEngine(t)

	first, err := engine.ReconcileAndPersist(ctx, dieselInvoice(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Repos().Suppliers.SetLifecycle(ctx, first.IDs.SupplierID, constants.LifecycleInactive))

	second, err := engine.ReconcileAndPersist(ctx, dieselInvoice(), nil)
	require.NoError(t, err)
	require.False(t, second.Created.Supplier)
	require.Equal(t, first.IDs.SupplierID, second.IDs.SupplierID)
	require.Contains(t, second.Report, "EXISTE – ID: "+first.IDs.SupplierID.String()+" (inativo)")
}

func TestExplicitLabelsAreDedupedAndResolved(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, store := newTestEngine(t)

	res, err := engine.ReconcileAndPersist(ctx, dieselInvoice(),
		[]string{"insumos agrícolas", "INSUMOS AGRÍCOLAS", "xyz-unmatched", " "})
	require.NoError(t, err)
	require.Contains(t, res.Report, "DESPESA\nINSUMOS AGRÍCOLAS\n")

	names, err := store.Repos().Payables.Classifications(ctx, res.IDs.PayableID)
	require.NoError(t, err)
	require.Equal(t, []string{"ADMINISTRATIVAS", "INSUMOS AGRÍCOLAS"}, names)
}

func TestMissingLabelFallsBackToDefault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, store := newTestEngine(t)

	inv := dieselInvoice()
	inv.Category = ""
	res, err := engine.ReconcileAndPersist(ctx, inv, nil)
	require.NoError(t, err)

	names, err := store.Repos().Payables.Classifications(ctx, res.IDs.PayableID)
	require.NoError(t, err)
	require.Equal(t, []string{string(constants.DefaultExpenseCategory)}, names)
}

func TestValidationRejectsBeforeWriting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, store := newTestEngine(t)

	cases := map[string]func(*invoice.Invoice){
		"fornecedor.cnpj": func(inv *invoice.Invoice) { inv.Supplier.TaxID = "" },
		"faturado":        func(inv *invoice.Invoice) { inv.BilledParty = invoice.BilledParty{} },
		"data_vencimento": func(inv *invoice.Invoice) { inv.DueDate = nil },
		"valor_total": func(inv *invoice.Invoice) {
			neg := decimal.RequireFromString("-10.00")
			inv.Total = &neg
		},
	}
	for field, mutate := range cases {
		inv := dieselInvoice()
		mutate(inv)
		_, err := engine.ReconcileAndPersist(ctx, inv, nil)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve, field)
		require.Contains(t, ve.Error(), strings.Split(field, ".")[0], field)
	}

	_, err := engine.ReconcileAndPersist(ctx, nil, nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	payables, err := store.Repos().Payables.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Empty(t, payables)
	suppliers, err := store.Repos().Suppliers.List(ctx, false)
	require.NoError(t, err)
	require.Empty(t, suppliers)
}

func TestConcurrentFirstReferenceCreatesOneSupplier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, store := newTestEngine(t)

	const n = 6
	var wg sync.WaitGroup
	results := make([]*Result, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inv := dieselInvoice()
			inv.Number = "NF-" + string(rune('A'+i))
			results[i], errs[i] = engine.ReconcileAndPersist(ctx, inv, nil)
		}(i)
	}
	wg.Wait()

	created := 0
	for i := range n {
		require.NoError(t, errs[i])
		require.Equal(t, results[0].IDs.SupplierID, results[i].IDs.SupplierID)
		if results[i].Created.Supplier {
			created++
		}
	}
	require.Equal(t, 1, created)

	suppliers, err := store.Repos().Suppliers.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
}

func TestClosedStoreYieldsPersistenceError(t *testing.T) {
	t.Parallel()
	engine, store := newTestEngine(t)
	store.Close()

	_, err := engine.ReconcileAndPersist(context.Background(), dieselInvoice(), nil)
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
}

func TestFailedClassificationInsertRollsBackMasters(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	path := filepath.Join(t.TempDir(), "rollback.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := repository.OpenSQLite(ctx, path, logger)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))

	// masters and the payable stage fine; the last insert of the transaction fails
	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "DROP TABLE payable_classifications")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	engine := NewEngine(store, constants.DefaultTaxonomy(), logger)
	res, err := engine.ReconcileAndPersist(ctx, dieselInvoice(), nil)
	require.Nil(t, res)
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "classification", pe.Op)

	repos := store.Repos()
	suppliers, err := repos.Suppliers.List(ctx, false)
	require.NoError(t, err)
	require.Empty(t, suppliers)
	parties, err := repos.BilledParties.List(ctx, false)
	require.NoError(t, err)
	require.Empty(t, parties)
	categories, err := repos.Categories.List(ctx, false)
	require.NoError(t, err)
	require.Empty(t, categories)
	payables, err := repos.Payables.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Empty(t, payables)
}
