package masterdata

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/repository"
)

func newService(t *testing.T) *Service {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "md.db"), logger)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))
	return NewService(store.Repos(), logger)
}

func TestCreateSupplierValidatesAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.CreateSupplier(ctx, CreateSupplierRequest{LegalName: "", TaxID: "123"})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	sup, err := svc.CreateSupplier(ctx, CreateSupplierRequest{LegalName: "Agro Sul Ltda", TradeName: " ", TaxID: "12.345.678/0001-90"})
	require.NoError(t, err)
	require.Nil(t, sup.TradeName)

	_, err = svc.CreateSupplier(ctx, CreateSupplierRequest{LegalName: "Outro", TaxID: "12.345.678/0001-90"})
	require.Equal(t, codes.AlreadyExists, status.Code(err))

	suppliers, err := svc.ListSuppliers(ctx, false)
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	require.Equal(t, sup.ID, suppliers[0].ID)
}

func TestSetLifecycleAndActiveListing(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	a, err := svc.CreateBilledParty(ctx, "Maria Souza", "123.456.789-00")
	require.NoError(t, err)
	_, err = svc.CreateBilledParty(ctx, "José Lima", "987.654.321-00")
	require.NoError(t, err)

	require.NoError(t, svc.SetLifecycle(ctx, KindBilledParty, a.ID.String(), "INACTIVE"))

	active, err := svc.ListBilledParties(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "José Lima", active[0].FullName)

	all, err := svc.ListBilledParties(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.Equal(t, codes.NotFound, status.Code(svc.SetLifecycle(ctx, KindSupplier, uuid.NewString(), "active")))
	require.Equal(t, codes.InvalidArgument, status.Code(svc.SetLifecycle(ctx, KindSupplier, "nope", "active")))
	require.Equal(t, codes.InvalidArgument, status.Code(svc.SetLifecycle(ctx, KindSupplier, a.ID.String(), "archived")))
	require.Equal(t, codes.InvalidArgument, status.Code(svc.SetLifecycle(ctx, Kind("invoice"), a.ID.String(), "active")))
}

func TestCreateCategoryDefaultsDescription(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	cat, err := svc.CreateCategory(ctx, " FRETE ESPECIAL ", "")
	require.NoError(t, err)
	require.Equal(t, "FRETE ESPECIAL", cat.Name)
	require.Equal(t, "Categoria: FRETE ESPECIAL", cat.Description)
	require.Equal(t, constants.LifecycleActive, cat.Status)

	cust, err := svc.CreateCustomer(ctx, "Cooperativa", "11.222.333/0001-44")
	require.NoError(t, err)
	customers, err := svc.ListCustomers(ctx, true)
	require.NoError(t, err)
	require.Equal(t, cust.ID, customers[0].ID)
}
