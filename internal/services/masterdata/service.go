// Package masterdata administers suppliers, billed parties, customers and
// expense categories.
package masterdata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/entity"
	"github.com/joseph-ayodele/payables-tracker/internal/repository"
)

// Kind names a table whose rows carry a lifecycle.
type Kind string

const (
	KindSupplier    Kind = "supplier"
	KindBilledParty Kind = "billed_party"
	KindCustomer    Kind = "customer"
	KindCategory    Kind = "category"
	KindPayable     Kind = "payable"
)

// Service handles master-data business logic. Errors are gRPC statuses.
type Service struct {
	repos  *repository.Repos
	logger *slog.Logger
}

func NewService(repos *repository.Repos, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repos: repos, logger: logger}
}

type CreateSupplierRequest struct {
	LegalName string
	TradeName string
	TaxID     string
}

func (s *Service) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*entity.Supplier, error) {
	v := common.NewValidator()
	v.Field("legal_name", req.LegalName, common.Required, common.MaxLen(255))
	v.Field("tax_id", req.TaxID, common.Required, common.TaxID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	sup := entity.Supplier{LegalName: strings.TrimSpace(req.LegalName), TaxID: strings.TrimSpace(req.TaxID)}
	if trade := strings.TrimSpace(req.TradeName); trade != "" {
		sup.TradeName = &trade
	}
	out, err := s.repos.Suppliers.Create(ctx, sup)
	if err != nil {
		return nil, common.ToStatus(err, fmt.Sprintf("create supplier %s", sup.TaxID))
	}
	s.logger.Info("masterdata.supplier.created", "id", out.ID, "tax_id", out.TaxID)
	return out, nil
}

func (s *Service) CreateBilledParty(ctx context.Context, fullName, taxID string) (*entity.BilledParty, error) {
	v := common.NewValidator()
	v.Field("full_name", fullName, common.Required, common.MaxLen(255))
	v.Field("tax_id", taxID, common.Required, common.TaxID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	out, err := s.repos.BilledParties.Create(ctx, entity.BilledParty{FullName: strings.TrimSpace(fullName), TaxID: strings.TrimSpace(taxID)})
	if err != nil {
		return nil, common.ToStatus(err, fmt.Sprintf("create billed party %s", taxID))
	}
	s.logger.Info("masterdata.billed_party.created", "id", out.ID)
	return out, nil
}

func (s *Service) CreateCustomer(ctx context.Context, name, taxID string) (*entity.Customer, error) {
	v := common.NewValidator()
	v.Field("name", name, common.Required, common.MaxLen(255))
	v.Field("tax_id", taxID, common.Required, common.TaxID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	out, err := s.repos.Customers.Create(ctx, entity.Customer{Name: strings.TrimSpace(name), TaxID: strings.TrimSpace(taxID)})
	if err != nil {
		return nil, common.ToStatus(err, fmt.Sprintf("create customer %s", taxID))
	}
	s.logger.Info("masterdata.customer.created", "id", out.ID)
	return out, nil
}

// CreateCategory adds an expense category. An empty description becomes
// "Categoria: <name>".
func (s *Service) CreateCategory(ctx context.Context, name, description string) (*entity.Category, error) {
	v := common.NewValidator()
	v.Field("name", name, common.Required, common.MaxLen(120))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if strings.TrimSpace(description) == "" {
		description = "Categoria: " + name
	}
	out, err := s.repos.Categories.Create(ctx, entity.Category{Name: name, Description: description})
	if err != nil {
		return nil, common.ToStatus(err, fmt.Sprintf("create category %s", name))
	}
	s.logger.Info("masterdata.category.created", "id", out.ID, "name", out.Name)
	return out, nil
}

// SetLifecycle activates or inactivates one row. Inactive rows stay
// resolvable by their natural key.
func (s *Service) SetLifecycle(ctx context.Context, kind Kind, id, status string) error {
	v := common.NewValidator()
	v.Field("id", id, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return err
	}
	lc, err := constants.ParseLifecycle(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return common.InvalidArgumentError(err.Error())
	}
	rowID := uuid.MustParse(id)

	switch kind {
	case KindSupplier:
		err = s.repos.Suppliers.SetLifecycle(ctx, rowID, lc)
	case KindBilledParty:
		err = s.repos.BilledParties.SetLifecycle(ctx, rowID, lc)
	case KindCustomer:
		err = s.repos.Customers.SetLifecycle(ctx, rowID, lc)
	case KindCategory:
		err = s.repos.Categories.SetLifecycle(ctx, rowID, lc)
	case KindPayable:
		err = s.repos.Payables.SetLifecycle(ctx, rowID, lc)
	default:
		return common.InvalidArgumentErrorf("unknown kind %q", kind)
	}
	if err != nil {
		return common.ToStatus(err, fmt.Sprintf("set %s %s to %s", kind, id, lc))
	}
	s.logger.Info("masterdata.lifecycle.set", "kind", kind, "id", id, "status", lc)
	return nil
}

func (s *Service) ListSuppliers(ctx context.Context, onlyActive bool) ([]*entity.Supplier, error) {
	out, err := s.repos.Suppliers.List(ctx, onlyActive)
	if err != nil {
		return nil, common.ToStatus(err, "list suppliers")
	}
	return out, nil
}

func (s *Service) ListBilledParties(ctx context.Context, onlyActive bool) ([]*entity.BilledParty, error) {
	out, err := s.repos.BilledParties.List(ctx, onlyActive)
	if err != nil {
		return nil, common.ToStatus(err, "list billed parties")
	}
	return out, nil
}

func (s *Service) ListCustomers(ctx context.Context, onlyActive bool) ([]*entity.Customer, error) {
	out, err := s.repos.Customers.List(ctx, onlyActive)
	if err != nil {
		return nil, common.ToStatus(err, "list customers")
	}
	return out, nil
}

func (s *Service) ListCategories(ctx context.Context, onlyActive bool) ([]*entity.Category, error) {
	out, err := s.repos.Categories.List(ctx, onlyActive)
	if err != nil {
		return nil, common.ToStatus(err, "list categories")
	}
	return out, nil
}
