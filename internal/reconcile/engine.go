// Package reconcile resolves an extracted invoice against the master data and
// persists it as one payable with its installment and classifications.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/entity"
	"github.com/joseph-ayodele/payables-tracker/internal/invoice"
	"github.com/joseph-ayodele/payables-tracker/internal/repository"
)

// Created reports which masters were inserted by this reconciliation.
type Created struct {
	Supplier    bool `json:"fornecedor"`
	BilledParty bool `json:"faturado"`
	Category    bool `json:"tipo_despesa"`
}

// IDs are the rows the payable ended up attached to.
type IDs struct {
	SupplierID    uuid.UUID `json:"fornecedor_id"`
	BilledPartyID uuid.UUID `json:"faturado_id"`
	CategoryID    uuid.UUID `json:"tipo_despesa_id"`
	PayableID     uuid.UUID `json:"conta_pagar_id"`
}

type Result struct {
	Report  string  `json:"analysis_message"`
	Created Created `json:"created"`
	IDs     IDs     `json:"ids"`
}

// Engine reconciles invoices inside one store transaction each.
type Engine struct {
	store    *repository.Store
	taxonomy *constants.Taxonomy
	logger   *slog.Logger
}

func NewEngine(store *repository.Store, taxonomy *constants.Taxonomy, logger *slog.Logger) *Engine {
	if taxonomy == nil {
		taxonomy = constants.DefaultTaxonomy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, taxonomy: taxonomy, logger: logger}
}

// ReconcileAndPersist validates inv, then finds or creates its supplier,
// billed party and categories and inserts the payable with a single
// installment. labels overrides the invoice's own classification when
// non-empty. Either everything commits or nothing does.
func (e *Engine) ReconcileAndPersist(ctx context.Context, inv *invoice.Invoice, labels []string) (*Result, error) {
	logger := common.LoggerFrom(ctx, e.logger)
	start := time.Now()

	if err := validateInvoice(inv); err != nil {
		logger.Warn("reconcile.validate.failed", "err", err)
		return nil, err
	}
	categories := e.resolveLabels(inv, labels)

	var res Result
	err := e.store.WithTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		var rep report

		supplier, existed, err := e.supplier(ctx, r, inv.Supplier)
		if err != nil {
			return &PersistenceError{Op: "supplier", Err: err}
		}
		res.Created.Supplier = !existed
		res.IDs.SupplierID = supplier.ID
		rep.section("FORNECEDOR:", inv.Supplier.LegalName, "CNPJ: "+inv.Supplier.TaxID, existed, supplier.ID, supplier.Status)

		billed, existed, err := e.billedParty(ctx, r, inv.BilledParty)
		if err != nil {
			return &PersistenceError{Op: "billed party", Err: err}
		}
		res.Created.BilledParty = !existed
		res.IDs.BilledPartyID = billed.ID
		rep.section("FATURADO", inv.BilledParty.FullName, "CPF: "+inv.BilledParty.TaxID, existed, billed.ID, billed.Status)

		categoryIDs := make([]uuid.UUID, 0, len(categories))
		for i, name := range categories {
			cat, existed, err := e.category(ctx, r, name)
			if err != nil {
				return &PersistenceError{Op: "category", Err: err}
			}
			categoryIDs = append(categoryIDs, cat.ID)
			if i == 0 {
				res.Created.Category = !existed
				res.IDs.CategoryID = cat.ID
				rep.section("DESPESA", cat.Name, "", existed, cat.ID, cat.Status)
			}
		}

		payable, err := r.Payables.Create(ctx, entity.Payable{
			SupplierID:     supplier.ID,
			BilledPartyID:  billed.ID,
			DocumentNumber: inv.Number,
			IssueDate:      *inv.IssueDate,
			Description:    inv.Description,
			Total:          *inv.Total,
		})
		if err != nil {
			return &PersistenceError{Op: "payable", Err: err}
		}
		res.IDs.PayableID = payable.ID

		if _, err := r.Payables.AddInstallment(ctx, entity.Installment{
			PayableID: payable.ID,
			Seq:       1,
			DueDate:   *inv.DueDate,
			Amount:    *inv.Total,
		}); err != nil {
			return &PersistenceError{Op: "installment", Err: err}
		}

		for _, id := range categoryIDs {
			if _, err := r.Payables.AddClassification(ctx, payable.ID, id); err != nil {
				return &PersistenceError{Op: "classification", Err: err}
			}
		}

		res.Report = rep.String()
		return nil
	})
	if err != nil {
		var pe *PersistenceError
		if !errors.As(err, &pe) {
			err = &PersistenceError{Op: "transaction", Err: err}
		}
		logger.Error("reconcile.commit.failed", "number", inv.Number, "err", err)
		return nil, err
	}

	logger.Info("reconcile.commit.ok",
		"payable_id", res.IDs.PayableID,
		"supplier_created", res.Created.Supplier,
		"billed_party_created", res.Created.BilledParty,
		"category_created", res.Created.Category,
		"categories", len(categories),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &res, nil
}

// resolveLabels picks the explicit labels, else the invoice list, else the
// single invoice label, and maps each onto the taxonomy. Order is kept and
// duplicates are dropped.
func (e *Engine) resolveLabels(inv *invoice.Invoice, labels []string) []constants.Category {
	candidates := labels
	if len(candidates) == 0 {
		candidates = inv.Categories
	}
	if len(candidates) == 0 && inv.Category != "" {
		candidates = []string{inv.Category}
	}

	out := make([]constants.Category, 0, len(candidates))
	seen := make(map[constants.Category]struct{}, len(candidates))
	for _, label := range candidates {
		if strings.TrimSpace(label) == "" {
			continue
		}
		c, _ := e.taxonomy.Canonicalize(label)
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	if len(out) == 0 {
		out = append(out, e.taxonomy.Default())
	}
	return out
}

// The helpers below report whether the row existed before this call. A row
// created by a concurrent reconciliation between lookup and insert counts as
// existing.

func (e *Engine) supplier(ctx context.Context, r *repository.Repos, s invoice.Supplier) (*entity.Supplier, bool, error) {
	found, err := r.Suppliers.FindByTaxID(ctx, s.TaxID)
	if err == nil {
		return found, true, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, fmt.Errorf("find supplier: %w", err)
	}
	row, created, err := r.Suppliers.CreateOrGet(ctx, entity.Supplier{LegalName: s.LegalName, TradeName: s.TradeName, TaxID: s.TaxID})
	if err != nil {
		return nil, false, err
	}
	return row, !created, nil
}

func (e *Engine) billedParty(ctx context.Context, r *repository.Repos, b invoice.BilledParty) (*entity.BilledParty, bool, error) {
	found, err := r.BilledParties.FindByTaxID(ctx, b.TaxID)
	if err == nil {
		return found, true, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, fmt.Errorf("find billed party: %w", err)
	}
	row, created, err := r.BilledParties.CreateOrGet(ctx, entity.BilledParty{FullName: b.FullName, TaxID: b.TaxID})
	if err != nil {
		return nil, false, err
	}
	return row, !created, nil
}

func (e *Engine) category(ctx context.Context, r *repository.Repos, name constants.Category) (*entity.Category, bool, error) {
	found, err := r.Categories.FindByName(ctx, string(name))
	if err == nil {
		return found, true, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, fmt.Errorf("find category: %w", err)
	}
	description := "Categoria: " + string(name)
	if def, ok := e.taxonomy.Lookup(name); ok {
		description = def.Description()
	}
	row, created, err := r.Categories.CreateOrGet(ctx, entity.Category{Name: string(name), Description: description})
	if err != nil {
		return nil, false, err
	}
	return row, !created, nil
}
