package migrate

import (
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/joseph-ayodele/payables-tracker/constants"
)

var (
	moneyType = map[string]string{dialect.Postgres: "numeric(12,2)", dialect.SQLite: "text"}
	dateType  = map[string]string{dialect.Postgres: "date", dialect.SQLite: "date"}
	textType  = map[string]string{dialect.Postgres: "text"}
)

func statusColumn() *schema.Column {
	return &schema.Column{Name: "status", Type: field.TypeEnum, Enums: constants.Lifecycles, Default: string(constants.LifecycleActive)}
}

var (
	// SuppliersColumns holds the columns for the "suppliers" table.
	SuppliersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "legal_name", Type: field.TypeString, SchemaType: textType},
		{Name: "trade_name", Type: field.TypeString, Nullable: true, SchemaType: textType},
		{Name: "tax_id", Type: field.TypeString, Unique: true},
		statusColumn(),
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// SuppliersTable holds the schema information for the "suppliers" table.
	SuppliersTable = &schema.Table{
		Name:       "suppliers",
		Columns:    SuppliersColumns,
		PrimaryKey: []*schema.Column{SuppliersColumns[0]},
	}

	// BilledPartiesColumns holds the columns for the "billed_parties" table.
	BilledPartiesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "full_name", Type: field.TypeString, SchemaType: textType},
		{Name: "tax_id", Type: field.TypeString, Unique: true},
		statusColumn(),
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	BilledPartiesTable = &schema.Table{
		Name:       "billed_parties",
		Columns:    BilledPartiesColumns,
		PrimaryKey: []*schema.Column{BilledPartiesColumns[0]},
	}

	// CustomersColumns holds the columns for the "customers" table.
	CustomersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString, SchemaType: textType},
		{Name: "tax_id", Type: field.TypeString, Unique: true},
		statusColumn(),
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	CustomersTable = &schema.Table{
		Name:       "customers",
		Columns:    CustomersColumns,
		PrimaryKey: []*schema.Column{CustomersColumns[0]},
	}

	// CategoriesColumns holds the columns for the "categories" table.
	CategoriesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString, Unique: true},
		{Name: "description", Type: field.TypeString, SchemaType: textType, Default: ""},
		statusColumn(),
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	CategoriesTable = &schema.Table{
		Name:       "categories",
		Columns:    CategoriesColumns,
		PrimaryKey: []*schema.Column{CategoriesColumns[0]},
	}

	// PayablesColumns holds the columns for the "payables" table.
	PayablesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "document_number", Type: field.TypeString},
		{Name: "issue_date", Type: field.TypeTime, SchemaType: dateType},
		{Name: "description", Type: field.TypeString, SchemaType: textType},
		{Name: "total", Type: field.TypeOther, SchemaType: moneyType},
		statusColumn(),
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
		{Name: "supplier_id", Type: field.TypeUUID},
		{Name: "billed_party_id", Type: field.TypeUUID},
	}
	PayablesTable = &schema.Table{
		Name:       "payables",
		Columns:    PayablesColumns,
		PrimaryKey: []*schema.Column{PayablesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "payables_suppliers_payables",
				Columns:    []*schema.Column{PayablesColumns[8]},
				RefColumns: []*schema.Column{SuppliersColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "payables_billed_parties_payables",
				Columns:    []*schema.Column{PayablesColumns[9]},
				RefColumns: []*schema.Column{BilledPartiesColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "payable_issue_date",
				Unique:  false,
				Columns: []*schema.Column{PayablesColumns[2]},
			},
		},
	}

	// InstallmentsColumns holds the columns for the "payable_installments" table.
	InstallmentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "seq", Type: field.TypeInt},
		{Name: "due_date", Type: field.TypeTime, SchemaType: dateType},
		{Name: "amount", Type: field.TypeOther, SchemaType: moneyType},
		{Name: "paid_date", Type: field.TypeTime, Nullable: true, SchemaType: dateType},
		{Name: "paid_amount", Type: field.TypeOther, Nullable: true, SchemaType: moneyType},
		statusColumn(),
		{Name: "payable_id", Type: field.TypeUUID},
	}
	InstallmentsTable = &schema.Table{
		Name:       "payable_installments",
		Columns:    InstallmentsColumns,
		PrimaryKey: []*schema.Column{InstallmentsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "payable_installments_payables_installments",
				Columns:    []*schema.Column{InstallmentsColumns[7]},
				RefColumns: []*schema.Column{PayablesColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "installment_payable_id_seq",
				Unique:  true,
				Columns: []*schema.Column{InstallmentsColumns[7], InstallmentsColumns[1]},
			},
		},
	}

	// ClassificationsColumns holds the columns for the "payable_classifications" join table.
	ClassificationsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		statusColumn(),
		{Name: "created_at", Type: field.TypeTime},
		{Name: "payable_id", Type: field.TypeUUID},
		{Name: "category_id", Type: field.TypeUUID},
	}
	ClassificationsTable = &schema.Table{
		Name:       "payable_classifications",
		Columns:    ClassificationsColumns,
		PrimaryKey: []*schema.Column{ClassificationsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "payable_classifications_payables_classifications",
				Columns:    []*schema.Column{ClassificationsColumns[3]},
				RefColumns: []*schema.Column{PayablesColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "payable_classifications_categories_classifications",
				Columns:    []*schema.Column{ClassificationsColumns[4]},
				RefColumns: []*schema.Column{CategoriesColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "classification_payable_id_category_id",
				Unique:  true,
				Columns: []*schema.Column{ClassificationsColumns[3], ClassificationsColumns[4]},
			},
		},
	}

	// ReceivablesColumns holds the columns for the "receivables" table. Only the
	// schema is managed here; receivable bookkeeping lives outside this service.
	ReceivablesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "document_number", Type: field.TypeString},
		{Name: "issue_date", Type: field.TypeTime, SchemaType: dateType},
		{Name: "description", Type: field.TypeString, SchemaType: textType},
		{Name: "total", Type: field.TypeOther, SchemaType: moneyType},
		statusColumn(),
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
		{Name: "customer_id", Type: field.TypeUUID},
	}
	ReceivablesTable = &schema.Table{
		Name:       "receivables",
		Columns:    ReceivablesColumns,
		PrimaryKey: []*schema.Column{ReceivablesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "receivables_customers_receivables",
				Columns:    []*schema.Column{ReceivablesColumns[8]},
				RefColumns: []*schema.Column{CustomersColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		SuppliersTable,
		BilledPartiesTable,
		CustomersTable,
		CategoriesTable,
		PayablesTable,
		InstallmentsTable,
		ClassificationsTable,
		ReceivablesTable,
	}
)

func init() {
	PayablesTable.ForeignKeys[0].RefTable = SuppliersTable
	PayablesTable.ForeignKeys[1].RefTable = BilledPartiesTable
	InstallmentsTable.ForeignKeys[0].RefTable = PayablesTable
	ClassificationsTable.ForeignKeys[0].RefTable = PayablesTable
	ClassificationsTable.ForeignKeys[1].RefTable = CategoriesTable
	ReceivablesTable.ForeignKeys[0].RefTable = CustomersTable
}
