package constants

// Environment and files.

const (
	EnvVarPrefix         = "SP" // prefixed for environment variables in twelveFactorMode
	ServiceName          = "starpipe"
	EmojiBang            = "\U0001F4A5"
	DefaultLogLevel      = "info"
	DefaultIngestWorkers = 4
	DefaultInsertBatch   = 500
	DefaultCurrencyURL   = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1/currencies.json"
	DefaultDateDimStart  = "2020-01-01"
	DefaultDateDimEnd    = "2030-12-31"
)

// Object keys.

const (
	// KeyTimeFormat lays out the time component of ingestion and transformed keys.
	KeyTimeFormat       = "2006/01/02/15/04"
	KeyTimeFormatRegex  = `[0-9]{4}/[0-9]{2}/[0-9]{2}/[0-9]{2}/[0-9]{2}`
	IngestionFileExt    = ".csv"
	TransformedFileName = "data.parquet"
)

// Stage names.

const (
	StageIngest    = "ingest"
	StageTransform = "transform"
	StageLoad      = "load"
	StageRun       = "run"
)

// Source tables in the operational database.

const (
	TableSalesOrder    = "sales_order"
	TablePurchaseOrder = "purchase_order"
	TablePayment       = "payment"
	TableStaff         = "staff"
	TableDepartment    = "department"
	TableCounterparty  = "counterparty"
	TableAddress       = "address"
	TableCurrency      = "currency"
	TableDesign        = "design"
	TablePaymentType   = "payment_type"
	TableTransaction   = "transaction"
	TableDate          = "date" // not ingested; dim_date is generated.
)

// Star schema tables in the warehouse.

const (
	FactSalesOrder    = "fact_sales_order"
	FactPurchaseOrder = "fact_purchase_order"
	FactPayment       = "fact_payment"
	DimStaff          = "dim_staff"
	DimCounterparty   = "dim_counterparty"
	DimCurrency       = "dim_currency"
	DimDate           = "dim_date"
	DimDesign         = "dim_design"
	DimLocation       = "dim_location"
	DimPaymentType    = "dim_payment_type"
	DimTransaction    = "dim_transaction"
)

// IngestedTables lists the source tables extracted by the ingest stage, in extraction order.
var IngestedTables = []string{
	TableSalesOrder,
	TableDesign,
	TableCurrency,
	TableStaff,
	TableCounterparty,
	TableAddress,
	TableDepartment,
	TablePurchaseOrder,
	TablePaymentType,
	TablePayment,
	TableTransaction,
}

// IncrementalTables are extracted by change since the last ingest; the others are extracted whole.
var IncrementalTables = map[string]bool{
	TableSalesOrder:    true,
	TablePurchaseOrder: true,
	TablePayment:       true,
}
