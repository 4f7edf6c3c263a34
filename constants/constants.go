package constants

// Source tables read from the operational store.

const (
	TableCustomers     = "customers"
	TableShips         = "ships"
	TablePorts         = "ports"
	TableShipments     = "shipments"
	TableShipmentItems = "shipment_items"
)

// Warehouse tables. These must exist before a run.

const (
	DimCustomers  = "DIM_CUSTOMERS"
	DimShips      = "DIM_SHIPS"
	DimPorts      = "DIM_PORTS"
	FactShipments = "FACT_SHIPMENTS"
)

// Process exit codes consumed by schedulers and wrappers.

const (
	ExitCodeOK                = 0
	ExitCodeSourceUnreachable = 1
	ExitCodeTargetUnreachable = 2
	ExitCodeRunFailure        = 3
	ExitCodeConfigError       = 4
)

const (
	ServiceName               = "shipetl"
	EnvVarPrefix              = "SHIPETL" // prefix for environment variables that are not connection settings
	StagingTablePrefix        = "STG_"
	StagingBatchSizeDefault   = 500
	MaxDropPercentDefault     = 100.0
	LogLevelDefault           = "info"
	TimeFormatYearSecondsTZ   = "20060102T150405-0700" // a format that includes the time zone and is compatible with Snowflake.
	TimeFormatDate            = "2006-01-02"
	ConnectionTypePostgres    = "postgres"
	ConnectionTypeSnowflake   = "snowflake"
	ReportFormatYaml          = "yaml"
	ReportFormatJson          = "json"
	PasswordSourceEnv         = "env"
	PasswordSourcePrompt      = "prompt"
	PasswordSourceAwsSecrets  = "aws-secrets"
	ConfigDir                 = ".shipetl"
	ConfigFileName            = "config.yaml"
	TwelveFactorModeLambda    = "lambda"
	StagingTableTypeTransient = "transient"
	StepNameExtract           = "extract"
	StepNameLoadFact          = "load-fact"
)
