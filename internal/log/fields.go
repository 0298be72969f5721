package log

// Attribute keys shared by every package that logs.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldError     = "error"
	FieldErrorType = "error_type"
	FieldOperation = "operation"

	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"

	FieldYear            = "year"
	FieldMonth           = "month"
	FieldPeriodID        = "period_id"
	FieldRecordID        = "record_id"
	FieldEntity          = "entity"
	FieldAmountUSD       = "amount_usd"
	FieldRate            = "effective_rate"
	FieldCategory        = "category"
	FieldTransactionType = "transaction_type"
	FieldCurrency        = "currency"
	FieldSheetsRange     = "sheets_range"
)

const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentStorage  = "storage"
	ComponentWorker   = "worker"
	ComponentSecurity = "security"
)

const (
	OpCreate   = "create"
	OpDelete   = "delete"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// Values for FieldErrorType.
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeConflict      = "conflict_error"
	ErrorTypeInternal      = "internal_error"
)

// Fields collects attributes before a single log call.
type Fields map[string]any

func NewFields() Fields {
	return Fields{}
}

func (f Fields) WithClientIP(ip string) Fields {
	f[FieldClientIP] = ip
	return f
}

// WithError is a no-op for a nil error.
func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

// WithPeriod tags a ledger record with the month it belongs to. Zero values
// are left out.
func (f Fields) WithPeriod(periodID string, year, month int) Fields {
	if periodID != "" {
		f[FieldPeriodID] = periodID
	}
	if year != 0 {
		f[FieldYear] = year
		f[FieldMonth] = month
	}
	return f
}

func (f Fields) WithHTTPRequest(method, path, query, userAgent string) Fields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f Fields) WithStatus(statusCode int, durationMs int64) Fields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	return f
}

// Args flattens the fields into slog's alternating key/value form.
func (f Fields) Args() []any {
	args := make([]any, 0, 2*len(f))
	for k, v := range f {
		args = append(args, k, v)
	}
	return args
}
