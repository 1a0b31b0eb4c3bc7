package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldOwnerID       = "owner_id"
	FieldControlID     = "control_id"
	FieldTransactionID = "transaction_id"
	FieldReminderID    = "reminder_id"
	FieldInvestmentID  = "investment_id"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldCategory      = "category"
	FieldBackend       = "backend"
	FieldLanguage      = "language"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentAuth    = "auth"
	ComponentStore   = "store"
	ComponentEvents  = "events"
	ComponentAdvice  = "advice"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpCreate  = "create"
	OpDelete  = "delete"
	OpList    = "list"
	OpPay     = "pay"
	OpSignUp  = "sign_up"
	OpSignIn  = "sign_in"
	OpSignOut = "sign_out"
	OpAdvise  = "advise"
)
