package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldEntity     = "entity"
	FieldCacheKey   = "cache_key"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldPage       = "page"
	FieldPageSize   = "page_size"
	FieldTxID       = "transaction_id"
	FieldCategoryID = "category_id"
	FieldAuthState  = "auth_state"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentAPI     = "api"
	ComponentAuth    = "auth"
	ComponentQuery   = "query"
	ComponentStorage = "storage"
	ComponentCache   = "cache"
	ComponentCLI     = "cli"
	ComponentUI      = "ui"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpRead       = "read"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpList       = "list"
	OpLogin      = "login"
	OpLogout     = "logout"
	OpRegister   = "register"
	OpRestore    = "restore"
	OpInvalidate = "invalidate"
	OpFetch      = "fetch"
)
