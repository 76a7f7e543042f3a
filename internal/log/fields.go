package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldRunID         = "run_id"
	FieldPlan          = "plan"
	FieldMode          = "mode"
	FieldSource        = "source"
	FieldSourceID      = "source_id"
	FieldFolderID      = "folder_id"
	FieldSpreadsheetID = "spreadsheet_id"
	FieldSpreadsheet   = "spreadsheet"
	FieldSheet         = "sheet"
	FieldFile          = "file"
	FieldRows          = "rows"
	FieldColumns       = "columns"
	FieldReason        = "reason"
	FieldPrincipal     = "principal"
	FieldLoaded        = "loaded"
	FieldSkipped       = "skipped"
	FieldFailed        = "failed"
	FieldWithdrawals   = "withdrawals"
	FieldDeposits      = "deposits"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentIngest   = "ingest"
	ComponentSink     = "sink"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentDownload = "download"
	ComponentUpload   = "upload"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpList   = "list"
	OpRead   = "read"
	OpMerge  = "merge"
	OpCreate = "create"
	OpResize = "resize"
	OpUpload = "upload"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithDestination adds spreadsheet and sheet fields
func (f LogFields) WithDestination(spreadsheetID, sheet string) LogFields {
	f[FieldSpreadsheetID] = spreadsheetID
	f[FieldSheet] = sheet
	return f
}

// WithSource adds source name and id fields
func (f LogFields) WithSource(name, id string) LogFields {
	f[FieldSource] = name
	f[FieldSourceID] = id
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
