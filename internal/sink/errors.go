package sink

import "fmt"

// DestinationNotFoundError reports a spreadsheet that cannot be opened,
// either because it does not exist or because it is not shared with the
// principal the writer acts as.
type DestinationNotFoundError struct {
	SpreadsheetID string
	Principal     string
	Err           error
}

func (e *DestinationNotFoundError) Error() string {
	return fmt.Sprintf("spreadsheet %s not found or no access: check the spreadsheet id and share it with %s: %v",
		e.SpreadsheetID, e.Principal, e.Err)
}

func (e *DestinationNotFoundError) Unwrap() error {
	return e.Err
}

// ResourceMissingError reports a sheet that does not exist while creation
// was not requested.
type ResourceMissingError struct {
	SpreadsheetID string
	SheetName     string
}

func (e *ResourceMissingError) Error() string {
	return fmt.Sprintf("sheet %q not found in spreadsheet %s", e.SheetName, e.SpreadsheetID)
}
