package statement

import "fmt"

// ParseReason classifies fatal parse failures.
type ParseReason string

const (
	// ReasonMissingColumn means a required statement column is absent.
	ReasonMissingColumn ParseReason = "missing column"
	// ReasonBadDate means a start date could not be parsed.
	ReasonBadDate ParseReason = "bad date"
	// ReasonBadAmount means an amount could not be parsed.
	ReasonBadAmount ParseReason = "bad amount"
)

// ParseError is a fatal statement parse failure: the whole upload is
// rejected and no partial ledger is produced.
type ParseError struct {
	Reason ParseReason
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("statement parse failed (%s): %s=%q", e.Reason, e.Field, e.Value)
	}
	return fmt.Sprintf("statement parse failed (%s): %s", e.Reason, e.Field)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DroppedRow records a row excluded from an otherwise-successful parse
// because its balance could not be coerced to a number. One bad row must not
// block ingestion of the rest of the statement, so these surface as a
// batched warning alongside the result.
type DroppedRow struct {
	Description string
	Amount      string
}
