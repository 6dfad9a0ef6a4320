package generic

// BatchResult summarizes a run over many independent items. One item's
// failure never stops the others.
type BatchResult struct {
	Processed int
	Skipped   int
	Failed    int
	Errors    []ItemError
}

// ItemError ties a failure to the item that produced it.
type ItemError struct {
	ID  string
	Err error
}

func (e ItemError) Error() string { return e.ID + ": " + e.Err.Error() }

func (e ItemError) Unwrap() error { return e.Err }
