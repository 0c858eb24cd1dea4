package submission

// SubmissionError wraps a failure reported by the Submitter. The bill draft
// stays intact so the operator can retry.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	if e == nil || e.Err == nil {
		return "submission failed"
	}
	return "submission failed: " + e.Err.Error()
}

// Unwrap exposes the collaborator error.
func (e *SubmissionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
