package events

// Topic constants for billing events.
const (
	TopicBillSubmitted        = "bill.submitted"
	TopicBillSubmissionFailed = "bill.submission_failed"
	TopicOutOfStockConfirmed  = "bill.out_of_stock_confirmed"
)

// DefaultTopics returns every topic the billing service emits.
func DefaultTopics() []string {
	return []string{
		TopicBillSubmitted,
		TopicBillSubmissionFailed,
		TopicOutOfStockConfirmed,
	}
}
