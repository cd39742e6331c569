package dto

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// BatchFailure is one subscription a scheduler batch could not process
type BatchFailure struct {
	SubscriptionID string `json:"subscription_id"`
	Error          string `json:"error"`
}

// BatchResult reports the outcome of a scheduler batch. A failure on one
// subscription never stops the rest of the batch.
type BatchResult struct {
	Processed int            `json:"processed"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Failures  []BatchFailure `json:"failures"`
}

func NewBatchResult() *BatchResult {
	return &BatchResult{Failures: []BatchFailure{}}
}

func (r *BatchResult) AddSuccess() {
	r.Processed++
	r.Succeeded++
}

func (r *BatchResult) AddFailure(subscriptionID string, err error) {
	r.Processed++
	r.Failed++
	r.Failures = append(r.Failures, BatchFailure{
		SubscriptionID: subscriptionID,
		Error:          err.Error(),
	})
}
