package domain

import "time"

// StepStatus is the outcome of one checkout step.
type StepStatus string

const (
	SagaStepPending   StepStatus = "pending"
	SagaStepCompleted StepStatus = "completed"
	SagaStepFailed    StepStatus = "failed"
)

// Checkout steps, in execution order. The cart is only settled after the
// order is accepted, and a failed notification never undoes an accepted
// order.
const (
	SagaStepSubmitOrder = "submit_order"
	SagaStepSettleCart  = "settle_cart"
	SagaStepNotify      = "notify"
)

// SagaStep records what happened to one step of a submission.
type SagaStep struct {
	Name       string     `json:"name"`
	Status     StepStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
	ExecutedAt time.Time  `json:"executed_at,omitempty"`
}

func (s *SagaStep) mark(status StepStatus, reason string) {
	s.Status = status
	s.Error = reason
	s.ExecutedAt = time.Now().UTC()
}

func (s *SagaStep) Complete()          { s.mark(SagaStepCompleted, "") }
func (s *SagaStep) Fail(reason string) { s.mark(SagaStepFailed, reason) }

// CheckoutSaga returns the pending steps of one submission.
func CheckoutSaga() []SagaStep {
	names := []string{SagaStepSubmitOrder, SagaStepSettleCart, SagaStepNotify}
	steps := make([]SagaStep, len(names))
	for i, name := range names {
		steps[i] = SagaStep{Name: name, Status: SagaStepPending}
	}
	return steps
}
