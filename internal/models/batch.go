package models

// Outcome is the per-item result of a batch operation.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// ItemResult describes what a batch did with one item
type ItemResult struct {
	Id      string
	Label   string
	Outcome Outcome
	Message string
}

// BatchResult collects the per-item results of one batch run
type BatchResult struct {
	Operation string
	DryRun    bool
	Items     []ItemResult
}

func (b *BatchResult) add(id, label string, outcome Outcome, message string) {
	b.Items = append(b.Items, ItemResult{Id: id, Label: label, Outcome: outcome, Message: message})
}

// Succeed records a successful item.
func (b *BatchResult) Succeed(id, label, message string) {
	b.add(id, label, OutcomeSucceeded, message)
}

// Skip records an item that needed no work.
func (b *BatchResult) Skip(id, label, message string) {
	b.add(id, label, OutcomeSkipped, message)
}

// Fail records an item that could not be processed.
func (b *BatchResult) Fail(id, label string, err error) {
	b.add(id, label, OutcomeFailed, err.Error())
}

// Count returns the number of items with the given outcome.
func (b *BatchResult) Count(outcome Outcome) int {
	n := 0
	for _, item := range b.Items {
		if item.Outcome == outcome {
			n++
		}
	}
	return n
}

// Total returns the number of items the batch reported on.
func (b *BatchResult) Total() int { return len(b.Items) }

func (b *BatchResult) Succeeded() int { return b.Count(OutcomeSucceeded) }
func (b *BatchResult) Skipped() int   { return b.Count(OutcomeSkipped) }
func (b *BatchResult) Failed() int    { return b.Count(OutcomeFailed) }

// HasFailures reports whether any item failed.
func (b *BatchResult) HasFailures() bool { return b.Failed() > 0 }

// Merge appends the items of other, keeping this result's operation name.
func (b *BatchResult) Merge(other BatchResult) {
	b.Items = append(b.Items, other.Items...)
}
