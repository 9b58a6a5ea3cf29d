package reader

import "github.com/sony/gobreaker"

var (
	// MaxNumOfFailingRequests is the number of requests a node must have
	// served before its failure ratio is considered.
	MaxNumOfFailingRequests = 10
	// FailingRatio is the share of failed requests tripping a node's breaker.
	FailingRatio = 0.6
)

// NewCircuitBreaker returns a breaker for one node. Once open, the node is
// skipped by every fan-out until the breaker lets a trial call through again.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
		},
	})
}
