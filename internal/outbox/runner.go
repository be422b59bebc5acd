package outbox

import "context"

// Runner owns one dispatcher goroutine per registered worker.
type Runner struct {
	dispatchers []*Dispatcher
}

func NewRunner(dispatchers ...*Dispatcher) *Runner {
	return &Runner{dispatchers: dispatchers}
}

func (r *Runner) Start(ctx context.Context) {
	for _, d := range r.dispatchers {
		go d.Run(ctx)
	}
}
