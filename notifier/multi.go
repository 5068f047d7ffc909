package notifier

import (
	"context"

	registrar "github.com/campus-sense/registrar-go"
)

var _ registrar.Publisher = Multi{}

// Multi fans a seat event out to several publishers. Each publisher is
// attempted even if an earlier one fails; the first error is returned.
type Multi struct {
	publishers []registrar.Publisher
}

func NewMulti(publishers ...registrar.Publisher) Multi {
	return Multi{publishers}
}

func (m Multi) Publish(ctx context.Context, event registrar.SeatEvent) error {
	var first error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
