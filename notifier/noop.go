package notifier

import (
	"context"

	registrar "github.com/campus-sense/registrar-go"
)

var _ registrar.Publisher = Noop{}

type Noop struct {
}

func NewNoop() Noop {
	return Noop{}
}

func (n Noop) Publish(ctx context.Context, event registrar.SeatEvent) error {
	return nil
}
