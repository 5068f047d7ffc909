package notifier

import (
	"context"

	"github.com/rs/zerolog/log"

	registrar "github.com/campus-sense/registrar-go"
)

var _ registrar.Publisher = Log{}

// Log writes every seat event to the structured log.
type Log struct {
}

func NewLog() Log {
	return Log{}
}

func (l Log) Publish(ctx context.Context, event registrar.SeatEvent) error {
	log.Info().Str("course", event.CourseCode).Uint("seats", event.Seats).Msg("seat count changed")
	return nil
}
