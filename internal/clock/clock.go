package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts wall-clock access so aggregation and batch jobs stay
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func NewSystemClock() Clock {
	return systemClock{}
}

// Module provides the system clock for the application.
var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
