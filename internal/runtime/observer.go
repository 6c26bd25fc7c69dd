package runtime

import (
	"time"

	"github.com/zeusync/scenery/internal/core/events/bus"
	"github.com/zeusync/scenery/internal/core/observability/log"
)

// deliveryWatch observes the bus while the runtime runs. Being registered
// turns on the bus metrics reported with every stats frame.
type deliveryWatch struct {
	log  log.Log
	slow time.Duration
}

func (w *deliveryWatch) OnPublish(bus.Event) {}

// OnDelivered warns about deliveries that took a large share of a tick.
func (w *deliveryWatch) OnDelivered(e bus.Event, handlers int, _ error, took time.Duration) {
	if took < w.slow {
		return
	}
	w.log.Warn("slow event delivery",
		log.String("event", string(e.Type)),
		log.Int("handlers", handlers),
		log.Duration("took", took),
	)
}
