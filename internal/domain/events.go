package domain

import (
	"time"

	"github.com/Vovarama1992/cableposter/internal/ports"
)

const (
	CycleIngest  = "ingest"
	CyclePublish = "publish"
)

// EventBus buffers pipeline events for the operator stream. Events are
// dropped when nobody drains the buffer.
type EventBus struct {
	ch chan ports.PipelineEvent
}

func NewEventBus(size int) *EventBus {
	return &EventBus{ch: make(chan ports.PipelineEvent, size)}
}

func (b *EventBus) Events() <-chan ports.PipelineEvent { return b.ch }

func (b *EventBus) emit(ev ports.PipelineEvent) {
	if b == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	select {
	case b.ch <- ev:
	default:
	}
}
