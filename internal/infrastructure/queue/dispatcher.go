package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/giftkart/shipping-admin/internal/api/metrics"
	"github.com/giftkart/shipping-admin/internal/core/domain"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrQueueFull is returned when the worker owning an AWB has no room left.
var ErrQueueFull = errors.New("webhook queue full")

// Applier ingests one pushed tracking scan.
type Applier interface {
	ApplyPush(ctx context.Context, u domain.TrackingUpdate) error
}

// Dispatcher routes pushed scans to a fixed set of workers by hashing the AWB,
// so scans for one shipment are applied in arrival order.
type Dispatcher struct {
	workers []chan domain.TrackingUpdate
	applier Applier
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, applier Applier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.TrackingUpdate, numWorkers),
		applier: applier,
		log:     log.With().Str("component", "webhook_dispatcher").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.TrackingUpdate, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a scan to the worker responsible for its AWB without
// blocking. The courier retries undelivered webhooks, so a full queue is
// reported rather than waited on.
func (d *Dispatcher) Enqueue(u domain.TrackingUpdate) error {
	idx := d.shardIndex(u.AWB)
	select {
	case d.workers[idx] <- u:
		metrics.WebhookQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	default:
		return ErrQueueFull
	}
}

// shardIndex maps an AWB deterministically to a worker index.
func (d *Dispatcher) shardIndex(awb string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(awb))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.TrackingUpdate) {
	defer d.wg.Done()
	depth := metrics.WebhookQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			if err := d.applier.ApplyPush(ctx, u); err != nil {
				d.log.Error().Err(err).
					Str("awb", u.AWB).
					Str("courier_status", u.CourierStatus).
					Int("worker_id", id).
					Msg("webhook scan processing failed")
			}
		}
	}
}
