package db

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CNES/opensand-sub000/pkg/manager"
	"github.com/CNES/opensand-sub000/pkg/wire"
)

const (
	defaultQueueSize     = 4096
	defaultBatchSize     = 256
	defaultCleanInterval = time.Hour
)

// ProgramSource lists the programs currently known to the manager.
type ProgramSource func() []*manager.Program

type item struct {
	value    *ProbeValue
	event    *EventRecord
	programs bool
}

// Recorder writes what a manager.Controller observes to a Service. Callbacks
// never block; when the queue is full the item is dropped and counted.
type Recorder struct {
	store         Service
	programs      ProgramSource
	retention     time.Duration
	cleanInterval time.Duration
	batchSize     int
	now           func() time.Time

	queue   chan item
	dropped atomic.Int64

	stopOnce sync.Once
	stopped  chan struct{}
	done     chan struct{}
	started  atomic.Bool
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRetention enables the periodic removal of data older than d.
func WithRetention(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.retention = d
	}
}

// WithCleanInterval sets how often old data is removed.
func WithCleanInterval(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.cleanInterval = d
	}
}

// WithQueueSize bounds the number of pending items.
func WithQueueSize(n int) RecorderOption {
	return func(r *Recorder) {
		r.queue = make(chan item, n)
	}
}

// NewRecorder creates a recorder. programs is called on every program list
// change to refresh the stored programs.
func NewRecorder(store Service, programs ProgramSource, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:         store,
		programs:      programs,
		cleanInterval: defaultCleanInterval,
		batchSize:     defaultBatchSize,
		now:           time.Now,
		queue:         make(chan item, defaultQueueSize),
		stopped:       make(chan struct{}),
		done:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Recorder) enqueue(it item) {
	select {
	case r.queue <- it:
	default:
		if r.dropped.Add(1)%1000 == 1 {
			log.Printf("Warning: recorder queue full, %d item(s) dropped so far", r.dropped.Load())
		}
	}
}

// Dropped is the number of items lost to a full queue.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Recorder) ProgramListChanged() {
	r.enqueue(item{programs: true})
}

func (r *Recorder) NewProbeValue(probe *manager.Probe, timestamp uint32, value float64) {
	r.enqueue(item{value: &ProbeValue{
		FullID:    probe.Program().FullID(),
		ProbeID:   probe.ID(),
		Timestamp: timestamp,
		Value:     value,
		Received:  r.now(),
	}})
}

func (r *Recorder) NewLog(program *manager.Program, name string, level wire.LogLevel, text string) {
	r.enqueue(item{event: &EventRecord{
		FullID:   program.FullID(),
		Name:     name,
		Level:    level.String(),
		Text:     text,
		Received: r.now(),
	}})
}

// Start runs the writer until ctx is done or Stop is called. Pending items
// are written before it returns.
func (r *Recorder) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return nil
	}

	defer close(r.done)

	log.Printf("Starting recorder (retention %v)", r.retention)

	var cleanC <-chan time.Time

	if r.retention > 0 {
		ticker := time.NewTicker(r.cleanInterval)
		defer ticker.Stop()

		cleanC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			r.drain()
			return nil
		case <-r.stopped:
			r.drain()
			return nil
		case it := <-r.queue:
			r.process(it)
		case <-cleanC:
			if err := r.store.CleanOldData(r.retention); err != nil {
				log.Printf("Failed to clean old data: %v", err)
			}
		}
	}
}

// Stop ends Start and waits for the pending items to be written.
func (r *Recorder) Stop(ctx context.Context) error {
	r.stopOnce.Do(func() { close(r.stopped) })

	if !r.started.Load() {
		return nil
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case it := <-r.queue:
			r.process(it)
		default:
			return
		}
	}
}

// process writes it and, for a probe value, every value queued behind it
// up to the batch size.
func (r *Recorder) process(it item) {
	if it.value == nil {
		r.write(it)
		return
	}

	batch := []ProbeValue{*it.value}

	var pending *item

collect:
	for len(batch) < r.batchSize {
		select {
		case next := <-r.queue:
			if next.value == nil {
				pending = &next
				break collect
			}

			batch = append(batch, *next.value)
		default:
			break collect
		}
	}

	if err := r.store.StoreValues(batch); err != nil {
		log.Printf("Failed to store %d probe value(s): %v", len(batch), err)
	}

	if pending != nil {
		r.write(*pending)
	}
}

func (r *Recorder) write(it item) {
	switch {
	case it.event != nil:
		if err := r.store.StoreEvent(it.event); err != nil {
			log.Printf("Failed to store event: %v", err)
		}
	case it.programs:
		r.syncPrograms()
	}
}

func (r *Recorder) syncPrograms() {
	if r.programs == nil {
		return
	}

	seen := r.now()

	for _, prog := range r.programs() {
		record := &ProgramRecord{
			FullID:    prog.FullID(),
			HostID:    prog.HostID(),
			ProgramID: prog.Ident(),
			Name:      prog.FullName(),
			FirstSeen: seen,
			LastSeen:  seen,
		}

		probes := make([]ProbeRecord, 0, len(prog.Probes()))

		for _, p := range prog.Probes() {
			probes = append(probes, ProbeRecord{
				FullID:      prog.FullID(),
				ProbeID:     p.ID(),
				Name:        p.Name(),
				Unit:        p.Unit(),
				StorageType: p.Type().String(),
			})
		}

		if err := r.store.UpsertProgram(record, probes); err != nil {
			log.Printf("Failed to record program %s: %v", prog.FullName(), err)
		}
	}
}
