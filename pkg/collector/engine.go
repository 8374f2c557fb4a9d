/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package collector pkg/collector/engine.go receives probe values and log
// messages from the daemons and relays them to the active manager.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/netip"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/CNES/opensand-sub000/pkg/registry"
	"github.com/CNES/opensand-sub000/pkg/wire"
)

const (
	defaultStatusInterval = time.Second
	defaultStatusTimeout  = 10 * time.Second
	defaultStopTimeout    = 5 * time.Second
	taskQueueSize         = 256
)

// Engine is the collector side of the protocol. Every registry access runs
// on a single event goroutine; only the manager identity is shared with the
// liveness goroutine, under mu.
type Engine struct {
	conn  PacketConn
	hosts *registry.HostManager

	statusInterval time.Duration
	statusTimeout  time.Duration

	tasks   chan func()
	limiter *rate.Limiter

	mu              sync.Mutex
	manager         netip.AddrPort
	pending         []netip.AddrPort
	livenessRunning bool
	managerOK       chan struct{}

	ctx      context.Context
	cancel   context.CancelFunc
	stopped  chan struct{}
	loops    sync.WaitGroup
	liveness sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithStatusInterval sets the liveness polling period.
func WithStatusInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.statusInterval = d
	}
}

// WithStatusTimeout sets how long the manager has to answer a STATUS.
func WithStatusTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.statusTimeout = d
	}
}

// WithLogLimit throttles the logs about datagrams from unknown hosts.
func WithLogLimit(every time.Duration, burst int) Option {
	return func(e *Engine) {
		e.limiter = rate.NewLimiter(rate.Every(every), burst)
	}
}

// New creates an engine on top of an already bound socket.
func New(conn PacketConn, hosts *registry.HostManager, opts ...Option) *Engine {
	e := &Engine{
		conn:           conn,
		hosts:          hosts,
		statusInterval: defaultStatusInterval,
		statusTimeout:  defaultStatusTimeout,
		tasks:          make(chan func(), taskQueueSize),
		limiter:        rate.NewLimiter(rate.Every(time.Second), 10),
		managerOK:      make(chan struct{}, 1),
		stopped:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Listen binds a UDP socket on addr and creates an engine on it.
func Listen(addr string, hosts *registry.HostManager, opts ...Option) (*Engine, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	log.Printf("Collector listening on %s", conn.LocalAddr())

	return New(conn, hosts, opts...), nil
}

// Addr is the local address of the collector socket.
func (e *Engine) Addr() net.Addr {
	return e.conn.LocalAddr()
}

// Start launches the reader and the event loop. It does not block.
func (e *Engine) Start(ctx context.Context) error {
	if e.ctx != nil {
		return ErrAlreadyStarted
	}

	e.ctx, e.cancel = context.WithCancel(ctx)

	e.loops.Add(2)

	go e.eventLoop()
	go e.readLoop()

	return nil
}

// Stop stops reading, waits for the liveness loop, then closes the socket.
func (e *Engine) Stop(ctx context.Context) error {
	select {
	case <-e.stopped:
		return nil
	default:
	}

	close(e.stopped)

	if e.cancel == nil {
		if err := e.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}

		return nil
	}

	e.cancel()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, defaultStopTimeout)
		defer cancel()
	}

	if err := wait(ctx, &e.liveness); err != nil {
		log.Printf("Liveness loop did not stop: %v", err)
	}

	if err := e.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Printf("Error closing collector socket: %v", err)
	}

	return wait(ctx, &e.loops)
}

func wait(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) eventLoop() {
	defer e.loops.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		case fn := <-e.tasks:
			fn()
		}
	}
}

func (e *Engine) readLoop() {
	defer e.loops.Done()

	// one extra byte tells oversized datagrams apart
	buf := make([]byte, wire.MaxDatagramSize+1)

	for {
		n, from, err := e.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || e.ctx.Err() != nil {
				return
			}

			log.Printf("Error reading collector socket: %v", err)

			continue
		}

		if n > wire.MaxDatagramSize {
			log.Printf("Warning: dropping oversized datagram from %s", from)
			continue
		}

		data := slices.Clone(buf[:n])
		from = registry.NormalizeAddr(from)

		e.submit(func() { e.handleDatagram(data, from) })
	}
}

// submit queues fn on the event loop unless the engine is stopping.
func (e *Engine) submit(fn func()) {
	select {
	case e.tasks <- fn:
	case <-e.stopped:
	}
}

// Do runs fn on the event loop with the registry and waits for it.
func (e *Engine) Do(ctx context.Context, fn func(*registry.HostManager)) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn(e.hosts)
	}

	select {
	case e.tasks <- task:
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddHost registers a daemon host.
func (e *Engine) AddHost(ctx context.Context, name string, addr netip.AddrPort) error {
	var err error

	if doErr := e.Do(ctx, func(m *registry.HostManager) { _, err = m.AddHost(name, addr) }); doErr != nil {
		return doErr
	}

	return err
}

// AddHostAddr registers one more address of a daemon host.
func (e *Engine) AddHostAddr(ctx context.Context, name string, addr netip.AddrPort) error {
	var err error

	if doErr := e.Do(ctx, func(m *registry.HostManager) { err = m.AddHostAddr(name, addr) }); doErr != nil {
		return doErr
	}

	return err
}

// RemoveHost drops one reference to a daemon host.
func (e *Engine) RemoveHost(ctx context.Context, name string) error {
	var err error

	if doErr := e.Do(ctx, func(m *registry.HostManager) { err = m.RemoveHost(name) }); doErr != nil {
		return doErr
	}

	return err
}

// RemoveHostAddr drops one address of a daemon host.
func (e *Engine) RemoveHostAddr(ctx context.Context, name string, addr netip.AddrPort) error {
	var err error

	if doErr := e.Do(ctx, func(m *registry.HostManager) { err = m.RemoveHostAddr(name, addr) }); doErr != nil {
		return doErr
	}

	return err
}

// SwitchStorage rotates the storage folder and returns the previous one.
func (e *Engine) SwitchStorage(ctx context.Context) (string, error) {
	var (
		previous string
		err      error
	)

	if doErr := e.Do(ctx, func(m *registry.HostManager) { previous, err = m.SwitchStorage() }); doErr != nil {
		return "", doErr
	}

	return previous, err
}

// Manager returns the active manager address, if any.
func (e *Engine) Manager() (netip.AddrPort, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.manager, e.manager.IsValid()
}

// PendingManagers lists the managers waiting for their turn.
func (e *Engine) PendingManagers() []netip.AddrPort {
	e.mu.Lock()
	defer e.mu.Unlock()

	return slices.Clone(e.pending)
}

func (e *Engine) handleDatagram(data []byte, from netip.AddrPort) {
	cmd, payload, err := wire.ParseHeader(data)
	if err != nil {
		if e.limiter.Allow() {
			log.Printf("Dropping datagram from %s: %v", from, err)
		}

		return
	}

	if cmd.IsManager() {
		e.handleManager(cmd, payload, from)
		return
	}

	host, ok := e.hosts.Host(from)
	if !ok {
		if e.limiter.Allow() {
			log.Printf("%v: %s sent %s", errUnknownHost, from, cmd)
		}

		return
	}

	e.handleDaemon(host, from, cmd, payload)
}

func (e *Engine) send(to netip.AddrPort, data []byte) {
	if _, err := e.conn.WriteToUDPAddrPort(data, to); err != nil {
		log.Printf("Failed to send %d bytes to %s: %v", len(data), to, err)
	}
}

func (e *Engine) sendToManager(data []byte) bool {
	mgr, ok := e.Manager()
	if !ok {
		return false
	}

	e.send(mgr, data)

	return true
}
