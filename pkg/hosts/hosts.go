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

// Package hosts loads the list of OpenSAND hosts from a JSON file and keeps
// the collector in sync with it while the file changes.
package hosts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"maps"
	"net/netip"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
)

var (
	errEmptyName     = errors.New("host without name")
	errNoAddress     = errors.New("host without address")
	errDuplicateHost = errors.New("host listed twice")
	errBadAddress    = errors.New("invalid host address")
)

// Entry is one host of the hosts file.
type Entry struct {
	Name      string   `json:"name"`
	Addresses []string `json:"addresses"`
}

// Table maps a host name to its daemon addresses.
type Table map[string][]netip.AddrPort

// Parse decodes a hosts file: a JSON array of entries.
func Parse(data []byte) (Table, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse hosts: %w", err)
	}

	table := make(Table, len(entries))

	for _, e := range entries {
		if e.Name == "" {
			return nil, errEmptyName
		}

		if _, ok := table[e.Name]; ok {
			return nil, fmt.Errorf("%w: %s", errDuplicateHost, e.Name)
		}

		if len(e.Addresses) == 0 {
			return nil, fmt.Errorf("%w: %s", errNoAddress, e.Name)
		}

		addrs := make([]netip.AddrPort, 0, len(e.Addresses))

		for _, s := range e.Addresses {
			addr, err := netip.ParseAddrPort(s)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", errBadAddress, e.Name, err)
			}

			addr = netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port())
			if !slices.Contains(addrs, addr) {
				addrs = append(addrs, addr)
			}
		}

		table[e.Name] = addrs
	}

	return table, nil
}

// Load reads and parses a hosts file.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hosts file: %w", err)
	}

	return Parse(data)
}

// Watcher applies the hosts file to a Sink, then reapplies it on every
// change. Each address of a host holds one reference on it: a host leaves
// the collector once all of its addresses are gone.
type Watcher struct {
	path string
	sink Sink

	mu      sync.Mutex
	current Table

	stopOnce sync.Once
	stop     chan struct{}
}

// NewWatcher creates a watcher; nothing is applied before Start.
func NewWatcher(path string, sink Sink) *Watcher {
	return &Watcher{
		path:    path,
		sink:    sink,
		current: Table{},
		stop:    make(chan struct{}),
	}
}

// Current returns the last applied table.
func (w *Watcher) Current() Table {
	w.mu.Lock()
	defer w.mu.Unlock()

	return maps.Clone(w.current)
}

// Reload reads the file and applies the difference with the last table.
func (w *Watcher) Reload(ctx context.Context) error {
	next, err := Load(w.path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.apply(ctx, next)
	w.current = next

	return nil
}

func (w *Watcher) apply(ctx context.Context, next Table) {
	for _, name := range slices.Sorted(maps.Keys(next)) {
		added, removed := diff(w.current[name], next[name])

		for i, addr := range added {
			var err error

			if i == 0 && len(w.current[name]) == 0 {
				log.Printf("Adding host %s at %s", name, addr)
				err = w.sink.AddHost(ctx, name, addr)
			} else {
				log.Printf("Adding address %s to host %s", addr, name)
				err = w.sink.AddHostAddr(ctx, name, addr)
			}

			if err != nil {
				log.Printf("Failed to add %s at %s: %v", name, addr, err)
			}
		}

		w.release(ctx, name, removed)
	}

	for _, name := range slices.Sorted(maps.Keys(w.current)) {
		if _, ok := next[name]; !ok {
			log.Printf("Removing host %s", name)
			w.release(ctx, name, w.current[name])
		}
	}
}

// release drops the given addresses; the host goes with its last one.
func (w *Watcher) release(ctx context.Context, name string, addrs []netip.AddrPort) {
	for _, addr := range addrs {
		log.Printf("Removing address %s of host %s", addr, name)

		if err := w.sink.RemoveHostAddr(ctx, name, addr); err != nil {
			log.Printf("Failed to remove %s at %s: %v", name, addr, err)
		}
	}
}

// diff returns the addresses of next missing from prev, and those of prev
// missing from next.
func diff(prev, next []netip.AddrPort) (added, removed []netip.AddrPort) {
	for _, addr := range next {
		if !slices.Contains(prev, addr) {
			added = append(added, addr)
		}
	}

	for _, addr := range prev {
		if !slices.Contains(next, addr) {
			removed = append(removed, addr)
		}
	}

	return added, removed
}

// Start applies the file and watches it until ctx is done or Stop is
// called. A file that fails to load is reported and the previous table kept.
func (w *Watcher) Start(ctx context.Context) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("hosts file path: %w", err)
	}

	if err := w.Reload(ctx); err != nil {
		log.Printf("Initial hosts load failed: %v", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create hosts watcher: %w", err)
	}
	defer fw.Close()

	// Editors replace files, so the directory is watched.
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	log.Printf("Watching hosts file %s", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stop:
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if filepath.Base(ev.Name) != filepath.Base(abs) ||
				ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if err := w.Reload(ctx); err != nil {
				log.Printf("Hosts reload failed: %v", err)
				continue
			}

			log.Printf("Hosts file reloaded: %s", abs)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}

			log.Printf("Hosts watcher error: %v", err)
		}
	}
}

// Stop ends Start.
func (w *Watcher) Stop(context.Context) error {
	w.stopOnce.Do(func() { close(w.stop) })

	return nil
}
