package manager

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/CNES/opensand-sub000/pkg/registry"
	"github.com/CNES/opensand-sub000/pkg/wire"
)

const probeFileExt = ".log"

// Point is one saved probe value.
type Point struct {
	Timestamp uint32
	Value     float64
}

// Event is one saved event log line.
type Event struct {
	Time  float64
	Ident string
	Text  string
}

// Run is a read-only model rebuilt from a transferred storage folder.
type Run struct {
	Dir      string
	Programs []*Program

	points map[*Probe][]Point
	events map[*Program][]Event
}

// Points returns the saved values of a probe of the run.
func (r *Run) Points(p *Probe) []Point {
	return r.points[p]
}

// Events returns the saved event lines of a program of the run.
func (r *Run) Events(p *Program) []Event {
	return r.events[p]
}

// LoadRun reads a run folder laid out as <host>/<program>/<probe>.log plus
// one event log per program. Idents are assigned in directory order.
func LoadRun(dir string) (*Run, error) {
	hosts, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRunData, err)
	}

	run := &Run{
		Dir:    dir,
		points: make(map[*Probe][]Point),
		events: make(map[*Program][]Event),
	}

	var hostID int

	for _, h := range hosts {
		if !h.IsDir() {
			continue
		}

		if hostID >= registry.FullIdent {
			return nil, fmt.Errorf("%w: too many hosts in %s", ErrBadRunData, dir)
		}

		if err := run.loadHost(filepath.Join(dir, h.Name()), uint8(hostID), h.Name()); err != nil {
			return nil, err
		}

		hostID++
	}

	return run, nil
}

func (r *Run) loadHost(dir string, hostID uint8, hostName string) error {
	progs, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadRunData, err)
	}

	var progID uint8

	for _, p := range progs {
		if !p.IsDir() {
			continue
		}

		if progID == ^uint8(0) {
			return fmt.Errorf("%w: too many programs in %s", ErrBadRunData, dir)
		}

		progID++

		prog := newProgram(hostID, progID, hostName+"."+p.Name())
		if err := r.loadProgram(filepath.Join(dir, p.Name()), prog); err != nil {
			return err
		}

		r.Programs = append(r.Programs, prog)
	}

	return nil
}

func (r *Run) loadProgram(dir string, prog *Program) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadRunData, err)
	}

	reg := &wire.ProgramRegistration{HostID: prog.hostID, ProgramID: prog.ident}
	points := make(map[uint8][]Point)

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())

		if !e.Type().IsRegular() {
			continue
		}

		if e.Name() == registry.EventLogFile {
			events, err := loadEvents(path)
			if err != nil {
				return err
			}

			r.events[prog] = events

			continue
		}

		name, ok := strings.CutSuffix(e.Name(), probeFileExt)
		if !ok || len(reg.Probes) > int(^uint8(0)) {
			continue
		}

		unit, values, err := loadProbe(path)
		if err != nil {
			return err
		}

		id := uint8(len(reg.Probes))
		reg.Probes = append(reg.Probes, wire.ProbeInfo{
			ID:      id,
			Name:    name,
			Unit:    unit,
			Type:    wire.Double64,
			Enabled: true,
		})
		points[id] = values
	}

	prog.merge(reg)

	for id, values := range points {
		probe, _ := prog.Probe(id)
		r.points[probe] = values
	}

	return nil
}

func newScanner(f *os.File) *bufio.Scanner {
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), 2*wire.MaxDatagramSize)

	return s
}

// loadProbe parses a probe file: the unit line then "<timestamp> <value>".
func loadProbe(path string) (string, []Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBadRunData, err)
	}
	defer f.Close()

	s := newScanner(f)

	var (
		unit   string
		points []Point
	)

	for line := 1; s.Scan(); line++ {
		text := s.Text()

		if line == 1 {
			unit = text
			continue
		}

		if text == "" {
			continue
		}

		ts, value, ok := strings.Cut(text, " ")
		if !ok {
			return "", nil, fmt.Errorf("%w: %s:%d", ErrBadRunData, path, line)
		}

		t, err := strconv.ParseUint(ts, 10, 32)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %s:%d: %w", ErrBadRunData, path, line, err)
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %s:%d: %w", ErrBadRunData, path, line, err)
		}

		points = append(points, Point{Timestamp: uint32(t), Value: v})
	}

	if err := s.Err(); err != nil {
		return "", nil, fmt.Errorf("%w: %s: %w", ErrBadRunData, path, err)
	}

	return unit, points, nil
}

// loadEvents parses an event log. A line without a timestamp continues the
// text of the previous event.
func loadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRunData, err)
	}
	defer f.Close()

	s := newScanner(f)

	var events []Event

	for s.Scan() {
		parts := strings.SplitN(s.Text(), " ", 3)

		if len(parts) == 3 {
			if t, err := strconv.ParseFloat(parts[0], 64); err == nil {
				events = append(events, Event{Time: t, Ident: parts[1], Text: parts[2]})
				continue
			}
		}

		if len(events) == 0 {
			return nil, fmt.Errorf("%w: %s starts without a timestamp", ErrBadRunData, path)
		}

		last := &events[len(events)-1]
		last.Text += "\n" + s.Text()
	}

	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadRunData, path, err)
	}

	return events, nil
}
