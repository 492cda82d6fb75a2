// Package routing loads and resolves the static routing table mapping an
// (origin, destination) service pair to its ordered hop sequence. The table
// is read-only during simulation, so Resolve is safe from both forward and
// reverse handlers.
//
// File format: one route per line, whitespace separated,
//
//	<origin> <destination> <hop> [<hop> ...]
//
// Blank lines and lines starting with '#' are ignored. Any structural error
// aborts the load: a simulation cannot proceed with a partial table.
package routing

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ricardofares/ispd-exa-engine-ross/sim"
)

// Route is the ordered hop sequence between an origin and a destination.
// Hops are the intermediate services only; the destination is implied.
type Route []sim.ServiceID

type pair struct {
	origin sim.ServiceID
	dest   sim.ServiceID
}

// Table is the immutable origin/destination routing table.
type Table struct {
	routes map[pair]Route
}

// Load parses a routing file into a Table.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("routing: %w", err)
	}
	defer f.Close()

	t := &Table{routes: make(map[pair]Route)}
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("routing: %s:%d: route needs origin, destination and at least one hop", path, lineno)
		}

		ids := make([]sim.ServiceID, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseUint(field, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("routing: %s:%d: malformed service id %q", path, lineno, field)
			}
			ids[i] = sim.ServiceID(v)
		}

		key := pair{origin: ids[0], dest: ids[1]}
		if _, dup := t.routes[key]; dup {
			return nil, fmt.Errorf("routing: %s:%d: duplicate route for pair (%d, %d)", path, lineno, key.origin, key.dest)
		}
		t.routes[key] = Route(ids[2:])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("routing: %s: %w", path, err)
	}

	logrus.Debugf("routing: loaded %d routes from %s", len(t.routes), path)
	return t, nil
}

// Entry is one route for programmatic table construction.
type Entry struct {
	Origin sim.ServiceID
	Dest   sim.ServiceID
	Hops   Route
}

// Static builds a table from in-memory entries, bypassing the file format.
func Static(entries ...Entry) *Table {
	t := &Table{routes: make(map[pair]Route, len(entries))}
	for _, e := range entries {
		key := pair{origin: e.Origin, dest: e.Dest}
		if _, dup := t.routes[key]; dup {
			panic(fmt.Sprintf("routing: duplicate route for pair (%d, %d)", e.Origin, e.Dest))
		}
		t.routes[key] = e.Hops
	}
	return t
}

// Resolve returns the hop sequence for the given pair. A missing pair is a
// fatal configuration error: every pair a master or machine references must
// have been present in the loaded table.
func (t *Table) Resolve(origin, dest sim.ServiceID) Route {
	route, ok := t.routes[pair{origin: origin, dest: dest}]
	if !ok {
		panic(fmt.Sprintf("routing: no route from service %d to service %d", origin, dest))
	}
	return route
}

// Len reports how many routes the table holds.
func (t *Table) Len() int {
	return len(t.routes)
}
