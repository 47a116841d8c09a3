// Package instancefile reads problem instances and writes solutions in the
// plain text formats used by the benchmark sets.
package instancefile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pdpdispatch/internal/opt"
)

// ParseError reports a malformed instance file.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Msg) }

// NameFromPath strips the directory and the four-character extension.
func NameFromPath(path string) string {
	base := strings.ReplaceAll(path, `\`, "/")
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if len(base) > 4 {
		return base[:len(base)-4]
	}
	return base
}

// Load parses the instance stored at path.
func Load(path string) (*opt.Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open instance: %w", err)
	}
	defer f.Close()
	inst, err := Parse(f, NameFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return inst, nil
}

type lineReader struct {
	sc   *bufio.Scanner
	line int
}

func (r *lineReader) next(what string) ([]string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return nil, err
		}
		return nil, &ParseError{Line: r.line + 1, Msg: "missing " + what}
	}
	r.line++
	return strings.Fields(r.sc.Text()), nil
}

func (r *lineReader) ints(what string, want int) ([]int, error) {
	toks, err := r.next(what)
	if err != nil {
		return nil, err
	}
	if len(toks) != want {
		return nil, &ParseError{Line: r.line, Msg: fmt.Sprintf("%s: want %d values, got %d", what, want, len(toks))}
	}
	out := make([]int, want)
	for i, t := range toks {
		v, err := strconv.Atoi(t)
		if err != nil {
			return nil, &ParseError{Line: r.line, Msg: fmt.Sprintf("%s: %q is not an integer", what, t)}
		}
		out[i] = v
	}
	return out, nil
}

func (r *lineReader) point(what string) (opt.Point, error) {
	xy, err := r.ints(what, 2)
	if err != nil {
		return opt.Point{}, err
	}
	return opt.Point{X: xy[0], Y: xy[1]}, nil
}

// ParseRaw reads the instance text format without building the instance.
func ParseRaw(rd io.Reader, name string) (opt.RawInstance, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	r := &lineReader{sc: sc}
	raw := opt.RawInstance{Name: name}

	head, err := r.next("header")
	if err != nil {
		return raw, err
	}
	if len(head) != 5 {
		return raw, &ParseError{Line: 1, Msg: fmt.Sprintf("header: want 5 values, got %d", len(head))}
	}
	var n int
	for i, dst := range []*int{&n, &raw.NumVehicles, &raw.Capacity, &raw.MinFulfilled} {
		if *dst, err = strconv.Atoi(head[i]); err != nil {
			return raw, &ParseError{Line: 1, Msg: fmt.Sprintf("header: %q is not an integer", head[i])}
		}
	}
	if raw.FairnessWeight, err = strconv.ParseFloat(head[4], 64); err != nil {
		return raw, &ParseError{Line: 1, Msg: fmt.Sprintf("header: %q is not a number", head[4])}
	}
	if n < 0 {
		return raw, &ParseError{Line: 1, Msg: "negative request count"}
	}

	if _, err := r.next("demands header"); err != nil {
		return raw, err
	}
	if raw.Demands, err = r.ints("demands", n); err != nil {
		return raw, err
	}
	if _, err := r.next("locations header"); err != nil {
		return raw, err
	}
	if raw.Depot, err = r.point("depot"); err != nil {
		return raw, err
	}
	raw.Pickups = make([]opt.Point, n)
	for i := range raw.Pickups {
		if raw.Pickups[i], err = r.point(fmt.Sprintf("pickup %d", i+1)); err != nil {
			return raw, err
		}
	}
	raw.Dropoffs = make([]opt.Point, n)
	for i := range raw.Dropoffs {
		if raw.Dropoffs[i], err = r.point(fmt.Sprintf("dropoff %d", i+1)); err != nil {
			return raw, err
		}
	}
	return raw, nil
}

// Parse reads and validates an instance. No instance is returned on error.
func Parse(rd io.Reader, name string) (*opt.Instance, error) {
	raw, err := ParseRaw(rd, name)
	if err != nil {
		return nil, err
	}
	return opt.NewInstance(raw)
}

// WriteInstance encodes raw in the instance text format.
func WriteInstance(w io.Writer, raw opt.RawInstance) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d %d %d %s\n", len(raw.Demands), raw.NumVehicles, raw.Capacity, raw.MinFulfilled,
		strconv.FormatFloat(raw.FairnessWeight, 'f', -1, 64))
	bw.WriteString("# demands\n")
	for i, d := range raw.Demands {
		if i > 0 {
			bw.WriteByte(' ')
		}
		bw.WriteString(strconv.Itoa(d))
	}
	bw.WriteString("\n# request locations\n")
	fmt.Fprintf(bw, "%d %d\n", raw.Depot.X, raw.Depot.Y)
	for _, p := range raw.Pickups {
		fmt.Fprintf(bw, "%d %d\n", p.X, p.Y)
	}
	for _, p := range raw.Dropoffs {
		fmt.Fprintf(bw, "%d %d\n", p.X, p.Y)
	}
	return bw.Flush()
}

// WriteSolution writes the instance name and one line per vehicle with its
// stop indices; unused vehicles get an empty line.
func WriteSolution(w io.Writer, inst *opt.Instance, s *opt.Solution) error {
	return WriteRoutes(w, inst.Name, s.Routes, inst.NumVehicles)
}

// WriteRoutes is WriteSolution for routes detached from their instance.
func WriteRoutes(w io.Writer, name string, routes [][]int, vehicles int) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(name)
	bw.WriteByte('\n')
	for v := 0; v < max(vehicles, len(routes)); v++ {
		if v < len(routes) {
			for i, idx := range routes[v] {
				if i > 0 {
					bw.WriteByte(' ')
				}
				bw.WriteString(strconv.Itoa(idx))
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// SaveSolution writes the solution file to path, creating parent directories.
func SaveSolution(path string, inst *opt.Instance, s *opt.Solution) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSolution(f, inst, s); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadRoutes parses a solution file back into its name and routes.
func ReadRoutes(rd io.Reader) (string, [][]int, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", nil, err
		}
		return "", nil, errors.New("empty solution file")
	}
	name := strings.TrimSpace(sc.Text())
	var routes [][]int
	for line := 2; sc.Scan(); line++ {
		route := []int{}
		for _, t := range strings.Fields(sc.Text()) {
			v, err := strconv.Atoi(t)
			if err != nil {
				return "", nil, &ParseError{Line: line, Msg: fmt.Sprintf("%q is not an integer", t)}
			}
			route = append(route, v)
		}
		routes = append(routes, route)
	}
	return name, routes, sc.Err()
}
