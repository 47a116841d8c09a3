// Package bench runs a solver configuration over the benchmark instance sets
// and writes one CSV per instance size.
package bench

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"pdpdispatch/internal/config"
	"pdpdispatch/internal/instancefile"
	"pdpdispatch/internal/opt"
	"pdpdispatch/internal/store"
	"pdpdispatch/internal/sysinfo"
)

// Row is one line of a size report.
type Row struct {
	Instance  string
	Cost      float64
	Seconds   float64
	Fulfilled int
	Complete  bool
	RunID     string
}

type SizeReport struct {
	Size     int
	CSVPath  string
	Rows     []Row
	Failures map[string]error
}

// Runner sweeps the configured sizes. Store is optional.
type Runner struct {
	Cfg    config.Bench
	Params opt.Params
	Store  store.Store
	System sysinfo.Info
}

// Dir returns the directory holding the instances of one size.
func (r *Runner) Dir(size int) string {
	return filepath.Join(r.Cfg.InstancesDir, strconv.Itoa(size), r.Cfg.Split)
}

// Files lists the instance files of one size in name order, truncated to the size's limit.
func (r *Runner) Files(size int) ([]string, error) {
	entries, err := os.ReadDir(r.Dir(size))
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			files = append(files, filepath.Join(r.Dir(size), e.Name()))
		}
	}
	if limit, ok := r.Cfg.Limits[size]; ok && limit >= 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

func (r *Runner) resultsDir() string {
	return filepath.Join(r.Cfg.ResultsDir, r.Params.Algorithm)
}

// Run sweeps every configured size. Sizes without an instance directory are skipped.
func (r *Runner) Run(ctx context.Context) ([]SizeReport, error) {
	var reports []SizeReport
	for _, size := range r.Cfg.Sizes {
		rep, err := r.RunSize(ctx, size)
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Int("size", size).Str("dir", r.Dir(size)).Msg("no instances, skipping size")
			continue
		}
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// RunSize solves every instance of one size and writes its CSV.
func (r *Runner) RunSize(ctx context.Context, size int) (SizeReport, error) {
	files, err := r.Files(size)
	if err != nil {
		return SizeReport{}, err
	}
	log.Info().Int("size", size).Int("instances", len(files)).Str("algo", r.Params.Algorithm).Msg("calculating instances")

	rows := make([]*Row, len(files))
	errs := make([]error, len(files))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(r.Cfg.Workers, 1))
	for i, path := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, err := r.solve(ctx, size, path)
			if err != nil {
				log.Error().Err(err).Str("file", path).Msg("instance failed")
				errs[i] = err
				return nil
			}
			rows[i] = row
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return SizeReport{}, err
	}

	rep := SizeReport{Size: size, Failures: map[string]error{}}
	for i, row := range rows {
		if row != nil {
			rep.Rows = append(rep.Rows, *row)
		} else {
			rep.Failures[instancefile.NameFromPath(files[i])] = errs[i]
		}
	}
	rep.CSVPath = filepath.Join(r.resultsDir(), fmt.Sprintf("n_%d_solutions.csv", size))
	if err := WriteCSV(rep.CSVPath, rep.Rows); err != nil {
		return rep, err
	}
	return rep, nil
}

func (r *Runner) solve(ctx context.Context, size int, path string) (*Row, error) {
	inst, err := instancefile.Load(path)
	if err != nil {
		return nil, err
	}
	var runID string
	if r.Store != nil {
		run, err := r.Store.CreateRun(ctx, store.Run{
			Source: "bench", Instance: inst.Name, NumRequests: inst.NumRequests, NumVehicles: inst.NumVehicles,
			Params: r.Params, System: r.System.String(),
		})
		if err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
		runID = run.ID
	}
	res, runErr := opt.Run(inst, r.Params, nil)
	if r.Store != nil {
		if _, err := r.Store.FinishRun(ctx, runID, res, runErr); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}
	if runErr != nil {
		return nil, runErr
	}
	if r.Cfg.WriteSolutions {
		out := filepath.Join(r.resultsDir(), "solutions", strconv.Itoa(size), inst.Name+".txt")
		if err := instancefile.SaveSolution(out, inst, res.Solution); err != nil {
			return nil, err
		}
	}
	log.Debug().Str("instance", inst.Name).Float64("cost", res.Cost).Int("fulfilled", res.Fulfilled).
		Dur("elapsed", res.Elapsed).Msg("solved")
	return &Row{
		Instance:  inst.Name,
		Cost:      res.Cost,
		Seconds:   res.Elapsed.Round(time.Millisecond).Seconds(),
		Fulfilled: res.Fulfilled,
		Complete:  res.Complete,
		RunID:     runID,
	}, nil
}

// WriteCSV writes rows as "Instance;Cost;Time (s)" with the cost truncated to an integer.
func WriteCSV(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	w.Comma = ';'
	records := [][]string{{"Instance", "Cost", "Time (s)"}}
	for _, row := range rows {
		records = append(records, []string{row.Instance, strconv.FormatInt(int64(row.Cost), 10), strconv.FormatFloat(row.Seconds, 'f', 2, 64)})
	}
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
