// Package bench implements the searchd load-generation client. It drives a
// running server with concurrent sessions, records per-request latency, and
// writes the raw samples as CSV for offline analysis.
package bench

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/getsearchd/searchd/pkg/client"
)

// Options configures a benchmark run.
type Options struct {
	// Client holds the connection settings for every worker.
	Client client.Options
	// Query is the search string sent on every request.
	Query string
	// Workers is the number of concurrent sessions.
	Workers int
	// Requests is the number of requests per worker.
	Requests int
}

// Sample is one measured request.
type Sample struct {
	Worker  int
	Latency time.Duration
	Result  string
	Err     error
}

// Summary aggregates a run's samples.
type Summary struct {
	Total    int
	Failed   int
	Min      time.Duration
	Max      time.Duration
	Mean     time.Duration
	P99      time.Duration
	Duration time.Duration
}

// Run executes the benchmark and returns every sample plus a summary.
func Run(opts Options) ([]Sample, Summary, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Requests <= 0 {
		opts.Requests = 1
	}

	samples := make([]Sample, 0, opts.Workers*opts.Requests)
	var mu sync.Mutex
	var wg sync.WaitGroup

	start := time.Now()
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			local := runWorker(worker, opts)
			mu.Lock()
			samples = append(samples, local...)
			mu.Unlock()
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	if len(samples) == 0 {
		return nil, Summary{}, fmt.Errorf("benchmark produced no samples")
	}
	return samples, summarize(samples, elapsed), nil
}

// runWorker opens one session and issues the configured number of requests.
// A dial failure marks every planned request as failed; a request failure
// is recorded and the worker moves on.
func runWorker(worker int, opts Options) []Sample {
	samples := make([]Sample, 0, opts.Requests)

	c, err := client.Dial(opts.Client)
	if err != nil {
		for i := 0; i < opts.Requests; i++ {
			samples = append(samples, Sample{Worker: worker, Err: err})
		}
		return samples
	}
	defer func() { _ = c.Close() }()

	for i := 0; i < opts.Requests; i++ {
		start := time.Now()
		resp, err := c.Query(opts.Query)
		sample := Sample{Worker: worker, Latency: time.Since(start), Err: err}
		if err == nil {
			sample.Result = resp.Result
		}
		samples = append(samples, sample)
	}
	return samples
}

// summarize computes latency statistics over the successful samples.
func summarize(samples []Sample, elapsed time.Duration) Summary {
	s := Summary{Total: len(samples), Duration: elapsed}

	var ok []time.Duration
	for _, sample := range samples {
		if sample.Err != nil {
			s.Failed++
			continue
		}
		ok = append(ok, sample.Latency)
	}
	if len(ok) == 0 {
		return s
	}

	sort.Slice(ok, func(i, j int) bool { return ok[i] < ok[j] })

	var total time.Duration
	for _, d := range ok {
		total += d
	}
	s.Min = ok[0]
	s.Max = ok[len(ok)-1]
	s.Mean = total / time.Duration(len(ok))
	s.P99 = ok[(len(ok)-1)*99/100]
	return s
}

// WriteCSV writes the raw samples in CSV form: worker, latency in
// microseconds, result, error.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"worker", "latency_us", "result", "error"}); err != nil {
		return err
	}
	for _, s := range samples {
		errText := ""
		if s.Err != nil {
			errText = s.Err.Error()
		}
		record := []string{
			strconv.Itoa(s.Worker),
			strconv.FormatInt(s.Latency.Microseconds(), 10),
			s.Result,
			errText,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
