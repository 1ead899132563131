package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Load generator for a running relay daemon. Fires declarations at /declare,
// follows each submission to a terminal state and reports latency and outcome
// counts.

var disasterTypes = []string{"earthquake", "flood", "wildfire", "hurricane", "tornado"}

type config struct {
	Endpoint     string
	Declarer     string
	Declarations int
	Concurrency  int
	MaxSeverity  int
	Locations    int
	PollInterval time.Duration
	Timeout      time.Duration
}

type result struct {
	latency time.Duration
	state   string
	errKind string
}

type declareRequest struct {
	Declarer     string `json:"declarer"`
	DisasterType string `json:"disaster_type"`
	Severity     uint32 `json:"severity"`
	Location     string `json:"location"`
}

type submissionStatus struct {
	State     string `json:"state"`
	ErrorKind string `json:"error_kind"`
	ErrorMsg  string `json:"error_msg"`
}

type submissionResponse struct {
	SubmissionID string           `json:"submission_id"`
	Status       submissionStatus `json:"status"`
}

func main() {
	cfg := config{}
	flag.StringVar(&cfg.Endpoint, "endpoint", "http://127.0.0.1:8610", "Relay daemon base URL")
	flag.StringVar(&cfg.Declarer, "declarer", "relief1owner", "Principal used to declare")
	flag.IntVar(&cfg.Declarations, "declarations", 100, "Total declarations to submit")
	flag.IntVar(&cfg.Concurrency, "concurrency", 8, "Concurrent submitters")
	flag.IntVar(&cfg.MaxSeverity, "max-severity", 10, "Upper bound on randomized severity [1..10]")
	flag.IntVar(&cfg.Locations, "locations", 12, "Number of distinct synthetic locations")
	flag.DurationVar(&cfg.PollInterval, "poll-interval", 100*time.Millisecond, "Submission poll interval")
	flag.DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "Per-declaration confirmation deadline")
	flag.Parse()

	if cfg.Declarations < 1 {
		fmt.Fprintln(os.Stderr, "--declarations must be >= 1")
		os.Exit(1)
	}
	if cfg.Concurrency < 1 {
		fmt.Fprintln(os.Stderr, "--concurrency must be >= 1")
		os.Exit(1)
	}
	if cfg.MaxSeverity < 1 || cfg.MaxSeverity > 10 {
		fmt.Fprintln(os.Stderr, "--max-severity must be in [1..10]")
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "load test failed: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	client := &http.Client{Timeout: 10 * time.Second}

	jobs := make(chan int)
	results := make(chan result, cfg.Declarations)
	var submitErrors atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := range jobs {
				res, err := fireOne(client, cfg, rng, i)
				if err != nil {
					submitErrors.Add(1)
					fmt.Fprintf(os.Stderr, "declaration %d: %v\n", i, err)
					continue
				}
				results <- res
			}
		}(time.Now().UnixNano() + int64(w))
	}

	start := time.Now()
	for i := 0; i < cfg.Declarations; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(results)
	elapsed := time.Since(start)

	report(cfg, results, submitErrors.Load(), elapsed)
	return nil
}

func fireOne(client *http.Client, cfg config, rng *rand.Rand, i int) (result, error) {
	req := declareRequest{
		Declarer:     cfg.Declarer,
		DisasterType: disasterTypes[rng.Intn(len(disasterTypes))],
		Severity:     uint32(1 + rng.Intn(cfg.MaxSeverity)),
		Location:     fmt.Sprintf("Zone-%03d", rng.Intn(cfg.Locations)),
	}
	body, err := json.Marshal(req)
	if err != nil {
		return result{}, err
	}

	start := time.Now()
	resp, err := client.Post(cfg.Endpoint+"/declare", "application/json", bytes.NewReader(body))
	if err != nil {
		return result{}, err
	}
	var accepted submissionResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&accepted)
	resp.Body.Close()
	if decodeErr != nil {
		return result{}, decodeErr
	}
	if resp.StatusCode != http.StatusAccepted {
		return result{}, fmt.Errorf("declare %d: status %d", i, resp.StatusCode)
	}

	status, err := awaitTerminal(client, cfg, accepted.SubmissionID)
	if err != nil {
		return result{}, err
	}
	return result{
		latency: time.Since(start),
		state:   status.State,
		errKind: status.ErrorKind,
	}, nil
}

func awaitTerminal(client *http.Client, cfg config, id string) (submissionStatus, error) {
	deadline := time.Now().Add(cfg.Timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(cfg.Endpoint + "/submissions/" + id)
		if err != nil {
			return submissionStatus{}, err
		}
		var sub submissionResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&sub)
		resp.Body.Close()
		if decodeErr != nil {
			return submissionStatus{}, decodeErr
		}
		switch sub.Status.State {
		case "success", "error":
			return sub.Status, nil
		}
		time.Sleep(cfg.PollInterval)
	}
	return submissionStatus{}, fmt.Errorf("submission %s: no terminal state within %s", id, cfg.Timeout)
}

func report(cfg config, results <-chan result, submitErrors int64, elapsed time.Duration) {
	var latencies []time.Duration
	succeeded := 0
	failed := map[string]int{}
	for res := range results {
		latencies = append(latencies, res.latency)
		if res.state == "success" {
			succeeded++
		} else {
			failed[res.errKind]++
		}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Printf("declarations: %d  concurrency: %d  elapsed: %s\n", cfg.Declarations, cfg.Concurrency, elapsed.Round(time.Millisecond))
	fmt.Printf("confirmed:    %d\n", succeeded)
	for kind, n := range failed {
		if kind == "" {
			kind = "unclassified"
		}
		fmt.Printf("failed (%s): %d\n", kind, n)
	}
	if submitErrors > 0 {
		fmt.Printf("submit errors: %d\n", submitErrors)
	}
	if len(latencies) > 0 {
		fmt.Printf("latency p50: %s  p95: %s  max: %s\n",
			percentile(latencies, 0.50).Round(time.Millisecond),
			percentile(latencies, 0.95).Round(time.Millisecond),
			latencies[len(latencies)-1].Round(time.Millisecond),
		)
		perSec := float64(len(latencies)) / elapsed.Seconds()
		fmt.Printf("throughput: %.1f confirmed/s\n", perSec)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
