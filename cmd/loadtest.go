package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// LoadTestConfig holds configuration for load testing
type LoadTestConfig struct {
	BaseURL         string
	NumEmails       int
	ConcurrentUsers int
	RequestsPerUser int
	RequestDelay    time.Duration
}

// createUserRequest mirrors the POST /api/users body.
type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

// LoadTestResult holds the results of load testing
type LoadTestResult struct {
	TotalRequests     int
	CreatedReqs       int
	ConflictReqs      int
	FailedReqs        int
	AvgResponseTimeMs float64
	MaxResponseTimeMs int64
	MinResponseTimeMs int64
	ThroughputRPS     float64
	ErrorsByType      map[string]int
	// CreatedByEmail counts 201 responses per email; anything above one is a
	// uniqueness violation.
	CreatedByEmail map[string]int
}

// Violations returns the emails that were created more than once.
func (r LoadTestResult) Violations() []string {
	var out []string
	for email, n := range r.CreatedByEmail {
		if n > 1 {
			out = append(out, email)
		}
	}
	return out
}

// LoadTester fires concurrent creates over a small pool of emails so most
// requests race on the same address.
type LoadTester struct {
	config    LoadTestConfig
	client    *http.Client
	out       io.Writer
	emails    []string
	results   LoadTestResult
	mutex     sync.Mutex
	startTime time.Time
}

// NewLoadTester creates a new load tester
func NewLoadTester(config LoadTestConfig, out io.Writer) *LoadTester {
	if config.NumEmails <= 0 {
		config.NumEmails = 1
	}
	if config.ConcurrentUsers <= 0 {
		config.ConcurrentUsers = 1
	}
	return &LoadTester{
		config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		out:     out,
		emails:  make([]string, config.NumEmails),
		results: newLoadTestResult(),
	}
}

func newLoadTestResult() LoadTestResult {
	return LoadTestResult{
		ErrorsByType:   make(map[string]int),
		CreatedByEmail: make(map[string]int),
	}
}

// Initialize generates the email pool. A run prefix keeps repeated runs
// against the same database from colliding with earlier ones.
func (lt *LoadTester) Initialize() {
	run := uuid.NewString()[:8]
	for i := range lt.emails {
		lt.emails[i] = fmt.Sprintf("load-%s-%d@example.com", run, i)
	}
	fmt.Fprintf(lt.out, "Generated %d emails for run %s\n", len(lt.emails), run)
}

// RunLoadTest executes the load test and returns its results.
func (lt *LoadTester) RunLoadTest() LoadTestResult {
	fmt.Fprintf(lt.out, "Starting load test with %d concurrent users...\n", lt.config.ConcurrentUsers)

	lt.startTime = time.Now()
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, lt.config.ConcurrentUsers)
	totalRequests := lt.config.ConcurrentUsers * lt.config.RequestsPerUser

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)

		go func(requestID int) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			lt.simulateCreate(requestID)
		}(i)

		if lt.config.RequestDelay > 0 {
			time.Sleep(lt.config.RequestDelay)
		}
	}

	wg.Wait()

	lt.calculateMetrics()
	lt.printResults()
	return lt.results
}

func (lt *LoadTester) simulateCreate(requestID int) {
	startTime := time.Now()
	email := lt.emails[requestID%len(lt.emails)]

	jsonData, err := json.Marshal(createUserRequest{
		Name:  fmt.Sprintf("Load User %d", requestID),
		Email: email,
		Age:   18 + requestID%60,
	})
	if err != nil {
		lt.recordError("json_marshal")
		return
	}

	url := strings.TrimRight(lt.config.BaseURL, "/") + "/api/users"
	resp, err := lt.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	responseTime := time.Since(startTime)
	if err != nil {
		lt.recordError("http_request")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	lt.recordResponse(email, resp.StatusCode, responseTime)
}

func (lt *LoadTester) recordResponse(email string, statusCode int, responseTime time.Duration) {
	lt.mutex.Lock()
	defer lt.mutex.Unlock()

	lt.results.TotalRequests++
	responseTimeMs := responseTime.Milliseconds()

	if lt.results.MaxResponseTimeMs < responseTimeMs {
		lt.results.MaxResponseTimeMs = responseTimeMs
	}
	if lt.results.MinResponseTimeMs == 0 || lt.results.MinResponseTimeMs > responseTimeMs {
		lt.results.MinResponseTimeMs = responseTimeMs
	}

	currentAvg := lt.results.AvgResponseTimeMs
	currentCount := float64(lt.results.TotalRequests)
	lt.results.AvgResponseTimeMs = (currentAvg*(currentCount-1) + float64(responseTimeMs)) / currentCount

	switch {
	case statusCode == http.StatusCreated:
		lt.results.CreatedReqs++
		lt.results.CreatedByEmail[email]++
	case statusCode == http.StatusConflict:
		lt.results.ConflictReqs++
	default:
		lt.results.FailedReqs++
		lt.results.ErrorsByType[fmt.Sprintf("http_%d", statusCode)]++
	}
}

func (lt *LoadTester) recordError(errorType string) {
	lt.mutex.Lock()
	defer lt.mutex.Unlock()

	lt.results.TotalRequests++
	lt.results.FailedReqs++
	lt.results.ErrorsByType[errorType]++
}

func (lt *LoadTester) calculateMetrics() {
	totalDuration := time.Since(lt.startTime)
	if totalDuration > 0 {
		lt.results.ThroughputRPS = float64(lt.results.TotalRequests) / totalDuration.Seconds()
	}
}

func (lt *LoadTester) printResults() {
	out := lt.out
	total := lt.results.TotalRequests
	pct := func(n int) float64 {
		if total == 0 {
			return 0
		}
		return float64(n) / float64(total) * 100
	}

	fmt.Fprintln(out, "\n"+strings.Repeat("=", 80))

	fmt.Fprintf(out, "Test Configuration:\n")
	fmt.Fprintf(out, "  - Concurrent Users: %d\n", lt.config.ConcurrentUsers)
	fmt.Fprintf(out, "  - Requests per User: %d\n", lt.config.RequestsPerUser)
	fmt.Fprintf(out, "  - Distinct Emails: %d\n", len(lt.emails))

	fmt.Fprintf(out, "\nOverall Performance:\n")
	fmt.Fprintf(out, "  - Total Requests: %d\n", total)
	fmt.Fprintf(out, "  - Created: %d (%.2f%%)\n", lt.results.CreatedReqs, pct(lt.results.CreatedReqs))
	fmt.Fprintf(out, "  - Conflicts: %d (%.2f%%)\n", lt.results.ConflictReqs, pct(lt.results.ConflictReqs))
	fmt.Fprintf(out, "  - Failed: %d (%.2f%%)\n", lt.results.FailedReqs, pct(lt.results.FailedReqs))

	fmt.Fprintf(out, "\nResponse Time Metrics:\n")
	fmt.Fprintf(out, "  - Average: %.2f ms\n", lt.results.AvgResponseTimeMs)
	fmt.Fprintf(out, "  - Minimum: %d ms\n", lt.results.MinResponseTimeMs)
	fmt.Fprintf(out, "  - Maximum: %d ms\n", lt.results.MaxResponseTimeMs)

	fmt.Fprintf(out, "\nThroughput:\n")
	fmt.Fprintf(out, "  - Requests per Second: %.2f\n", lt.results.ThroughputRPS)

	if len(lt.results.ErrorsByType) > 0 {
		fmt.Fprintf(out, "\nError Breakdown:\n")
		for errorType, count := range lt.results.ErrorsByType {
			fmt.Fprintf(out, "  - %s: %d\n", errorType, count)
		}
	}

	fmt.Fprintf(out, "\nUniqueness Check:\n")
	if v := lt.results.Violations(); len(v) > 0 {
		fmt.Fprintf(out, "  ❌ %d emails were created more than once: %s\n", len(v), strings.Join(v, ", "))
	} else {
		fmt.Fprintf(out, "  ✅ Every email was created at most once\n")
	}
}

// loadtestCmd represents the loadtest command
var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Run load tests against the user API",
	Long: `Run concurrent create requests against a running user-service.
Requests share a small pool of emails so that most of them race on the same
address. The report includes throughput, response times, and a check that
no email was accepted twice.`,
	Run: func(cmd *cobra.Command, args []string) {
		result := runLoadTest(cmd.OutOrStdout())
		if len(result.Violations()) > 0 {
			os.Exit(1)
		}
	},
}

var (
	baseURL         string
	numEmails       int
	concurrentUsers int
	requestsPerUser int
	requestDelayMs  int
)

func init() {
	rootCmd.AddCommand(loadtestCmd)

	loadtestCmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the user API")
	loadtestCmd.Flags().IntVar(&numEmails, "emails", 20, "Number of distinct emails to compete for")
	loadtestCmd.Flags().IntVar(&concurrentUsers, "concurrent", 50, "Number of concurrent users")
	loadtestCmd.Flags().IntVar(&requestsPerUser, "requests", 10, "Number of requests per user")
	loadtestCmd.Flags().IntVar(&requestDelayMs, "delay", 0, "Delay in milliseconds between request starts")
}

func runLoadTest(out io.Writer) LoadTestResult {
	loadTester := NewLoadTester(LoadTestConfig{
		BaseURL:         baseURL,
		NumEmails:       numEmails,
		ConcurrentUsers: concurrentUsers,
		RequestsPerUser: requestsPerUser,
		RequestDelay:    time.Duration(requestDelayMs) * time.Millisecond,
	}, out)

	fmt.Fprintln(out, "User Service Load Test")
	fmt.Fprintln(out, "======================")

	loadTester.Initialize()
	return loadTester.RunLoadTest()
}
