// simulate fires overlapping reminder-run triggers against a running
// api-server and then counts duplicate notification rows, making the
// unguarded-overlap behavior observable instead of theoretical.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careloop/appointment-reminders/internal/db"
)

type SimConfig struct {
	APIBaseURL  string
	Workers     int
	Rounds      int
	PostgresDSN string
}

type RunMetrics struct {
	Total     int64
	Success   int64
	Error     int64
	Sent      int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (rm *RunMetrics) Record(latency time.Duration, sent int, ok bool) {
	atomic.AddInt64(&rm.Total, 1)
	if ok {
		atomic.AddInt64(&rm.Success, 1)
		atomic.AddInt64(&rm.Sent, int64(sent))
	} else {
		atomic.AddInt64(&rm.Error, 1)
	}

	rm.mu.Lock()
	rm.Latencies = append(rm.Latencies, latency)
	rm.mu.Unlock()
}

func (rm *RunMetrics) Stats() (avg, max, p95 time.Duration) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if len(rm.Latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(rm.Latencies))
	copy(latencies, rm.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	max = latencies[len(latencies)-1]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, max, p95
}

type runResponse struct {
	Success       bool `json:"success"`
	RemindersSent int  `json:"remindersSent"`
	Evaluated     int  `json:"evaluated"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadSimConfig()
	log.Printf("simulate: base_url=%s workers=%d rounds=%d", cfg.APIBaseURL, cfg.Workers, cfg.Rounds)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	before, err := countReminderRows(context.Background(), pool)
	if err != nil {
		log.Fatalf("count notifications: %v", err)
	}

	metrics := &RunMetrics{}
	client := &http.Client{Timeout: 60 * time.Second}

	for round := 0; round < cfg.Rounds; round++ {
		var wg sync.WaitGroup
		for w := 0; w < cfg.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				triggerRun(client, cfg.APIBaseURL, metrics)
			}()
		}
		wg.Wait()
		log.Printf("round %d/%d complete", round+1, cfg.Rounds)
	}

	after, err := countReminderRows(context.Background(), pool)
	if err != nil {
		log.Fatalf("count notifications: %v", err)
	}

	report(metrics, before, after)
}

func triggerRun(client *http.Client, baseURL string, metrics *RunMetrics) {
	start := time.Now()

	resp, err := client.Post(baseURL+"/reminders/run", "application/json", nil)
	if err != nil {
		log.Printf("trigger failed: %v", err)
		metrics.Record(time.Since(start), 0, false)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Printf("trigger returned status %d: %s", resp.StatusCode, body)
		metrics.Record(time.Since(start), 0, false)
		return
	}

	var rr runResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		log.Printf("bad trigger response: %v", err)
		metrics.Record(time.Since(start), 0, false)
		return
	}

	metrics.Record(time.Since(start), rr.RemindersSent, true)
}

type rowCounts struct {
	total    int64
	distinct int64
}

// countReminderRows tallies today's reminder notifications, total and
// distinct per (appointment, message). The gap between the two is the
// number of duplicate dispatches.
func countReminderRows(ctx context.Context, pool *pgxpool.Pool) (rowCounts, error) {
	var c rowCounts
	err := pool.QueryRow(ctx, `
		SELECT count(*), count(DISTINCT (related_id, message))
		FROM notifications
		WHERE type = 'appointment_reminder'
		  AND created_at::date = current_date
	`).Scan(&c.total, &c.distinct)
	return c, err
}

func report(metrics *RunMetrics, before, after rowCounts) {
	avg, max, p95 := metrics.Stats()
	created := after.total - before.total
	duplicates := (after.total - after.distinct) - (before.total - before.distinct)

	fmt.Println("=== simulate report ===")
	fmt.Printf("triggers:        %d (success=%d error=%d)\n", metrics.Total, metrics.Success, metrics.Error)
	fmt.Printf("reported sent:   %d\n", metrics.Sent)
	fmt.Printf("rows created:    %d\n", created)
	fmt.Printf("duplicate rows:  %d\n", duplicates)
	fmt.Printf("latency:         avg=%s p95=%s max=%s\n", avg, p95, max)

	if duplicates > 0 {
		fmt.Println("overlapping triggers double-dispatched; the HTTP trigger carries no run lease")
	}
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Workers:     getEnvInt("SIM_WORKERS", 5),
		Rounds:      getEnvInt("SIM_ROUNDS", 1),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
