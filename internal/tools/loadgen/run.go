package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shelfly/shelfly-backend/internal/observability"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	client := &http.Client{Timeout: 5 * time.Second}
	endpoints := endpointsForProfile(cfg.Profile)
	if len(endpoints) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}
	scenario := strings.ToLower(cfg.Profile)
	if scenario == "" {
		scenario = "mixed"
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var total, failures, s2xx, s4xx, s5xx int64
	jobs := make(chan string, cfg.Concurrency*2)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Concurrency; i++ {
		g.Go(func() error {
			for path := range jobs {
				method := http.MethodGet
				if strings.Contains(path, "/refresh") {
					method = http.MethodPost
				}
				req, err := http.NewRequestWithContext(gctx, method, cfg.BaseURL+path, nil)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				resp, err := client.Do(req)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					observability.RecordLoadgenRequest(gctx, "error", scenario)
					continue
				}
				_ = resp.Body.Close()
				atomic.AddInt64(&total, 1)
				switch {
				case resp.StatusCode >= 200 && resp.StatusCode < 300:
					atomic.AddInt64(&s2xx, 1)
					observability.RecordLoadgenRequest(gctx, "2xx", scenario)
				case resp.StatusCode >= 400 && resp.StatusCode < 500:
					atomic.AddInt64(&s4xx, 1)
					observability.RecordLoadgenRequest(gctx, "4xx", scenario)
				case resp.StatusCode >= 500:
					atomic.AddInt64(&s5xx, 1)
					observability.RecordLoadgenRequest(gctx, "5xx", scenario)
				}
			}
			return nil
		})
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-ctx.Done():
			close(jobs)
			_ = g.Wait()
			return Result{TotalRequests: total, Failures: failures, Status2xx: s2xx, Status4xx: s4xx, Status5xx: s5xx}, nil
		case <-ticker.C:
			jobs <- endpoints[i%len(endpoints)]
			i++
		}
	}
}

func endpointsForProfile(profile string) []string {
	switch strings.ToLower(profile) {
	case "", "mixed":
		return []string{
			"/health/live",
			"/health/ready",
			"/api/v1/products",
			"/api/v1/me",
			"/api/v1/auth/google/callback?state=bad&code=x",
			"/api/v1/auth/refresh",
		}
	case "auth":
		return []string{"/api/v1/auth/google/login", "/api/v1/auth/google/callback?state=bad&code=x", "/api/v1/auth/refresh"}
	case "products":
		return []string{"/api/v1/products", "/api/v1/products/missing", "/api/v1/me"}
	case "error-heavy":
		return []string{"/api/v1/auth/google/callback?state=bad&code=x", "/api/v1/auth/refresh", "/api/v1/products/missing"}
	default:
		return nil
	}
}
