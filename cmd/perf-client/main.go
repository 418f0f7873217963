package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"sync/atomic"
	"time"

	"connectrpc.com/connect"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kkkkikiki/textclaim/internal/transport"
)

// PerfResult gathers aggregated metrics for the test run.
// Atomic counters are used to avoid lock contention on hot paths.
// LatencySum & P95Latency are in nanoseconds.
type PerfResult struct {
	TotalRequests  int64
	SuccessCount   int64
	ExhaustedCount int64
	ErrorCount     int64
	LatencySum     int64
	P95Latency     int64
}

type perfConfig struct {
	Target          string        `env:"PERF_TARGET,default=http://localhost:8080"`
	Workers         int           `env:"PERF_WORKERS,default=50"`
	RPS             int           `env:"PERF_RPS,default=300"`
	Duration        time.Duration `env:"PERF_DURATION,default=30s"`
	Products        int           `env:"PERF_PRODUCTS,default=3"`
	TextsPerProduct int           `env:"PERF_TEXTS,default=5000"`
}

const defaultTimeout = 30 * time.Second

func main() {
	var cfg perfConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// ─── HTTP Client & Transport ─────────────────────────────────
	httpTransport := &http.Transport{
		MaxIdleConns:        cfg.Workers * 4,
		MaxIdleConnsPerHost: cfg.Workers * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Transport: httpTransport,
		Timeout:   defaultTimeout,
	}

	campaigns := transport.NewCampaignClient(httpClient, cfg.Target)
	assignments := transport.NewAssignmentClient(httpClient, cfg.Target)

	// ─── Campaign seeding ────────────────────────────────────────
	campaignID, err := seedCampaign(campaigns, cfg.Products, cfg.TextsPerProduct)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed campaign: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ campaign seeded: %s (%d products x %d texts)\n", campaignID, cfg.Products, cfg.TextsPerProduct)

	// ─── Banner ──────────────────────────────────────────────────
	fmt.Println("==========================================")
	fmt.Println("🚀 assignment load test (distinct emails)")
	fmt.Println("==========================================")
	fmt.Printf("Target   : %s\n", cfg.Target)
	fmt.Printf("RPS      : %d\n", cfg.RPS)
	fmt.Printf("Workers  : %d\n", cfg.Workers)
	fmt.Printf("Duration : %v\n", cfg.Duration)
	fmt.Println("==========================================")

	// ─── Rate limiter & context ─────────────────────────────────
	burst := cfg.RPS / cfg.Workers
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), burst)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var result PerfResult
	var sequence int64
	runID := time.Now().UnixNano()

	latencyChan := make(chan time.Duration, 4096)
	trackerDone := make(chan struct{})
	go func() {
		trackP95(latencyChan, &result)
		close(trackerDone)
	}()

	// ─── Workers ────────────────────────────────────────────────
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Workers; i++ {
		g.Go(func() error {
			for {
				if err := limiter.Wait(gctx); err != nil {
					return nil
				}
				email := fmt.Sprintf("perf-%d-%d@example.com", runID, atomic.AddInt64(&sequence, 1))
				doRequest(assignments, campaignID, email, &result, latencyChan)
			}
		})
	}
	_ = g.Wait()
	close(latencyChan)
	<-trackerDone

	totalDur := time.Since(start)

	// ─── Report ─────────────────────────────────────────────────
	fmt.Println("==========================================")
	fmt.Println("📊 results")
	fmt.Println("==========================================")
	fmt.Printf("elapsed         : %.2fs\n", totalDur.Seconds())
	fmt.Printf("total requests  : %d\n", result.TotalRequests)
	fmt.Printf("assigned        : %d\n", result.SuccessCount)
	fmt.Printf("out of texts    : %d\n", result.ExhaustedCount)
	fmt.Printf("errors          : %d\n", result.ErrorCount)

	var avgLatency time.Duration
	if result.SuccessCount > 0 {
		avgLatency = time.Duration(result.LatencySum / result.SuccessCount)
	}
	fmt.Printf("actual RPS      : %.2f\n", float64(result.SuccessCount)/totalDur.Seconds())
	fmt.Printf("avg latency     : %v\n", avgLatency)
	fmt.Printf("p95 latency     : %v\n", time.Duration(atomic.LoadInt64(&result.P95Latency)))
	fmt.Println("==========================================")

	// ─── Data Consistency Check ─────────────────────────────────
	fmt.Println("🔍 consistency check")
	if err := verifyDataConsistency(campaigns, campaignID, result.SuccessCount); err != nil {
		fmt.Printf("❌ inconsistent: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ every product has exactly one claimed text per assignment")
}

// seedCampaign creates an active campaign with products holding texts each
func seedCampaign(client *transport.CampaignClient, products, texts int) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	resp, err := client.CreateCampaign(ctx, connect.NewRequest(&transport.CreateCampaignRequest{
		Name:   fmt.Sprintf("perf %s", time.Now().UTC().Format(time.RFC3339)),
		Status: "active",
	}))
	if err != nil {
		return "", fmt.Errorf("create campaign failed: %w", err)
	}
	campaignID := resp.Msg.Campaign.ID.String()

	for p := 1; p <= products; p++ {
		contents := make([]string, texts)
		for i := range contents {
			contents[i] = fmt.Sprintf("product %d text %d", p, i+1)
		}
		_, err := client.CreateProduct(ctx, connect.NewRequest(&transport.CreateProductRequest{
			CampaignID: campaignID,
			Name:       fmt.Sprintf("Product %d", p),
			Texts:      contents,
		}))
		if err != nil {
			return "", fmt.Errorf("create product %d failed: %w", p, err)
		}
	}

	return campaignID, nil
}

// doRequest performs a single CreateAssignment RPC and collects metrics.
func doRequest(client *transport.AssignmentClient, campaignID, email string, result *PerfResult, latencyChan chan<- time.Duration) {
	// independent context so in-flight calls finish when the test window ends
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	req := connect.NewRequest(&transport.CreateAssignmentRequest{Email: email, CampaignID: campaignID})

	start := time.Now()
	atomic.AddInt64(&result.TotalRequests, 1)

	_, err := client.CreateAssignment(ctx, req)
	latency := time.Since(start)

	var connectErr *connect.Error
	switch {
	case err == nil:
		atomic.AddInt64(&result.SuccessCount, 1)
		atomic.AddInt64(&result.LatencySum, latency.Nanoseconds())
		select {
		case latencyChan <- latency:
		default:
		}
	case errors.As(err, &connectErr) && connectErr.Code() == connect.CodeResourceExhausted:
		atomic.AddInt64(&result.ExhaustedCount, 1)
	default:
		atomic.AddInt64(&result.ErrorCount, 1)
	}
}

// trackP95 maintains a best effort rolling P95 latency estimation.
func trackP95(latencies <-chan time.Duration, result *PerfResult) {
	const size = 1000
	buf := make([]int64, 0, size)

	for lat := range latencies {
		if len(buf) < size {
			buf = append(buf, lat.Nanoseconds())
		} else if idx := time.Now().UnixNano() % int64(size); idx < int64(size/10) {
			buf[idx] = lat.Nanoseconds()
		}

		if len(buf) >= 100 && len(buf)%100 == 0 {
			sorted := slices.Clone(buf)
			slices.Sort(sorted)
			p95Index := int(float64(len(sorted)) * 0.95)
			if p95Index >= len(sorted) {
				p95Index = len(sorted) - 1
			}
			atomic.StoreInt64(&result.P95Latency, sorted[p95Index])
		}
	}
}

// verifyDataConsistency checks that every product has one claimed text per
// successful assignment, which fails if a text was handed out twice or a
// rollback left a claim behind
func verifyDataConsistency(client *transport.CampaignClient, campaignID string, expected int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := client.GetCampaign(ctx, connect.NewRequest(&transport.GetCampaignRequest{CampaignID: campaignID}))
	if err != nil {
		return fmt.Errorf("failed to get campaign: %w", err)
	}

	for _, inv := range resp.Msg.Inventory {
		fmt.Printf("  #%d %-12s assigned=%d remaining=%d total=%d\n",
			inv.Position, inv.ProductName, inv.Assigned, inv.Remaining(), inv.Total)

		if int64(inv.Assigned) != expected {
			return fmt.Errorf("product %q: assigned=%d, successful assignments=%d", inv.ProductName, inv.Assigned, expected)
		}
		if inv.Assigned > inv.Total {
			return fmt.Errorf("product %q over-assigned: %d > %d", inv.ProductName, inv.Assigned, inv.Total)
		}
	}

	return nil
}
