package utils

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-co-op/gocron/v2"
)

// DiscordMetrics tracks Discord API performance
type DiscordMetrics struct {
	TotalRequests    int64
	SuccessfulReqs   int64
	FailedRequests   int64
	TimeoutRequests  int64
	AverageLatency   int64 // in milliseconds
	MaxLatency       int64
	MinLatency       int64
	lastLatencySum   int64
	lastLatencyCount int64
}

// DiscordOptimizer rate-limits outgoing Discord API calls and records their latency
type DiscordOptimizer struct {
	metrics     *DiscordMetrics
	rateLimiter *RateLimiter
	timeout     time.Duration
	mutex       sync.RWMutex
}

// RateLimiter implements basic rate limiting for Discord API
type RateLimiter struct {
	requests chan struct{}
	window   time.Duration
}

// Global Discord optimizer instance
var DiscordOpt = NewDiscordOptimizer(40, 10*time.Second)

// NewDiscordOptimizer creates an optimizer allowing requestsPerSecond calls
func NewDiscordOptimizer(requestsPerSecond int, timeout time.Duration) *DiscordOptimizer {
	return &DiscordOptimizer{
		metrics: &DiscordMetrics{
			MinLatency: 999999, // Initialize with high value
		},
		rateLimiter: NewRateLimiter(requestsPerSecond),
		timeout:     timeout,
	}
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	return &RateLimiter{
		requests: make(chan struct{}, requestsPerSecond),
		window:   time.Second,
	}
}

// Wait waits for rate limit clearance
func (rl *RateLimiter) Wait(ctx context.Context) error {
	select {
	case rl.requests <- struct{}{}:
		// Release the slot once the window has passed
		time.AfterFunc(rl.window, func() { <-rl.requests })
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs one Discord API call under the rate limiter and records its outcome
func (do *DiscordOptimizer) Do(ctx context.Context, operation string, call func() error) error {
	startTime := time.Now()
	atomic.AddInt64(&do.metrics.TotalRequests, 1)

	ctx, cancel := context.WithTimeout(ctx, do.timeout)
	defer cancel()

	if err := do.rateLimiter.Wait(ctx); err != nil {
		atomic.AddInt64(&do.metrics.TimeoutRequests, 1)
		return fmt.Errorf("rate limit timeout: %w", err)
	}

	err := call()
	latency := time.Since(startTime)
	do.recordLatency(latency.Milliseconds())

	if err != nil {
		atomic.AddInt64(&do.metrics.FailedRequests, 1)
		return err
	}

	atomic.AddInt64(&do.metrics.SuccessfulReqs, 1)

	// Log concerning performance
	if latency > 2*time.Second {
		BotLogf("DISCORD_PERF", "SLOW %s: %dms", operation, latency.Milliseconds())
	}
	return nil
}

// DoWithRetry runs an idempotent call, retrying errors that may go away
func (do *DiscordOptimizer) DoWithRetry(ctx context.Context, operation string, maxRetries int, call func() error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = do.Do(ctx, operation, call)
		if err == nil || isNonRetryableError(err) {
			return err
		}
		if attempt < maxRetries {
			BotLogf("DISCORD_API", "%s attempt %d failed, retrying: %v", operation, attempt+1, err)
			select {
			case <-time.After(time.Duration(attempt+1) * 250 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}

// recordLatency records latency metrics thread-safely
func (do *DiscordOptimizer) recordLatency(latencyMs int64) {
	do.mutex.Lock()
	defer do.mutex.Unlock()

	// Update min/max latency
	if latencyMs < do.metrics.MinLatency {
		do.metrics.MinLatency = latencyMs
	}
	if latencyMs > do.metrics.MaxLatency {
		do.metrics.MaxLatency = latencyMs
	}

	do.metrics.lastLatencySum += latencyMs
	do.metrics.lastLatencyCount++
	do.metrics.AverageLatency = do.metrics.lastLatencySum / do.metrics.lastLatencyCount
}

// GetMetrics returns current Discord API metrics
func (do *DiscordOptimizer) GetMetrics() DiscordMetrics {
	do.mutex.RLock()
	defer do.mutex.RUnlock()
	return DiscordMetrics{
		TotalRequests:   atomic.LoadInt64(&do.metrics.TotalRequests),
		SuccessfulReqs:  atomic.LoadInt64(&do.metrics.SuccessfulReqs),
		FailedRequests:  atomic.LoadInt64(&do.metrics.FailedRequests),
		TimeoutRequests: atomic.LoadInt64(&do.metrics.TimeoutRequests),
		AverageLatency:  do.metrics.AverageLatency,
		MaxLatency:      do.metrics.MaxLatency,
		MinLatency:      do.metrics.MinLatency,
	}
}

// ResetMetrics resets all metrics counters
func (do *DiscordOptimizer) ResetMetrics() {
	do.mutex.Lock()
	defer do.mutex.Unlock()

	do.metrics = &DiscordMetrics{
		MinLatency: 999999,
	}
}

// LogPerformanceMetrics logs current performance metrics
func (do *DiscordOptimizer) LogPerformanceMetrics() {
	metrics := do.GetMetrics()

	if metrics.TotalRequests > 0 {
		successRate := float64(metrics.SuccessfulReqs) / float64(metrics.TotalRequests) * 100
		timeoutRate := float64(metrics.TimeoutRequests) / float64(metrics.TotalRequests) * 100

		BotLogf("DISCORD_PERF",
			"Discord API Performance: Total=%d, Success=%.1f%%, Timeout=%.1f%%, AvgLatency=%dms, MaxLatency=%dms, MinLatency=%dms",
			metrics.TotalRequests,
			successRate,
			timeoutRate,
			metrics.AverageLatency,
			metrics.MaxLatency,
			metrics.MinLatency,
		)
	}
}

// HealthCheck performs a basic Discord API health check
func (do *DiscordOptimizer) HealthCheck(session *discordgo.Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resultChan := make(chan error, 1)
	go func() {
		_, err := session.User("@me")
		resultChan <- err
	}()

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return fmt.Errorf("Discord API health check timeout")
	}
}

// SchedulePerformanceMonitoring logs metrics periodically on the scheduler
func (do *DiscordOptimizer) SchedulePerformanceMonitoring(s gocron.Scheduler, interval time.Duration) error {
	_, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(do.LogPerformanceMetrics),
		gocron.WithName("discord-perf-metrics"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule performance monitoring: %w", err)
	}
	return nil
}
