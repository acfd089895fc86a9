package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Aggregator 并发执行所有检查项并汇总状态
type Aggregator struct {
	checkers []Checker
	timeout  time.Duration
	mu       sync.RWMutex
	metadata map[string]interface{}
}

// NewAggregator 创建聚合器，timeout <= 0 时默认 5 秒
func NewAggregator(timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Aggregator{
		timeout:  timeout,
		metadata: make(map[string]interface{}),
	}
}

// Register 注册检查项
func (a *Aggregator) Register(checkers ...Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkers = append(a.checkers, checkers...)
}

// SetMetadata 设置响应元数据
func (a *Aggregator) SetMetadata(key string, value interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metadata[key] = value
}

// Check 执行全部检查；同名检查项后者覆盖前者
func (a *Aggregator) Check(ctx context.Context) *Response {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.mu.RLock()
	checkers := append([]Checker(nil), a.checkers...)
	metadata := make(map[string]interface{}, len(a.metadata))
	for k, v := range a.metadata {
		metadata[k] = v
	}
	a.mu.RUnlock()

	results := make(chan CheckResult, len(checkers))
	for _, checker := range checkers {
		go func(c Checker) {
			results <- checkOne(checkCtx, c)
		}(checker)
	}

	checks := make(map[string]CheckResult, len(checkers))
	for range checkers {
		r := <-results
		checks[r.Name] = r
	}

	return &Response{
		Status:    overall(checks),
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		Checks:    checks,
		Metadata:  metadata,
	}
}

func checkOne(ctx context.Context, checker Checker) (result CheckResult) {
	start := time.Now()
	result = CheckResult{Name: checker.Name(), Timestamp: start}

	defer func() {
		if r := recover(); r != nil {
			result.Status = StatusUnhealthy
			result.Error = fmt.Sprintf("panic: %v", r)
			result.Message = "Health check failed"
		}
		result.Duration = time.Since(start)
	}()

	err := checker.Check(ctx)
	result.Status = statusOf(err)
	switch result.Status {
	case StatusHealthy:
		result.Message = "OK"
	case StatusDegraded:
		result.Error = err.Error()
		result.Message = "Degraded"
	default:
		result.Error = err.Error()
		result.Message = "Health check failed"
	}
	return result
}

// overall 任一不健康即不健康，其次降级
func overall(checks map[string]CheckResult) Status {
	status := StatusHealthy
	for _, r := range checks {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
