package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

const checkTimeout = 3 * time.Second

type Check struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type Response struct {
	Status        Status           `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	Checks        map[string]Check `json:"checks,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

type Checker interface {
	Check(ctx context.Context) Check
}

// Handler serves liveness and readiness endpoints backed by registered checkers.
type Handler struct {
	mu        sync.RWMutex
	checkers  map[string]Checker
	startTime time.Time
}

func NewHandler() *Handler {
	return &Handler{checkers: make(map[string]Checker), startTime: time.Now()}
}

func (h *Handler) Register(name string, c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = c
}

func (h *Handler) run(ctx context.Context) (Status, map[string]Check) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	checkers := make(map[string]Checker, len(h.checkers))
	for k, v := range h.checkers {
		checkers[k] = v
	}
	h.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	overall := StatusHealthy
	checks := make(map[string]Check, len(names))
	for _, name := range names {
		check := checkers[name].Check(ctx)
		checks[name] = check
		if check.Status == StatusUnhealthy {
			overall = StatusUnhealthy
		}
	}
	return overall, checks
}

// Health reports every check; 503 when any of them fails.
func (h *Handler) Health(c *fiber.Ctx) error {
	status, checks := h.run(c.UserContext())
	code := fiber.StatusOK
	if status == StatusUnhealthy {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(Response{
		Status:        status,
		Timestamp:     time.Now().UTC(),
		Checks:        checks,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	})
}

func (h *Handler) Ready(c *fiber.Ctx) error {
	if status, _ := h.run(c.UserContext()); status == StatusUnhealthy {
		return c.Status(fiber.StatusServiceUnavailable).SendString("not ready")
	}
	return c.SendString("ready")
}

// Live always answers 200 while the process serves requests.
func Live(c *fiber.Ctx) error { return c.SendString("ok") }

type SimpleChecker struct {
	name    string
	checkFn func(ctx context.Context) error
}

func NewSimpleChecker(name string, fn func(ctx context.Context) error) *SimpleChecker {
	return &SimpleChecker{name: name, checkFn: fn}
}

func (s *SimpleChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := Check{Name: s.name, Status: StatusHealthy}
	if err := s.checkFn(ctx); err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	}
	check.DurationMs = time.Since(start).Milliseconds()
	return check
}
