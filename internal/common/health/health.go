package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// Pinger: зависимость, без которой сервис не готов (обычно *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Probes struct {
	deps    []Pinger
	timeout time.Duration
}

func New(timeout time.Duration, deps ...Pinger) *Probes {
	return &Probes{deps: deps, timeout: timeout}
}

func (p *Probes) Register(r fiber.Router) {
	r.Get("/health/live", p.Liveness)
	r.Get("/health/ready", p.Readiness)
	r.Get("/health/startup", p.Startup)
}

// Liveness проверяет, что приложение работает
func (p *Probes) Liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

// Readiness пингует каждую зависимость; первая ошибка даёт 503.
func (p *Probes) Readiness(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	for _, dep := range p.deps {
		if err := dep.PingContext(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func (p *Probes) Startup(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "started"})
}
