// Package server exposes the memory manager over HTTP.
package server

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rcliao/synapse/internal/assoc"
	"github.com/rcliao/synapse/internal/manager"
	"github.com/rcliao/synapse/internal/observe"
)

// Version reported by /health.
const Version = "0.1.0"

// Server wraps a Fiber app around one Manager. The mutex is the external
// serialization the core requires: every handler takes it around its
// manager calls, so operations never interleave.
type Server struct {
	app *fiber.App
	mgr *manager.Manager
	obs *observe.Observer
	mu  sync.Mutex
}

// New builds the app and registers all routes, with HTTP metrics in the
// default Prometheus registry.
func New(mgr *manager.Manager, obs *observe.Observer) *Server {
	return newServer(mgr, obs, prometheus.DefaultRegisterer)
}

func newServer(mgr *manager.Manager, obs *observe.Observer, reg prometheus.Registerer) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "synapse",
			DisableStartupMessage: true,
		}),
		mgr: mgr,
		obs: obs,
	}

	s.app.Use(recover.New())

	prom := fiberprometheus.NewWithRegistry(reg, "synapse", "http", "", nil)
	prom.RegisterAt(s.app, "/metrics")
	s.app.Use(prom.Middleware)

	s.app.Get("/health", s.handleHealth)

	api := s.app.Group("/api")
	api.Post("/memories", s.handleRemember)
	api.Get("/memories/search", s.handleRecall)
	api.Get("/memories/:id", s.handleGet)
	api.Delete("/memories/:id", s.handleForget)
	api.Post("/consolidate", s.handleConsolidate)
	api.Get("/stats", s.handleStats)
	api.Get("/network/:id", s.handleNetwork)

	return s
}

// Listen blocks serving on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Consolidate runs a locked consolidation. The scheduler and the shutdown
// path share this entry point with the HTTP handler.
func (s *Server) Consolidate(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.mgr.Stats().LongTerm
	promoted, err := s.mgr.Consolidate(ctx)
	if err != nil {
		return promoted, err
	}
	after := s.mgr.Stats().LongTerm
	consolidationPromoted.Add(float64(promoted))
	consolidationPruned.Add(float64(before + promoted - after))
	return promoted, nil
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "version": Version})
}

type rememberRequest struct {
	Content string `json:"content"`
	// Importance is a pointer so an omitted field gets the 0.5 default
	// instead of routing to the fleeting tier as 0.
	Importance *float64 `json:"importance"`
	Tags       []string `json:"tags"`
}

func (s *Server) handleRemember(c *fiber.Ctx) error {
	var req rememberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "content is required",
		})
	}
	importance := 0.5
	if req.Importance != nil {
		importance = *req.Importance
	}

	_, span := s.obs.StartSpan(c.UserContext(), "remember")
	defer span.End()
	operations.WithLabelValues("remember").Inc()

	s.mu.Lock()
	e := s.mgr.Remember(req.Content, importance, req.Tags)
	s.mu.Unlock()

	return c.Status(fiber.StatusCreated).JSON(e)
}

func (s *Server) handleRecall(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "q is required",
		})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	_, span := s.obs.StartSpan(c.UserContext(), "recall")
	defer span.End()
	operations.WithLabelValues("recall").Inc()

	s.mu.Lock()
	results := s.mgr.Recall(query, limit)
	s.mu.Unlock()

	return c.JSON(fiber.Map{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleGet(c *fiber.Ctx) error {
	_, span := s.obs.StartSpan(c.UserContext(), "get")
	defer span.End()
	operations.WithLabelValues("get").Inc()

	s.mu.Lock()
	e, ok := s.mgr.Get(c.Params("id"))
	s.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "memory not found",
		})
	}
	return c.JSON(e)
}

func (s *Server) handleForget(c *fiber.Ctx) error {
	id := c.Params("id")

	_, span := s.obs.StartSpan(c.UserContext(), "forget")
	defer span.End()
	operations.WithLabelValues("forget").Inc()

	s.mu.Lock()
	ok := s.mgr.Forget(id)
	s.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "memory not found",
		})
	}
	return c.JSON(fiber.Map{"ok": true, "id": id})
}

func (s *Server) handleConsolidate(c *fiber.Ctx) error {
	_, span := s.obs.StartSpan(c.UserContext(), "consolidate")
	defer span.End()
	operations.WithLabelValues("consolidate").Inc()

	promoted, err := s.Consolidate(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"promoted": promoted})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	operations.WithLabelValues("stats").Inc()

	s.mu.Lock()
	stats := s.mgr.Stats()
	s.mu.Unlock()
	return c.JSON(stats)
}

func (s *Server) handleNetwork(c *fiber.Ctx) error {
	id := c.Params("id")
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	operations.WithLabelValues("network").Inc()

	s.mu.Lock()
	neighbors := s.mgr.Associations(id, limit)
	s.mu.Unlock()
	if neighbors == nil {
		neighbors = []assoc.Association{}
	}
	return c.JSON(fiber.Map{"id": id, "associations": neighbors})
}
