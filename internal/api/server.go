// Package api serves the query and flag-update paths over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
	"github.com/DaveOps97/SmartJobHunter/internal/store"
)

// Store is the read and flag side of the storage gateway.
type Store interface {
	Query(ctx context.Context, f store.Filter, opts store.QueryOptions) (store.Page, error)
	Get(ctx context.Context, id string) (model.JobRecord, error)
	SetFlags(ctx context.Context, id string, u model.FlagUpdate) (model.JobRecord, error)
}

// Server wraps the fiber app and its routes.
type Server struct {
	app    *fiber.App
	store  Store
	logger *slog.Logger
}

// NewServer builds the app and registers all routes.
func NewServer(s Store, logger *slog.Logger) *Server {
	srv := &Server{store: s, logger: logger}
	srv.app = fiber.New(fiber.Config{
		AppName:               "smartjobhunter",
		DisableStartupMessage: true,
		ErrorHandler:          srv.handleError,
	})
	srv.app.Use(recover.New())
	srv.app.Use(srv.logRequests)
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.app.Get("/health", s.health)
	s.app.Get("/jobs", s.listJobs)
	s.app.Get("/jobs/:id", s.getJob)
	s.app.Post("/jobs/:id/flags", s.updateFlags)
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen blocks serving addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("api listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// handleError maps typed errors to status codes and renders {"error": msg}.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var (
		fe *fiber.Error
		ve *model.ValidationError
	)
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, model.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, store.ErrInvalidOrder), errors.As(err, &ve):
		code = fiber.StatusBadRequest
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}

	message := err.Error()
	if message == "" {
		message = "Internal Server Error"
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("http request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// listResponse keeps the field names the web UI already consumes.
type listResponse struct {
	Rows       []model.JobRecord `json:"rows"`
	TotalRows  int               `json:"total_rows"`
	TotalPages int               `json:"total_pages"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
}

func (s *Server) listJobs(c *fiber.Ctx) error {
	page, err := intParam(c, "page", 1, 1, 0)
	if err != nil {
		return err
	}
	size, err := intParam(c, "page_size", store.DefaultPageSize, 1, store.MaxPageSize)
	if err != nil {
		return err
	}

	mode, err := store.ParseMode(c.Query("mode", string(store.ModeNotViewed)))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	filter := store.Filter{Mode: mode}
	if c.Query("min_score") != "" {
		minScore, err := intParam(c, "min_score", 0, 0, 100)
		if err != nil {
			return err
		}
		filter.MinScore = &minScore
	}

	res, err := s.store.Query(c.UserContext(), filter, store.QueryOptions{
		OrderBy:  c.Query("order_by"),
		OrderDir: c.Query("order_dir"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		return err
	}

	rows := res.Records
	if rows == nil {
		rows = []model.JobRecord{}
	}
	return c.JSON(listResponse{
		Rows:       rows,
		TotalRows:  res.Total,
		TotalPages: res.TotalPages,
		Page:       res.Page,
		PageSize:   res.PageSize,
	})
}

func (s *Server) getJob(c *fiber.Ctx) error {
	rec, err := s.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

// flagsRequest accepts "note" as an alias of "notes".
type flagsRequest struct {
	Viewed     *bool   `json:"viewed"`
	Interested *bool   `json:"interested"`
	Applied    *bool   `json:"applied"`
	Notes      *string `json:"notes"`
	Note       *string `json:"note"`
}

func (s *Server) updateFlags(c *fiber.Ctx) error {
	var req flagsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}

	u := model.FlagUpdate{
		Viewed:     req.Viewed,
		Interested: req.Interested,
		Applied:    req.Applied,
		Notes:      req.Notes,
	}
	if u.Notes == nil {
		u.Notes = req.Note
	}
	if u.Empty() {
		return fiber.NewError(fiber.StatusBadRequest, "no flag to update")
	}

	id := c.Params("id")
	rec, err := s.store.SetFlags(c.UserContext(), id, u)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "ok", "job_id": id, "job": rec})
}

// intParam reads an integer query parameter. hi <= 0 means unbounded.
func intParam(c *fiber.Ctx, key string, def, lo, hi int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || (hi > 0 && n > hi) {
		if hi > 0 {
			return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s must be an integer in [%d, %d]", key, lo, hi))
		}
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s must be an integer >= %d", key, lo))
	}
	return n, nil
}
