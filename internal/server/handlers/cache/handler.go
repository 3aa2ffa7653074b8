package cache

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/apiarycd/gitstate/internal/buildcache"
	"github.com/apiarycd/gitstate/internal/gitstate"
	"github.com/apiarycd/gitstate/internal/server/validation"
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Handler struct {
	cacheSvc *buildcache.Service

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(cacheSvc *buildcache.Service, validator *validator.Validate, logger *zap.Logger) handler.Handler {
	return &Handler{
		cacheSvc: cacheSvc,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/cache")

	r.Use(h.errorsHandler)
	r.Get("/", validation.DecorateWithQueryEx(h.validator, h.list))
	r.Delete("/", validation.DecorateWithQueryEx(h.validator, h.purge))
	r.Get("/:key", validation.DecorateWithQueryEx(h.validator, h.get))
	r.Put("/:key", validation.DecorateWithQueryEx(h.validator, h.put))
}

func (h *Handler) list(c *fiber.Ctx, req *Query) error {
	entries, err := h.cacheSvc.List(c.Context(), req.Dir)
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}

	return c.JSON(lo.Map(entries, func(e buildcache.Entry, _ int) EntryResponse {
		return h.toResponse(&e, false)
	}))
}

func (h *Handler) purge(c *fiber.Ctx, req *Query) error {
	removed, err := h.cacheSvc.Purge(c.Context(), req.Dir)
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}

	return c.JSON(PurgeResponse{Removed: removed})
}

func (h *Handler) get(c *fiber.Ctx, req *Query) error {
	entry, err := h.cacheSvc.Get(c.Context(), req.Dir, c.Params("key"), options(req.Home)...)
	if err != nil {
		return fmt.Errorf("failed to get cache entry: %w", err)
	}

	return c.JSON(h.toResponse(entry, true))
}

func (h *Handler) put(c *fiber.Ctx, req *Query) error {
	// The request body is reused by fasthttp once the handler returns.
	value := append([]byte(nil), c.Body()...)

	entry, err := h.cacheSvc.Put(c.Context(), req.Dir, c.Params("key"), value, options(req.Home)...)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	return c.Status(fiber.StatusCreated).JSON(h.toResponse(entry, false))
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, buildcache.ErrNotFound),
		errors.Is(err, gitstate.ErrNotRepository),
		errors.Is(err, fs.ErrNotExist):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, buildcache.ErrDirtyWorkspace):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, buildcache.ErrInvalidKey):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}

func (h *Handler) toResponse(entry *buildcache.Entry, withValue bool) EntryResponse {
	response := EntryResponse{
		ID: entry.ID,
		Namespace: NamespaceResponse{
			Repository: entry.Namespace.Repository,
			Flag:       entry.Namespace.Flag,
			Revision:   entry.Namespace.Revision,
		},
		Key:       entry.Key,
		Size:      len(entry.Value),
		CreatedAt: entry.CreatedAt,
	}

	if withValue {
		response.Value = entry.Value
	}

	return response
}

func options(home string) []gitstate.Option {
	if home == "" {
		return nil
	}
	return []gitstate.Option{gitstate.WithUserHome(home)}
}
