package workspace

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/apiarycd/gitstate/internal/gitstate"
	"github.com/apiarycd/gitstate/internal/server/validation"
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Handler struct {
	stateSvc *gitstate.Service

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(stateSvc *gitstate.Service, validator *validator.Validate, logger *zap.Logger) handler.Handler {
	return &Handler{
		stateSvc: stateSvc,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/workspace")

	r.Use(h.errorsHandler)
	r.Get("/", validation.DecorateWithQueryEx(h.validator, h.get))
	r.Get("/ignored", validation.DecorateWithQueryEx(h.validator, h.ignored))
}

func (h *Handler) get(c *fiber.Ctx, req *GETQuery) error {
	opts := options(req.Home)
	if req.Ignored {
		opts = append(opts, gitstate.WithIgnored())
	}

	state, err := h.stateSvc.GetState(c.Context(), req.Dir, opts...)
	if err != nil {
		return fmt.Errorf("failed to get workspace state: %w", err)
	}

	return c.JSON(h.toResponse(state))
}

func (h *Handler) ignored(c *fiber.Ctx, req *GETIgnoredQuery) error {
	ignored, err := h.stateSvc.IsIgnored(c.Context(), req.Dir, req.Path, options(req.Home)...)
	if err != nil {
		return fmt.Errorf("failed to evaluate ignore rules: %w", err)
	}

	return c.JSON(IgnoredResponse{Path: req.Path, Ignored: ignored})
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gitstate.ErrNotRepository), errors.Is(err, fs.ErrNotExist):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, gitstate.ErrOutsideWorktree):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}

func (h *Handler) toResponse(state *gitstate.State) StateResponse {
	response := StateResponse{
		Dir:        state.Dir,
		Root:       state.Root,
		Repository: state.Repository,
		Branch:     state.Branch,
		Flag:       state.Flag,
		Revision:   state.Revision,
		Dirty:      state.Dirty,
		Entries: lo.Map(state.Entries, func(e gitstate.PathStatus, _ int) PathStatusResponse {
			return PathStatusResponse{Path: e.Path, State: string(e.State)}
		}),
	}

	if state.Origin != nil {
		response.Origin = state.Origin.String()
	}

	return response
}

func options(home string) []gitstate.Option {
	if home == "" {
		return nil
	}
	return []gitstate.Option{gitstate.WithUserHome(home)}
}
