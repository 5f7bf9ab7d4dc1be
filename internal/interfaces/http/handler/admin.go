package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spoolgate/backend/internal/infrastructure/logger"
	"github.com/spoolgate/backend/internal/infrastructure/storage"
	"github.com/spoolgate/backend/internal/interfaces/http/dto"
	"github.com/spoolgate/backend/internal/interfaces/http/middleware"
)

// Sweeper removes stale uploads
type Sweeper interface {
	Sweep(ctx context.Context, maxAge time.Duration) (*storage.SweepResult, error)
}

// AdminHandler serves maintenance endpoints restricted to administrators
type AdminHandler struct {
	BaseHandler
	sweeper Sweeper
	maxAge  time.Duration
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(sweeper Sweeper, maxAge time.Duration) *AdminHandler {
	return &AdminHandler{sweeper: sweeper, maxAge: maxAge}
}

// Sweep runs a storage sweep immediately
//
//	@Summary		Sweep stale uploads
//	@Description	Deletes uploads older than the configured age. Skipped when another sweep holds the lock.
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	dto.Response{data=dto.SweepResponse}
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/sweep [post]
func (h *AdminHandler) Sweep(c *gin.Context) {
	result, err := h.sweeper.Sweep(c.Request.Context(), h.maxAge)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	identity, _ := middleware.GetIdentity(c)
	logger.GetGinLogger(c).Info("Manual sweep finished",
		zap.String("requested_by", identity.Subject),
		zap.Int("removed", result.Removed),
		zap.Bool("skipped", result.Skipped),
	)
	h.Success(c, dto.NewSweepResponse(result))
}
