package handler

import (
	"github.com/gin-gonic/gin"

	reconcileapp "github.com/marsops/backend/internal/application/reconcile"
)

// ReconcileHandler runs the pipeline-vs-tracker reconciliation report
type ReconcileHandler struct {
	BaseHandler
	reconcileService *reconcileapp.ReconcileService
}

// NewReconcileHandler creates a new ReconcileHandler
func NewReconcileHandler(reconcileService *reconcileapp.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{
		reconcileService: reconcileService,
	}
}

// Run handles POST /reconcile/run
func (h *ReconcileHandler) Run(c *gin.Context) {
	report, err := h.reconcileService.Run(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}
