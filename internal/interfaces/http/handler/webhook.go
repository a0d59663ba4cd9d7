package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	contractapp "github.com/marsops/backend/internal/application/contracts"
	"github.com/marsops/backend/internal/infrastructure/cache"
	"github.com/marsops/backend/internal/infrastructure/docusign"
)

// signatureHeader carries the base64 HMAC DocuSign Connect computes over the body
const signatureHeader = "X-DocuSign-Signature-1"

// maxWebhookBody caps Connect notification payloads at 1MB
const maxWebhookBody = 1 << 20

// webhookDedupeTTL is how long processed event IDs are remembered
const webhookDedupeTTL = 24 * time.Hour

// connectEvent is the subset of the Connect JSON payload we act on
type connectEvent struct {
	Event             string `json:"event"`
	GeneratedDateTime string `json:"generatedDateTime"`
	Data              struct {
		EnvelopeID      string `json:"envelopeId"`
		EnvelopeSummary struct {
			Status                string `json:"status"`
			StatusChangedDateTime string `json:"statusChangedDateTime"`
		} `json:"envelopeSummary"`
	} `json:"data"`
}

// WebhookHandler ingests DocuSign Connect envelope notifications.
//
// Connect retries aggressively on any non-2xx answer, so every outcome
// is acknowledged with 200 and the reason is recorded in the response
// body and logs instead.
type WebhookHandler struct {
	BaseHandler
	contractService *contractapp.ContractService
	verifier        *docusign.WebhookVerifier
	idempotency     cache.IdempotencyStore
	logger          *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(
	contractService *contractapp.ContractService,
	verifier *docusign.WebhookVerifier,
	idempotency cache.IdempotencyStore,
	logger *zap.Logger,
) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		contractService: contractService,
		verifier:        verifier,
		idempotency:     idempotency,
		logger:          logger,
	}
}

// DocuSign handles POST /webhooks/docusign
func (h *WebhookHandler) DocuSign(c *gin.Context) {
	if h.verifier == nil {
		h.ack(c, "rejected", "signature verification not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.ack(c, "rejected", "unreadable body")
		return
	}

	if err := h.verifier.Verify(body, c.GetHeader(signatureHeader)); err != nil {
		h.logger.Warn("webhook signature rejected", zap.String("source", "docusign"))
		h.ack(c, "rejected", "invalid signature")
		return
	}

	var event connectEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Warn("webhook payload unparseable", zap.Error(err))
		h.ack(c, "dropped", "unparseable payload")
		return
	}
	if event.Data.EnvelopeID == "" {
		h.ack(c, "dropped", "missing envelope ID")
		return
	}

	eventID := event.Data.EnvelopeID + ":" + event.Event + ":" + event.GeneratedDateTime
	fresh, err := h.idempotency.MarkProcessed(c.Request.Context(), eventID, webhookDedupeTTL)
	if err != nil {
		// The store being down is not worth a retry storm; process anyway.
		h.logger.Error("idempotency store unavailable", zap.Error(err))
	} else if !fresh {
		h.logger.Debug("webhook event already processed",
			zap.String("envelope_id", event.Data.EnvelopeID),
			zap.String("event", event.Event))
		h.ack(c, "duplicate", "")
		return
	}

	status := event.Data.EnvelopeSummary.Status
	if status == "" {
		status = event.Event
	}
	changedAt := parseConnectTime(event.Data.EnvelopeSummary.StatusChangedDateTime, event.GeneratedDateTime)

	contract, err := h.contractService.RecordEnvelopeStatus(c.Request.Context(), event.Data.EnvelopeID, status, changedAt)
	if err != nil {
		// Unknown envelopes and validation failures are acknowledged so
		// Connect stops redelivering them.
		h.logger.Info("webhook event not applied",
			zap.String("envelope_id", event.Data.EnvelopeID),
			zap.String("status", status),
			zap.Error(err))
		h.ack(c, "dropped", err.Error())
		return
	}

	h.logger.Info("envelope status applied",
		zap.String("envelope_id", event.Data.EnvelopeID),
		zap.String("status", status),
		zap.String("contract_id", contract.ID.String()))
	h.ack(c, "applied", "")
}

// ack answers 200 with a small status body
func (h *WebhookHandler) ack(c *gin.Context, result, reason string) {
	body := gin.H{"result": result}
	if reason != "" {
		body["reason"] = reason
	}
	c.JSON(http.StatusOK, body)
}

// parseConnectTime parses the first parseable RFC3339 timestamp, falling
// back to the current time
func parseConnectTime(values ...string) time.Time {
	for _, v := range values {
		if v == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
