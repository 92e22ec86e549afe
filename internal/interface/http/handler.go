package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/summarizer"
	"github.com/yanqian/newsdigest/internal/infra/docstore"
	"github.com/yanqian/newsdigest/internal/infra/lexicon"
)

// Handler wires the HTTP transport to the summarizer.
type Handler struct {
	summarizerSvc summarizer.Service
	vectors       lexicon.VectorSource
	logger        *slog.Logger
}

// NewHandler constructs the root HTTP handler. vectors may be nil when groups arrive with embeddings.
func NewHandler(svc summarizer.Service, vectors lexicon.VectorSource, logger *slog.Logger) *Handler {
	return &Handler{
		summarizerSvc: svc,
		vectors:       vectors,
		logger:        logger.With("component", "http.handler"),
	}
}

type batchRequest struct {
	Groups []docstore.GroupDocument `json:"groups"`
}

type batchResponse struct {
	Summaries []summarizer.Summary `json:"summaries"`
}

// Summarize handles POST /api/v1/summaries with one annotated document group.
func (h *Handler) Summarize(c *gin.Context) {
	var doc docstore.GroupDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	group, ok := h.prepare(c, doc)
	if !ok {
		return
	}

	summary, err := h.summarizerSvc.Summarize(c.Request.Context(), group)
	if err != nil {
		abortWithError(c, serviceError("summarize_failed", err))
		return
	}
	h.logger.Debug("summary served", "topic", summary.TopicID, "client", getClient(c))
	c.JSON(http.StatusOK, summary)
}

// SummarizeBatch handles POST /api/v1/summaries/batch; results keep the request order.
func (h *Handler) SummarizeBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	if len(req.Groups) == 0 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "groups cannot be empty", nil))
		return
	}
	groups := make([]*docgroup.Group, 0, len(req.Groups))
	for _, doc := range req.Groups {
		group, ok := h.prepare(c, doc)
		if !ok {
			return
		}
		groups = append(groups, group)
	}

	summaries, err := h.summarizerSvc.SummarizeAll(c.Request.Context(), groups)
	if err != nil {
		abortWithError(c, serviceError("summarize_failed", err))
		return
	}
	c.JSON(http.StatusOK, batchResponse{Summaries: summaries})
}

// GetSummary handles GET /api/v1/summaries/:id.
func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.summarizerSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, serviceError("summary_lookup_failed", err))
		return
	}
	c.JSON(http.StatusOK, summary)
}

// LatestSummary handles GET /api/v1/topics/:topic/summary.
func (h *Handler) LatestSummary(c *gin.Context) {
	summary, err := h.summarizerSvc.Latest(c.Request.Context(), c.Param("topic"))
	if err != nil {
		abortWithError(c, serviceError("summary_lookup_failed", err))
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) prepare(c *gin.Context, doc docstore.GroupDocument) (*docgroup.Group, bool) {
	group, err := doc.Group()
	if err != nil {
		abortWithError(c, badRequest(err))
		return nil, false
	}
	if h.vectors != nil {
		if _, err := lexicon.FillVectors(c.Request.Context(), h.vectors, group); err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadGateway, "lexicon_unavailable", errMessage(err), err))
			return nil, false
		}
	}
	return group, true
}
