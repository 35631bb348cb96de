package suggestionhttp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/relai/server/internal/domain/suggestion"
	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/inbound"
	"github.com/relai/server/internal/utils/response"
)

// Handler handles suggestion HTTP requests.
type Handler struct {
	domain inbound.SuggestionDomain
}

// NewHandler creates a new suggestion handler.
func NewHandler(domain inbound.SuggestionDomain) *Handler {
	return &Handler{domain: domain}
}

// RegisterRoutes registers suggestion routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/suggestions")
	{
		group.POST("/generate", h.Generate)
		group.POST("/enhance", h.Enhance)
	}
}

// Generate returns video ideas for a creator brief.
func (h *Handler) Generate(c *gin.Context) {
	var input inbound.GenerateSuggestionsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestions, err := h.domain.Generate(c.Request.Context(), input.Context, input.UserPreferences)
	if err != nil {
		response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
			{Err: suggestion.ErrEmptyContext, Status: http.StatusBadRequest, Code: "INVALID_REQUEST"},
			{Err: suggestion.ErrSuggestionFailed, Status: http.StatusBadGateway, Code: "SUGGESTION_FAILED"},
		})
		return
	}

	if suggestions == nil {
		suggestions = []*model.Suggestion{}
	}
	c.JSON(http.StatusOK, inbound.GenerateSuggestionsOutput{Suggestions: suggestions})
}

// Enhance rewrites a prompt. It answers 200 even when the rewrite falls back
// to the original text.
func (h *Handler) Enhance(c *gin.Context) {
	var input inbound.EnhancePromptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, inbound.EnhancePromptOutput{
		Prompt: h.domain.Enhance(c.Request.Context(), input.Prompt),
	})
}

// Compile-time interface check
var _ inbound.SuggestionHttpPort = (*Handler)(nil)
