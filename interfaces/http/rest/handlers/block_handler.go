package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"notelink-backend/application/ports"
	"notelink-backend/application/services"
	"notelink-backend/domain/blocks"
	"notelink-backend/pkg/auth"
	"notelink-backend/pkg/common"
	"notelink-backend/pkg/utils"
)

// maxBodyBytes bounds request bodies; bulk imports get a larger budget.
const (
	maxBodyBytes       = 1 << 20
	maxImportBodyBytes = 16 << 20
)

// BlockHandler serves the block endpoints.
type BlockHandler struct {
	blockService    *services.BlockService
	linkService     *services.LinkService
	searchService   *services.SearchService
	searchThreshold float64
	logger          *zap.Logger
}

// NewBlockHandler creates a block handler. searchThreshold is the default
// similarity cutoff when the request does not supply one.
func NewBlockHandler(
	blockService *services.BlockService,
	linkService *services.LinkService,
	searchService *services.SearchService,
	searchThreshold float64,
	logger *zap.Logger,
) *BlockHandler {
	return &BlockHandler{
		blockService:    blockService,
		linkService:     linkService,
		searchService:   searchService,
		searchThreshold: searchThreshold,
		logger:          logger,
	}
}

type createBlockRequest struct {
	Title     string `json:"title" validate:"max=500"`
	Content   string `json:"content" validate:"required"`
	Type      string `json:"type" validate:"omitempty,oneof=text image code math"`
	ProjectID string `json:"projectId" validate:"omitempty,uuid"`
}

type updateBlockRequest struct {
	Title     *string `json:"title" validate:"omitempty,max=500"`
	Content   *string `json:"content"`
	Type      *string `json:"type" validate:"omitempty,oneof=text image code math"`
	ProjectID *string `json:"projectId"`
}

type importBlocksRequest struct {
	Blocks []createBlockRequest `json:"blocks" validate:"required,min=1,max=500,dive"`
}

type blockResponse struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId,omitempty"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	Embeddings []float32 `json:"embeddings,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type searchMatchResponse struct {
	Block      blockResponse `json:"block"`
	Similarity float64       `json:"similarity"`
}

type recommendedBlockResponse struct {
	Block      blockResponse `json:"block"`
	Similarity float64       `json:"similarity"`
}

type searchResponse struct {
	QueryType         string                `json:"queryType"`
	TitleMatches      []searchMatchResponse `json:"titleMatches"`
	ContentMatches    []searchMatchResponse `json:"contentMatches"`
	SimilarityMatches []searchMatchResponse `json:"similarityMatches"`
	Answer            string                `json:"answer,omitempty"`
	Sources           []answerSource        `json:"sources,omitempty"`
}

type answerSource struct {
	BlockID string `json:"blockId"`
	Title   string `json:"title"`
}

func toBlockResponse(b *blocks.Block) blockResponse {
	return blockResponse{
		ID:         b.ID,
		ProjectID:  b.ProjectID,
		Title:      b.Title,
		Content:    b.Content,
		Type:       string(b.Type),
		Embeddings: b.Embeddings,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func toSearchMatches(matches []blocks.SearchMatch) []searchMatchResponse {
	out := make([]searchMatchResponse, len(matches))
	for i, m := range matches {
		out[i] = searchMatchResponse{Block: toBlockResponse(m.Block), Similarity: m.Similarity}
	}
	return out
}

// interactionFrom pulls the optional device/location context off request
// headers.
func interactionFrom(r *http.Request) services.Interaction {
	return services.Interaction{
		Device:   r.Header.Get("X-Device-ID"),
		Location: r.Header.Get("X-Location"),
	}
}

func ownerFrom(r *http.Request) (string, bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return "", false
	}
	return user.UserID, true
}

// CreateBlock handles POST /api/v1/blocks
func (h *BlockHandler) CreateBlock(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(r)
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req createBlockRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	blockType, err := blocks.ParseBlockType(req.Type)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	block, err := h.blockService.Create(r.Context(), ownerID, services.CreateBlockInput{
		Title:     req.Title,
		Content:   req.Content,
		Type:      blockType,
		ProjectID: req.ProjectID,
	}, interactionFrom(r))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toBlockResponse(block.WithoutEmbeddings()))
}

// GetBlock handles GET /api/v1/blocks/{blockID}
func (h *BlockHandler) GetBlock(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(r)
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	blockID := chi.URLParam(r, "blockID")

	block, err := h.blockService.Get(r.Context(), ownerID, blockID, interactionFrom(r))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toBlockResponse(block.WithoutEmbeddings()))
}

// ListBlocks handles GET /api/v1/blocks
func (h *BlockHandler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(r)
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	opts := ports.ListOptions{
		IncludeEmbeddings: r.URL.Query().Get("includeEmbeddings") == "true",
		ProjectID:         r.URL.Query().Get("projectId"),
	}

	list, err := h.blockService.List(r.Context(), ownerID, opts)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	out := make([]blockResponse, len(list))
	for i, b := range list {
		out[i] = toBlockResponse(b)
	}
	common.RespondJSON(w, http.StatusOK, map[string]any{"blocks": out})
}

// UpdateBlock handles PATCH /api/v1/blocks/{blockID}
func (h *BlockHandler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(r)
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	blockID := chi.URLParam(r, "blockID")

	var req updateBlockRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	input := services.UpdateBlockInput{
		Title:     req.Title,
		Content:   req.Content,
		ProjectID: req.ProjectID,
	}
	if req.Type != nil {
		blockType, err := blocks.ParseBlockType(*req.Type)
		if err != nil {
			common.RespondAppError(w, err)
			return
		}
		input.Type = &blockType
	}

	block, err := h.blockService.Update(r.Context(), ownerID, blockID, input, interactionFrom(r))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toBlockResponse(block.WithoutEmbeddings()))
}

// DeleteBlock handles DELETE /api/v1/blocks/{blockID}
func (h *BlockHandler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(r)
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	blockID := chi.URLParam(r, "blockID")

	if err := h.blockService.Delete(r.Context(), ownerID, blockID); err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]any{"deleted": blockID})
}

// RecommendedBlocks handles GET /api/v1/blocks/recommended/{blockID}
func (h *BlockHandler) RecommendedBlocks(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(r)
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	blockID := chi.URLParam(r, "blockID")

	related, err := h.linkService.RelatedBlocks(r.Context(), ownerID, blockID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	out := make([]recommendedBlockResponse, len(related))
	for i, rec := range related {
		out[i] = recommendedBlockResponse{Block: toBlockResponse(rec.Block), Similarity: rec.Similarity}
	}
	common.RespondJSON(w, http.StatusOK, map[string]any{"recommendations": out})
}

// Search handles GET /api/v1/blocks/search
func (h *BlockHandler) Search(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(r)
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "query parameter is required")
		return
	}

	threshold := h.searchThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed >= 1 {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "threshold must be a number in [0, 1)")
			return
		}
		threshold = parsed
	}

	kind := services.ClassifyQuery(query)
	result, err := h.searchService.SearchBlocks(r.Context(), ownerID, query, threshold, r.URL.Query().Get("projectId"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	resp := searchResponse{
		QueryType:         string(kind),
		TitleMatches:      toSearchMatches(result.TitleMatches),
		ContentMatches:    toSearchMatches(result.ContentMatches),
		SimilarityMatches: toSearchMatches(result.SimilarityMatches),
	}

	if kind == services.QueryKindQuestion {
		if candidates := services.MatchedBlocks(result); len(candidates) > 0 {
			answer, err := h.searchService.GenerateAnswer(r.Context(), query, candidates)
			if err != nil {
				common.RespondAppError(w, err)
				return
			}
			resp.Answer = answer.Text
			for _, src := range answer.Sources {
				resp.Sources = append(resp.Sources, answerSource{BlockID: src.BlockID, Title: src.Title})
			}
		}
	}

	common.RespondJSON(w, http.StatusOK, resp)
}

// ImportBlocks handles POST /api/v1/blocks/import
func (h *BlockHandler) ImportBlocks(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(r)
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req importBlocksRequest
	if err := common.ParseJSONBody(r, &req, maxImportBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	inputs := make([]services.CreateBlockInput, len(req.Blocks))
	for i, b := range req.Blocks {
		blockType, err := blocks.ParseBlockType(b.Type)
		if err != nil {
			common.RespondAppError(w, err)
			return
		}
		inputs[i] = services.CreateBlockInput{
			Title:     b.Title,
			Content:   b.Content,
			Type:      blockType,
			ProjectID: b.ProjectID,
		}
	}

	imported, err := h.blockService.CreateMany(r.Context(), ownerID, inputs)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	out := make([]blockResponse, len(imported))
	for i, b := range imported {
		out[i] = toBlockResponse(b.WithoutEmbeddings())
	}
	common.RespondJSON(w, http.StatusCreated, map[string]any{"blocks": out, "imported": len(out)})
}
