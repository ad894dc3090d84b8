package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"palm-rag/internal/apperr"
	"palm-rag/internal/rag_service/service"
	"palm-rag/pkg/logger"

	"github.com/gin-gonic/gin"
)

// DefaultMaxUploadBytes 是未配置时允许的上传文件大小。
const DefaultMaxUploadBytes = 20 << 20

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	ingest         *service.IngestService
	chat           *service.ChatService
	documents      *service.DocumentService
	bookings       *service.BookingService
	health         *service.HealthService
	maxUploadBytes int64
	log            *logger.Logger
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(
	ingest *service.IngestService,
	chat *service.ChatService,
	documents *service.DocumentService,
	bookings *service.BookingService,
	health *service.HealthService,
	maxUploadBytes int64,
	log *logger.Logger,
) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		ingest:         ingest,
		chat:           chat,
		documents:      documents,
		bookings:       bookings,
		health:         health,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	writeError(c, requestLogger(c, h.log), err)
}

// --- Ingestion ---

// optionalInt 读取一个可选的整数表单字段。
func optionalInt(c *gin.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.PostForm(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer, got %q: %w", name, raw, apperr.ErrValidation)
	}
	return &v, nil
}

// Ingest 处理 multipart 文件上传: 解析、分块、向量化并写入向量库。
func (h *Handler) Ingest(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		h.fail(c, fmt.Errorf("multipart field \"file\" is required: %w", apperr.ErrValidation))
		return
	}
	if fh.Size > h.maxUploadBytes {
		h.fail(c, fmt.Errorf("file is larger than %d bytes: %w", h.maxUploadBytes, apperr.ErrValidation))
		return
	}

	req := service.IngestRequest{
		FileName:   fh.Filename,
		DocumentID: c.PostForm("document_id"),
		Strategy:   strings.TrimSpace(c.PostForm("chunking_strategy")),
	}
	for name, dst := range map[string]**int{
		"chunk_size":     &req.ChunkSize,
		"chunk_overlap":  &req.ChunkOverlap,
		"min_chunk_size": &req.MinChunkSize,
	} {
		if *dst, err = optionalInt(c, name); err != nil {
			h.fail(c, err)
			return
		}
	}

	f, err := fh.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()
	if req.Data, err = io.ReadAll(f); err != nil {
		h.fail(c, fmt.Errorf("read upload: %w", err))
		return
	}

	res, err := h.ingest.Ingest(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// --- Chat ---

// ChatRequest 定义了聊天请求的 JSON 结构，user_message 是 query 的别名。
type ChatRequest struct {
	SessionID   string `json:"session_id"`
	Query       string `json:"query"`
	UserMessage string `json:"user_message"`
}

// Chat 处理一次对话请求。
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("invalid request body: %v: %w", err, apperr.ErrValidation))
		return
	}
	query := req.Query
	if strings.TrimSpace(query) == "" {
		query = req.UserMessage
	}

	resp, err := h.chat.Chat(c.Request.Context(), req.SessionID, query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History 返回会话的完整历史。
func (h *Handler) History(c *gin.Context) {
	sessionID := c.Param("session_id")
	turns, err := h.chat.History(c.Request.Context(), sessionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":    sessionID,
		"history":       turns,
		"message_count": len(turns),
	})
}

// ClearSession 删除会话。
func (h *Handler) ClearSession(c *gin.Context) {
	sessionID := c.Param("session_id")
	existed, err := h.chat.Clear(c.Request.Context(), sessionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if existed {
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": fmt.Sprintf("Session %s cleared", sessionID)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "info", "message": fmt.Sprintf("Session %s not found or already cleared", sessionID)})
}

// --- Documents ---

// ListDocuments 列出所有已入库的文档。
func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
}

// GetDocument 返回单个文档的元数据。
func (h *Handler) GetDocument(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DeleteDocument 删除文档及其向量。
func (h *Handler) DeleteDocument(c *gin.Context) {
	id := c.Param("id")
	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": fmt.Sprintf("Document %s deleted", id)})
}

// --- Bookings ---

// CreateBooking 创建一个面试预约。
func (h *Handler) CreateBooking(c *gin.Context) {
	var req service.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("invalid booking: %v: %w", err, apperr.ErrValidation))
		return
	}
	b, err := h.bookings.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking_id": b.BookingID, "status": b.Status})
}

// ListBookings 列出预约，可按 email 过滤。
func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.bookings.List(c.Request.Context(), c.Query("email"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// GetBooking 返回单个预约。
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DeleteBooking 删除预约。
func (h *Handler) DeleteBooking(c *gin.Context) {
	id := c.Param("id")
	if err := h.bookings.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": fmt.Sprintf("Booking %s deleted", id)})
}

// --- Health ---

// Health 返回各依赖组件的状态。依赖降级时仍返回 200，数据库不可用时返回 503。
func (h *Handler) Health(c *gin.Context) {
	health := h.health.Check(c.Request.Context())
	status := http.StatusOK
	if health.Components["database"] == service.StateUnavailable {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}
