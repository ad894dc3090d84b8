package api

import (
	"errors"
	"net/http"

	"palm-rag/internal/apperr"
	"palm-rag/internal/models"
	"palm-rag/pkg/logger"

	"github.com/gin-gonic/gin"
)

// StatusFor 把错误映射为 HTTP 状态码。
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrEmbeddingFailure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError 统一输出错误响应: {"error", "code"}，部分入库失败时附带 failed_chunks。
func writeError(c *gin.Context, log *logger.Logger, err error) {
	status := StatusFor(err)
	body := gin.H{"error": err.Error(), "code": apperr.Code(err)}

	var ie *apperr.IngestError
	if errors.As(err, &ie) {
		body["document_id"] = ie.DocumentID
		body["failed_chunks"] = ie.Failed
	}

	if status >= http.StatusInternalServerError {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: apperr.Code(err), StatusCode: status}).
			Error("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}
