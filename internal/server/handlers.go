package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fmueller/voxd/internal/transcribe"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": s.opts.ServiceName,
		"device":  s.opts.Device,
	})
}

func (s *Server) handleTranscribe(c *gin.Context) {
	limit := s.opts.MaxUploadBytes
	if limit > 0 && c.Request.ContentLength > bodyLimitFor(limit) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": tooLargeMessage(limit)})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": tooLargeMessage(limit)})
			return
		}
		s.logger.Debug("no upload in request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": transcribe.ErrNoUpload.Error()})
		return
	}

	if limit > 0 && header.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": tooLargeMessage(limit)})
		return
	}

	file, err := header.Open()
	if err != nil {
		s.logger.Error("failed to open upload", zap.String("filename", header.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "open upload: " + err.Error()})
		return
	}
	defer file.Close()

	model := c.PostForm("model")
	s.logger.Info("received file",
		zap.String("filename", header.Filename),
		zap.Int64("bytes", header.Size),
		zap.String("model", model),
		zap.String(requestIDKey, c.GetString(requestIDKey)),
	)

	result, err := s.transcriber.Handle(c.Request.Context(), file, model)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func statusFor(err error) int {
	if kind := transcribe.KindOf(err); kind != "" {
		return kind.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// multipartOverhead is the room left in the request body for multipart
// framing and small form fields on top of the file size limit.
const multipartOverhead = 64 << 10

func bodyLimitFor(fileLimit int64) int64 {
	if fileLimit <= 0 {
		return 0
	}
	return fileLimit + multipartOverhead
}

func tooLargeMessage(limit int64) string {
	return fmt.Sprintf("upload exceeds the %d byte limit", limit)
}
