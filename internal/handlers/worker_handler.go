package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maukemana/photocore/internal/apperr"
	"github.com/maukemana/photocore/internal/processing"
	"github.com/maukemana/photocore/internal/queue"
	"github.com/maukemana/photocore/internal/storage"
	"github.com/maukemana/photocore/internal/utils"
)

const defaultPresignTTL = 5 * time.Minute

// WorkerHandler serves the §6.3 control surface the web tier calls to
// enqueue processing, mint a download URL, and clean up an abandoned
// ingest row.
type WorkerHandler struct {
	queue *queue.Queue
	store storage.Adapter
}

func NewWorkerHandler(q *queue.Queue, store storage.Adapter) *WorkerHandler {
	return &WorkerHandler{queue: q, store: store}
}

type processRequest struct {
	PhotoID     string `json:"photoId" binding:"required"`
	AlbumID     string `json:"albumId" binding:"required"`
	OriginalKey string `json:"originalKey" binding:"required"`
}

// Process enqueues a C5 processing job. A healthy enqueue reports 200;
// an unreachable queue reports 202 so the web tier can warn without
// failing the caller's action (spec §6.3).
func (h *WorkerHandler) Process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	job := processing.Job{PhotoID: req.PhotoID, AlbumID: req.AlbumID, OriginalKey: req.OriginalKey}
	err := h.queue.Enqueue(processing.QueueName, processing.TaskType, job, queue.EnqueueOptions{JobID: req.PhotoID})
	if err != nil {
		c.JSON(http.StatusAccepted, utils.Response{
			Success: false,
			Message: "queue unreachable, job not confirmed enqueued",
			Error:   err.Error(),
		})
		return
	}

	utils.SendSuccess(c, "job enqueued", gin.H{"photoId": req.PhotoID})
}

type presignGetRequest struct {
	Key                        string `json:"key" binding:"required"`
	ResponseContentDisposition string `json:"responseContentDisposition"`
	TTLSeconds                 int    `json:"ttlSeconds"`
}

// PresignGet returns a short-lived download URL for Key, TTL bounded by
// defaultPresignTTL unless the caller asks for a shorter one.
func (h *WorkerHandler) PresignGet(c *gin.Context) {
	var req presignGetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ttl := defaultPresignTTL
	if req.TTLSeconds > 0 && time.Duration(req.TTLSeconds)*time.Second < ttl {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	url, err := h.store.PresignGet(c.Request.Context(), req.Key, ttl, req.ResponseContentDisposition)
	if err != nil {
		writeStorageError(c, "failed to presign download URL", err)
		return
	}

	utils.SendSuccess(c, "presigned URL issued", gin.H{"url": url, "expiresInSeconds": int(ttl.Seconds())})
}

type cleanupFileRequest struct {
	Key string `json:"key" binding:"required"`
}

// CleanupFile deletes a single key, used when an ingest row is
// abandoned before processing ever claimed it.
func (h *WorkerHandler) CleanupFile(c *gin.Context) {
	var req cleanupFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.store.Delete(c.Request.Context(), req.Key); err != nil {
		writeStorageError(c, "failed to delete key", err)
		return
	}

	utils.SendSuccess(c, "key deleted", gin.H{"key": req.Key})
}

func writeStorageError(c *gin.Context, message string, err error) {
	switch {
	case apperr.IsNotFound(err):
		utils.SendError(c, http.StatusNotFound, message, err)
	case apperr.IsValidation(err):
		utils.SendError(c, http.StatusBadRequest, message, err)
	case apperr.IsTransient(err):
		utils.SendError(c, http.StatusServiceUnavailable, message, err)
	default:
		utils.SendError(c, http.StatusInternalServerError, message, err)
	}
}
