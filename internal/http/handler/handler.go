package handler

import (
	"errors"
	"net/http"
	"time"

	"SwarmCoordinator/internal/repo"
	"SwarmCoordinator/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Handler serves the coordinator's HTTP surface: task producer endpoints,
// agent registry reads and health probes. rdb may be nil when no Redis is
// configured.
type Handler struct {
	svc *service.TaskService
	db  *pgxpool.Pool
	rdb *redis.Client
}

func New(svc *service.TaskService, db *pgxpool.Pool, rdb *redis.Client) *Handler {
	return &Handler{svc: svc, db: db, rdb: rdb}
}

// Register wires all routes onto the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.POST("/tasks", h.CreateTask)
	v1.GET("/tasks/:id", h.GetTaskByID)
	v1.POST("/tasks/:id/reset", h.ResetTask)
	v1.GET("/agents", h.ListAgents)
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ready": false, "error": "db ping failed"})
		return
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ready": false, "error": "redis ping failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ready": true, "timestamp": time.Now().UTC()})
}

type CreateTaskRequest struct {
	TaskType    string         `json:"task_type" binding:"required"`
	Priority    int            `json:"priority" binding:"min=0,max=10"`
	AssignedTo  string         `json:"assigned_to_agent"`
	Description string         `json:"description" binding:"required"`
	FilePaths   []string       `json:"file_paths"`
	Context     map[string]any `json:"context"`
	CreatedBy   string         `json:"created_by"`
}

// POST /api/v1/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}

	id, status, err := h.svc.CreateTask(c.Request.Context(), service.CreateTaskParams{
		Type:        req.TaskType,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		Description: req.Description,
		FilePaths:   req.FilePaths,
		Context:     req.Context,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create task failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task_id": id, "status": status})
}

// GET /api/v1/tasks/:id
func (h *Handler) GetTaskByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	t, err := h.svc.GetTask(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get task failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

// POST /api/v1/tasks/:id/reset re-queues a failed task back to assigned.
func (h *Handler) ResetTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	if err := h.svc.ResetTask(c.Request.Context(), id); err != nil {
		if errors.Is(err, repo.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "task is not in failed status"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset task failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": id, "status": "assigned"})
}

// GET /api/v1/agents
func (h *Handler) ListAgents(c *gin.Context) {
	agents, err := h.svc.ListAgents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list agents failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}
