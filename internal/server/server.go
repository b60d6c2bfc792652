package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/taskbeat/internal/logger"
	"github.com/fentz26/taskbeat/internal/models"
	"github.com/fentz26/taskbeat/internal/store"
	"go.uber.org/zap"
)

// Server provides the HTTP API for taskbeat.
type Server struct {
	service     *Service
	addr        string
	server      *http.Server
	log         *zap.Logger
	heatmapDays int
}

// NewServer creates a new HTTP server.
func NewServer(service *Service, addr string) *Server {
	return &Server{
		service:     service,
		addr:        addr,
		log:         logger.Named("http"),
		heatmapDays: 30,
	}
}

// SetHeatmapDefault overrides the default heatmap window used when the
// request does not specify one.
func (s *Server) SetHeatmapDefault(days int) {
	if days > 0 {
		s.heatmapDays = days
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Task endpoints
	mux.HandleFunc("/tasks", s.handleTasks)
	mux.HandleFunc("/tasks/", s.handleTaskByID)

	// Statistics endpoints
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/stats/heatmap", s.handleHeatmap)

	// Category endpoints
	mux.HandleFunc("/categories", s.handleCategories)
	mux.HandleFunc("/categories/", s.handleCategoryByID)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.log.Info("starting taskbeat daemon", zap.String("addr", s.addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleTasks handles POST /tasks and GET /tasks
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createTask(w, r)
	case http.MethodGet:
		s.listTasks(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleTaskByID handles /tasks/{id}/*
func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/tasks/")
	parts := strings.Split(path, "/")

	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "task id required", http.StatusBadRequest)
		return
	}

	taskID := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getTask(w, r, taskID)
	case action == "" && r.Method == http.MethodPatch:
		s.updateTask(w, r, taskID)
	case action == "" && r.Method == http.MethodDelete:
		s.deleteTask(w, r, taskID)
	case action == "complete" && r.Method == http.MethodPost:
		s.completeTask(w, r, taskID)
	case action == "archive" && r.Method == http.MethodPost:
		s.archiveTask(w, r, taskID)
	case action == "preview" && r.Method == http.MethodGet:
		s.previewTask(w, r, taskID)
	case action == "activity" && r.Method == http.MethodGet:
		s.getTaskActivity(w, r, taskID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// --- Task Handlers ---

type createTaskRequest struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Priority           string     `json:"priority"`
	CategoryID         string     `json:"category_id"`
	Tags               string     `json:"tags"`
	DueDate            *time.Time `json:"due_date"`
	RecurrenceType     string     `json:"recurrence_type"`
	RecurrenceInterval int        `json:"recurrence_interval"`
	RecurrenceEndDate  *time.Time `json:"recurrence_end_date"`
	EstimatedMinutes   *int       `json:"estimated_minutes"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	task, err := s.service.CreateTask(store.NewTask{
		Title:              req.Title,
		Description:        req.Description,
		Priority:           models.TaskPriority(req.Priority),
		CategoryID:         req.CategoryID,
		Tags:               req.Tags,
		DueDate:            req.DueDate,
		RecurrenceType:     models.RecurrenceType(req.RecurrenceType),
		RecurrenceInterval: req.RecurrenceInterval,
		RecurrenceEndDate:  req.RecurrenceEndDate,
		EstimatedMinutes:   req.EstimatedMinutes,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(task)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.ListFilter{
		Status:          models.TaskStatus(q.Get("status")),
		Priority:        models.TaskPriority(q.Get("priority")),
		CategoryID:      q.Get("category"),
		IncludeArchived: q.Get("archived") == "true",
	}

	tasks, err := s.service.ListTasks(f)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if tasks == nil {
		tasks = []models.Task{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request, taskID string) {
	task, err := s.service.GetTask(taskID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if task == nil {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// updateTaskRequest mirrors models.TaskUpdate over JSON: absent fields
// are left unchanged, clear flags wipe optional fields.
type updateTaskRequest struct {
	Title              *string    `json:"title"`
	Description        *string    `json:"description"`
	Status             *string    `json:"status"`
	Priority           *string    `json:"priority"`
	Tags               *string    `json:"tags"`
	CategoryID         *string    `json:"category_id"`
	ClearCategoryID    bool       `json:"clear_category_id"`
	DueDate            *time.Time `json:"due_date"`
	ClearDueDate       bool       `json:"clear_due_date"`
	RecurrenceType     *string    `json:"recurrence_type"`
	RecurrenceInterval *int       `json:"recurrence_interval"`
	RecurrenceEndDate  *time.Time `json:"recurrence_end_date"`
	ClearRecurrenceEnd bool       `json:"clear_recurrence_end_date"`
	EstimatedMinutes   *int       `json:"estimated_minutes"`
	ClearEstimated     bool       `json:"clear_estimated_minutes"`
	ActualMinutes      *int       `json:"actual_minutes"`
	ClearActual        bool       `json:"clear_actual_minutes"`
}

func (r *updateTaskRequest) toUpdate() models.TaskUpdate {
	u := models.TaskUpdate{
		Title:                  r.Title,
		Description:            r.Description,
		Tags:                   r.Tags,
		CategoryID:             r.CategoryID,
		ClearCategoryID:        r.ClearCategoryID,
		DueDate:                r.DueDate,
		ClearDueDate:           r.ClearDueDate,
		RecurrenceInterval:     r.RecurrenceInterval,
		RecurrenceEndDate:      r.RecurrenceEndDate,
		ClearRecurrenceEndDate: r.ClearRecurrenceEnd,
		EstimatedMinutes:       r.EstimatedMinutes,
		ClearEstimatedMinutes:  r.ClearEstimated,
		ActualMinutes:          r.ActualMinutes,
		ClearActualMinutes:     r.ClearActual,
	}
	if r.Status != nil {
		status := models.TaskStatus(*r.Status)
		u.Status = &status
	}
	if r.Priority != nil {
		priority := models.TaskPriority(*r.Priority)
		u.Priority = &priority
	}
	if r.RecurrenceType != nil {
		rt := models.RecurrenceType(*r.RecurrenceType)
		u.RecurrenceType = &rt
	}
	return u
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, taskID string) {
	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	task, err := s.service.UpdateTask(taskID, req.toUpdate())
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request, taskID string) {
	if err := s.service.DeleteTask(taskID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"deleted"}`))
}

type completeTaskRequest struct {
	ActualMinutes *int `json:"actual_minutes"`
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request, taskID string) {
	var req completeTaskRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}

	result, err := s.service.CompleteTask(taskID, req.ActualMinutes)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

type archiveTaskRequest struct {
	Archived bool `json:"archived"`
}

func (s *Server) archiveTask(w http.ResponseWriter, r *http.Request, taskID string) {
	req := archiveTaskRequest{Archived: true}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}

	if err := s.service.ArchiveTask(taskID, req.Archived); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) previewTask(w http.ResponseWriter, r *http.Request, taskID string) {
	count := 5
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid count", http.StatusBadRequest)
			return
		}
		count = n
	}

	dates, err := s.service.PreviewOccurrences(taskID, count)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"dates": out})
}

func (s *Server) getTaskActivity(w http.ResponseWriter, r *http.Request, taskID string) {
	entries, err := s.service.GetTaskActivity(taskID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.ActivityEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// --- Statistics Handlers ---

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := s.service.Statistics()
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	days := s.heatmapDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid days", http.StatusBadRequest)
			return
		}
		days = n
	}

	hm, err := s.service.Heatmap(days)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(hm)
}

// --- Category Handlers ---

type createCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		cat, err := s.service.CreateCategory(req.Name, req.Color)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(cat)

	case http.MethodGet:
		cats, err := s.service.ListCategories()
		if err != nil {
			s.writeError(w, err)
			return
		}
		if cats == nil {
			cats = []models.Category{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cats)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/categories/")
	if id == "" {
		http.Error(w, "category id required", http.StatusBadRequest)
		return
	}
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.service.DeleteCategory(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"deleted"}`))
}

// writeError maps service errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrTaskNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrAlreadyCompleted):
		status = http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		s.log.Error("request failed", zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}
