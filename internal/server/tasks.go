package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/models"
	"taskhub/internal/service"
)

type createTaskRequest struct {
	Title       string  `json:"title" binding:"required"`
	Priority    string  `json:"priority" binding:"required"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	AssignedTo  *string `json:"assigned_to"`
}

type updateTaskRequest struct {
	Title       *string               `json:"title"`
	Description models.OptionalString `json:"description"`
	Priority    *string               `json:"priority"`
	Status      *string               `json:"status"`
	AssignedTo  models.OptionalString `json:"assigned_to"`
}

func (r updateTaskRequest) patch() models.TaskPatch {
	p := models.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		AssignedTo:  r.AssignedTo,
	}
	if r.Priority != nil {
		v := models.TaskPriority(*r.Priority)
		p.Priority = &v
	}
	if r.Status != nil {
		v := models.TaskStatus(*r.Status)
		p.Status = &v
	}
	return p
}

// handleListTasks fetches tasks for a project, optionally filtered by status and priority.
func (s *Server) handleListTasks(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	tasks := s.projects.ListTasks(c.Request.Context(), projectID,
		models.TaskStatus(c.Query("status")), models.TaskPriority(c.Query("priority")))
	respondSuccess(c, http.StatusOK, tasks)
}

// handleCreateTask inserts a new task into a project.
func (s *Server) handleCreateTask(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	in := models.NewTask{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.TaskPriority(req.Priority),
		AssignedTo:  req.AssignedTo,
	}
	if req.Status != nil {
		st := models.TaskStatus(*req.Status)
		in.Status = &st
	}

	task, err := s.projects.CreateTask(c.Request.Context(), projectID, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, task)
}

// handleGetTask returns a single task.
func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.tasks.Get(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if task == nil {
		s.respondError(c, service.ErrTaskNotFound)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleUpdateTask merges the supplied fields into a task.
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := s.tasks.Update(c.Request.Context(), c.Param("task_id"), req.patch())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleDeleteTask removes a task. Unknown ids succeed.
func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.tasks.Delete(c.Request.Context(), c.Param("task_id")); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Task deleted"})
}
