package handlers

import (
	"net/http"

	"task-manager/server/response"
	"task-manager/server/services"

	"github.com/gorilla/mux"
)

type TaskHandler struct {
	tasks *services.TaskService
	out   *response.Writer
}

func NewTaskHandler(tasks *services.TaskService, out *response.Writer) *TaskHandler {
	return &TaskHandler{tasks: tasks, out: out}
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	q, err := services.ParseListQuery(r.URL.Query())
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	page, err := h.tasks.ListTasks(r.Context(), caller, q)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	h.out.JSON(w, http.StatusOK, "Tasks retrieved successfully", page)
}

func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	stats, err := h.tasks.GetStats(r.Context(), caller)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	h.out.JSON(w, http.StatusOK, "Task statistics retrieved", map[string]any{"stats": stats})
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	task, err := h.tasks.GetTask(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	h.out.JSON(w, http.StatusOK, "Task retrieved successfully", map[string]any{"task": task})
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	var in services.CreateTaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.out.Error(w, r, err)
		return
	}
	task, err := h.tasks.CreateTask(r.Context(), caller, in)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	h.out.JSON(w, http.StatusCreated, "Task created successfully", map[string]any{"task": task})
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	var in services.UpdateTaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.out.Error(w, r, err)
		return
	}
	task, err := h.tasks.UpdateTask(r.Context(), caller, mux.Vars(r)["id"], in)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	h.out.JSON(w, http.StatusOK, "Task updated successfully", map[string]any{"task": task})
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	if err := h.tasks.DeleteTask(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		h.out.Error(w, r, err)
		return
	}
	h.out.JSON(w, http.StatusOK, "Task deleted successfully", nil)
}

func (h *TaskHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	task, err := h.tasks.AdvanceStatus(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	h.out.JSON(w, http.StatusOK, "Task status updated", map[string]any{"task": task})
}
