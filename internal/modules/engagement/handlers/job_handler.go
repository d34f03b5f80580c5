package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

// JobHandler exposes the workspace's background jobs to owners and admins.
type JobHandler struct {
	jobService *jobs.Service
}

func NewJobHandler(jobService *jobs.Service) *JobHandler {
	return &JobHandler{jobService: jobService}
}

func (h *JobHandler) RegisterRoutes(r fiber.Router) {
	group := r.Group("/jobs", tenant.RequireWorkspaceRole(tenant.RoleOwner, tenant.RoleAdmin))
	group.Get("/", h.ListJobs)
	group.Get("/stats", h.GetJobStats)
	group.Get("/:id", h.GetJob)
	group.Post("/:id/cancel", h.CancelJob)
}

// ListJobs godoc
// @Summary List background jobs
// @Description Owner or admin only. Newest first.
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param status query string false "Status"
// @Param type query string false "Job type"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} jobs.Job
// @Router /jobs [get]
func (h *JobHandler) ListJobs(c *fiber.Ctx) error {
	workspaceID := tenant.WorkspaceID(c)
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 50
	}
	list, err := h.jobService.ListJobs(c.UserContext(), jobs.JobFilter{
		WorkspaceID: &workspaceID,
		Type:        c.Query("type"),
		Status:      jobs.JobStatus(c.Query("status")),
		Limit:       limit,
	})
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(list)
}

// GetJobStats godoc
// @Summary Job counts by status, queue and type
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Success 200 {object} jobs.JobStats
// @Router /jobs/stats [get]
func (h *JobHandler) GetJobStats(c *fiber.Ctx) error {
	workspaceID := tenant.WorkspaceID(c)
	stats, err := h.jobService.GetStats(c.UserContext(), &workspaceID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(stats)
}

// GetJob godoc
// @Summary Get a background job
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Job ID"
// @Success 200 {object} jobs.Job
// @Failure 404 {object} map[string]interface{}
// @Router /jobs/{id} [get]
func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	job, err := h.find(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(job)
}

// CancelJob godoc
// @Summary Cancel a job that has not started
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /jobs/{id}/cancel [post]
func (h *JobHandler) CancelJob(c *fiber.Ctx) error {
	job, err := h.find(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.jobService.Cancel(c.UserContext(), job.ID); err != nil {
		if errors.Is(err, jobs.ErrJobNotCancellable) {
			return utils.RespondError(c, apperr.BadRequest("Job can no longer be cancelled"))
		}
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Job cancelled"})
}

// find loads the job named in the path. Jobs of other workspaces and system
// jobs without a workspace are not found.
func (h *JobHandler) find(c *fiber.Ctx) (*jobs.Job, error) {
	id, err := utils.ParamUUID(c, "id", "Job")
	if err != nil {
		return nil, err
	}
	job, err := h.jobService.GetJob(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return nil, apperr.NotFound("Job")
		}
		return nil, err
	}
	if job.WorkspaceID == nil || *job.WorkspaceID != tenant.WorkspaceID(c) {
		return nil, apperr.NotFound("Job")
	}
	return job, nil
}
