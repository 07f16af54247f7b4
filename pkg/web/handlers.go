// Package web provides HTTP handlers and REST API endpoints for workflow runs.
package web

import (
	"net/http"
	"time"

	"github.com/dukex/stepflow/pkg/skills"
	"github.com/dukex/stepflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	runner     *workflow.Runner
	repository *workflow.Repository
	skills     *skills.Registry
	validator  *validator.Validate
}

func NewAPIHandlers(
	runner *workflow.Runner,
	repository *workflow.Repository,
	skills *skills.Registry,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		runner:     runner,
		repository: repository,
		skills:     skills,
		validator:  validator,
	}
}

// Register mounts every route on app.
func (h *APIHandlers) Register(app *fiber.App) {
	w := app.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Get("/:name", h.GetWorkflow)
	w.Post("/:name/validate", h.ValidateWorkflow)

	r := app.Group("/runs")
	r.Post("/", h.StartRun)
	r.Post("/resume", h.ResumeRun)
	r.Get("/:id", h.GetRun)
	r.Get("/:id/entries", h.GetRunEntries)
	r.Post("/:id/steps/:step/advance", h.AdvanceStep)
	r.Post("/:id/steps/:step/complete", h.CompleteStep)
	r.Post("/:id/steps/:step/fail", h.FailStep)

	app.Get("/skills", h.GetSkills)
	app.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	definitions, err := h.repository.FetchAll(c.Context())
	if err != nil {
		return handleRunnerError(c, err)
	}

	summaries := make([]WorkflowSummary, 0, len(definitions))
	for _, definition := range definitions {
		summaries = append(summaries, TransformWorkflowSummary(definition))
	}

	return c.JSON(fiber.Map{
		"workflows":   summaries,
		"total_count": len(summaries),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	inspection, err := h.runner.Inspect(c.Context(), c.Params("name"))
	if err != nil {
		return handleRunnerError(c, err)
	}

	return c.JSON(TransformInspection(inspection))
}

func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	inspection, err := h.runner.Inspect(c.Context(), c.Params("name"))
	if err != nil {
		return handleRunnerError(c, err)
	}

	return c.JSON(inspection.Validation)
}

func (h *APIHandlers) StartRun(c fiber.Ctx) error {
	var req StartRunRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.runner.Start(c.Context(), req.Workflow)
	if err != nil {
		return handleRunnerError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// ResumeRun answers 204 when there is no active workflow to resume.
func (h *APIHandlers) ResumeRun(c fiber.Ctx) error {
	result, err := h.runner.Resume(c.Context())
	if err != nil {
		return handleRunnerError(c, err)
	}

	if result == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	status, err := h.runner.Status(c.Context(), c.Params("id"))
	if err != nil {
		return handleRunnerError(c, err)
	}

	return c.JSON(status)
}

func (h *APIHandlers) GetRunEntries(c fiber.Ctx) error {
	entries, err := h.runner.Entries(c.Context(), c.Params("id"))
	if err != nil {
		return handleRunnerError(c, err)
	}

	return c.JSON(fiber.Map{
		"run_id":  c.Params("id"),
		"entries": entries,
	})
}

func (h *APIHandlers) AdvanceStep(c fiber.Ctx) error {
	result, err := h.runner.AdvanceStep(c.Context(), c.Params("id"), c.Params("step"))
	if err != nil {
		return handleRunnerError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) CompleteStep(c fiber.Ctx) error {
	result, err := h.runner.CompleteStep(c.Context(), c.Params("id"), c.Params("step"))
	if err != nil {
		return handleRunnerError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) FailStep(c fiber.Ctx) error {
	var req FailStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.runner.FailStep(c.Context(), c.Params("id"), c.Params("step"), req.Error)
	if err != nil {
		return handleRunnerError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetSkills(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"skills": h.skills.Names(),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.repository.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Stepflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Stepflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
			"skills":     len(h.skills.Names()),
		},
		"timestamp": time.Now().UTC(),
	})
}
