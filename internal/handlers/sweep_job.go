package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"innbox/internal/config"
	"innbox/internal/k8s"
	"innbox/internal/models"

	"github.com/labstack/echo/v4"
)

// TriggerSweepJobHandler launches a Kubernetes Job that runs one embedding sweep
// @Summary Trigger an embedding sweep job
// @Description Creates a Kubernetes Job running the sync-embeddings binary to completion
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} models.TriggerSweepResponse
// @Failure 500 {object} models.TriggerSweepResponse
// @Router /api/admin/trigger-sweep-job [post]
func TriggerSweepJobHandler(cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		fmt.Println("[SWEEP_JOB] Received trigger request")

		jobName := fmt.Sprintf("embed-sweep-%d", time.Now().Unix())

		k8sClient, err := k8s.NewClient(cfg.SweepNamespace)
		if err != nil {
			fmt.Printf("[SWEEP_JOB] Failed to create Kubernetes client: %v\n", err)
			return c.JSON(http.StatusInternalServerError, models.TriggerSweepResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to create Kubernetes client: %v", err),
			})
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := k8sClient.CreateSweepJob(ctx, jobName, cfg.SweepJobImage); err != nil {
			fmt.Printf("[SWEEP_JOB] Failed to create job: %v\n", err)
			return c.JSON(http.StatusInternalServerError, models.TriggerSweepResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to create Kubernetes job: %v", err),
			})
		}

		fmt.Printf("[SWEEP_JOB] Successfully created job: %s\n", jobName)

		return c.JSON(http.StatusOK, models.TriggerSweepResponse{
			Success: true,
			Message: "Sweep job triggered successfully",
			JobName: jobName,
		})
	}
}

// SweepJobStatusHandler reports the status of a sweep job
// @Summary Get sweep job status
// @Description Gets the current status of a previously triggered sweep job
// @Tags admin
// @Accept json
// @Produce json
// @Param jobName path string true "Job name"
// @Success 200 {object} models.SweepJobStatus
// @Failure 500 {object} map[string]string
// @Router /api/admin/sweep-job-status/{jobName} [get]
func SweepJobStatusHandler(cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		jobName := c.Param("jobName")

		k8sClient, err := k8s.NewClient(cfg.SweepNamespace)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": fmt.Sprintf("Failed to create Kubernetes client: %v", err),
			})
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		job, err := k8sClient.GetJobStatus(ctx, jobName)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": fmt.Sprintf("Failed to get job status: %v", err),
			})
		}

		status := models.SweepJobStatus{
			JobName:   jobName,
			Active:    job.Status.Active,
			Succeeded: job.Status.Succeeded,
			Failed:    job.Status.Failed,
		}

		switch {
		case job.Status.Succeeded > 0:
			status.Status = "succeeded"
		case job.Status.Failed > 0:
			status.Status = "failed"
		case job.Status.Active > 0:
			status.Status = "running"
		default:
			status.Status = "pending"
		}

		if job.Status.StartTime != nil {
			startTime := job.Status.StartTime.Format(time.RFC3339)
			status.StartTime = &startTime
		}
		if job.Status.CompletionTime != nil {
			completionTime := job.Status.CompletionTime.Format(time.RFC3339)
			status.CompletionTime = &completionTime
		}

		return c.JSON(http.StatusOK, status)
	}
}
