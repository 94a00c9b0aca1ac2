package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"ComplianceQueue/internal/domain"
)

type artifactResponse struct {
	ComplianceID   string    `json:"compliance_id"`
	NameOrigin     string    `json:"compliance_name_origin"`
	NameTranslated *string   `json:"compliance_name_translated"`
	URL            *string   `json:"url"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func toArtifactResponse(artifact domain.Artifact) artifactResponse {
	return artifactResponse{
		ComplianceID:   artifact.ID,
		NameOrigin:     artifact.NameOrigin,
		NameTranslated: optional(artifact.NameTranslated),
		URL:            optional(artifact.URL),
		Status:         string(artifact.Status),
		CreatedAt:      artifact.CreatedAt,
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "message": "Server is running"})
}

func (s *Server) listQueue(c *fiber.Ctx) error {
	artifacts, err := s.queue.List(c.Context())
	if err != nil {
		return s.fail(c, err, "Failed to fetch compliance queue")
	}

	data := make([]artifactResponse, 0, len(artifacts))
	for _, artifact := range artifacts {
		data = append(data, toArtifactResponse(artifact))
	}

	return c.JSON(fiber.Map{"success": true, "data": data, "count": len(data)})
}

type enqueuePayload struct {
	NameOrigin string `json:"compliance_name_origin"`
	URL        string `json:"url"`
}

func (s *Server) enqueue(c *fiber.Ctx) error {
	payload := new(enqueuePayload)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, "Cannot parse JSON payload")
	}
	if payload.NameOrigin == "" {
		return badRequest(c, "compliance_name_origin cannot be empty")
	}

	artifact, err := s.queue.Enqueue(c.Context(), payload.NameOrigin, payload.URL)
	if err != nil {
		return s.fail(c, err, "Failed to enqueue compliance artifact")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": toArtifactResponse(artifact)})
}

func (s *Server) approve(c *fiber.Ctx) error {
	artifact, err := s.queue.Approve(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err, "Failed to approve compliance artifact")
	}
	return c.JSON(fiber.Map{"success": true, "data": toArtifactResponse(artifact)})
}

func (s *Server) disapprove(c *fiber.Ctx) error {
	artifact, err := s.queue.Disapprove(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err, "Failed to disapprove compliance artifact")
	}
	return c.JSON(fiber.Map{"success": true, "data": toArtifactResponse(artifact)})
}

func (s *Server) revert(c *fiber.Ctx) error {
	artifact, err := s.queue.Revert(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err, "Failed to revert compliance artifact")
	}
	return c.JSON(fiber.Map{"success": true, "data": toArtifactResponse(artifact)})
}

type updateURLPayload struct {
	URL string `json:"url"`
}

func (s *Server) updateURL(c *fiber.Ctx) error {
	payload := new(updateURLPayload)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, "Cannot parse JSON payload")
	}

	artifact, err := s.queue.UpdateURL(c.Context(), c.Params("id"), payload.URL)
	if err != nil {
		return s.fail(c, err, "Failed to update URL")
	}
	return c.JSON(fiber.Map{"success": true, "data": toArtifactResponse(artifact)})
}

type updateNamePayload struct {
	NameTranslated string `json:"compliance_name_translated"`
}

func (s *Server) updateName(c *fiber.Ctx) error {
	payload := new(updateNamePayload)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, "Cannot parse JSON payload")
	}

	artifact, err := s.queue.UpdateName(c.Context(), c.Params("id"), payload.NameTranslated)
	if err != nil {
		return s.fail(c, err, "Failed to update compliance name")
	}
	return c.JSON(fiber.Map{"success": true, "data": toArtifactResponse(artifact)})
}

func (s *Server) suggestName(c *fiber.Ctx) error {
	name, err := s.queue.SuggestName(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err, "Failed to suggest a name")
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"suggested_name": name}})
}

type successEntry struct {
	ComplianceID string          `json:"compliance_id"`
	Name         string          `json:"name"`
	Status       string          `json:"status"`
	Data         json.RawMessage `json:"data"`
}

type failureEntry struct {
	ComplianceID string `json:"compliance_id"`
	Name         string `json:"name"`
	Error        string `json:"error"`
}

func (s *Server) initiateWebscrap(c *fiber.Ctx) error {
	report, err := s.pipeline.Run(c.Context())
	if err != nil {
		return s.fail(c, err, "Failed to initiate webscrap pipeline")
	}

	if report.Total == 0 {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "No approved items to process",
			"count":   0,
		})
	}

	results := make([]successEntry, 0, len(report.Successes))
	for _, success := range report.Successes {
		results = append(results, successEntry{
			ComplianceID: success.ID,
			Name:         success.Name,
			Status:       "success",
			Data:         success.Data,
		})
	}

	failures := make([]failureEntry, 0, len(report.Failures))
	for _, failure := range report.Failures {
		failures = append(failures, failureEntry{
			ComplianceID: failure.ID,
			Name:         failure.Name,
			Error:        failure.Error,
		})
	}

	message := fiber.Map{
		"success":    true,
		"message":    runSummary(report),
		"count":      report.Total,
		"successful": report.Succeeded,
		"failed":     report.Failed,
		"results":    results,
		"errors":     failures,
	}
	return c.JSON(message)
}

func runSummary(report domain.Report) string {
	return fmt.Sprintf("Webscrap pipeline completed. Processed %d items: %d successful, %d failed",
		report.Total, report.Succeeded, report.Failed)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": message})
}

func (s *Server) fail(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Compliance artifact not found",
		})
	}

	if s.logger != nil {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
