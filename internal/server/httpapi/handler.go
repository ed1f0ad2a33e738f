package httpapi

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/bkjournal/internal/server/models"
	"github.com/gofiber/fiber/v2"
)

type createJournalRequest struct {
	StudentID   string `json:"student_id" validate:"required,max=64"`
	SessionDate string `json:"session_date" validate:"required,datetime=2006-01-02"`
	Content     string `json:"content" validate:"required"`
}

// updateJournalRequest has no student or counselor fields; anything else in
// the body is ignored.
type updateJournalRequest struct {
	Content string `json:"content" validate:"required"`
}

func (s *HTTPServer) createJournal(c *fiber.Ctx) error {
	p, ok := principalFrom(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "unauthorized", "missing principal")
	}

	var req createJournalRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "bad_request", "invalid payload")
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.SessionDate = strings.TrimSpace(req.SessionDate)

	if err := s.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	date, err := time.Parse(time.DateOnly, req.SessionDate)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_failed", "session_date must be YYYY-MM-DD")
	}

	meta, err := s.journals.CreateJournal(c.UserContext(), p, req.StudentID, date, req.Content)
	if err != nil {
		return s.serviceError(c, err)
	}

	return success(c, fiber.StatusCreated, "journal created", meta)
}

func (s *HTTPServer) getJournal(c *fiber.Ctx) error {
	p, ok := principalFrom(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "unauthorized", "missing principal")
	}

	j, err := s.journals.GetJournal(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return s.serviceError(c, err)
	}

	return success(c, fiber.StatusOK, "ok", j)
}

func (s *HTTPServer) updateJournal(c *fiber.Ctx) error {
	p, ok := principalFrom(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "unauthorized", "missing principal")
	}

	var req updateJournalRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "bad_request", "invalid payload")
	}
	if err := s.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	meta, err := s.journals.UpdateJournal(c.UserContext(), p, c.Params("id"), req.Content)
	if err != nil {
		return s.serviceError(c, err)
	}

	return success(c, fiber.StatusOK, "journal updated", meta)
}

func (s *HTTPServer) deleteJournal(c *fiber.Ctx) error {
	p, ok := principalFrom(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "unauthorized", "missing principal")
	}

	if err := s.journals.DeleteJournal(c.UserContext(), p, c.Params("id")); err != nil {
		return s.serviceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *HTTPServer) listJournals(c *fiber.Ctx) error {
	p, ok := principalFrom(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "unauthorized", "missing principal")
	}

	filter := models.JournalFilter{StudentID: strings.TrimSpace(c.Query("student_id"))}

	list, err := s.journals.ListJournalsForCounselor(c.UserContext(), p, filter)
	if err != nil {
		return s.serviceError(c, err)
	}

	return success(c, fiber.StatusOK, "ok", list)
}
