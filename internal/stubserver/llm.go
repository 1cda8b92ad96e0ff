package stubserver

import (
	"fmt"
	"time"

	"datagpt-client/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxCitations = 3

func (s *Server) handleUpload(c *fiber.Ctx) error {
	if s.failUpload.Load() {
		return c.Status(fiber.StatusInternalServerError).
			JSON(dto.UploadResponse{Success: false, Message: "ingestion unavailable"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(dto.UploadResponse{Success: false, Message: "expected multipart form"})
	}
	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).
			JSON(dto.UploadResponse{Success: false, Message: "no files submitted"})
	}

	s.mu.Lock()
	for _, f := range files {
		s.ingested = append(s.ingested, f.Filename)
	}
	s.mu.Unlock()

	return c.JSON(dto.UploadResponse{Success: true})
}

func (s *Server) handleQuery(c *fiber.Ctx) error {
	if s.failQuery.Load() {
		return fail(c, fiber.StatusServiceUnavailable, "query backend unavailable")
	}

	question := c.Query("question")
	if question == "" {
		var req dto.QueryRequest
		if err := c.BodyParser(&req); err == nil {
			question = req.Question
		}
	}
	if question == "" {
		return fail(c, fiber.StatusBadRequest, "question is required")
	}

	if s.queryDelay != nil {
		// Test hook: lets a test make one in-flight query outlast another.
		delay := s.queryDelay(question)
		if delay > 0 {
			select {
			case <-c.Context().Done():
			case <-time.After(delay):
			}
		}
	}

	s.mu.Lock()
	files := append([]string(nil), s.ingested...)
	s.mu.Unlock()

	sources := make([]dto.SourceDTO, 0, maxCitations)
	for i, file := range files {
		if i == maxCitations {
			break
		}
		sources = append(sources, dto.SourceDTO{
			SourceId: uuid.NewString(),
			Summary:  fmt.Sprintf("Relevant passage from %s", file),
			File:     file,
			Page:     i + 1,
		})
	}

	return c.JSON(dto.QueryResponse{
		Answer:  fmt.Sprintf("Based on the ingested documents, here is what I found for: %s", question),
		Sources: sources,
	})
}
