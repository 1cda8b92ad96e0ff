package stubserver

import (
	"fmt"
	"sort"
	"time"

	"datagpt-client/internal/dto"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleListWorkspaces(c *fiber.Ctx) error {
	if s.listDelay != nil {
		s.mu.Lock()
		s.listCalls++
		call := s.listCalls
		s.mu.Unlock()
		if delay := s.listDelay(call); delay > 0 {
			select {
			case <-c.Context().Done():
			case <-time.After(delay):
			}
		}
	}

	userId := int64(c.QueryInt("user_id"))

	s.mu.Lock()
	out := make([]dto.WorkspacePayload, 0)
	for _, w := range s.workspaces {
		if !w.isActive {
			continue
		}
		if userId != 0 && w.userId != userId {
			continue
		}
		out = append(out, envelopeWorkspace(w))
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return *out[i].WsId < *out[j].WsId })
	return ok(c, "workspaces listed", out)
}

func (s *Server) handleCreateWorkspace(c *fiber.Ctx) error {
	var req dto.WorkspacePayload
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	if req.WsName == "" || req.UserId == 0 {
		return fail(c, fiber.StatusBadRequest, "ws_name and user_id are required")
	}

	s.mu.Lock()
	s.nextWsId++
	rec := &wsRecord{id: s.nextWsId, name: req.WsName, userId: req.UserId, isActive: true}
	s.workspaces[rec.id] = rec
	s.mu.Unlock()

	return ok(c, "workspace created", envelopeWorkspace(rec))
}

func (s *Server) handleUpdateWorkspace(c *fiber.Ctx) error {
	var req dto.WorkspacePayload
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	if req.WsId == nil {
		return fail(c, fiber.StatusBadRequest, "ws_id is required")
	}

	s.mu.Lock()
	rec, found := s.workspaces[*req.WsId]
	if found {
		rec.name = req.WsName
		rec.isActive = req.IsActive
	}
	s.mu.Unlock()
	if !found {
		return fail(c, fiber.StatusNotFound, fmt.Sprintf("workspace %d not found", *req.WsId))
	}
	return ok(c, "workspace updated", envelopeWorkspace(rec))
}

func (s *Server) handleDeleteWorkspace(c *fiber.Ctx) error {
	var req dto.DeleteWorkspaceRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}

	s.mu.Lock()
	rec, found := s.workspaces[req.WsId]
	if found {
		rec.isActive = false
	}
	s.mu.Unlock()
	if !found {
		return fail(c, fiber.StatusNotFound, fmt.Sprintf("workspace %d not found", req.WsId))
	}
	return ok(c, "workspace deleted", nil)
}

func (s *Server) handleListDocuments(c *fiber.Ctx) error {
	wsId := int64(c.QueryInt("ws_id"))
	userId := int64(c.QueryInt("user_id"))

	s.mu.Lock()
	out := make([]dto.DocumentPayload, 0)
	for _, d := range s.documents {
		if !d.isActive {
			continue
		}
		if wsId != 0 && d.wsId != wsId {
			continue
		}
		if userId != 0 && d.userId != userId {
			continue
		}
		out = append(out, envelopeDocument(d))
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return *out[i].WsDocId < *out[j].WsDocId })
	return ok(c, "documents listed", out)
}

func (s *Server) handleCreateDocument(c *fiber.Ctx) error {
	var req dto.DocumentPayload
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	if req.WsDocName == "" || req.WsId == 0 {
		return fail(c, fiber.StatusBadRequest, "ws_doc_name and ws_id are required")
	}

	s.mu.Lock()
	s.nextDocId++
	rec := &docRecord{
		id:       s.nextDocId,
		path:     fmt.Sprintf("/storage/ws-%d/%s.%s", req.WsId, req.WsDocName, req.WsDocExtn),
		name:     req.WsDocName,
		extn:     req.WsDocExtn,
		purpose:  req.WsDocFor,
		wsId:     req.WsId,
		userId:   req.UserId,
		isActive: true,
	}
	s.documents[rec.id] = rec
	s.mu.Unlock()

	return ok(c, "document created", envelopeDocument(rec))
}

func (s *Server) handleDeleteDocument(c *fiber.Ctx) error {
	var req dto.DeleteDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}

	s.mu.Lock()
	rec, found := s.documents[req.WsDocId]
	if found {
		rec.isActive = false
	}
	s.mu.Unlock()
	if !found {
		return fail(c, fiber.StatusNotFound, fmt.Sprintf("document %d not found", req.WsDocId))
	}
	return ok(c, "document deleted", nil)
}
