package gateway

import (
	"context"
	"fmt"
	"net/http"

	"datagpt-client/internal/dto"
)

func (c *Client) ListWorkspaces(ctx context.Context, token string, userId int64) ([]dto.WorkspacePayload, error) {
	var out []dto.WorkspacePayload
	path := fmt.Sprintf("/workspaces?user_id=%d", userId)
	if err := c.doEnvelope(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateWorkspace(ctx context.Context, token string, payload dto.WorkspacePayload) (dto.WorkspacePayload, error) {
	var out dto.WorkspacePayload
	if err := c.doEnvelope(ctx, http.MethodPost, "/workspaces", token, payload, &out); err != nil {
		return dto.WorkspacePayload{}, err
	}
	return out, nil
}

func (c *Client) UpdateWorkspace(ctx context.Context, token string, payload dto.WorkspacePayload) (dto.WorkspacePayload, error) {
	var out dto.WorkspacePayload
	if err := c.doEnvelope(ctx, http.MethodPut, "/workspaces", token, payload, &out); err != nil {
		return dto.WorkspacePayload{}, err
	}
	return out, nil
}

// DeleteWorkspace soft-deletes: the backend flips is_active and keeps the row.
func (c *Client) DeleteWorkspace(ctx context.Context, token string, wsId int64) error {
	req := dto.DeleteWorkspaceRequest{WsId: wsId, IsActive: false}
	return c.doEnvelope(ctx, http.MethodDelete, "/workspaces", token, req, nil)
}
