package gateway

import (
	"context"
	"fmt"
	"net/http"

	"datagpt-client/internal/dto"
)

func (c *Client) ListDocuments(ctx context.Context, token string, wsId, userId int64) ([]dto.DocumentPayload, error) {
	var out []dto.DocumentPayload
	path := fmt.Sprintf("/ws-docs?ws_id=%d&user_id=%d", wsId, userId)
	if err := c.doEnvelope(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateDocument(ctx context.Context, token string, payload dto.DocumentPayload) (dto.DocumentPayload, error) {
	var out dto.DocumentPayload
	if err := c.doEnvelope(ctx, http.MethodPost, "/ws-docs", token, payload, &out); err != nil {
		return dto.DocumentPayload{}, err
	}
	return out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, token string, docId int64) error {
	req := dto.DeleteDocumentRequest{WsDocId: docId, IsActive: false}
	return c.doEnvelope(ctx, http.MethodDelete, "/ws-docs", token, req, nil)
}
