package dto

import "datagpt-client/internal/entity"

type WorkspacePayload struct {
	WsId     *int64 `json:"ws_id,omitempty"`
	WsName   string `json:"ws_name" validate:"required,max=120"`
	UserId   int64  `json:"user_id" validate:"required"`
	IsActive bool   `json:"is_active"`
}

type DeleteWorkspaceRequest struct {
	WsId     int64 `json:"ws_id" validate:"required"`
	IsActive bool  `json:"is_active"`
}

func (p WorkspacePayload) ToEntity() entity.Workspace {
	return entity.Workspace{
		Id:       p.WsId,
		Name:     p.WsName,
		OwnerId:  p.UserId,
		IsActive: p.IsActive,
	}
}

func WorkspaceToPayload(w entity.Workspace) WorkspacePayload {
	return WorkspacePayload{
		WsId:     w.Id,
		WsName:   w.Name,
		UserId:   w.OwnerId,
		IsActive: w.IsActive,
	}
}
