package dto

import "datagpt-client/internal/entity"

type DocumentPayload struct {
	WsDocId   *int64 `json:"ws_doc_id,omitempty"`
	WsDocPath string `json:"ws_doc_path"`
	WsDocName string `json:"ws_doc_name" validate:"required"`
	WsDocExtn string `json:"ws_doc_extn" validate:"required"`
	WsDocFor  string `json:"ws_doc_for"`
	WsId      int64  `json:"ws_id" validate:"required"`
	UserId    int64  `json:"user_id" validate:"required"`
	IsActive  bool   `json:"is_active"`
}

type DeleteDocumentRequest struct {
	WsDocId  int64 `json:"ws_doc_id" validate:"required"`
	IsActive bool  `json:"is_active"`
}

func (p DocumentPayload) ToEntity() entity.Document {
	return entity.Document{
		Id:          p.WsDocId,
		Path:        p.WsDocPath,
		Name:        p.WsDocName,
		Extension:   p.WsDocExtn,
		Purpose:     p.WsDocFor,
		WorkspaceId: p.WsId,
		OwnerId:     p.UserId,
		IsActive:    p.IsActive,
	}
}

func DocumentToPayload(d entity.Document) DocumentPayload {
	return DocumentPayload{
		WsDocId:   d.Id,
		WsDocPath: d.Path,
		WsDocName: d.Name,
		WsDocExtn: d.Extension,
		WsDocFor:  d.Purpose,
		WsId:      d.WorkspaceId,
		UserId:    d.OwnerId,
		IsActive:  d.IsActive,
	}
}
