package dto

type QueryRequest struct {
	Question string `json:"question" validate:"required"`
}

type SourceDTO struct {
	SourceId string `json:"source_id"`
	Summary  string `json:"summary"`
	File     string `json:"file"`
	Page     int    `json:"page"`
}

type QueryResponse struct {
	Answer  string      `json:"answer"`
	Sources []SourceDTO `json:"sources"`
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
