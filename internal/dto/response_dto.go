package dto

import "encoding/json"

// Envelope is the uniform `{success, data, message}` wrapper the backend puts
// around every workspace/document response. Data stays raw so each gateway
// operation can decode its own payload type.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}
