package entity

// Document is an uploaded PDF registered against a workspace. Path stays empty
// until the storage service assigns a location; Extension is the lowercased
// file suffix and must be "pdf".
type Document struct {
	Id          *int64
	Path        string
	Name        string
	Extension   string
	Purpose     string
	WorkspaceId int64
	OwnerId     int64
	IsActive    bool
}
