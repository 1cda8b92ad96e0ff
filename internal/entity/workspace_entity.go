package entity

// Workspace is a named container owning a set of documents and one
// conversation log. Id is nil until the server assigns one.
type Workspace struct {
	Id       *int64
	Name     string
	OwnerId  int64
	IsActive bool
}

// WorkspaceWithDocuments enriches a Workspace with its current document set.
// File and message counts are always derived from the owning collections,
// never stored, so they cannot drift.
type WorkspaceWithDocuments struct {
	Workspace
	Documents []Document
}

func (w *WorkspaceWithDocuments) FileCount() int {
	return len(w.Documents)
}
