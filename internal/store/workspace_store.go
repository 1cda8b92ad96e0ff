package store

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"datagpt-client/internal/dto"
	"datagpt-client/internal/entity"
	"datagpt-client/internal/gateway"
	"datagpt-client/internal/pkg/logger"
	"datagpt-client/internal/pkg/validate"

	"golang.org/x/sync/errgroup"
)

// documentFetchConcurrency bounds the per-workspace document fan-out during a
// refresh.
const documentFetchConcurrency = 4

// MessageCounter is how the workspace store consults (without owning) the
// conversation log when deriving per-workspace message counts.
type MessageCounter interface {
	MessageCount(workspaceId int64) int
}

// WorkspaceView is one workspace in a snapshot, with its documents and the
// counts derived from them.
type WorkspaceView struct {
	entity.Workspace
	Documents    []entity.Document
	FileCount    int
	MessageCount int
}

// WorkspaceSnapshot is the read-only state handed to the view layer.
type WorkspaceSnapshot struct {
	Workspaces []WorkspaceView
	Selected   *WorkspaceView
	Loading    bool
}

// FileUpload is one file handed to UploadDocument.
type FileUpload struct {
	Name    string
	Purpose string
	Content io.Reader
}

// UploadOutcome reports one file's result from a batch upload.
type UploadOutcome struct {
	Name string
	Err  error
}

// WorkspaceStore owns the canonical workspace and document collections.
// After any mutating call it re-derives its snapshot from a full refresh
// instead of patching local state, so client and server truth cannot drift.
type WorkspaceStore struct {
	notifier

	gw      *gateway.Client
	session *SessionStore
	counter MessageCounter
	log     logger.ILogger

	mu         sync.Mutex
	workspaces []entity.WorkspaceWithDocuments
	selected   *int64
	inflight   int
	refreshSeq uint64
	appliedSeq uint64
	closed     bool
}

// NewWorkspaceStore wires the store. counter may be nil; message counts then
// read as zero.
func NewWorkspaceStore(gw *gateway.Client, session *SessionStore, counter MessageCounter, log logger.ILogger) *WorkspaceStore {
	return &WorkspaceStore{
		gw:      gw,
		session: session,
		counter: counter,
		log:     log,
	}
}

// Snapshot returns a deep copy of the current state with derived counts.
func (s *WorkspaceStore) Snapshot() WorkspaceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := WorkspaceSnapshot{
		Workspaces: make([]WorkspaceView, 0, len(s.workspaces)),
		Loading:    s.inflight > 0,
	}
	for _, ws := range s.workspaces {
		view := WorkspaceView{
			Workspace: ws.Workspace,
			Documents: append([]entity.Document(nil), ws.Documents...),
			FileCount: ws.FileCount(),
		}
		if s.counter != nil && ws.Id != nil {
			view.MessageCount = s.counter.MessageCount(*ws.Id)
		}
		snap.Workspaces = append(snap.Workspaces, view)
		if s.selected != nil && ws.Id != nil && *ws.Id == *s.selected {
			selected := view
			selected.Documents = append([]entity.Document(nil), view.Documents...)
			snap.Selected = &selected
		}
	}
	return snap
}

// RefreshAll fetches every workspace for the session user, then each
// workspace's documents, and merges the results into one consistent snapshot.
// A per-workspace document failure does not abort the refresh; that workspace
// is listed with no documents and the failure is logged. A result is dropped
// if a more recently issued refresh already landed, or the store was closed.
func (s *WorkspaceStore) RefreshAll(ctx context.Context) error {
	sess := s.session.Snapshot()
	if !sess.Authenticated() {
		return &ValidationError{Message: "no authenticated session"}
	}
	userId := sess.User.Id

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &ValidationError{Message: "store is closed"}
	}
	s.refreshSeq++
	seq := s.refreshSeq
	s.inflight++
	s.mu.Unlock()
	s.publish()
	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
		s.publish()
	}()

	payloads, err := s.gw.ListWorkspaces(ctx, sess.Token, userId)
	if err != nil {
		s.log.Error("workspace", "refresh failed", map[string]interface{}{"error": err.Error()})
		return err
	}

	result := make([]entity.WorkspaceWithDocuments, len(payloads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(documentFetchConcurrency)
	for i, p := range payloads {
		i, p := i, p
		result[i] = entity.WorkspaceWithDocuments{Workspace: p.ToEntity(), Documents: []entity.Document{}}
		if p.WsId == nil {
			continue
		}
		g.Go(func() error {
			docs, err := s.gw.ListDocuments(gctx, sess.Token, *p.WsId, userId)
			if err != nil {
				// Listed with an empty document set; not a blocking error.
				s.log.Warn("workspace", "document fetch failed during refresh", map[string]interface{}{
					"ws_id": *p.WsId,
					"error": err.Error(),
				})
				return nil
			}
			ents := make([]entity.Document, 0, len(docs))
			for _, d := range docs {
				ents = append(ents, d.ToEntity())
			}
			result[i].Documents = ents
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	if s.closed || seq <= s.appliedSeq {
		s.mu.Unlock()
		return nil
	}
	s.appliedSeq = seq
	s.workspaces = result
	if s.selected != nil && s.findLocked(*s.selected) == nil {
		s.selected = nil
	}
	s.mu.Unlock()
	s.publish()
	return nil
}

// Create registers a new workspace. A duplicate active name for the same
// user, compared case-insensitively, is refused before any network call.
func (s *WorkspaceStore) Create(ctx context.Context, name string) error {
	if err := s.session.Guard(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Message: "workspace name must not be empty"}
	}
	if s.nameTaken(name, nil) {
		return &ValidationError{Message: "a workspace with this name already exists"}
	}

	sess := s.session.Snapshot()
	if !sess.Authenticated() {
		return &ValidationError{Message: "no authenticated session"}
	}
	payload := dto.WorkspacePayload{WsName: name, UserId: sess.User.Id, IsActive: true}
	if err := validate.Request(payload); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	if _, err := s.gw.CreateWorkspace(ctx, sess.Token, payload); err != nil {
		return err
	}
	s.log.Info("workspace", "workspace created", map[string]interface{}{"name": name})
	return s.RefreshAll(ctx)
}

// Update renames a workspace, with the same duplicate check excluding the
// workspace's own id.
func (s *WorkspaceStore) Update(ctx context.Context, ws entity.Workspace) error {
	if err := s.session.Guard(); err != nil {
		return err
	}
	if ws.Id == nil {
		return &ValidationError{Message: "workspace has no id"}
	}
	ws.Name = strings.TrimSpace(ws.Name)
	if ws.Name == "" {
		return &ValidationError{Message: "workspace name must not be empty"}
	}
	if s.nameTaken(ws.Name, ws.Id) {
		return &ValidationError{Message: "a workspace with this name already exists"}
	}

	sess := s.session.Snapshot()
	if !sess.Authenticated() {
		return &ValidationError{Message: "no authenticated session"}
	}
	if _, err := s.gw.UpdateWorkspace(ctx, sess.Token, dto.WorkspaceToPayload(ws)); err != nil {
		return err
	}
	return s.RefreshAll(ctx)
}

// Delete soft-deletes a workspace. Deleting the selected workspace clears the
// selection; any other deletion leaves it untouched.
func (s *WorkspaceStore) Delete(ctx context.Context, wsId int64) error {
	if err := s.session.Guard(); err != nil {
		return err
	}
	sess := s.session.Snapshot()
	if !sess.Authenticated() {
		return &ValidationError{Message: "no authenticated session"}
	}

	if err := s.gw.DeleteWorkspace(ctx, sess.Token, wsId); err != nil {
		return err
	}

	s.mu.Lock()
	if s.selected != nil && *s.selected == wsId {
		s.selected = nil
	}
	s.mu.Unlock()
	s.publish()

	s.log.Info("workspace", "workspace deleted", map[string]interface{}{"ws_id": wsId})
	return s.RefreshAll(ctx)
}

// Select is a pure local state transition.
func (s *WorkspaceStore) Select(wsId int64) error {
	s.mu.Lock()
	if s.findLocked(wsId) == nil {
		s.mu.Unlock()
		return &ValidationError{Message: "unknown workspace"}
	}
	id := wsId
	s.selected = &id
	s.mu.Unlock()
	s.publish()
	return nil
}

func (s *WorkspaceStore) ClearSelection() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
	s.publish()
}

// UploadDocument registers a PDF against the selected workspace and submits
// it for ingestion. Registration succeeding while ingestion fails is reported
// as a *PartialFailure: the document exists in storage but is not yet
// searchable, and the caller should offer a retry.
func (s *WorkspaceStore) UploadDocument(ctx context.Context, f FileUpload) error {
	err := s.uploadOne(ctx, f)
	if !reachedNetwork(err) {
		return err
	}
	if refreshErr := s.RefreshAll(ctx); refreshErr != nil && err == nil {
		return refreshErr
	}
	return err
}

// UploadDocuments uploads a batch, reporting each file's outcome
// independently, then refreshes once.
func (s *WorkspaceStore) UploadDocuments(ctx context.Context, files []FileUpload) []UploadOutcome {
	outcomes := make([]UploadOutcome, 0, len(files))
	refresh := false
	for _, f := range files {
		err := s.uploadOne(ctx, f)
		refresh = refresh || reachedNetwork(err)
		outcomes = append(outcomes, UploadOutcome{Name: f.Name, Err: err})
	}
	if refresh {
		if err := s.RefreshAll(ctx); err != nil {
			s.log.Error("workspace", "refresh after batch upload failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return outcomes
}

// reachedNetwork reports whether an upload attempt got past its local
// preconditions; only then is there server state worth re-syncing.
func reachedNetwork(err error) bool {
	if err == nil {
		return true
	}
	var validation *ValidationError
	var gate *SubscriptionRequired
	return !errors.As(err, &validation) && !errors.As(err, &gate)
}

func (s *WorkspaceStore) uploadOne(ctx context.Context, f FileUpload) error {
	s.mu.Lock()
	selected := s.selected
	s.mu.Unlock()
	if selected == nil {
		return &ValidationError{Message: "no workspace selected"}
	}
	if err := s.session.Guard(); err != nil {
		return err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
	if ext != "pdf" {
		return &ValidationError{Message: "only PDF files are supported"}
	}
	baseName := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))

	sess := s.session.Snapshot()
	if !sess.Authenticated() {
		return &ValidationError{Message: "no authenticated session"}
	}

	payload := dto.DocumentPayload{
		WsDocName: baseName,
		WsDocExtn: ext,
		WsDocFor:  f.Purpose,
		WsId:      *selected,
		UserId:    sess.User.Id,
		IsActive:  true,
	}
	if err := validate.Request(payload); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	if _, err := s.gw.CreateDocument(ctx, sess.Token, payload); err != nil {
		return err
	}

	results := s.gw.UploadFiles(ctx, []gateway.FileUpload{{Name: f.Name, Content: f.Content}})
	if len(results) == 1 && results[0].Err != nil {
		return &PartialFailure{
			Succeeded: "document stored",
			Failed:    "ingestion",
			Err:       results[0].Err,
		}
	}

	s.log.Info("workspace", "document uploaded", map[string]interface{}{"name": f.Name, "ws_id": *selected})
	return nil
}

// DeleteDocument soft-deletes a document, then refreshes.
func (s *WorkspaceStore) DeleteDocument(ctx context.Context, docId int64) error {
	if err := s.session.Guard(); err != nil {
		return err
	}
	sess := s.session.Snapshot()
	if !sess.Authenticated() {
		return &ValidationError{Message: "no authenticated session"}
	}
	if err := s.gw.DeleteDocument(ctx, sess.Token, docId); err != nil {
		return err
	}
	return s.RefreshAll(ctx)
}

// Close stops the store applying late-arriving refresh results.
func (s *WorkspaceStore) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *WorkspaceStore) nameTaken(name string, excludeId *int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ws := range s.workspaces {
		if !ws.IsActive {
			continue
		}
		if excludeId != nil && ws.Id != nil && *ws.Id == *excludeId {
			continue
		}
		if strings.EqualFold(ws.Name, name) {
			return true
		}
	}
	return false
}

func (s *WorkspaceStore) findLocked(wsId int64) *entity.WorkspaceWithDocuments {
	for i := range s.workspaces {
		if s.workspaces[i].Id != nil && *s.workspaces[i].Id == wsId {
			return &s.workspaces[i]
		}
	}
	return nil
}
