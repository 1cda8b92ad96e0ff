// Package stubserver is an in-memory stand-in for the DataGPT backend and LLM
// gateway, used by the integration tests and the CLI's local mode. Everything
// the reference behavior "mocked" inline (canned answers, always-valid
// subscriptions) lives here and only here; production gateway code never
// fabricates a response.
package stubserver

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"datagpt-client/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
)

type SeedUser struct {
	Email    string
	Password string
	Name     string
	AppValid bool
	Expiry   time.Time
}

type Options struct {
	JwtSecret string
	Users     []SeedUser
	// QueryDelay, when set, stalls each /query by a per-question duration so
	// tests can reorder network latencies.
	QueryDelay func(question string) time.Duration
	// ListDelay does the same for GET /workspaces, keyed by call ordinal
	// (1-based), so tests can make an earlier refresh outlast a later one.
	ListDelay func(call int) time.Duration
}

type stubUser struct {
	id           int64
	email        string
	name         string
	passwordHash []byte
	appValid     bool
	expiry       time.Time
}

type wsRecord struct {
	id       int64
	name     string
	userId   int64
	isActive bool
}

type docRecord struct {
	id       int64
	path     string
	name     string
	extn     string
	purpose  string
	wsId     int64
	userId   int64
	isActive bool
}

type Server struct {
	app    *fiber.App
	secret []byte

	mu         sync.Mutex
	users      map[string]*stubUser
	workspaces map[int64]*wsRecord
	documents  map[int64]*docRecord
	ingested   []string
	nextUserId int64
	nextWsId   int64
	nextDocId  int64
	counts     map[string]int

	sessions   *cache.Cache
	queryDelay func(string) time.Duration
	listDelay  func(int) time.Duration
	listCalls  int

	failSubscription atomic.Bool
	failQuery        atomic.Bool
	failUpload       atomic.Bool

	ln net.Listener
}

func New(opts Options) *Server {
	if opts.JwtSecret == "" {
		opts.JwtSecret = "stub-secret"
	}
	s := &Server{
		app:        fiber.New(fiber.Config{DisableStartupMessage: true, BodyLimit: 20 * 1024 * 1024}),
		secret:     []byte(opts.JwtSecret),
		users:      make(map[string]*stubUser),
		workspaces: make(map[int64]*wsRecord),
		documents:  make(map[int64]*docRecord),
		counts:     make(map[string]int),
		sessions:   cache.New(24*time.Hour, 10*time.Minute),
		queryDelay: opts.QueryDelay,
		listDelay:  opts.ListDelay,
	}
	for _, u := range opts.Users {
		s.seedUser(u)
	}

	s.app.Use(func(c *fiber.Ctx) error {
		s.mu.Lock()
		s.counts[c.Method()+" "+c.Path()]++
		s.mu.Unlock()
		return c.Next()
	})

	api := s.app.Group("/api/v1")
	api.Post("/auth/signin", s.handleSignIn)
	api.Get("/auth/subscription", s.handleSubscription)
	api.Get("/workspaces", s.handleListWorkspaces)
	api.Post("/workspaces", s.handleCreateWorkspace)
	api.Put("/workspaces", s.handleUpdateWorkspace)
	api.Delete("/workspaces", s.handleDeleteWorkspace)
	api.Get("/ws-docs", s.handleListDocuments)
	api.Post("/ws-docs", s.handleCreateDocument)
	api.Delete("/ws-docs", s.handleDeleteDocument)

	llm := s.app.Group("/llm")
	llm.Post("/upload", s.handleUpload)
	llm.Get("/query", s.handleQuery)
	llm.Post("/query", s.handleQuery)

	return s
}

func (s *Server) seedUser(u SeedUser) {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("stubserver: seed user %s: %v", u.Email, err))
	}
	s.nextUserId++
	s.users[u.Email] = &stubUser{
		id:           s.nextUserId,
		email:        u.Email,
		name:         u.Name,
		passwordHash: hash,
		appValid:     u.AppValid,
		expiry:       u.Expiry,
	}
}

// Start listens on an ephemeral loopback port and returns the base URL.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	s.ln = ln
	go func() {
		_ = s.app.Listener(ln)
	}()
	return "http://" + ln.Addr().String(), nil
}

// Listen serves on a fixed address (cmd/stub).
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// HandledCount reports how many requests hit method+path (query string
// excluded). Tests use it to prove an operation never reached the network.
func (s *Server) HandledCount(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[method+" "+path]
}

// IngestedFiles lists the file names accepted by /upload, in order.
func (s *Server) IngestedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ingested...)
}

// Failure knobs for tests.

func (s *Server) SetFailSubscription(v bool) { s.failSubscription.Store(v) }
func (s *Server) SetFailQuery(v bool)        { s.failQuery.Store(v) }
func (s *Server) SetFailUpload(v bool)       { s.failUpload.Store(v) }

func ok(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "message": message, "data": data})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

func envelopeWorkspace(w *wsRecord) dto.WorkspacePayload {
	id := w.id
	return dto.WorkspacePayload{WsId: &id, WsName: w.name, UserId: w.userId, IsActive: w.isActive}
}

func envelopeDocument(d *docRecord) dto.DocumentPayload {
	id := d.id
	return dto.DocumentPayload{
		WsDocId:   &id,
		WsDocPath: d.path,
		WsDocName: d.name,
		WsDocExtn: d.extn,
		WsDocFor:  d.purpose,
		WsId:      d.wsId,
		UserId:    d.userId,
		IsActive:  d.isActive,
	}
}
