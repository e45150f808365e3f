package server

import (
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"vesseladmin/database"
	"vesseladmin/internal/oauth"
	"vesseladmin/internal/utils"
)

// Federated identity assertions reused across OAuth tests.
var (
	federatedProfile = oauth.Profile{Email: "grace@example.com", FirstName: "Grace", LastName: "Hopper"}
	emptyProfile     = oauth.Profile{}
)

// emittedEvent records one fire-and-forget publish observed by the fake
// notifier.
type emittedEvent struct {
	Topic   string
	Payload any
}

// fakeNotifier captures emitted events instead of talking to Kafka.
type fakeNotifier struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (f *fakeNotifier) Emit(topic string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{Topic: topic, Payload: payload})
}

func (f *fakeNotifier) captured() []emittedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]emittedEvent, len(f.events))
	copy(out, f.events)
	return out
}

// testEnv bundles a Server wired to a per-test sqlite database.
type testEnv struct {
	server  *Server
	db      *sql.DB
	tokens  *utils.TokenService
	users   *database.UserStore
	roles   *database.RoleStore
	perms   *database.PermissionStore
	notify  *fakeNotifier
}

// setupTestServer builds a Server against a fresh temp database with the
// reference data seeded.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(t.TempDir(), 1, 1, time.Hour)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})

	if err := database.InitSchema(db); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}

	users := database.NewUserStore(db)
	roles := database.NewRoleStore(db)
	perms := database.NewPermissionStore(db)
	tokens := utils.NewTokenService([]byte("test-secret-key-for-testing"),
		15*time.Minute, 7*24*time.Hour, time.Hour)
	fn := &fakeNotifier{}

	srv := New(users, roles, perms, tokens, nil, fn, "http://localhost:3000")
	return &testEnv{
		server: srv,
		db:     db,
		tokens: tokens,
		users:  users,
		roles:  roles,
		perms:  perms,
		notify: fn,
	}
}
