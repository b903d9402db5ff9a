package remote

import (
	"context"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/client/apperr"
	"github.com/dmitrijs2005/afterlog/internal/clockx"
	"github.com/dmitrijs2005/afterlog/internal/common"
	"github.com/dmitrijs2005/afterlog/internal/cryptox"
	"github.com/dmitrijs2005/afterlog/internal/models"
	"github.com/dmitrijs2005/afterlog/internal/rpc"
	"github.com/google/uuid"
)

// ErrOffline is what Memory returns while SetOnline(false) is in effect.
var ErrOffline = apperr.New(apperr.Network, "offline")

type memCollection struct {
	writable map[string]bool
	required []string
	defaults models.Record
}

var memCollections = map[string]memCollection{
	models.CollectionJournal: {
		writable: map[string]bool{models.ColEntryDate: true, models.ColContent: true, models.ColMood: true, models.ColTags: true},
		required: []string{models.ColEntryDate, models.ColContent},
		defaults: models.Record{models.ColMood: nil, models.ColTags: []any{}},
	},
	models.CollectionTodos: {
		writable: map[string]bool{models.ColContent: true, models.ColDueDate: true, models.ColCompleted: true},
		required: []string{models.ColContent},
		defaults: models.Record{models.ColDueDate: nil, models.ColCompleted: false, models.ColDoneAt: nil},
	},
}

type memUser struct {
	id    string
	email string
	hash  string
}

// Memory is an in-process Service with the same scoping and column rules
// as the hosted store. It can be taken offline and told to fail the next
// call of a method, and it counts calls per method (rpc.Method* names).
type Memory struct {
	mu       sync.Mutex
	clock    clockx.Clock
	online   bool
	users    map[string]*memUser
	tokens   map[string]string
	tables   map[string][]models.Record
	lastTS   time.Time
	failures map[string][]error
	calls    map[string]int

	sessions sessionHolder
}

var _ Service = (*Memory)(nil)

func NewMemory(clock clockx.Clock) *Memory {
	if clock == nil {
		clock = clockx.Real{}
	}
	return &Memory{
		clock:    clock,
		online:   true,
		users:    map[string]*memUser{},
		tokens:   map[string]string{},
		tables:   map[string][]models.Record{},
		failures: map[string][]error{},
		calls:    map[string]int{},
	}
}

// SetOnline toggles reachability. Offline, every call fails with ErrOffline.
func (m *Memory) SetOnline(online bool) {
	m.mu.Lock()
	m.online = online
	m.mu.Unlock()
}

// FailNext makes the next call of method return err. Calls queue up.
func (m *Memory) FailNext(method string, err error) {
	m.mu.Lock()
	m.failures[method] = append(m.failures[method], err)
	m.mu.Unlock()
}

// Calls reports how many times method was called.
func (m *Memory) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// Rows returns every stored row of collection, across owners, in insert order.
func (m *Memory) Rows(collection string) []models.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Record, len(m.tables[collection]))
	for i, r := range m.tables[collection] {
		out[i] = r.Clone()
	}
	return out
}

// enter records a call and applies reachability and injected failures.
// The caller holds m.mu.
func (m *Memory) enter(method string) error {
	m.calls[method]++
	if !m.online {
		return ErrOffline
	}
	if q := m.failures[method]; len(q) > 0 {
		err := q[0]
		m.failures[method] = q[1:]
		return mapError(err, false)
	}
	return nil
}

func (m *Memory) userID() (string, error) {
	s := m.sessions.get()
	if s == nil {
		return "", ErrNotSignedIn
	}
	return s.UserID, nil
}

// now returns the store clock, nudged forward so created_at is strictly
// increasing.
func (m *Memory) now() time.Time {
	t := m.clock.Now().UTC().Truncate(time.Microsecond)
	if !t.After(m.lastTS) {
		t = m.lastTS.Add(time.Microsecond)
	}
	m.lastTS = t
	return t
}

func (m *Memory) issue(u *memUser) *Session {
	refresh := uuid.NewString()
	m.tokens[refresh] = u.id
	return &Session{
		AccessToken:  "mem-" + uuid.NewString(),
		RefreshToken: refresh,
		UserID:       u.id,
		Email:        u.email,
		ExpiresAt:    m.clock.Now().Add(time.Hour),
	}
}

func authErr(err error) error {
	return apperr.Wrap(apperr.Auth, err)
}

func (m *Memory) SignUp(ctx context.Context, email, password string) (*Session, error) {
	m.mu.Lock()
	if err := m.enter(rpc.MethodSignUp); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		m.mu.Unlock()
		return nil, validation(common.ErrInvalidEmail)
	}
	if len(password) < common.MinPasswordLength {
		m.mu.Unlock()
		return nil, validation(common.ErrWeakPassword)
	}
	if _, ok := m.users[email]; ok {
		m.mu.Unlock()
		return nil, authErr(common.ErrEmailTaken)
	}
	u := &memUser{id: uuid.NewString(), email: email, hash: cryptox.HashPassword(password)}
	m.users[email] = u
	s := m.issue(u)
	m.mu.Unlock()

	m.sessions.set(s)
	return s, nil
}

func (m *Memory) SignIn(ctx context.Context, email, password string) (*Session, error) {
	m.mu.Lock()
	if err := m.enter(rpc.MethodSignIn); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	u, ok := m.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		m.mu.Unlock()
		return nil, authErr(common.ErrInvalidCredentials)
	}
	if match, err := cryptox.VerifyPassword(u.hash, password); err != nil || !match {
		m.mu.Unlock()
		return nil, authErr(common.ErrInvalidCredentials)
	}
	s := m.issue(u)
	m.mu.Unlock()

	m.sessions.set(s)
	return s, nil
}

func (m *Memory) Resume(ctx context.Context, refreshToken string) (*Session, error) {
	m.mu.Lock()
	if err := m.enter(rpc.MethodRefresh); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	id, ok := m.tokens[refreshToken]
	if !ok {
		m.mu.Unlock()
		return nil, authErr(common.ErrInvalidToken)
	}
	delete(m.tokens, refreshToken)
	var s *Session
	for _, u := range m.users {
		if u.id == id {
			s = m.issue(u)
		}
	}
	m.mu.Unlock()

	if s == nil {
		return nil, authErr(common.ErrInvalidToken)
	}
	m.sessions.set(s)
	return s, nil
}

func (m *Memory) SignOut(ctx context.Context) error {
	s := m.sessions.get()
	if s == nil {
		return nil
	}
	m.sessions.set(nil)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, s.RefreshToken)
	return m.enter(rpc.MethodSignOut)
}

func (m *Memory) CurrentSession() *Session {
	return m.sessions.get()
}

func (m *Memory) Subscribe(fn func(*Session)) func() {
	return m.sessions.subscribe(fn)
}

func (m *Memory) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enter(rpc.MethodPing)
}

func collectionOf(name string) (memCollection, error) {
	c, ok := memCollections[name]
	if !ok {
		return memCollection{}, validation(fmt.Errorf("%w: %s", common.ErrUnknownCollection, name))
	}
	return c, nil
}

// checkWrite normalizes rec and enforces owner and column rules.
func checkWrite(c memCollection, rec models.Record, userID string) (models.Record, error) {
	rec, err := models.Normalize(rec)
	if err != nil {
		return nil, validation(err)
	}
	if owner, ok := rec[models.ColOwnerID]; ok {
		if owner != userID {
			return nil, apperr.Wrap(apperr.Auth, common.ErrorForbidden)
		}
		delete(rec, models.ColOwnerID)
	}
	for k := range rec {
		if !c.writable[k] {
			if _, known := c.defaults[k]; known || k == models.ColID || k == models.ColCreatedAt {
				return nil, validation(fmt.Errorf("%w: %s", common.ErrReadOnlyColumn, k))
			}
			return nil, validation(fmt.Errorf("%w: %s", common.ErrUnknownColumn, k))
		}
	}
	if tags, ok := rec[models.ColTags].([]any); ok && len(tags) > models.MaxTags {
		return nil, validation(fmt.Errorf("%w: more than %d tags", common.ErrInvalidValue, models.MaxTags))
	}
	return rec, nil
}

// stampDone keeps done_at in step with completed.
func stampDone(row models.Record, now time.Time) {
	if _, ok := row[models.ColCompleted]; !ok {
		return
	}
	switch {
	case !row.Bool(models.ColCompleted):
		row[models.ColDoneAt] = nil
	case row[models.ColDoneAt] == nil:
		row[models.ColDoneAt] = models.FormatTime(now)
	}
}

func (m *Memory) Insert(ctx context.Context, collection string, rec models.Record) (models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(rpc.MethodInsert); err != nil {
		return nil, err
	}
	userID, err := m.userID()
	if err != nil {
		return nil, err
	}
	c, err := collectionOf(collection)
	if err != nil {
		return nil, err
	}
	rec, err = checkWrite(c, rec, userID)
	if err != nil {
		return nil, err
	}
	for _, k := range c.required {
		if rec[k] == nil {
			return nil, validation(fmt.Errorf("%w: %s is required", common.ErrInvalidValue, k))
		}
	}

	now := m.now()
	row := c.defaults.Clone()
	for k, v := range rec {
		row[k] = v
	}
	row[models.ColID] = uuid.NewString()
	row[models.ColOwnerID] = userID
	row[models.ColCreatedAt] = models.FormatTime(now)
	if collection == models.CollectionTodos {
		stampDone(row, now)
	}

	m.tables[collection] = append(m.tables[collection], row)
	return row.Clone(), nil
}

func (m *Memory) find(collection, id, userID string) int {
	return slices.IndexFunc(m.tables[collection], func(r models.Record) bool {
		return r.String(models.ColID) == id && r.String(models.ColOwnerID) == userID
	})
}

func (m *Memory) Update(ctx context.Context, collection, id string, patch models.Record) (models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(rpc.MethodUpdate); err != nil {
		return nil, err
	}
	userID, err := m.userID()
	if err != nil {
		return nil, err
	}
	c, err := collectionOf(collection)
	if err != nil {
		return nil, err
	}
	patch, err = checkWrite(c, patch, userID)
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, validation(fmt.Errorf("%w: empty patch", common.ErrInvalidValue))
	}
	for _, k := range c.required {
		if v, ok := patch[k]; ok && v == nil {
			return nil, validation(fmt.Errorf("%w: %s is required", common.ErrInvalidValue, k))
		}
	}

	i := m.find(collection, id, userID)
	if i < 0 {
		return nil, validation(common.ErrorNotFound)
	}
	row := m.tables[collection][i].Clone()
	for k, v := range patch {
		row[k] = v
	}
	if collection == models.CollectionTodos {
		stampDone(row, m.now())
	}
	m.tables[collection][i] = row
	return row.Clone(), nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(rpc.MethodDelete); err != nil {
		return err
	}
	userID, err := m.userID()
	if err != nil {
		return err
	}
	if _, err := collectionOf(collection); err != nil {
		return err
	}
	i := m.find(collection, id, userID)
	if i < 0 {
		return validation(common.ErrorNotFound)
	}
	m.tables[collection] = slices.Delete(m.tables[collection], i, i+1)
	return nil
}

func (m *Memory) Query(ctx context.Context, q models.Query) ([]models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(rpc.MethodQuery); err != nil {
		return nil, err
	}
	userID, err := m.userID()
	if err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, validation(err)
	}
	if _, err := collectionOf(q.Collection); err != nil {
		return nil, err
	}
	q.Filters = slices.Clone(q.Filters)
	for i, f := range q.Filters {
		v, err := models.NormalizeValue(f.Value)
		if err != nil {
			return nil, validation(err)
		}
		if f.Column == models.ColOwnerID && (f.Op != models.OpEq || v != userID) {
			return nil, apperr.Wrap(apperr.Auth, common.ErrorForbidden)
		}
		q.Filters[i].Value = v
	}
	q = q.Where(models.Eq(models.ColOwnerID, userID))

	return q.Apply(m.tables[q.Collection]), nil
}

func (m *Memory) Export(ctx context.Context) (*ExportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(rpc.MethodExport); err != nil {
		return nil, err
	}
	userID, err := m.userID()
	if err != nil {
		return nil, err
	}
	count := func(collection string) int {
		n := 0
		for _, r := range m.tables[collection] {
			if r.String(models.ColOwnerID) == userID {
				n++
			}
		}
		return n
	}
	now := m.clock.Now().UTC()
	key := fmt.Sprintf("exports/%s/%s/%s.json", userID, now.Format("2006/01/02"), uuid.NewString())
	return &ExportResult{
		URL:       "memory://" + key,
		Key:       key,
		Entries:   count(models.CollectionJournal),
		Todos:     count(models.CollectionTodos),
		ExpiresAt: now.Add(15 * time.Minute),
	}, nil
}
