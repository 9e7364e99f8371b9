package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/application/transaction"
	"github.com/poinmhs/backend/internal/domain/activity"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/identity"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/domain/student"
)

// MemoryStore is an in-memory implementation of every repository plus a
// transaction.Scope that restores a snapshot when the function fails.
type MemoryStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	students map[uuid.UUID]student.Student
	claims   map[uuid.UUID]claim.Claim
	types    map[uuid.UUID]activity.ActivityType
	users    map[uuid.UUID]identity.User

	// FailAddPoints, when set, is returned by AddPoints
	FailAddPoints error
	// FailClaimSave, when set, is returned by every claim write
	FailClaimSave error
	// Commits counts successful Execute calls
	Commits int
	// Rollbacks counts failed Execute calls
	Rollbacks int
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students: make(map[uuid.UUID]student.Student),
		claims:   make(map[uuid.UUID]claim.Claim),
		types:    make(map[uuid.UUID]activity.ActivityType),
		users:    make(map[uuid.UUID]identity.User),
	}
}

var _ transaction.Scope = (*MemoryStore)(nil)
var _ transaction.Repositories = (*MemoryStore)(nil)

// Execute runs fn and restores the previous state if it returns an error
func (m *MemoryStore) Execute(ctx context.Context, fn func(repos transaction.Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := m.snapshot()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.restore(snap)
		m.Rollbacks++
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.Commits++
	m.mu.Unlock()
	return nil
}

type memorySnapshot struct {
	students map[uuid.UUID]student.Student
	claims   map[uuid.UUID]claim.Claim
	types    map[uuid.UUID]activity.ActivityType
	users    map[uuid.UUID]identity.User
}

func (m *MemoryStore) snapshot() memorySnapshot {
	return memorySnapshot{
		students: copyMap(m.students),
		claims:   copyMap(m.claims),
		types:    copyMap(m.types),
		users:    copyMap(m.users),
	}
}

func (m *MemoryStore) restore(s memorySnapshot) {
	m.students = s.students
	m.claims = s.claims
	m.types = s.types
	m.users = s.users
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Students returns the student repository
func (m *MemoryStore) Students() student.StudentRepository { return (*memStudents)(m) }

// Claims returns the claim repository
func (m *MemoryStore) Claims() claim.ClaimRepository { return (*memClaims)(m) }

// ActivityTypes returns the activity type repository
func (m *MemoryStore) ActivityTypes() activity.ActivityTypeRepository { return (*memTypes)(m) }

// Users returns the user repository
func (m *MemoryStore) Users() identity.UserRepository { return (*memUsers)(m) }

// Student returns the stored student, for assertions
func (m *MemoryStore) Student(id uuid.UUID) (student.Student, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	return s, ok
}

// Claim returns the stored claim, for assertions
func (m *MemoryStore) Claim(id uuid.UUID) (claim.Claim, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	return c, ok
}

// ClaimCount returns the number of stored claims
func (m *MemoryStore) ClaimCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.claims)
}

// UserCount returns the number of stored users
func (m *MemoryStore) UserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func pageOf[T any](items []T, f shared.Filter) []T {
	if f.PageSize <= 0 {
		return items
	}
	start := f.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + f.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// ---------------------------------------------------------------------------
// students
// ---------------------------------------------------------------------------

type memStudents MemoryStore

func (r *memStudents) FindByID(ctx context.Context, id uuid.UUID) (*student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok {
		return nil, shared.NewNotFoundError("student")
	}
	return &s, nil
}

func (r *memStudents) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]student.Student, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.students[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memStudents) FindByNIM(ctx context.Context, nim string) (*student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	nim = student.NormalizeNIM(nim)
	for _, s := range r.students {
		if s.NIM == nim {
			return &s, nil
		}
	}
	return nil, shared.NewNotFoundError("student")
}

func (r *memStudents) matching(f shared.Filter) []student.Student {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]student.Student, 0, len(r.students))
	for _, s := range r.students {
		if q != "" && !strings.Contains(strings.ToLower(s.NIM), q) && !strings.Contains(strings.ToLower(s.Profile.Name), q) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoin != out[j].TotalPoin {
			return out[i].TotalPoin > out[j].TotalPoin
		}
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].NIM < out[j].NIM
	})
	return out
}

func (r *memStudents) FindAll(ctx context.Context, f shared.Filter) ([]student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pageOf(r.matching(f), f), nil
}

func (r *memStudents) Count(ctx context.Context, f shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(f))), nil
}

func (r *memStudents) ExistsByNIM(ctx context.Context, nim string) (bool, error) {
	_, err := r.FindByNIM(ctx, nim)
	return err == nil, nil
}

func (r *memStudents) Save(ctx context.Context, s *student.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.students {
		if id != s.ID && other.NIM == s.NIM {
			return shared.NewDomainError(shared.CodeAlreadyExist, "nim already registered")
		}
	}
	cp := *s
	if existing, ok := r.students[s.ID]; ok {
		cp.TotalPoin = existing.TotalPoin
	}
	cp.ClearDomainEvents()
	r.students[s.ID] = cp
	return nil
}

func (r *memStudents) AddPoints(ctx context.Context, id uuid.UUID, points int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAddPoints != nil {
		return 0, r.FailAddPoints
	}
	s, ok := r.students[id]
	if !ok {
		return 0, shared.NewNotFoundError("student")
	}
	s.TotalPoin += points
	r.students[id] = s
	return s.TotalPoin, nil
}

func (r *memStudents) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[id]; !ok {
		return shared.NewNotFoundError("student")
	}
	delete(r.students, id)
	return nil
}

// ---------------------------------------------------------------------------
// claims
// ---------------------------------------------------------------------------

type memClaims MemoryStore

func (r *memClaims) FindByID(ctx context.Context, id uuid.UUID) (*claim.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[id]
	if !ok {
		return nil, shared.NewNotFoundError("claim")
	}
	return &c, nil
}

func (r *memClaims) matching(f shared.Filter) []claim.Claim {
	out := make([]claim.Claim, 0, len(r.claims))
	for _, c := range r.claims {
		if sid, ok := f.Filters["student_id"].(uuid.UUID); ok && c.StudentID != sid {
			continue
		}
		if st, ok := f.Filters["status"].(claim.Status); ok && c.Status != st {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *memClaims) FindAll(ctx context.Context, f shared.Filter) ([]claim.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pageOf(r.matching(f), f), nil
}

func (r *memClaims) Count(ctx context.Context, f shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(f))), nil
}

func (r *memClaims) FindApprovedByStudent(ctx context.Context, studentID uuid.UUID) ([]claim.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := shared.Filter{Filters: map[string]interface{}{"student_id": studentID, "status": claim.StatusApproved}}
	return r.matching(f), nil
}

func (r *memClaims) ExistsByDuplicateKey(ctx context.Context, key claim.DuplicateKey) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.claims {
		if c.DuplicateKey() == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *memClaims) CountByActivityType(ctx context.Context, activityTypeID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.claims {
		if c.ActivityTypeID == activityTypeID {
			n++
		}
	}
	return n, nil
}

func (r *memClaims) SumApprovedPoints(ctx context.Context, studentID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, c := range r.claims {
		if c.StudentID == studentID && c.Status == claim.StatusApproved {
			sum += c.Points
		}
	}
	return sum, nil
}

func (r *memClaims) EvidenceFileIDsByStudent(ctx context.Context, studentID uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, c := range r.claims {
		if c.StudentID == studentID && c.EvidenceFileID != "" {
			ids = append(ids, c.EvidenceFileID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memClaims) Create(ctx context.Context, c *claim.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailClaimSave != nil {
		return r.FailClaimSave
	}
	if _, ok := r.claims[c.ID]; ok {
		return shared.NewDomainError(shared.CodeAlreadyExist, "claim already exists")
	}
	cp := *c
	cp.ClearDomainEvents()
	r.claims[c.ID] = cp
	return nil
}

func (r *memClaims) UpdateIfStatus(ctx context.Context, c *claim.Claim, from claim.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailClaimSave != nil {
		return r.FailClaimSave
	}
	stored, ok := r.claims[c.ID]
	if !ok {
		return shared.NewNotFoundError("claim")
	}
	if stored.Status != from {
		return shared.NewInvalidStateError("claim status changed concurrently")
	}
	cp := *c
	cp.Points = stored.Points
	cp.ClearDomainEvents()
	r.claims[c.ID] = cp
	return nil
}

func (r *memClaims) TransitionStatus(ctx context.Context, c *claim.Claim, from claim.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailClaimSave != nil {
		return r.FailClaimSave
	}
	stored, ok := r.claims[c.ID]
	if !ok {
		return shared.NewNotFoundError("claim")
	}
	if stored.Status != from {
		return shared.NewInvalidStateError("claim status changed concurrently")
	}
	stored.Status = c.Status
	stored.Note = c.Note
	stored.UpdatedAt = c.UpdatedAt
	r.claims[c.ID] = stored
	return nil
}

func (r *memClaims) DeleteIfStatus(ctx context.Context, id uuid.UUID, status claim.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.claims[id]
	if !ok {
		return shared.NewNotFoundError("claim")
	}
	if stored.Status != status {
		return shared.NewInvalidStateError("claim status changed concurrently")
	}
	delete(r.claims, id)
	return nil
}

func (r *memClaims) DeleteByStudent(ctx context.Context, studentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.claims {
		if c.StudentID == studentID {
			delete(r.claims, id)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// activity types
// ---------------------------------------------------------------------------

type memTypes MemoryStore

func (r *memTypes) FindByID(ctx context.Context, id uuid.UUID) (*activity.ActivityType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.types[id]
	if !ok {
		return nil, shared.NewNotFoundError("activity type")
	}
	return &a, nil
}

func (r *memTypes) FindByCode(ctx context.Context, code string) (*activity.ActivityType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code = activity.NormalizeCode(code)
	for _, a := range r.types {
		if a.Code == code {
			return &a, nil
		}
	}
	return nil, shared.NewNotFoundError("activity type")
}

func (r *memTypes) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]activity.ActivityType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]activity.ActivityType, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.types[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memTypes) matching(f shared.Filter) []activity.ActivityType {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]activity.ActivityType, 0, len(r.types))
	for _, a := range r.types {
		if q != "" && !strings.Contains(strings.ToLower(a.Code), q) && !strings.Contains(strings.ToLower(a.Category), q) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (r *memTypes) FindAll(ctx context.Context, f shared.Filter) ([]activity.ActivityType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pageOf(r.matching(f), f), nil
}

func (r *memTypes) Count(ctx context.Context, f shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(f))), nil
}

func (r *memTypes) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.FindByCode(ctx, code)
	return err == nil, nil
}

func (r *memTypes) Save(ctx context.Context, a *activity.ActivityType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.types {
		if id != a.ID && other.Code == a.Code {
			return shared.NewDomainError(shared.CodeAlreadyExist, "kode_keg already exists")
		}
	}
	cp := *a
	cp.ClearDomainEvents()
	r.types[a.ID] = cp
	return nil
}

func (r *memTypes) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[id]; !ok {
		return shared.NewNotFoundError("activity type")
	}
	delete(r.types, id)
	return nil
}

// ---------------------------------------------------------------------------
// users
// ---------------------------------------------------------------------------

type memUsers MemoryStore

func (r *memUsers) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, shared.NewNotFoundError("user")
	}
	return &u, nil
}

func (r *memUsers) FindByIdentifier(ctx context.Context, identifier string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identifier = identity.NormalizeIdentifier(identifier)
	for _, u := range r.users {
		if u.Identifier == identifier {
			return &u, nil
		}
	}
	return nil, shared.NewNotFoundError("user")
}

func (r *memUsers) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	_, err := r.FindByIdentifier(ctx, identifier)
	return err == nil, nil
}

func (r *memUsers) Save(ctx context.Context, u *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.users {
		if id != u.ID && other.Identifier == u.Identifier {
			return shared.NewDomainError(shared.CodeAlreadyExist, "identifier already registered")
		}
	}
	cp := *u
	cp.ClearDomainEvents()
	r.users[u.ID] = cp
	return nil
}

func (r *memUsers) DeleteByStudent(ctx context.Context, studentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.StudentID != nil && *u.StudentID == studentID {
			delete(r.users, id)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// seeding
// ---------------------------------------------------------------------------

// SeedStudent stores a student with the given NIM and returns it
func (m *MemoryStore) SeedStudent(nim, name string) *student.Student {
	s, err := student.NewStudent(nim, student.Profile{Name: name})
	if err != nil {
		panic(err)
	}
	if err := m.Students().Save(context.Background(), s); err != nil {
		panic(err)
	}
	s.ClearDomainEvents()
	return s
}

// SeedActivityType stores a catalog entry and returns it
func (m *MemoryStore) SeedActivityType(code, category string, weight int) *activity.ActivityType {
	a, err := activity.NewActivityType(code, category, "", weight)
	if err != nil {
		panic(err)
	}
	if err := m.ActivityTypes().Save(context.Background(), a); err != nil {
		panic(err)
	}
	return a
}

// SeedClaim stores a claim as-is, including its status
func (m *MemoryStore) SeedClaim(c *claim.Claim) *claim.Claim {
	if err := m.Claims().Create(context.Background(), c); err != nil {
		panic(err)
	}
	c.ClearDomainEvents()
	return c
}

// SeedUser stores a credential
func (m *MemoryStore) SeedUser(u *identity.User) *identity.User {
	if err := m.Users().Save(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}
