// Copyright 2026 The ClinicStack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicstack/clinicstack/internal/appointment"
	"github.com/clinicstack/clinicstack/internal/audit"
	"github.com/clinicstack/clinicstack/internal/branch"
	"github.com/clinicstack/clinicstack/internal/cache"
	"github.com/clinicstack/clinicstack/internal/events"
	"github.com/clinicstack/clinicstack/internal/identity"
	"github.com/clinicstack/clinicstack/internal/patient"
	"github.com/clinicstack/clinicstack/internal/tenant"
)

// In-memory repositories with the same contract as the postgres ones: every
// scoped method filters on the scope's tenant, inserts stamp it, and the
// uniqueness constraints fire the domain conflict errors.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]identity.User
}

func (r *fakeUserRepo) Create(ctx context.Context, scope tenant.Scope, u *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.TenantID = scope.TenantID()
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, scope tenant.Scope, username string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TenantID == scope.TenantID() && u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (r *fakeUserRepo) LookupAnyTenant(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	out := u
	return &out, nil
}

type fakePatientRepo struct {
	mu       sync.Mutex
	patients []patient.Patient
}

func (r *fakePatientRepo) Insert(ctx context.Context, scope tenant.Scope, p *patient.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.patients {
		if existing.TenantID == scope.TenantID() && existing.PhoneNumber == p.PhoneNumber {
			return patient.ErrPhoneExists
		}
	}
	p.TenantID = scope.TenantID()
	p.CreatedAt = time.Now().UTC()
	r.patients = append(r.patients, *p)
	return nil
}

func (r *fakePatientRepo) GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.TenantID == scope.TenantID() && p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (r *fakePatientRepo) List(ctx context.Context, scope tenant.Scope, filter patient.ListFilter) ([]patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []patient.Patient{}
	for _, p := range r.patients {
		if p.TenantID != scope.TenantID() {
			continue
		}
		if filter.BranchID != nil && p.BranchID != *filter.BranchID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePatientRepo) PhoneExists(ctx context.Context, scope tenant.Scope, phone string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.TenantID == scope.TenantID() && p.PhoneNumber == phone {
			return true, nil
		}
	}
	return false, nil
}

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments []appointment.Appointment
}

func (r *fakeAppointmentRepo) Insert(ctx context.Context, scope tenant.Scope, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.appointments {
		if existing.TenantID == scope.TenantID() &&
			existing.BranchID == a.BranchID &&
			existing.PatientID == a.PatientID &&
			existing.StartAt.Equal(a.StartAt) {
			return appointment.ErrSlotTaken
		}
	}
	a.TenantID = scope.TenantID()
	a.CreatedAt = time.Now().UTC()
	r.appointments = append(r.appointments, *a)
	return nil
}

func (r *fakeAppointmentRepo) GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.TenantID == scope.TenantID() && a.ID == id {
			out := a
			return &out, nil
		}
	}
	return nil, appointment.ErrAppointmentNotFound
}

func (r *fakeAppointmentRepo) List(ctx context.Context, scope tenant.Scope, filter appointment.ListFilter) ([]appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []appointment.Appointment{}
	for _, a := range r.appointments {
		if a.TenantID != scope.TenantID() {
			continue
		}
		if filter.BranchID != nil && a.BranchID != *filter.BranchID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) SlotExists(ctx context.Context, scope tenant.Scope, branchID, patientID uuid.UUID, startAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.TenantID == scope.TenantID() &&
			a.BranchID == branchID &&
			a.PatientID == patientID &&
			a.StartAt.Equal(startAt) {
			return true, nil
		}
	}
	return false, nil
}

type fakeBranchRepo struct {
	mu       sync.Mutex
	branches []branch.Branch
}

func (r *fakeBranchRepo) Insert(ctx context.Context, scope tenant.Scope, b *branch.Branch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.TenantID = scope.TenantID()
	b.CreatedAt = time.Now().UTC()
	r.branches = append(r.branches, *b)
	return nil
}

func (r *fakeBranchRepo) GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*branch.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.branches {
		if b.TenantID == scope.TenantID() && b.ID == id {
			out := b
			return &out, nil
		}
	}
	return nil, branch.ErrBranchNotFound
}

func (r *fakeBranchRepo) List(ctx context.Context, scope tenant.Scope) ([]branch.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []branch.Branch{}
	for _, b := range r.branches {
		if b.TenantID == scope.TenantID() {
			out = append(out, b)
		}
	}
	return out, nil
}

const testJWTSecret = "test-signing-secret"

// testEnv wires the full router over in-memory repositories. Two tenants are
// seeded, each with an admin, a regular user and a viewer.
type testEnv struct {
	router http.Handler

	tenantA uuid.UUID
	tenantB uuid.UUID

	adminA  uuid.UUID
	userA   uuid.UUID
	viewerA uuid.UUID
	userB   uuid.UUID

	branchA uuid.UUID
	branchB uuid.UUID

	patients *fakePatientRepo
}

func newTestEnv(t *testing.T, cacheStore cache.Store) *testEnv {
	t.Helper()

	env := &testEnv{
		tenantA:  uuid.New(),
		tenantB:  uuid.New(),
		adminA:   uuid.New(),
		userA:    uuid.New(),
		viewerA:  uuid.New(),
		userB:    uuid.New(),
		branchA:  uuid.New(),
		branchB:  uuid.New(),
		patients: &fakePatientRepo{},
	}

	users := &fakeUserRepo{users: map[uuid.UUID]identity.User{
		env.adminA:  {ID: env.adminA, TenantID: env.tenantA, Username: "admin-a", Role: identity.RoleAdmin},
		env.userA:   {ID: env.userA, TenantID: env.tenantA, Username: "user-a", Role: identity.RoleUser},
		env.viewerA: {ID: env.viewerA, TenantID: env.tenantA, Username: "viewer-a", Role: identity.RoleViewer},
		env.userB:   {ID: env.userB, TenantID: env.tenantB, Username: "user-b", Role: identity.RoleUser},
	}}
	branches := &fakeBranchRepo{branches: []branch.Branch{
		{ID: env.branchA, TenantID: env.tenantA, Name: "Downtown"},
		{ID: env.branchB, TenantID: env.tenantB, Name: "Riverside"},
	}}

	auditLogger := audit.NewSlogLogger()
	handler := NewHandler(
		patient.NewService(env.patients, cacheStore, auditLogger),
		appointment.NewService(&fakeAppointmentRepo{}, events.NewSlogPublisher(), auditLogger),
		branch.NewService(branches, cacheStore, auditLogger),
		identity.NewService(users),
		auditLogger,
		AuthConfig{JWTSecret: []byte(testJWTSecret), DevHeaderEnabled: true},
	)
	env.router = NewRouter(handler, NewRateLimiter(1000, 1000))
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, userID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != uuid.Nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func createPatientBody(env *testEnv, phone string) map[string]any {
	return map[string]any{
		"first_name":   "Ada",
		"last_name":    "Nouri",
		"phone_number": phone,
		"branch_id":    env.branchA,
	}
}

// TestPurpose: Validates that one tenant's records are invisible to another:
// the list excludes them and the point lookup cannot distinguish them from
// absent rows.
// Scope: Integration Test
// Security: Multi-tenant boundary enforcement
func TestCrossTenantRecordsInvisible(t *testing.T) {
	env := newTestEnv(t, cache.Disabled{})

	rec := env.do(t, http.MethodPost, "/api/v1/patients", env.userA, createPatientBody(env, "555-0100"))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeInto[patientResponse](t, rec)

	rec = env.do(t, http.MethodGet, "/api/v1/patients", env.userB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeInto[[]patientResponse](t, rec))

	rec = env.do(t, http.MethodGet, "/api/v1/patients/"+created.ID.String(), env.userB, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/patients/"+created.ID.String(), env.userA, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestPurpose: Validates that a tenant_id in the request payload is ignored
// and the record is stamped with the caller's resolved tenant.
// Scope: Integration Test
// Security: Multi-tenant boundary enforcement
func TestPayloadTenantIgnored(t *testing.T) {
	env := newTestEnv(t, cache.Disabled{})

	body := createPatientBody(env, "555-0100")
	body["tenant_id"] = env.tenantB.String()

	rec := env.do(t, http.MethodPost, "/api/v1/patients", env.userA, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeInto[patientResponse](t, rec)

	env.patients.mu.Lock()
	defer env.patients.mu.Unlock()
	require.Len(t, env.patients.patients, 1)
	assert.Equal(t, created.ID, env.patients.patients[0].ID)
	assert.Equal(t, env.tenantA, env.patients.patients[0].TenantID)
}

// TestPurpose: Validates phone uniqueness per tenant: a duplicate within the
// tenant conflicts, the same number under another tenant registers fine.
// Scope: Integration Test
func TestDuplicatePhonePerTenant(t *testing.T) {
	env := newTestEnv(t, cache.Disabled{})

	rec := env.do(t, http.MethodPost, "/api/v1/patients", env.userA, createPatientBody(env, "555-0100"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/patients", env.userA, createPatientBody(env, "555-0100"))
	require.Equal(t, http.StatusConflict, rec.Code)
	errBody := decodeInto[map[string]string](t, rec)
	assert.NotEmpty(t, errBody["error"])

	otherTenant := map[string]any{
		"first_name":   "Bo",
		"last_name":    "Imani",
		"phone_number": "555-0100",
		"branch_id":    env.branchB,
	}
	rec = env.do(t, http.MethodPost, "/api/v1/patients", env.userB, otherTenant)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

// TestPurpose: Validates slot uniqueness on booking: the identical
// (branch, patient, start) conflicts, a shifted start succeeds.
// Scope: Integration Test
func TestDoubleBookingRejected(t *testing.T) {
	env := newTestEnv(t, cache.Disabled{})

	patientID := uuid.New()
	book := func(startAt string) *httptest.ResponseRecorder {
		return env.do(t, http.MethodPost, "/api/v1/appointments", env.userA, map[string]any{
			"branch_id":  env.branchA,
			"patient_id": patientID,
			"start_at":   startAt,
		})
	}

	require.Equal(t, http.StatusCreated, book("2026-09-01T10:00:00Z").Code)
	assert.Equal(t, http.StatusConflict, book("2026-09-01T10:00:00Z").Code)
	assert.Equal(t, http.StatusCreated, book("2026-09-01T10:30:00Z").Code)
}

// TestPurpose: Validates cache coherence: a list, a create and a second list
// against a live cache must reflect the new record immediately.
// Scope: Integration Test
func TestListCacheInvalidatedOnCreate(t *testing.T) {
	store := cache.NewMemory(time.Minute)
	defer store.Stop()
	env := newTestEnv(t, store)

	rec := env.do(t, http.MethodGet, "/api/v1/patients", env.userA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeInto[[]patientResponse](t, rec))

	rec = env.do(t, http.MethodPost, "/api/v1/patients", env.userA, createPatientBody(env, "555-0100"))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeInto[patientResponse](t, rec)

	rec = env.do(t, http.MethodGet, "/api/v1/patients", env.userA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeInto[[]patientResponse](t, rec)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	// The branch-partitioned list is invalidated too.
	rec = env.do(t, http.MethodGet, "/api/v1/patients?branch_id="+env.branchA.String(), env.userA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeInto[[]patientResponse](t, rec), 1)
}

// TestPurpose: Validates cache transparency: the same request sequence gives
// the same results with the cache enabled and disabled.
// Scope: Integration Test
func TestCacheIsTransparent(t *testing.T) {
	store := cache.NewMemory(time.Minute)
	defer store.Stop()

	run := func(env *testEnv) []patientResponse {
		for i := 0; i < 3; i++ {
			rec := env.do(t, http.MethodPost, "/api/v1/patients", env.userA,
				createPatientBody(env, fmt.Sprintf("555-01%02d", i)))
			require.Equal(t, http.StatusCreated, rec.Code)
		}
		rec := env.do(t, http.MethodGet, "/api/v1/patients?sort=createdAt_desc", env.userA, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		return decodeInto[[]patientResponse](t, rec)
	}

	cached := run(newTestEnv(t, store))
	uncached := run(newTestEnv(t, cache.Disabled{}))

	require.Len(t, cached, 3)
	require.Len(t, uncached, 3)
	for i := range cached {
		assert.Equal(t, cached[i].PhoneNumber, uncached[i].PhoneNumber)
	}
	// Descending sort holds in both.
	assert.Equal(t, "555-0102", cached[0].PhoneNumber)
	assert.Equal(t, "555-0102", uncached[0].PhoneNumber)
}

// TestPurpose: Validates that read-only roles cannot create records and
// unauthenticated requests are rejected outright.
// Scope: Integration Test
// Security: Role-based access control
func TestWriteAuthorization(t *testing.T) {
	env := newTestEnv(t, cache.Disabled{})

	rec := env.do(t, http.MethodPost, "/api/v1/patients", env.viewerA, createPatientBody(env, "555-0100"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/patients", env.viewerA, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/patients", uuid.Nil, createPatientBody(env, "555-0100"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/patients", uuid.New(), createPatientBody(env, "555-0100"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestPurpose: Validates that branch creation is admin-only.
// Scope: Integration Test
// Security: Role-based access control
func TestBranchCreationAdminOnly(t *testing.T) {
	env := newTestEnv(t, cache.Disabled{})

	rec := env.do(t, http.MethodPost, "/api/v1/branches", env.userA, map[string]any{"name": "Eastside"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/branches", env.adminA, map[string]any{"name": "Eastside"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/branches", env.adminA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	names := []string{}
	for _, b := range decodeInto[[]branchResponse](t, rec) {
		names = append(names, b.Name)
	}
	assert.Contains(t, names, "Eastside")
	assert.NotContains(t, names, "Riverside")
}

// TestPurpose: Validates that an explicit X-Tenant-Id header takes precedence
// over the identity's tenant claim.
// Scope: Integration Test
func TestTenantOverrideHeaderWins(t *testing.T) {
	env := newTestEnv(t, cache.Disabled{})

	rec := env.do(t, http.MethodPost, "/api/v1/patients", env.userB, map[string]any{
		"first_name":   "Bo",
		"last_name":    "Imani",
		"phone_number": "555-0200",
		"branch_id":    env.branchB,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	req.Header.Set("X-User-ID", env.userA.String())
	req.Header.Set("X-Tenant-Id", env.tenantB.String())
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	listed := decodeInto[[]patientResponse](t, recorder)
	require.Len(t, listed, 1)
	assert.Equal(t, "555-0200", listed[0].PhoneNumber)
}

// TestPurpose: Validates the Bearer token path: a valid HMAC-signed token
// authenticates, a token signed with another key does not.
// Scope: Integration Test
// Security: Authentication boundary
func TestBearerTokenAuthentication(t *testing.T) {
	env := newTestEnv(t, cache.Disabled{})

	sign := func(secret string) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": env.userA.String(),
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		raw, err := token.SignedString([]byte(secret))
		require.NoError(t, err)
		return raw
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	req.Header.Set("Authorization", "Bearer "+sign(testJWTSecret))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	req.Header.Set("Authorization", "Bearer "+sign("wrong-secret"))
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestPurpose: Validates admin-only staff provisioning: the new account
// lands in the admin's tenant and is invisible to other tenants.
// Scope: Integration Test
// Security: Role-based access control
func TestUserProvisioning(t *testing.T) {
	env := newTestEnv(t, cache.Disabled{})

	body := map[string]any{"username": "reception", "role": "viewer"}

	rec := env.do(t, http.MethodPost, "/api/v1/users", env.userA, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/users", env.adminA, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeInto[map[string]any](t, rec)
	assert.Equal(t, "reception", created["username"])

	rec = env.do(t, http.MethodGet, "/api/v1/users/reception", env.adminA, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/users", env.adminA, map[string]any{
		"username": "x", "role": "superuser",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, cache.Disabled{})

	rec := env.do(t, http.MethodGet, "/health", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeInto[map[string]string](t, rec)["status"])
}
