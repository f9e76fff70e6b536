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

package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clinicstack/clinicstack/internal/audit"
	"github.com/clinicstack/clinicstack/internal/events"
	"github.com/clinicstack/clinicstack/internal/tenant"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Insert(ctx context.Context, scope tenant.Scope, a *Appointment) error {
	args := m.Called(ctx, scope, a)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*Appointment, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Appointment), args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, scope tenant.Scope, filter ListFilter) ([]Appointment, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Appointment), args.Error(1)
}

func (m *mockRepo) SlotExists(ctx context.Context, scope tenant.Scope, branchID, patientID uuid.UUID, startAt time.Time) (bool, error) {
	args := m.Called(ctx, scope, branchID, patientID, startAt)
	return args.Bool(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishAppointmentCreated(ctx context.Context, event events.AppointmentCreated) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

func newAudit() *mockAudit {
	a := &mockAudit{}
	a.On("Log", mock.Anything, mock.Anything).Return()
	return a
}

func scopeMatcher(tenantID uuid.UUID) any {
	return mock.MatchedBy(func(s tenant.Scope) bool {
		return s.TenantID() == tenantID
	})
}

func TestBook_Success(t *testing.T) {
	repo := new(mockRepo)
	publisher := new(mockPublisher)
	service := NewService(repo, publisher, newAudit())

	tenantID := uuid.New()
	branchID := uuid.New()
	patientID := uuid.New()
	startAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	ctx := tenant.WithClaim(context.Background(), tenantID)

	repo.On("SlotExists", mock.Anything, scopeMatcher(tenantID), branchID, patientID, startAt).Return(false, nil)
	repo.On("Insert", mock.Anything, scopeMatcher(tenantID), mock.AnythingOfType("*appointment.Appointment")).
		Run(func(args mock.Arguments) {
			a := args.Get(2).(*Appointment)
			a.TenantID = args.Get(1).(tenant.Scope).TenantID()
			a.CreatedAt = time.Now()
		}).Return(nil)
	publisher.On("PublishAppointmentCreated", mock.Anything, mock.MatchedBy(func(e events.AppointmentCreated) bool {
		return e.TenantID == tenantID && e.BranchID == branchID && e.StartAt.Equal(startAt)
	})).Return(nil)

	a, err := service.Book(ctx, BookInput{BranchID: branchID, PatientID: patientID, StartAt: startAt})
	require.NoError(t, err)
	assert.Equal(t, tenantID, a.TenantID)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

// TestPurpose: Validates that an unresolved tenant fails the booking before
// any repository or publisher access happens.
// Scope: Unit Test
// Security: Multi-tenant boundary enforcement
func TestBook_RequiresTenant(t *testing.T) {
	repo := new(mockRepo)
	publisher := new(mockPublisher)
	service := NewService(repo, publisher, newAudit())

	_, err := service.Book(context.Background(), BookInput{
		BranchID:  uuid.New(),
		PatientID: uuid.New(),
		StartAt:   time.Now(),
	})
	assert.ErrorIs(t, err, tenant.ErrTenantRequired)
	repo.AssertNotCalled(t, "SlotExists", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "PublishAppointmentCreated", mock.Anything, mock.Anything)
}

func TestBook_PreCheckConflict(t *testing.T) {
	repo := new(mockRepo)
	publisher := new(mockPublisher)
	service := NewService(repo, publisher, newAudit())

	tenantID := uuid.New()
	branchID := uuid.New()
	patientID := uuid.New()
	startAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	ctx := tenant.WithClaim(context.Background(), tenantID)

	repo.On("SlotExists", mock.Anything, scopeMatcher(tenantID), branchID, patientID, startAt).Return(true, nil)

	_, err := service.Book(ctx, BookInput{BranchID: branchID, PatientID: patientID, StartAt: startAt})
	assert.ErrorIs(t, err, ErrSlotTaken)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "PublishAppointmentCreated", mock.Anything, mock.Anything)
}

// TestPurpose: Validates the race window between the pre-check and the
// insert: the constraint violation surfaces as the same conflict outcome.
// Scope: Unit Test
// Security: Uniqueness under concurrency
func TestBook_ConstraintRaceTranslatesToConflict(t *testing.T) {
	repo := new(mockRepo)
	publisher := new(mockPublisher)
	service := NewService(repo, publisher, newAudit())

	tenantID := uuid.New()
	ctx := tenant.WithClaim(context.Background(), tenantID)

	repo.On("SlotExists", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	repo.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(ErrSlotTaken)

	_, err := service.Book(ctx, BookInput{
		BranchID:  uuid.New(),
		PatientID: uuid.New(),
		StartAt:   time.Now(),
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
	publisher.AssertNotCalled(t, "PublishAppointmentCreated", mock.Anything, mock.Anything)
}

// TestPurpose: Validates that a broker outage never undoes a committed
// booking; the event loss is logged, the caller still gets the appointment.
// Scope: Unit Test
func TestBook_PublishFailureDoesNotFailBooking(t *testing.T) {
	repo := new(mockRepo)
	publisher := new(mockPublisher)
	service := NewService(repo, publisher, newAudit())

	tenantID := uuid.New()
	ctx := tenant.WithClaim(context.Background(), tenantID)

	repo.On("SlotExists", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	repo.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	publisher.On("PublishAppointmentCreated", mock.Anything, mock.Anything).Return(errors.New("broker unreachable"))

	a, err := service.Book(ctx, BookInput{
		BranchID:  uuid.New(),
		PatientID: uuid.New(),
		StartAt:   time.Now(),
	})
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestBook_ValidatesInput(t *testing.T) {
	repo := new(mockRepo)
	service := NewService(repo, new(mockPublisher), newAudit())

	tenantID := uuid.New()
	ctx := tenant.WithClaim(context.Background(), tenantID)

	_, err := service.Book(ctx, BookInput{PatientID: uuid.New(), StartAt: time.Now()})
	assert.Error(t, err)

	_, err = service.Book(ctx, BookInput{BranchID: uuid.New(), PatientID: uuid.New()})
	assert.Error(t, err)

	repo.AssertNotCalled(t, "SlotExists", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestList_RequiresTenant(t *testing.T) {
	repo := new(mockRepo)
	service := NewService(repo, new(mockPublisher), newAudit())

	_, err := service.List(context.Background(), ListFilter{})
	assert.ErrorIs(t, err, tenant.ErrTenantRequired)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestList_Scoped(t *testing.T) {
	repo := new(mockRepo)
	service := NewService(repo, new(mockPublisher), newAudit())

	tenantID := uuid.New()
	ctx := tenant.WithClaim(context.Background(), tenantID)

	expected := []Appointment{{ID: uuid.New(), TenantID: tenantID}}
	repo.On("List", mock.Anything, scopeMatcher(tenantID), ListFilter{}).Return(expected, nil)

	appointments, err := service.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, expected, appointments)
}
