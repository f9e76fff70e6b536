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

// Package events publishes domain events after successful writes. Delivery
// is best-effort: a failed publish is logged and never rolls back the
// already-committed write.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// AppointmentCreated is emitted once an appointment booking has committed.
type AppointmentCreated struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	BranchID      uuid.UUID `json:"branch_id"`
	StartAt       time.Time `json:"start_at"`
}

// Publisher defines the interface for the downstream event bus.
type Publisher interface {
	PublishAppointmentCreated(ctx context.Context, event AppointmentCreated) error
}

// SlogPublisher writes events to the log stream. Used when no broker is
// configured.
type SlogPublisher struct{}

// NewSlogPublisher creates a log-only publisher
func NewSlogPublisher() *SlogPublisher {
	return &SlogPublisher{}
}

func (p *SlogPublisher) PublishAppointmentCreated(ctx context.Context, event AppointmentCreated) error {
	slog.InfoContext(ctx, "DOMAIN_EVENT",
		slog.String("event_type", "appointment_created"),
		slog.String("appointment_id", event.AppointmentID.String()),
		slog.String("tenant_id", event.TenantID.String()),
		slog.String("branch_id", event.BranchID.String()),
		slog.Time("start_at", event.StartAt),
	)
	return nil
}
