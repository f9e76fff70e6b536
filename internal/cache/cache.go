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

// Package cache provides the tenant-keyed read-through cache for list
// queries. The cache is an optimization only: every caller must behave
// identically when Get always misses, and values are opaque serialized blobs
// to the backend.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AllPartitions is the discriminator for an unfiltered list query.
const AllPartitions = "all"

// ErrMiss signals that a key is absent or expired.
var ErrMiss = errors.New("cache: key not present")

// Store is the cache boundary: get, set with absolute expiration, and
// delete by key. Deleting a missing key is a no-op, not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ListKey builds the cache key for a tenant-scoped list query. The tenant id
// leads the key, so keys of different tenants can never collide.
func ListKey(tenantID uuid.UUID, kind, partition string) string {
	return fmt.Sprintf("tenant:%s:%s:list:%s", tenantID, kind, partition)
}

// Disabled is a Store that never holds anything. Wiring it in turns the cache
// off without touching any call site.
type Disabled struct{}

func (Disabled) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrMiss
}

func (Disabled) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (Disabled) Delete(ctx context.Context, keys ...string) error {
	return nil
}
