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

// Command seed bootstraps a tenant with one branch and one admin account.
// Everything after this first record goes through the API; only the very
// first tenant has to be created out of band, since every scoped write
// requires an already-resolved tenant.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/clinicstack/clinicstack/internal/branch"
	"github.com/clinicstack/clinicstack/internal/config"
	"github.com/clinicstack/clinicstack/internal/identity"
	"github.com/clinicstack/clinicstack/internal/store/postgres"
	"github.com/clinicstack/clinicstack/internal/tenant"
)

func main() {
	tenantName := flag.String("tenant", "", "name of the tenant to create")
	branchName := flag.String("branch", "Main", "name of the first branch")
	adminName := flag.String("admin", "admin", "username of the admin account")
	flag.Parse()

	if *tenantName == "" {
		log.Fatal("-tenant is required")
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	tenantRepo := postgres.NewTenantRepository(db)
	branchRepo := postgres.NewBranchRepository(db)
	userRepo := postgres.NewUserRepository(db)

	t := &tenant.Tenant{ID: uuid.New(), Name: *tenantName}
	if err := tenantRepo.Create(ctx, t); err != nil {
		log.Fatalf("Failed to create tenant: %v", err)
	}

	scope, err := tenant.ScopeForTenant(t.ID)
	if err != nil {
		log.Fatalf("Failed to scope tenant: %v", err)
	}

	b := &branch.Branch{ID: uuid.New(), Name: *branchName}
	if err := branchRepo.Insert(ctx, scope, b); err != nil {
		log.Fatalf("Failed to create branch: %v", err)
	}

	admin := &identity.User{
		ID:       uuid.New(),
		Username: *adminName,
		Role:     identity.RoleAdmin,
	}
	if err := userRepo.Create(ctx, scope, admin); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	fmt.Printf("tenant:  %s (%s)\n", t.Name, t.ID)
	fmt.Printf("branch:  %s (%s)\n", b.Name, b.ID)
	fmt.Printf("admin:   %s (%s)\n", admin.Username, admin.ID)
}
