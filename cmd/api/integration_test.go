//go:build integration
// +build integration

package main

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventmaster-api/internal/config"
	"github.com/gravadigital/eventmaster-api/internal/domain/common"
	"github.com/gravadigital/eventmaster-api/internal/domain/event"
	"github.com/gravadigital/eventmaster-api/internal/domain/guest"
	"github.com/gravadigital/eventmaster-api/internal/domain/registry"
	"github.com/gravadigital/eventmaster-api/internal/services"
	"github.com/gravadigital/eventmaster-api/internal/storage/postgres"
	"github.com/gravadigital/eventmaster-api/internal/ticket"
)

// Integration tests that require a real PostgreSQL database
// Run with: go test -tags=integration

func testContainer(t *testing.T) *postgres.Container {
	t.Helper()
	cfg := config.Load()
	if testDB := os.Getenv("TEST_DB_NAME"); testDB != "" {
		cfg.DB.Name = testDB
	}

	db, err := postgres.Connect(cfg)
	require.NoError(t, err, "Should be able to connect to test database")
	require.NoError(t, postgres.AutoMigrate(db), "Should be able to run migrations")

	c := postgres.NewContainerWithDB(db)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDatabaseConnection(t *testing.T) {
	c := testContainer(t)
	assert.NoError(t, c.Health(), "Should be able to ping the database")
}

func TestConcurrentCheckInAdmitsOnce(t *testing.T) {
	c := testContainer(t)
	ctx := context.Background()

	e := event.NewEvent("Integration Gala", time.Now().Add(24*time.Hour), "Main Hall", "", "")
	require.NoError(t, c.Events().Save(ctx, e))
	t.Cleanup(func() {
		_, _ = c.Guests().DeleteByEvent(ctx, e.ID)
		_ = c.Events().Delete(ctx, e.ID)
	})

	g := guest.NewGuest(e.ID, nil, guest.Identity{Name: "Door Test"})
	g.QRCodeData = ticket.Encode(e.ID, g.ID)
	require.NoError(t, c.Guests().Create(ctx, g))

	const scanners = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Guests().CheckIn(ctx, g.ID, time.Now(), guest.MethodQR, "scanner")
			mu.Lock()
			defer mu.Unlock()
			var already *common.AlreadyCheckedInError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &already):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, scanners-1, rejected)
}

func TestEventDeleteRequiresGuestsRemoved(t *testing.T) {
	c := testContainer(t)
	ctx := context.Background()

	e := event.NewEvent("Cascade", time.Now(), "Annex", "", "")
	require.NoError(t, c.Events().Save(ctx, e))

	nationalID := strconv.FormatInt(time.Now().UnixNano(), 10)
	memberID, err := c.Registry().UpsertByNaturalKey(ctx, registry.NewMember("Linked", nationalID, "", ""))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Registry().Delete(ctx, memberID) })

	g := guest.NewGuest(e.ID, &memberID, guest.Identity{Name: "Linked", NationalID: nationalID})
	g.QRCodeData = ticket.Encode(e.ID, g.ID)
	require.NoError(t, c.Guests().Create(ctx, g))

	require.NoError(t, services.NewEventService(c, nil, nil).Delete(ctx, e.ID))

	_, err = c.Guests().GetByID(ctx, g.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = c.Events().GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	member, err := c.Registry().GetByID(ctx, memberID)
	require.NoError(t, err)
	assert.Equal(t, nationalID, member.NationalID)
}
