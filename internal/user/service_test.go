package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damwatch/taskdesk/internal/activity"
	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/lifecycle/lifecycletest"
	"github.com/damwatch/taskdesk/internal/user"
	"github.com/damwatch/taskdesk/internal/user/repositoryimpl"
	"github.com/damwatch/taskdesk/pkg/cerr"
)

func newService(t *testing.T) (*user.Service, *lifecycletest.Harness) {
	t.Helper()
	h := lifecycletest.New(t)
	return user.NewService(repositoryimpl.NewYAMLRepository(h.Store), h.Engine), h
}

func strPtr(s string) *string { return &s }

func TestService_Bootstrap(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	admin, created, err := svc.Bootstrap(ctx, "admin", "Administrator")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, user.RoleAdmin, admin.Role)
	assert.Equal(t, int64(1), admin.Version)

	again, created, err := svc.Bootstrap(ctx, "admin", "Administrator")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)
}

func TestService_CreateRequiresAdminAndUniqueUsername(t *testing.T) {
	svc, h := newService(t)
	ctx := context.Background()
	admin, _, err := svc.Bootstrap(ctx, "admin", "Administrator")
	require.NoError(t, err)
	adminActor, err := svc.Lookup(ctx, admin.ID)
	require.NoError(t, err)

	budi, err := svc.Create(ctx, adminActor, user.CreateInput{Username: "budi", Name: "Budi", Role: user.RoleUser, Department: "Hidrologi"})
	require.NoError(t, err)
	assert.True(t, budi.IsActive)
	assert.Equal(t, user.WorkStatusAvailable, budi.WorkStatus)

	_, err = svc.Create(ctx, adminActor, user.CreateInput{Username: "BUDI", Name: "Other", Role: user.RoleUser})
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))

	budiActor, err := svc.Lookup(ctx, budi.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, budiActor, user.CreateInput{Username: "sari", Name: "Sari", Role: user.RoleUser})
	assert.ErrorIs(t, err, lifecycle.ErrPermissionDenied)

	_, err = svc.Create(ctx, adminActor, user.CreateInput{Username: "x", Role: user.RoleUser})
	assert.ErrorIs(t, err, lifecycle.ErrEmptyRequiredField)

	entries := h.ActivityFor(t, budi.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, activity.TypeUser, entries[0].Type)
	assert.Equal(t, activity.ActionCreated, entries[0].Action)
	assert.Equal(t, adminActor.ID, entries[0].UserID)
}

func TestService_UpdateSelfAndAdmin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	admin, _, err := svc.Bootstrap(ctx, "admin", "Administrator")
	require.NoError(t, err)
	adminActor, _ := svc.Lookup(ctx, admin.ID)
	budi, err := svc.Create(ctx, adminActor, user.CreateInput{Username: "budi", Name: "Budi", Role: user.RoleUser})
	require.NoError(t, err)
	sari, err := svc.Create(ctx, adminActor, user.CreateInput{Username: "sari", Name: "Sari", Role: user.RoleUser})
	require.NoError(t, err)
	budiActor, _ := svc.Lookup(ctx, budi.ID)

	fieldDuty := user.WorkStatusFieldDuty
	updated, err := svc.Update(ctx, budiActor, budi.ID, user.UpdateInput{Position: strPtr("Teknisi"), WorkStatus: &fieldDuty})
	require.NoError(t, err)
	assert.Equal(t, "Teknisi", updated.Position)
	assert.Equal(t, user.WorkStatusFieldDuty, updated.WorkStatus)
	assert.Equal(t, int64(2), updated.Version)

	admin2 := user.RoleAdmin
	_, err = svc.Update(ctx, budiActor, budi.ID, user.UpdateInput{Role: &admin2})
	assert.ErrorIs(t, err, lifecycle.ErrPermissionDenied)

	_, err = svc.Update(ctx, budiActor, sari.ID, user.UpdateInput{Name: strPtr("Sari W")})
	assert.ErrorIs(t, err, lifecycle.ErrPermissionDenied)

	_, err = svc.Update(ctx, adminActor, sari.ID, user.UpdateInput{Username: strPtr("budi")})
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))

	_, err = svc.Update(ctx, adminActor, budi.ID, user.UpdateInput{Name: strPtr("Budi S"), ExpectedVersion: 1})
	assert.ErrorIs(t, err, lifecycle.ErrVersionConflict)

	promoted, err := svc.Update(ctx, adminActor, budi.ID, user.UpdateInput{Role: &admin2, ExpectedVersion: 2})
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())
}

func TestService_SetActiveAndRemove(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	admin, _, err := svc.Bootstrap(ctx, "admin", "Administrator")
	require.NoError(t, err)
	adminActor, _ := svc.Lookup(ctx, admin.ID)
	budi, err := svc.Create(ctx, adminActor, user.CreateInput{Username: "budi", Name: "Budi", Role: user.RoleUser})
	require.NoError(t, err)

	off, err := svc.SetActive(ctx, adminActor, budi.ID, false, 0)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Inactive usernames stay reserved.
	_, err = svc.Create(ctx, adminActor, user.CreateInput{Username: "budi", Name: "Budi 2", Role: user.RoleUser})
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))

	require.NoError(t, svc.Remove(ctx, adminActor, budi.ID))
	_, err = svc.Get(ctx, budi.ID)
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)

	assert.ErrorIs(t, svc.Remove(ctx, adminActor, admin.ID), lifecycle.ErrValidation)
}

func TestService_LookupSystem(t *testing.T) {
	svc, _ := newService(t)
	a, err := svc.Lookup(context.Background(), lifecycle.System.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.System, a)
}
