package user_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damwatch/taskdesk/internal/user"
)

const rosterV1 = `users:
  - username: budi
    name: Budi Santoso
    department: Hidrologi
    position: Staff
  - username: sari
    name: Sari Wulandari
    role: admin
`

const rosterV2 = `users:
  - username: budi
    name: Budi Santoso
    department: Geoteknik
    position: Staff
    active: false
  - username: sari
    name: Sari Wulandari
    role: admin
  - username: joko
    name: Joko
    work_status: field-duty
`

func TestApplyRoster_Upserts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roster.yaml")

	require.NoError(t, os.WriteFile(path, []byte(rosterV1), 0o644))
	r, _, err := user.LoadRoster(path)
	require.NoError(t, err)
	res, err := svc.ApplyRoster(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, user.RosterResult{Created: 2}, res)

	// Re-applying the same roster changes nothing.
	res, err = svc.ApplyRoster(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, user.RosterResult{}, res)

	require.NoError(t, os.WriteFile(path, []byte(rosterV2), 0o644))
	r, _, err = user.LoadRoster(path)
	require.NoError(t, err)
	res, err = svc.ApplyRoster(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, user.RosterResult{Created: 1, Updated: 1}, res)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	byName := map[string]*user.User{}
	for _, u := range all {
		byName[u.Username] = u
	}
	require.Len(t, byName, 3)
	assert.Equal(t, "Geoteknik", byName["budi"].Department)
	assert.False(t, byName["budi"].IsActive)
	assert.True(t, byName["sari"].IsAdmin())
	assert.Equal(t, user.WorkStatusFieldDuty, byName["joko"].WorkStatus)
}

func TestRosterWatcher_ReloadsOnChange(t *testing.T) {
	svc, _ := newService(t)
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rosterV1), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := user.NewRosterWatcher(path, svc)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case res := <-w.Applied():
		assert.Equal(t, 2, res.Created)
	case <-time.After(5 * time.Second):
		t.Fatal("initial roster was not applied")
	}

	require.NoError(t, os.WriteFile(path, []byte(rosterV2), 0o644))
	select {
	case res := <-w.Applied():
		assert.Equal(t, 1, res.Created)
	case <-time.After(5 * time.Second):
		t.Fatal("changed roster was not applied")
	}

	cancel()
	assert.NoError(t, <-done)
}
