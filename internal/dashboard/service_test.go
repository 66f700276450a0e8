package dashboard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damwatch/taskdesk/internal/actor"
	"github.com/damwatch/taskdesk/internal/collaboration"
	collabrepo "github.com/damwatch/taskdesk/internal/collaboration/repositoryimpl"
	"github.com/damwatch/taskdesk/internal/dashboard"
	"github.com/damwatch/taskdesk/internal/disposition"
	disprepo "github.com/damwatch/taskdesk/internal/disposition/repositoryimpl"
	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/lifecycle/lifecycletest"
	"github.com/damwatch/taskdesk/internal/task"
	taskrepo "github.com/damwatch/taskdesk/internal/task/repositoryimpl"
	"github.com/damwatch/taskdesk/pkg/cerr"
)

var (
	sari = lifecycle.Actor{ID: "u1", Name: "Sari", Admin: true, Active: true}
	budi = lifecycle.Actor{ID: "u2", Name: "Budi", Active: true}
	eko  = lifecycle.Actor{ID: "u3", Name: "Eko", Active: true}
)

// seed gives budi one pending and one accepted task, one open and one
// completed disposition, one pending invite and one joined collaboration
// at 40% progress.
func seed(t *testing.T) (*dashboard.Service, lifecycle.Directory) {
	t.Helper()
	ctx := context.Background()
	h := lifecycletest.New(t)
	dir := lifecycletest.NewDirectory(sari, budi, eko)

	tasks := task.NewService(taskrepo.NewYAMLRepository(h.Store), h.Engine, dir)
	dispositions := disposition.NewService(disprepo.NewYAMLRepository(h.Store), h.Engine, dir)
	collaborations := collaboration.NewService(collabrepo.NewYAMLRepository(h.Store), h.Engine, dir)

	_, err := tasks.Create(ctx, sari, budi.ID, task.Fields{Title: "Cek pintu air"})
	require.NoError(t, err)
	accepted, err := tasks.Create(ctx, sari, budi.ID, task.Fields{Title: "Baca piezometer"})
	require.NoError(t, err)
	_, err = tasks.Accept(ctx, budi, accepted.ID, 0)
	require.NoError(t, err)

	in := disposition.Input{Title: "Weekly log", GiverIDs: []string{sari.ID}, ReceiverIDs: []string{budi.ID}, Period: disposition.PeriodWeekly}
	_, err = dispositions.Add(ctx, sari, in)
	require.NoError(t, err)
	in.Title = "Monthly report"
	done, err := dispositions.Add(ctx, sari, in)
	require.NoError(t, err)
	_, err = dispositions.Complete(ctx, budi, done.ID, 0)
	require.NoError(t, err)

	_, err = collaborations.Create(ctx, eko, collaboration.Fields{Title: "Spillway survey", Urgency: collaboration.UrgencyUrgent}, []string{budi.ID})
	require.NoError(t, err)
	joined, err := collaborations.Create(ctx, sari, collaboration.Fields{Title: "Seepage study", Urgency: collaboration.UrgencyNotUrgent}, []string{budi.ID})
	require.NoError(t, err)
	_, err = collaborations.AcceptInvite(ctx, budi, joined.ID, 0)
	require.NoError(t, err)
	_, err = collaborations.SetProgressOverride(ctx, sari, joined.ID, 40, 0)
	require.NoError(t, err)

	return dashboard.NewService(tasks, dispositions, collaborations, h.Notifications, h.Activity), dir
}

func TestService_Build(t *testing.T) {
	svc, _ := seed(t)

	d, err := svc.Build(context.Background(), budi.ID)
	require.NoError(t, err)

	assert.Equal(t, dashboard.TaskSummary{Incoming: 1, InProgress: 1}, d.Tasks)
	assert.Equal(t, dashboard.DispositionSummary{Assigned: 1, AwaitingVerification: 1}, d.Dispositions)
	assert.Equal(t, dashboard.CollaborationSummary{Active: 1, PendingInvites: 1, AverageProgress: 40}, d.Collaborations)
	// Two task requests, two assignments, two invites.
	assert.Equal(t, 6, d.UnreadNotifications)
	assert.NotEmpty(t, d.RecentActivity)

	d, err = svc.Build(context.Background(), sari.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Tasks.Outgoing)
	assert.Equal(t, 2, d.Dispositions.Given)
}

func newRouter(svc *dashboard.Service, dir lifecycle.Directory) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(actor.ChiMiddleware, cerr.NewConvertConnectErrorChiMiddleware())
		dashboard.NewHandler(svc, dir).Mount(r)
	})
	return r
}

func get(t *testing.T, h http.Handler, path, actorID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if actorID != "" {
		req.Header.Set(actor.Header, actorID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler(t *testing.T) {
	svc, dir := seed(t)
	h := newRouter(svc, dir)

	t.Run("own dashboard", func(t *testing.T) {
		rec := get(t, h, "/api/dashboard/u2", budi.ID)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var d dashboard.Dashboard
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
		assert.Equal(t, budi.ID, d.UserID)
		assert.Equal(t, 1, d.Tasks.Incoming)
	})

	t.Run("admin reads another user", func(t *testing.T) {
		rec := get(t, h, "/api/dashboard/u2", sari.ID)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-admin reads another user", func(t *testing.T) {
		rec := get(t, h, "/api/dashboard/u2", eko.ID)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing actor", func(t *testing.T) {
		rec := get(t, h, "/api/dashboard/u2", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("paged notifications", func(t *testing.T) {
		rec := get(t, h, "/api/users/u2/notifications?limit=2", budi.ID)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res dashboard.NotificationsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Len(t, res.Notifications, 2)
		assert.Equal(t, 6, res.Total)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := get(t, h, "/api/users/u2/activity?limit=zero", budi.ID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("activity", func(t *testing.T) {
		rec := get(t, h, "/api/users/u1/activity", sari.ID)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res dashboard.ActivityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.NotZero(t, res.Total)
		for _, e := range res.Entries {
			assert.Equal(t, sari.ID, e.UserID)
		}
	})
}
