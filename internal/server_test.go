package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damwatch/taskdesk/internal/actor"
	"github.com/damwatch/taskdesk/internal/config"
	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/lifecycle/lifecycletest"
	"github.com/damwatch/taskdesk/internal/notification"
	"github.com/damwatch/taskdesk/internal/rpc"
	"github.com/damwatch/taskdesk/internal/task"
	taskrepo "github.com/damwatch/taskdesk/internal/task/repositoryimpl"
)

const testAPIKey = "secret"

type keyTransport struct {
	key string
}

func (k keyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("X-API-Key", k.key)
	return http.DefaultTransport.RoundTrip(r)
}

func newTestServer(t *testing.T) (*httptest.Server, *lifecycletest.Harness) {
	t.Helper()
	h := lifecycletest.New(t)
	sari := lifecycle.Actor{ID: "u1", Name: "Sari", Active: true}
	budi := lifecycle.Actor{ID: "u2", Name: "Budi", Active: true}
	dir := lifecycletest.NewDirectory(sari, budi)

	tasks := task.NewService(taskrepo.NewYAMLRepository(h.Store), h.Engine, dir)
	_, err := tasks.Create(context.Background(), sari, budi.ID, task.Fields{Title: "Cek pintu air"})
	require.NoError(t, err)

	env := &config.Env{BaseEnv: config.BaseEnv{APIKey: testAPIKey}}
	srv := NewServer(env, []RouteProvider{
		task.NewServer(tasks, dir),
		notification.NewServer(notification.NewService(h.Notifications, h.Store, h.Bus, h.Clock.Now)),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, h
}

func TestServer_APIKey(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/anything")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/anything", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "not_found", body["code"])
}

func TestServer_ConnectRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)
	client := &http.Client{Transport: keyTransport{key: testAPIKey}}
	opt := connect.WithInterceptors(actor.NewConnectInterceptor())

	ctx := actor.WithID(context.Background(), "u2")
	res, err := rpc.Call[notification.ListNotificationsRequest, notification.ListNotificationsResponse](
		ctx, client, ts.URL, notification.ServiceName, "ListNotifications", &notification.ListNotificationsRequest{}, opt)
	require.NoError(t, err)
	require.Len(t, res.Notifications, 1)
	assert.Equal(t, notification.TypeTaskRequest, res.Notifications[0].Type)
	assert.Equal(t, 1, res.Unread)

	_, err = rpc.Call[notification.ListNotificationsRequest, notification.ListNotificationsResponse](
		context.Background(), client, ts.URL, notification.ServiceName, "ListNotifications", &notification.ListNotificationsRequest{}, opt)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	list, err := rpc.Call[task.ListTasksRequest, task.ListTasksResponse](
		ctx, client, ts.URL, task.ServiceName, "ListTasks", &task.ListTasksRequest{}, opt)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}

func TestServer_ServiceNames(t *testing.T) {
	srv := NewServer(&config.Env{}, []RouteProvider{
		notification.NewServer(nil),
	})
	assert.Equal(t, []string{"taskdesk.v1.NotificationService"}, srv.serviceNames())
}
