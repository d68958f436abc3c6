package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/rileyhilliard/aidash/internal/api"
	"github.com/rileyhilliard/aidash/internal/auth"
	"github.com/rileyhilliard/aidash/internal/config"
	"github.com/rileyhilliard/aidash/internal/errors"
	"github.com/rileyhilliard/aidash/internal/ui"
)

const (
	serversBody = `{"ok":true,"servers":[
		{"id":1,"slug":"gpu-01","name":"GPU Box","hostname":"gpu-01.lan","is_active":true,"last_seen_at":"2026-10-18T11:59:30Z","snapshot_count":1200},
		{"id":2,"slug":"nas","name":"","hostname":"nas.lan","is_active":false,"last_seen_at":null}
	]}`
	latestBody = `{"ok":true,"selected_server":{"id":1,"slug":"gpu-01","name":"GPU Box"},
		"snapshot":{"id":9,"collected_at":"2026-10-18T11:59:50Z",
			"cpu":{"usage_percent":42.5,"load_1":1.5,"load_5":1.25,"load_15":1,"count_logical":16},
			"memory":{"total_bytes":34359738368,"used_bytes":17179869184,"percent":50},
			"disk":{"read_bps":1048576,"write_bps":2048,"util_percent":12},
			"network":{"rx_bps":5000,"tx_bps":250},
			"gpu":{"present":true,"count":1,"devices":[{"gpu_index":0,"name":"RTX 4090","utilization_gpu_percent":97,"memory_total_bytes":25769803776,"memory_used_bytes":12884901888,"temperature_c":71}]},
			"bottleneck":{"label":"gpu","title":"GPU bound","confidence":0.82,"reason":"GPU at 97%"}}}`
	historyBody = `{"ok":true,"minutes":60,"point_count":3,"stride":2,"selected_server":{"id":1,"slug":"gpu-01","name":"GPU Box"},
		"points":[
			{"collected_at":"2026-10-18T11:00:00Z","cpu_usage_percent":10,"memory_percent":40,"network_rx_bps":100,"network_tx_bps":50},
			{"collected_at":"2026-10-18T11:30:00Z","cpu_usage_percent":80,"memory_percent":45,"network_rx_bps":200,"network_tx_bps":50},
			{"collected_at":"2026-10-18T12:00:00Z","cpu_usage_percent":30,"memory_percent":50,"network_rx_bps":300,"network_tx_bps":50}
		]}`
	notificationsBody = `{"ok":true,"notifications":[
		{"id":1,"level":"critical","title":"GPU hot","message":"gpu-01 at 91C","created_at":"2026-10-18T11:58:00Z","is_read":false},
		{"id":2,"level":"info","title":"Agent updated","message":"nas now on 1.4.0","created_at":"2026-10-18T10:00:00Z","is_read":true}
	]}`
)

// isolateSessions keeps session storage out of the real keyring and home.
func isolateSessions(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(envSession, "")
}

func testConfig(url string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.API.URL = url
	cfg.API.Timeout = 5 * time.Second
	return cfg
}

func respond(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func newBackend(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func decodeEnvelope(t *testing.T, buf *bytes.Buffer) JSONEnvelope {
	t.Helper()
	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	return env
}

func TestServersCommand(t *testing.T) {
	isolateSessions(t)
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, api.PathServers, r.URL.Path)
		respond(w, http.StatusOK, serversBody)
	})

	var buf bytes.Buffer
	cfg := testConfig(srv.URL)
	cfg.Dashboard.Server = "gpu-01"
	require.NoError(t, serversCommand(context.Background(), &buf, cfg, false))

	out := buf.String()
	assert.Contains(t, out, "gpu-01 *")
	assert.Contains(t, out, "GPU Box")
	assert.Contains(t, out, "nas.lan")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "1,200")
}

func TestServersCommand_JSON(t *testing.T) {
	isolateSessions(t)
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, serversBody)
	})

	var buf bytes.Buffer
	require.NoError(t, serversCommand(context.Background(), &buf, testConfig(srv.URL), true))

	env := decodeEnvelope(t, &buf)
	assert.True(t, env.Success)
	servers, ok := env.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, servers, 2)
}

func TestServersCommand_AuthRequired(t *testing.T) {
	isolateSessions(t)
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusUnauthorized, `{"ok":false,"error":"Authentication required.","auth_required":true,"login_url":"/accounts/login/"}`)
	})

	t.Run("human", func(t *testing.T) {
		var buf bytes.Buffer
		err := serversCommand(context.Background(), &buf, testConfig(srv.URL), false)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrAuth))
		assert.Contains(t, err.Error(), "Couldn't load servers")
		assert.Contains(t, err.Error(), "aidash login")
		assert.Empty(t, buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		err := serversCommand(context.Background(), &buf, testConfig(srv.URL), true)
		assert.Equal(t, errSilent, err)

		env := decodeEnvelope(t, &buf)
		assert.False(t, env.Success)
		require.NotNil(t, env.Error)
		assert.Equal(t, ErrCodeAuthRequired, env.Error.Code)
		details, ok := env.Error.Details.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "auth", details["kind"])
		assert.Equal(t, "/accounts/login/", details["login_url"])
		assert.Equal(t, float64(401), details["status"])
	})
}

func TestServersCommand_Unreachable(t *testing.T) {
	isolateSessions(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := serversCommand(context.Background(), io.Discard, testConfig(url), false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNetwork))
}

func TestServersCommand_StoredSessionSent(t *testing.T) {
	isolateSessions(t)
	var cookie string
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(api.SessionCookie); err == nil {
			cookie = c.Value
		}
		respond(w, http.StatusOK, `{"ok":true,"servers":[]}`)
	})
	_, err := auth.StoreSession(srv.URL, "stored-session")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, serversCommand(context.Background(), &buf, testConfig(srv.URL), false))
	assert.Equal(t, "stored-session", cookie)
	assert.Contains(t, buf.String(), "No servers registered")
}

func TestSnapshotCommand(t *testing.T) {
	isolateSessions(t)
	var gotServer string
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, api.PathMetricsLatest, r.URL.Path)
		gotServer = r.URL.Query().Get("server")
		respond(w, http.StatusOK, latestBody)
	})

	var buf bytes.Buffer
	err := snapshotCommand(context.Background(), &buf, testConfig(srv.URL), SelectionFlags{Server: "gpu-01"}, false)
	require.NoError(t, err)
	assert.Equal(t, "gpu-01", gotServer)

	out := buf.String()
	assert.Contains(t, out, "GPU Box")
	assert.Contains(t, out, "load 1.50 1.25 1.00")
	assert.Contains(t, out, "16 cores")
	assert.Contains(t, out, "GPU0")
	assert.Contains(t, out, "RTX 4090")
	assert.Contains(t, out, "71°C")
	assert.Contains(t, out, "GPU bound (82%)")
	assert.NotContains(t, out, "Swap", "swap line is hidden without swap")
}

func TestSnapshotCommand_NoData(t *testing.T) {
	isolateSessions(t)
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusNotFound, `{"ok":false,"error":"No metrics have been collected yet.","servers":[{"id":3,"slug":"fresh","name":"Fresh"}],"selected_server":{"id":3,"slug":"fresh","name":"Fresh"}}`)
	})

	t.Run("human", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, snapshotCommand(context.Background(), &buf, testConfig(srv.URL), SelectionFlags{}, false))
		assert.Contains(t, buf.String(), "No data yet")
		assert.Contains(t, buf.String(), "Fresh has not reported any metrics.")
		assert.Contains(t, buf.String(), "No metrics have been collected yet.")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		err := snapshotCommand(context.Background(), &buf, testConfig(srv.URL), SelectionFlags{}, true)
		assert.Equal(t, errSilent, err)
		env := decodeEnvelope(t, &buf)
		require.NotNil(t, env.Error)
		assert.Equal(t, ErrCodeNotFound, env.Error.Code)
	})
}

func TestHistoryCommand(t *testing.T) {
	isolateSessions(t)
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, api.PathHistory, r.URL.Path)
		assert.Equal(t, "60", r.URL.Query().Get("minutes"))
		respond(w, http.StatusOK, historyBody)
	})

	var buf bytes.Buffer
	err := historyCommand(context.Background(), &buf, testConfig(srv.URL), SelectionFlags{Window: "1h"}, false)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "GPU Box")
	assert.Contains(t, out, "last 1h")
	assert.Contains(t, out, "3 points (every 2 samples)")
	assert.Contains(t, out, "TREND")
	assert.Contains(t, out, "30.0%")
	assert.Contains(t, out, "80.0%")
	assert.NotContains(t, out, "GPU  ", "no GPU row without GPU readings")
}

func TestHistoryCommand_RejectsUnknownWindow(t *testing.T) {
	isolateSessions(t)
	var buf bytes.Buffer
	err := historyCommand(context.Background(), &buf, testConfig("http://127.0.0.1:1"), SelectionFlags{Window: "2h"}, true)
	assert.Equal(t, errSilent, err)
	env := decodeEnvelope(t, &buf)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeConfigInvalid, env.Error.Code)
}

func TestRenderHistory_Empty(t *testing.T) {
	out := renderHistory(&api.HistoryResponse{Minutes: 15}, 15, ui.DefaultThresholds)
	assert.Contains(t, out, "last 15m")
	assert.Contains(t, out, "No history in this window yet")
}

func TestNotificationsCommand(t *testing.T) {
	isolateSessions(t)
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, notificationsBody)
	})

	tests := []struct {
		name     string
		opts     NotificationsOptions
		contains []string
		absent   []string
	}{
		{
			name:     "all",
			contains: []string{"GPU hot", "Agent updated", "1 unread"},
		},
		{
			name:     "unread only",
			opts:     NotificationsOptions{UnreadOnly: true},
			contains: []string{"GPU hot", "1 unread"},
			absent:   []string{"Agent updated"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, notificationsCommand(context.Background(), &buf, testConfig(srv.URL), tt.opts))
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestNotificationsCommand_MarkRead(t *testing.T) {
	isolateSessions(t)
	var (
		csrfHeader string
		markBody   api.MarkReadRequest
	)
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case api.PathRoot:
			http.SetCookie(w, &http.Cookie{Name: api.CSRFCookie, Value: "csrf-abc", Path: "/"})
			respond(w, http.StatusOK, `{"ok":true}`)
		case api.PathNotifications:
			respond(w, http.StatusOK, notificationsBody)
		case api.PathMarkRead:
			assert.Equal(t, http.MethodPost, r.Method)
			csrfHeader = r.Header.Get("X-CSRFToken")
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&markBody))
			respond(w, http.StatusOK, `{"ok":true,"updated":1}`)
		default:
			http.NotFound(w, r)
		}
	})

	var buf bytes.Buffer
	err := notificationsCommand(context.Background(), &buf, testConfig(srv.URL), NotificationsOptions{MarkRead: true, JSON: true})
	require.NoError(t, err)

	assert.Equal(t, "csrf-abc", csrfHeader)
	assert.Equal(t, []int64{1}, markBody.IDs)

	var env struct {
		Success bool                `json:"success"`
		Data    NotificationsOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, 1, env.Data.MarkedRead)
	assert.Equal(t, 0, env.Data.UnreadCount)
	assert.Len(t, env.Data.Notifications, 2)
}

func TestRenderNotifications_NoUnread(t *testing.T) {
	out := renderNotifications(NotificationsOutput{}, NotificationsOptions{UnreadOnly: true}, time.Now(), 80)
	assert.Contains(t, out, "No unread notifications")
}

func TestLoginAndLogout(t *testing.T) {
	isolateSessions(t)
	var gotLogin api.LoginRequest
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case api.PathRoot:
			http.SetCookie(w, &http.Cookie{Name: api.CSRFCookie, Value: "csrf-abc", Path: "/"})
			respond(w, http.StatusOK, `{"ok":true}`)
		case api.PathLogin:
			assert.Equal(t, "csrf-abc", r.Header.Get("X-CSRFToken"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotLogin))
			http.SetCookie(w, &http.Cookie{Name: api.SessionCookie, Value: "sess-123", Path: "/"})
			respond(w, http.StatusOK, `{"ok":true,"user":{"username":"admin","email":"admin@example.com"}}`)
		default:
			http.NotFound(w, r)
		}
	})
	cfg := testConfig(srv.URL)

	var buf bytes.Buffer
	require.NoError(t, loginCommand(context.Background(), &buf, cfg, credentials{Username: "admin", Password: "hunter2"}))
	assert.Equal(t, "admin", gotLogin.Username)
	assert.Equal(t, "hunter2", gotLogin.Password)
	assert.Contains(t, buf.String(), "Signed in as admin")
	assert.Contains(t, buf.String(), "keyring")

	source, session := auth.GetSession(srv.URL)
	assert.Equal(t, auth.SourceKeyring, source)
	assert.Equal(t, "sess-123", session)

	buf.Reset()
	require.NoError(t, logoutCommand(&buf, cfg))
	assert.Contains(t, buf.String(), "Logged out of "+srv.URL)

	source, _ = auth.GetSession(srv.URL)
	assert.Equal(t, auth.SourceNone, source)

	buf.Reset()
	require.NoError(t, logoutCommand(&buf, cfg))
	assert.Contains(t, buf.String(), "No stored session")
}

func TestLoginCommand_BadCredentials(t *testing.T) {
	isolateSessions(t)
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == api.PathLogin {
			respond(w, http.StatusBadRequest, `{"ok":false,"error":"Invalid username or password."}`)
			return
		}
		respond(w, http.StatusOK, `{"ok":true}`)
	})

	err := loginCommand(context.Background(), io.Discard, testConfig(srv.URL), credentials{Username: "admin", Password: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sign in failed")
	assert.Contains(t, err.Error(), "Invalid username or password.")

	source, _ := auth.GetSession(srv.URL)
	assert.Equal(t, auth.SourceNone, source)
}

func TestLoginCommand_MissingCredentials(t *testing.T) {
	err := loginCommand(context.Background(), io.Discard, testConfig("http://127.0.0.1:1"), credentials{Username: "admin"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAuth))
}

func TestPromptCredentials_FromEnv(t *testing.T) {
	t.Setenv(envUsername, "ops")
	t.Setenv(envPassword, "secret")

	creds, err := promptCredentials("")
	require.NoError(t, err)
	assert.Equal(t, credentials{Username: "ops", Password: "secret"}, creds)

	creds, err = promptCredentials("admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", creds.Username, "flag wins over env")
}

func TestConfigCommands(t *testing.T) {
	withFlags(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), ".aidash.yaml")

	var buf bytes.Buffer
	require.NoError(t, configInitCommand(&buf, path, false))
	assert.Contains(t, buf.String(), "Wrote")
	assert.Error(t, configInitCommand(io.Discard, path, false), "refuses to overwrite")
	require.NoError(t, configInitCommand(io.Discard, path, true))

	cfgFile = path
	buf.Reset()
	require.NoError(t, configSetCommand(&buf, "api.url", "http://dash.lan:8000"))
	assert.Contains(t, buf.String(), "api.url = http://dash.lan:8000")

	err := configSetCommand(io.Discard, "dashboard.minutes", "7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "now invalid")
	require.NoError(t, configSetCommand(io.Discard, "dashboard.minutes", "360"))

	buf.Reset()
	require.NoError(t, configShowCommand(&buf, true))
	var env struct {
		Success bool             `json:"success"`
		Data    ConfigShowOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.Equal(t, path, env.Data.Path)

	values := map[string]string{}
	for _, e := range env.Data.Entries {
		values[e.Key] = e.Value
	}
	assert.Equal(t, "http://dash.lan:8000", values["api.url"])
	assert.Equal(t, "360", values["dashboard.minutes"])

	buf.Reset()
	require.NoError(t, configShowCommand(&buf, false))
	assert.Contains(t, buf.String(), "Loaded from: "+path)
	assert.Contains(t, buf.String(), "poll.latest")
}

func TestConfigSet_NoFile(t *testing.T) {
	withFlags(t)
	t.Setenv("HOME", t.TempDir())
	testChdir(t, t.TempDir())

	err := configSetCommand(io.Discard, "api.url", "http://x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aidash config init")
}

func TestSelectionNotice(t *testing.T) {
	servers := []api.ServerSummary{{Slug: "gpu-01"}, {Slug: "gpu-02"}, {Slug: "nas"}}
	selected := &api.ServerSummary{Slug: "gpu-01"}

	tests := []struct {
		name      string
		requested string
		selected  *api.ServerSummary
		want      []string
	}{
		{name: "no request", requested: "", selected: selected},
		{name: "matching slug", requested: "gpu-01", selected: selected},
		{name: "no selection", requested: "gpu-01", selected: nil},
		{
			name:      "typo suggests slug",
			requested: "gpu-1",
			selected:  selected,
			want:      []string{`Unknown server "gpu-1", showing gpu-01.`, "Did you mean gpu-01?"},
		},
		{
			name:      "no close match lists servers",
			requested: "trainer",
			selected:  selected,
			want:      []string{"Registered: gpu-01, gpu-02, nas"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectionNotice(tt.requested, tt.selected, servers)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			for _, s := range tt.want {
				assert.Contains(t, got, s)
			}
		})
	}
}

func TestRenderNoData_NoServers(t *testing.T) {
	out := renderNoData("", &api.NotFoundPayload{Error: "No monitored servers registered yet."})
	assert.Contains(t, out, "No data yet")
	assert.NotContains(t, out, "has not reported")
	assert.Contains(t, out, "No monitored servers registered yet.")
}

func TestDoctorCommand(t *testing.T) {
	withFlags(t)
	isolateSessions(t)
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie(api.SessionCookie); err != nil {
			respond(w, http.StatusUnauthorized, `{"ok":false,"error":"Authentication required."}`)
			return
		}
		respond(w, http.StatusOK, serversBody)
	})

	path := filepath.Join(t.TempDir(), ".aidash.yaml")
	require.NoError(t, configInitCommand(io.Discard, path, false))
	cfgFile = path
	apiURLArg = srv.URL

	t.Run("not signed in", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Equal(t, errSilent, doctorCommand(context.Background(), &buf, false))
		out := buf.String()
		assert.Contains(t, out, "Diagnostic Report")
		assert.Contains(t, out, "CONFIG")
		assert.Contains(t, out, "Connected to "+srv.URL)
		assert.Contains(t, out, "Not signed in")
		assert.Contains(t, out, "1 issue found")
	})

	t.Run("signed in", func(t *testing.T) {
		_, err := auth.StoreSession(srv.URL, "sess-123")
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, doctorCommand(context.Background(), &buf, true))

		var env struct {
			Success bool         `json:"success"`
			Data    DoctorOutput `json:"data"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
		assert.True(t, env.Data.Summary.AllClear)
		require.Len(t, env.Data.Categories, 3)
		assert.Equal(t, "CONFIG", env.Data.Categories[0].Name)
		assert.Equal(t, "BACKEND", env.Data.Categories[1].Name)
		assert.Equal(t, "AUTH", env.Data.Categories[2].Name)
	})

	t.Run("broken config skips backend", func(t *testing.T) {
		cfgFile = filepath.Join(t.TempDir(), "missing.yaml")

		var buf bytes.Buffer
		assert.Equal(t, errSilent, doctorCommand(context.Background(), &buf, false))
		assert.NotContains(t, buf.String(), "BACKEND")
	})
}
