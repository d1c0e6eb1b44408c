package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/mergington/internal/directory"
	"example.com/mergington/internal/domain"
	"example.com/mergington/internal/events"
)

type capturePublisher struct {
	mu       sync.Mutex
	messages []events.Message
}

func (c *capturePublisher) Publish(ctx context.Context, msg events.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return nil
}

func (c *capturePublisher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func newTestRouter(t *testing.T, opts ...domain.Option) (http.Handler, *capturePublisher) {
	t.Helper()
	pub := &capturePublisher{}
	opts = append([]domain.Option{domain.WithPublisher(pub)}, opts...)
	service := domain.NewService(directory.NewInMemoryRepository(directory.Seed()), opts...)
	return NewRouter(NewHandler(service, nil), RouterConfig{}), pub
}

func activityURL(name, action, email string) string {
	u := "/activities/" + url.PathEscape(name)
	if action != "" {
		u += "/" + action
	}
	if email != "" {
		u += "?email=" + url.QueryEscape(email)
	}
	return u
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func listActivities(t *testing.T, h http.Handler) map[string]ActivityView {
	t.Helper()
	rr := do(t, h, http.MethodGet, "/activities")
	require.Equal(t, http.StatusOK, rr.Code)
	var out map[string]ActivityView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func decodeMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var out MessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out.Message
}

func TestRootRedirectsToIndex(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodGet, "/")

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, IndexPath, rr.Header().Get("Location"))
}

func TestListActivitiesReturnsSeededDirectory(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodGet, "/activities")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var raw map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	require.Len(t, raw, 9)
	for name, fields := range raw {
		for _, key := range []string{"description", "schedule", "max_participants", "participants"} {
			assert.Contains(t, fields, key, "activity %s missing %s", name, key)
		}
		var participants []string
		require.NoError(t, json.Unmarshal(fields["participants"], &participants), name)
	}
}

func TestGetActivity(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodGet, activityURL("Chess Club", "", ""))
	require.Equal(t, http.StatusOK, rr.Code)
	var view ActivityView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, 12, view.MaxParticipants)

	rr = do(t, h, http.MethodGet, activityURL("Nonexistent Club", "", ""))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Activity not found", decodeError(t, rr).Detail)
}

func TestSignupSuccess(t *testing.T) {
	h, pub := newTestRouter(t)
	email := "newstudent@mergington.edu"

	rr := do(t, h, http.MethodPost, activityURL("Chess Club", "signup", email))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Signed up newstudent@mergington.edu for Chess Club", decodeMessage(t, rr))
	assert.Contains(t, listActivities(t, h)["Chess Club"].Participants, email)
	assert.Equal(t, 1, pub.count())
}

func TestSignupUnknownActivity(t *testing.T) {
	h, pub := newTestRouter(t)

	rr := do(t, h, http.MethodPost, activityURL("Nonexistent Club", "signup", "student@mergington.edu"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Activity not found", decodeError(t, rr).Detail)
	assert.Zero(t, pub.count())
}

func TestSignupAlreadyRegistered(t *testing.T) {
	h, pub := newTestRouter(t)

	rr := do(t, h, http.MethodPost, activityURL("Chess Club", "signup", "michael@mergington.edu"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	detail := decodeError(t, rr).Detail
	assert.Contains(t, detail, "already signed up")
	assert.Equal(t, "michael@mergington.edu is already signed up for Chess Club", detail)
	assert.Zero(t, pub.count())
}

func TestSignupTwiceRejectsSecond(t *testing.T) {
	h, _ := newTestRouter(t)
	target := activityURL("Programming Class", "signup", "twice@mergington.edu")

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, target).Code)
	rr := do(t, h, http.MethodPost, target)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Detail, "already signed up")
}

func TestSignupEveryActivity(t *testing.T) {
	h, _ := newTestRouter(t)
	email := "everywhere@mergington.edu"

	for name := range listActivities(t, h) {
		rr := do(t, h, http.MethodPost, activityURL(name, "signup", email))
		require.Equal(t, http.StatusOK, rr.Code, name)
	}
	for name, view := range listActivities(t, h) {
		assert.Contains(t, view.Participants, email, name)
	}
}

func TestSignupRequiresEmail(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodPost, activityURL("Chess Club", "signup", ""))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "email query parameter is required", decodeError(t, rr).Detail)
}

func TestSignupAcceptsEmptyEmail(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/activities/Chess%20Club/signup?email=")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Signed up  for Chess Club", decodeMessage(t, rr))
	assert.Contains(t, listActivities(t, h)["Chess Club"].Participants, "")
}

func TestSignupStoresEmailExactlyAsSent(t *testing.T) {
	h, _ := newTestRouter(t)
	padded := " michael@mergington.edu"

	rr := do(t, h, http.MethodPost, activityURL("Chess Club", "signup", padded))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Signed up  michael@mergington.edu for Chess Club", decodeMessage(t, rr))
	participants := listActivities(t, h)["Chess Club"].Participants
	assert.Contains(t, participants, padded)
	assert.Contains(t, participants, "michael@mergington.edu")

	rr = do(t, h, http.MethodDelete, activityURL("Chess Club", "unregister", padded))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, listActivities(t, h)["Chess Club"].Participants, "michael@mergington.edu")
}

func TestSignupWhenFull(t *testing.T) {
	h, _ := newTestRouter(t, domain.WithCapacityEnforcement(true))

	// Math Club seats 10 and starts with 2.
	for i := 0; i < 8; i++ {
		email := url.QueryEscape("m" + string(rune('a'+i)) + "@mergington.edu")
		rr := do(t, h, http.MethodPost, "/activities/Math%20Club/signup?email="+email)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := do(t, h, http.MethodPost, activityURL("Math Club", "signup", "late@mergington.edu"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Math Club is full", decodeError(t, rr).Detail)
}

func TestUnregisterSuccess(t *testing.T) {
	h, pub := newTestRouter(t)
	email := "michael@mergington.edu"

	rr := do(t, h, http.MethodDelete, activityURL("Chess Club", "unregister", email))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Unregistered michael@mergington.edu from Chess Club", decodeMessage(t, rr))
	assert.NotContains(t, listActivities(t, h)["Chess Club"].Participants, email)
	assert.Equal(t, 1, pub.count())
}

func TestUnregisterUnknownActivity(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodDelete, activityURL("Nonexistent Club", "unregister", "student@mergington.edu"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Activity not found", decodeError(t, rr).Detail)
}

func TestUnregisterNotRegistered(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodDelete, activityURL("Chess Club", "unregister", "notregistered@mergington.edu"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Detail, "not signed up")
}

func TestSignupUnregisterSignupAgain(t *testing.T) {
	h, pub := newTestRouter(t)
	email := "cycle@mergington.edu"

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, activityURL("Debate Team", "signup", email)).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, activityURL("Debate Team", "unregister", email)).Code)
	assert.NotContains(t, listActivities(t, h)["Debate Team"].Participants, email)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, activityURL("Debate Team", "signup", email)).Code)

	assert.Contains(t, listActivities(t, h)["Debate Team"].Participants, email)
	assert.Equal(t, 3, pub.count())
}

func TestWrongMethod(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodGet, activityURL("Chess Club", "signup", "x@mergington.edu"))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)
	do(t, h, http.MethodGet, "/activities")

	rr := do(t, h, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "activities_api_http_requests_total")
}

func TestStaticFilesAndCORS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Mergington</h1>"), 0o644))

	service := domain.NewService(directory.NewInMemoryRepository(directory.Seed()))
	h := NewRouter(NewHandler(service, nil), RouterConfig{StaticDir: dir, AllowedOrigin: "http://localhost:5173"})

	rr := do(t, h, http.MethodGet, IndexPath)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Mergington")
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = do(t, h, http.MethodOptions, "/activities")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
