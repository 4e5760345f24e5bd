package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflectlab/unmask/internal/exercise"
	"github.com/reflectlab/unmask/internal/guidance"
	"github.com/reflectlab/unmask/internal/identity"
	"github.com/reflectlab/unmask/internal/llm"
	"github.com/reflectlab/unmask/internal/search"
)

// fakeGuide returns a canned result or error and records call steps.
type fakeGuide struct {
	result *exercise.Guidance
	err    error
	steps  []int
}

func (f *fakeGuide) RequestGuidance(_ context.Context, step int, _ exercise.Answers) (*exercise.Guidance, error) {
	f.steps = append(f.steps, step)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type memStore struct {
	data map[string][]byte
}

func (m *memStore) Load(_ context.Context, id string) ([]byte, error) {
	return m.data[id], nil
}

func (m *memStore) Save(_ context.Context, id string, snap []byte) error {
	m.data[id] = snap
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	delete(m.data, id)
	return nil
}

func newTestServer(t *testing.T, guide exercise.Guide, store exercise.SnapshotStore) *httptest.Server {
	t.Helper()
	ds, err := identity.Load()
	require.NoError(t, err)
	idx, err := search.New(ds)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	ts := httptest.NewServer(New(ds, idx, guide, store).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestGuidance_Success(t *testing.T) {
	guide := &fakeGuide{result: &exercise.Guidance{
		Guidance:    "Keep going.",
		HintBullets: []string{"one", "two"},
	}}
	ts := newTestServer(t, guide, nil)

	resp := postJSON(t, ts.Client(), ts.URL+"/api/ai", map[string]any{
		"step":    2,
		"answers": map[string]string{"complaint": "nobody listens"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body guidanceResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "Keep going.", body.Guidance)
	assert.Equal(t, []string{"one", "two"}, body.HintBullets)
	// Absent suggestions come back as an empty array, not null.
	assert.NotNil(t, body.Suggestions)
	assert.Empty(t, body.Suggestions)
	assert.Equal(t, []int{2}, guide.steps)
}

func TestGuidance_StepDefaultsToOne(t *testing.T) {
	guide := &fakeGuide{result: &exercise.Guidance{Guidance: "g"}}
	ts := newTestServer(t, guide, nil)

	resp := postJSON(t, ts.Client(), ts.URL+"/api/ai", map[string]any{
		"answers": map[string]string{"complaint": "x"},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []int{1}, guide.steps)
}

func TestGuidance_MissingAPIKey(t *testing.T) {
	ts := newTestServer(t, &fakeGuide{err: llm.ErrMissingAPIKey}, nil)

	resp := postJSON(t, ts.Client(), ts.URL+"/api/ai", map[string]any{"step": 1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorBody
	decodeBody(t, resp, &body)
	assert.Equal(t, "Missing OPENAI_API_KEY", body.Error)
}

func TestGuidance_UpstreamError(t *testing.T) {
	ts := newTestServer(t, &fakeGuide{err: &llm.TransportError{
		StatusCode: 429,
		Body:       `{"error":"rate limited"}`,
	}}, nil)

	resp := postJSON(t, ts.Client(), ts.URL+"/api/ai", map[string]any{"step": 1})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body errorBody
	decodeBody(t, resp, &body)
	assert.Equal(t, "OpenAI API error", body.Error)
	assert.Equal(t, `{"error":"rate limited"}`, body.Detail)
}

func TestGuidance_ParseError(t *testing.T) {
	ts := newTestServer(t, &fakeGuide{err: &guidance.ParseError{Raw: "not json at all"}}, nil)

	resp := postJSON(t, ts.Client(), ts.URL+"/api/ai", map[string]any{"step": 1})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body errorBody
	decodeBody(t, resp, &body)
	assert.Equal(t, "OpenAI response parse error", body.Error)
	assert.Equal(t, "not json at all", body.Detail)
}

func TestGuidance_BadBody(t *testing.T) {
	ts := newTestServer(t, &fakeGuide{}, nil)

	resp, err := ts.Client().Post(ts.URL+"/api/ai", "application/json", bytes.NewReader([]byte("{{")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestList_BlankQueryReturnsDatasetOrder(t *testing.T) {
	ts := newTestServer(t, &fakeGuide{}, nil)

	resp, err := ts.Client().Get(ts.URL + "/api/identities")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results []search.Hit `json:"results"`
	}
	decodeBody(t, resp, &body)

	ds, err := identity.Load()
	require.NoError(t, err)
	require.Len(t, body.Results, len(ds.Identities))
	for i, rec := range ds.Identities {
		assert.Equal(t, rec.ID, body.Results[i].ID)
	}
}

func TestList_QuerySearchesIndex(t *testing.T) {
	ts := newTestServer(t, &fakeGuide{}, nil)

	resp, err := ts.Client().Get(ts.URL + "/api/identities?q=perfect")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results []search.Hit `json:"results"`
	}
	decodeBody(t, resp, &body)

	ids := make([]string, 0, len(body.Results))
	for _, h := range body.Results {
		ids = append(ids, h.ID)
	}
	assert.Contains(t, ids, "the-perfectionist")
}

func TestList_TagFilter(t *testing.T) {
	ts := newTestServer(t, &fakeGuide{}, nil)

	resp, err := ts.Client().Get(ts.URL + "/api/identities?tag=abandonment")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results []search.Hit `json:"results"`
	}
	decodeBody(t, resp, &body)

	ds, err := identity.Load()
	require.NoError(t, err)
	require.NotEmpty(t, body.Results)
	for _, h := range body.Results {
		assert.True(t, ds.HasTag(h.ID, "abandonment"), "unexpected result %s", h.ID)
	}
}

func TestList_NoMatchesIsEmptyArray(t *testing.T) {
	ts := newTestServer(t, &fakeGuide{}, nil)

	resp, err := ts.Client().Get(ts.URL + "/api/identities?tag=no-such-tag")
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	decodeBody(t, resp, &raw)
	assert.JSONEq(t, `[]`, string(raw["results"]))
}

func TestDetail(t *testing.T) {
	ts := newTestServer(t, &fakeGuide{}, nil)

	resp, err := ts.Client().Get(ts.URL + "/api/identities/the-judge")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec identity.Identity
	decodeBody(t, resp, &rec)
	assert.Equal(t, "the-judge", rec.ID)
	assert.NotEmpty(t, rec.Sections.DeeperTruthStatements)
}

func TestDetail_NotFound(t *testing.T) {
	ts := newTestServer(t, &fakeGuide{}, nil)

	resp, err := ts.Client().Get(ts.URL + "/api/identities/nope")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body errorBody
	decodeBody(t, resp, &body)
	assert.Equal(t, "not found", body.Error)
}

func TestTags(t *testing.T) {
	ts := newTestServer(t, &fakeGuide{}, nil)

	resp, err := ts.Client().Get(ts.URL + "/api/tags")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Tags []string `json:"tags"`
	}
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.Tags)
}

// sessionClient keeps the session cookie across requests.
func sessionClient(t *testing.T, ts *httptest.Server) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func TestSession_CookieIssuedOnFirstTouch(t *testing.T) {
	ts := newTestServer(t, &fakeGuide{}, nil)

	resp, err := ts.Client().Get(ts.URL + "/api/session")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "expected a session cookie to be set")
}

func TestSession_AnswerAdvancesAndCarriesGuidance(t *testing.T) {
	guide := &fakeGuide{result: &exercise.Guidance{
		Guidance:    "Notice the feeling underneath.",
		HintBullets: []string{"hint"},
	}}
	ts := newTestServer(t, guide, nil)
	client := sessionClient(t, ts)

	resp := postJSON(t, client, ts.URL+"/api/session/answer", map[string]string{
		"text": "  people never listen to me  ",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view sessionView
	decodeBody(t, resp, &view)
	assert.Equal(t, 1, view.StepIndex)
	assert.Equal(t, "people never listen to me", view.Answers.Complaint)
	assert.Equal(t, "Notice the feeling underneath.", view.Guidance)
	assert.Equal(t, exercise.StatusReady, view.Status)
	assert.False(t, view.Complete)
}

func TestSession_BlankAnswerRejected(t *testing.T) {
	ts := newTestServer(t, &fakeGuide{}, nil)
	client := sessionClient(t, ts)

	resp := postJSON(t, client, ts.URL+"/api/session/answer", map[string]string{"text": "   "})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSession_SelectBeforeTerminalRejected(t *testing.T) {
	ts := newTestServer(t, &fakeGuide{}, nil)
	client := sessionClient(t, ts)

	resp := postJSON(t, client, ts.URL+"/api/session/select", map[string]string{
		"identityId": "the-judge",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSession_FullFlow(t *testing.T) {
	guide := &fakeGuide{result: &exercise.Guidance{Guidance: "g"}}
	store := &memStore{data: map[string][]byte{}}
	ts := newTestServer(t, guide, store)
	client := sessionClient(t, ts)

	for i := 0; i < exercise.TerminalIndex; i++ {
		resp := postJSON(t, client, ts.URL+"/api/session/answer", map[string]string{
			"text": fmt.Sprintf("answer %d", i+1),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := postJSON(t, client, ts.URL+"/api/session/select", map[string]string{
		"identityId": "the-judge",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view sessionView
	decodeBody(t, resp, &view)
	assert.True(t, view.Complete)
	assert.Equal(t, "the-judge", view.Answers.FalseIdentity)
	// Title backfilled from the dataset.
	assert.Equal(t, "The Judge", view.SelectedTitle)
	assert.Len(t, store.data, 1)

	resp = postJSON(t, client, ts.URL+"/api/session/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &view)
	assert.Equal(t, 0, view.StepIndex)
	assert.False(t, view.Complete)
	assert.Equal(t, exercise.StatusIdle, view.Status)
	assert.Empty(t, store.data)
}

func TestSession_RetryAfterFailure(t *testing.T) {
	guide := &fakeGuide{err: errors.New("upstream exploded")}
	ts := newTestServer(t, guide, nil)
	client := sessionClient(t, ts)

	resp := postJSON(t, client, ts.URL+"/api/session/answer", map[string]string{"text": "a complaint"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view sessionView
	decodeBody(t, resp, &view)
	assert.Equal(t, exercise.RetryableErrMsg, view.Error)

	guide.err = nil
	guide.result = &exercise.Guidance{Guidance: "second try worked"}
	resp = postJSON(t, client, ts.URL+"/api/session/retry", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = sessionView{}
	decodeBody(t, resp, &view)
	assert.Empty(t, view.Error)
	assert.Equal(t, "second try worked", view.Guidance)
}

func TestSession_RestoredAcrossInstances(t *testing.T) {
	guide := &fakeGuide{result: &exercise.Guidance{Guidance: "g"}}
	store := &memStore{data: map[string][]byte{}}

	ds, err := identity.Load()
	require.NoError(t, err)
	idx, err := search.New(ds)
	require.NoError(t, err)
	defer idx.Close()

	first := httptest.NewServer(New(ds, idx, guide, store).Handler())
	client := sessionClient(t, first)

	resp := postJSON(t, client, first.URL+"/api/session/answer", map[string]string{"text": "a complaint"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	first.Close()

	// A fresh server on the same store picks the session back up. The
	// cookie jar keys on the URL host, so reuse the same listener address
	// via a new server and copy the cookie by hand.
	second := httptest.NewServer(New(ds, idx, guide, store).Handler())
	defer second.Close()

	var sessionID string
	for id := range store.data {
		sessionID = id
	}
	require.NotEmpty(t, sessionID)

	req, err := http.NewRequest(http.MethodGet, second.URL+"/api/session", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: sessionID})
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view sessionView
	decodeBody(t, resp, &view)
	assert.Equal(t, 1, view.StepIndex)
	assert.Equal(t, "a complaint", view.Answers.Complaint)
}
