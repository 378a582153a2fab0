package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"trackgen/api/internal/handle"
	"trackgen/api/internal/track"
)

type fakeService struct {
	tracks    map[string]track.Track
	order     []string
	createErr error
	assessErr error
	lastIn    track.CreateInput
	lastAss   track.AssessInput
}

func newFakeService() *fakeService { return &fakeService{tracks: map[string]track.Track{}} }

func (f *fakeService) Create(_ context.Context, in track.CreateInput) (track.Track, error) {
	f.lastIn = in
	if f.createErr != nil {
		return track.Track{}, f.createErr
	}
	id := "go-0000000" + fmt.Sprint(len(f.order)+1)
	t := track.Track{MongoID: id, ID: id, Title: in.Name, IsUserCreated: true,
		Checkpoints: []track.Checkpoint{{CheckpointID: 1, Title: "A", Outcomes: []string{}}},
		Flashcards:  []track.Flashcard{}}
	f.tracks[id] = t
	f.order = append(f.order, id)
	return t, nil
}

func (f *fakeService) List(context.Context) ([]track.Track, error) {
	out := []track.Track{}
	for _, id := range f.order {
		out = append(out, f.tracks[id])
	}
	return out, nil
}

func (f *fakeService) Get(_ context.Context, id string) (track.Track, error) {
	t, ok := f.tracks[id]
	if !ok {
		return track.Track{}, fmt.Errorf("%w: track %q", track.ErrNotFound, id)
	}
	return t, nil
}

func (f *fakeService) Assess(_ context.Context, in track.AssessInput) (track.AssessmentResult, error) {
	f.lastAss = in
	if f.assessErr != nil {
		return track.AssessmentResult{}, f.assessErr
	}
	return track.AssessmentResult{Score: 7, Feedback: "solid"}, nil
}

type pingFunc func(context.Context) error

func (p pingFunc) Ping(ctx context.Context) error { return p(ctx) }

func newServer(svc *fakeService, ping pingFunc) *httptest.Server {
	var p handle.Pinger
	if ping != nil {
		p = ping
	}
	h := handle.New(svc, p, "s3cret", time.Minute, nil)
	return httptest.NewServer(NewRouter(h, []string{"*"}, nil))
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var m map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&m)
	return resp, m
}

const createBody = `{"track_name":"Go","description":"basics","difficulty":"Beginner","timeframe":"1 week","num_checkpoints":%s,"private_key":"%s"}`

func TestCreateTrackThenList(t *testing.T) {
	svc := newFakeService()
	srv := newServer(svc, nil)
	defer srv.Close()

	resp, body := post(t, srv.URL+"/create_track", fmt.Sprintf(createBody, `"3"`, "s3cret"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", resp.StatusCode, body)
	}
	if body["id"] != body["_id"] || body["isUserCreated"] != true {
		t.Fatalf("unexpected track body: %v", body)
	}
	if svc.lastIn.Checkpoints != 3 || svc.lastIn.Flashcards != nil {
		t.Fatalf("unexpected create input: %+v", svc.lastIn)
	}

	lr, err := http.Get(srv.URL + "/get_user_tracks")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer lr.Body.Close()
	var list []map[string]any
	if err := json.NewDecoder(lr.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if lr.StatusCode != http.StatusOK || len(list) != 1 || list[0]["id"] != body["id"] {
		t.Fatalf("list does not echo created track: %d %v", lr.StatusCode, list)
	}

	gr, _ := http.Get(srv.URL + "/tracks/" + body["id"].(string))
	gr.Body.Close()
	if gr.StatusCode != http.StatusOK {
		t.Fatalf("GET track: %d", gr.StatusCode)
	}
	gr, _ = http.Get(srv.URL + "/tracks/unknown")
	gr.Body.Close()
	if gr.StatusCode != http.StatusNotFound {
		t.Fatalf("GET unknown track: %d", gr.StatusCode)
	}
}

func TestGetUserTracksEmpty(t *testing.T) {
	srv := newServer(newFakeService(), nil)
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/get_user_tracks")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var raw json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&raw)
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("expected [], got %s", raw)
	}
}

func TestCreateTrackFailures(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		svcErr  error
		want    int
		message string
	}{
		{"bad json", `{"track_name":`, nil, http.StatusBadRequest, ""},
		{"wrong key", fmt.Sprintf(createBody, "3", "nope"), nil, http.StatusUnauthorized, ""},
		{"fractional count", fmt.Sprintf(createBody, "2.5", "s3cret"), nil, http.StatusBadRequest, ""},
		{"missing count", `{"track_name":"Go","private_key":"s3cret"}`, nil, http.StatusBadRequest, ""},
		{"service bad request", fmt.Sprintf(createBody, "3", "s3cret"), fmt.Errorf("%w: description is required", track.ErrBadRequest), http.StatusBadRequest, ""},
		{"model failure", fmt.Sprintf(createBody, "3", "s3cret"), fmt.Errorf("%w: prose", track.ErrMalformedResponse), http.StatusInternalServerError, "Track generation failed."},
		{"store failure", fmt.Sprintf(createBody, "3", "s3cret"), fmt.Errorf("%w: insert", track.ErrUpstream), http.StatusInternalServerError, "Track generation failed."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newFakeService()
			svc.createErr = tc.svcErr
			srv := newServer(svc, nil)
			defer srv.Close()

			resp, body := post(t, srv.URL+"/create_track", tc.body)
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d: %v", tc.want, resp.StatusCode, body)
			}
			if _, ok := body["message"]; !ok {
				t.Fatalf("error body must carry a message: %v", body)
			}
			if tc.message != "" && body["message"] != tc.message {
				t.Fatalf("expected message %q, got %v", tc.message, body["message"])
			}
			if len(svc.tracks) != 0 {
				t.Fatalf("nothing should be created")
			}
		})
	}
}

func TestAssessAnswer(t *testing.T) {
	svc := newFakeService()
	srv := newServer(svc, nil)
	defer srv.Close()

	for _, id := range []string{`"2"`, `2`} {
		resp, body := post(t, srv.URL+"/assess_answer", `{"trackId":"go-1","checkpointId":`+id+`,"userAnswer":"because"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("checkpointId=%s: expected 200, got %d", id, resp.StatusCode)
		}
		if body["score"] != float64(7) || body["feedback"] != "solid" {
			t.Fatalf("unexpected body %v", body)
		}
		if svc.lastAss.CheckpointID != "2" || svc.lastAss.TrackID != "go-1" {
			t.Fatalf("unexpected assess input %+v", svc.lastAss)
		}
	}
}

func TestAssessAnswerFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing fields", fmt.Errorf("%w: userAnswer is required", track.ErrBadRequest), http.StatusBadRequest},
		{"unknown checkpoint", fmt.Errorf("%w: checkpoint 9", track.ErrNotFound), http.StatusNotFound},
		{"schema", fmt.Errorf("%w: no score", track.ErrSchemaViolation), http.StatusInternalServerError},
		{"timeout", fmt.Errorf("%w: %v", track.ErrUpstream, context.DeadlineExceeded), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newFakeService()
			svc.assessErr = tc.err
			srv := newServer(svc, nil)
			defer srv.Close()
			resp, body := post(t, srv.URL+"/assess_answer", `{"trackId":"t","checkpointId":"9","userAnswer":"x"}`)
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
			if tc.want == http.StatusInternalServerError && body["message"] != "Assessment failed." {
				t.Fatalf("expected generic message, got %v", body["message"])
			}
		})
	}
}

func TestRootHealthAndCORS(t *testing.T) {
	var down atomic.Bool
	srv := newServer(newFakeService(), func(context.Context) error {
		if down.Load() {
			return errors.New("no reachable servers")
		}
		return nil
	})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("root: %d", resp.StatusCode)
	}

	resp, _ = http.Get(srv.URL + "/healthz")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz up: %d", resp.StatusCode)
	}
	down.Store(true)
	resp, _ = http.Get(srv.URL + "/healthz")
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("healthz down: %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/get_user_tracks", nil)
	req.Header.Set("Origin", "https://example.com")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected CORS header, got %q", got)
	}

	resp, _ = http.Get(srv.URL + "/create_track")
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET /create_track: %d", resp.StatusCode)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler(), zap.NewNop()) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
