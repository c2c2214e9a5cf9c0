package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appdist "drive-distribution/application/distribution"
	"drive-distribution/domain/distribution"
	"drive-distribution/domain/roster"
)

type stubDistributor struct {
	result *distribution.Result
	err    error
	got    *appdist.Request
}

func (s *stubDistributor) CreateDistribution(_ context.Context, req appdist.Request) (*distribution.Result, error) {
	s.got = &req
	return s.result, s.err
}

type stubFiles struct {
	records []distribution.FileRecord
	err     error
}

func (s *stubFiles) ListFileRecords(_ context.Context, _ int64) ([]distribution.FileRecord, error) {
	return s.records, s.err
}

func newTestServer(d Distributor, f FileLister) *httptest.Server {
	return httptest.NewServer(NewRouter(NewHandler(d, f, nil), RouterConfig{}))
}

func TestCreateDistribution(t *testing.T) {
	d := &stubDistributor{result: &distribution.Result{
		Records: []distribution.RecordEntry{{UserID: 101, URL: "https://docs.google.com/document/d/abc/edit", Permission: distribution.PermissionEdit, Name: "Essay_101"}},
		Status:  []distribution.StatusEntry{{UserID: 101, CreationStatus: distribution.StatusOK}},
	}}
	srv := newTestServer(d, &stubFiles{})
	defer srv.Close()

	body := `{"students":[{"id":101,"firstname":"Amy","lastname":"Ng","email":"amy@example.com"}]}`
	resp, err := http.Post(srv.URL+"/v1/activities/7/distribution", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if d.got == nil || d.got.ActivityID != 7 {
		t.Fatalf("expected activity 7, got %+v", d.got)
	}
	if len(d.got.Students) != 1 || d.got.Students[0].Email != "amy@example.com" {
		t.Errorf("unexpected students: %+v", d.got.Students)
	}

	var out struct {
		Records []map[string]any `json:"records"`
		Status  []map[string]any `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(out.Records) != 1 || out.Records[0]["userid"] != float64(101) {
		t.Errorf("unexpected records: %v", out.Records)
	}
	if len(out.Status) != 1 || out.Status[0]["creation_status"] != "OK" {
		t.Errorf("unexpected status: %v", out.Status)
	}
}

func TestCreateDistributionWithoutBody(t *testing.T) {
	d := &stubDistributor{result: &distribution.Result{}}
	srv := newTestServer(d, &stubFiles{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/activities/3/distribution", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if d.got.Students != nil {
		t.Errorf("expected no students, got %+v", d.got.Students)
	}
}

func TestCreateDistributionErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{"configuration", &distribution.ConfigurationError{Distribution: distribution.GroupCopy, Shape: roster.ShapeEveryone}, http.StatusBadRequest, false},
		{"unknown activity", fmt.Errorf("failed to load activity: %w", distribution.ErrActivityNotFound), http.StatusNotFound, false},
		{"missing group", fmt.Errorf("failed to read group: %w", roster.ErrGroupNotFound), http.StatusNotFound, false},
		{"already distributed", distribution.ErrAlreadyDistributed, http.StatusConflict, false},
		{"in progress", fmt.Errorf("failed to lock activity 3: %w", distribution.ErrRunInProgress), http.StatusConflict, true},
		{"lock lost", fmt.Errorf("activity 3: %w", distribution.ErrLockLost), http.StatusConflict, false},
		{"no recipients", distribution.ErrNoRecipients, http.StatusUnprocessableEntity, false},
		{"transport", fmt.Errorf("%w: copy: token expired", distribution.ErrTransport), http.StatusBadGateway, true},
		{"correlation", &distribution.CorrelationError{Key: "101", Reason: "duplicate result"}, http.StatusInternalServerError, false},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubDistributor{err: tt.err}, &stubFiles{})
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/v1/activities/3/distribution", "application/json", nil)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			var out errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if out.Error == "" {
				t.Error("expected an error message")
			}
			if out.Retryable != tt.retryable {
				t.Errorf("expected retryable=%v, got %v", tt.retryable, out.Retryable)
			}
		})
	}
}

func TestCreateDistributionBadInput(t *testing.T) {
	d := &stubDistributor{}
	srv := newTestServer(d, &stubFiles{})
	defer srv.Close()

	tests := []struct {
		name string
		path string
		body string
	}{
		{"non numeric id", "/v1/activities/abc/distribution", ""},
		{"zero id", "/v1/activities/0/distribution", ""},
		{"malformed body", "/v1/activities/3/distribution", "{students:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+tt.path, "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}

	if d.got != nil {
		t.Error("distributor should not be called for bad input")
	}
}

func TestListFiles(t *testing.T) {
	files := &stubFiles{records: []distribution.FileRecord{
		{ActivityID: 4, GroupID: 5, Name: "Essay_g5", URL: "https://docs.google.com/document/d/g5/edit", Permission: distribution.PermissionComment},
	}}
	srv := newTestServer(&stubDistributor{}, files)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/activities/4/files")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Records []distribution.RecordEntry `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(out.Records) != 1 || out.Records[0].GroupID != 5 || out.Records[0].Permission != distribution.PermissionComment {
		t.Errorf("unexpected records: %+v", out.Records)
	}
}

func TestListFilesError(t *testing.T) {
	srv := newTestServer(&stubDistributor{}, &stubFiles{err: errors.New("connection refused")})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/activities/4/files")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubDistributor{}, &stubFiles{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
