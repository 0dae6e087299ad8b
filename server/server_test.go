package server_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/ipc"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/linkedin/goavro/v2"

	"github.com/goccy/date-detector/server"
	"github.com/goccy/date-detector/types"
)

var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func newTestServer(t *testing.T, catalogs ...*types.Catalog) (*server.Server, *httptest.Server) {
	t.Helper()
	s, err := server.New(server.TempStorage)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetLocation("UTC"); err != nil {
		t.Fatal(err)
	}
	if len(catalogs) != 0 {
		if err := s.Load(server.StructSource(catalogs...)); err != nil {
			t.Fatal(err)
		}
	}
	testServer := s.TestServer()
	t.Cleanup(func() {
		testServer.Close()
		s.Close()
	})
	return s, testServer
}

func doRequest(t *testing.T, method, url string, contentType string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	return res, b
}

func postJSON(t *testing.T, url string, v interface{}) (*http.Response, []byte) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return doRequest(t, http.MethodPost, url, "application/json", bytes.NewReader(b))
}

type errorResponse struct {
	Error struct {
		Errors []struct {
			Reason   string `json:"reason"`
			Location string `json:"location"`
		} `json:"errors"`
		Code int `json:"code"`
	} `json:"error"`
}

func decodeErrorReason(t *testing.T, b []byte) string {
	t.Helper()
	var res errorResponse
	if err := json.Unmarshal(b, &res); err != nil {
		t.Fatalf("failed to decode error response %s: %v", b, err)
	}
	if len(res.Error.Errors) != 1 {
		t.Fatalf("unexpected error response %s", b)
	}
	return res.Error.Errors[0].Reason
}

func stringPtr(s string) *string { return &s }

func TestInterpret(t *testing.T) {
	_, testServer := newTestServer(t)
	url := testServer.URL + "/v1/dates:interpret"

	for _, test := range []struct {
		name     string
		request  map[string]interface{}
		expected *types.DateValue
	}{
		{
			name:    "local date",
			request: map[string]interface{}{"text": "2020-01-15 10:20:30", "pattern": "%Y-%m-%d %H:%M:%S"},
			expected: &types.DateValue{
				Kind: types.DateKindLocal,
				Unix: time.Date(2020, time.January, 15, 10, 20, 30, 0, time.UTC).Unix(),
				Time: time.Date(2020, time.January, 15, 10, 20, 30, 0, time.UTC),
			},
		},
		{
			name:    "forced utc",
			request: map[string]interface{}{"text": "2020-01-15", "pattern": "%F", "forceUtc": true},
			expected: &types.DateValue{
				Kind: types.DateKindUTC,
				Unix: time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC).Unix(),
				Time: time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "time of day",
			request: map[string]interface{}{"text": "10:20:30.500", "pattern": "%T.%L"},
			expected: &types.DateValue{
				Kind:        types.DateKindUTC,
				Unix:        10*60*60 + 20*60 + 30,
				Millisecond: 500,
				Time:        time.Date(1970, time.January, 1, 10, 20, 30, 500*int(time.Millisecond), time.UTC),
			},
		},
		{
			name:     "empty text has no value",
			request:  map[string]interface{}{"text": "", "pattern": "%F"},
			expected: nil,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			res, b := postJSON(t, url, test.request)
			if res.StatusCode != http.StatusOK {
				t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
			}
			var got struct {
				Value *types.DateValue `json:"value"`
			}
			if err := json.Unmarshal(b, &got); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.expected, got.Value); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}

	for _, test := range []struct {
		name    string
		request map[string]interface{}
	}{
		{name: "incomplete match", request: map[string]interface{}{"text": "2020-01-15 10:00", "pattern": "%F"}},
		{name: "unknown time zone", request: map[string]interface{}{"text": "2020-01-15", "pattern": "%F", "timeZone": "Nowhere/Unknown"}},
	} {
		t.Run(test.name, func(t *testing.T) {
			res, b := postJSON(t, url, test.request)
			if res.StatusCode != http.StatusBadRequest {
				t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
			}
			if reason := decodeErrorReason(t, b); reason != string(server.Invalid) {
				t.Fatalf("unexpected reason %s", reason)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	_, testServer := newTestServer(t)
	url := testServer.URL + "/v1/dates:format"

	res, b := postJSON(t, url, map[string]interface{}{
		"time":    "2020-01-15T09:05:07.042Z",
		"pattern": "%d/%m/%Y %H:%M:%S.%L",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
	}
	var got struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.Text != "15/01/2020 09:05:07.042" {
		t.Fatalf("unexpected text %s", got.Text)
	}

	res, b = postJSON(t, url, map[string]interface{}{"time": "2020-01-15T00:00:00Z", "pattern": "%Q"})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
	}
}

func TestDetect(t *testing.T) {
	_, testServer := newTestServer(t,
		types.NewCatalog("us", "%m/%d/%Y", "%d/%m/%Y"),
	)
	url := testServer.URL + "/v1/formats:detect"

	for _, test := range []struct {
		name     string
		request  map[string]interface{}
		expected []string
	}{
		{
			name: "explicit patterns",
			request: map[string]interface{}{
				"dates":    []*string{stringPtr("2020-01-15"), nil, stringPtr("2021-12-31")},
				"patterns": []string{"%Y-%m-%d", "%Y-%d-%m", "%F"},
			},
			expected: []string{"%Y-%m-%d", "%F"},
		},
		{
			name: "catalog patterns",
			request: map[string]interface{}{
				"dates":     []string{"01/02/2020", "12/25/2021"},
				"catalogId": "us",
			},
			expected: []string{"%m/%d/%Y"},
		},
		{
			name: "explicit and catalog patterns",
			request: map[string]interface{}{
				"dates":     []string{"01/02/2020"},
				"patterns":  []string{"%m/%d/%Y", "%F"},
				"catalogId": "us",
			},
			expected: []string{"%m/%d/%Y", "%m/%d/%Y", "%d/%m/%Y"},
		},
		{
			name: "no examples",
			request: map[string]interface{}{
				"dates":    []*string{nil},
				"patterns": []string{"%F"},
			},
			expected: []string{},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			res, b := postJSON(t, url, test.request)
			if res.StatusCode != http.StatusOK {
				t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
			}
			var got struct {
				Patterns []string `json:"patterns"`
			}
			if err := json.Unmarshal(b, &got); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.expected, got.Patterns, sortStrings); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}

	t.Run("unknown catalog", func(t *testing.T) {
		res, b := postJSON(t, url, map[string]interface{}{"dates": []string{"2020"}, "catalogId": "unknown"})
		if res.StatusCode != http.StatusNotFound {
			t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
		}
		if reason := decodeErrorReason(t, b); reason != string(server.NotFound) {
			t.Fatalf("unexpected reason %s", reason)
		}
	})
	t.Run("no patterns", func(t *testing.T) {
		res, b := postJSON(t, url, map[string]interface{}{"dates": []string{"2020"}})
		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
		}
	})
}

func TestBatchDetect(t *testing.T) {
	_, testServer := newTestServer(t)
	res, b := postJSON(t, testServer.URL+"/v1/formats:batchDetect", map[string]interface{}{
		"batches": []map[string]interface{}{
			{"dates": []string{"2020-01-15"}, "patterns": []string{"%F", "%m/%d/%Y"}},
			{"dates": []string{"01/15/2020"}, "patterns": []string{"%F", "%m/%d/%Y"}},
		},
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
	}
	var got struct {
		Results []struct {
			Patterns []string `json:"patterns"`
		} `json:"results"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Results) != 2 {
		t.Fatalf("unexpected results %s", b)
	}
	if diff := cmp.Diff([]string{"%F"}, got.Results[0].Patterns); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"%m/%d/%Y"}, got.Results[1].Patterns); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func avroBody(t *testing.T) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W: buf,
		Schema: `{"type": "record", "name": "row", "fields": [
  {"name": "created_at", "type": ["null", "string"]}
]}`,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Append([]interface{}{
		map[string]interface{}{"created_at": goavro.Union("string", "2020-01-15")},
		map[string]interface{}{"created_at": nil},
		map[string]interface{}{"created_at": goavro.Union("string", "2021-12-31")},
	}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func arrowBody(t *testing.T) []byte {
	t.Helper()
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "created_at", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()
	builder.Field(0).(*array.StringBuilder).AppendValues(
		[]string{"01/15/2020", "", "12/31/2021"},
		[]bool{true, false, true},
	)
	record := builder.NewRecord()
	defer record.Release()
	buf := new(bytes.Buffer)
	writer := ipc.NewWriter(buf, ipc.WithAllocator(mem), ipc.WithSchema(schema))
	if err := writer.Write(record); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectSample(t *testing.T) {
	_, testServer := newTestServer(t, types.NewCatalog("iso", "%F", "%Y-%m-%d"))

	for _, test := range []struct {
		name     string
		path     string
		body     []byte
		expected []string
	}{
		{
			name:     "avro",
			path:     "/v1/formats:detectAvro?column=created_at&catalogId=iso&pattern=%25m/%25d/%25Y",
			body:     avroBody(t),
			expected: []string{"%F", "%Y-%m-%d"},
		},
		{
			name:     "arrow",
			path:     "/v1/formats:detectArrow?column=created_at&catalogId=iso&pattern=%25m/%25d/%25Y",
			body:     arrowBody(t),
			expected: []string{"%m/%d/%Y"},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			res, b := doRequest(t, http.MethodPost, testServer.URL+test.path, "application/octet-stream", bytes.NewReader(test.body))
			if res.StatusCode != http.StatusOK {
				t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
			}
			var got struct {
				Patterns []string `json:"patterns"`
			}
			if err := json.Unmarshal(b, &got); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.expected, got.Patterns, sortStrings); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}

	t.Run("missing column", func(t *testing.T) {
		res, b := doRequest(t, http.MethodPost, testServer.URL+"/v1/formats:detectArrow?column=updated_at&catalogId=iso", "application/octet-stream", bytes.NewReader(arrowBody(t)))
		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
		}
	})
}

func TestCatalogs(t *testing.T) {
	_, testServer := newTestServer(t)
	url := testServer.URL + "/v1/catalogs/iso"

	put := func(t *testing.T, catalog *types.Catalog) (*http.Response, []byte) {
		t.Helper()
		b, err := json.Marshal(catalog)
		if err != nil {
			t.Fatal(err)
		}
		return doRequest(t, http.MethodPut, url, "application/json", bytes.NewReader(b))
	}

	if res, b := doRequest(t, http.MethodGet, url, "", nil); res.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
	}
	if res, b := put(t, &types.Catalog{Patterns: []string{"%F", "%Q"}}); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
	}

	created := &types.Catalog{ID: "iso", Description: "ISO dates", Patterns: []string{"%F"}}
	if res, b := put(t, &types.Catalog{Description: "ISO dates", Patterns: []string{"%F"}}); res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
	}
	res, b := doRequest(t, http.MethodGet, url, "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
	}
	var got types.Catalog
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(created, &got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	updated := &types.Catalog{ID: "iso", Patterns: []string{"%F", "%F %T"}}
	if res, b := put(t, updated); res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
	}
	res, b = doRequest(t, http.MethodGet, testServer.URL+"/v1/catalogs", "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
	}
	var list struct {
		Catalogs []*types.Catalog `json:"catalogs"`
	}
	if err := json.Unmarshal(b, &list); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]*types.Catalog{updated}, list.Catalogs); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	if res, b := doRequest(t, http.MethodDelete, url, "", nil); res.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
	}
	if res, b := doRequest(t, http.MethodDelete, url, "", nil); res.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
	}
}

func TestRequestID(t *testing.T) {
	_, testServer := newTestServer(t)

	res, _ := doRequest(t, http.MethodGet, testServer.URL+"/v1/catalogs", "", nil)
	if res.Header.Get("X-Request-Id") == "" {
		t.Fatal("expected generated request id")
	}

	req, err := http.NewRequest(http.MethodGet, testServer.URL+"/v1/catalogs", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Request-Id", "fixed-id")
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if got := res.Header.Get("X-Request-Id"); got != "fixed-id" {
		t.Fatalf("unexpected request id %s", got)
	}
}

func TestSources(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "catalogs.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
catalogs:
  - id: iso
    description: ISO dates
    patterns:
      - "%Y-%m-%d"
      - "%F %T"
`), 0o600); err != nil {
		t.Fatal(err)
	}
	jsonPath := filepath.Join(dir, "catalogs.json")
	if err := os.WriteFile(jsonPath, []byte(`{"catalogs":[{"id":"us","patterns":["%m/%d/%Y"]}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	invalidPath := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalidPath, []byte(`
catalogs:
  - id: broken
    patterns:
      - "%Y-%Q"
`), 0o600); err != nil {
		t.Fatal(err)
	}

	s, testServer := newTestServer(t)
	if err := s.Load(server.YAMLSource(yamlPath), server.JSONSource(jsonPath)); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(server.YAMLSource(invalidPath)); err == nil {
		t.Fatal("expected error for invalid pattern")
	}

	res, b := doRequest(t, http.MethodGet, testServer.URL+"/v1/catalogs", "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", res.StatusCode, b)
	}
	var list struct {
		Catalogs []*types.Catalog `json:"catalogs"`
	}
	if err := json.Unmarshal(b, &list); err != nil {
		t.Fatal(err)
	}
	expected := []*types.Catalog{
		{ID: "iso", Description: "ISO dates", Patterns: []string{"%Y-%m-%d", "%F %T"}},
		{ID: "us", Patterns: []string{"%m/%d/%Y"}},
	}
	if diff := cmp.Diff(expected, list.Catalogs); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
