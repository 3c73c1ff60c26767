package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/stmtimport/internal/config"
	"github.com/JonMunkholm/stmtimport/internal/core"
	"github.com/JonMunkholm/stmtimport/internal/core/coretest"
	"github.com/JonMunkholm/stmtimport/internal/export"
	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

const statement = "Date,Payee,Memo,Amount\n" +
	"31/12/2024,Grocery Store,food,-12.50\n" +
	"01/01/2025,New Cafe,coffee,-3.20\n" +
	"02/01/2025,Grocery Store,rent,abc\n"

type testServer struct {
	store  *coretest.Store
	server *Server
	bank   *strategy.Strategy
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Import: config.ImportConfig{
			MaxFileSize:     1 << 20,
			MaxConcurrent:   2,
			MaxWaitTime:     time.Second,
			SessionTTL:      time.Minute,
			ErrorSampleSize: 10,
		},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, db Pinger) *testServer {
	t.Helper()
	return newArchivingTestServer(t, cfg, db, nil)
}

func newArchivingTestServer(t *testing.T, cfg *config.Config, db Pinger, archiver core.Archiver) *testServer {
	t.Helper()
	store := coretest.New()
	uncategorized, _ := store.Snapshot().Uncategorized()
	checking := store.AddAccount("Checking", uncategorized)
	usd := store.AddCurrency("USD", 2)
	store.AddAccount("Grocery Store", uncategorized)

	bank := bankStrategy(t, checking, usd)
	if _, err := store.CreateStrategy(context.Background(), bank); err != nil {
		t.Fatal(err)
	}

	svc := core.NewImportService(store, archiver, core.OptionsFrom(cfg.Import))
	s := NewServer(svc, db, cfg)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return &testServer{store: store, server: s, bank: bank}
}

func bankStrategy(t *testing.T, checking, usd int64) *strategy.Strategy {
	t.Helper()
	must := func(m strategy.FieldMapping, err error) strategy.FieldMapping {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return m
	}
	mappings := []strategy.FieldMapping{
		must(strategy.NewHardCodedAccount(strategy.FieldSourceAccount, checking)),
		must(strategy.NewAccountLookup(strategy.FieldTargetAccount, strategy.AccountLookup{ColumnName: "Payee", CreateIfMissing: true})),
		must(strategy.NewDateTimeParsing(strategy.DateTimeParsing{DateColumnName: "Date", DateFormat: "dd/MM/yyyy"})),
		must(strategy.NewDirectColumn("Memo")),
		must(strategy.NewAmountParsing(strategy.AmountParsing{Mode: strategy.SingleColumn, AmountColumnName: "Amount"})),
		must(strategy.NewHardCodedCurrency(usd)),
	}
	st, err := strategy.New("Bank A", []string{"Date", "Payee", "Memo", "Amount"}, mappings, nil)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, fileName, body string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		wantDB     string
	}{
		{"no database", nil, http.StatusOK, ""},
		{"database up", pinger{}, http.StatusOK, "ok"},
		{"database down", pinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, testConfig(), tt.db)
			rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			got := decodeBody[healthResponse](t, rec)
			if got.Database != tt.wantDB {
				t.Errorf("database = %q, want %q", got.Database, tt.wantDB)
			}
			if got.Commits.MaxConcurrent != 2 {
				t.Errorf("commits = %+v, want MaxConcurrent 2", got.Commits)
			}
		})
	}
}

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
}

func TestImportFlow(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	rec := ts.do(t, uploadRequest(t, "dec.csv", statement, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("prepare status = %d body %s", rec.Code, rec.Body)
	}
	sum := decodeBody[core.ImportSummary](t, rec)
	if sum.Phase != core.PhasePrepared || sum.ValidRows != 2 || sum.ErrorCount != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	base := "/api/imports/" + sum.ID.String()

	rec = ts.do(t, httptest.NewRequest(http.MethodPost, base+"/commit", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("commit with pending accounts status = %d, want 409", rec.Code)
	}
	if got := decodeBody[ErrorResponse](t, rec); got.Code != "IMP002" {
		t.Errorf("code = %q, want IMP002", got.Code)
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodPost, base+"/accounts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("accounts status = %d body %s", rec.Code, rec.Body)
	}
	if sum = decodeBody[core.ImportSummary](t, rec); sum.Phase != core.PhaseRemapped || !sum.CanCommit {
		t.Fatalf("after accounts: %+v", sum)
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodPost, base+"/commit", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("commit status = %d body %s", rec.Code, rec.Body)
	}
	if sum = decodeBody[core.ImportSummary](t, rec); sum.Phase != core.PhaseCommitted || sum.Committed != 2 {
		t.Errorf("after commit: %+v", sum)
	}
	if n := len(ts.store.Transfers()); n != 2 {
		t.Errorf("stored transfers = %d, want 2", n)
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, base, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodDelete, base, nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("discard status = %d", rec.Code)
	}
	rec = ts.do(t, httptest.NewRequest(http.MethodGet, base, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after discard status = %d, want 404", rec.Code)
	}
}

func TestImportHTMX(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)
	req := uploadRequest(t, "dec.csv", statement, nil)
	req.Header.Set("HX-Request", "true")
	rec := ts.do(t, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"dec.csv", "New Cafe", "Create accounts", "errors.csv"} {
		if !strings.Contains(body, want) {
			t.Errorf("fragment missing %q:\n%s", want, body)
		}
	}
}

func TestErrorsCSV(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)
	sum := decodeBody[core.ImportSummary](t, ts.do(t, uploadRequest(t, "dec.csv", statement, nil)))

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/imports/"+sum.ID.String()+"/errors.csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 || lines[0] != "row,message" || !strings.HasPrefix(lines[1], "3,") {
		t.Errorf("unexpected csv %q", rec.Body.String())
	}
}

// memArchive keeps archived statements in memory.
type memArchive map[string][]byte

func (a memArchive) Archive(ctx context.Context, id uuid.UUID, name string, data []byte) (string, error) {
	object := id.String() + "/" + name
	a[object] = data
	return object, nil
}

func (a memArchive) Fetch(ctx context.Context, object string) ([]byte, error) {
	data, ok := a[object]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

func TestStatementDownload(t *testing.T) {
	ts := newArchivingTestServer(t, testConfig(), nil, memArchive{})
	sum := decodeBody[core.ImportSummary](t, ts.do(t, uploadRequest(t, "dec.csv", statement, nil)))
	if !sum.Archived {
		t.Fatal("summary should report the archived statement")
	}

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/imports/"+sum.ID.String()+"/statement", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != statement {
		t.Errorf("body = %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename=dec.csv` {
		t.Errorf("content disposition = %q", cd)
	}
}

func TestStatementNotArchived(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)
	sum := decodeBody[core.ImportSummary](t, ts.do(t, uploadRequest(t, "dec.csv", statement, nil)))

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/imports/"+sum.ID.String()+"/statement", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeBody[ErrorResponse](t, rec); got.Code != "IMP007" {
		t.Errorf("code = %q, want IMP007", got.Code)
	}
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown import",
			req:        func(t *testing.T) *http.Request { return httptest.NewRequest(http.MethodGet, "/api/imports/6f1c1c9e-8a59-4c4e-9d3e-2f0a1b2c3d4e", nil) },
			wantStatus: http.StatusNotFound,
			wantCode:   "IMP001",
		},
		{
			name:       "malformed import id",
			req:        func(t *testing.T) *http.Request { return httptest.NewRequest(http.MethodPost, "/api/imports/nope/commit", nil) },
			wantStatus: http.StatusNotFound,
			wantCode:   "IMP001",
		},
		{
			name:       "no file",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "", "", map[string]string{"strategyId": "1"}) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE004",
		},
		{
			name:       "no matching strategy",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "x.csv", "A,B\n1,2\n", nil) },
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "STR002",
		},
		{
			name:       "unknown strategy id",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "x.csv", statement, map[string]string{"strategyId": "99"}) },
			wantStatus: http.StatusNotFound,
			wantCode:   "STR001",
		},
		{
			name:       "invalid strategy id",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "x.csv", statement, map[string]string{"strategyId": "abc"}) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "ERR000",
		},
		{
			name:       "empty file",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "x.csv", "", nil) },
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FILE002",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, testConfig(), nil)
			rec := ts.do(t, tt.req(t))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if got := decodeBody[ErrorResponse](t, rec); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFileTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Import.MaxFileSize = 64
	ts := newTestServer(t, cfg, nil)
	rec := ts.do(t, uploadRequest(t, "big.csv", statement+strings.Repeat(statement[23:], 5), nil))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413 (body %s)", rec.Code, rec.Body)
	}
}

func TestErrorFragment(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/imports/6f1c1c9e-8a59-4c4e-9d3e-2f0a1b2c3d4e", nil)
	req.Header.Set("HX-Request", "true")
	rec := ts.do(t, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `role="alert"`) || !strings.Contains(body, "IMP001") {
		t.Errorf("unexpected fragment %s", body)
	}
}

func TestStrategyEndpoints(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/strategies", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decodeBody[[]json.RawMessage](t, rec)
	if len(list) != 1 {
		t.Fatalf("list len = %d, want 1", len(list))
	}

	// Round trip the stored strategy through create with a new name.
	var created map[string]any
	if err := json.Unmarshal(list[0], &created); err != nil {
		t.Fatal(err)
	}
	created["name"] = "<b>Bank B</b>"
	created["identificationColumns"] = []string{"Date", "Payee", "Memo", "Amount", "Balance"}
	body, _ := json.Marshal(created)
	rec = ts.do(t, httptest.NewRequest(http.MethodPost, "/api/strategies", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body %s", rec.Code, rec.Body)
	}
	st := decodeBody[strategy.Strategy](t, rec)
	if st.Name != "Bank B" || st.ID == ts.bank.ID {
		t.Errorf("created %q id %d", st.Name, st.ID)
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodPost, "/api/strategies/match",
		strings.NewReader(`{"headings":["Date","Payee","Memo","Amount"]}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("match status = %d", rec.Code)
	}
	if matches := decodeBody[[]json.RawMessage](t, rec); len(matches) != 1 {
		t.Errorf("matches = %d, want 1", len(matches))
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodDelete, "/api/strategies/2", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/strategies/2", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", rec.Code)
	}
}

func TestStrategyRequestErrors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"bad id", http.MethodGet, "/api/strategies/abc", "", http.StatusBadRequest},
		{"zero id", http.MethodGet, "/api/strategies/0", "", http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/strategies", "{", http.StatusBadRequest},
		{"mapping under wrong field", http.MethodPost, "/api/strategies",
			`{"name":"x","identificationColumns":["a"],"fieldMappings":{"SOURCE_ACCOUNT":{"kind":"DirectColumn","fieldType":"DESCRIPTION","columnName":"a"}}}`,
			http.StatusUnprocessableEntity},
		{"unknown mapping kind", http.MethodPost, "/api/strategies",
			`{"name":"x","identificationColumns":["a"],"fieldMappings":{"AMOUNT":{"kind":"Nope","fieldType":"AMOUNT"}}}`,
			http.StatusUnprocessableEntity},
		{"update missing", http.MethodPut, "/api/strategies/42",
			`{"name":"x","identificationColumns":["a"],"fieldMappings":{}}`, http.StatusNotFound},
		{"import without document", http.MethodPost, "/api/strategy-imports", `{"resolutions":[]}`, http.StatusBadRequest},
		{"unsupported version", http.MethodPost, "/api/strategy-imports/parse",
			`{"version":"2","name":"x","identificationColumns":[],"fieldMappings":{}}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, testConfig(), nil)
			rec := ts.do(t, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
		})
	}
}

func TestStrategyExportAndImport(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/strategies/1/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d body %s", rec.Code, rec.Body)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "bank-a.json") {
		t.Errorf("content disposition = %q", cd)
	}
	doc, err := export.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}

	// Point the source account at a name this database does not have.
	doc.FieldMappings[strategy.FieldSourceAccount] = export.HardCodedAccount{
		Base:        export.Base{Field: strategy.FieldSourceAccount},
		AccountName: "Savings",
	}
	doc.IdentificationColumns = []string{"Date", "Payee", "Memo", "Amount", "Saldo"}
	raw, _ := json.Marshal(doc)

	rec = ts.do(t, httptest.NewRequest(http.MethodPost, "/api/strategy-imports/parse", bytes.NewReader(raw)))
	if rec.Code != http.StatusOK {
		t.Fatalf("parse status = %d body %s", rec.Code, rec.Body)
	}
	parsed := decodeBody[unresolvedResponse](t, rec)
	if len(parsed.Unresolved) != 1 || parsed.Unresolved[0].Name != "Savings" {
		t.Fatalf("unresolved = %+v", parsed.Unresolved)
	}

	req, _ := json.Marshal(map[string]any{
		"document":    json.RawMessage(raw),
		"resolutions": []export.Resolution{export.CreateNew(export.RefAccount, "Savings", "")},
	})
	rec = ts.do(t, httptest.NewRequest(http.MethodPost, "/api/strategy-imports", bytes.NewReader(req)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d body %s", rec.Code, rec.Body)
	}
	if _, ok := ts.store.Snapshot().AccountByName("Savings"); !ok {
		t.Error("account Savings was not created")
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	ts := newTestServer(t, cfg, nil)

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong", "X-API-Key", "nope", http.StatusForbidden},
		{"header", "X-API-Key", "secret", http.StatusOK},
		{"bearer", "Authorization", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/strategies", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			if rec := ts.do(t, req); rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	// Health stays outside the API key check.
	if rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
}

func TestImportRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ImportLimit: 2}
	ts := newTestServer(t, cfg, nil)

	for i := 0; i < 2; i++ {
		if rec := ts.do(t, uploadRequest(t, "dec.csv", statement, nil)); rec.Code != http.StatusCreated {
			t.Fatalf("upload %d status = %d", i, rec.Code)
		}
	}
	rec := ts.do(t, uploadRequest(t, "dec.csv", statement, nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third upload status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	// Other routes still use the general limit.
	if rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/strategies", nil)); rec.Code != http.StatusOK {
		t.Errorf("list status = %d", rec.Code)
	}
}

func TestExportFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Bank A", "bank-a.json"},
		{"ING/Checking 2024", "ingchecking-2024.json"},
		{"***", "strategy.json"},
	}
	for _, tt := range tests {
		if got := exportFileName(tt.in); got != tt.want {
			t.Errorf("exportFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
