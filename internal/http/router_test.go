package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charismabi/handson/internal/auth"
	"github.com/charismabi/handson/internal/authapi"
	"github.com/charismabi/handson/internal/clipping"
	"github.com/charismabi/handson/internal/company"
	"github.com/charismabi/handson/internal/config"
	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/files"
	"github.com/charismabi/handson/internal/ident"
	"github.com/charismabi/handson/internal/manager"
	"github.com/charismabi/handson/internal/provision"
	"github.com/charismabi/handson/internal/register"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type stubProvision struct {
	tables  []string
	changes []string
}

func (s *stubProvision) CreateSchema(ctx context.Context, name string) (string, error) {
	return ident.Normalize(name), nil
}
func (s *stubProvision) CreateTable(ctx context.Context, schema, table string) (ident.Ref, error) {
	s.tables = append(s.tables, schema+"."+table)
	return ident.Resolve(ident.Normalize(schema), ident.Normalize(table))
}
func (s *stubProvision) AddColumns(ctx context.Context, schema, table string, typ provision.ColumnType, names []string) ([]string, error) {
	return names, nil
}
func (s *stubProvision) RenameColumn(ctx context.Context, schema, table, oldName, newName string) error {
	return nil
}
func (s *stubProvision) ChangeColumnType(ctx context.Context, schema, table, column string, typ provision.ColumnType) error {
	s.changes = append(s.changes, column+":"+string(typ))
	return nil
}
func (s *stubProvision) MigrateCompanyTable(ctx context.Context) error { return nil }

type stubRegisters struct {
	errs    map[int64]error
	listErr error
	filter  register.Filter
}

func (s *stubRegisters) MarkDeleted(ctx context.Context, schema, table string, id int64) (register.Result, error) {
	return register.Result{RecordID: id, Deleted: true}, s.errs[id]
}
func (s *stubRegisters) Restore(ctx context.Context, schema, table string, id int64) (register.Result, error) {
	return register.Result{RecordID: id}, s.errs[id]
}
func (s *stubRegisters) List(ctx context.Context, schema, table string, f register.Filter, page db.Page) (db.Listing[register.Record], error) {
	s.filter = f
	if s.listErr != nil {
		return db.Listing[register.Record]{}, s.listErr
	}
	return db.NewListing([]register.Record{{"id": 1}}, 21, page), nil
}

type stubCompanies struct{}

func (stubCompanies) Create(ctx context.Context, in company.CreateInput) (int, error) { return 1, nil }
func (stubCompanies) Update(ctx context.Context, id int, in company.UpdateInput) error {
	if id == 404 {
		return company.ErrNotFound
	}
	return nil
}
func (stubCompanies) Activate(ctx context.Context, id int) error   { return nil }
func (stubCompanies) Deactivate(ctx context.Context, id int) error { return nil }
func (stubCompanies) ListActive(ctx context.Context, page db.Page) (db.Listing[company.Company], error) {
	return db.NewListing([]company.Company{{ID: 1, Name: "acme", IsActive: true}}, 1, page), nil
}
func (stubCompanies) ListInactive(ctx context.Context, page db.Page) (db.Listing[company.Company], error) {
	return db.NewListing[company.Company](nil, 0, page), nil
}
func (stubCompanies) AssociateTable(ctx context.Context, schema, table string, companyID int) (int64, error) {
	return 3, nil
}
func (stubCompanies) TablesByCompany(ctx context.Context, schema string, companyID int, page db.Page) (db.Listing[company.Table], error) {
	return db.NewListing[company.Table](nil, 0, page), nil
}

type stubClipping struct{}

func (stubClipping) ListActive(ctx context.Context, page db.Page) (db.Listing[clipping.Company], error) {
	return db.NewListing([]clipping.Company{{ID: 7, CorporateName: "Acme"}}, 1, page), nil
}
func (stubClipping) ListInactive(ctx context.Context, page db.Page) (db.Listing[clipping.Company], error) {
	return db.NewListing[clipping.Company](nil, 0, page), nil
}
func (stubClipping) TransferCompany(ctx context.Context, name string) (int, error) {
	if name == "ghost" {
		return 0, clipping.ErrNotFound
	}
	return 7, nil
}

type stubFiles struct{}

func (stubFiles) UploadClipping(ctx context.Context, schema, table string, id int, items []files.Item) (files.UploadReport, error) {
	return files.UploadReport{Saved: []files.Saved{{Table: "clippings_news", ID: "N1"}, {Table: table, ID: int64(1)}}}, nil
}
func (stubFiles) UploadHandsOn(ctx context.Context, schema, table string, id int, items []files.Item) (files.UploadReport, error) {
	return files.UploadReport{Saved: []files.Saved{}}, nil
}
func (stubFiles) Combined(ctx context.Context, schema, table string, page db.Page) (db.Listing[files.CombinedRow], error) {
	return db.Listing[files.CombinedRow]{}, files.ErrNotFound
}
func (stubFiles) Export(ctx context.Context, schema, table, start, end string) (files.Workbook, error) {
	return files.Workbook{Filename: table + "_" + start + "_" + end + ".xlsx", Body: []byte("PK")}, nil
}

type stubManager struct{}

func (stubManager) DeleteTable(ctx context.Context, schema, table string) (ident.Ref, error) {
	return ident.Resolve(schema, table)
}
func (stubManager) DeleteSchema(ctx context.Context, schema string) (string, error) {
	return "", manager.ErrProtected
}
func (stubManager) DeleteColumn(ctx context.Context, schema, table, column string) (string, error) {
	return column, nil
}

type stubAccounts struct {
	bearer string
}

func (s *stubAccounts) Token(ctx context.Context, email, password string) (json.RawMessage, error) {
	if password == "errada" {
		return nil, &authapi.Error{Status: http.StatusUnauthorized, Body: json.RawMessage(`{"detail":"no"}`)}
	}
	return json.RawMessage(`{"access":"x"}`), nil
}
func (s *stubAccounts) CreateUser(ctx context.Context, bearer string, u authapi.User) (json.RawMessage, error) {
	s.bearer = bearer
	return json.RawMessage(`{"id":1}`), nil
}
func (s *stubAccounts) UpdateUser(ctx context.Context, bearer, id string, u authapi.User) (json.RawMessage, error) {
	return nil, &authapi.Error{Status: http.StatusInternalServerError}
}
func (s *stubAccounts) DeleteUser(ctx context.Context, bearer, id string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}
func (s *stubAccounts) CreateRole(ctx context.Context, bearer string, r authapi.Role) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}
func (s *stubAccounts) ResetPassword(ctx context.Context, email string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}
func (s *stubAccounts) ConfirmReset(ctx context.Context, uid, token, pw string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

type fixture struct {
	router    http.Handler
	jwt       *auth.JWTManager
	provision *stubProvision
	registers *stubRegisters
	accounts  *stubAccounts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		Roles:           config.Roles{SuperAdmin: "super_admin", Admin: "adm_access", Viewer: "viewer"},
		RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		RateLimitAuth:   config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}
	f := &fixture{
		jwt:       auth.NewJWTManager(testSecret, time.Minute),
		provision: &stubProvision{},
		registers: &stubRegisters{errs: map[int64]error{}},
		accounts:  &stubAccounts{},
	}
	f.router = NewRouter(cfg, Deps{
		Provision: f.provision,
		Registers: f.registers,
		Companies: stubCompanies{},
		Clipping:  stubClipping{},
		Files:     stubFiles{},
		Manager:   stubManager{},
		Accounts:  f.accounts,
		Tokens:    f.jwt,
		Checks: map[string]func(context.Context) error{
			"handson": func(context.Context) error { return nil },
		},
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if role != "" {
		token, err := f.jwt.GenerateAccessToken(10, role, nil)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (map[string]any, map[string]any) {
	t.Helper()
	var env struct {
		Data  map[string]any `json:"data"`
		Error map[string]any `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("envelope: %v (%s)", err, rec.Body.String())
	}
	return env.Data, env.Error
}

func TestStatusCodes(t *testing.T) {
	f := newFixture(t)
	records := map[string]any{
		"tables":  []map[string]any{{"table_name": "vendas"}},
		"schemas": []map[string]any{{"schema_name": "acme"}},
		"columns": []map[string]any{{"record_id": 1}},
	}

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		body   any
		status int
	}{
		{"health", http.MethodGet, "/health", "", nil, http.StatusOK},
		{"ready", http.MethodGet, "/ready", "", nil, http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", nil, http.StatusOK},
		{"sem token", http.MethodGet, "/custom/get_records?table_name=t&schema_name=s", "", nil, http.StatusUnauthorized},
		{"papel desconhecido", http.MethodGet, "/custom/get_records?table_name=t&schema_name=s", "guest", nil, http.StatusForbidden},
		{"leitura viewer", http.MethodGet, "/custom/get_records?table_name=t&schema_name=s", "viewer", nil, http.StatusOK},
		{"barra final", http.MethodGet, "/company/get-company/", "viewer", nil, http.StatusOK},
		{"escrita viewer", http.MethodPut, "/custom/active-register", "viewer", records, http.StatusForbidden},
		{"escrita admin", http.MethodPut, "/custom/active-register", "adm_access", records, http.StatusOK},
		{"limit inválido", http.MethodGet, "/custom/get_records?table_name=t&schema_name=s&limit=0", "viewer", nil, http.StatusBadRequest},
		{"data inválida", http.MethodGet, "/custom/filter-by-date?table_name=t&schema_name=s&start_date=2024-13-01&end_date=2024-01-02", "viewer", nil, http.StatusBadRequest},
		{"sem tabelas da empresa", http.MethodGet, "/custom/filter-by-company?company_id=1&schema_name=s", "viewer", nil, http.StatusNotFound},
		{"payload vazio", http.MethodPost, "/custom/create-table", "adm_access", map[string]any{"tables": []any{}}, http.StatusBadRequest},
		{"manager admin", http.MethodDelete, "/manager/delete-column", "adm_access", nil, http.StatusForbidden},
		{"schema protegido", http.MethodDelete, "/manager/delete-schema", "super_admin", map[string]any{"schemas": []map[string]any{{"schema_name": "public"}}}, http.StatusForbidden},
		{"empresa inexistente", http.MethodPut, "/company/update-company", "adm_access", map[string]any{"company": []map[string]any{{"company_id": 404, "name": "x"}}}, http.StatusNotFound},
		{"transferência inexistente", http.MethodPost, "/clipping/transfer-active-company?company_name=ghost", "adm_access", nil, http.StatusNotFound},
		{"transferência", http.MethodPost, "/clipping/transfer-active-company?company_name=Acme", "adm_access", nil, http.StatusCreated},
		{"combined tabela inexistente", http.MethodGet, "/file/get_data/acme/ghost", "viewer", nil, http.StatusNotFound},
		{"upload sem company", http.MethodPost, "/file/upload_file/vendas?schema_name=acme", "adm_access", []map[string]any{{"DATA": "01/01/2024"}}, http.StatusBadRequest},
		{"upload", http.MethodPost, "/file/upload_file/vendas?schema_name=acme&company_id_clipping=7", "adm_access", []map[string]any{{"DATA": "01/01/2024"}}, http.StatusCreated},
		{"token recusado", http.MethodPost, "/auth/get-token", "", map[string]string{"email": "a@b.com", "password": "errada"}, http.StatusUnauthorized},
		{"auth remoto 5xx", http.MethodPut, "/auth/update-users/3", "adm_access", map[string]string{"name": "x"}, http.StatusBadGateway},
		{"migrate developer", http.MethodPost, "/developer/migrate-company-table", "super_admin", nil, http.StatusCreated},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, tc.method, tc.path, tc.role, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status %d, esperado %d: %s", rec.Code, tc.status, rec.Body.String())
			}
		})
	}
}

func TestListingEnvelope(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/custom/trash-registers?table_name=t&schema_name=s&limit=5&offset=10", "viewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	data, _ := decodeEnvelope(t, rec)
	if data["total_records"] != float64(21) || data["page_size"] != float64(5) || data["current_offset"] != float64(10) {
		t.Fatalf("envelope inesperado: %v", data)
	}
	if _, ok := data["trash"]; !ok {
		t.Fatalf("chave trash ausente: %v", data)
	}
	if !f.registers.filter.Deleted {
		t.Fatalf("lixeira deveria filtrar is_deleted")
	}
}

func TestCreateTableCrossProduct(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{
		"tables":  []map[string]any{{"table_name": "Vendas"}, {"table_name": "Metas"}},
		"schemas": []map[string]any{{"schema_name": "acme"}},
	}
	rec := f.do(t, http.MethodPost, "/custom/create-table", "super_admin", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.provision.tables) != 2 || f.provision.tables[0] != "acme.Vendas" {
		t.Fatalf("tabelas: %v", f.provision.tables)
	}
}

func TestUpdateTypeFieldAcceptsSeparateTypes(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{
		"tables":      []map[string]any{{"table_name": "vendas"}},
		"schemas":     []map[string]any{{"schema_name": "acme"}},
		"fields":      []map[string]any{{"field_name": "valor"}, {"field_name": "meta", "field_type": "integer"}},
		"fields_type": []map[string]any{{"field_type": "float"}},
	}
	rec := f.do(t, http.MethodPut, "/custom/update-type-field", "adm_access", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	want := []string{"valor:float", "meta:integer"}
	if len(f.provision.changes) != 2 || f.provision.changes[0] != want[0] || f.provision.changes[1] != want[1] {
		t.Fatalf("mudanças: %v", f.provision.changes)
	}

	body["fields"] = []map[string]any{{"field_name": "valor", "field_type": "json"}}
	rec = f.do(t, http.MethodPut, "/custom/update-type-field", "adm_access", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("tipo desconhecido deveria ser 400, obteve %d", rec.Code)
	}
}

func TestDeleteRecordMirrorOutcomes(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{
		"tables":  []map[string]any{{"table_name": "vendas"}},
		"schemas": []map[string]any{{"schema_name": "acme"}},
		"columns": []map[string]any{{"record_id": 1}, {"record_id": 2}},
	}

	f.registers.errs[2] = register.ErrMirrorPending
	rec := f.do(t, http.MethodDelete, "/custom/delete_record", "adm_access", body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	data, errBody := decodeEnvelope(t, rec)
	if errBody["code"] != "MIRROR_PENDING" {
		t.Fatalf("código: %v", errBody)
	}
	if recs, _ := data["records"].([]any); len(recs) != 2 {
		t.Fatalf("registros: %v", data)
	}

	f.registers.errs[2] = register.ErrMirrorFailed
	rec = f.do(t, http.MethodDelete, "/custom/delete_record", "adm_access", body)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	data, errBody = decodeEnvelope(t, rec)
	if errBody["code"] != "MIRROR_FAILED" {
		t.Fatalf("código: %v", errBody)
	}
	recs, _ := data["records"].([]any)
	if len(recs) != 1 {
		t.Fatalf("registros aplicados antes da falha: %v", data)
	}
	if first, _ := recs[0].(map[string]any); first["record_id"] != float64(1) {
		t.Fatalf("registro 1 ausente: %v", recs)
	}
}

func TestBatchFailureReportsApplied(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{"company": []map[string]any{
		{"company_id": 1, "name": "a"},
		{"company_id": 404, "name": "b"},
		{"company_id": 2, "name": "c"},
	}}
	rec := f.do(t, http.MethodPut, "/company/update-company", "adm_access", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	data, errBody := decodeEnvelope(t, rec)
	if errBody["code"] != "NOT_FOUND" {
		t.Fatalf("código: %v", errBody)
	}
	ids, _ := data["ids"].([]any)
	if len(ids) != 1 || ids[0] != float64(1) {
		t.Fatalf("ids aplicados: %v", data)
	}

	rec = f.do(t, http.MethodPut, "/company/update-company", "adm_access", map[string]any{"company": []map[string]any{{"company_id": 404}}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
	if data, _ := decodeEnvelope(t, rec); data != nil {
		t.Fatalf("nada aplicado, data deveria ser null: %v", data)
	}
}

func TestInternalErrorDoesNotLeak(t *testing.T) {
	f := newFixture(t)
	f.registers.listErr = errors.New(`pq: relation "segredo" password=hunter2`)
	rec := f.do(t, http.MethodGet, "/custom/get_records?table_name=t&schema_name=s", "viewer", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("hunter2")) {
		t.Fatalf("erro interno vazou: %s", rec.Body.String())
	}
}

func TestExportHeaders(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/file/export?schema_name=acme&table_name=vendas&start_date=2024-01-01&end_date=2024-01-31", "viewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename=vendas_2024-01-01_2024-01-31.xlsx` {
		t.Fatalf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != "PK" {
		t.Fatalf("corpo: %q", rec.Body.String())
	}
}

func TestCreateUserForwardsBearer(t *testing.T) {
	f := newFixture(t)
	body := map[string]string{"name": "Ana", "email": "ana@example.com", "username": "ana", "password": "12345678"}
	rec := f.do(t, http.MethodPost, "/auth/create-user", "adm_access", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if f.accounts.bearer == "" {
		t.Fatalf("bearer não repassado")
	}
}

func TestReadyReportsFailures(t *testing.T) {
	h := &Handler{checks: map[string]func(context.Context) error{
		"redis": func(context.Context) error { return errors.New("down") },
	}}
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", rec.Code)
	}
}
