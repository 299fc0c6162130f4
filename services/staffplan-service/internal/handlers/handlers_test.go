package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/staffplan/libs/auth"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/availability"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/csvimport"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/report"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDepartments struct {
	items    map[int64]model.Department
	nextID   int64
	imported []model.Department
	err      error
}

func newFakeDepartments() *fakeDepartments {
	return &fakeDepartments{items: map[int64]model.Department{}, nextID: 1}
}

func (f *fakeDepartments) Create(_ context.Context, v *model.Department) (model.Department, error) {
	if f.err != nil {
		return model.Department{}, f.err
	}
	v.Normalize()
	if err := v.Validate(); err != nil {
		return model.Department{}, err
	}
	v.ID = f.nextID
	f.nextID++
	f.items[v.ID] = *v
	return *v, nil
}

func (f *fakeDepartments) Update(_ context.Context, id int64, v *model.Department) (model.Department, error) {
	if _, ok := f.items[id]; !ok {
		return model.Department{}, fmt.Errorf("department %d: %w", id, storage.ErrNotFound)
	}
	v.ID = id
	f.items[id] = *v
	return *v, nil
}

func (f *fakeDepartments) Get(_ context.Context, id int64) (model.Department, error) {
	d, ok := f.items[id]
	if !ok {
		return model.Department{}, fmt.Errorf("department %d: %w", id, storage.ErrNotFound)
	}
	return d, nil
}

func (f *fakeDepartments) List(context.Context) ([]model.Department, error) {
	out := make([]model.Department, 0, len(f.items))
	for i := int64(1); i < f.nextID; i++ {
		if d, ok := f.items[i]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDepartments) Delete(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.items[id]; !ok {
		return fmt.Errorf("department %d: %w", id, storage.ErrNotFound)
	}
	delete(f.items, id)
	return nil
}

func (f *fakeDepartments) Import(_ context.Context, items []model.Department) error {
	f.imported = append(f.imported, items...)
	return nil
}

func newDepartmentsMux(svc *fakeDepartments) *http.ServeMux {
	mux := http.NewServeMux()
	NewResource("/api/departments", svc, csvimport.Departments, NewErrors(testLogger()), testLogger()).Register(mux)
	return mux
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestResource_CreateGetList(t *testing.T) {
	svc := newFakeDepartments()
	mux := newDepartmentsMux(svc)

	rec := do(t, mux, http.MethodPost, "/api/departments", strings.NewReader(`{"title":" R&D "}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/departments/1", rec.Header().Get("Location"))
	assert.Empty(t, rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/api/departments/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"title":"R&D"}`, rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/api/departments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"title":"R&D"}]`, rec.Body.String())
}

func TestResource_ValidationProblem(t *testing.T) {
	mux := newDepartmentsMux(newFakeDepartments())

	rec := do(t, mux, http.MethodPost, "/api/departments", strings.NewReader(`{"title":""}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body struct {
		Status int                `json:"status"`
		Errors []model.FieldError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, body.Status)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "title", body.Errors[0].Field)
}

func TestResource_BadInput(t *testing.T) {
	mux := newDepartmentsMux(newFakeDepartments())

	rec := do(t, mux, http.MethodPost, "/api/departments", strings.NewReader(`{"title":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodGet, "/api/departments/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodGet, "/api/departments/0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResource_NotFoundAndConflict(t *testing.T) {
	svc := newFakeDepartments()
	mux := newDepartmentsMux(svc)

	rec := do(t, mux, http.MethodGet, "/api/departments/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodPut, "/api/departments/42", strings.NewReader(`{"title":"Ops"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.items[1] = model.Department{ID: 1, Title: "Ops"}
	svc.nextID = 2
	svc.err = fmt.Errorf("delete department 1: %w", storage.ErrConflict)
	rec = do(t, mux, http.MethodDelete, "/api/departments/1", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), conflictMessage)
}

func TestResource_UpdateAndDelete(t *testing.T) {
	svc := newFakeDepartments()
	svc.items[1] = model.Department{ID: 1, Title: "Ops"}
	svc.nextID = 2
	mux := newDepartmentsMux(svc)

	rec := do(t, mux, http.MethodPut, "/api/departments/1", strings.NewReader(`{"title":"Finance"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"title":"Finance"}`, rec.Body.String())

	rec = do(t, mux, http.MethodDelete, "/api/departments/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, svc.items)
}

func TestResource_UnexpectedErrorIs500(t *testing.T) {
	svc := newFakeDepartments()
	svc.err = errors.New("connection reset")
	mux := newDepartmentsMux(svc)

	rec := do(t, mux, http.MethodPost, "/api/departments", strings.NewReader(`{"title":"Ops"}`))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func multipartCSV(t *testing.T, field, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "data.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestResource_Import(t *testing.T) {
	svc := newFakeDepartments()
	mux := newDepartmentsMux(svc)

	body, ct := multipartCSV(t, "file", "title\nR&D\nFinance\n")
	req := httptest.NewRequest(http.MethodPost, "/api/departments/import", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	require.Len(t, svc.imported, 2)
	assert.Equal(t, "Finance", svc.imported[1].Title)
}

func TestResource_ImportRejectsBadFiles(t *testing.T) {
	svc := newFakeDepartments()
	mux := newDepartmentsMux(svc)

	body, ct := multipartCSV(t, "upload", "title\nR&D\n")
	req := httptest.NewRequest(http.MethodPost, "/api/departments/import", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing file field")

	body, ct = multipartCSV(t, "file", "name\nR&D\n")
	req = httptest.NewRequest(http.MethodPost, "/api/departments/import", body)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown column")
	assert.Empty(t, svc.imported)
}

type fakeAvailability struct {
	period int
	views  []availability.View
}

func (f *fakeAvailability) Available(_ context.Context, period int) ([]availability.View, error) {
	f.period = period
	if period < 0 {
		return nil, availability.ErrInvalidPeriod
	}
	return f.views, nil
}

func TestAvailability_List(t *testing.T) {
	from := model.NewDate(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	reader := &fakeAvailability{views: []availability.View{{User: model.User{ID: 3, FirstName: "Ada"}, AvailableFrom: from}}}
	mux := http.NewServeMux()
	NewAvailability(reader, NewErrors(testLogger())).Register(mux)

	rec := do(t, mux, http.MethodGet, "/api/users/available", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, reader.period)
	assert.Contains(t, rec.Body.String(), `"available_from":"2024-05-01"`)

	rec = do(t, mux, http.MethodGet, "/api/users/available?period=14", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 14, reader.period)

	rec = do(t, mux, http.MethodGet, "/api/users/available?period=soon", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodGet, "/api/users/available?period=-3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailability_DoesNotShadowUserByID(t *testing.T) {
	mux := http.NewServeMux()
	errs := NewErrors(testLogger())
	NewAvailability(&fakeAvailability{}, errs).Register(mux)
	users := &fakeUsers{}
	NewResource("/api/users", users, csvimport.Users, errs, testLogger()).Register(mux)

	rec := do(t, mux, http.MethodGet, "/api/users/available", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, users.gets)

	rec = do(t, mux, http.MethodGet, "/api/users/7", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, users.gets)
}

type fakeUsers struct {
	gets int
}

func (f *fakeUsers) Create(_ context.Context, v *model.User) (model.User, error) { return *v, nil }
func (f *fakeUsers) Update(_ context.Context, _ int64, v *model.User) (model.User, error) {
	return *v, nil
}
func (f *fakeUsers) Get(_ context.Context, id int64) (model.User, error) {
	f.gets++
	return model.User{ID: id}, nil
}
func (f *fakeUsers) List(context.Context) ([]model.User, error) { return nil, nil }
func (f *fakeUsers) Delete(context.Context, int64) error { return nil }
func (f *fakeUsers) Import(context.Context, []model.User) error {
	return nil
}

type fakeReports struct {
	last      map[model.ReportType]model.Report
	generated []model.ReportType
}

func (f *fakeReports) Generate(_ context.Context, typ model.ReportType) (model.Report, error) {
	f.generated = append(f.generated, typ)
	return model.Report{ID: int64(len(f.generated)), Type: typ, CreatedAt: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeReports) GenerateAll(ctx context.Context) ([]model.Report, error) {
	var out []model.Report
	for _, typ := range model.ReportTypes {
		r, _ := f.Generate(ctx, typ)
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeReports) Last(_ context.Context, typ model.ReportType) (model.Report, error) {
	r, ok := f.last[typ]
	if !ok {
		return model.Report{}, fmt.Errorf("last %s report: %w", typ, storage.ErrNotFound)
	}
	return r, nil
}

type fakeRequester struct {
	typ         model.ReportType
	requestedBy string
}

func (f *fakeRequester) Request(_ context.Context, typ model.ReportType, requestedBy string) (string, error) {
	f.typ = typ
	f.requestedBy = requestedBy
	return "req-1", nil
}

func TestReports_Last(t *testing.T) {
	svc := &fakeReports{last: map[model.ReportType]model.Report{
		model.ReportWorkload: {ID: 9, Type: model.ReportWorkload, Data: []byte("xlsx"), CreatedAt: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)},
	}}
	mux := http.NewServeMux()
	NewReports(svc, nil, NewErrors(testLogger()), testLogger(), "").Register(mux)

	rec := do(t, mux, http.MethodGet, "/api/reports/last?reportType=workload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="WORKLOAD OCTOBER.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "xlsx", rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/api/reports/last?reportType=AVAILABILITY", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodGet, "/api/reports/last", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodGet, "/api/reports/last?reportType=weekly", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReports_GenerateInline(t *testing.T) {
	svc := &fakeReports{}
	mux := http.NewServeMux()
	NewReports(svc, nil, NewErrors(testLogger()), testLogger(), "").Register(mux)

	rec := do(t, mux, http.MethodPost, "/api/reports/generate", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, model.ReportTypes, svc.generated)

	var out []generatedReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "AVAILABILITY OCTOBER.xlsx", out[1].Filename)

	rec = do(t, mux, http.MethodPost, "/api/reports/generate?reportType=availability", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, model.ReportAvailability, svc.generated[len(svc.generated)-1])
}

func TestReports_GenerateQueued(t *testing.T) {
	svc := &fakeReports{}
	requester := &fakeRequester{}
	mux := http.NewServeMux()
	NewReports(svc, requester, NewErrors(testLogger()), testLogger(), "").Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/reports/generate?reportType=workload", nil)
	req = req.WithContext(auth.ContextWithClaims(req.Context(), &auth.Claims{}))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"requestId":"req-1"}`, rec.Body.String())
	assert.Equal(t, model.ReportWorkload, requester.typ)
	assert.Empty(t, svc.generated)
}

func TestReports_GenerateRequiresRole(t *testing.T) {
	svc := &fakeReports{}
	mux := http.NewServeMux()
	NewReports(svc, nil, NewErrors(testLogger()), testLogger(), "admin").Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/reports/generate", nil)
	req = req.WithContext(auth.ContextWithClaims(req.Context(), &auth.Claims{Roles: []string{"viewer"}}))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/reports/generate", nil)
	req = req.WithContext(auth.ContextWithClaims(req.Context(), &auth.Claims{Roles: []string{"admin"}}))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAPI_GuardWrapsRoutes(t *testing.T) {
	root := http.NewServeMux()
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	API(root, deny, NewAvailability(&fakeAvailability{}, NewErrors(testLogger())))
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, do(t, root, http.MethodGet, "/api/users/available", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, root, http.MethodGet, "/healthz", nil).Code)
}
