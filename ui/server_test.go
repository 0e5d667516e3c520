package ui

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pricesheet/adapters/excel"
	"pricesheet/app"
	"pricesheet/domain/pricing"
	"pricesheet/internal/errors"
	"pricesheet/internal/storage"
	"pricesheet/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type part struct {
	field    string
	filename string
	content  []byte
}

func init() {
	gin.SetMode(gin.TestMode)
}

func multipartBody(t *testing.T, files []part, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write(f.content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

var header = []string{"Model", "Description", "Code", "WSD", "Dealer Invoice", "Retail Price"}

func workbook(t *testing.T, rows ...[]string) []byte {
	t.Helper()
	data, err := testkit.Workbook(rows)
	require.NoError(t, err)
	return data
}

func newTestServer(t *testing.T, maxUpload int64) *Server {
	t.Helper()
	cfg := storage.DefaultConfig()
	cfg.BaseDir = t.TempDir()
	cfg.MaxBytes = maxUpload
	svc := app.NewComparisonService(excel.NewDataReader(excel.DefaultExcelConfig()), cfg, 0, nil)
	s, err := NewServer(svc, maxUpload)
	require.NoError(t, err)
	return s
}

func post(t *testing.T, s *Server, path string, files []part, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, files, fields)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error, body.Code
}

func comparisonFiles(t *testing.T) []part {
	oldData := workbook(t, header,
		[]string{"", "Widget", "A1", "10", "20", "30"},
		[]string{"", "Gadget", "B2", "std", "5", "5"},
	)
	newData := workbook(t, header,
		[]string{"", "Widget", "A1", "12", "20", "30"},
		[]string{"", "Gadget", "B2", "0", "5", "5"},
	)
	return []part{{"file1", "old.xlsx", oldData}, {"file2", "new.xlsx", newData}}
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t, 16<<20)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Price List Comparison")
	assert.Contains(t, rec.Body.String(), "read from row 1.")
	assert.Contains(t, rec.Body.String(), "16 MB")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 16<<20)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCompareEndpoint(t *testing.T) {
	s := newTestServer(t, 16<<20)
	rec := post(t, s, "/compare", comparisonFiles(t), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Results []pricing.DiffRecord `json:"results"`
		Summary pricing.Summary      `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 2)
	assert.Equal(t, "A1", body.Results[0].Code)
	assert.Equal(t, "10", body.Results[0].WSDOld)
	assert.Equal(t, "12", body.Results[0].WSDNew)
	assert.Equal(t, pricing.StatusChange, body.Results[0].Status)
	assert.Equal(t, pricing.StatusNoChange, body.Results[1].Status)
	assert.Equal(t, 1, body.Summary.Changed)

	assert.Contains(t, rec.Body.String(), `"WSD_Price_File1":"10"`)
}

func TestCompareMissingFile(t *testing.T) {
	s := newTestServer(t, 16<<20)
	files := comparisonFiles(t)[:1]
	rec := post(t, s, "/compare", files, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	msg, code := decodeError(t, rec)
	assert.Equal(t, "Both files are required", msg)
	assert.Equal(t, errors.CodeInputMissing, code)
}

func TestCompareNotMultipart(t *testing.T) {
	s := newTestServer(t, 16<<20)
	req := httptest.NewRequest(http.MethodPost, "/compare", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, code := decodeError(t, rec)
	assert.Equal(t, errors.CodeInputMissing, code)
}

func TestCompareCorruptFile(t *testing.T) {
	s := newTestServer(t, 16<<20)
	files := comparisonFiles(t)
	files[1].content = []byte("definitely not a spreadsheet")
	rec := post(t, s, "/compare", files, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, code := decodeError(t, rec)
	assert.Equal(t, errors.CodeParseError, code)
}

func TestCompareFileOverLimit(t *testing.T) {
	s := newTestServer(t, 4096)
	files := comparisonFiles(t)
	files[0].content = bytes.Repeat([]byte("x"), 5000)
	rec := post(t, s, "/compare", files, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	_, code := decodeError(t, rec)
	assert.Equal(t, errors.CodeTooLarge, code)
}

func TestCompareRequestOverLimit(t *testing.T) {
	s := newTestServer(t, 1024)
	files := comparisonFiles(t)
	files[0].content = bytes.Repeat([]byte("x"), 2<<20)
	rec := post(t, s, "/compare", files, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func templateFile(t *testing.T) []byte {
	return workbook(t,
		[]string{"ORDER GUIDE"},
		header,
		[]string{pricing.DataMarker},
		[]string{"", "Widget", "A1", "10", "20", "30"},
		[]string{"", "Gadget", "B2", "5", "5", "5"},
	)
}

func TestUpdateTemplateEndpoint(t *testing.T) {
	s := newTestServer(t, 16<<20)
	newData := `[{"Code":"A1","Description_File2":"Widget","WSD_Price_File2":"12","Dealer_Invoice_File2":"20","Retail_Price_File2":"30","Status":"CHANGE"}]`

	rec := post(t, s, "/update_template",
		[]part{{"old_template", "template.xlsx", templateFile(t)}},
		map[string]string{"new_data": newData})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `attachment; filename="updated_template.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, pricing.WorkbookContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get("X-Rows-Updated"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	wsd, err := f.GetCellValue("Sheet1", "D4")
	require.NoError(t, err)
	assert.Equal(t, "12", wsd)
	other, err := f.GetCellValue("Sheet1", "D5")
	require.NoError(t, err)
	assert.Equal(t, "5", other)
}

func TestUpdateTemplateMissingTemplate(t *testing.T) {
	s := newTestServer(t, 16<<20)
	rec := post(t, s, "/update_template", nil, map[string]string{"new_data": "[]"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	msg, code := decodeError(t, rec)
	assert.Equal(t, "Template file is required", msg)
	assert.Equal(t, errors.CodeInputMissing, code)
}

func TestUpdateTemplateBadPayload(t *testing.T) {
	s := newTestServer(t, 16<<20)
	for name, payload := range map[string]string{
		"not json":     "rows please",
		"missing code": `[{"Description_File2":"x"}]`,
		"partial item": `[{"Code":"A1","WSD_Price_File2":"99"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := post(t, s, "/update_template",
				[]part{{"old_template", "template.xlsx", templateFile(t)}},
				map[string]string{"new_data": payload})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			_, code := decodeError(t, rec)
			assert.Equal(t, errors.CodeValidationError, code)
		})
	}
}

func TestUpdateTemplateWithoutMarker(t *testing.T) {
	s := newTestServer(t, 16<<20)
	rec := post(t, s, "/update_template",
		[]part{{"old_template", "template.xlsx", workbook(t, header, []string{"", "Widget", "A1"})}},
		map[string]string{"new_data": `[{"Code":"A1","Description_File2":"Widget","WSD_Price_File2":"1","Dealer_Invoice_File2":"2","Retail_Price_File2":"3"}]`})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, code := decodeError(t, rec)
	assert.Equal(t, errors.CodeSchemaError, code)
}

func TestReportEndpoint(t *testing.T) {
	s := newTestServer(t, 16<<20)

	rec := post(t, s, "/report", comparisonFiles(t), map[string]string{"format": "html", "only_changes": "on"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<strong>10 → 12</strong>")
	assert.NotContains(t, rec.Body.String(), "<td>B2</td>")

	rec = post(t, s, "/report", comparisonFiles(t), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "| B2 | NO CHANGE |")

	rec = post(t, s, "/report", comparisonFiles(t), map[string]string{"format": "pdf"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
