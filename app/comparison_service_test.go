package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pricesheet/adapters/excel"
	"pricesheet/domain/pricing"
	"pricesheet/internal/errors"
	"pricesheet/internal/report"
	"pricesheet/internal/storage"
	"pricesheet/internal/testkit"
	"pricesheet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRunRepository mocks the RunRepository interface
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Record(ctx context.Context, run *models.ComparisonRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.ComparisonRun, error) {
	args := m.Called(ctx, limit)
	if runs := args.Get(0); runs != nil {
		return runs.([]*models.ComparisonRun), args.Error(1)
	}
	return nil, args.Error(1)
}

var header = []string{"Model", "Description", "Code", "WSD", "Dealer Invoice", "Retail Price"}

func priceSheet(t *testing.T, rows ...[]string) []byte {
	t.Helper()
	data, err := testkit.Workbook(append([][]string{header}, rows...))
	require.NoError(t, err)
	return data
}

func upload(name string, data []byte) Upload {
	return Upload{Filename: name, Content: bytes.NewReader(data)}
}

func newService(t *testing.T, runs *MockRunRepository) (*ComparisonService, string) {
	t.Helper()
	base := t.TempDir()
	cfg := storage.DefaultConfig()
	cfg.BaseDir = base
	var svc *ComparisonService
	if runs == nil {
		svc = NewComparisonService(excel.NewDataReader(excel.DefaultExcelConfig()), cfg, 0, nil)
	} else {
		svc = NewComparisonService(excel.NewDataReader(excel.DefaultExcelConfig()), cfg, 0, runs)
	}
	return svc, base
}

func assertScratchEmpty(t *testing.T, base string) {
	t.Helper()
	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directories must be released")
}

func TestCompareUploads(t *testing.T) {
	runs := new(MockRunRepository)
	runs.On("Record", mock.Anything, mock.MatchedBy(func(r *models.ComparisonRun) bool {
		return r.Kind == models.RunKindCompare && r.OldName == "old.xlsx" && r.Total == 3 && len(r.OldHash) == 64
	})).Return(nil).Once()

	svc, base := newService(t, runs)
	oldData := priceSheet(t,
		[]string{"", "Widget", "A1", "10", "20", "30"},
		[]string{"", "Gadget", "B2", "std", "5", "5"},
	)
	newData := priceSheet(t,
		[]string{"", "Widget", "A1", "12", "20", "30"},
		[]string{"", "Gadget", "B2", "0", "5", "5"},
		[]string{"", "Gizmo", "C3", "1", "1", "1"},
	)

	result, err := svc.Compare(context.Background(), upload("old.xlsx", oldData), upload("new.xlsx", newData))
	require.NoError(t, err)
	require.Len(t, result.Records, 3)

	assert.Equal(t, "A1", result.Records[0].Code)
	assert.True(t, result.Records[0].WSDDifferent)
	assert.Equal(t, pricing.StatusChange, result.Records[0].Status)

	assert.Equal(t, "B2", result.Records[1].Code)
	assert.Equal(t, pricing.StatusNoChange, result.Records[1].Status, "std and 0 are the same price")

	assert.Equal(t, "C3", result.Records[2].Code)
	assert.Equal(t, 2, result.Summary.Changed)
	assert.Equal(t, 1, result.Summary.CodesOnlyInNew)
	assert.Equal(t, pricing.OriginOld, result.Old.Origin)
	assert.Equal(t, "new.xlsx", result.New.Source)

	runs.AssertExpectations(t)
	assertScratchEmpty(t, base)
}

func TestCompareAuditFailureIsNotFatal(t *testing.T) {
	runs := new(MockRunRepository)
	runs.On("Record", mock.Anything, mock.Anything).Return(fmt.Errorf("connection refused"))

	svc, _ := newService(t, runs)
	data := priceSheet(t, []string{"", "Widget", "A1", "10", "20", "30"})

	result, err := svc.Compare(context.Background(), upload("a.xlsx", data), upload("b.xlsx", data))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.Changed)
	runs.AssertNumberOfCalls(t, "Record", 1)
}

func TestCompareRequiresBothFiles(t *testing.T) {
	svc, _ := newService(t, nil)
	data := priceSheet(t, []string{"", "Widget", "A1", "10", "20", "30"})

	_, err := svc.Compare(context.Background(), upload("a.xlsx", data), Upload{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInputMissing, errors.GetCode(err))

	_, err = svc.Compare(context.Background(), upload("a.xlsx", data), upload("b.xlsx", nil))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInputMissing, errors.GetCode(err))
}

func TestCompareCorruptUploadReleasesScratch(t *testing.T) {
	svc, base := newService(t, nil)
	data := priceSheet(t, []string{"", "Widget", "A1", "10", "20", "30"})

	_, err := svc.Compare(context.Background(), upload("a.xlsx", data), upload("b.xlsx", []byte("not a workbook")))
	require.Error(t, err)
	assert.Equal(t, errors.CodeParseError, errors.GetCode(err))
	assert.Contains(t, err.Error(), "b.xlsx")
	assertScratchEmpty(t, base)
}

func TestCompareMissingCodeColumn(t *testing.T) {
	svc, _ := newService(t, nil)
	good := priceSheet(t, []string{"", "Widget", "A1", "10", "20", "30"})
	bad, err := testkit.Workbook([][]string{{"Description", "WSD"}, {"Widget", "10"}})
	require.NoError(t, err)

	_, err = svc.Compare(context.Background(), upload("a.xlsx", good), upload("b.xlsx", bad))
	require.Error(t, err)
	assert.Equal(t, errors.CodeSchemaError, errors.GetCode(err))
}

func TestCompareFilesGeneratedLists(t *testing.T) {
	cfg := testkit.DefaultPriceListConfig()
	lists := testkit.NewPriceListGenerator(cfg).Generate()

	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.xlsx")
	newPath := filepath.Join(dir, "new.xlsx")
	require.NoError(t, testkit.WriteWorkbook(oldPath, lists.Old))
	require.NoError(t, testkit.WriteWorkbook(newPath, lists.New))

	svc := NewComparisonService(excel.NewDataReader(excel.DefaultExcelConfig()), storage.DefaultConfig(), cfg.HeaderRow, nil)
	result, err := svc.CompareFiles(context.Background(), oldPath, newPath)
	require.NoError(t, err)

	assert.Equal(t, "old.xlsx", result.OldName)
	assert.Equal(t, cfg.CodeCount+cfg.AddCount, result.Summary.Records)
	assert.Equal(t, len(lists.Changed)+len(lists.Dropped)+len(lists.Added), result.Summary.Changed)
}

func templateWorkbook(t *testing.T) []byte {
	t.Helper()
	data, err := testkit.Workbook([][]string{
		{"ORDER GUIDE"},
		header,
		{pricing.DataMarker},
		{"", "Widget", "A1", "10", "20", "30", "keep"},
		{"", "Gadget", "B2", "5", "5", "5"},
	})
	require.NoError(t, err)
	return data
}

func TestUpdateTemplate(t *testing.T) {
	runs := new(MockRunRepository)
	runs.On("Record", mock.Anything, mock.MatchedBy(func(r *models.ComparisonRun) bool {
		return r.Kind == models.RunKindTemplate && r.Total == 2 && r.Changed == 1
	})).Return(nil).Once()

	svc, base := newService(t, runs)
	items := []pricing.UpdateItem{
		{Code: "A1", Description: "Widget Pro", WSD: "11", DealerInvoice: "21", RetailPrice: "31"},
		{Code: "Z9", Description: "Nowhere"},
	}

	result, err := svc.UpdateTemplate(context.Background(), upload("template.xlsx", templateWorkbook(t)), items)
	require.NoError(t, err)
	assert.Equal(t, pricing.ResultFilename, result.Filename)
	assert.Equal(t, 1, result.RowsUpdated)
	assert.Equal(t, 1, result.CodesHit)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, os.WriteFile(path, result.Data, 0o600))
	grid, err := excel.NewDataReader(excel.DefaultExcelConfig()).LoadRaw(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "ORDER GUIDE", grid.Cell(0, 0))
	assert.Equal(t, "Widget Pro", grid.Cell(3, pricing.ColDescription))
	assert.Equal(t, "11", grid.Cell(3, pricing.ColWSD))
	assert.Equal(t, "31", grid.Cell(3, pricing.ColRetailPrice))
	assert.Equal(t, "keep", grid.Cell(3, 6))
	assert.Equal(t, "Gadget", grid.Cell(4, pricing.ColDescription))

	runs.AssertExpectations(t)
	assertScratchEmpty(t, base)
}

func TestUpdateTemplateValidatesBeforeReading(t *testing.T) {
	runs := new(MockRunRepository)
	svc, _ := newService(t, runs)

	_, err := svc.UpdateTemplate(context.Background(), upload("template.xlsx", templateWorkbook(t)),
		[]pricing.UpdateItem{{Code: "A1"}, {Code: "  "}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
	runs.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestUpdateTemplateWithoutMarker(t *testing.T) {
	svc, _ := newService(t, nil)
	data, err := testkit.Workbook([][]string{header, {"", "Widget", "A1"}})
	require.NoError(t, err)

	_, err = svc.UpdateTemplate(context.Background(), upload("template.xlsx", data), []pricing.UpdateItem{{Code: "A1"}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeSchemaError, errors.GetCode(err))
}

func TestUpdateTemplateRequiresFile(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.UpdateTemplate(context.Background(), Upload{}, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInputMissing, errors.GetCode(err))
}

func TestReport(t *testing.T) {
	svc, _ := newService(t, nil)
	oldData := priceSheet(t, []string{"", "Widget", "A1", "10", "20", "30"})
	newData := priceSheet(t, []string{"", "Widget", "A1", "12", "20", "30"})

	out, err := svc.Report(context.Background(), upload("old.xlsx", oldData), upload("new.xlsx", newData), report.FormatMarkdown, true)
	require.NoError(t, err)
	assert.Contains(t, string(out), "**10 → 12**")
	assert.Contains(t, string(out), "`old.xlsx`")
}

func TestParseUpdateItems(t *testing.T) {
	items, err := ParseUpdateItems([]byte(`[
		{"Code": "A1", "Description_File1": "Old", "Description_File2": "New", "WSD_Price_File2": "12",
		 "Dealer_Invoice_File2": "", "Retail_Price_File2": "", "Status": "CHANGE"},
		{"Code": "B2", "Description_File2": "Trim", "WSD_Price_File2": "0", "Dealer_Invoice_File2": null, "Retail_Price_File2": "std"}
	]`))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, pricing.UpdateItem{Code: "A1", Description: "New", WSD: "12"}, items[0])
	assert.Equal(t, "std", items[1].RetailPrice)

	_, err = ParseUpdateItems([]byte(`{"Code": "A1"}`))
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	_, err = ParseUpdateItems([]byte("  "))
	assert.Equal(t, errors.CodeInputMissing, errors.GetCode(err))

	_, err = ParseUpdateItems([]byte(strings.Repeat("[", 3)))
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
}

func TestParseUpdateItemsRequiresEveryField(t *testing.T) {
	_, err := ParseUpdateItems([]byte(`[{"Code":"A1","WSD_Price_File2":"99"}]`))
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
	assert.Contains(t, err.Error(), "update 0 is missing Description_File2")

	_, err = ParseUpdateItems([]byte(`[
		{"Code":"A1","Description_File2":"Widget","WSD_Price_File2":"12","Dealer_Invoice_File2":"20","Retail_Price_File2":"30"},
		{"Code":"B2","Description_File2":"Trim","WSD_Price_File2":"5","Dealer_Invoice_File2":"6"}
	]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update 1 is missing Retail_Price_File2")

	_, err = ParseUpdateItems([]byte(`[null]`))
	assert.Contains(t, err.Error(), "update 0 is missing Code")
}

func TestListRuns(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.ListRuns(context.Background(), 10)
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnavailable, errors.GetCode(err))

	runs := new(MockRunRepository)
	want := []*models.ComparisonRun{models.NewComparisonRun(models.RunKindCompare, "a", "b")}
	runs.On("ListRecent", mock.Anything, 10).Return(want, nil)
	svc, _ = newService(t, runs)

	got, err := svc.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
