package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pricesheet/domain/core"
	"pricesheet/domain/pricing"
	"pricesheet/internal"
	"pricesheet/internal/errors"
	"pricesheet/internal/projector"
	"pricesheet/internal/reconcile"
	"pricesheet/internal/report"
	"pricesheet/internal/storage"
	"pricesheet/models"
	"pricesheet/ports"

	"golang.org/x/sync/errgroup"
)

// Upload is one file handed in by a caller
type Upload struct {
	Filename string
	Content  io.Reader
}

// CompareResult is the outcome of comparing an old and a new price file
type CompareResult struct {
	Records []pricing.DiffRecord `json:"results"`
	Summary pricing.Summary      `json:"summary"`
	OldName string               `json:"old_name"`
	NewName string               `json:"new_name"`
	Old     *pricing.Dataset     `json:"-"`
	New     *pricing.Dataset     `json:"-"`
}

// TemplateResult is a rewritten template ready to be sent back
type TemplateResult struct {
	Filename    string
	ContentType string
	Data        []byte
	RowsUpdated int
	CodesHit    int
}

// ComparisonService orchestrates uploads, reconciliation and template projection
type ComparisonService struct {
	io        ports.TabularIO
	runs      ports.RunRepository
	storage   storage.Config
	headerRow int
	logger    *internal.Logger
}

// NewComparisonService creates the service. runs may be nil, in which case
// nothing is audited.
func NewComparisonService(tabular ports.TabularIO, storageConfig storage.Config, headerRow int, runs ports.RunRepository) *ComparisonService {
	return &ComparisonService{
		io:        tabular,
		runs:      runs,
		storage:   storageConfig,
		headerRow: headerRow,
		logger:    internal.DefaultLogger.Named("ComparisonService"),
	}
}

// HeaderRow returns the 0-based header row used for price files
func (s *ComparisonService) HeaderRow() int {
	return s.headerRow
}

// Compare stores both uploads in per-call scratch space and reconciles them
func (s *ComparisonService) Compare(ctx context.Context, oldUpload, newUpload Upload) (*CompareResult, error) {
	if err := requireUploads(oldUpload, newUpload); err != nil {
		return nil, err
	}

	scratch, err := storage.Acquire(s.storage)
	if err != nil {
		return nil, err
	}
	defer s.release(scratch)

	oldPath, err := s.store(scratch, oldUpload)
	if err != nil {
		return nil, err
	}
	newPath, err := s.store(scratch, newUpload)
	if err != nil {
		return nil, err
	}

	result, err := s.compareFiles(ctx, oldPath, newPath)
	if err != nil {
		return nil, err
	}
	result.OldName = oldUpload.Filename
	result.NewName = newUpload.Filename
	result.Old.Source = oldUpload.Filename
	result.New.Source = newUpload.Filename

	s.recordRun(ctx, models.RunKindCompare, oldUpload.Filename, newUpload.Filename, oldPath, newPath, len(result.Records), result.Summary.Changed)
	return result, nil
}

// CompareFiles reconciles two files already on disk
func (s *ComparisonService) CompareFiles(ctx context.Context, oldPath, newPath string) (*CompareResult, error) {
	if strings.TrimSpace(oldPath) == "" || strings.TrimSpace(newPath) == "" {
		return nil, errors.InputMissing("Both files are required")
	}
	result, err := s.compareFiles(ctx, oldPath, newPath)
	if err != nil {
		return nil, err
	}
	result.OldName = filepath.Base(oldPath)
	result.NewName = filepath.Base(newPath)

	s.recordRun(ctx, models.RunKindCompare, result.OldName, result.NewName, oldPath, newPath, len(result.Records), result.Summary.Changed)
	return result, nil
}

func (s *ComparisonService) compareFiles(ctx context.Context, oldPath, newPath string) (*CompareResult, error) {
	var before, after *pricing.Dataset

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ds, err := s.io.LoadTyped(gctx, oldPath, s.headerRow)
		if err != nil {
			return errors.Wrapf(err, "failed to read old file %s", filepath.Base(oldPath))
		}
		before = ds
		return nil
	})
	g.Go(func() error {
		ds, err := s.io.LoadTyped(gctx, newPath, s.headerRow)
		if err != nil {
			return errors.Wrapf(err, "failed to read new file %s", filepath.Base(newPath))
		}
		after = ds
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	before.Origin = pricing.OriginOld
	after.Origin = pricing.OriginNew

	start := time.Now()
	records := reconcile.Reconcile(before, after)
	summary := reconcile.Summarize(records, before, after)
	s.logger.Info("compared %d old rows with %d new rows: %d records, %d changed (%v)",
		before.Len(), after.Len(), summary.Records, summary.Changed, time.Since(start))

	return &CompareResult{
		Records: records,
		Summary: summary,
		Old:     before,
		New:     after,
	}, nil
}

// UpdateTemplate applies items to an uploaded template and returns the new workbook
func (s *ComparisonService) UpdateTemplate(ctx context.Context, template Upload, items []pricing.UpdateItem) (*TemplateResult, error) {
	if template.Content == nil || strings.TrimSpace(template.Filename) == "" {
		return nil, errors.InputMissing("Template file is required")
	}
	if err := projector.ValidateUpdates(items); err != nil {
		return nil, err
	}

	scratch, err := storage.Acquire(s.storage)
	if err != nil {
		return nil, err
	}
	defer s.release(scratch)

	path, err := s.store(scratch, template)
	if err != nil {
		return nil, err
	}
	return s.updateTemplateFile(ctx, path, template.Filename, items)
}

// UpdateTemplateFile applies items to a template already on disk
func (s *ComparisonService) UpdateTemplateFile(ctx context.Context, path string, items []pricing.UpdateItem) (*TemplateResult, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.InputMissing("Template file is required")
	}
	if err := projector.ValidateUpdates(items); err != nil {
		return nil, err
	}
	return s.updateTemplateFile(ctx, path, filepath.Base(path), items)
}

func (s *ComparisonService) updateTemplateFile(ctx context.Context, path, name string, items []pricing.UpdateItem) (*TemplateResult, error) {
	grid, err := s.io.LoadRaw(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read template %s", name)
	}

	projected, err := projector.ApplyUpdates(grid, items)
	if err != nil {
		return nil, err
	}

	data, err := s.io.WriteRaw(projected.Grid)
	if err != nil {
		return nil, errors.Wrap(err, "failed to write updated template")
	}

	s.logger.Info("template %s: %d rows updated for %d of %d codes",
		name, projected.RowsUpdated, projected.CodesHit, len(items))
	s.recordRun(ctx, models.RunKindTemplate, name, "", path, "", len(items), projected.RowsUpdated)

	return &TemplateResult{
		Filename:    pricing.ResultFilename,
		ContentType: pricing.WorkbookContentType,
		Data:        data,
		RowsUpdated: projected.RowsUpdated,
		CodesHit:    projected.CodesHit,
	}, nil
}

// Report compares both uploads and renders the result
func (s *ComparisonService) Report(ctx context.Context, oldUpload, newUpload Upload, format report.Format, onlyChanges bool) ([]byte, error) {
	result, err := s.Compare(ctx, oldUpload, newUpload)
	if err != nil {
		return nil, err
	}
	return RenderReport(result, format, onlyChanges), nil
}

// RenderReport turns a comparison into a report document
func RenderReport(result *CompareResult, format report.Format, onlyChanges bool) []byte {
	return report.Render(report.Input{
		OldName:     result.OldName,
		NewName:     result.NewName,
		Records:     result.Records,
		Summary:     result.Summary,
		OnlyChanges: onlyChanges,
		GeneratedAt: time.Now(),
	}, format)
}

// ListRuns returns the most recent audited runs
func (s *ComparisonService) ListRuns(ctx context.Context, limit int) ([]*models.ComparisonRun, error) {
	if s.runs == nil {
		return nil, errors.Unavailable("run history is not configured")
	}
	return s.runs.ListRecent(ctx, limit)
}

// ParseUpdateItems decodes a JSON array of update items. Full comparison
// records are accepted too since they carry the same field names.
func ParseUpdateItems(data []byte) ([]pricing.UpdateItem, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.InputMissing("new_data is required")
	}
	if err := RequireUpdateKeys(data); err != nil {
		return nil, err
	}
	var items []pricing.UpdateItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("new_data is not a valid list of updates: %v", err))
	}
	return items, nil
}

// RequireUpdateKeys rejects a JSON array of updates when any element lacks
// one of pricing.UpdateItemKeys. Null values count as present.
func RequireUpdateKeys(data []byte) error {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.ValidationError(fmt.Sprintf("new_data is not a valid list of updates: %v", err))
	}
	for i, item := range raw {
		if key := pricing.MissingUpdateKey(item); key != "" {
			return errors.ValidationError(fmt.Sprintf("update %d is missing %s", i, key))
		}
	}
	return nil
}

func requireUploads(uploads ...Upload) error {
	for _, u := range uploads {
		if u.Content == nil || strings.TrimSpace(u.Filename) == "" {
			return errors.InputMissing("Both files are required")
		}
	}
	return nil
}

func (s *ComparisonService) store(scratch *storage.Scratch, upload Upload) (string, error) {
	path, err := scratch.Store(upload.Filename, upload.Content)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to stat upload")
	}
	if info.Size() == 0 {
		return "", errors.InputMissing(fmt.Sprintf("%s is empty", upload.Filename))
	}
	return path, nil
}

func (s *ComparisonService) release(scratch *storage.Scratch) {
	if err := scratch.Release(); err != nil {
		s.logger.Warn("failed to release scratch space %s: %v", scratch.Dir(), err)
	}
}

// recordRun audits a successful run; failures are logged and never surface
func (s *ComparisonService) recordRun(ctx context.Context, kind models.RunKind, oldName, newName, oldPath, newPath string, total, changed int) {
	if s.runs == nil {
		return
	}
	run := models.NewComparisonRun(kind, oldName, newName)
	run.Total = total
	run.Changed = changed
	run.OldHash = hashOrEmpty(oldPath)
	run.NewHash = hashOrEmpty(newPath)

	if err := s.runs.Record(ctx, run); err != nil {
		s.logger.Warn("failed to record %s run %s: %v", kind, run.ID, err)
		return
	}
	s.logger.Debug("recorded %s run %s (old %s)", kind, run.ID, core.Hash(run.OldHash).Short())
}

func hashOrEmpty(path string) string {
	if path == "" {
		return ""
	}
	h, err := core.HashFile(path)
	if err != nil {
		return ""
	}
	return h.String()
}
