package api

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"pricesheet/app"
	"pricesheet/internal/errors"
	"pricesheet/internal/reconcile"
	"pricesheet/internal/report"

	"github.com/go-chi/chi/v5/middleware"
)

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCompare accepts multipart file1/file2 and returns the reconciled records
func (a *API) handleCompare(w http.ResponseWriter, r *http.Request) {
	oldUpload, newUpload, closeAll, err := a.comparisonUploads(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer closeAll()

	result, err := a.service.Compare(r.Context(), oldUpload, newUpload)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	result.Records = reconcile.Filter(result.Records, boolParam(r, "only_changes"))
	writeJSON(w, http.StatusOK, result)
}

// handleTemplate applies new_data to old_template and streams back the workbook
func (a *API) handleTemplate(w http.ResponseWriter, r *http.Request) {
	if err := a.parseForm(r); err != nil {
		a.writeError(w, r, errors.FromUpload(err, "Template file is required"))
		return
	}
	file, header, err := r.FormFile("old_template")
	if err != nil {
		a.writeError(w, r, errors.FromUpload(err, "Template file is required"))
		return
	}
	defer file.Close()

	items, err := app.ParseUpdateItems([]byte(r.FormValue("new_data")))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	result, err := a.service.UpdateTemplate(r.Context(), app.Upload{Filename: header.Filename, Content: file}, items)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	w.Header().Set("X-Rows-Updated", strconv.Itoa(result.RowsUpdated))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Data)
}

// handleReport renders a comparison as Markdown or HTML (?format=)
func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		a.writeError(w, r, errors.InvalidInput(err.Error()))
		return
	}

	oldUpload, newUpload, closeAll, err := a.comparisonUploads(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer closeAll()

	out, err := a.service.Report(r.Context(), oldUpload, newUpload, format, boolParam(r, "only_changes"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// handleListRuns returns recent audited runs; 503 when no database is configured
func (a *API) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			a.writeError(w, r, errors.InvalidInput("limit must be a positive integer"))
			return
		}
		limit = n
	}

	runs, err := a.service.ListRuns(r.Context(), limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (a *API) parseForm(r *http.Request) error {
	return r.ParseMultipartForm(2 * a.maxUpload)
}

// comparisonUploads opens file1 and file2; the returned func closes both
func (a *API) comparisonUploads(r *http.Request) (app.Upload, app.Upload, func(), error) {
	if err := a.parseForm(r); err != nil {
		return app.Upload{}, app.Upload{}, nil, errors.FromUpload(err, "Both files are required")
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	var uploads [2]app.Upload
	for i, field := range []string{"file1", "file2"} {
		file, header, err := r.FormFile(field)
		if err != nil {
			closeAll()
			return app.Upload{}, app.Upload{}, nil, errors.FromUpload(err, "Both files are required")
		}
		opened = append(opened, file)
		uploads[i] = app.Upload{Filename: header.Filename, Content: file}
	}
	return uploads[0], uploads[1], closeAll, nil
}

func boolParam(r *http.Request, key string) bool {
	v := r.FormValue(key)
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// writeError writes {"error", "code", "request_id"} with the mapped status
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	reqID := middleware.GetReqID(r.Context())
	if status >= http.StatusInternalServerError {
		a.logger.Error("[%s] %s %s failed: %v", reqID, r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, map[string]string{
		"error":      err.Error(),
		"code":       errors.GetCode(err),
		"request_id": reqID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
