package ui

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"pricesheet/app"
	"pricesheet/internal/errors"
	"pricesheet/internal/report"

	"github.com/gin-gonic/gin"
)

const (
	msgBothFiles = "Both files are required"
	msgTemplate  = "Template file is required"
)

// handleIndex renders the upload page
func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, "index.html", gin.H{
		"MaxUploadMB": s.maxUpload / (1024 * 1024),
		"HeaderRow":   s.service.HeaderRow() + 1,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleCompare reconciles file1 (old) against file2 (new)
func (s *Server) handleCompare(c *gin.Context) {
	oldUpload, newUpload, closeAll, err := s.comparisonUploads(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer closeAll()

	result, err := s.service.Compare(c.Request.Context(), oldUpload, newUpload)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": result.Records,
		"summary": result.Summary,
	})
}

// handleUpdateTemplate writes the selected rows into old_template and
// returns the workbook as a download
func (s *Server) handleUpdateTemplate(c *gin.Context) {
	file, header, err := c.Request.FormFile("old_template")
	if err != nil {
		s.respondError(c, errors.FromUpload(err, msgTemplate))
		return
	}
	defer file.Close()

	items, err := app.ParseUpdateItems([]byte(c.PostForm("new_data")))
	if err != nil {
		s.respondError(c, err)
		return
	}

	result, err := s.service.UpdateTemplate(c.Request.Context(), app.Upload{Filename: header.Filename, Content: file}, items)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	c.Header("X-Rows-Updated", strconv.Itoa(result.RowsUpdated))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// handleReport compares file1 and file2 and returns a Markdown or HTML report
func (s *Server) handleReport(c *gin.Context) {
	format, err := report.ParseFormat(c.PostForm("format"))
	if err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}

	oldUpload, newUpload, closeAll, err := s.comparisonUploads(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer closeAll()

	out, err := s.service.Report(c.Request.Context(), oldUpload, newUpload, format, formBool(c, "only_changes"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), out)
}

// comparisonUploads opens file1 and file2; the returned func closes both
func (s *Server) comparisonUploads(c *gin.Context) (app.Upload, app.Upload, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	var uploads [2]app.Upload
	for i, field := range []string{"file1", "file2"} {
		file, header, err := c.Request.FormFile(field)
		if err != nil {
			closeAll()
			return app.Upload{}, app.Upload{}, nil, errors.FromUpload(err, msgBothFiles)
		}
		opened = append(opened, file)
		uploads[i] = app.Upload{Filename: header.Filename, Content: file}
	}
	return uploads[0], uploads[1], closeAll, nil
}

// respondError writes {"error", "code"} with the status mapped from the error code
func (s *Server) respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		s.logger.Debug("%s %s rejected: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}

// renderTemplate executes a template into a buffer before writing the response
func (s *Server) renderTemplate(c *gin.Context, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("template %s failed: %v", name, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func formBool(c *gin.Context, key string) bool {
	v := c.PostForm(key)
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
