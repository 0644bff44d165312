package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"

	"baches/internal/apperr"
	"baches/internal/media/sniffer"
	"baches/internal/metrics"
	"baches/internal/middleware"
	"baches/internal/models"
	"baches/internal/report"
)

// multipart bodies carry the photo plus a handful of short fields.
const formOverhead = 1 << 20

type createReportRequest struct {
	Description string           `json:"description"`
	Severity    string           `json:"severity"`
	Comments    string           `json:"comments"`
	Location    *models.Location `json:"location"`
	Photo       string           `json:"photo"`
}

func (h HandlerSet) ListReports(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	filter, err := report.ParseFilter(c.Query("severity"))
	if err != nil {
		h.respondError(c, apperr.NewValidation("severity", err.Error()), gin.H{"reports": []models.Report{}})
		return
	}
	sortKey, err := report.ParseSort(c.Query("sort"))
	if err != nil {
		h.respondError(c, apperr.NewValidation("sort", err.Error()), gin.H{"reports": []models.Report{}})
		return
	}

	reports, err := h.reports.List(c.Request.Context(), sess, filter, sortKey)
	if err != nil {
		metrics.RemoteErrorsTotal.WithLabelValues("reports").Inc()
		h.respondError(c, err, gin.H{"reports": []models.Report{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports":  reports,
		"severity": filter,
		"sort":     sortKey,
		"count":    len(reports),
	})
}

func (h HandlerSet) CreateReport(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	var (
		input report.SubmitInput
		err   error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		input, err = h.bindMultipartReport(c)
	} else {
		input, err = h.bindJSONReport(c)
	}
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	created, err := h.reports.Submit(c.Request.Context(), sess, input)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"report": created})
}

func (h HandlerSet) bindJSONReport(c *gin.Context) (report.SubmitInput, error) {
	if limit := h.maxPhotoBytes(); limit > 0 {
		// base64 inflates by 4/3
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit*4/3+formOverhead)
	}

	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return report.SubmitInput{}, apperr.NewValidation("body", err.Error())
	}

	input := report.SubmitInput{
		Description: req.Description,
		Severity:    req.Severity,
		Comments:    req.Comments,
		Location:    req.Location,
	}
	if req.Photo != "" {
		contentType, data, err := sniffer.ParseDataURI(req.Photo)
		if err != nil {
			return report.SubmitInput{}, apperr.NewValidation("photo", "expected an image data URI")
		}
		input.Photo = &report.Photo{ContentType: contentType, Data: data}
	}
	return input, nil
}

func (h HandlerSet) bindMultipartReport(c *gin.Context) (report.SubmitInput, error) {
	if limit := h.maxPhotoBytes(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+formOverhead)
	}

	input := report.SubmitInput{
		Description: c.PostForm("description"),
		Severity:    c.PostForm("severity"),
		Comments:    c.PostForm("comments"),
	}

	if lat, lng := c.PostForm("lat"), c.PostForm("lng"); lat != "" || lng != "" {
		loc, err := parseLatLng(lat, lng)
		if err != nil {
			return report.SubmitInput{}, err
		}
		input.Location = &loc
	}

	file, header, err := c.Request.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return input, nil
	}
	if err != nil {
		return report.SubmitInput{}, apperr.NewValidation("photo", err.Error())
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return report.SubmitInput{}, apperr.NewValidation("photo", "unreadable upload")
	}
	input.Photo = &report.Photo{
		ContentType: sniffer.MimeTypeFromHTTP(http.Header(header.Header)),
		Data:        data,
	}
	return input, nil
}

func (h HandlerSet) maxPhotoBytes() int64 {
	return int64(h.cfg.Storage.MaxPhotoMB) << 20
}

func (h HandlerSet) DeleteReport(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	if err := h.reports.Delete(c.Request.Context(), sess, c.Param("id")); err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) ReportMap(c *gin.Context) {
	sess, _ := middleware.CurrentSession(c)

	filter, err := report.ParseFilter(c.Query("severity"))
	if err != nil {
		h.respondError(c, apperr.NewValidation("severity", err.Error()), nil)
		return
	}

	fc, err := h.reports.Markers(c.Request.Context(), sess, filter)
	if err != nil {
		status := http.StatusBadGateway
		if apperr.IsAuth(err) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, geojson.NewFeatureCollection())
		return
	}
	c.JSON(http.StatusOK, fc)
}

func parseLatLng(lat, lng string) (models.Location, error) {
	verr := &apperr.ValidationError{}
	latV, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		verr.Add("lat", "must be a number")
	}
	lngV, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		verr.Add("lng", "must be a number")
	}
	if !verr.Empty() {
		return models.Location{}, verr
	}
	return models.Location{Lat: latV, Lng: lngV}, nil
}
