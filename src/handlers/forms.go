package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/joeg-ita/jobdrop/src/domain"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	time.RFC3339,
}

// submissionFromForm reads the multipart form. Missing fields are left empty
// for the pipeline's validation stage; malformed values are rejected here.
// Faults reading the uploaded file are returned unmarked.
func submissionFromForm(c *gin.Context) (domain.JobSubmission, error) {
	sub := domain.JobSubmission{
		JobTitle: c.PostForm("jobTitle"),
	}

	if raw := strings.TrimSpace(c.PostForm("order")); raw != "" {
		order, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return sub, domain.NewValidationError(errors.Newf("order %q is not a number", raw))
		}
		sub.OrderValue = &order
	}

	if raw := strings.TrimSpace(c.PostForm("date")); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			return sub, domain.NewValidationError(err)
		}
		sub.Date = date
	}

	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return sub, nil
		}
		return sub, domain.NewValidationError(errors.Wrap(err, "reading multipart form"))
	}

	file, err := header.Open()
	if err != nil {
		return sub, errors.Wrap(err, "opening uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return sub, errors.Wrap(err, "reading uploaded file")
	}
	sub.FileData = data
	sub.FileType = header.Header.Get("Content-Type")
	if sub.FileType == "" && len(data) > 0 {
		sub.FileType = mimetype.Detect(data).String()
	}

	return sub, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Newf("date %q is not a valid date", raw)
}
