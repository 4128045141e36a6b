package domain

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// JobSubmission is the input of the upload pipeline: job metadata plus the
// uploaded file, fully buffered in memory.
type JobSubmission struct {
	JobTitle   string    `validate:"required"`
	OrderValue *float64  `validate:"omitempty"`
	Date       time.Time `validate:"required"`
	FileData   []byte    `validate:"required,min=1"`
	FileType   string    `validate:"required"`
}

// Validate runs before any side effecting call.
func (s *JobSubmission) Validate() error {
	s.JobTitle = strings.TrimSpace(s.JobTitle)
	s.FileType = strings.TrimSpace(s.FileType)
	if err := validate.Struct(s); err != nil {
		return NewValidationError(describe(err))
	}
	return nil
}

// JobRecord is the persisted document. It is written once and never updated.
type JobRecord struct {
	ID         string    `json:"id" bson:"_id" validate:"required,uuid4"`
	JobTitle   string    `json:"jobTitle" bson:"jobTitle" validate:"required"`
	OrderValue *float64  `json:"orderValue,omitempty" bson:"orderValue,omitempty"`
	Date       time.Time `json:"date" bson:"date" validate:"required"`
	FileURL    string    `json:"fileUrl" bson:"fileUrl" validate:"required,url"`
	FileData   []byte    `json:"-" bson:"fileData" validate:"required,min=1"`
	FileType   string    `json:"fileType" bson:"fileType" validate:"required"`
}

// NewJobRecord builds the record for a submission whose file is already
// stored at fileURL. Bytes and MIME type come from the submission, never
// from the blob store.
func NewJobRecord(sub JobSubmission, fileURL string) (JobRecord, error) {
	job := JobRecord{
		ID:         uuid.New().String(),
		JobTitle:   sub.JobTitle,
		OrderValue: sub.OrderValue,
		Date:       sub.Date,
		FileURL:    fileURL,
		FileData:   sub.FileData,
		FileType:   sub.FileType,
	}

	err := job.Validate()
	if err != nil {
		return JobRecord{}, err
	}

	return job, nil
}

func (j *JobRecord) Validate() error {
	if err := validate.Struct(j); err != nil {
		return NewValidationError(describe(err))
	}
	return nil
}

// describe flattens validator output into "field: rule" pairs.
func describe(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Field()+" is "+rule(fe.Tag()))
	}
	return errors.New(strings.Join(msgs, ", "))
}

func rule(tag string) string {
	switch tag {
	case "required", "min":
		return "required"
	case "url":
		return "not a valid url"
	case "uuid4":
		return "not a valid uuid"
	default:
		return "invalid (" + tag + ")"
	}
}
