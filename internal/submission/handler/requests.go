package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"simkah/internal/domain"
	"simkah/internal/submission/service"
	dErrors "simkah/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// decodeJSON decodes a request body strictly: unknown fields and trailing
// payloads are rejected, and the body is capped at maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body: "+err.Error())
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return dErrors.New(dErrors.CodeBadRequest, "request body must contain a single JSON object")
	}
	return nil
}

var nikPattern = regexp.MustCompile(`^\d{16}$`)

type marriagePayload struct {
	HusbandNIK   string `json:"husband_nik"`
	HusbandName  string `json:"husband_name"`
	WifeNIK      string `json:"wife_nik"`
	WifeName     string `json:"wife_name"`
	MarriageDate string `json:"marriage_date"`
	ScenarioID   int    `json:"scenario_id"`
}

type documentPayload struct {
	Type     string `json:"type"`
	FileRef  string `json:"file_ref"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// SubmissionContentRequest is the body of both create and update: the full
// marriage payload plus the document metadata set.
type SubmissionContentRequest struct {
	Marriage  marriagePayload   `json:"marriage"`
	Documents []documentPayload `json:"documents"`
}

// Validate checks the payload and converts it into service inputs.
func (req *SubmissionContentRequest) Validate() (service.MarriageInput, []domain.Document, error) {
	m := req.Marriage
	if !nikPattern.MatchString(m.HusbandNIK) {
		return service.MarriageInput{}, nil, dErrors.New(dErrors.CodeValidation, "husband_nik must be a 16-digit NIK")
	}
	if !nikPattern.MatchString(m.WifeNIK) {
		return service.MarriageInput{}, nil, dErrors.New(dErrors.CodeValidation, "wife_nik must be a 16-digit NIK")
	}
	if strings.TrimSpace(m.HusbandName) == "" {
		return service.MarriageInput{}, nil, dErrors.New(dErrors.CodeValidation, "husband_name is required")
	}
	if strings.TrimSpace(m.WifeName) == "" {
		return service.MarriageInput{}, nil, dErrors.New(dErrors.CodeValidation, "wife_name is required")
	}
	marriageDate, err := time.Parse(time.DateOnly, m.MarriageDate)
	if err != nil {
		return service.MarriageInput{}, nil, dErrors.New(dErrors.CodeValidation, "marriage_date must be a YYYY-MM-DD date")
	}
	if m.ScenarioID <= 0 {
		return service.MarriageInput{}, nil, dErrors.New(dErrors.CodeValidation, "scenario_id is required")
	}

	docs := make([]domain.Document, 0, len(req.Documents))
	for _, d := range req.Documents {
		docType, err := domain.ParseDocType(d.Type)
		if err != nil {
			return service.MarriageInput{}, nil, err
		}
		if strings.TrimSpace(d.FileRef) == "" {
			return service.MarriageInput{}, nil, dErrors.New(dErrors.CodeValidation, "file_ref is required for every document")
		}
		docs = append(docs, domain.Document{
			Type:     docType,
			FileRef:  d.FileRef,
			Filename: d.Filename,
			MimeType: d.MimeType,
			Size:     d.Size,
		})
	}

	input := service.MarriageInput{
		HusbandNIK:   m.HusbandNIK,
		HusbandName:  strings.TrimSpace(m.HusbandName),
		WifeNIK:      m.WifeNIK,
		WifeName:     strings.TrimSpace(m.WifeName),
		MarriageDate: marriageDate,
		ScenarioID:   m.ScenarioID,
	}
	return input, docs, nil
}

// NotesRequest carries the optional or mandatory notes of a transition.
type NotesRequest struct {
	Notes string `json:"notes"`
}

// DecideRequest carries the verifier's final outcome.
type DecideRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

// Validate maps the decision onto a terminal status.
func (req *DecideRequest) Validate() (domain.Status, error) {
	status, err := domain.ParseStatus(req.Decision)
	if err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "decision must be APPROVED or REJECTED")
	}
	return status, nil
}
