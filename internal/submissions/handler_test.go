package submissions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/applications"
	"intake-backend/internal/cv"
	"intake-backend/internal/email"
	"intake-backend/internal/extract"
	"intake-backend/internal/notify"
	"intake-backend/internal/shared/storage/object"
)

// fakeStore is safe for the parallel upload fan-out.
type fakeStore struct {
	mu     sync.Mutex
	stored int
	err    error
}

func (f *fakeStore) Store(ctx context.Context, fileName string, r io.Reader) (object.StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return object.StoredFile{}, f.err
	}
	f.stored++
	key := fmt.Sprintf("key-%d.pdf", f.stored)
	data, _ := io.ReadAll(r)
	return object.StoredFile{
		Key:       key,
		PublicURL: "https://cv-bucket.s3.amazonaws.com/" + key,
		MimeType:  "application/pdf",
		SizeBytes: int64(len(data)),
	}, nil
}

func (f *fakeStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, doc extract.Document) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type scriptedLLM struct {
	response string
	err      error
	calls    int
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type fakeSink struct {
	records []applications.ApplicationRecord
	err     error
}

func (f *fakeSink) Append(ctx context.Context, record applications.ApplicationRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

type fakeNotifier struct {
	payloads []notify.Payload
	err      error
}

func (f *fakeNotifier) Notify(ctx context.Context, payload notify.Payload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeEmailSender struct {
	sent []email.Message
}

func (f *fakeEmailSender) Send(ctx context.Context, msg email.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

type fakeEmailScheduler struct {
	scheduled []email.Message
}

func (f *fakeEmailScheduler) Schedule(ctx context.Context, msg email.Message) error {
	f.scheduled = append(f.scheduled, msg)
	return nil
}

type pipelineFixture struct {
	store     *fakeStore
	extractor *fakeExtractor
	llm       *scriptedLLM
	sink      *fakeSink
	notifier  *fakeNotifier
	sender    *fakeEmailSender
	scheduler *fakeEmailScheduler
	router    *gin.Engine
}

const modelReply = `Here you go:
{"personal_info":{"name":"Jane Doe","email":"jane@example.com","phone":"+15550100","address":"","linkedin":""},
"education":[{"institution":"MIT","degree":"BSc Computer Science","years":"2015-2019"}],
"qualifications":["Go"],"projects":[]}`

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		store:     &fakeStore{},
		extractor: &fakeExtractor{text: "Jane Doe\nSoftware Engineer"},
		llm:       &scriptedLLM{response: modelReply},
		sink:      &fakeSink{},
		notifier:  &fakeNotifier{},
		sender:    &fakeEmailSender{},
		scheduler: &fakeEmailScheduler{},
	}

	svc := &Service{
		Store:      f.store,
		Extractor:  f.extractor,
		Structurer: &cv.Structurer{LLM: f.llm},
		Sink:       f.sink,
		Notifier:   f.notifier,
		Sender:     f.sender,
		Scheduler:  f.scheduler,
		Status:     "submitted",
		Now:        func() time.Time { return time.Date(2025, time.June, 3, 15, 0, 0, 0, time.UTC) },
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	f.router = r
	return f
}

type formFile struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for _, file := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.name))
		hdr.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(file.data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"name":  "Jane Doe",
		"email": "jane@example.com",
		"phone": "+15550100",
	}
}

func pdfFile() formFile {
	return formFile{
		field:       "cv",
		name:        "resume.pdf",
		contentType: "application/pdf",
		data:        []byte("%PDF-1.4 fake content"),
	}
}

func submit(t *testing.T, f *pipelineFixture, fields map[string]string, files ...formFile) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, files...)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestSubmissionHappyPath(t *testing.T) {
	f := newPipelineFixture(t)

	w := submit(t, f, validFields(), pdfFile())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp submitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatal("success = false")
	}
	if !strings.HasPrefix(resp.FileURL, "https://cv-bucket.s3.amazonaws.com/") {
		t.Fatalf("fileUrl = %q", resp.FileURL)
	}

	if len(f.sink.records) != 1 {
		t.Fatalf("records = %d, want 1", len(f.sink.records))
	}
	record := f.sink.records[0]
	if record.Name != "Jane Doe" || record.Email != "jane@example.com" {
		t.Fatalf("record = %+v", record)
	}
	if !strings.Contains(record.Education, "BSc Computer Science") {
		t.Fatalf("education column = %q", record.Education)
	}
	if record.CVURL != resp.FileURL {
		t.Fatalf("cv url = %q, want %q", record.CVURL, resp.FileURL)
	}

	if len(f.notifier.payloads) != 1 {
		t.Fatalf("webhooks = %d, want 1", len(f.notifier.payloads))
	}
	payload := f.notifier.payloads[0]
	if payload.Metadata.ApplicantName != "Jane Doe" {
		t.Fatalf("applicant_name = %q", payload.Metadata.ApplicantName)
	}
	if !payload.Metadata.CVProcessed {
		t.Fatal("cv_processed = false")
	}
	if payload.CVData.CVPublicLink != resp.FileURL {
		t.Fatalf("cv_public_link = %q", payload.CVData.CVPublicLink)
	}

	if len(f.sender.sent) != 1 {
		t.Fatalf("confirmation emails = %d, want 1", len(f.sender.sent))
	}
	if f.sender.sent[0].Subject != "Application Received" {
		t.Fatalf("confirmation subject = %q", f.sender.sent[0].Subject)
	}

	if len(f.scheduler.scheduled) != 1 {
		t.Fatalf("scheduled = %d, want 1", len(f.scheduler.scheduled))
	}
	followUp := f.scheduler.scheduled[0]
	// Submitted Tuesday afternoon; the follow-up lands Wednesday 10:00.
	want := time.Date(2025, time.June, 4, 10, 0, 0, 0, time.UTC)
	if !followUp.SendAt.Equal(want) {
		t.Fatalf("follow-up sendAt = %s, want %s", followUp.SendAt, want)
	}
}

func TestSubmissionMissingFile(t *testing.T) {
	f := newPipelineFixture(t)

	w := submit(t, f, validFields())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	if f.store.stored != 0 {
		t.Fatal("file stored despite validation failure")
	}
	if f.extractor.calls != 0 || f.llm.calls != 0 {
		t.Fatal("pipeline ran despite validation failure")
	}
	if len(f.sink.records) != 0 || len(f.notifier.payloads) != 0 {
		t.Fatal("downstream invoked despite validation failure")
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != "validation_error" {
		t.Fatalf("error code = %v", body["error"])
	}
	if _, ok := body["message"].(string); !ok {
		t.Fatalf("message missing: %v", body)
	}
}

func TestSubmissionMissingFields(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
	}{
		{"missing name", map[string]string{"email": "a@b.c", "phone": "1"}},
		{"missing email", map[string]string{"name": "A", "phone": "1"}},
		{"missing phone", map[string]string{"name": "A", "email": "a@b.c"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPipelineFixture(t)
			w := submit(t, f, tc.fields, pdfFile())
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if f.store.stored != 0 {
				t.Fatal("file stored despite validation failure")
			}
		})
	}
}

func TestSubmissionRejectsUnsupportedFile(t *testing.T) {
	f := newPipelineFixture(t)

	w := submit(t, f, validFields(), formFile{
		field:       "cv",
		name:        "notes.txt",
		contentType: "text/plain",
		data:        []byte("hello"),
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if f.store.stored != 0 {
		t.Fatal("unsupported file reached storage")
	}
}

func TestSubmissionAcceptsFileField(t *testing.T) {
	f := newPipelineFixture(t)

	file := pdfFile()
	file.field = "file"
	w := submit(t, f, validFields(), file)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestSubmissionExtractionFailureIs422(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"empty text", fmt.Errorf("extract: %w", extract.ErrEmptyText)},
		{"unsupported format", fmt.Errorf("extract: %w", extract.ErrUnsupportedFormat)},
		{"job failed", fmt.Errorf("textract: %w", extract.ErrJobFailed)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPipelineFixture(t)
			f.extractor.err = tc.err

			w := submit(t, f, validFields(), pdfFile())
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", w.Code)
			}

			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body["error"] != "extraction_error" {
				t.Fatalf("error code = %v", body["error"])
			}
			if len(f.sink.records) != 0 || len(f.notifier.payloads) != 0 {
				t.Fatal("downstream invoked after extraction failure")
			}
		})
	}
}

func TestSubmissionStorageFailureIs500(t *testing.T) {
	f := newPipelineFixture(t)
	f.store.err = errors.New("s3 unavailable")

	w := submit(t, f, validFields(), pdfFile())
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != "storage_error" {
		t.Fatalf("error code = %v", body["error"])
	}
}

func TestSubmissionSinkFailureIs500(t *testing.T) {
	f := newPipelineFixture(t)
	f.sink.err = errors.New("sheets quota exceeded")

	w := submit(t, f, validFields(), pdfFile())
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != "record_error" {
		t.Fatalf("error code = %v", body["error"])
	}
	if len(f.notifier.payloads) != 0 {
		t.Fatal("webhook fired after sink failure")
	}
}

func TestSubmissionMalformedModelOutputStillSucceeds(t *testing.T) {
	f := newPipelineFixture(t)
	f.llm.response = "I am sorry, I cannot do that."

	w := submit(t, f, validFields(), pdfFile())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	if len(f.sink.records) != 1 {
		t.Fatalf("records = %d, want 1", len(f.sink.records))
	}
	record := f.sink.records[0]
	if record.Education != "[]" {
		t.Fatalf("education column = %q, want empty fallback", record.Education)
	}
	// The form fields still identify the applicant even when the model
	// output is unusable.
	if record.Name != "Jane Doe" {
		t.Fatalf("record name = %q", record.Name)
	}
}

func TestSubmissionModelTransportFailureIs500(t *testing.T) {
	f := newPipelineFixture(t)
	f.llm.err = errors.New("gemini: connection refused")

	w := submit(t, f, validFields(), pdfFile())
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != "structuring_error" {
		t.Fatalf("error code = %v", body["error"])
	}
}

func TestSubmissionWebhookFailureIs500ButRecordKept(t *testing.T) {
	f := newPipelineFixture(t)
	f.notifier.err = errors.New("webhook endpoint down")

	w := submit(t, f, validFields(), pdfFile())
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	// The record was appended before notification; nothing rolls back.
	if len(f.sink.records) != 1 {
		t.Fatalf("records = %d, want 1", len(f.sink.records))
	}
}

func TestSubmissionMultipleFilesAllStored(t *testing.T) {
	f := newPipelineFixture(t)

	second := pdfFile()
	second.name = "cover-letter.pdf"
	w := submit(t, f, validFields(), pdfFile(), second)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if f.store.stored != 2 {
		t.Fatalf("stored = %d, want 2", f.store.stored)
	}
	// Only the primary file is extracted and structured.
	if f.extractor.calls != 1 {
		t.Fatalf("extractor calls = %d, want 1", f.extractor.calls)
	}
	if f.llm.calls != 1 {
		t.Fatalf("llm calls = %d, want 1", f.llm.calls)
	}
}
