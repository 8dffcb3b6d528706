package submissions

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"intake-backend/internal/extract"
	"intake-backend/internal/shared/metrics"
	"intake-backend/internal/shared/server/respond"
	"intake-backend/internal/shared/util"
)

const maxUploadSize = 10 << 20 // 10MB

var allowedContentTypes = map[string]struct{}{
	"application/pdf": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

var allowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
}

// Handler wires the submission endpoint to the pipeline service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches submission routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/submissions", h.submit)
}

func (h *Handler) submit(c *gin.Context) {
	metrics.IncSubmissionReceived()
	start := metrics.NowMillis()

	submissionID := uuid.NewString()
	c.Set("submissionId", submissionID)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	form, err := c.MultipartForm()
	if err != nil {
		h.fail(c, http.StatusBadRequest, "validation_error", "invalid multipart form", StageValidation)
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	mail := strings.TrimSpace(c.PostForm("email"))
	phone := strings.TrimSpace(c.PostForm("phone"))

	if name == "" || mail == "" || phone == "" {
		h.fail(c, http.StatusBadRequest, "validation_error", "name, email and phone are required", StageValidation)
		return
	}

	headers := collectFiles(form)
	if len(headers) == 0 {
		h.fail(c, http.StatusBadRequest, "validation_error", "cv file is required", StageValidation)
		return
	}

	files := make([]FileInput, 0, len(headers))
	for _, fh := range headers {
		if _, err := util.SanitizeFileName(fh.Filename); err != nil {
			h.fail(c, http.StatusBadRequest, "validation_error", "invalid file name", StageValidation)
			return
		}
		if !allowedFile(fh) {
			h.fail(c, http.StatusBadRequest, "validation_error", "only PDF and DOCX files are accepted", StageValidation)
			return
		}

		data, err := readFile(fh)
		if err != nil {
			h.fail(c, http.StatusBadRequest, "validation_error", "unable to read file", StageValidation)
			return
		}
		if len(data) == 0 {
			h.fail(c, http.StatusBadRequest, "validation_error", "file is empty", StageValidation)
			return
		}

		files = append(files, FileInput{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	res, err := h.Svc.Process(c.Request.Context(), SubmissionInput{
		SubmissionID: submissionID,
		Name:         name,
		Email:        mail,
		Phone:        phone,
		Files:        files,
	})
	if err != nil {
		h.failProcess(c, err)
		return
	}

	metrics.IncSubmissionCompleted()
	metrics.ObserveSubmissionDurationMs(metrics.NowMillis() - start)
	respond.OK(c, toResponse(res))
}

func (h *Handler) failProcess(c *gin.Context, err error) {
	stage := FailedStage(err)
	switch {
	case stage == StageExtraction && isUnprocessable(err):
		h.fail(c, http.StatusUnprocessableEntity, "extraction_error", "could not extract usable text from the document", stage)
	default:
		h.fail(c, http.StatusInternalServerError, string(stage)+"_error", "failed to process application", stage)
	}
}

func (h *Handler) fail(c *gin.Context, status int, code, message string, stage Stage) {
	metrics.IncSubmissionFailed()
	c.Set("failedStage", string(stage))
	respond.Error(c, status, code, message, nil)
}

func isUnprocessable(err error) bool {
	return errors.Is(err, extract.ErrEmptyText) ||
		errors.Is(err, extract.ErrUnsupportedFormat) ||
		errors.Is(err, extract.ErrJobFailed)
}

// collectFiles gathers uploads from both accepted field names. The
// browser form posts the résumé as "cv"; "file" is kept for older
// clients.
func collectFiles(form *multipart.Form) []*multipart.FileHeader {
	var headers []*multipart.FileHeader
	for _, field := range []string{"cv", "file"} {
		headers = append(headers, form.File[field]...)
	}
	return headers
}

func allowedFile(fh *multipart.FileHeader) bool {
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(fh.Header.Get("Content-Type"), ";")[0]))
	if _, ok := allowedContentTypes[contentType]; ok {
		return true
	}
	_, ok := allowedExtensions[util.FileExtension(fh.Filename)]
	return ok
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
