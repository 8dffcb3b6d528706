package submissions

// FileInput is one uploaded file from the multipart form.
type FileInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// SubmissionInput is the validated form payload handed to the pipeline.
// The first file is the analyzed CV; any extras are stored alongside it.
type SubmissionInput struct {
	SubmissionID string
	Name         string
	Email        string
	Phone        string
	Files        []FileInput
}

// Result reports a completed submission.
type Result struct {
	SubmissionID string
	FileURL      string
	RecordID     string
}

type submitResponse struct {
	Success bool   `json:"success"`
	FileURL string `json:"fileUrl"`
}

func toResponse(res Result) submitResponse {
	return submitResponse{
		Success: true,
		FileURL: res.FileURL,
	}
}
