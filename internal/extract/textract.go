package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	textracttypes "github.com/aws/aws-sdk-go-v2/service/textract/types"
)

const (
	defaultPollInterval = time.Second
	defaultMaxPolls     = 120
)

type textractAPI interface {
	StartDocumentTextDetection(ctx context.Context, params *textract.StartDocumentTextDetectionInput, optFns ...func(*textract.Options)) (*textract.StartDocumentTextDetectionOutput, error)
	GetDocumentTextDetection(ctx context.Context, params *textract.GetDocumentTextDetectionInput, optFns ...func(*textract.Options)) (*textract.GetDocumentTextDetectionOutput, error)
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// Textract extracts text through AWS Textract against the stored S3
// object. PDFs run as an asynchronous detection job polled at a fixed
// interval with a bounded attempt count; DOCX payloads go through the
// synchronous detection call.
type Textract struct {
	client textractAPI
	bucket string
	prefix string

	pollInterval time.Duration
	maxPolls     int
}

// NewTextract constructs a Textract-backed extractor for objects in the
// given bucket.
func NewTextract(ctx context.Context, region, bucket, prefix string) (*Textract, error) {
	if bucket == "" {
		return nil, fmt.Errorf("textract extractor requires an s3 bucket")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Textract{
		client:       textract.NewFromConfig(cfg),
		bucket:       bucket,
		prefix:       strings.Trim(strings.TrimSpace(prefix), "/"),
		pollInterval: defaultPollInterval,
		maxPolls:     defaultMaxPolls,
	}, nil
}

func (t *Textract) Extract(ctx context.Context, doc Document) (string, error) {
	objectKey := doc.Key
	if t.prefix != "" {
		objectKey = t.prefix + "/" + doc.Key
	}

	var (
		text string
		err  error
	)
	switch {
	case strings.HasSuffix(strings.ToLower(doc.Key), ".pdf"):
		text, err = t.extractAsync(ctx, objectKey)
	case strings.HasSuffix(strings.ToLower(doc.Key), ".docx"):
		text, err = t.extractSync(ctx, objectKey)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, doc.Key)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("textract key=%s: %w", doc.Key, ErrEmptyText)
	}
	return text, nil
}

// extractAsync runs the Pending -> Succeeded/Failed job state machine:
// start a detection job, poll at a fixed interval until a terminal
// status or the attempt bound, then page through results with the
// continuation token until it is exhausted.
func (t *Textract) extractAsync(ctx context.Context, objectKey string) (string, error) {
	start, err := t.client.StartDocumentTextDetection(ctx, &textract.StartDocumentTextDetectionInput{
		DocumentLocation: &textracttypes.DocumentLocation{
			S3Object: &textracttypes.S3Object{
				Bucket: aws.String(t.bucket),
				Name:   aws.String(objectKey),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("textract start detection bucket=%s key=%s: %w", t.bucket, objectKey, err)
	}
	jobID := aws.ToString(start.JobId)

	var first *textract.GetDocumentTextDetectionOutput
	for attempt := 0; ; attempt++ {
		if attempt >= t.maxPolls {
			return "", fmt.Errorf("textract job %s still running after %d polls: %w", jobID, t.maxPolls, ErrJobFailed)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(t.pollInterval):
		}

		status, err := t.client.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
			JobId: aws.String(jobID),
		})
		if err != nil {
			return "", fmt.Errorf("textract get detection job=%s: %w", jobID, err)
		}

		switch status.JobStatus {
		case textracttypes.JobStatusSucceeded:
			first = status
		case textracttypes.JobStatusFailed, textracttypes.JobStatusPartialSuccess:
			return "", fmt.Errorf("textract job %s status=%s: %w", jobID, status.JobStatus, ErrJobFailed)
		default:
			continue
		}
		break
	}

	var buf strings.Builder
	appendLines(&buf, first.Blocks)

	nextToken := first.NextToken
	for nextToken != nil {
		page, err := t.client.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
			JobId:     aws.String(jobID),
			NextToken: nextToken,
		})
		if err != nil {
			return "", fmt.Errorf("textract get detection page job=%s: %w", jobID, err)
		}
		appendLines(&buf, page.Blocks)
		nextToken = page.NextToken
	}

	return buf.String(), nil
}

func (t *Textract) extractSync(ctx context.Context, objectKey string) (string, error) {
	out, err := t.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &textracttypes.Document{
			S3Object: &textracttypes.S3Object{
				Bucket: aws.String(t.bucket),
				Name:   aws.String(objectKey),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("textract detect text bucket=%s key=%s: %w", t.bucket, objectKey, err)
	}

	var buf strings.Builder
	appendLines(&buf, out.Blocks)
	return buf.String(), nil
}

func appendLines(buf *strings.Builder, blocks []textracttypes.Block) {
	for _, block := range blocks {
		if block.BlockType == textracttypes.BlockTypeLine {
			buf.WriteString(aws.ToString(block.Text))
			buf.WriteString("\n")
		}
	}
}

var _ Extractor = (*Textract)(nil)
