package uploads

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JaimeStill/agent-console/internal/backend"
)

var (
	ErrAuthentication = errors.New("embedding api authentication failed")
	ErrEmbeddingModel = errors.New("invalid embedding model")
	ErrUploadFailed   = errors.New("upload failed")
)

// Kind selects the remediation shown for a failed upload.
type Kind int

const (
	KindGeneric Kind = iota
	KindAuthentication
	KindEmbeddingModel
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindEmbeddingModel:
		return "embedding_model"
	default:
		return "generic"
	}
}

// Error is the structured failure surfaced for one file.
type Error struct {
	Kind     Kind
	Title    string
	Message  string
	FileName string
	Err      error
}

func (e *Error) Error() string {
	return e.Title + ": " + e.FileName + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindAuthentication:
		return target == ErrAuthentication
	case KindEmbeddingModel:
		return target == ErrEmbeddingModel
	default:
		return target == ErrUploadFailed
	}
}

const (
	titleAuthentication = "Embedding API Authentication Failed"
	titleEmbeddingModel = "Invalid Embedding Model"
	titleGeneric        = "Upload Failed"

	msgAuthentication = "The API key does not have access to the configured embedding model. Please verify your API key permissions."
	msgEmbeddingModel = "The configured embedding model is invalid or not found. Please check the agent's embedding model configuration."
	msgUnexpected     = "An unexpected error occurred during upload."
	msgProcessing     = "Document processing failed. Please try again."
)

// Classify maps an upload call failure to a structured error. Rejections
// from the service are classified by status and detail; anything else is a
// generic failure carrying the error text.
func Classify(fileName string, err error) *Error {
	var se *backend.StatusError
	if !errors.As(err, &se) {
		msg := msgUnexpected
		if err != nil && err.Error() != "" {
			msg = err.Error()
		}
		return &Error{Kind: KindGeneric, Title: titleGeneric, Message: msg, FileName: fileName, Err: err}
	}

	detail := providedDetail(se)
	switch {
	case se.StatusCode == http.StatusUnauthorized:
		return &Error{
			Kind:     KindAuthentication,
			Title:    titleAuthentication,
			Message:  orDefault(detail, msgAuthentication),
			FileName: fileName,
			Err:      err,
		}
	case se.StatusCode == http.StatusBadRequest && strings.Contains(detail, "Embedding"):
		return &Error{
			Kind:     KindEmbeddingModel,
			Title:    titleEmbeddingModel,
			Message:  orDefault(detail, msgEmbeddingModel),
			FileName: fileName,
			Err:      err,
		}
	default:
		return &Error{
			Kind:     KindGeneric,
			Title:    titleGeneric,
			Message:  orDefault(detail, "Failed to upload document: "+http.StatusText(se.StatusCode)),
			FileName: fileName,
			Err:      err,
		}
	}
}

func processingFailed(fileName, message string) *Error {
	return &Error{
		Kind:     KindGeneric,
		Title:    titleGeneric,
		Message:  orDefault(message, msgProcessing),
		FileName: fileName,
	}
}

// providedDetail is the service's own explanation, or empty when the
// StatusError only carries the status text.
func providedDetail(se *backend.StatusError) string {
	if se.Detail == http.StatusText(se.StatusCode) {
		return ""
	}
	return se.Detail
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
