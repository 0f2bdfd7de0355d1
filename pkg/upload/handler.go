package upload

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// HandlerConfig configures the staging HTTP handler.
type HandlerConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes.
	// Default: 10MB.
	MaxFileSize int64

	// AllowedTypes restricts uploads to these MIME types. Empty allows
	// all types.
	AllowedTypes []string

	// StageExpiry is how long staged files live before Sweep removes
	// them. Default: 1 hour. Informational for callers running sweeps;
	// the handler itself does not sweep.
	StageExpiry time.Duration
}

// DefaultHandlerConfig returns a HandlerConfig with defaults.
func DefaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		MaxFileSize: 10 << 20,
		StageExpiry: time.Hour,
	}
}

// Handler returns the staging endpoint with default configuration.
// Mount it on a router: r.Post("/upload", upload.Handler(store))
//
// The endpoint expects a multipart form with a "file" field and responds
// with the staging ID:
//
//	{"upload_id": "abc123"}
func Handler(store Store) http.Handler {
	return HandlerWithConfig(store, DefaultHandlerConfig())
}

// HandlerWithConfig returns the staging endpoint with custom configuration.
func HandlerWithConfig(store Store, config *HandlerConfig) http.Handler {
	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = 10 << 20
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Bound the body before parsing.
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "No file provided", http.StatusBadRequest)
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !typeAllowed(config.AllowedTypes, contentType) {
			http.Error(w, "Content type not allowed", http.StatusUnsupportedMediaType)
			return
		}

		id, err := store.Stage(r.Context(), Meta{
			Filename:    header.Filename,
			ContentType: contentType,
			Size:        header.Size,
		}, file)
		if err != nil {
			if errors.Is(err, ErrTooLarge) {
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Upload failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"upload_id": id})
	})
}

func typeAllowed(allowed []string, contentType string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == contentType {
			return true
		}
	}
	return false
}
