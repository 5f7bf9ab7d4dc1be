package printing

import (
	"path/filepath"
	"strings"
	"time"
)

// Media types accepted for upload.
const (
	MediaTypePDF            = "application/pdf"
	MediaTypePNG            = "image/png"
	MediaTypeJPEG           = "image/jpeg"
	MediaTypeJPG            = "image/jpg"
	MediaTypeGIF            = "image/gif"
	MediaTypeBMP            = "image/bmp"
	MediaTypeTIFF           = "image/tiff"
	MediaTypePostScript     = "application/postscript"
	MediaTypeCUPSPostScript = "application/vnd.cups-postscript"
)

var acceptedMediaTypes = map[string]struct{}{
	MediaTypePDF:            {},
	MediaTypePNG:            {},
	MediaTypeJPEG:           {},
	MediaTypeJPG:            {},
	MediaTypeGIF:            {},
	MediaTypeBMP:            {},
	MediaTypeTIFF:           {},
	MediaTypePostScript:     {},
	MediaTypeCUPSPostScript: {},
}

// IsAcceptedMediaType reports whether documents of this type may be stored.
// Parameters such as "; charset=..." are ignored.
func IsAcceptedMediaType(mediaType string) bool {
	_, ok := acceptedMediaTypes[baseMediaType(mediaType)]
	return ok
}

// AcceptedMediaTypes returns the accepted media types in a stable order
func AcceptedMediaTypes() []string {
	return []string{
		MediaTypePDF, MediaTypePNG, MediaTypeJPEG, MediaTypeJPG, MediaTypeGIF,
		MediaTypeBMP, MediaTypeTIFF, MediaTypePostScript, MediaTypeCUPSPostScript,
	}
}

func baseMediaType(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// ContentTypeForName derives the preview content type from a file extension.
// Anything without a known image extension is served as application/pdf.
func ContentTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return MediaTypePNG
	case ".jpg", ".jpeg":
		return MediaTypeJPEG
	case ".gif":
		return MediaTypeGIF
	case ".bmp":
		return MediaTypeBMP
	case ".tif", ".tiff":
		return MediaTypeTIFF
	default:
		return MediaTypePDF
	}
}

// DocumentHandle references a stored document.
// ID is the file name relative to the storage root; it is the only reference
// that is handed to clients.
type DocumentHandle struct {
	ID          string    `json:"handle"`
	DisplayName string    `json:"fileName"`
	Size        int64     `json:"fileSize"`
	MediaType   string    `json:"fileType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// JobResult is returned once for an accepted submission and never persisted
type JobResult struct {
	JobID       string    `json:"jobId"`
	Device      string    `json:"printer"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// UnknownJobID is reported when the spooler accepted a job without echoing its id
const UnknownJobID = "unknown"
