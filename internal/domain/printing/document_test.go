package printing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAcceptedMediaType(t *testing.T) {
	for _, mt := range AcceptedMediaTypes() {
		assert.True(t, IsAcceptedMediaType(mt), mt)
	}
	assert.True(t, IsAcceptedMediaType("Application/PDF"))
	assert.True(t, IsAcceptedMediaType("image/png; charset=binary"))

	assert.False(t, IsAcceptedMediaType(""))
	assert.False(t, IsAcceptedMediaType("text/plain"))
	assert.False(t, IsAcceptedMediaType("application/zip"))
	assert.False(t, IsAcceptedMediaType("image/svg+xml"))
}

func TestContentTypeForName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"a.png", "image/png"},
		{"a.PNG", "image/png"},
		{"a.jpg", "image/jpeg"},
		{"a.jpeg", "image/jpeg"},
		{"a.gif", "image/gif"},
		{"a.bmp", "image/bmp"},
		{"a.tif", "image/tiff"},
		{"a.tiff", "image/tiff"},
		{"a.pdf", "application/pdf"},
		{"a.ps", "application/pdf"},
		{"noext", "application/pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContentTypeForName(tt.name))
		})
	}
}
