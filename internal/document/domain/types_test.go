package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFileType(t *testing.T) {
	assert.Equal(t, "pdf", NormalizeFileType(".PDF"))
	assert.Equal(t, "docx", NormalizeFileType("DOCX"))
	assert.Equal(t, "doc", NormalizeFileType(".doc"))
	assert.Equal(t, "", NormalizeFileType(""))
}

func TestIsWordProcessor(t *testing.T) {
	tests := []struct {
		fileType string
		want     bool
	}{
		{"docx", true},
		{".DOCX", true},
		{"doc", true},
		{"pdf", false},
		{"txt", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsWordProcessor(tt.fileType), tt.fileType)
	}
}
