package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const maxRecipeUploadSize = 5 << 20 // 5 MiB

func readRecipeUpload(r *http.Request) (string, []byte, string, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil, "", nil
		}
		return "", nil, "", err
	}
	defer file.Close()

	if header.Size > maxRecipeUploadSize {
		return "", nil, "", fmt.Errorf("file exceeds %d bytes", maxRecipeUploadSize)
	}

	buf := bytes.NewBuffer(make([]byte, 0, header.Size))
	if _, err := io.Copy(buf, file); err != nil {
		return "", nil, "", err
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = mimeTypeFromName(header.Filename)
	}

	return header.Filename, buf.Bytes(), mime, nil
}

func deriveTextFromUpload(data []byte, mime string) (string, error) {
	lower := strings.ToLower(mime)
	switch {
	case strings.Contains(lower, "pdf"):
		return extractTextFromPDF(data)
	case strings.HasPrefix(lower, "text/"), strings.Contains(lower, "json"):
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported upload type %q", mime)
	}
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

func mimeTypeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return "text/plain"
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
