package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// maxReceiptSize caps uploaded receipt images at 10MB
const maxReceiptSize = 10 * 1024 * 1024

// receiptContentTypes are the MIME types accepted for receipt uploads
var receiptContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// LocalStorage handles file storage on the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// SaveReceipt stores an uploaded payment receipt under receipts/YYYY/MM and
// returns its relative path for database storage.
func (s *LocalStorage) SaveReceipt(header *multipart.FileHeader, paymentID uint) (string, error) {
	if header.Size > maxReceiptSize {
		return "", fmt.Errorf("receipt exceeds maximum size of %d bytes", maxReceiptSize)
	}
	if !receiptContentTypes[header.Header.Get("Content-Type")] {
		return "", fmt.Errorf("receipt must be a PDF, PNG, or JPEG")
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dir := filepath.Join(s.basePath, "receipts", time.Now().Format("2006/01"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	ext := filepath.Ext(header.Filename)
	filename := fmt.Sprintf("payment_%d_%s%s", paymentID, uuid.NewString(), ext)
	filePath := filepath.Join(dir, filename)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	relPath, _ := filepath.Rel(s.basePath, filePath)
	return relPath, nil
}

// Open returns a stored file for reading
func (s *LocalStorage) Open(relativePath string) (*os.File, error) {
	return os.Open(filepath.Join(s.basePath, relativePath))
}

// Delete removes a stored file
func (s *LocalStorage) Delete(relativePath string) error {
	return os.Remove(filepath.Join(s.basePath, relativePath))
}

// Exists checks if a stored file exists
func (s *LocalStorage) Exists(relativePath string) bool {
	_, err := os.Stat(filepath.Join(s.basePath, relativePath))
	return err == nil
}

// FullPath returns the absolute path for serving a stored file
func (s *LocalStorage) FullPath(relativePath string) string {
	return filepath.Join(s.basePath, relativePath)
}
