package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidFileType = errors.New("only PDF files are accepted")
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
)

type StorageService interface {
	EnsureUploadDir() error
	// SaveResume validates and copies an uploaded PDF under a generated name.
	// It returns the stored filename and its full path.
	SaveResume(file *multipart.FileHeader, userID uuid.UUID) (string, string, error)
	DeleteFile(filename string) error
}

type storageService struct {
	uploadPath  string
	maxFileSize int64
}

func NewStorageService(uploadPath string, maxFileSize int64) StorageService {
	return &storageService{
		uploadPath:  uploadPath,
		maxFileSize: maxFileSize,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

func (s *storageService) SaveResume(file *multipart.FileHeader, userID uuid.UUID) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".pdf" {
		return "", "", ErrInvalidFileType
	}
	if s.maxFileSize > 0 && file.Size > s.maxFileSize {
		return "", "", ErrFileTooLarge
	}

	filename := fmt.Sprintf("resume_%s_%s%s", userID, uuid.NewString(), ext)
	filePath := filepath.Join(s.uploadPath, filename)

	src, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(filePath)
		return "", "", fmt.Errorf("failed to save file: %w", err)
	}

	return filename, filePath, nil
}

func (s *storageService) DeleteFile(filename string) error {
	if err := os.Remove(filepath.Join(s.uploadPath, filepath.Base(filename))); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
