package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"aigym-api/pkg/config"
	"aigym-api/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var storageConfig config.StorageConfig

// allowed upload extensions by category
var uploadExtensions = map[string]map[string]bool{
	"image": {".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".svg": true},
	"pdf":   {".pdf": true},
	"logo":  {".jpg": true, ".jpeg": true, ".png": true, ".svg": true, ".webp": true},
}

const maxUploadSize = 50 << 20 // 50 MB

// InitUploads prepares the upload directory and remembers where files go
func InitUploads(cfg config.StorageConfig) error {
	storageConfig = cfg
	return os.MkdirAll(cfg.UploadDir, 0o755)
}

// UploadFile stores a multipart file upload and returns its public URL.
// The category path segment decides which extensions are accepted.
func UploadFile(c echo.Context) error {
	log := logger.FromContext(c)

	category := c.Param("category")
	allowed, ok := uploadExtensions[category]
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown upload category"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	if fileHeader.Size > maxUploadSize {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file exceeds the 50MB limit"})
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowed[ext] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("unsupported file type for %s uploads", category)})
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open upload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read file"})
	}
	defer src.Close()

	name := uuid.New().String() + ext
	dir := filepath.Join(storageConfig.UploadDir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("Failed to create upload directory", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		log.Error("Failed to create upload file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		log.Error("Failed to write upload", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	url := strings.TrimSuffix(storageConfig.PublicBaseURL, "/") + "/" + category + "/" + name
	log.Info("File uploaded",
		zap.String("category", category),
		zap.String("file", name),
		zap.Int64("size", written))

	return c.JSON(http.StatusCreated, echo.Map{
		"url":       url,
		"file_name": fileHeader.Filename,
		"size":      written,
		"mime_type": fileHeader.Header.Get("Content-Type"),
	})
}
