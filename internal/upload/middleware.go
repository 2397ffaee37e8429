// Package upload validates an optional image part before it reaches a handler.
package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Devkz19/Take-Home-inventory/internal/apperrors"
	"github.com/Devkz19/Take-Home-inventory/internal/models"
)

const contextKey = "upload.file"

type Options struct {
	MaxSize      int64
	AllowedTypes []string
}

// Single accepts at most one file in field. Requests without it pass through.
func Single(field string, opts Options) gin.HandlerFunc {
	allowed := make(map[string]bool, len(opts.AllowedTypes))
	for _, t := range opts.AllowedTypes {
		allowed[strings.ToLower(t)] = true
	}

	return func(c *gin.Context) {
		header, err := c.FormFile(field)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
				c.Next()
				return
			}
			c.Error(apperrors.Validation("Invalid file upload"))
			c.Abort()
			return
		}

		declared := strings.ToLower(header.Header.Get("Content-Type"))
		if !allowed[declared] {
			c.Error(apperrors.Validation("Only JPEG, JPG, and PNG files are allowed!"))
			c.Abort()
			return
		}

		if header.Size > opts.MaxSize {
			c.Error(apperrors.Validation(fmt.Sprintf("File too large, maximum size is %d bytes", opts.MaxSize)))
			c.Abort()
			return
		}

		src, err := header.Open()
		if err != nil {
			c.Error(apperrors.Internal("Failed to read uploaded file", err))
			c.Abort()
			return
		}
		defer src.Close()

		content, err := io.ReadAll(io.LimitReader(src, opts.MaxSize+1))
		if err != nil {
			c.Error(apperrors.Internal("Failed to read uploaded file", err))
			c.Abort()
			return
		}
		if int64(len(content)) > opts.MaxSize {
			c.Error(apperrors.Validation(fmt.Sprintf("File too large, maximum size is %d bytes", opts.MaxSize)))
			c.Abort()
			return
		}

		// the declared type is client-controlled, check the bytes too
		detected := mimetype.Detect(content)
		if !detected.Is("image/jpeg") && !detected.Is("image/png") {
			c.Error(apperrors.Validation("Only JPEG, JPG, and PNG files are allowed!"))
			c.Abort()
			return
		}

		c.Set(contextKey, &models.UploadedFile{
			FieldName:    field,
			OriginalName: header.Filename,
			StoredName:   generatedName(header.Filename),
			ContentType:  declared,
			Size:         int64(len(content)),
			Content:      content,
		})
		c.Next()
	}
}

// FromContext returns the accepted file, or nil when none was sent.
func FromContext(c *gin.Context) *models.UploadedFile {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	file, _ := v.(*models.UploadedFile)
	return file
}

func generatedName(original string) string {
	return uuid.New().String() + strings.ToLower(filepath.Ext(original))
}
