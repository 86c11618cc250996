package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"coffeeshop/internal/logger"
)

// LocalUploader writes images under dir. The returned URL is baseURL joined
// with the object key, so dir must be what the router serves at baseURL.
type LocalUploader struct {
	dir     string
	baseURL string
	now     func() time.Time
	log     *zap.Logger
}

func NewLocalUploader(dir, baseURL string) *LocalUploader {
	return &LocalUploader{
		dir:     filepath.Clean(dir),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		log:     logger.Named("storage"),
	}
}

func (u *LocalUploader) Upload(_ context.Context, file *multipart.FileHeader) (string, error) {
	extension, err := ValidateImage(file)
	if err != nil {
		return "", err
	}

	key := objectKey(u.now(), extension)
	fullPath := filepath.Join(u.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		u.log.Error("create upload directory failed", zap.String("path", fullPath), zap.Error(err))
		return "", err
	}

	in, err := file.Open()
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(fullPath)
	if err != nil {
		u.log.Error("create upload file failed", zap.String("path", fullPath), zap.Error(err))
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		u.log.Error("write upload failed", zap.String("path", fullPath), zap.Error(err))
		_ = os.Remove(fullPath)
		return "", err
	}

	u.log.Info("image stored", zap.String("key", key), zap.Int64("size", file.Size))
	return u.baseURL + "/" + key, nil
}

// Delete removes a previously uploaded image. URLs that do not point into
// the upload directory are refused; a missing file is not an error.
func (u *LocalUploader) Delete(_ context.Context, url string) error {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return nil
	}
	if !strings.HasPrefix(trimmed, u.baseURL+"/") {
		return fmt.Errorf("%w: %s", ErrForeignObject, url)
	}

	cleanRel := path.Clean("/" + strings.TrimPrefix(trimmed, u.baseURL+"/"))
	cleanRel = strings.TrimPrefix(cleanRel, "/")
	if !strings.HasPrefix(cleanRel, "images/") {
		return fmt.Errorf("%w: %s", ErrForeignObject, url)
	}

	target := filepath.Clean(filepath.Join(u.dir, filepath.FromSlash(cleanRel)))
	if !strings.HasPrefix(target, u.dir+string(os.PathSeparator)) {
		return fmt.Errorf("%w: %s", ErrForeignObject, url)
	}

	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}
