package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

var ErrUploadTooLarge = errors.New("uploaded file is too large")

// UploadKind selects the attachment folder and default extension
type UploadKind string

const (
	UploadKindImage UploadKind = "image"
	UploadKindVoice UploadKind = "voice"
)

// UploadRoot is the first segment of every stored path and the public URL prefix
const UploadRoot = "uploads"

const maxExtLen = 8

// UploadService stores patient attachments and hands back a path relative to
// the upload directory, e.g. uploads/patients/patient_<id>/images/image_<ts>_<uuid8>.jpg
type UploadService interface {
	Save(ctx context.Context, nationalID string, kind UploadKind, filename string, r io.Reader) (string, error)
	Remove(relPath string) error
	Fs() afero.Fs
}

type uploadService struct {
	fs       afero.Fs
	log      *logrus.Logger
	maxBytes int64
	now      func() time.Time
}

// NewUploadService expects fs to be rooted at the upload directory
// (afero.NewBasePathFs in production, afero.NewMemMapFs in tests).
func NewUploadService(fs afero.Fs, log *logrus.Logger, maxBytes int64) UploadService {
	return &uploadService{
		fs:       fs,
		log:      log,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (s *uploadService) Fs() afero.Fs {
	return s.fs
}

func (s *uploadService) Save(ctx context.Context, nationalID string, kind UploadKind, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	folder, defaultExt := "images", ".jpg"
	if kind == UploadKindVoice {
		folder, defaultExt = "voices", ".webm"
	}

	dir := path.Join(PatientUploadDir(nationalID), folder)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		s.log.Warnf("Failed to create upload dir %s: %+v", dir, err)
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s%s",
		kind,
		s.now().UTC().Format("20060102T150405Z"),
		uuid.NewString()[:8],
		extensionOf(filename, defaultExt),
	)
	relPath := path.Join(dir, name)

	f, err := s.fs.OpenFile(relPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		s.log.Warnf("Failed to create upload %s: %+v", relPath, err)
		return "", fmt.Errorf("create upload: %w", err)
	}

	written, copyErr := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		_ = s.fs.Remove(relPath)
		return "", fmt.Errorf("write upload: %w", copyErr)
	case written > s.maxBytes:
		_ = s.fs.Remove(relPath)
		return "", ErrUploadTooLarge
	case closeErr != nil:
		_ = s.fs.Remove(relPath)
		return "", fmt.Errorf("close upload: %w", closeErr)
	}

	s.log.Debugf("Stored %s upload %s (%d bytes)", kind, relPath, written)
	return relPath, nil
}

// Remove deletes a previously stored file. Paths outside the upload root are refused.
func (s *uploadService) Remove(relPath string) error {
	clean := path.Clean("/" + relPath)[1:]
	if !strings.HasPrefix(clean, UploadRoot+"/") {
		return fmt.Errorf("refusing to remove %q outside %s", relPath, UploadRoot)
	}
	if err := s.fs.Remove(clean); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// PatientUploadDir is the folder holding every attachment of one patient
func PatientUploadDir(nationalID string) string {
	return path.Join(UploadRoot, "patients", "patient_"+nationalID)
}

// BelongsToPatient reports whether relPath points inside the patient's upload folder
func BelongsToPatient(relPath, nationalID string) bool {
	if nationalID == "" || strings.Contains(relPath, "\\") {
		return false
	}
	clean := path.Clean("/" + relPath)[1:]
	return clean == relPath && strings.HasPrefix(clean, PatientUploadDir(nationalID)+"/")
}

// extensionOf keeps a short alphanumeric extension from the client filename
func extensionOf(filename, fallback string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return fallback
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return fallback
		}
	}
	return ext
}
