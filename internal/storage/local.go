package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/Dias221467/social_network/pkg/sanitizer"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	imagesOnly = "Images only (jpeg, jpg, png format allowed)"
	sniffBytes = 3072
)

// LocalStore writes uploads to a directory served under URLPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
	maxBytes  int64
}

// NewLocalStore creates dir if needed. Files larger than maxBytes are rejected.
func NewLocalStore(dir, urlPrefix string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %v", err)
	}
	return &LocalStore{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		maxBytes:  maxBytes,
	}, nil
}

// Dir is the directory files are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save checks that content is a JPEG or PNG image and stores it under a random name.
func (s *LocalStore) Save(_ context.Context, filename string, content io.Reader) (string, error) {
	if !sanitizer.AllowedImage(filename) {
		return "", apperrors.Validation(imagesOnly)
	}

	br := bufio.NewReader(content)
	head, _ := br.Peek(sniffBytes)
	if mt := mimetype.Detect(head); !mt.Is("image/jpeg") && !mt.Is("image/png") {
		return "", apperrors.Validation(imagesOnly)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", apperrors.Internal(err, "failed to save file")
	}

	n, err := io.Copy(out, io.LimitReader(br, s.maxBytes+1))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxBytes {
		err = apperrors.Validation("File too large")
	}
	if err != nil {
		_ = os.Remove(path)
		if apperrors.Is(err, apperrors.KindValidation) {
			return "", err
		}
		return "", apperrors.Internal(err, "failed to save file")
	}

	logrus.WithFields(logrus.Fields{
		"file":  name,
		"bytes": n,
	}).Info("Upload stored")
	return s.urlPrefix + "/" + name, nil
}
