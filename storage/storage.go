// Package storage uploads user supplied files to object storage and hands
// back public URLs.
package storage

import (
	"context"
	"io"

	"github.com/linesmerrill/relief-portal-api/apperrors"
)

// Folders files are grouped under
const (
	FolderVictimImages    = "relief-portal/victims/images"
	FolderVictimDocuments = "relief-portal/victims/documents"
	FolderGallery         = "relief-portal/gallery"
)

// File is an upload in flight
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Object is a stored file
type Object struct {
	URL      string
	PublicID string
}

// Uploader stores files and removes them again
type Uploader interface {
	Upload(ctx context.Context, folder string, f File) (Object, error)
	Delete(ctx context.Context, publicID string) error
}

// Disabled is used when no object storage is configured. Every upload fails.
type Disabled struct{}

// Upload always fails
func (Disabled) Upload(context.Context, string, File) (Object, error) {
	return Object{}, apperrors.New(apperrors.Internal, "file uploads are not configured")
}

// Delete is a no-op
func (Disabled) Delete(context.Context, string) error {
	return nil
}

// Cleanup removes objects uploaded earlier in a request that later failed.
// It returns the failures so the caller can log them.
func Cleanup(ctx context.Context, u Uploader, objects []Object) []error {
	var errs []error
	for _, o := range objects {
		if o.PublicID == "" {
			continue
		}
		if err := u.Delete(ctx, o.PublicID); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
