// Package storage puts listing photos in object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

// Uploader is satisfied by *S3Uploader.
type Uploader interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
}

// File is one uploaded form file. Open is called once, from the goroutine
// doing the upload.
type File struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// PhotoKey is the object key for the index-th photo of one upload batch.
// The index keeps same-named files in a batch from sharing a key.
func PhotoKey(name string, at time.Time, index int) string {
	return "properties/" + strconv.FormatInt(at.UnixMilli(), 10) + "-" + strconv.Itoa(index) + "-" + path.Base(name)
}

// UploadAll uploads every file concurrently and returns their URLs in input
// order. The first failure cancels the uploads still running; objects that
// already landed are left in place.
func UploadAll(ctx context.Context, up Uploader, files []File) ([]string, error) {
	urls := make([]string, len(files))
	if len(files) == 0 {
		return urls, nil
	}

	at := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			body, err := f.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", f.Name, err)
			}
			defer body.Close()

			contentType := f.ContentType
			if contentType == "" {
				contentType = "application/octet-stream"
			}

			url, err := up.Upload(ctx, PhotoKey(f.Name, at, i), body, contentType)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("upload photos: %w", err)
	}
	return urls, nil
}
