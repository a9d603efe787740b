package clientcli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"strings"
)

var errNoFileName = errors.New("destination has no file name")

// DestinationName returns the final path segment of a remote destination.
// "dir/sub/report.txt" yields "report.txt". Destinations without a final
// segment ("", "/", "dir/", ".", "..") are rejected with a KindPath error.
func DestinationName(dest string) (string, error) {
	name := finalSegment(dest)
	if name == "" {
		return "", pathError(dest, errNoFileName)
	}
	return name, nil
}

func finalSegment(p string) string {
	name := p
	if i := strings.LastIndex(p, "/"); i >= 0 {
		name = p[i+1:]
	}
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// encodeBatch builds one multipart/form-data body holding a file part per
// entry, in the order given. Each part's form name is the full destination
// path and its file name is the destination's final segment.
//
// All destinations are checked before any source is opened.
func encodeBatch(entries []UploadEntry) (string, *bytes.Buffer, error) {
	names := make([]string, len(entries))
	for i, entry := range entries {
		name, err := DestinationName(entry.Destination)
		if err != nil {
			// An empty destination was derived from a source with no file name.
			if entry.Destination == "" && entry.Source != "" {
				return "", nil, pathError(entry.Source, errNoFileName)
			}
			return "", nil, err
		}
		names[i] = name
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	for i, entry := range entries {
		if err := writeFilePart(mw, entry, names[i]); err != nil {
			return "", nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return "", nil, fmt.Errorf("close multipart body: %w", err)
	}

	return mw.FormDataContentType(), body, nil
}

func writeFilePart(mw *multipart.Writer, entry UploadEntry, name string) error {
	file, err := os.Open(entry.Source) //#nosec G304 -- source is user-provided input
	if err != nil {
		return pathError(entry.Source, err)
	}
	defer func() { _ = file.Close() }()

	part, err := mw.CreateFormFile(entry.Destination, name)
	if err != nil {
		return pathError(entry.Destination, err)
	}

	if _, err := io.Copy(part, file); err != nil {
		return pathError(entry.Source, err)
	}
	return nil
}
