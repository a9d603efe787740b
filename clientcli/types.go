package clientcli

import (
	"encoding/json"
	"errors"
	"path/filepath"
)

var (
	errMissingFiles = errors.New("listing has no files array")
	errMissingField = errors.New("listing entry is missing a required field")
	errTrailingData = errors.New("unexpected data after listing")
)

// RemoteFile is one entry of an account listing.
// Size and SHA1Hash are set for plain files and nil for directories.
type RemoteFile struct {
	Path        string  `json:"path"`
	IsDirectory bool    `json:"is_directory"`
	Size        *uint64 `json:"size,omitempty"`
	UpdatedAt   string  `json:"updated_at"`
	SHA1Hash    *string `json:"sha1_hash,omitempty"`
}

// UnmarshalJSON decodes a listing entry, dropping size and hash from directories.
// path, is_directory and updated_at must be present.
func (f *RemoteFile) UnmarshalJSON(data []byte) error {
	var raw struct {
		Path        *string `json:"path"`
		IsDirectory *bool   `json:"is_directory"`
		Size        *uint64 `json:"size"`
		UpdatedAt   *string `json:"updated_at"`
		SHA1Hash    *string `json:"sha1_hash"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Path == nil || raw.IsDirectory == nil || raw.UpdatedAt == nil {
		return errMissingField
	}

	*f = RemoteFile{
		Path:        *raw.Path,
		IsDirectory: *raw.IsDirectory,
		UpdatedAt:   *raw.UpdatedAt,
	}
	if !f.IsDirectory {
		f.Size = raw.Size
		f.SHA1Hash = raw.SHA1Hash
	}
	return nil
}

// Hash returns the SHA-1 digest, or "" for directories.
func (f *RemoteFile) Hash() string {
	if f.SHA1Hash == nil {
		return ""
	}
	return *f.SHA1Hash
}

// SizeBytes returns the file size, or 0 for directories.
func (f *RemoteFile) SizeBytes() uint64 {
	if f.Size == nil {
		return 0
	}
	return *f.Size
}

// UploadEntry pairs a remote destination path with a local source file.
// The source is opened and read only while the upload body is encoded.
type UploadEntry struct {
	Destination string `json:"destination"`
	Source      string `json:"source"`
}

// EntryFromPath builds an UploadEntry that uploads localPath to the root
// of the site under its own file name. A localPath without a file name,
// such as "somedir/", yields an empty Destination that Push rejects
// naming localPath.
func EntryFromPath(localPath string) UploadEntry {
	return UploadEntry{
		Destination: finalSegment(filepath.ToSlash(localPath)),
		Source:      localPath,
	}
}

// listResponse mirrors the JSON body of a successful listing.
// Files is nil when the key is absent or null.
type listResponse struct {
	Files *[]RemoteFile `json:"files"`
}

// errorResponse mirrors the JSON body the service sends with a failed request.
type errorResponse struct {
	Message string `json:"message"`
}
