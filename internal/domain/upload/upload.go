// Package upload defines the object storage model and MIME policies.
package upload

import (
	"strings"
	"time"
)

// MaxFileSize is the largest accepted upload in bytes.
const MaxFileSize = 10 << 20

// MaxBatch is the largest number of files in one multi-upload.
const MaxBatch = 10

// Folders.
const (
	FolderTickets  = "tickets"
	FolderProducts = "products"
)

// Policy is a named MIME allow-list.
type Policy struct {
	Name    string
	Folder  string
	Allowed map[string]string // mime -> extension
}

// Allows reports whether mime is permitted by p. Parameters such as charset are ignored.
func (p Policy) Allows(mime string) bool {
	_, ok := p.Allowed[baseMIME(mime)]
	return ok
}

// Ext returns the storage extension for an allowed mime.
func (p Policy) Ext(mime string) string {
	return p.Allowed[baseMIME(mime)]
}

var imageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ImagePolicy applies to authenticated product image uploads. SVG is excluded.
var ImagePolicy = Policy{Name: "image", Folder: FolderProducts, Allowed: imageTypes}

// PublicPolicy applies to anonymous storefront uploads such as ticket attachments.
var PublicPolicy = Policy{
	Name:   "public",
	Folder: FolderTickets,
	Allowed: merge(imageTypes, map[string]string{
		"image/svg+xml":      "svg",
		"application/pdf":    "pdf",
		"application/msword": "doc",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
		"text/plain": "txt",
	}),
}

// Object is a stored file.
type Object struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// Result is returned after a successful upload.
type Result struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
}

func baseMIME(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.ToLower(strings.TrimSpace(m))
}

func merge(a, b map[string]string) map[string]string {
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
