package loader

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

type DocumentType string

const (
	DocumentTypeText DocumentType = "text"
	DocumentTypePDF  DocumentType = "pdf"
	DocumentTypeWeb  DocumentType = "web"
)

// Document is one input of the pipeline. Path is a file path, an object
// key or a URL, depending on the loader.
//
// The actual content is retrieved via the associated DocumentLoader.
type Document struct {
	ID     string
	Path   string
	Type   DocumentType
	Loader DocumentLoader
}

// NewDocumentParams defines the input parameters for creating a new Document.
// An empty Type is detected from Path.
type NewDocumentParams struct {
	ID     string
	Path   string
	Type   DocumentType
	Loader DocumentLoader
}

// NewDocument creates a Document, detecting its type from the path when
// none is given.
func NewDocument(params NewDocumentParams) Document {
	t := params.Type
	if t == "" {
		t = DetectType(params.Path)
	}
	return Document{
		ID:     params.ID,
		Path:   params.Path,
		Type:   t,
		Loader: params.Loader,
	}
}

// GetText retrieves the text content of the document using its Loader.
//
// Example:
//
//	text, err := doc.GetText(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(text)
func (d *Document) GetText(ctx context.Context) (string, error) {
	if d.Loader == nil {
		return "", fmt.Errorf("document %s has no loader", d.Path)
	}
	b, err := d.Loader.GetFileText(ctx, *d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DocumentLoader defines the interface for loading the contents of a
// Document. Implementations may load from disk, object storage or the web.
type DocumentLoader interface {
	GetFileText(ctx context.Context, doc Document) ([]byte, error)
}

// CacheKey identifies a document's content across loaders.
func CacheKey(doc Document) string {
	return string(doc.Type) + ":" + doc.Path
}

// DetectType classifies a path: http(s) URLs are web pages, .pdf files are
// PDFs and everything else is read as text.
func DetectType(path string) DocumentType {
	if u, err := url.Parse(path); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return DocumentTypeWeb
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return DocumentTypePDF
	}
	return DocumentTypeText
}

// TypeLoader dispatches to a loader per document type.
type TypeLoader struct {
	loaders map[DocumentType]DocumentLoader
}

// NewTypeLoader returns a loader that routes each document by its Type.
func NewTypeLoader(loaders map[DocumentType]DocumentLoader) *TypeLoader {
	return &TypeLoader{loaders: loaders}
}

func (l *TypeLoader) GetFileText(ctx context.Context, doc Document) ([]byte, error) {
	inner, ok := l.loaders[doc.Type]
	if !ok || inner == nil {
		return nil, fmt.Errorf("no loader for %s document %s", doc.Type, doc.Path)
	}
	return inner.GetFileText(ctx, doc)
}
