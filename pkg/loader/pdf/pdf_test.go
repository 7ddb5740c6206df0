package pdf

import (
	"context"
	"testing"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/loader"
)

type bytesLoader []byte

func (b bytesLoader) GetFileText(ctx context.Context, doc loader.Document) ([]byte, error) {
	return b, nil
}

func TestPDFLoaderRejectsInvalidInput(t *testing.T) {
	l := NewPDFLoader(bytesLoader("this is not a pdf"))
	doc := loader.NewDocument(loader.NewDocumentParams{Path: "broken.pdf", Loader: l})
	if doc.Type != loader.DocumentTypePDF {
		t.Fatalf("type = %q", doc.Type)
	}
	if _, err := doc.GetText(context.Background()); err == nil {
		t.Fatalf("expected error for invalid PDF")
	}
}
