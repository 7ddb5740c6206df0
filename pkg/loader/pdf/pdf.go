package pdf

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/loader"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/logger"

	"github.com/ledongthuc/pdf"
)

var reManyNewlines = regexp.MustCompile(`\n{3,}`)

// PDFLoader extracts the text layer of PDF documents. The raw bytes come
// from an inner loader, so PDFs can live on disk or in object storage.
type PDFLoader struct {
	loader loader.DocumentLoader
	cache  *loader.Cache
}

// NewPDFLoader creates a PDF loader reading raw bytes through inner.
func NewPDFLoader(inner loader.DocumentLoader) *PDFLoader {
	return &PDFLoader{
		loader: inner,
		cache:  loader.NewCache(),
	}
}

// GetFileText extracts text from a PDF page by page. Pages are separated
// by a blank line. Results are cached.
func (l *PDFLoader) GetFileText(ctx context.Context, doc loader.Document) ([]byte, error) {
	return l.cache.Get(loader.CacheKey(doc), func() ([]byte, error) {
		content, err := l.loader.GetFileText(ctx, doc)
		if err != nil {
			return nil, err
		}
		return parsePDF(content)
	})
}

func parsePDF(content []byte) ([]byte, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Debug("[Loader] Skipping unreadable PDF page", "page", i, "err", err)
			continue
		}

		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no text layer found in PDF")
	}

	text := strings.Join(pages, "\n\n")
	text = reManyNewlines.ReplaceAllString(text, "\n\n")
	return []byte(text), nil
}
