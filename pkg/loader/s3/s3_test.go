package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/loader"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeGetter struct {
	objects map[string]string
	calls   int
}

func (f *fakeGetter) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	body, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Loader(t *testing.T) {
	getter := &fakeGetter{objects: map[string]string{"docs/reports/2023.txt": "annual report"}}
	l := NewS3Loader("docs", getter)

	doc := loader.NewDocument(loader.NewDocumentParams{Path: "reports/2023.txt", Loader: l})
	for i := 0; i < 2; i++ {
		text, err := doc.GetText(context.Background())
		if err != nil || text != "annual report" {
			t.Fatalf("GetText() = %q, %v", text, err)
		}
	}
	if getter.calls != 1 {
		t.Fatalf("expected one GetObject call, got %d", getter.calls)
	}

	missing := loader.NewDocument(loader.NewDocumentParams{Path: "reports/none.txt", Loader: l})
	if _, err := missing.GetText(context.Background()); err == nil {
		t.Fatalf("expected error for missing object")
	}
}
