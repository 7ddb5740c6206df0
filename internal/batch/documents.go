package batch

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/OFFIS-RIT/kiwi/kgraph/internal/util"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/loader"
)

var supportedExt = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".pdf":      true,
}

// Sources holds the loaders documents are read through. S3 returns the
// loader for a bucket and may be nil when s3:// inputs are not used.
type Sources struct {
	Local loader.DocumentLoader
	Web   loader.DocumentLoader
	S3    func(bucket string) (loader.DocumentLoader, error)
}

// Collect turns inputs into documents. Inputs may be files, directories
// (walked recursively for .txt, .md and .pdf files), http(s) URLs or
// s3://bucket/key objects. Documents get IDs derived from their path;
// every document whose ID collides with another gets a suffix hashed from
// its source, so IDs do not depend on input order. A source listed twice
// is collected once.
func Collect(inputs []string, src Sources) ([]loader.Document, error) {
	type pending struct {
		id     string
		source string
		path   string
		typ    loader.DocumentType
		docs   loader.DocumentLoader
	}
	var found []pending
	counts := make(map[string]int)
	sources := make(map[string]bool)

	// source identifies the document across loaders, e.g. s3://bucket/key.
	add := func(source, path string, typ loader.DocumentType, l loader.DocumentLoader) {
		if sources[source] {
			return
		}
		sources[source] = true
		id := util.DocumentID(path)
		counts[id]++
		found = append(found, pending{id: id, source: source, path: path, typ: typ, docs: l})
	}

	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if u, err := url.Parse(input); err == nil && u.Scheme == "s3" {
			if src.S3 == nil {
				return nil, fmt.Errorf("no S3 loader configured for %s", input)
			}
			key := strings.TrimPrefix(u.Path, "/")
			if key == "" {
				return nil, fmt.Errorf("missing object key in %s", input)
			}
			l, err := src.S3(u.Host)
			if err != nil {
				return nil, err
			}
			add("s3://"+u.Host+"/"+key, key, loader.DetectType(key), l)
			continue
		}

		if loader.DetectType(input) == loader.DocumentTypeWeb {
			if src.Web == nil {
				return nil, fmt.Errorf("no web loader configured for %s", input)
			}
			add(input, input, loader.DocumentTypeWeb, src.Web)
			continue
		}

		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("failed to read input %s: %w", input, err)
		}
		if !info.IsDir() {
			p := filepath.Clean(input)
			add(p, p, "", src.Local)
			continue
		}

		files, err := walkDir(input)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f, f, "", src.Local)
		}
	}

	docs := make([]loader.Document, 0, len(found))
	for _, p := range found {
		id := p.id
		if counts[id] > 1 {
			id = id + "-" + util.PathHash(p.source)
		}
		docs = append(docs, loader.NewDocument(loader.NewDocumentParams{
			ID:     id,
			Path:   p.path,
			Type:   p.typ,
			Loader: p.docs,
		}))
	}
	return docs, nil
}

func walkDir(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if supportedExt[strings.ToLower(filepath.Ext(p))] {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
