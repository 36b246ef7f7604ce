// Package pdf turns PDF files into page-level document records.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Abraxas-365/docingest/datasource"
	"github.com/Abraxas-365/docingest/document"
	"github.com/ledongthuc/pdf"
)

const sourceName = "pdf"

// ReadPages parses the PDF in r and returns one record per page, in page
// order. Pages without a text layer yield a record with empty content.
func ReadPages(r io.ReaderAt, size int64, source string) (docs []document.Document, err error) {
	// ledongthuc/pdf panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			docs = nil
			err = invalidFormat(source, fmt.Errorf("%v", rec))
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, invalidFormat(source, err)
	}

	total := reader.NumPage()
	docs = make([]document.Document, 0, total)
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= total; i++ {
		text, err := pageText(reader.Page(i), fonts)
		if err != nil {
			return nil, invalidFormat(source, fmt.Errorf("page %d: %w", i, err))
		}
		docs = append(docs, document.Document{
			PageContent: text,
			Metadata: document.Metadata{
				document.MetadataSource:     source,
				document.MetadataPage:       i - 1,
				document.MetadataPageLabel:  strconv.Itoa(i),
				document.MetadataTotalPages: total,
			},
		})
	}
	return docs, nil
}

// ReadBytes parses an in-memory PDF.
func ReadBytes(data []byte, source string) ([]document.Document, error) {
	return ReadPages(bytes.NewReader(data), int64(len(data)), source)
}

// ReadFile opens path and reads its pages. The path is used as the source.
func ReadFile(path string) ([]document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, datasource.NewError(sourceName, "read_file", datasource.ErrCodeInternal,
			"failed to stat "+path, err)
	}
	return ReadPages(f, info.Size(), path)
}

func pageText(p pdf.Page, fonts map[string]*pdf.Font) (string, error) {
	if p.V.IsNull() {
		return "", nil
	}
	for _, name := range p.Fonts() {
		if _, ok := fonts[name]; !ok {
			f := p.Font(name)
			fonts[name] = &f
		}
	}
	return p.GetPlainText(fonts)
}

func invalidFormat(source string, err error) error {
	return datasource.NewError(sourceName, "read_pages", datasource.ErrCodeInvalidFormat,
		"malformed PDF "+source, err)
}

func openError(path string, err error) error {
	code := datasource.ErrCodeInternal
	switch {
	case os.IsNotExist(err):
		code = datasource.ErrCodeNotFound
	case os.IsPermission(err):
		code = datasource.ErrCodeAccessDenied
	}
	return datasource.NewError(sourceName, "read_file", code, "failed to open "+path, err)
}
