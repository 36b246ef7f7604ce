package pdf

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Abraxas-365/docingest/datasource"
	"github.com/Abraxas-365/docingest/document"
	"github.com/Abraxas-365/docingest/logger"
	"github.com/bmatcuk/doublestar/v4"
)

const directorySourceName = "directory"

// DirectorySource loads every PDF in a directory, one record per page.
type DirectorySource struct {
	dir string
}

var _ datasource.DataSource = (*DirectorySource)(nil)

func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{dir: dir}
}

// Dir returns the directory the source reads from.
func (s *DirectorySource) Dir() string {
	return s.dir
}

// Load implements datasource.DataSource. Files are read in lexical order and
// the first file that fails to parse aborts the whole load.
func (s *DirectorySource) Load(ctx context.Context, opts ...datasource.Option) ([]document.Document, error) {
	options := datasource.Apply(opts...)
	log := logger.FromContext(ctx).With("dir", s.dir)

	if err := s.checkDir(); err != nil {
		return nil, err
	}

	files, err := s.match(options)
	if err != nil {
		return nil, err
	}
	if options.MaxItems > 0 && len(files) > options.MaxItems {
		files = files[:options.MaxItems]
	}
	log.Debug("Matched PDF files", "glob", options.Glob, "recursive", options.Recursive, "count", len(files))

	docs := []document.Document{}
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		source := filepath.Join(s.dir, filepath.FromSlash(rel))
		pages, err := ReadFile(source)
		if err != nil {
			return nil, err
		}
		for _, page := range pages {
			if options.Keep(page.Metadata) {
				docs = append(docs, page)
			}
		}
		log.Debug("Loaded PDF", "source", source, "pages", len(pages))
	}
	return docs, nil
}

func (s *DirectorySource) checkDir() error {
	info, err := os.Stat(s.dir)
	switch {
	case err == nil && !info.IsDir():
		return datasource.NewError(directorySourceName, "load", datasource.ErrCodeInvalidSource,
			s.dir+" is not a directory", nil)
	case err == nil:
		return nil
	case os.IsNotExist(err):
		return datasource.NewError(directorySourceName, "load", datasource.ErrCodeNotFound,
			"directory "+s.dir+" does not exist", err)
	case os.IsPermission(err):
		return datasource.NewError(directorySourceName, "load", datasource.ErrCodeAccessDenied,
			"directory "+s.dir+" is not readable", err)
	default:
		return datasource.NewError(directorySourceName, "load", datasource.ErrCodeInternal,
			"failed to stat "+s.dir, err)
	}
}

func (s *DirectorySource) match(options *datasource.LoadOptions) ([]string, error) {
	pattern := globPattern(options)
	if !doublestar.ValidatePattern(pattern) {
		return nil, datasource.NewError(directorySourceName, "load", datasource.ErrCodeInvalidSource,
			"invalid glob "+pattern, doublestar.ErrBadPattern)
	}

	matches, err := doublestar.Glob(os.DirFS(s.dir), pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		code := datasource.ErrCodeInternal
		if errors.Is(err, os.ErrPermission) {
			code = datasource.ErrCodeAccessDenied
		}
		return nil, datasource.NewError(directorySourceName, "load", code, "failed to list "+s.dir, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if options.IncludeHidden || !isHidden(m) {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// globPattern returns the slash-separated pattern matched against paths
// relative to the loaded directory.
func globPattern(options *datasource.LoadOptions) string {
	pattern := filepath.ToSlash(options.Glob)
	if options.Recursive && !strings.HasPrefix(pattern, "**/") {
		pattern = "**/" + pattern
	}
	return pattern
}

// MatchPath reports whether a slash-separated path, relative to the loaded
// location, is selected by the glob, recursion and hidden-file options.
func MatchPath(options *datasource.LoadOptions, rel string) (bool, error) {
	if !options.IncludeHidden && isHidden(rel) {
		return false, nil
	}
	pattern := globPattern(options)
	if !doublestar.ValidatePattern(pattern) {
		return false, datasource.NewError(sourceName, "match", datasource.ErrCodeInvalidSource,
			"invalid glob "+options.Glob, doublestar.ErrBadPattern)
	}
	matched, err := doublestar.Match(pattern, rel)
	if err != nil {
		return false, datasource.NewError(sourceName, "match", datasource.ErrCodeInvalidSource,
			"invalid glob "+options.Glob, err)
	}
	return matched, nil
}

func isHidden(rel string) bool {
	for _, part := range strings.Split(path.Clean(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
