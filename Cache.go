package main

/*
 * ArticleCache:
 *    reads articles from a disk cache with the layout
 *
 *      <cachedir>/<sha256(nzb base name)>/<sha256("<"+segment.Id+">")>.art
 *
 *    every file holds one article as received from the server:
 *    header lines, an empty line, the dot-stuffed body.
 *    lines are joined with LF, the final "." line is not stored.
 */

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-while/ydecode/yenc"
	"golang.org/x/text/encoding"
)

var errMissingSegment = errors.New("segment not in cache")

type ArticleCache struct {
	cachedir string
	enc      encoding.Encoding
	debug    bool
}

func NewArticleCache(cachedir string, enc encoding.Encoding, debug bool) (*ArticleCache, error) {
	if cachedir == "" {
		return nil, fmt.Errorf("%w: cache_dir is empty", errConfig)
	}
	if !DirExists(cachedir) {
		return nil, fmt.Errorf("%w: cache_dir '%s' does not exist", errConfig, cachedir)
	}
	return &ArticleCache{cachedir: cachedir, enc: enc, debug: debug}, nil
} // end func NewArticleCache

// SubDir returns the cache directory holding the articles of nzbName.
func (c *ArticleCache) SubDir(nzbName string) string {
	return filepath.Join(c.cachedir, SHA256str(filepath.Base(nzbName)))
}

func (c *ArticleCache) ArticlePath(nzbName string, segmentId string) string {
	return filepath.Join(c.SubDir(nzbName), SHA256str("<"+segmentId+">")+".art")
}

func (c *ArticleCache) Exists(nzbName string, segmentId string) bool {
	exists := FileExists(c.ArticlePath(nzbName, segmentId))
	dlog(c.debug, "CacheCheck exists=%t seg.Id='%s'", exists, segmentId)
	return exists
} // end func c.Exists

// Open reads the cached article of segmentId into memory and returns its
// lines with the NNTP dot-stuffing removed.
func (c *ArticleCache) Open(nzbName string, segmentId string) (yenc.LineSource, error) {
	filename := c.ArticlePath(nzbName, segmentId)
	fileobj, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: seg.Id='%s'", errMissingSegment, segmentId)
		}
		return nil, err
	}
	dlog(c.debug, "CacheReader size=%d seg.Id='%s'", len(fileobj), segmentId)
	return &articleSource{src: yenc.NewReaderSource(bytes.NewReader(fileobj), c.enc)}, nil
} // end func c.Open

// articleSource strips the NNTP framing from a cached article body.
type articleSource struct {
	src  yenc.LineSource
	body bool
}

func (a *articleSource) ReadLine() (string, error) {
	line, err := a.src.ReadLine()
	if err != nil {
		return "", err
	}
	if !a.body {
		switch {
		case line == "":
			a.body = true
		case strings.HasPrefix(line, yenc.HeaderTag):
			// stored without headers
			a.body = true
		}
		return line, nil
	}
	if line == DOT {
		return "", io.EOF
	}
	if strings.HasPrefix(line, DOT+DOT) {
		line = line[1:]
	}
	return line, nil
} // end func articleSource.ReadLine
