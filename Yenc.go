package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Tensai75/nzbparser"
	"github.com/go-while/ydecode/yenc"
	"go.uber.org/zap"
)

// Runner decodes article files and NZBs and hands the results to a Sink.
type Runner struct {
	cfg       *Config
	dec       *yenc.Decoder
	cache     *ArticleCache // nil without cache_dir
	sink      Sink
	memlim    *MemLimiter
	core_chan chan struct{} // limits parallel decoding
	counter   *Counter_uint64
	log       *zap.Logger
	out       io.Writer // OK/FAIL lines and progress
}

// NewRunner expects a validated cfg.
func NewRunner(cfg *Config, sink Sink, log *zap.Logger, out io.Writer) (*Runner, error) {
	r := &Runner{
		cfg:     cfg,
		dec:     yenc.NewDecoder(yenc.WithEncoding(cfg.TextEncoding()), yenc.WithLogger(log), yenc.WithMaxSize(cfg.MaxSize)),
		sink:    sink,
		memlim:  NewMemLimiter(cfg.Mem),
		counter: NewCounter(),
		log:     log,
		out:     out,
	}
	if cfg.CacheDir != "" {
		cache, err := NewArticleCache(cfg.CacheDir, cfg.TextEncoding(), debugOn())
		if err != nil {
			return nil, err
		}
		r.cache = cache
	}
	r.core_chan = make(chan struct{}, cfg.Workers)
	for i := 1; i <= cfg.Workers; i++ {
		r.core_chan <- struct{}{} // fill chan with empty structs to suck out and return
	}
	return r, nil
} // end func NewRunner

func (r *Runner) getCoreLimiter(ctx context.Context) error {
	select {
	case <-r.core_chan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) returnCoreLimiter() {
	r.core_chan <- struct{}{}
}

// DecodeArticles decodes the article files in paths as one file and stores it.
func (r *Runner) DecodeArticles(ctx context.Context, paths []string) *Report {
	rep := r.newReport(fmt.Sprintf("%d article files", len(paths)))
	res := r.decodeArticles(ctx, paths)
	r.finish(&res)
	printResult(r.out, &res)
	rep.Files = append(rep.Files, res)
	return r.closeReport(rep)
} // end func DecodeArticles

func (r *Runner) decodeArticles(ctx context.Context, paths []string) (res FileResult) {
	start := time.Now()
	defer func() { res.Took = time.Since(start) }()
	if len(paths) == 0 {
		res.Err = "no input files"
		return
	}
	res.Name = filepath.Base(paths[0])

	sources := make([]yenc.LineSource, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			res.Err = err.Error()
			return
		}
		defer f.Close()
		sources = append(sources, yenc.NewReaderSource(f, r.cfg.TextEncoding()))
	}
	if err := r.memlim.MemCheckWait(ctx, res.Name); err != nil {
		res.Err = err.Error()
		return
	}
	defer r.memlim.MemReturn(res.Name)

	file, err := r.dec.Decode(ctx, sources)
	if err != nil {
		res.Err = err.Error()
		return
	}
	res.Parts = len(paths)
	r.counter.add(cntParts, uint64(len(paths)))
	r.store(ctx, file, &res)
	return
} // end func decodeArticles

// DecodeNZB decodes every file of the NZB at nzbPath from the article cache.
func (r *Runner) DecodeNZB(ctx context.Context, nzbPath string) (*Report, error) {
	if r.cache == nil {
		return nil, fmt.Errorf("%w: nzb needs cache_dir", errConfig)
	}
	nzbfile, err := loadNzbFile(nzbPath)
	if err != nil {
		return nil, fmt.Errorf("unable to load NZB file '%s': %w", nzbPath, err)
	}
	nzbName := filepath.Base(nzbPath)
	rep := r.newReport(nzbName)
	mibsize := float64(nzbfile.Bytes) / 1024 / 1024
	r.log.Info("loaded NZB",
		zap.String("nzb", nzbName),
		zap.Int("files", len(nzbfile.Files)),
		zap.Int("segments", nzbfile.TotalSegments),
		zap.String("size", fmt.Sprintf("%.02f MiB", mibsize)))

	progress := NewProgress(r.out, "FILES", len(nzbfile.Files), r.cfg.Progress, r.cfg.Colors)
	results := make([]FileResult, len(nzbfile.Files))
	var waitWorker sync.WaitGroup
	for i := range nzbfile.Files {
		if err := r.getCoreLimiter(ctx); err != nil {
			results[i] = FileResult{Name: nzbfile.Files[i].Filename, Err: err.Error()}
			continue
		}
		waitWorker.Add(1)
		go func(i int, file *nzbparser.NzbFile) {
			defer waitWorker.Done()
			defer r.returnCoreLimiter()
			r.counter.incr(cntActive)
			res := r.decodeNzbFile(ctx, nzbName, file)
			r.counter.decr(cntActive)
			r.finish(&res)
			progress.FileDone(&res)
			results[i] = res
		}(i, &nzbfile.Files[i])
	}
	waitWorker.Wait()
	progress.Wait()
	rep.Files = results
	return r.closeReport(rep), nil
} // end func DecodeNZB

// decodeNzbFile decodes the segments of file one at a time from the cache.
// A file with missing segments fails: its parts can not be assembled.
func (r *Runner) decodeNzbFile(ctx context.Context, nzbName string, file *nzbparser.NzbFile) (res FileResult) {
	start := time.Now()
	defer func() { res.Took = time.Since(start) }()
	res.Name = file.Filename

	segments := segmentsInOrder(file.Segments)
	for _, segment := range segments {
		if !r.cache.Exists(nzbName, segment.Id) {
			res.Missing++
		}
	}
	if res.Missing > 0 {
		r.counter.add(cntMissingSegments, uint64(res.Missing))
		res.Err = fmt.Sprintf("%v: %d of %d segments", errMissingSegment, res.Missing, len(segments))
		return
	}

	if err := r.memlim.MemCheckWait(ctx, file.Filename); err != nil {
		res.Err = err.Error()
		return
	}
	defer r.memlim.MemReturn(file.Filename)

	if debugOn() {
		used, slots := r.memlim.Usage()
		dlog(always, "decodeNzbFile: fn='%s' segments=%d memlim=%d/%d waiting=%d inmem=%v active=%d",
			file.Filename, len(segments), used, slots, r.memlim.Waiting(), r.memlim.ViewData(), r.counter.get(cntActive))
	}

	asm := r.dec.NewAssembler()
	for _, segment := range segments {
		if err := ctx.Err(); err != nil {
			res.Err = err.Error()
			return
		}
		src, err := r.cache.Open(nzbName, segment.Id)
		if err == nil {
			var part *yenc.DecodedPart
			if part, err = r.dec.DecodePart(ctx, src); err == nil {
				err = asm.Add(part)
			}
		}
		if err != nil {
			res.Err = fmt.Sprintf("segment %d '%s': %v", segment.Number, segment.Id, err)
			return
		}
		res.Parts++
		r.counter.incr(cntParts)
	}
	decoded, err := asm.File()
	if err != nil {
		res.Err = err.Error()
		return
	}
	if decoded == nil {
		res.Err = "no segments"
		return
	}
	if decoded.Name == "" {
		decoded.Name = file.Filename
	}
	r.store(ctx, decoded, &res)
	return
} // end func decodeNzbFile

func (r *Runner) store(ctx context.Context, file *yenc.DecodedFile, res *FileResult) {
	res.Name = file.Name
	target, err := r.sink.Store(ctx, file.Name, file, file.Len())
	if err != nil {
		res.Err = err.Error()
		return
	}
	res.Target = target
	res.Bytes = file.Len()
	r.counter.add(cntBytes, uint64(file.Len()))
}

func (r *Runner) finish(res *FileResult) {
	if res.OK() {
		r.counter.incr(cntFilesOK)
		r.log.Info("file decoded", zap.String("name", res.Name), zap.String("target", res.Target),
			zap.Int("parts", res.Parts), zap.Int64("bytes", res.Bytes), zap.Duration("took", res.Took))
		return
	}
	r.counter.incr(cntFilesFailed)
	r.log.Error("file failed", zap.String("name", res.Name), zap.String("error", res.Err))
}

func (r *Runner) newReport(source string) *Report {
	return &Report{App: appName, Version: appVersion, RunID: runID, Source: source, Started: time.Now()}
}

func (r *Runner) closeReport(rep *Report) *Report {
	rep.Took = time.Since(rep.Started)
	rep.Counters = r.counter.snapshot()
	return rep
}

// Info decodes every file in paths as a standalone part and writes its
// metadata to w without storing anything.
func (r *Runner) Info(ctx context.Context, paths []string, w io.Writer) error {
	var failed int
	for _, path := range paths {
		part, err := r.infoPart(ctx, path)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			failed++
			fmt.Fprintf(w, "%s '%s': %v\n", failString("FAIL"), path, err)
			continue
		}
		h := part.Header
		fmt.Fprintf(w, "%s '%s': name='%s' size=%d line=%d multipart=%s", okString("OK  "), path, h.Name, h.Size, h.Line, yesno(h.IsMultipart()))
		if part.IsFilePart() {
			total := 0
			if h.Total != nil {
				total = *h.Total
			}
			fmt.Fprintf(w, " part=%d/%d begin=%d end=%d", *h.Part, total, part.PartHeader.Begin, part.PartHeader.End)
		}
		fmt.Fprintf(w, " bytes=%d crc32=%08x\n", len(part.Data), yenc.Checksum(part.Data))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
} // end func Info

func (r *Runner) infoPart(ctx context.Context, path string) (*yenc.DecodedPart, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.dec.DecodePart(ctx, yenc.NewReaderSource(f, r.cfg.TextEncoding()))
}
