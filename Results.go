package main

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

type FileResult struct {
	Name    string        `msgpack:"name"`
	Target  string        `msgpack:"target,omitempty"`
	Parts   int           `msgpack:"parts"`
	Bytes   int64         `msgpack:"bytes"`
	Missing int           `msgpack:"missing,omitempty"`
	Err     string        `msgpack:"error,omitempty"`
	Took    time.Duration `msgpack:"took"`
}

func (f *FileResult) OK() bool { return f.Err == "" }

// Report describes one run. It is written with --report.
type Report struct {
	App      string            `msgpack:"app"`
	Version  string            `msgpack:"version"`
	RunID    string            `msgpack:"run_id"`
	Source   string            `msgpack:"source"`
	Started  time.Time         `msgpack:"started"`
	Took     time.Duration     `msgpack:"took"`
	Files    []FileResult      `msgpack:"files"`
	Counters map[string]uint64 `msgpack:"counters"`
}

// Failed returns the number of files that could not be decoded or stored.
func (r *Report) Failed() (failed int) {
	for i := range r.Files {
		if !r.Files[i].OK() {
			failed++
		}
	}
	return
}

func Results(rep *Report) (result string) {
	took := rep.Took
	mibsize := float64(rep.Counters[cntBytes]) / 1024 / 1024
	speed := 0
	if took > 0 {
		speed = int(float64(rep.Counters[cntBytes]) / took.Seconds() / 1024)
	}
	D := fmt.Sprintf("%d", len(fmt.Sprintf("%d", len(rep.Files))))
	result = fmt.Sprintf("> Source: '%s' (%d files)\n> Run: %s\n> Runtime: %.0f sec (%v)\n> Decoded: %.2f MiB @ %d KiB/s",
		rep.Source, len(rep.Files), rep.RunID, took.Seconds(), took, mibsize, speed)
	result += fmt.Sprintf("\n> Files | ok: %"+D+"d | failed: %"+D+"d | parts: %d | missing segments: %d",
		rep.Counters[cntFilesOK], rep.Counters[cntFilesFailed], rep.Counters[cntParts], rep.Counters[cntMissingSegments])
	for _, f := range rep.Files {
		if f.OK() {
			continue
		}
		result += fmt.Sprintf("\n>  FAIL '%s': %s", f.Name, f.Err)
	}
	return
} // end func Results

// writeReport stores rep as msgpack at path.
func writeReport(path string, rep *Report) error {
	data, err := msgpack.Marshal(rep)
	if err != nil {
		return err
	}
	path_tmp := path + ".tmp"
	if err := os.WriteFile(path_tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(path_tmp, path)
} // end func writeReport

func readReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rep Report
	if err := msgpack.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("invalid report '%s': %w", path, err)
	}
	return &rep, nil
} // end func readReport
