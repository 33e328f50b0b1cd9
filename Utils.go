package main

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/Tensai75/nzbparser"
)

/*
nzbfile=&nzbparser.Nzb{Comment:"", Meta:map[string]string{},
	Files:nzbparser.NzbFiles{
	nzbparser.NzbFile{
		Groups:[]string{"alt.binaries.gougouland"},
		Segments:nzbparser.NzbSegments{
			nzbparser.NzbSegment{Bytes:729047, Number:1, Id:"b9c5260e93724cd7a76d1b951b2c8717@ngPost"},
			nzbparser.NzbSegment{Bytes:729047, Number:1, Id:"a2f343f81b514fecbc7fbcb88b0e67bb@ngPost"},
			nzbparser.NzbSegment{Bytes:729184, Number:2, Id:"9dbcd79527b449deb1f686b3ad795c49@ngPost"},
			},
		Subject:"[1/1] \"debian-11.6.0-amd64-netinst.iso\" (1/568)",
		Filename:"debian-11.6.0-amd64-netinst.iso",
		TotalSegments:568, Bytes:429739466}
	}, TotalFiles:1, Segments:581, TotalSegments:568, Bytes:429739466}
*/

func loadNzbFile(path string) (*nzbparser.Nzb, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var parsedReader io.Reader

	// Check if the file is gzipped
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gzReader, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gzReader.Close()
		parsedReader = gzReader
	} else {
		parsedReader = f
	}

	nzbfile, err := nzbparser.Parse(parsedReader)
	if err != nil {
		return nil, err
	}
	return nzbfile, nil
} // end func loadNzbFile

// segmentsInOrder sorts segments by number. Reposted segments share a number
// (see above); the first one listed wins.
func segmentsInOrder(segments nzbparser.NzbSegments) []nzbparser.NzbSegment {
	out := make([]nzbparser.NzbSegment, 0, len(segments))
	seen := make(map[int]bool, len(segments))
	for _, segment := range segments {
		if seen[segment.Number] {
			continue
		}
		seen[segment.Number] = true
		out = append(out, segment)
	}
	slices.SortStableFunc(out, func(a, b nzbparser.NzbSegment) int {
		return a.Number - b.Number
	})
	return out
} // end func segmentsInOrder

func SHA256str(astr string) string {
	// only used to create hashs of nzb names and segment.Id
	ahash := sha256.Sum256([]byte(astr))
	return hex.EncodeToString(ahash[:])
} // end func SHA256str

func DirExists(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			dlog(always, "ERROR DirExists err='%v'", err)
		}
		return false
	}
	return info.IsDir()
} // end func DirExists

func FileExists(File_path string) bool {
	info, err := os.Stat(File_path)
	if err != nil {
		if !os.IsNotExist(err) {
			dlog(always, "ERROR FileExists err='%v'", err)
		}
		return false
	}
	return !info.IsDir()
} // end func FileExists

func Mkdir(dir string) bool {
	if err := os.MkdirAll(dir, 0755); err != nil {
		dlog(always, "ERROR Mkdir='%s' err='%v'", dir, err)
		return false
	}
	return true
} // end func Mkdir

// cosmetics
func yesno(input bool) string {
	if input {
		return "+++"
	}
	return "---"
} // end func yesno
