package parser

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxXMLDepth bounds element nesting in Office XML parts.
const maxXMLDepth = 256

// maxXMLPartSize bounds the uncompressed size of a single XML part.
const maxXMLPartSize = 64 << 20

var errPartNotFound = errors.New("part not found in archive")

func findZipEntry(files []*zip.File, name string) *zip.File {
	for _, f := range files {
		if f != nil && strings.EqualFold(strings.TrimSpace(f.Name), name) {
			return f
		}
	}
	return nil
}

func readZipFile(files []*zip.File, name string) ([]byte, error) {
	f := findZipEntry(files, name)
	if f == nil {
		return nil, fmt.Errorf("%s: %w", name, errPartNotFound)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxXMLPartSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > maxXMLPartSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", name, maxXMLPartSize)
	}
	return data, nil
}

func findZipFiles(files []*zip.File, prefix, suffix string) []string {
	var out []string
	for _, f := range files {
		if f == nil {
			continue
		}
		name := strings.TrimSpace(f.Name)
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, prefix) && strings.HasSuffix(lower, suffix) {
			out = append(out, name)
		}
	}
	return out
}

// xmlWalker wraps an xml.Decoder and tracks nesting depth.
type xmlWalker struct {
	dec   *xml.Decoder
	depth int
}

func newXMLWalker(data []byte) *xmlWalker {
	return &xmlWalker{dec: xml.NewDecoder(strings.NewReader(string(data)))}
}

// next returns the next token, io.EOF at the end of input, or an error when
// nesting exceeds maxXMLDepth.
func (w *xmlWalker) next() (xml.Token, error) {
	tok, err := w.dec.Token()
	if err != nil {
		return nil, err
	}
	switch tok.(type) {
	case xml.StartElement:
		w.depth++
		if w.depth > maxXMLDepth {
			return nil, fmt.Errorf("xml nesting depth exceeds %d", maxXMLDepth)
		}
	case xml.EndElement:
		w.depth--
	}
	return tok, nil
}

func attrValue(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
