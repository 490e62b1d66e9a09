package transform

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filepipe/internal/fileutil"
	"filepipe/internal/process"
)

type xmlMetadata struct {
	ProcessedAt string `xml:"ProcessedAt"`
	Source      string `xml:"Source"`
	SizeBytes   int64  `xml:"SizeBytes"`
}

type originalContent struct {
	Raw string `xml:",innerxml"`
}

type processedDocument struct {
	XMLName         xml.Name        `xml:"ProcessedDocument"`
	Metadata        xmlMetadata     `xml:"Metadata"`
	OriginalContent originalContent `xml:"OriginalContent"`
}

// transformXML verifies well-formedness with a full token scan, then wraps
// the original document verbatim inside a ProcessedDocument envelope. The
// XML declaration is stripped before embedding since a declaration is
// illegal anywhere but the document start.
func (d *Dispatcher) transformXML(path, outputPath string, ts time.Time) error {
	raw, err := os.ReadFile(path) //nolint:gosec // path originates from directory scan
	if err != nil {
		return fmt.Errorf("read xml file: %w", err)
	}

	if err := checkWellFormed(raw); err != nil {
		return fmt.Errorf("%w: invalid xml in %s: %v", process.ErrMalformedContent, filepath.Base(path), err)
	}

	doc := processedDocument{
		Metadata: xmlMetadata{
			ProcessedAt: ts.Format(headerTimeLayout),
			Source:      filepath.Base(path),
			SizeBytes:   int64(len(raw)),
		},
		OriginalContent: originalContent{Raw: stripDeclaration(raw)},
	}
	encoded, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode xml output: %w", err)
	}
	content := append([]byte(xml.Header), encoded...)
	content = append(content, '\n')
	if err := fileutil.WriteAtomic(outputPath, content); err != nil {
		return fmt.Errorf("write xml output: %w", err)
	}
	return nil
}

// checkWellFormed consumes every token in the document, so errors anywhere
// in the input are detected, not just in the prefix a partial decode reads.
func checkWellFormed(raw []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	sawElement := false
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if _, ok := tok.(xml.StartElement); ok {
			sawElement = true
		}
	}
	if !sawElement {
		return errors.New("no root element")
	}
	return nil
}

// stripDeclaration removes a leading <?xml ... ?> declaration, if present.
func stripDeclaration(raw []byte) string {
	s := strings.TrimLeft(string(raw), " \t\r\n")
	if strings.HasPrefix(s, "<?xml") {
		if end := strings.Index(s, "?>"); end >= 0 {
			s = strings.TrimLeft(s[end+2:], " \t\r\n")
		}
	}
	return strings.TrimRight(s, " \t\r\n")
}
