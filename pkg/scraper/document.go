package scraper

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// ExtractDocumentText pulls plain text from an uploaded document. The
// format is chosen by file extension: .pdf, .docx, or plain text.
func ExtractDocumentText(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", eris.Wrap(err, "scraper: read document")
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return extractPDF(data)
	case ".docx":
		return extractDOCX(data)
	case ".txt", ".md":
		return strings.TrimSpace(string(data)), nil
	default:
		return "", eris.Errorf("scraper: unsupported document format %q", filepath.Ext(name))
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", eris.Wrap(err, "scraper: open pdf")
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", eris.Wrap(err, "scraper: extract pdf text")
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return "", eris.Wrap(err, "scraper: read pdf text")
	}
	return strings.TrimSpace(string(text)), nil
}

// extractDOCX reads word/document.xml out of the container and collects
// text runs, one line per paragraph.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", eris.Wrap(err, "scraper: open docx")
	}

	var docXML io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return "", eris.Wrap(err, "scraper: open docx body")
			}
			break
		}
	}
	if docXML == nil {
		return "", eris.New("scraper: docx has no document body")
	}
	defer func() { _ = docXML.Close() }()

	var (
		out    strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(docXML)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", eris.Wrap(err, "scraper: parse docx")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		}
	}
	return strings.TrimSpace(out.String()), nil
}
