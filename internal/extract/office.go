package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"sort"
	"strings"
)

// Office Open XML formats are ZIP archives of XML parts. Each extractor
// here opens the archive in memory, finds the parts that carry text and
// walks the XML token stream for character data.

func (e *DefaultExtractor) extractDocx(data []byte) string {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.log.Warn("DOCX open failed: %v", err)
		return "[DOCX extraction error: " + err.Error() + "]"
	}

	text, err := readZipXMLText(r, "word/document.xml", "t")
	if err != nil {
		return "[DOCX extraction error: " + err.Error() + "]"
	}
	if strings.TrimSpace(text) == "" {
		return "[No text extracted from DOCX]"
	}
	return text
}

func (e *DefaultExtractor) extractPptx(data []byte) string {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.log.Warn("PPTX open failed: %v", err)
		return "[PPTX extraction error: " + err.Error() + "]"
	}

	var slides []string
	for _, f := range r.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f.Name)
		}
	}
	sort.Strings(slides)

	var sb strings.Builder
	for _, name := range slides {
		text, err := readZipXMLText(r, name, "t")
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "[No text extracted from PPTX]"
	}
	return sb.String()
}

// extractXlsx reads the shared-strings table, where xlsx keeps nearly
// all cell text. Inline strings and numeric cells are not resolved.
func (e *DefaultExtractor) extractXlsx(data []byte) string {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.log.Warn("XLSX open failed: %v", err)
		return "[XLSX extraction error: " + err.Error() + "]"
	}

	text, err := readZipXMLText(r, "xl/sharedStrings.xml", "t")
	if err != nil {
		return "[Empty Excel file]"
	}
	if strings.TrimSpace(text) == "" {
		return "[Empty Excel file]"
	}
	return text
}

// readZipXMLText decodes one XML part from the archive and joins the
// character data found inside elements with the given local name,
// newline-separated per element.
func readZipXMLText(r *zip.Reader, partName, elemName string) (string, error) {
	part, err := r.Open(partName)
	if err != nil {
		return "", err
	}
	defer part.Close()

	decoder := xml.NewDecoder(part)
	var sb strings.Builder
	depth := 0

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == elemName {
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == elemName && depth > 0 {
				depth--
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if depth > 0 {
				sb.Write(t)
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}
