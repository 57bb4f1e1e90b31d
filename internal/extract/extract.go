// Package extract implements the text-extraction capability. It always
// returns a string: failures and unsupported types come back as
// bracketed sentinel strings that the stores keep as-is, never as
// errors.
package extract

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

// File types the pipeline understands.
const (
	TypePDF  = "pdf"
	TypeDOCX = "docx"
	TypePPTX = "pptx"
	TypeTXT  = "txt"
	TypeXLSX = "xlsx"
	TypeCSV  = "csv"
)

// UnsupportedMessage is stored for files we keep but cannot read.
const UnsupportedMessage = "Text extraction not supported for this file type, but file is stored."

// IsErrorText reports whether an extraction result is a failure
// sentinel rather than document text. Empty-file and unsupported-type
// placeholders are real results, not failures.
func IsErrorText(text string) bool {
	if !strings.HasPrefix(text, "[") {
		return false
	}
	return strings.HasPrefix(text, "[ERROR") || strings.Contains(text, "extraction error:")
}

// Extractor is the extraction capability.
type Extractor interface {
	ExtractText(data []byte, fileType string) string
}

type DefaultExtractor struct {
	log *logger.Logger
}

func New() *DefaultExtractor {
	return &DefaultExtractor{log: logger.New("extract")}
}

var _ Extractor = (*DefaultExtractor)(nil)

func (e *DefaultExtractor) ExtractText(data []byte, fileType string) string {
	switch fileType {
	case TypePDF:
		return e.extractPDF(data)
	case TypeDOCX:
		return e.extractDocx(data)
	case TypePPTX:
		return e.extractPptx(data)
	case TypeXLSX:
		return e.extractXlsx(data)
	case TypeTXT:
		return e.extractTxt(data)
	case TypeCSV:
		return e.extractCSV(data)
	default:
		return UnsupportedMessage
	}
}

func (e *DefaultExtractor) extractTxt(data []byte) string {
	content := strings.ToValidUTF8(string(data), "")
	if strings.TrimSpace(content) == "" {
		return "[Empty text file]"
	}
	return content
}

func (e *DefaultExtractor) extractCSV(data []byte) string {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var sb strings.Builder
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "[CSV extraction error: " + err.Error() + "]"
		}
		if rows > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Join(record, "  "))
		rows++
	}

	if rows == 0 {
		return "[Empty CSV file]"
	}
	return sb.String()
}

// GuessFileType maps a filename and MIME type onto one of the supported
// types, "" when unsupported. Google Docs/Sheets/Slides map onto their
// Office equivalents because that is how the export arrives.
func GuessFileType(name, mimeType string) string {
	lower := strings.ToLower(name)

	switch {
	case mimeType == "application/pdf" || strings.HasSuffix(lower, ".pdf"):
		return TypePDF
	case mimeType == "application/vnd.openxmlformats-officedocument.wordprocessingml.document" ||
		strings.HasSuffix(lower, ".docx"):
		return TypeDOCX
	case mimeType == "application/vnd.openxmlformats-officedocument.presentationml.presentation" ||
		strings.HasSuffix(lower, ".pptx"):
		return TypePPTX
	case mimeType == "text/plain" || strings.HasSuffix(lower, ".txt"):
		return TypeTXT
	case mimeType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" ||
		strings.HasSuffix(lower, ".xlsx"):
		return TypeXLSX
	case mimeType == "text/csv" || strings.HasSuffix(lower, ".csv"):
		return TypeCSV
	case strings.HasPrefix(mimeType, "application/vnd.google-apps."):
		switch {
		case strings.Contains(mimeType, "document"):
			return TypeDOCX
		case strings.Contains(mimeType, "spreadsheet"):
			return TypeXLSX
		case strings.Contains(mimeType, "presentation"):
			return TypePPTX
		}
	}
	return ""
}

// DetectFileType is GuessFileType with a byte-sniffing fallback for
// entries whose name and declared MIME type are both unhelpful.
func DetectFileType(name, mimeType string, data []byte) string {
	if t := GuessFileType(name, mimeType); t != "" {
		return t
	}
	if len(data) == 0 {
		return ""
	}
	return GuessFileType(name, mimetype.Detect(data).String())
}
