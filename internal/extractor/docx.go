package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type WordDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    Body     `xml:"body"`
}

type Body struct {
	Paragraphs []Paragraph `xml:"p"`
}

// Paragraph keeps its children in document order so that runs nested in
// hyperlinks are read where they appear.
type Paragraph struct {
	Items []ParagraphItem `xml:",any"`
}

type ParagraphItem struct {
	XMLName xml.Name
	Texts   []string `xml:"t"`
	Runs    []Run    `xml:"r"`
}

type Run struct {
	Texts []string `xml:"t"`
}

func (p Paragraph) Text() string {
	var b strings.Builder
	for _, item := range p.Items {
		for _, t := range item.Texts {
			b.WriteString(t)
		}
		for _, run := range item.Runs {
			for _, t := range run.Texts {
				b.WriteString(t)
			}
		}
	}
	return b.String()
}

// ExtractDOCX returns the body paragraphs of a .docx, each followed by a newline.
func ExtractDOCX(data []byte) (string, error) {
	reader := bytes.NewReader(data)

	zipReader, err := zip.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX as ZIP: %w", err)
	}

	// Find document.xml
	var documentFile *zip.File
	for _, file := range zipReader.File {
		if file.Name == "word/document.xml" {
			documentFile = file
			break
		}
	}

	if documentFile == nil {
		return "", fmt.Errorf("document.xml not found in DOCX")
	}

	xmlFile, err := documentFile.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer xmlFile.Close()

	xmlData, err := io.ReadAll(xmlFile)
	if err != nil {
		return "", fmt.Errorf("failed to read document.xml: %w", err)
	}

	var doc WordDocument
	if err := xml.Unmarshal(xmlData, &doc); err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}

	var textBuilder strings.Builder
	for _, para := range doc.Body.Paragraphs {
		textBuilder.WriteString(para.Text())
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}
