package formatter

import (
	"bytes"

	"github.com/docqa/rag-backend/internal/entity"
	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (mf *DOCXFormatter) Format(answer *entity.Answer) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	titlePar := doc.AddParagraph()
	titlePar.SetStyle("Heading1")
	titlePar.AddRun().AddText(baseTitle)

	doc.AddParagraph()
	doc.AddParagraph().AddRun().AddText(answer.Text)

	if len(answer.Sources) > 0 {
		doc.AddParagraph()

		sourcesPar := doc.AddParagraph()
		sourcesPar.SetStyle("Heading2")
		sourcesPar.AddRun().AddText("Sources")

		for _, s := range answer.Sources {
			doc.AddParagraph().AddRun().AddText(sourceLine(s))
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (mf *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
