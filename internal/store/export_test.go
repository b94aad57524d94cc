package store

import "github.com/starquake/quizbook/internal/quiz"

const (
	LoadDocumentSQL = loadDocumentSQL
	SaveDocumentSQL = saveDocumentSQL
)

func EncodeDocument(doc *quiz.Document, compact bool) ([]byte, error) {
	return newCodec(compact).encode(doc)
}

func DecodeDocument(data []byte) (*quiz.Document, error) {
	return newCodec(false).decode(data)
}
