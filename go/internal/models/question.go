package models

// Question is read-only reference data; many rows may share a letter.
type Question struct {
	Letter       string `json:"letter"`
	QuestionText string `json:"questionText"`
	Answer       string `json:"answer"`
}
