// ABOUTME: Citation and Answer types returned by the answer pipeline
// ABOUTME: Citations are derived from retrieval, never parsed from model output
package models

// Citation justifies part of a generated answer
type Citation struct {
	Source  string `json:"source"`
	Locator string `json:"locator"`
	Snippet string `json:"snippet"`
}

// Answer is the generated text paired with the citations of the retrieved chunks
type Answer struct {
	Text      string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// RefusalText is returned verbatim when the documents do not support an answer
const RefusalText = "I cannot find this in the uploaded documents."

// IsRefusal reports whether the answer is the fixed refusal
func (a Answer) IsRefusal() bool {
	return a.Text == RefusalText
}
