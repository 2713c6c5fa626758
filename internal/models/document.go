// ABOUTME: Document is one raw text file loaded for ingestion
// ABOUTME: Its Source is the filename verbatim and becomes the citation source
package models

// Document holds the raw text of one source file
type Document struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}
