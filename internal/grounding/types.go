// Package grounding turns search-grounding metadata attached to a generation
// response into cited sources and inline citation markers.
package grounding

import "strings"

// Response is the subset of a generateContent response the pipeline reads.
// Every level is optional: a model that never invoked search returns no
// grounding metadata at all.
type Response struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content           *Content  `json:"content,omitempty"`
	GroundingMetadata *Metadata `json:"groundingMetadata,omitempty"`
	FinishReason      string    `json:"finishReason,omitempty"`
}

// Content holds the generated parts of a candidate.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a single generated text fragment.
type Part struct {
	Text string `json:"text"`
}

// Metadata is the grounding evidence for a candidate.
type Metadata struct {
	WebSearchQueries  []string  `json:"webSearchQueries,omitempty"`
	GroundingChunks   []Chunk   `json:"groundingChunks,omitempty"`
	GroundingSupports []Support `json:"groundingSupports,omitempty"`
}

// Chunk is a cited source in provider order.
type Chunk struct {
	Web *WebChunk `json:"web,omitempty"`
}

// WebChunk describes a cited web page.
type WebChunk struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Support binds the text span ending at Segment.EndIndex to chunks.
type Support struct {
	Segment               *Segment `json:"segment,omitempty"`
	GroundingChunkIndices []int    `json:"groundingChunkIndices,omitempty"`
}

// Segment locates a span of the response text. Offsets are UTF-8 byte
// offsets into the unmodified text; the provider omits zero values.
type Segment struct {
	StartIndex *int   `json:"startIndex,omitempty"`
	EndIndex   *int   `json:"endIndex,omitempty"`
	Text       string `json:"text,omitempty"`
}

// Text concatenates the text parts of the first candidate.
func (r *Response) Text() string {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

// metadata returns the grounding metadata of the first candidate, if any.
func (r *Response) metadata() (*Metadata, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return nil, false
	}
	md := r.Candidates[0].GroundingMetadata
	if md == nil {
		return nil, false
	}
	return md, true
}
