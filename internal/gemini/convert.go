package gemini

import (
	"google.golang.org/genai"

	"github.com/DeafMist/trend-radar/internal/grounding"
)

// convert copies the parts of an SDK response the grounding package reads.
func convert(resp *genai.GenerateContentResponse) *grounding.Response {
	out := &grounding.Response{}
	if resp == nil {
		return out
	}
	for _, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		out.Candidates = append(out.Candidates, grounding.Candidate{
			Content:           convertContent(cand.Content),
			GroundingMetadata: convertMetadata(cand.GroundingMetadata),
			FinishReason:      string(cand.FinishReason),
		})
	}
	return out
}

func convertContent(c *genai.Content) *grounding.Content {
	if c == nil {
		return nil
	}
	out := &grounding.Content{Role: c.Role}
	for _, p := range c.Parts {
		if p == nil || p.Thought {
			continue
		}
		out.Parts = append(out.Parts, grounding.Part{Text: p.Text})
	}
	return out
}

func convertMetadata(md *genai.GroundingMetadata) *grounding.Metadata {
	if md == nil {
		return nil
	}
	out := &grounding.Metadata{WebSearchQueries: md.WebSearchQueries}

	for _, chunk := range md.GroundingChunks {
		var c grounding.Chunk
		if chunk != nil && chunk.Web != nil {
			c.Web = &grounding.WebChunk{URI: chunk.Web.URI, Title: chunk.Web.Title}
		}
		// Keep empty chunks so support indices still line up.
		out.GroundingChunks = append(out.GroundingChunks, c)
	}

	for _, support := range md.GroundingSupports {
		if support == nil {
			continue
		}
		s := grounding.Support{Segment: convertSegment(support.Segment)}
		for _, idx := range support.GroundingChunkIndices {
			s.GroundingChunkIndices = append(s.GroundingChunkIndices, int(idx))
		}
		out.GroundingSupports = append(out.GroundingSupports, s)
	}
	return out
}

// convertSegment keeps the wire semantics: the SDK decodes an omitted offset
// as zero, and a zero end offset carries no span to cite.
func convertSegment(seg *genai.Segment) *grounding.Segment {
	if seg == nil {
		return nil
	}
	out := &grounding.Segment{Text: seg.Text}
	start := int(seg.StartIndex)
	out.StartIndex = &start
	if seg.EndIndex != 0 {
		end := int(seg.EndIndex)
		out.EndIndex = &end
	}
	return out
}
