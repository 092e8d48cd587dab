package sections

import (
	"fmt"
	"strings"

	"github.com/factlens/research_radar/internal/model"
)

// writerSystemPrompt is shared by every section writer. The quote rule
// matters downstream: deduplication treats double-quoted substrings as
// exact quotes.
const writerSystemPrompt = `You are an expert writing agent focused on real-time, non-partisan research. Your sole purpose is to generate a specific section of a research report based on provided web content.

IMPORTANT: You NEVER fabricate data, quotes, articles, or URLs. You only work with real content from the provided sources.

Quote guide: Any content you write within "" must never be paraphrased or rewritten. It must appear exactly as originally published.

You MUST generate valid JSON that strictly follows the structure and field names of the example. Do not add any commentary or text outside of the JSON output.`

// Per-kind format examples, embedded verbatim in the instructions.
var kindExamples = map[model.SectionKind]string{
	model.KindNarrative: `{
  "title": "Research Report on the Topic",
  "excerpt": "Comprehensive analysis based on real-time web research and primary sources.",
  "content": "This report provides a detailed analysis based on live web research and primary source verification.",
  "category": "Research"
}`,
	model.KindSummary: `{
  "points": [
    "Key finding 1 based on primary sources",
    "Key finding 2 with direct citation",
    "Key finding 3 from official documents"
  ]
}`,
	model.KindTimeline: `[
  {
    "date": "2024-01-01T00:00:00Z",
    "title": "Event Title",
    "description": "Description with direct quote from source",
    "type": "Event Type",
    "sourceLabel": "Official Source Name",
    "sourceUrl": "https://official-source.gov/document"
  }
]`,
	model.KindSources: `[
  {
    "name": "Official Government Agency",
    "type": "Primary Source",
    "description": "Direct source of information",
    "url": "https://official-source.gov"
  }
]`,
	model.KindFacts: `[
  {
    "category": "Primary Source: Source Name",
    "facts": [
      "Direct quote from source",
      "Literal statement from official document"
    ]
  }
]`,
	model.KindPerspectives: `[
  {
    "viewpoint": "Perspective Headline",
    "description": "Summary of this perspective",
    "source": "Publisher Name",
    "quote": "Exact quote from article",
    "color": "blue",
    "url": "https://publisher.com/article",
    "reasoning": "Why this perspective matters",
    "evidence": "Supporting evidence"
  }
]`,
	model.KindConflicts: `[
  {
    "conflict_id": "conflict_001",
    "conflict_type": "factual_dispute",
    "conflict_description": "Description of the specific conflict or contradiction",
    "source_a": {
      "name": "First Source Name",
      "quote": "Exact quote from first source",
      "url": "https://first-source.com/article",
      "claim": "What this source claims"
    },
    "source_b": {
      "name": "Opposing Source Name",
      "quote": "Exact conflicting quote from opposing source",
      "url": "https://opposing-source.com/article",
      "claim": "What the opposing source claims"
    },
    "resolution_status": "unresolved",
    "severity": "high"
  }
]`,
}

// Cardinality rules are stated in the instructions and checked
// downstream by the assembler and deduplicator, not enforced here.
var kindRequirements = map[model.SectionKind]string{
	model.KindNarrative: "Write a neutral narrative article about the topic. The content field should be several paragraphs of plain prose.",
	model.KindSummary: `Provide ONLY 4-6 bullet points maximum.
Each bullet point should be concise and focused on the most critical information.
Avoid redundant or overlapping information.`,
	model.KindTimeline: "Provide a dated timeline of events when the sources support one; otherwise return an empty array [].",
	model.KindSources:  "List each distinct source once, with its type (Primary Source, News Outlet, ...) and a one-sentence description.",
	model.KindFacts: `Provide ONLY 6 facts maximum across all sources.
Focus on the most significant, verifiable facts and organize them by source.
Prioritize facts that are directly quoted or clearly stated.`,
	model.KindPerspectives: `Provide AT LEAST 2 different perspectives on the subject.
Each perspective should represent a distinct viewpoint with a clear, distinct headline and a real quote from the sources.`,
	model.KindConflicts: `Provide AT LEAST 2 different conflicts when conflicts exist between sources.
Each conflict must use completely unique quotes AND unique sources not used in any other conflict or section.
Never reuse a quote or a source name within this section.
If no conflicts are found, return an empty array [].`,
}

func buildUserPrompt(kind model.SectionKind, query string, fetched []model.FetchedItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate the %s section of a research report on %q.\n\n", strings.ReplaceAll(string(kind), "_", " "), query)
	sb.WriteString(kindRequirements[kind])
	sb.WriteString("\n\n### EXAMPLE FORMAT ###\n```json\n")
	sb.WriteString(kindExamples[kind])
	sb.WriteString("\n```\n\nWeb content:\n\n")
	for _, item := range fetched {
		fmt.Fprintf(&sb, "URL: %s\nContent: %s\n\n", item.URL, item.Text)
	}
	return sb.String()
}
