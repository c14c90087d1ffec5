package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"postlens/internal/core"
)

const (
	// maxPromptPosts caps how many posts are inlined into one prompt to
	// stay inside the model's context budget.
	maxPromptPosts = 60
	// maxPostChars truncates individual post bodies in the prompt.
	maxPostChars = 600
)

const topicsPromptTemplate = `You are analyzing a creator's social media post history.
Identify the 3-6 main topic clusters across the posts. Respond with JSON only, no commentary:

{
  "topics": [
    {"name": "short topic label", "share": 0.0, "keywords": ["term1", "term2"], "sample_post_ids": ["id"]}
  ]
}

"share" is the fraction of posts in that cluster (all shares sum to roughly 1.0).

POSTS:
%s`

const positioningPromptTemplate = `You are a brand strategist reviewing a creator's social media post history.
Describe their positioning. Respond with JSON only, no commentary:

{
  "archetype": "one short label for their content persona",
  "strengths": ["strength 1", "strength 2"],
  "differentiators": ["what sets them apart"],
  "summary": "2-3 sentence positioning statement"
}

POSTS:
%s`

const evaluationPromptTemplate = `You are a content quality reviewer scoring a creator's social media post history.
Score each dimension from 0 to 10. Respond with JSON only, no commentary:

{
  "overall_score": 0.0,
  "dimensions": [
    {"name": "hook strength", "score": 0.0, "comment": "one sentence"},
    {"name": "clarity", "score": 0.0, "comment": "one sentence"},
    {"name": "consistency", "score": 0.0, "comment": "one sentence"},
    {"name": "engagement fit", "score": 0.0, "comment": "one sentence"}
  ]
}

POSTS:
%s`

const narrativePromptTemplate = `You are writing the narrative insight section of a creator's analytics report.
The posts are listed in their original order. Respond with JSON only, no commentary:

{
  "headline": "one punchy headline for the report",
  "story": "3-5 sentence narrative describing how their content evolved and what stands out",
  "suggestions": ["next-step suggestion 1", "next-step suggestion 2"]
}

POSTS:
%s`

// promptFor renders the prompt for one analyzer kind over the post set.
func promptFor(kind core.AnalysisKind, posts core.PostSet) string {
	body := formatPosts(posts)
	switch kind {
	case core.KindTopics:
		return fmt.Sprintf(topicsPromptTemplate, body)
	case core.KindPositioning:
		return fmt.Sprintf(positioningPromptTemplate, body)
	case core.KindEvaluation:
		return fmt.Sprintf(evaluationPromptTemplate, body)
	case core.KindNarrative:
		return fmt.Sprintf(narrativePromptTemplate, body)
	}
	return ""
}

// formatPosts renders posts as compact prompt lines, capped to keep the
// request inside the model context window.
func formatPosts(posts core.PostSet) string {
	var b strings.Builder
	count := len(posts)
	if count > maxPromptPosts {
		count = maxPromptPosts
	}
	for _, p := range posts[:count] {
		text := p.Text
		if len(text) > maxPostChars {
			cut := maxPostChars
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut] + "…"
		}
		reshare := ""
		if p.IsReshare {
			reshare = " [reshare]"
		}
		fmt.Fprintf(&b, "[%s] %s%s (reactions=%d comments=%d shares=%d)\n%s\n\n",
			p.ID, p.Timestamp.Format("2006-01-02"), reshare, p.Reactions, p.Comments, p.Shares, text)
	}
	if len(posts) > count {
		fmt.Fprintf(&b, "(%d additional posts omitted)\n", len(posts)-count)
	}
	return b.String()
}
