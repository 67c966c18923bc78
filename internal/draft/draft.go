// Package draft turns a selected page into final post text: prompt
// building per item kind, style variation, the LLM call, and the length/URL
// post-processing guarantee.
package draft

import (
	"context"
	"fmt"
	"strings"

	"github.com/pikeandvine/tweetbot/internal/llm"
	"github.com/pikeandvine/tweetbot/internal/source"
)

// MaxLen is the platform character limit.
const MaxLen = 280

// Item is everything the prompt builder knows about the selected page.
type Item struct {
	URL     string
	Title   string
	Kind    source.Kind
	Summary string
	Tags    string // listings only
	LastMod string // YYYY-MM-DD or empty
}

// Drafter produces promotional text for an item.
type Drafter struct {
	provider  llm.Provider
	siteName  string
	siteDesc  string
	maxTokens int
}

// New creates a drafter. siteName and siteDesc give the LLM context about
// whose voice it is writing in.
func New(provider llm.Provider, siteName, siteDesc string, maxTokens int) *Drafter {
	if maxTokens == 0 {
		maxTokens = 150
	}
	return &Drafter{
		provider:  provider,
		siteName:  siteName,
		siteDesc:  siteDesc,
		maxTokens: maxTokens,
	}
}

// Draft builds the prompt, calls the LLM and applies the fit rule. The
// returned text always contains item.URL and is at most MaxLen characters.
// An LLM failure or empty result is an error; there is no template
// fallback.
func (d *Drafter) Draft(ctx context.Context, item Item, style map[string]string, previous []string) (string, error) {
	prompt := d.buildPrompt(item, style, previous)

	text, err := d.provider.Generate(ctx, prompt, d.maxTokens)
	if err != nil {
		return "", fmt.Errorf("drafting text for %s: %w", item.URL, err)
	}

	return FitWithURL(text, item.URL, MaxLen), nil
}

// itemIntro maps an item kind to the opening line and audience framing of
// its prompt. Dispatch on the kind tag, nothing else varies by kind.
var itemIntro = map[source.Kind]func(Item) string{
	source.KindBlog: func(it Item) string {
		return "Write a tweet that encourages people to read this article:"
	},
	source.KindListing: func(it Item) string {
		return "Write a tweet that encourages people to visit this business and explore its page. " +
			"Mention one or two appealing aspects, but do not list all tags mechanically:"
	},
	source.KindDistrict: func(it Item) string {
		return "Write a tweet that encourages people to explore this district guide:"
	},
}

func (d *Drafter) buildPrompt(item Item, style map[string]string, previous []string) string {
	intro, ok := itemIntro[item.Kind]
	if !ok {
		intro = itemIntro[source.KindBlog]
	}

	parts := []string{
		intro(item),
		"Title: " + item.Title,
	}
	if item.Summary != "" {
		parts = append(parts, "Summary: "+item.Summary)
	}
	if item.Tags != "" {
		parts = append(parts, "Tags: "+item.Tags)
	}
	if item.LastMod != "" {
		parts = append(parts, "Published: "+item.LastMod)
	}
	parts = append(parts, "URL: "+item.URL, "")

	parts = append(parts, styleInstructions(style)...)

	if len(previous) > 0 {
		parts = append(parts, "",
			"IMPORTANT: This page has been promoted before. Your tweet must be completely different from these previous tweets:")
		for i, prev := range previous {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, prev))
		}
		parts = append(parts, "", "Use different wording, angle, and style than the above.")
	}

	parts = append(parts, "",
		"Requirements:",
		"- Must include the URL: "+item.URL,
		fmt.Sprintf("- Maximum %d characters total", MaxLen),
		"- Natural, human voice (not AI-sounding)",
		"- Do not sound like clickbait",
		"- Do not refer to the page as 'latest', 'new', or 'just published'",
		fmt.Sprintf("- Site context: %s - %s", d.siteName, d.siteDesc),
	)

	return strings.Join(parts, "\n")
}
