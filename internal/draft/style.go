package draft

import "math/rand"

// Style parameter values. One value per axis is drawn for every promotion
// and stored with the event, so repeated promotions of the same URL vary in
// voice rather than converging on one template.
var (
	emojiStyles   = []string{"none", "minimal_1", "moderate_2-3", "enthusiastic_3+"}
	tones         = []string{"professional", "casual", "enthusiastic", "conversational"}
	ctaStyles     = []string{"direct", "question", "intrigue", "benefit-focused"}
	lengthTargets = []string{"concise_180", "medium_220", "full_280"}
)

// RandomStyle draws one value per style axis. Hashtags are kept rare; they
// read as spam on most of this content.
func RandomStyle(rng *rand.Rand) map[string]string {
	style := map[string]string{
		"emoji_style":      emojiStyles[rng.Intn(len(emojiStyles))],
		"tone":             tones[rng.Intn(len(tones))],
		"cta_style":        ctaStyles[rng.Intn(len(ctaStyles))],
		"length_target":    lengthTargets[rng.Intn(len(lengthTargets))],
		"include_hashtags": "false",
	}
	if rng.Intn(5) == 0 {
		style["include_hashtags"] = "true"
	}
	return style
}

var emojiInstructions = map[string]string{
	"none":            "- Use no emojis",
	"minimal_1":       "- Use exactly 1 emoji, placed naturally",
	"moderate_2-3":    "- Use 2-3 emojis maximum, placed naturally",
	"enthusiastic_3+": "- Use 3+ emojis to show enthusiasm",
}

var toneInstructions = map[string]string{
	"professional":   "- Professional, authoritative tone",
	"casual":         "- Casual, friendly tone",
	"enthusiastic":   "- Enthusiastic, energetic tone",
	"conversational": "- Conversational, approachable tone",
}

var ctaInstructions = map[string]string{
	"direct":          "- Direct call-to-action (e.g., 'Read more:', 'Check it out:')",
	"question":        "- Use a question to create curiosity",
	"intrigue":        "- Create intrigue without giving everything away",
	"benefit-focused": "- Focus on the benefit/value to the reader",
}

var lengthInstructions = map[string]string{
	"concise_180": "- Keep it concise, under 180 characters",
	"medium_220":  "- Aim for around 220 characters",
	"full_280":    "- Use the full 280 character limit if needed",
}

func styleInstructions(style map[string]string) []string {
	var out []string

	if s, ok := emojiInstructions[style["emoji_style"]]; ok {
		out = append(out, s)
	} else {
		out = append(out, emojiInstructions["none"])
	}
	if s, ok := toneInstructions[style["tone"]]; ok {
		out = append(out, s)
	} else {
		out = append(out, toneInstructions["conversational"])
	}
	if s, ok := ctaInstructions[style["cta_style"]]; ok {
		out = append(out, s)
	} else {
		out = append(out, ctaInstructions["direct"])
	}
	if s, ok := lengthInstructions[style["length_target"]]; ok {
		out = append(out, s)
	} else {
		out = append(out, lengthInstructions["medium_220"])
	}
	if style["include_hashtags"] == "true" {
		out = append(out, "- Include 1-2 relevant hashtags")
	} else {
		out = append(out, "- No hashtags")
	}

	return out
}
