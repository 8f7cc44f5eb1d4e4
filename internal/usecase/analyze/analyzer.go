// Package analyze inspects a search query and produces routing hints:
// detected language, intent, keywords, and suggested sources and mode.
package analyze

import (
	"regexp"
	"strings"
)

// Analysis is the result of analyzing one query.
type Analysis struct {
	Query            string   `json:"query"`
	Language         string   `json:"language"`
	Intent           string   `json:"intent"`
	Complexity       string   `json:"complexity"`
	Keywords         []string `json:"keywords"`
	Entities         []string `json:"entities"`
	SuggestedSources []string `json:"suggested_sources"`
	SuggestedMode    string   `json:"suggested_mode"`
	IsTechnical      bool     `json:"is_technical"`
	IsSensitive      bool     `json:"is_sensitive"`
	Sentiment        string   `json:"sentiment"`
}

// Query intents, most specific patterns checked first.
const (
	IntentHowTo         = "how_to"
	IntentWhatIs        = "what_is"
	IntentWhere         = "where"
	IntentWhen          = "when"
	IntentWhy           = "why"
	IntentComparison    = "comparison"
	IntentBest          = "best"
	IntentReview        = "review"
	IntentBuy           = "buy"
	IntentTutorial      = "tutorial"
	IntentQuestion      = "question"
	IntentInformational = "informational"
)

// Complexity buckets by word count.
const (
	ComplexitySimple   = "simple"
	ComplexityModerate = "moderate"
	ComplexityComplex  = "complex"
)

const (
	maxKeywords = 10
	maxEntities = 5
)

var technicalKeywords = wordSet(
	"api", "sdk", "library", "framework", "code", "programming",
	"python", "javascript", "java", "c++", "database", "sql",
	"algorithm", "function", "class", "method", "error", "bug",
	"install", "configuration", "docker", "kubernetes", "git", "golang",
)

var sensitiveKeywords = wordSet(
	"password", "hack", "exploit", "vulnerability", "leak",
	"breach", "illegal", "piracy", "crack", "warez",
)

var stopWords = wordSet(
	"the", "a", "an", "is", "are", "in", "on", "at", "to", "for",
	"il", "lo", "la", "i", "gli", "le", "di", "da", "con", "su", "per", "tra", "fra",
)

// Italian function words used for the coarse language guess.
var italianMarkers = wordSet(
	"il", "lo", "la", "gli", "le", "di", "da", "che", "con", "per",
	"come", "cosa", "dove", "quando", "perché", "perchè", "migliore",
	"migliori", "guida", "recensione", "prezzo", "è", "sono", "una", "uno",
)

var englishMarkers = wordSet(
	"the", "is", "are", "what", "how", "where", "when", "why", "best",
	"to", "of", "and", "for", "with", "do", "does", "can", "a", "an",
)

type intentPattern struct {
	intent string
	re     *regexp.Regexp
}

var intentPatterns = []intentPattern{
	{IntentHowTo, regexp.MustCompile(`\bhow to\b|\bhow do i\b|\bhow can i\b|\bcome\b`)},
	{IntentWhatIs, regexp.MustCompile(`\bwhat is\b|\bwhat are\b|\bdefine\b|\bcosa è\b|\bcosa sono\b`)},
	{IntentWhere, regexp.MustCompile(`\bwhere\b|\bdove\b`)},
	{IntentWhen, regexp.MustCompile(`\bwhen\b|\bquando\b`)},
	{IntentWhy, regexp.MustCompile(`\bwhy\b|\bperché\b|\bperchè\b`)},
	{IntentComparison, regexp.MustCompile(`\bvs\b|\bversus\b|\bcompare\b|\bdifference\b|\bconfrontare\b`)},
	{IntentBest, regexp.MustCompile(`\bbest\b|\btop\b|\bmigliore\b|\bmigliori\b`)},
	{IntentReview, regexp.MustCompile(`\breview\b|\breviews\b|\brecensione\b|\brecensioni\b`)},
	{IntentBuy, regexp.MustCompile(`\bbuy\b|\bpurchase\b|\bprice\b|\bcost\b|\bcomprare\b|\bprezzo\b`)},
	{IntentTutorial, regexp.MustCompile(`\btutorial\b|\bguide\b|\bguida\b`)},
}

var positiveWords = wordSet(
	"best", "good", "great", "excellent", "amazing", "love",
	"migliore", "ottimo", "eccellente", "fantastico",
)

var negativeWords = wordSet(
	"worst", "bad", "terrible", "hate", "awful", "problem",
	"peggiore", "brutto", "terribile", "problema", "errore",
)

var wordRe = regexp.MustCompile(`\b\w+\b`)
var entityRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)

// Analyzer derives routing hints from query text. Stateless and safe for
// concurrent use.
type Analyzer struct {
	defaultSources []string
	technicalBoost []string
}

// New creates an analyzer. defaultSources are always suggested;
// technicalBoost sources are added for technical and tutorial queries.
func New(defaultSources, technicalBoost []string) *Analyzer {
	if len(defaultSources) == 0 {
		defaultSources = []string{"duckduckgo"}
	}
	return &Analyzer{defaultSources: defaultSources, technicalBoost: technicalBoost}
}

// Analyze inspects one query.
func (a *Analyzer) Analyze(query string) Analysis {
	lower := strings.ToLower(query)
	words := fields(lower)
	keywords := extractKeywords(lower)
	intent := detectIntent(lower)
	technical := intersects(words, technicalKeywords)
	sensitive := intersects(words, sensitiveKeywords)

	suggestedMode := "aggregation"
	if technical {
		suggestedMode = "crawling"
	}

	return Analysis{
		Query:            query,
		Language:         detectLanguage(words),
		Intent:           intent,
		Complexity:       assessComplexity(query),
		Keywords:         keywords,
		Entities:         extractEntities(query),
		SuggestedSources: a.suggestSources(intent, technical),
		SuggestedMode:    suggestedMode,
		IsTechnical:      technical,
		IsSensitive:      sensitive,
		Sentiment:        detectSentiment(words),
	}
}

func (a *Analyzer) suggestSources(intent string, technical bool) []string {
	sources := make([]string, 0, len(a.defaultSources)+len(a.technicalBoost))
	sources = append(sources, a.defaultSources...)
	if technical || intent == IntentTutorial || intent == IntentHowTo {
		for _, s := range a.technicalBoost {
			if !contains(sources, s) {
				sources = append(sources, s)
			}
		}
	}
	return sources
}

// detectLanguage makes a coarse guess from function words: it only needs to
// tell the two supported interface languages apart, anything else is
// "unknown".
func detectLanguage(words map[string]struct{}) string {
	var en, it int
	for w := range words {
		if _, ok := englishMarkers[w]; ok {
			en++
		}
		if _, ok := italianMarkers[w]; ok {
			it++
		}
	}
	switch {
	case it > en:
		return "it"
	case en > 0:
		return "en"
	default:
		return "unknown"
	}
}

func extractKeywords(lower string) []string {
	out := []string{}
	for _, w := range wordRe.FindAllString(lower, -1) {
		if len(w) <= 2 {
			continue
		}
		if _, ok := stopWords[w]; ok {
			continue
		}
		out = append(out, w)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

func detectIntent(lower string) string {
	for _, p := range intentPatterns {
		if p.re.MatchString(lower) {
			return p.intent
		}
	}
	if strings.Contains(lower, "?") {
		return IntentQuestion
	}
	return IntentInformational
}

func assessComplexity(query string) string {
	switch n := len(strings.Fields(query)); {
	case n <= 3:
		return ComplexitySimple
	case n <= 7:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}

// extractEntities collects capitalized word runs, keeping first appearance
// order and dropping duplicates.
func extractEntities(query string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, e := range entityRe.FindAllString(query, -1) {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
		if len(out) == maxEntities {
			break
		}
	}
	return out
}

func detectSentiment(words map[string]struct{}) string {
	if intersects(words, positiveWords) {
		return "positive"
	}
	if intersects(words, negativeWords) {
		return "negative"
	}
	return "neutral"
}

func wordSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func fields(lower string) map[string]struct{} {
	s := map[string]struct{}{}
	for _, w := range strings.Fields(lower) {
		s[w] = struct{}{}
	}
	return s
}

func intersects(words, set map[string]struct{}) bool {
	for w := range words {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
