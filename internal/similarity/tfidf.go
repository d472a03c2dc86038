// Package similarity scores new content against prior publications to catch
// near-duplicates before they reach a site.
package similarity

import (
	"math"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Scorer computes a similarity score in [0,1] between two texts.
// Implementations are interchangeable behind this contract; the default is
// TF-IDF cosine, but embedding-based scorers satisfy it too.
type Scorer interface {
	Score(a, b string) float64
}

// TFIDFScorer scores two documents with TF-IDF weighted cosine similarity
// over cleaned, stop-word-filtered tokens.
type TFIDFScorer struct {
	stopWords map[string]struct{}
}

// French stop words; the managed sites publish French content.
var frenchStopWords = []string{
	"le", "la", "les", "un", "une", "des", "du", "de", "et", "en", "est",
	"que", "qui", "dans", "pour", "sur", "avec", "par", "au", "aux", "ce",
	"cette", "ces", "son", "sa", "ses", "leur", "leurs", "notre", "votre",
	"nous", "vous", "il", "elle", "ils", "elles", "je", "tu", "on", "se",
	"ne", "pas", "plus", "mais", "ou", "donc", "car", "ni", "si", "tout",
	"tous", "toutes", "comme", "aussi", "bien", "peut", "fait", "faire",
	"avoir", "etre", "sont", "ont", "a", "y", "dont", "cela", "ceci",
}

// NewTFIDFScorer builds the default scorer.
func NewTFIDFScorer() *TFIDFScorer {
	stop := make(map[string]struct{}, len(frenchStopWords))
	for _, w := range frenchStopWords {
		stop[w] = struct{}{}
	}
	return &TFIDFScorer{stopWords: stop}
}

var (
	nonWordRe     = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	digitsRe      = regexp.MustCompile(`\d+`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	looksLikeHTML = regexp.MustCompile(`<[a-zA-Z!/]`)
)

// Score returns the cosine similarity of the TF-IDF vectors of a and b.
// Empty or stop-word-only documents score 0.
func (s *TFIDFScorer) Score(a, b string) float64 {
	tokensA := s.tokenize(cleanText(a))
	tokensB := s.tokenize(cleanText(b))
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	vocab := make(map[string]struct{}, len(tokensA)+len(tokensB))
	tfA := termFrequency(tokensA, vocab)
	tfB := termFrequency(tokensB, vocab)
	idf := inverseDocFrequency(vocab, tfA, tfB)

	var dot, normA, normB float64
	for word := range vocab {
		wa := tfA[word] * idf[word]
		wb := tfB[word] * idf[word]
		dot += wa * wb
		normA += wa * wa
		normB += wb * wb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Min(1, math.Max(0, score))
}

func (s *TFIDFScorer) tokenize(text string) []string {
	words := strings.Fields(text)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		if _, stop := s.stopWords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// cleanText strips markup, punctuation and digits and lower-cases the rest.
// HTML bodies are reduced to their visible text first.
func cleanText(text string) string {
	if looksLikeHTML.MatchString(text) {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			text = doc.Text()
		}
	}
	text = nonWordRe.ReplaceAllString(text, " ")
	text = digitsRe.ReplaceAllString(text, " ")
	text = strings.ToLower(text)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

func termFrequency(tokens []string, vocab map[string]struct{}) map[string]float64 {
	counts := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		counts[t]++
		vocab[t] = struct{}{}
	}
	total := float64(len(tokens))
	for t := range counts {
		counts[t] /= total
	}
	return counts
}

// inverseDocFrequency uses smoothed IDF over the two-document corpus:
// log((N+1)/(df+1)) + 1.
func inverseDocFrequency(vocab map[string]struct{}, docs ...map[string]float64) map[string]float64 {
	n := float64(len(docs))
	idf := make(map[string]float64, len(vocab))
	for word := range vocab {
		df := 0.0
		for _, doc := range docs {
			if _, ok := doc[word]; ok {
				df++
			}
		}
		idf[word] = math.Log((n+1)/(df+1)) + 1
	}
	return idf
}
