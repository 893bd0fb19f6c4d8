package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ExclusionFloor is the score at or below which a document is left out of results.
const ExclusionFloor = -50

// Candidate is a ranked document with its score
type Candidate struct {
	Document *Document
	Score    int
}

// Rank scores every document of corpus, drops the excluded ones and returns
// the rest by descending score. Equal scores keep corpus order.
func Rank(corpus []*Document, query, role string, filters FilterSet, now time.Time) []*Candidate {
	candidates := make([]*Candidate, 0, len(corpus))

	for _, doc := range corpus {
		score := Score(doc, query, role, filters, now)
		if score <= ExclusionFloor {
			continue
		}
		candidates = append(candidates, &Candidate{Document: doc, Score: score})
	}

	sortCandidates(candidates)

	return candidates
}

// sortCandidates sorts by score, descending. The sort must stay stable so
// repeated calls with the same inputs return the same order.
func sortCandidates(candidates []*Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

// Documents unwraps candidates into their documents, keeping order.
func Documents(candidates []*Candidate) []*Document {
	docs := make([]*Document, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Document
	}
	return docs
}

// AssistPointers is how many documents the assistant answer quotes.
const AssistPointers = 2

// Assist builds a short answer from the best scored documents for query.
// Unlike Rank it applies no exclusion floor: the assistant always points at
// something when the corpus is not empty.
func Assist(corpus []*Document, query, role string, filters FilterSet, now time.Time) string {
	scored := make([]*Candidate, 0, len(corpus))
	for _, doc := range corpus {
		scored = append(scored, &Candidate{Document: doc, Score: Score(doc, query, role, filters, now)})
	}
	sortCandidates(scored)
	if len(scored) > AssistPointers {
		scored = scored[:AssistPointers]
	}

	var b strings.Builder
	b.WriteString("Based on your sources, here are some pointers:\n")
	if len(scored) == 0 {
		b.WriteString("- No direct match.\n")
		return b.String()
	}
	for _, c := range scored {
		fmt.Fprintf(&b, "- %s\n", c.Document.ContentExcerpt)
	}
	b.WriteString("\nSources:\n")
	for _, c := range scored {
		fmt.Fprintf(&b, "• %s (%s)\n", c.Document.Title, c.Document.Source)
	}
	return b.String()
}
