package quiz

import (
	"math/rand"
	"strings"
)

// OfficialTestSize is the fixed question count of an official test, bank
// permitting.
const OfficialTestSize = 28

// official test composition: the struggle share of the build, inverted on
// retakes ("mercy rule")
const struggleShare = 0.6

// infinite practice weights
const (
	weightStruggle = 50
	weightNeutral  = 10
	weightMastered = 2
)

// Candidate is one bank question annotated with its linked card and the
// trainee's mastery status for that card. A question with no linked card
// is neutral and carries no mastery signal.
type Candidate struct {
	Index    int // position in the question bank
	Question Question
	CardID   string
	Status   MasteryStatus
}

const linkMatchLen = 80

// normalizeText lowercases, collapses whitespace and truncates, so card
// and option texts compare on content rather than formatting.
func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > linkMatchLen {
		s = s[:linkMatchLen]
	}
	return s
}

func textsOverlap(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// LinkQuestions joins bank questions to flashcards by matching card text
// against the correct-answer option. First matching card wins; questions
// with no match stay unlinked (neutral).
func LinkQuestions(bank QuestionBank, set CardSet) []Candidate {
	cands := make([]Candidate, 0, len(bank.Questions))
	for i, q := range bank.Questions {
		cand := Candidate{Index: i, Question: q}
		if q.Answer >= 0 && q.Answer < len(q.Options) {
			answer := normalizeText(q.Options[q.Answer])
			for _, card := range set.Cards {
				if textsOverlap(answer, normalizeText(card.Front)) ||
					textsOverlap(answer, normalizeText(card.Back)) {
					cand.CardID = card.ID()
					break
				}
			}
		}
		cands = append(cands, cand)
	}
	return cands
}

// Classify stamps each linked candidate with the trainee's mastery status.
// Unlinked candidates stay neutral.
func Classify(cands []Candidate, mastery map[string]MasteryRecord) []Candidate {
	out := make([]Candidate, len(cands))
	for i, c := range cands {
		if c.CardID != "" {
			c.Status = mastery[c.CardID].Status
		}
		out[i] = c
	}
	return out
}

// BuildOfficialTest assembles an official test from the candidate pool.
// First attempt: 60% of slots target struggle-linked questions, the rest
// mastered and neutral. Retakes invert the split toward mastered content.
// Underfilled buckets backfill from whatever remains; the result is
// shuffled and never contains duplicates.
func BuildOfficialTest(cands []Candidate, priorAttempts int, rng *rand.Rand) []Candidate {
	size := OfficialTestSize
	if len(cands) < size {
		size = len(cands)
	}

	var struggle, rest []Candidate
	for _, c := range cands {
		if c.Status == MasteryStruggle {
			struggle = append(struggle, c)
		} else {
			rest = append(rest, c)
		}
	}
	shuffle(struggle, rng)
	shuffle(rest, rng)

	primary, secondary := struggle, rest
	if priorAttempts >= 1 {
		// mercy rule: lean on what the trainee already knows
		primary, secondary = rest, struggle
	}

	primaryTarget := int(float64(size)*struggleShare + 0.5)
	picked := make([]Candidate, 0, size)
	picked = append(picked, take(primary, primaryTarget)...)
	picked = append(picked, take(secondary, size-len(picked))...)
	// backfill from the primary leftovers when the secondary ran short
	if len(picked) < size {
		leftovers := primary[min(len(primary), primaryTarget):]
		picked = append(picked, take(leftovers, size-len(picked))...)
	}

	shuffle(picked, rng)
	return picked
}

// NextInfiniteQuestion picks the next practice question by weighted random
// over candidates not in the recent history (50 struggle, 10 neutral,
// 2 mastered). When history covers the whole pool it falls back to a
// uniform pick over everything. Returns the bank index, or -1 on an empty
// pool.
func NextInfiniteQuestion(cands []Candidate, history []int, rng *rand.Rand) int {
	if len(cands) == 0 {
		return -1
	}

	recent := make(map[int]bool, len(history))
	for _, idx := range history {
		recent[idx] = true
	}

	var eligible []Candidate
	for _, c := range cands {
		if !recent[c.Index] {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return cands[rng.Intn(len(cands))].Index
	}

	var total int
	for _, c := range eligible {
		total += weightOf(c.Status)
	}
	pick := rng.Intn(total)
	for _, c := range eligible {
		pick -= weightOf(c.Status)
		if pick < 0 {
			return c.Index
		}
	}
	return eligible[len(eligible)-1].Index
}

func weightOf(status MasteryStatus) int {
	switch status {
	case MasteryStruggle:
		return weightStruggle
	case MasteryMastered:
		return weightMastered
	default:
		return weightNeutral
	}
}

func shuffle(cands []Candidate, rng *rand.Rand) {
	rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
}

func take(cands []Candidate, n int) []Candidate {
	if n <= 0 {
		return nil
	}
	if n > len(cands) {
		n = len(cands)
	}
	return cands[:n]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
