package quiz

import (
	"fmt"
	"math/rand"

	"github.com/quizforge/quizforge/internal/grading"
)

// Assembler builds per-attempt blueprints from a quiz configuration
// and its question bank. Every draw and shuffle works on copies; the
// bank passed in is never mutated, so one loaded bank can serve many
// concurrent assemblies.
type Assembler struct {
	rng *rand.Rand
}

// NewAssembler returns an assembler backed by the shared math/rand
// source. Orderings are intentionally not reproducible across calls.
func NewAssembler() *Assembler { return &Assembler{} }

// NewAssemblerWithRand pins the random source, for tests that assert
// distribution properties.
func NewAssemblerWithRand(rng *rand.Rand) *Assembler { return &Assembler{rng: rng} }

func (a *Assembler) shuffle(n int, swap func(i, j int)) {
	if a.rng != nil {
		a.rng.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}

// Assemble selects, filters, shuffles and snapshots questions into an
// attempt blueprint. Selections whose pool is empty (or whose pinned
// question id does not resolve) contribute nothing rather than failing
// the whole assembly.
func (a *Assembler) Assemble(qz Quiz, bank Bank) (Blueprint, error) {
	if qz.BankID == "" {
		return Blueprint{}, ErrNoBankConfigured
	}

	sections := qz.Sections
	if len(sections) == 0 {
		sections = implicitSections(bank, qz.Scoring.ShuffleQuestions)
	}

	byID := make(map[string]Question, len(bank.Questions))
	for _, q := range bank.Questions {
		byID[q.ID] = q
	}

	var bp Blueprint
	for i, sec := range sections {
		secID := sec.ID
		if secID == "" {
			secID = fmt.Sprintf("sec-%d", i+1)
		}
		order := sec.Order
		if order == 0 {
			order = i + 1
		}
		bp.Sections = append(bp.Sections, BlueprintSection{ID: secID, Title: sec.Title, Order: order})

		var picked []BlueprintQuestion
		for _, sel := range sec.Selections {
			for _, q := range a.draw(sel, bank, byID) {
				picked = append(picked, a.snapshot(q, sel, qz.Scoring, secID))
			}
		}
		if sec.Randomize {
			a.shuffle(len(picked), func(x, y int) { picked[x], picked[y] = picked[y], picked[x] })
		}
		bp.Questions = append(bp.Questions, picked...)
	}

	// Quiz-level shuffle crosses section boundaries and layers on top
	// of any per-section randomization.
	if qz.Scoring.ShuffleQuestions {
		qs := bp.Questions
		a.shuffle(len(qs), func(x, y int) { qs[x], qs[y] = qs[y], qs[x] })
	}
	return bp, nil
}

// draw resolves one selection to its questions: the pinned question,
// or min(count, pool) distinct questions from the filtered pool.
func (a *Assembler) draw(sel Selection, bank Bank, byID map[string]Question) []Question {
	if sel.QuestionID != "" {
		// pinned selections ignore count and skip silently when stale
		if q, ok := byID[sel.QuestionID]; ok {
			return []Question{q}
		}
		return nil
	}
	pool := filterQuestions(bank.Questions, sel.Criteria)
	if len(pool) == 0 {
		return nil
	}
	n := sel.Count
	if n <= 0 {
		n = 1
	}
	if n > len(pool) {
		n = len(pool)
	}
	// pool is a fresh copy, safe to permute in place
	a.shuffle(len(pool), func(x, y int) { pool[x], pool[y] = pool[y], pool[x] })
	return pool[:n]
}

// filterQuestions returns a new slice of the bank questions matching
// all criteria. A nil criteria matches everything.
func filterQuestions(questions []Question, c *Criteria) []Question {
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		if matchesCriteria(q, c) {
			out = append(out, q)
		}
	}
	return out
}

func matchesCriteria(q Question, c *Criteria) bool {
	if c == nil {
		return true
	}
	if c.Difficulty != "" && q.Metadata.Difficulty != c.Difficulty {
		return false
	}
	if c.Type != "" && q.Type != c.Type {
		return false
	}
	for _, tag := range c.Tags {
		if !hasTag(q.Metadata.Tags, tag) {
			return false
		}
	}
	if len(c.IncludeIDs) > 0 {
		found := false
		for _, id := range c.IncludeIDs {
			if id == q.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

// snapshot denormalizes one selected question into a blueprint entry,
// resolving the effective grading policy from the selection override,
// then the question, then the 1/0 defaults.
func (a *Assembler) snapshot(q Question, sel Selection, scoring ScoringPolicy, sectionID string) BlueprintQuestion {
	maxMarks := q.Grading.MaxMarks
	if sel.MaxMarks != nil {
		maxMarks = *sel.MaxMarks
	} else if maxMarks == 0 {
		maxMarks = 1
	}
	if maxMarks < 0 {
		maxMarks = 0
	}

	negative := q.Grading.NegativeMarks
	if sel.NegativeMarks != nil {
		negative = *sel.NegativeMarks
	}
	if negative < 0 {
		negative = 0
	}

	options := append([]Option(nil), q.Options...)
	if sel.ShuffleOptions || scoring.ShuffleOptions {
		a.shuffle(len(options), func(x, y int) { options[x], options[y] = options[y], options[x] })
	}

	return BlueprintQuestion{
		ID:               q.ID,
		SectionID:        sectionID,
		Prompt:           q.Prompt,
		Type:             q.Type,
		Options:          options,
		MatchingPairs:    append([]MatchingPair(nil), q.MatchingPairs...),
		AnswerKey:        q.Key(),
		MaxMarks:         maxMarks,
		NegativeMarks:    negative,
		CaseSensitive:    q.Grading.CaseSensitive,
		NumericTolerance: q.Grading.NumericTolerance,
		PartialCredit:    q.Grading.PartialCredit,
		RequiresManual:   grading.RequiresManual(q.Type),
		MediaKey:         q.Metadata.MediaKey,
	}
}

// implicitSections synthesizes the single section used when a quiz
// defines none: every bank question once, in authored order, with the
// quiz-level shuffle flag as the randomize setting.
func implicitSections(bank Bank, shuffleQuestions bool) []Section {
	sels := make([]Selection, 0, len(bank.Questions))
	for _, q := range bank.Questions {
		sels = append(sels, Selection{QuestionID: q.ID, Count: 1})
	}
	return []Section{{
		ID:         "sec-1",
		Title:      bank.Title,
		Order:      1,
		Randomize:  shuffleQuestions,
		Selections: sels,
	}}
}
