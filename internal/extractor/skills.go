package extractor

import "strings"

// SkillTagger finds vocabulary terms in free text by case-insensitive
// substring match.
type SkillTagger struct {
	terms []string
	lower []string
}

// NewSkillTagger keeps the first spelling of each term and drops blanks.
func NewSkillTagger(vocabulary []string) *SkillTagger {
	t := &SkillTagger{}
	seen := make(map[string]bool, len(vocabulary))
	for _, term := range vocabulary {
		term = strings.TrimSpace(term)
		key := strings.ToLower(term)
		if term == "" || seen[key] {
			continue
		}
		seen[key] = true
		t.terms = append(t.terms, term)
		t.lower = append(t.lower, key)
	}
	return t
}

// Tag returns the vocabulary terms found in description, in vocabulary order.
func (t *SkillTagger) Tag(description string) []string {
	found := []string{}
	if strings.TrimSpace(description) == "" {
		return found
	}
	text := strings.ToLower(description)
	for i, term := range t.lower {
		if strings.Contains(text, term) {
			found = append(found, t.terms[i])
		}
	}
	return found
}

func (t *SkillTagger) Vocabulary() []string {
	out := make([]string, len(t.terms))
	copy(out, t.terms)
	return out
}
