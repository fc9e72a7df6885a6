package domain

import "fmt"

// ValidateQuestion rejects malformed question records before they can reach a
// running session: empty subject or prompt, unknown track, no answers, or no
// answer flagged correct.
func ValidateQuestion(q Question) error {
	if q.Subject == "" {
		return fmt.Errorf("%w: empty subject", ErrInvalidQuestion)
	}
	if !q.Track.Valid() {
		return fmt.Errorf("%w: unknown track %q", ErrInvalidQuestion, q.Track)
	}
	if q.Prompt == "" {
		return fmt.Errorf("%w: empty prompt", ErrInvalidQuestion)
	}
	if len(q.Answers) == 0 {
		return fmt.Errorf("%w: no answers", ErrInvalidQuestion)
	}
	hasCorrect := false
	for _, a := range q.Answers {
		if a.Correct {
			hasCorrect = true
			break
		}
	}
	if !hasCorrect {
		return fmt.Errorf("%w: no correct answer", ErrInvalidQuestion)
	}
	return nil
}

// ValidateGroup validates an authored question group and every question in it.
func ValidateGroup(g QuestionGroup) error {
	if g.Subject == "" {
		return fmt.Errorf("%w: group has empty subject", ErrInvalidQuestion)
	}
	if g.AuthorID == "" {
		return fmt.Errorf("%w: group has no author", ErrInvalidQuestion)
	}
	for i, q := range g.Questions {
		if q.Subject != g.Subject {
			return fmt.Errorf("%w: question %d subject %q does not match group %q", ErrInvalidQuestion, i, q.Subject, g.Subject)
		}
		if err := ValidateQuestion(q); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}
