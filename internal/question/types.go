package question

// Option is a single lettered answer choice.
type Option struct {
	Letter string `json:"letter"` // A-F, unique within a question
	Text   string `json:"text"`
}

// Question is an immutable multiple-choice question from the bank.
//
// The exam domain is not part of the record: it is derived by the
// classifier and may change when classification rules change.
type Question struct {
	ID            int      `json:"id"`
	Text          string   `json:"question"`
	Options       []Option `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"` // concatenated letters, e.g. "BD"
	Explanation   string   `json:"explanation,omitempty"`
	Tips          string   `json:"tips,omitempty"`

	// Category is the coarse tag from the source data, if any. It is an
	// untrusted hint for the classifier.
	Category string `json:"category,omitempty"`
}

// IsMultiSelect reports whether the question expects more than one letter.
func (q *Question) IsMultiSelect() bool {
	return len(q.CorrectAnswer) > 1
}

// SelectCount returns how many letters the correct answer contains.
func (q *Question) SelectCount() int {
	return len(q.CorrectAnswer)
}

// Option returns the option with the given letter.
func (q *Question) Option(letter string) (Option, bool) {
	for _, o := range q.Options {
		if o.Letter == letter {
			return o, true
		}
	}
	return Option{}, false
}

// Bank is the on-disk representation of a question bank file.
type Bank struct {
	Version   string     `json:"version"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}
