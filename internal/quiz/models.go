package quiz

// Label identifies a choice within an item ("A".."D" for generated MCQs).
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
)

type Choice struct {
	Label Label  `json:"label"`
	Text  string `json:"text"`
}

// Item is a single scored question. It is never mutated after fetch.
type Item struct {
	ID      int64    `json:"id"`
	Prompt  string   `json:"prompt"`
	Choices []Choice `json:"choices"`
	Correct Label    `json:"correct"`
}

func (it Item) Choice(l Label) (Choice, bool) {
	for _, c := range it.Choices {
		if c.Label == l {
			return c, true
		}
	}
	return Choice{}, false
}

// IsCorrect reports whether l is the correct label. Labels outside the
// choice set never match.
func (it Item) IsCorrect(l Label) bool {
	if l == "" || it.Correct == "" {
		return false
	}
	if _, ok := it.Choice(l); !ok {
		return false
	}
	return l == it.Correct
}

// Card is a flashcard: front (question/term) and back (answer).
type Card struct {
	ID    int64  `json:"id"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

type Mode int

const (
	Scored Mode = iota
	Unscored
)

func (m Mode) String() string {
	switch m {
	case Scored:
		return "scored"
	case Unscored:
		return "unscored"
	default:
		return "unknown"
	}
}
