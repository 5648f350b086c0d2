package quiz

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Deck is the flashcard variant of a session: no answers, no score, a
// reveal toggle per card and movement in both directions.
type Deck struct {
	id    string
	topic int64
	cards []Card

	index     int
	flipped   bool
	exhausted bool
}

func NewDeck(topic int64, cards []Card) (*Deck, error) {
	if len(cards) == 0 {
		return nil, errors.Wrapf(ErrNoItems, "deck %d", topic)
	}
	return &Deck{
		id:    uuid.NewString(),
		topic: topic,
		cards: append([]Card(nil), cards...),
	}, nil
}

func (d *Deck) ID() string      { return d.id }
func (d *Deck) Topic() int64    { return d.topic }
func (d *Deck) Len() int        { return len(d.cards) }
func (d *Deck) Index() int      { return d.index }
func (d *Deck) Current() Card   { return d.cards[d.index] }
func (d *Deck) Flipped() bool   { return d.flipped }
func (d *Deck) Exhausted() bool { return d.exhausted }

// Face is the text currently showing.
func (d *Deck) Face() string {
	if d.flipped {
		return d.cards[d.index].Back
	}
	return d.cards[d.index].Front
}

func (d *Deck) Flip() { d.flipped = !d.flipped }

// Advance moves forward; on the last card it marks the deck exhausted.
// The flip flag is cleared either way.
func (d *Deck) Advance() bool {
	d.flipped = false
	if d.exhausted {
		return false
	}
	if d.index == len(d.cards)-1 {
		d.exhausted = true
		return true
	}
	d.index++
	return true
}

// Retreat moves back one card. At the first card, or once the deck is
// exhausted, the position is kept. The flip flag is cleared either way.
func (d *Deck) Retreat() bool {
	d.flipped = false
	if d.index == 0 || d.exhausted {
		return false
	}
	d.index--
	return true
}
