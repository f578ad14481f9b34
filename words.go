package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

//go:embed data.json
var defaultWordData []byte

// The four regular participle classes, in declaration order. Prompt options
// always start with these; irregular forms are appended after them.
var verbClasses = []string{"eingekauft", "verkauft", "gekauft", "diskutiert"}

const classIrregular = "irregular"

// Word is one entry of the word list: a verb, its participle class, and,
// for irregular verbs, the full perfect form plus precomputed wrong
// variants used as distractors.
type Word struct {
	Text               string   `json:"text"`
	Class              string   `json:"class"`
	Irregular          string   `json:"irregular,omitempty"`
	IncorrectIrregular []string `json:"incorrectIrregular,omitempty"`
}

// Answer returns the canonical answer for this word: the irregular perfect
// form if there is one, otherwise the class label.
func (w Word) Answer() string {
	if w.Irregular != "" {
		return w.Irregular
	}
	return w.Class
}

// Options returns the class labels in declaration order, followed by the
// word's irregular form and its distractors in randomized order.
func (w Word) Options() []string {
	options := make([]string, 0, len(verbClasses)+1+len(w.IncorrectIrregular))
	options = append(options, verbClasses...)

	var irregulars []string
	if w.Irregular != "" {
		irregulars = append(irregulars, w.Irregular)
	}
	irregulars = append(irregulars, w.IncorrectIrregular...)
	rand.Shuffle(len(irregulars), func(i, j int) {
		irregulars[i], irregulars[j] = irregulars[j], irregulars[i]
	})

	return append(options, irregulars...)
}

// Prompt is one question instance. The canonical answer stays server-side.
type Prompt struct {
	Text    string   `json:"text"`
	Answer  string   `json:"-"`
	Options []string `json:"options"`
}

// WordBank holds the loaded word list. Immutable after LoadWordBank.
type WordBank struct {
	words []Word
}

// LoadWordBank reads a word list from path, or the embedded default when
// path is empty, and precomputes the incorrect irregular variants.
func LoadWordBank(path string) (*WordBank, error) {
	data := defaultWordData
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading word list: %w", err)
		}
	}

	var file struct {
		Words []Word `json:"words"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing word list: %w", err)
	}
	if len(file.Words) == 0 {
		return nil, errors.New("word list is empty")
	}

	for i := range file.Words {
		file.Words[i].IncorrectIrregular = incorrectVariants(file.Words[i])
	}

	return &WordBank{words: file.Words}, nil
}

// incorrectVariants builds plausible-but-wrong perfect forms for an
// irregular word: the same form with the auxiliary swapped, and the
// participle ending flipped between -t and -en, with and without the
// auxiliary swap.
func incorrectVariants(w Word) []string {
	if w.Class != classIrregular || w.Irregular == "" {
		return nil
	}

	parts := strings.Split(w.Irregular, " ")
	if len(parts) != 3 {
		return nil
	}

	opposite := "hat"
	if parts[1] == "hat" {
		opposite = "ist"
	}

	variants := []string{parts[0] + " " + opposite + " " + parts[2]}

	participle := parts[2]
	switch {
	case strings.HasSuffix(w.Irregular, "en"):
		variants = append(variants,
			w.Irregular[:len(w.Irregular)-2]+"t",
			parts[0]+" "+opposite+" "+participle[:len(participle)-2]+"t")
	case strings.HasSuffix(w.Irregular, "et"):
		variants = append(variants,
			w.Irregular[:len(w.Irregular)-2]+"en",
			parts[0]+" "+opposite+" "+participle[:len(participle)-2]+"en")
	case strings.HasSuffix(w.Irregular, "t"):
		variants = append(variants,
			w.Irregular[:len(w.Irregular)-1]+"en",
			parts[0]+" "+opposite+" "+participle[:len(participle)-1]+"en")
	}

	return variants
}

// Words returns the loaded list, for the debug dump endpoint.
func (b *WordBank) Words() []Word {
	return b.words
}

// NewPrompt draws one word uniformly at random and turns it into a prompt.
func (b *WordBank) NewPrompt() *Prompt {
	word := b.words[rand.Intn(len(b.words))]
	return &Prompt{
		Text:    word.Text,
		Answer:  word.Answer(),
		Options: word.Options(),
	}
}
