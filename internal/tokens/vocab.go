package tokens

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Vocab counts tokens with a real subword vocabulary loaded from a
// local HuggingFace tokenizer.json. Still deterministic — the file is
// read once at startup and the encoding is a pure function of the text —
// but exact for the model the vocabulary belongs to.
type Vocab struct {
	tk   *tokenizer.Tokenizer
	path string
}

// NewVocab loads a tokenizer.json from disk. A missing or malformed
// file is a configuration error and should stop the pipeline before any
// document is processed.
func NewVocab(path string) (*Vocab, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer %s: %w", path, err)
	}
	return &Vocab{tk: tk, path: path}, nil
}

func (v *Vocab) Name() string { return "vocab:" + v.path }

// Estimate encodes the text and returns the token count. Encoding
// failures fall back to the byte heuristic rather than failing the
// pipeline; estimation must stay total.
func (v *Vocab) Estimate(text string) int {
	if text == "" {
		return 0
	}
	en, err := v.tk.EncodeSingle(text)
	if err != nil {
		return Heuristic{}.Estimate(text)
	}
	return len(en.Ids)
}
