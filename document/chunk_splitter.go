package document

// CharacterSplitter splits on a single separator and merges the pieces back
// into chunks. Pieces longer than ChunkSize are kept whole.
type CharacterSplitter struct {
	Separator string
	merger
}

func NewCharacterSplitter(chunkSize int, chunkOverlap int, separator string) (*CharacterSplitter, error) {
	if err := validateChunking("new_character_splitter", chunkSize, chunkOverlap); err != nil {
		return nil, err
	}

	if separator == "" {
		separator = " "
	}

	return &CharacterSplitter{
		Separator: separator,
		merger: merger{
			chunkSize:    chunkSize,
			chunkOverlap: chunkOverlap,
			length:       RuneLength,
			strip:        true,
		},
	}, nil
}

func (cs *CharacterSplitter) SplitText(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	return cs.merge(splitOnSeparator(text, cs.Separator, false), cs.Separator), nil
}
