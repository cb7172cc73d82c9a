package uomfile

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrNoProperty is returned for a file without a quantity header.
	ErrNoProperty = errors.New("no quantity declaration")
	// ErrNoUnitsBlock is returned for a file without a units block.
	ErrNoUnitsBlock = errors.New("no units block")
)

var (
	quantityPattern = regexp.MustCompile(`quantity:\s+\w+;\s*"([^"]+)"`)
	// The block runs to the first line whose first non-blank character
	// closes a brace.
	unitsPattern = regexp.MustCompile(`(?ms)units\s*\{(.*?)^\s*\}`)
)

// Source is the part of a unit-definition file the extractor cares about.
type Source struct {
	Property string
	// Block is the text between the units block delimiters.
	Block string
	// BlockLine is the 1-based line of the first character of Block.
	BlockLine int
}

// ParseSource locates the property declaration and the units block in text.
// When the property is found but the block is not, the returned Source
// carries the property together with ErrNoUnitsBlock.
func ParseSource(text string) (Source, error) {
	m := quantityPattern.FindStringSubmatch(text)
	if m == nil {
		return Source{}, ErrNoProperty
	}
	src := Source{Property: m[1]}

	loc := unitsPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return src, ErrNoUnitsBlock
	}
	src.Block = text[loc[2]:loc[3]]
	src.BlockLine = 1 + strings.Count(text[:loc[2]], "\n")
	return src, nil
}
