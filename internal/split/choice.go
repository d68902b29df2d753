package split

import (
	"strconv"
	"strings"
)

type ChoiceKind int

const (
	ChoiceManual ChoiceKind = iota + 1
	ChoicePhoto
	ChoiceConfirm
	ChoiceEdit
	ChoiceEqual
	ChoiceItemized
	ChoiceBack
	ChoiceToggle
	ChoiceSelectAll
	ChoiceClearAll
	ChoiceNextItem
	ChoiceSkipItem
)

// Choice is a button press. Index is the participant index for ChoiceToggle.
type Choice struct {
	Kind  ChoiceKind
	Index int
}

const togglePrefix = "toggle:"

var choiceTokens = map[ChoiceKind]string{
	ChoiceManual:    "manual",
	ChoicePhoto:     "photo",
	ChoiceConfirm:   "confirm",
	ChoiceEdit:      "edit",
	ChoiceEqual:     "equal",
	ChoiceItemized:  "itemized",
	ChoiceBack:      "back",
	ChoiceSelectAll: "select_all",
	ChoiceClearAll:  "clear_all",
	ChoiceNextItem:  "next_item",
	ChoiceSkipItem:  "skip_item",
}

var tokenChoices = func() map[string]ChoiceKind {
	m := make(map[string]ChoiceKind, len(choiceTokens))
	for k, tok := range choiceTokens {
		m[tok] = k
	}
	return m
}()

func Toggle(index int) Choice { return Choice{Kind: ChoiceToggle, Index: index} }

// Token encodes the choice for a button payload.
func (c Choice) Token() string {
	if c.Kind == ChoiceToggle {
		return togglePrefix + strconv.Itoa(c.Index)
	}
	return choiceTokens[c.Kind]
}

// ParseChoice decodes a button payload. Unknown tokens report false.
func ParseChoice(token string) (Choice, bool) {
	if rest, ok := strings.CutPrefix(token, togglePrefix); ok {
		idx, err := strconv.Atoi(rest)
		if err != nil || idx < 0 {
			return Choice{}, false
		}
		return Toggle(idx), true
	}
	kind, ok := tokenChoices[token]
	if !ok {
		return Choice{}, false
	}
	return Choice{Kind: kind}, true
}
