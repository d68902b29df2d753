// Package render turns session state into chat messages. Nothing here
// mutates a session.
package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/susu3304/sharetabbot/internal/split"
)

// Choice is one button of a reply.
type Choice struct {
	Label string
	Token string
}

// Message is one outbound chat message. Replace asks the transport to redraw
// the message whose button produced this reply instead of posting a new one.
type Message struct {
	Text    string
	Choices []Choice
	Replace bool
}

// Replacing marks m as a redraw of the prompt it answers.
func (m Message) Replacing() Message {
	m.Replace = true
	return m
}

func button(label string, c split.Choice) Choice {
	return Choice{Label: label, Token: c.Token()}
}

var (
	backButton = button("⬅️ Back", split.Choice{Kind: split.ChoiceBack})
	backHint   = "\n\nType \"back\" to go back or \"start over\" to cancel."
)

// Money formats an amount as Rupiah, e.g. "Rp 25.000" or "Rp 12.345,5".
func Money(v float64) string {
	p := message.NewPrinter(language.Indonesian)
	return "Rp " + p.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
}
