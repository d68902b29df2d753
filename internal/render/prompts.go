package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/susu3304/sharetabbot/internal/split"
)

func InputMethod() Message {
	return Message{
		Text: "How would you like to enter the bill?",
		Choices: []Choice{
			button("✍️ Manual Entry", split.Choice{Kind: split.ChoiceManual}),
			button("📷 Upload Receipt Photo", split.Choice{Kind: split.ChoicePhoto}),
		},
	}
}

func AskAmount() Message {
	return Message{
		Text:    "Please enter the total amount (e.g., 50000 or Rp 50.000):" + backHint,
		Choices: []Choice{backButton},
	}
}

func InvalidAmount() Message {
	return Message{
		Text:    "Please enter a valid amount greater than zero (e.g., 50000):",
		Choices: []Choice{backButton},
	}
}

func AskPhoto() Message {
	return Message{
		Text:    "Please upload a photo of your receipt:",
		Choices: []Choice{backButton},
	}
}

func ProcessingReceipt() Message {
	return Message{Text: "Processing receipt... 📸"}
}

func ReceiptFailed() Message {
	return Message{Text: "Could not process receipt. Please try manual entry."}
}

const itemFormat = "Coffee - Rp 10000\nCake x2 - Rp 15.000"

func AskItems() Message {
	return Message{
		Text:    "Please enter the items, one per line, in the format:\n" + itemFormat + backHint,
		Choices: []Choice{backButton},
	}
}

func InvalidItems() Message {
	return Message{
		Text:    "Please enter items in the correct format:\n" + itemFormat,
		Choices: []Choice{backButton},
	}
}

func AskParticipants() Message {
	return Message{
		Text:    "Please enter participant names separated by commas (e.g., John, Jane, Bob):",
		Choices: []Choice{backButton},
	}
}

// InvalidParticipants explains why a participant list was turned down.
func InvalidParticipants(err error) Message {
	text := "Please enter at least 2 participants, separated by commas:"
	if errors.Is(err, split.ErrDuplicateParticipant) {
		text = "Each participant needs a different name. Please enter the names again, separated by commas:"
	}
	return Message{Text: text, Choices: []Choice{backButton}}
}

func splitChoices() []Choice {
	return []Choice{
		button("🟰 Equal Split", split.Choice{Kind: split.ChoiceEqual}),
		button("📋 By Items", split.Choice{Kind: split.ChoiceItemized}),
		backButton,
	}
}

func SplitMethod() Message {
	return Message{Text: "How would you like to split the bill?", Choices: splitChoices()}
}

func NoItems() Message {
	return Message{
		Text:    "No items available for itemized split. Please use equal split.",
		Choices: splitChoices(),
	}
}

func itemLabel(it split.LineItem) string {
	if it.Quantity > 1 {
		return fmt.Sprintf("%s x%d", it.Name, it.Quantity)
	}
	return it.Name
}

// ItemsFound lists what was read off a receipt and asks for confirmation.
func ItemsFound(bill *split.Bill, items []split.LineItem) Message {
	var b strings.Builder
	b.WriteString("🧾 Items found:\n")
	if bill != nil && bill.Merchant != "" {
		fmt.Fprintf(&b, "🏪 %s\n", bill.Merchant)
	}
	if bill != nil && bill.Date != "" {
		fmt.Fprintf(&b, "📅 %s\n", bill.Date)
	}
	b.WriteString("\n")
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s - %s", i+1, itemLabel(it), Money(it.LineTotal()))
		if it.Discount > 0 {
			fmt.Fprintf(&b, " (discount %s)", Money(it.Discount))
		}
		b.WriteString("\n")
	}
	if bill != nil {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Subtotal: %s\n", Money(bill.Subtotal))
		if bill.Tax > 0 {
			fmt.Fprintf(&b, "Tax: %s\n", Money(bill.Tax))
		}
		if bill.ServiceCharge > 0 {
			fmt.Fprintf(&b, "Service: %s\n", Money(bill.ServiceCharge))
		}
		if bill.Discount > 0 {
			fmt.Fprintf(&b, "Discount: -%s\n", Money(bill.Discount))
		}
		fmt.Fprintf(&b, "Total: %s", Money(bill.Total))
	}
	return Message{
		Text: strings.TrimRight(b.String(), "\n"),
		Choices: []Choice{
			button("✅ Confirm", split.Choice{Kind: split.ChoiceConfirm}),
			button("✏️ Edit", split.Choice{Kind: split.ChoiceEdit}),
			backButton,
		},
	}
}

// MaxToggleButtons is how many participant buttons fit under the five
// assignment controls in a single chat message.
const MaxToggleButtons = 20

const assignHint = "\n\nYou can also type \"next\", \"skip\", \"all\" or \"clear\"."

// ItemAssignment shows the item under the cursor, who is selected for it so
// far and what each of them would pay.
func ItemAssignment(sess *split.Session) Message {
	it, ok := sess.CurrentItem()
	if !ok {
		return Message{Text: "All items assigned."}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Item %d of %d: %s - %s\n", sess.CurrentItemIndex+1, len(sess.Items), itemLabel(it), Money(it.LineTotal()))
	b.WriteString("Who shared this item?\n\n")
	if n := len(sess.CurrentSelection); n > 0 {
		fmt.Fprintf(&b, "Selected: %s\n", strings.Join(selectedInOrder(sess), ", "))
		fmt.Fprintf(&b, "Each pays: %s", Money(it.LineTotal()/float64(n)))
	} else {
		b.WriteString("Selected: nobody yet")
	}

	choices := []Choice{
		button("➡️ Next", split.Choice{Kind: split.ChoiceNextItem}),
		button("⏭️ Skip Item", split.Choice{Kind: split.ChoiceSkipItem}),
		button("👥 Select All", split.Choice{Kind: split.ChoiceSelectAll}),
		button("🚫 Clear All", split.Choice{Kind: split.ChoiceClearAll}),
		backButton,
	}
	for i, name := range sess.Participants {
		if i == MaxToggleButtons {
			b.WriteString("\n\nNot everyone fits on a button: type a name to select or unselect them.")
			break
		}
		mark := "▫️ "
		if sess.Selected(name) {
			mark = "✅ "
		}
		choices = append(choices, button(mark+name, split.Toggle(i)))
	}
	b.WriteString(assignHint)
	return Message{Text: b.String(), Choices: choices}
}

// selectedInOrder lists the selection in participant order.
func selectedInOrder(sess *split.Session) []string {
	out := make([]string, 0, len(sess.CurrentSelection))
	for _, name := range sess.Participants {
		if sess.Selected(name) {
			out = append(out, name)
		}
	}
	return out
}

func Welcome() Message {
	return Message{Text: "Welcome to ShareTab Bot! 🧾\n\n" +
		"Use /split to start splitting a bill in this channel and /cancel to drop it. " +
		"While a split is open you can type \"back\" or \"start over\"."}
}

func Calculating() Message {
	return Message{Text: "Calculating split... 🧮"}
}

func CalculationFailed() Message {
	return Message{Text: "Error calculating split. Please start again with /split."}
}

func Expired() Message {
	return Message{Text: "Session expired. Please start again with /split"}
}

func Busy() Message {
	return Message{Text: "⏳ Still working on your last message, please wait a moment."}
}

func Cancelled() Message {
	return Message{Text: "Split cancelled. Use /split to start again."}
}

func Abandoned() Message {
	return Message{Text: "⌛ This split was closed after being idle. Use /split to start again."}
}
