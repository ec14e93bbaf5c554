package dialog

import (
	"fmt"
	"strings"

	"lostfound-bot/matcher"
	"lostfound-bot/models"
	"lostfound-bot/parser"
	"lostfound-bot/verification"
)

const (
	DefaultBotName = "Lost And Found Bot"
	timeLayout     = "02 Jan 2006 15:04"
)

// messages renders every reply the bot sends.
type messages struct {
	bot    string
	legacy bool
}

func (m messages) header(icon string) string {
	return fmt.Sprintf("%s **%s**", icon, m.bot)
}

func (m messages) menu() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Menu:\n", m.header("📋"))
	b.WriteString("1. Report Lost Item\n")
	b.WriteString("2. Report Found Item\n")
	b.WriteString("3. Search Items\n")
	b.WriteString("4. My Reports\n")
	if m.legacy {
		b.WriteString("5. Mark an item as returned\n")
	}
	b.WriteString("Reply with a number, or \"cancel\" at any time.")
	return b.String()
}

func (m messages) invalidCommand() string {
	return "❓ Invalid command. Reply \"menu\" for options."
}

func (m messages) cancelled() string {
	return "🚫 Cancelled. Reply \"menu\" to start again."
}

func (m messages) genericError() string {
	return "⚠️ Something went wrong on our side. Please try again in a moment."
}

func (m messages) lostPrompt() string {
	return m.header("🔍") + "\nReply with: " + parser.LostTemplate + "\n(e.g., \"Water Bottle, Library, Blue with sticker\")"
}

func (m messages) imagePrompt() string {
	return m.header("🎁") + "\nPlease send a photo of the item you found."
}

func (m messages) foundDetailsPrompt() string {
	return m.header("🎁") + "\nReply with: " + parser.FoundTemplate + "\n(e.g., \"Keys, Cafeteria, 08012345678\")"
}

func (m messages) imageReceived() string {
	return "📸 Photo received! Now reply with: " + parser.FoundTemplate + "\n(e.g., \"Keys, Cafeteria, 08012345678\")"
}

func (m messages) imageRequired() string {
	return "📸 Please send a photo of the item to continue, or reply \"cancel\"."
}

func (m messages) imageTimeout() string {
	return "⏱️ The photo took too long to download. Please send it again."
}

func (m messages) imageNotFound() string {
	return "❌ We couldn't open that photo. Please send it again."
}

func (m messages) imageEmpty() string {
	return "⚠️ The photo arrived empty. Please send it again."
}

func (m messages) imageNotImage() string {
	return "📸 That attachment isn't a photo. Please send an image of the item."
}

func (m messages) imageFailed() string {
	return "⚠️ We couldn't process that photo. Please try another one."
}

func (m messages) searchPrompt() string {
	return m.header("🔎") + "\nReply with a keyword (e.g., \"water\", \"keys\")"
}

func (m messages) formatError(t models.ReportType) string {
	return "⚠️ Format error. Use: " + parser.Template(t)
}

func (m messages) reportSaved(r *models.Report) string {
	var b strings.Builder
	label := "Lost"
	if r.Type == models.Found {
		label = "Found"
	}
	fmt.Fprintf(&b, "%s\n%s item reported!\n\n", m.header("✅"), label)
	fmt.Fprintf(&b, "📦 %s\n📍 %s\n", r.Item, r.Location)
	fmt.Fprintf(&b, "🔑 Verification code: %s\n\n", r.VerificationCode)
	if r.Type == models.Found {
		b.WriteString("⚠️ Keep this code private. Ask anyone claiming the item to describe it before handing it over, then reply \"4\" to mark it claimed.")
	} else {
		b.WriteString("⚠️ Keep this code private. Reply \"4\" with it once you have your item back.")
	}
	return b.String()
}

func (m messages) matches(found []matcher.Match) string {
	if len(found) == 0 {
		return "🔎 No matching found items yet. Reply \"3\" later to search again."
	}
	var b strings.Builder
	b.WriteString("🔎 Possible matches:\n")
	for i, match := range found {
		fmt.Fprintf(&b, "\n%d. %s", i+1, m.entry(&match.Report))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m messages) searchResults(query string, hits []models.Report, more int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nItems matching \"%s\":\n", m.header("🔍"), query)
	for _, hit := range hits {
		b.WriteString("\n" + m.entry(&hit))
	}
	if more > 0 {
		fmt.Fprintf(&b, "\n...and %d more. Try a more specific keyword.", more)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m messages) noResults(query string) string {
	return fmt.Sprintf("❌ No items found matching \"%s\".", query)
}

func (m messages) entry(r *models.Report) string {
	var b strings.Builder
	if r.Type == models.Lost {
		b.WriteString("(lost) ")
	}
	fmt.Fprintf(&b, "📦 %s\n📍 %s\n", r.Item, r.Location)
	if r.ContactPhone != "" {
		fmt.Fprintf(&b, "📞 %s\n", r.ContactPhone)
	}
	if r.ImageURL != "" {
		b.WriteString("🖼️ Photo on file\n")
	}
	fmt.Fprintf(&b, "⏰ %s\n", r.Timestamp.Format(timeLayout))
	return b.String()
}

func (m messages) noReports() string {
	return "📭 You haven't reported any items yet. Reply \"menu\" for options."
}

func (m messages) myReports(reports []models.Report, selectable bool) string {
	var b strings.Builder
	b.WriteString(m.header("📂") + "\nYour reports:\n")
	for i := range reports {
		r := &reports[i]
		state := "open"
		if r.Resolved() {
			state = string(r.Status()) + " ✅"
		}
		fmt.Fprintf(&b, "\n%d. %s: %s (%s) - %s", i+1, strings.ToUpper(string(r.Type)), r.Item, r.Location, state)
	}
	if selectable {
		b.WriteString("\n\nReply with a number to mark an item as recovered or claimed, or \"cancel\".")
	}
	return b.String()
}

func (m messages) pickInRange(n int) string {
	if n == 1 {
		return "Please reply with 1, or \"cancel\"."
	}
	return fmt.Sprintf("Please reply with a number from 1 to %d, or \"cancel\".", n)
}

func (m messages) reportGone() string {
	return "❌ That report no longer exists."
}

func (m messages) notOwner() string {
	return "⛔ You can only update reports you created."
}

func (m messages) alreadyResolved(r *models.Report) string {
	return fmt.Sprintf("ℹ️ \"%s\" is already marked as %s.", r.Item, r.Status())
}

func (m messages) codePrompt(r *models.Report) string {
	return fmt.Sprintf("🔑 Enter the %d-character verification code for \"%s\".", verification.CodeLength, r.Item)
}

func (m messages) codeLength() string {
	return fmt.Sprintf("🔑 Verification codes are %d characters. Please try again, or reply \"cancel\".", verification.CodeLength)
}

func (m messages) codeMismatch() string {
	return "❌ That code doesn't match. Please try again, or reply \"cancel\"."
}

func (m messages) resolved(r *models.Report) string {
	return fmt.Sprintf("%s\n\"%s\" is now marked as %s. Thank you!", m.header("🎉"), r.Item, r.Status())
}

func (m messages) statusPrompt() string {
	return m.header("📝") + "\nReply with the item name or report id you want to mark as returned."
}

func (m messages) noOpenMatches(query string) string {
	return fmt.Sprintf("❌ None of your open reports match \"%s\".", query)
}

func (m messages) confirmCandidates(reports []models.Report) string {
	var b strings.Builder
	b.WriteString("Which one?\n")
	for i := range reports {
		r := &reports[i]
		fmt.Fprintf(&b, "\n%d. %s: %s (%s)", i+1, strings.ToUpper(string(r.Type)), r.Item, r.Location)
	}
	b.WriteString("\n\nReply with the number to confirm, or \"cancel\".")
	return b.String()
}

func (m messages) storyRecorded(r *models.Report) string {
	return m.resolved(r) + "\n🌟 It has been added to our success stories."
}
