package app

import (
	"bytes"
	"encoding/json"
	"text/template"

	i18ncatalog "github.com/louisbranch/usurper.games/internal/platform/i18n/catalog"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/throne"
)

// feedMessageKeys maps committed event types to feed catalog entries.
var feedMessageKeys = map[string]string{
	string(realm.EventTypeCreated):        "feed.realm_created",
	string(throne.EventTypeClaimed):       "feed.title_claimed",
	string(throne.EventTypeRewardPaid):    "feed.reward_paid",
	string(throne.EventTypeRewardExpired): "feed.reward_expired",
	string(throne.EventTypePrizeClaimed):  "feed.conquest",
	string(throne.EventTypeRoundStarted):  "feed.round_started",
}

// renderFeedMessage renders the localized notification line for one event.
// Unknown event types render as an empty message; the frame still carries
// the raw payload either way. An unknown locale falls back to the base
// catalog.
func renderFeedMessage(locale, eventType string, payload json.RawMessage) string {
	key, ok := feedMessageKeys[eventType]
	if !ok {
		return ""
	}
	_, messages := i18ncatalog.Default().NamespaceMessagesWithFallback(locale, "feed")
	text, ok := messages[key]
	if !ok {
		return ""
	}
	tmpl, err := template.New("feed").Parse(text)
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, feedMessageData(eventType, payload)); err != nil {
		return text
	}
	return buf.String()
}

func feedMessageData(eventType string, payload json.RawMessage) map[string]any {
	data := map[string]any{}
	switch eventType {
	case string(realm.EventTypeCreated):
		var p realm.CreatedPayload
		if json.Unmarshal(payload, &p) == nil {
			data["Deposit"] = p.Deposit
		}
	case string(throne.EventTypeClaimed):
		var p throne.ClaimedPayload
		if json.Unmarshal(payload, &p) == nil {
			data["Claimant"] = p.Claimant
			data["Offered"] = p.Offered
		}
	case string(throne.EventTypeRewardPaid):
		var p throne.RewardPaidPayload
		if json.Unmarshal(payload, &p) == nil {
			data["Claimant"] = p.Claimant
			data["Amount"] = p.Amount
		}
	case string(throne.EventTypeRewardExpired):
		var p throne.RewardExpiredPayload
		if json.Unmarshal(payload, &p) == nil {
			data["Amount"] = p.Amount
		}
	case string(throne.EventTypePrizeClaimed):
		var p throne.PrizeClaimedPayload
		if json.Unmarshal(payload, &p) == nil {
			data["Winner"] = p.Winner
			data["Winnings"] = p.Winnings
		}
	case string(throne.EventTypeRoundStarted):
		var p throne.RoundStartedPayload
		if json.Unmarshal(payload, &p) == nil {
			data["BaseFee"] = p.BaseFee
		}
	}
	return data
}
