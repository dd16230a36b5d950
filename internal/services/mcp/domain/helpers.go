package domain

import (
	"errors"
	"fmt"

	apperrors "github.com/louisbranch/usurper.games/internal/platform/errors"
	"github.com/louisbranch/usurper.games/internal/platform/errors/i18n"
	"github.com/louisbranch/usurper.games/internal/services/game/grant"
)

// defaultLocale selects the message catalog for tool errors. MCP clients do
// not negotiate locales yet.
const defaultLocale = "en-US"

// toolError shapes an application error into the message an MCP client sees.
// Coded errors render through the locale catalog with their metadata; plain
// errors pass through with the failed action prefixed.
func toolError(action string, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		localized := i18n.GetCatalog(defaultLocale).Format(string(appErr.Code), appErr.Metadata)
		return fmt.Errorf("%s: %s [%s]", action, localized, appErr.Code)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// authorizeActor checks the caller's grant against the acting participant.
// With verification disabled the surface is open, which is the local
// development default.
func authorizeActor(grants grant.Config, token, actorID string) error {
	if !grants.Enabled() {
		return nil
	}
	if _, err := grant.Validate(token, actorID, grants); err != nil {
		return toolError("authorize actor", err)
	}
	return nil
}
