// Package i18n renders notification messages from the embedded catalogs.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"github.com/damwatch/taskdesk/internal/notification"
)

const (
	LanguageID = "id"
	LanguageEn = "en"
)

//go:embed locales/*.toml
var locales embed.FS

type Translator struct {
	bundle        *i18n.Bundle
	defaultLocale string
}

// New loads every embedded catalog. defaultLocale is used by Render and as
// the first choice of Localize.
func New(defaultLocale string) (*Translator, error) {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("invalid default locale %q: %w", defaultLocale, err)
	}
	bundle := i18n.NewBundle(language.Indonesian)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(locales, "locales/*.toml")
	if err != nil {
		return nil, fmt.Errorf("failed to list locales: %w", err)
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(locales, f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return &Translator{bundle: bundle, defaultLocale: tag.String()}, nil
}

// Localize renders messageID for the first matching locale. A missing
// message falls back to the id itself so a notification is never blank.
func (t *Translator) Localize(locale, messageID string, data map[string]any) string {
	localizer := i18n.NewLocalizer(t.bundle, locale, t.defaultLocale)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		slog.Warn("missing translation", "message_id", messageID, "locale", locale, "error", err)
		return messageID
	}
	return msg
}

// Render produces the stored message of a notification in the default
// locale.
func (t *Translator) Render(typ notification.Type, payload notification.Payload) string {
	var data map[string]any
	if payload != nil {
		data = payload.TemplateData()
	}
	if period, ok := data["Period"].(string); ok && period != "" {
		data["Period"] = t.Localize(t.defaultLocale, "period-"+period, nil)
	}
	return t.Localize(t.defaultLocale, string(typ), data)
}
