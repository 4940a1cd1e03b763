// Package locale turns message ids into user-facing text in English or Nepali.
package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var catalogues embed.FS

// HeaderAcceptLanguage is the request header the language is negotiated from
const HeaderAcceptLanguage = "Accept-Language"

// Message ids shared by the API and the CLI
const (
	MsgAuthFailure        = "auth_failure"
	MsgAuthDuplicateEmail = "auth_duplicate_email"
	MsgSignOutFailure     = "auth_signout_failure"
	MsgUnauthenticated    = "unauthenticated"
	MsgFetchFailure       = "fetch_failure"
	MsgRefreshFailure     = "refresh_failure"
	MsgSaveFailure        = "save_failure"
	MsgDeleteFailure      = "delete_failure"
	MsgInvalidInput       = "invalid_input"
	MsgNotFound           = "not_found"
	MsgRootExists         = "root_exists"
	MsgCycle              = "cycle"
	MsgHasDescendants     = "has_descendants"
	MsgEmptyTree          = "empty_tree"
	MsgLoading            = "loading"
)

var supported = []language.Tag{language.English, language.Nepali}

// Translator localizes message ids
type Translator struct {
	bundle  *i18n.Bundle
	matcher language.Matcher
}

// New loads the embedded catalogues
func New() (*Translator, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	files, err := fs.Glob(catalogues, "locales/*.json")
	if err != nil {
		return nil, fmt.Errorf("list catalogues: %w", err)
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(catalogues, f); err != nil {
			return nil, fmt.Errorf("load catalogue %s: %w", f, err)
		}
	}

	return &Translator{
		bundle:  bundle,
		matcher: language.NewMatcher(supported),
	}, nil
}

// Match picks the supported language for an Accept-Language header value
func (t *Translator) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := t.matcher.Match(tags...)
	return supported[idx]
}

// Message returns id in the language best matching acceptLanguage.
// Unknown ids come back unchanged.
func (t *Translator) Message(acceptLanguage, id string) string {
	loc := i18n.NewLocalizer(t.bundle, t.Match(acceptLanguage).String())
	msg, err := loc.Localize(&i18n.LocalizeConfig{MessageID: id})
	if err != nil {
		return id
	}
	return msg
}
