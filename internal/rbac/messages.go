package rbac

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	msgUnauthenticated  = "Authentication required"
	msgInactive         = "Account is inactive"
	msgInsufficientRole = "Insufficient role"
	msgInsufficientPerm = "Insufficient permissions"
	msgRoleCheckError   = "Unable to verify role"
	msgPermCheckError   = "Unable to verify permissions"
)

var supportedLanguages = []language.Tag{language.English, language.Indonesian}

var languageMatcher = language.NewMatcher(supportedLanguages)

func init() {
	translations := map[string]string{
		msgUnauthenticated:  "Autentikasi diperlukan",
		msgInactive:         "Akun tidak aktif",
		msgInsufficientRole: "Peran tidak mencukupi",
		msgInsufficientPerm: "Izin tidak mencukupi",
		msgRoleCheckError:   "Tidak dapat memverifikasi peran",
		msgPermCheckError:   "Tidak dapat memverifikasi izin",
	}
	for key, text := range translations {
		_ = message.SetString(language.English, key, key)
		_ = message.SetString(language.Indonesian, key, text)
	}
}

// printerFor picks the message printer from the Accept-Language header.
func printerFor(r *http.Request) *message.Printer {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return message.NewPrinter(language.English)
	}
	_, index, _ := languageMatcher.Match(tags...)
	return message.NewPrinter(supportedLanguages[index])
}

// Message returns the localised client message for the decision.
func (d Decision) Message(p *message.Printer) string {
	key := d.messageKey()
	if p == nil {
		return key
	}
	return p.Sprintf(key)
}

func (d Decision) messageKey() string {
	switch d.State {
	case StateDeniedUnauthenticated:
		return msgUnauthenticated
	case StateDeniedInactive:
		return msgInactive
	case StateDeniedInsufficient:
		if d.Requirement != nil && d.Requirement.Kind() == KindRole {
			return msgInsufficientRole
		}
		return msgInsufficientPerm
	}
	if d.Requirement != nil && d.Requirement.Kind() == KindRole {
		return msgRoleCheckError
	}
	return msgPermCheckError
}
