package haystack_solr

import (
	"github.com/cloudfoundry/jibber_jabber"
	"golang.org/x/text/language"
)

// detectLanguage matches the system locale against the available languages and
// returns the best one, or DefaultLanguage.
func detectLanguage(available []string) string {
	locale, err := jibber_jabber.DetectIETF()
	if err != nil {
		return DefaultLanguage
	}
	return matchLanguage(locale, available)
}

func matchLanguage(locale string, available []string) string {
	tags := []language.Tag{language.Raw.Make(DefaultLanguage)}
	for _, lang := range available {
		if lang != DefaultLanguage && lang != "" {
			tags = append(tags, language.Raw.Make(lang))
		}
	}
	_, index, confidence := language.NewMatcher(tags).Match(language.Make(locale))
	if confidence == language.No {
		return DefaultLanguage
	}
	return tags[index].String()
}
