// Package i18n holds the user-facing sentences rendered into documents.
//
// Directive errors and the footnotes heading are written in the author's
// language. Japanese is the default; English is available for other locales.
package i18n

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// ErrUnsupportedLocale indicates a locale that does not match any catalog language.
var ErrUnsupportedLocale = errors.New("unsupported locale")

// Key identifies a localized sentence.
type Key string

// Sentences rendered into documents.
const (
	InvalidYouTubeID      Key = "embed.youtube.invalid"
	InvalidSlideShareKey  Key = "embed.slideshare.invalid"
	InvalidSpeakerDeckKey Key = "embed.speakerdeck.invalid"
	InvalidJsfiddleURL    Key = "embed.jsfiddle.invalid"
	InvalidCodePenURL     Key = "embed.codepen.invalid"
	InvalidCodeSandboxURL Key = "embed.codesandbox.invalid"
	InvalidStackBlitzURL  Key = "embed.stackblitz.invalid"
	InvalidTweetURL       Key = "embed.tweet.invalid"
	InvalidGistURL        Key = "embed.gist.invalid"
	FootnotesTitle        Key = "footnotes.title"
)

// Default is the language used when no locale is configured.
var Default = language.Japanese

// supported lists catalog languages; the first entry is the fallback for the matcher.
var supported = []language.Tag{language.Japanese, language.English}

var matcher = language.NewMatcher(supported)

var messages = map[language.Tag]map[Key]string{
	language.Japanese: {
		InvalidYouTubeID:      "YouTubeのvideoIDが不正です",
		InvalidSlideShareKey:  "Slide Shareのkeyが不正です",
		InvalidSpeakerDeckKey: "Speaker Deckのkeyが不正です",
		InvalidJsfiddleURL:    "jsfiddleのURLが不正です",
		InvalidCodePenURL:     "CodePenのURLが不正です",
		InvalidCodeSandboxURL: "「https://codesandbox.io/embed/」から始まる正しいURLを入力してください",
		InvalidStackBlitzURL:  "StackBlitzのembed用のURLを指定してください",
		InvalidTweetURL:       "ツイートページのURLを指定してください",
		InvalidGistURL:        "GitHub GistのページURLを指定してください",
		FootnotesTitle:        "脚注",
	},
	language.English: {
		InvalidYouTubeID:      "Invalid YouTube video ID",
		InvalidSlideShareKey:  "Invalid SlideShare key",
		InvalidSpeakerDeckKey: "Invalid Speaker Deck key",
		InvalidJsfiddleURL:    "Invalid jsfiddle URL",
		InvalidCodePenURL:     "Invalid CodePen URL",
		InvalidCodeSandboxURL: "Enter a valid URL starting with \"https://codesandbox.io/embed/\"",
		InvalidStackBlitzURL:  "Specify a StackBlitz embed URL",
		InvalidTweetURL:       "Specify the URL of a tweet page",
		InvalidGistURL:        "Specify the URL of a GitHub Gist page",
		FootnotesTitle:        "Footnotes",
	},
}

var cat = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(Default))
	for tag, entries := range messages {
		for key, msg := range entries {
			// Messages contain no format verbs; escape % so Sprintf leaves them intact.
			if err := b.SetString(tag, string(key), strings.ReplaceAll(msg, "%", "%%")); err != nil {
				panic(fmt.Sprintf("i18n: registering %s/%s: %v", tag, key, err))
			}
		}
	}
	return b
}

// ParseLocale resolves a BCP 47 locale string to a supported language.
// An empty string selects Default.
func ParseLocale(locale string) (language.Tag, error) {
	if strings.TrimSpace(locale) == "" {
		return Default, nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q: %v", ErrUnsupportedLocale, locale, err)
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.Und, fmt.Errorf("%w: %q", ErrUnsupportedLocale, locale)
	}
	return supported[idx], nil
}

// Printer looks up sentences for one language. The zero value is not usable;
// create with NewPrinter.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// NewPrinter returns a Printer for tag. Unsupported tags fall back to Default.
func NewPrinter(tag language.Tag) *Printer {
	_, idx, _ := matcher.Match(tag)
	resolved := supported[idx]
	return &Printer{
		tag: resolved,
		p:   message.NewPrinter(resolved, message.Catalog(cat)),
	}
}

// Language returns the resolved catalog language.
func (p *Printer) Language() language.Tag {
	return p.tag
}

// Text returns the sentence for key.
func (p *Printer) Text(key Key) string {
	return p.p.Sprintf(string(key))
}
