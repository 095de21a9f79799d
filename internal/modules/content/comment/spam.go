package comment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/inkrealm/blog/internal/config"
)

// defaultBlockedKeywords always flag a comment when anti-spam is on. They
// match whole words only.
var defaultBlockedKeywords = []string{
	"casino", "viagra", "cialis", "gambling", "lottery", "poker", "blackjack",
	"代开发票", "刷单", "网赚", "信用卡套现", "赌博", "博彩",
}

// spamFilter holds the moderation rules compiled from CommentOptions.
type spamFilter struct {
	enabled  bool
	ips      []*regexp.Regexp
	keywords []*regexp.Regexp
}

func newSpamFilter(opts config.CommentOptions) *spamFilter {
	f := &spamFilter{enabled: opts.AntiSpam}
	if !f.enabled {
		return f
	}
	for _, p := range opts.BlockIPs {
		if p = strings.TrimSpace(p); p != "" {
			f.ips = append(f.ips, compileOr("^(?:"+p+")$", "^"+regexp.QuoteMeta(p)+"$"))
		}
	}
	for _, kw := range opts.SpamKeywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			f.keywords = append(f.keywords, compileOr("(?i)"+kw, "(?i)"+regexp.QuoteMeta(kw)))
		}
	}
	for _, kw := range defaultBlockedKeywords {
		f.keywords = append(f.keywords, regexp.MustCompile("(?i)"+wholeWord(kw)))
	}
	return f
}

// Check reports whether a comment should be held for moderation.
func (f *spamFilter) Check(content, ip string) bool {
	if !f.enabled {
		return false
	}
	if ip = strings.TrimSpace(ip); ip != "" {
		for _, re := range f.ips {
			if re.MatchString(ip) {
				return true
			}
		}
	}
	for _, re := range f.keywords {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

// compileOr compiles pattern, or fallback when pattern is not a valid regexp.
func compileOr(pattern, fallback string) *regexp.Regexp {
	if re, err := regexp.Compile(pattern); err == nil {
		return re
	}
	return regexp.MustCompile(fallback)
}

// wholeWord quotes kw and adds \b on each edge that is an ASCII word
// character. CJK keywords have no word boundaries and match as substrings.
func wholeWord(kw string) string {
	q := regexp.QuoteMeta(kw)
	first, _ := utf8.DecodeRuneInString(kw)
	last, _ := utf8.DecodeLastRuneInString(kw)
	if isASCIIWord(first) {
		q = `\b` + q
	}
	if isASCIIWord(last) {
		q += `\b`
	}
	return q
}

func isASCIIWord(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
