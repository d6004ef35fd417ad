// Package twitter builds profile and search links for legislators.
package twitter

import (
	"net/url"
	"strings"

	"github.com/jjenkins/billtracker/internal/model"
)

const baseURL = "https://twitter.com"

// Links builds Twitter URLs
type Links struct{}

// ProfileURL returns the profile link for a handle, or "" when there is none
func (Links) ProfileURL(handle string) string {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return ""
	}
	return baseURL + "/" + url.PathEscape(handle)
}

// BillSearchURL returns a search for tweets by or mentioning the legislator
// about the bill. It is "" when the legislator has no handle.
func (Links) BillSearchURL(bill *model.Bill, l *model.Legislator) string {
	handle := strings.TrimPrefix(strings.TrimSpace(l.Twitter), "@")
	if handle == "" {
		return ""
	}

	terms := bill.TwitterSearchTerms
	if len(terms) == 0 {
		if code := bill.CodeName(); code != "" {
			terms = []string{code}
		}
	}

	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			quoted = append(quoted, `"`+t+`"`)
		}
	}

	q := "(from:" + handle + " OR to:" + handle + " OR @" + handle + ")"
	if len(quoted) > 0 {
		q += " (" + strings.Join(quoted, " OR ") + ")"
	}

	v := url.Values{}
	v.Set("q", q)
	v.Set("f", "live")
	return baseURL + "/search?" + v.Encode()
}
