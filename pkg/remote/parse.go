package remote

import (
	"encoding/json"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sidkik/docsync/pkg/errors"
)

// The dashboard page embeds its data in <meta> tags, with the JSON or string
// value in the `content` attribute.
const (
	projectsMetaName = "ol-prefetchedProjectsBlob"
	csrfMetaName     = "ol-csrfToken"
	accountMetaName  = "ol-usersEmail"
)

// ParseProjectList extracts the project listing from the dashboard page.
// The listing is the JSON value of the `ol-prefetchedProjectsBlob` meta tag.
func ParseProjectList(page io.Reader) (ProjectList, error) {
	metas, err := parseMetaTags(page)
	if err != nil {
		return ProjectList{}, errors.WithContext(err, "parse html")
	}

	blob, ok := metas[projectsMetaName]
	if !ok {
		return ProjectList{}, errors.RemoteProtocolError{
			Op:     "list projects",
			Reason: "project list not found in page",
		}
	}

	var list ProjectList
	if err := json.Unmarshal([]byte(blob), &list); err != nil {
		return ProjectList{}, errors.RemoteProtocolError{
			Op:     "list projects",
			Reason: "malformed project list: " + err.Error(),
		}
	}
	return list, nil
}

// parseMetaTags returns the content of every named <meta> tag in the page.
// If a name appears more than once, the first occurrence is kept.
func parseMetaTags(page io.Reader) (map[string]string, error) {
	metas := map[string]string{}
	tokenizer := html.NewTokenizer(page)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return nil, err
			}
			return metas, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.DataAtom != atom.Meta {
				continue
			}

			var name, content string
			var hasContent bool
			for _, attr := range token.Attr {
				switch strings.ToLower(attr.Key) {
				case "name":
					name = attr.Val
				case "content":
					content = attr.Val
					hasContent = true
				}
			}

			if _, seen := metas[name]; name != "" && hasContent && !seen {
				metas[name] = content
			}
		}
	}
}
