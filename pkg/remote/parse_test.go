package remote

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/docsync/pkg/errors"
)

const dashboardTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="ol-csrfToken" content="csrf-token">
<meta name="ol-usersEmail" content="ada@example.com">
%s
</head>
<body><div id="projects"></div></body>
</html>`

func dashboard(projectsMeta string) string {
	return strings.Replace(dashboardTemplate, "%s", projectsMeta, 1)
}

func TestParseProjectList(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		expList  ProjectList
		expError error
	}{
		{
			name: "Normal",
			page: dashboard(`<meta name="ol-prefetchedProjectsBlob" data-type="json" ` +
				`content="{&quot;totalSize&quot;:2,&quot;projects&quot;:[` +
				`{&quot;id&quot;:&quot;p1&quot;,&quot;name&quot;:&quot;Thesis&quot;},` +
				`{&quot;id&quot;:&quot;p2&quot;,&quot;name&quot;:&quot;Notes&quot;}]}">`),
			expList: ProjectList{
				TotalSize: 2,
				Projects: []Project{
					{ID: "p1", Name: "Thesis"},
					{ID: "p2", Name: "Notes"},
				},
			},
		},
		{
			name: "SelfClosing",
			page: dashboard(`<meta name="ol-prefetchedProjectsBlob" ` +
				`content='{"totalSize":0,"projects":[]}' />`),
			expList: ProjectList{Projects: []Project{}},
		},
		{
			name: "Missing",
			page: dashboard(""),
			expError: errors.RemoteProtocolError{
				Op:     "list projects",
				Reason: "project list not found in page",
			},
		},
		{
			name: "Malformed",
			page: dashboard(`<meta name="ol-prefetchedProjectsBlob" content="{not json">`),
			expError: errors.RemoteProtocolError{
				Op: "list projects",
				Reason: "malformed project list: invalid character 'n' " +
					"looking for beginning of object key string",
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			list, err := ParseProjectList(strings.NewReader(test.page))
			assert.Equal(t, test.expError, err)
			if test.expError == nil {
				assert.Equal(t, test.expList, list)
			}
		})
	}
}

func TestParseMetaTags(t *testing.T) {
	metas, err := parseMetaTags(strings.NewReader(dashboard(
		`<META NAME="ol-csrfToken" CONTENT="second"><meta name="empty">`)))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"ol-csrfToken":  "csrf-token",
		"ol-usersEmail": "ada@example.com",
	}, metas)
}

func TestFindByNameLastWins(t *testing.T) {
	list := ProjectList{
		Projects: []Project{
			{ID: "X", Name: "Thesis"},
			{ID: "Z", Name: "Notes"},
			{ID: "Y", Name: "Thesis"},
		},
	}

	project, err := list.FindByName("Thesis")
	require.NoError(t, err)
	assert.Equal(t, Project{ID: "Y", Name: "Thesis"}, project)

	project, err = list.FindByID("Z")
	require.NoError(t, err)
	assert.Equal(t, Project{ID: "Z", Name: "Notes"}, project)

	_, err = list.FindByName("thesis")
	assert.Equal(t, errors.ProjectNotFound{Name: "thesis"}, err)

	_, err = list.FindByID("missing")
	assert.Equal(t, errors.ProjectNotFound{ID: "missing"}, err)
}
