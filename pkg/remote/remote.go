package remote

import (
	"context"

	"github.com/sidkik/docsync/pkg/errors"
	"github.com/sidkik/docsync/pkg/session"
)

// Project identifies a remote project. The ID is stable across renames; the
// Name is what the local directory is called.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectList is the list of projects visible to the logged in user, in the
// order the service returns them.
type ProjectList struct {
	TotalSize int       `json:"totalSize"`
	Projects  []Project `json:"projects"`
}

// ProjectDetail contains the project metadata needed for uploads.
type ProjectDetail struct {
	RootFolderID string
}

// FindByName returns the project called `name`. If several projects share
// the name, the last one in the listing wins.
func (l ProjectList) FindByName(name string) (Project, error) {
	var match *Project
	for i := range l.Projects {
		if l.Projects[i].Name == name {
			match = &l.Projects[i]
		}
	}

	if match == nil {
		return Project{}, errors.ProjectNotFound{Name: name}
	}
	return *match, nil
}

// FindByID returns the project with the given id.
func (l ProjectList) FindByID(id string) (Project, error) {
	var match *Project
	for i := range l.Projects {
		if l.Projects[i].ID == id {
			match = &l.Projects[i]
		}
	}

	if match == nil {
		return Project{}, errors.ProjectNotFound{ID: id}
	}
	return *match, nil
}

// Client is the set of calls made against the remote service. Every call
// requires a valid session; callers are responsible for checking expiry.
type Client interface {
	ListProjects(ctx context.Context, sess session.Bundle) (ProjectList, error)
	FindProjectByName(ctx context.Context, sess session.Bundle, name string) (Project, error)
	FindProjectByID(ctx context.Context, sess session.Bundle, id string) (Project, error)
	FetchProjectDetail(ctx context.Context, sess session.Bundle, projectID string) (ProjectDetail, error)
	DownloadArchive(ctx context.Context, sess session.Bundle, projectID string) ([]byte, error)
	UploadFile(ctx context.Context, sess session.Bundle, projectID, folderID,
		fileName string, contents []byte) error
}
