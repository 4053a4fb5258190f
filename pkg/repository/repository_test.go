package repository

import (
	"os"
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/docsync/pkg/errors"
	"github.com/sidkik/docsync/pkg/remote"
)

var thesis = remote.Project{ID: "p1", Name: "Thesis"}

func listFiles(t *testing.T, fs afero.Fs) []string {
	var paths []string
	err := afero.Walk(fs, "/", func(path string, _ os.FileInfo, err error) error {
		paths = append(paths, path)
		return err
	})
	require.NoError(t, err)
	sort.Strings(paths)
	return paths
}

func TestInit(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0755))
	repo := New(fs, "/work")
	assert.False(t, repo.IsRepository())

	root, err := repo.Init(thesis)
	require.NoError(t, err)
	assert.Equal(t, "/work/Thesis", root)

	// The marker is inside the project directory, not the working directory.
	assert.False(t, repo.IsRepository())

	inRepo := New(fs, root)
	assert.True(t, inRepo.IsRepository())

	identity, err := inRepo.ProjectIdentity()
	require.NoError(t, err)
	assert.Equal(t, thesis, identity)

	projectRoot, err := inRepo.ProjectRoot()
	require.NoError(t, err)
	assert.Equal(t, root, projectRoot)
}

func TestFindMarkerDirFromSubdirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	root, err := New(fs, "/work").Init(thesis)
	require.NoError(t, err)

	fromRoot, ok := New(fs, root).FindMarkerDir()
	require.True(t, ok)
	assert.Equal(t, "/work/Thesis/.docsync", fromRoot)

	dirs := []string{
		"/work/Thesis/chapters",
		"/work/Thesis/chapters/intro",
		"/work/Thesis/chapters/intro/figures/raw",
	}
	for _, dir := range dirs {
		require.NoError(t, fs.MkdirAll(dir, 0755))

		markerDir, ok := New(fs, dir).FindMarkerDir()
		assert.True(t, ok, dir)
		assert.Equal(t, fromRoot, markerDir, dir)

		projectRoot, err := New(fs, dir).ProjectRoot()
		assert.NoError(t, err)
		assert.Equal(t, root, projectRoot)
	}
}

func TestFindMarkerDirNotFound(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work/a/b", 0755))

	// A regular file with the marker's name doesn't count.
	require.NoError(t, afero.WriteFile(fs, "/work/a/"+MarkerDirName, nil, 0644))

	_, ok := New(fs, "/work/a/b").FindMarkerDir()
	assert.False(t, ok)

	_, err := New(fs, "/work/a/b").ProjectRoot()
	assert.Equal(t, errors.NotARepository{Dir: "/work/a/b"}, err)

	_, err = New(fs, "/work/a/b").ProjectIdentity()
	assert.Equal(t, errors.NotARepository{Dir: "/work/a/b"}, err)
}

func TestInitNested(t *testing.T) {
	fs := afero.NewMemMapFs()
	root, err := New(fs, "/work").Init(thesis)
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll("/work/Thesis/chapters", 0755))

	before := listFiles(t, fs)
	_, err = New(fs, "/work/Thesis/chapters").Init(remote.Project{ID: "p2", Name: "Notes"})
	assert.Equal(t, errors.AlreadyInitialized{MarkerDir: root + "/" + MarkerDirName}, err)
	assert.Equal(t, before, listFiles(t, fs))
}

func TestInitTargetExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work/Thesis", 0755))

	before := listFiles(t, fs)
	_, err := New(fs, "/work").Init(thesis)
	assert.Equal(t, errors.TargetExists{Path: "/work/Thesis"}, err)
	assert.Equal(t, before, listFiles(t, fs))
}

// readOnlyFileFs fails to create files, but allows creating directories.
type readOnlyFileFs struct {
	afero.Fs
}

func (fs readOnlyFileFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&os.O_CREATE != 0 {
		return nil, os.ErrPermission
	}
	return fs.Fs.OpenFile(name, flag, perm)
}

func TestInitIdentityWriteFails(t *testing.T) {
	fs := readOnlyFileFs{afero.NewMemMapFs()}
	require.NoError(t, fs.MkdirAll("/work", 0755))

	before := listFiles(t, fs)
	repo := New(fs, "/work")
	_, err := repo.Init(thesis)
	assert.True(t, errors.Is(err, os.ErrPermission))
	assert.Equal(t, before, listFiles(t, fs))
	assert.False(t, repo.IsRepository())
}

func TestInitBadName(t *testing.T) {
	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		_, err := New(afero.NewMemMapFs(), "/work").Init(remote.Project{ID: "p1", Name: name})
		_, ok := errors.GetFriendlyMessage(err)
		assert.True(t, ok, name)
	}
}

func TestProjectIdentity(t *testing.T) {
	identityPath := "/work/Thesis/.docsync/project.json"
	tests := []struct {
		name        string
		contents    *string
		expIdentity remote.Project
		expCorrupt  bool
	}{
		{
			name:        "Normal",
			contents:    strPtr(`{"id":"p1","name":"Thesis"}`),
			expIdentity: thesis,
		},
		{
			name:       "Missing",
			expCorrupt: true,
		},
		{
			name:       "Malformed",
			contents:   strPtr(`{"id":`),
			expCorrupt: true,
		},
		{
			name:       "MissingID",
			contents:   strPtr(`{"name":"Thesis"}`),
			expCorrupt: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, fs.MkdirAll("/work/Thesis/.docsync", 0755))
			if test.contents != nil {
				require.NoError(t, afero.WriteFile(fs, identityPath, []byte(*test.contents), 0644))
			}

			identity, err := New(fs, "/work/Thesis").ProjectIdentity()
			assert.Equal(t, test.expIdentity, identity)

			var corrupt errors.CorruptState
			assert.Equal(t, test.expCorrupt, errors.As(err, &corrupt))
			if test.expCorrupt {
				assert.Equal(t, identityPath, corrupt.Path)
				_, ok := errors.GetFriendlyMessage(err)
				assert.True(t, ok)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWipe(t *testing.T) {
	fs := afero.NewMemMapFs()
	root, err := New(fs, "/work").Init(thesis)
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, root+"/main.tex", []byte("tex"), 0644))
	require.NoError(t, afero.WriteFile(fs, root+"/chapters/intro.tex", []byte("intro"), 0644))
	require.NoError(t, afero.WriteFile(fs, root+"/.docsync/Thesis-1.local.bak/main.tex",
		[]byte("old"), 0644))

	require.NoError(t, New(fs, root+"/chapters").Wipe())

	assert.Equal(t, []string{
		"/",
		"/work",
		"/work/Thesis",
		"/work/Thesis/.docsync",
		"/work/Thesis/.docsync/Thesis-1.local.bak",
		"/work/Thesis/.docsync/Thesis-1.local.bak/main.tex",
		"/work/Thesis/.docsync/project.json",
	}, listFiles(t, fs))
}

func strPtr(s string) *string {
	return &s
}
