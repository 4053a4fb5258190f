package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/docsync/pkg/errors"
	"github.com/sidkik/docsync/pkg/session"
)

const (
	// SessionCookieName is the cookie that identifies the logged in user.
	SessionCookieName = "overleaf_session2"

	// SecondaryCookieName is the load balancer affinity cookie.
	SecondaryCookieName = "GCLB"

	csrfHeader = "X-Csrf-Token"

	loginPath    = "/login"
	projectsPath = "/project"
	socketPath   = "/socket.io/socket.io.js"

	// maxErrorBody bounds how much of an error response is kept for the
	// error message.
	maxErrorBody = 512

	// requestTimeout bounds every request except archive downloads.
	requestTimeout = 60 * time.Second

	// stallTimeout is how long an archive download may go without receiving
	// any data.
	stallTimeout = 60 * time.Second
)

// errSessionRejected is returned when the service redirects us to the login
// page instead of serving the request.
var errSessionRejected = errors.NewFriendlyError("The remote service rejected " +
	"the cached session.\nRun `docsync logout` and then `docsync login` to " +
	"start a new session.")

var errTransferStalled = errors.New("transfer stalled: no data received")

// HTTPClient talks to the remote service over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	client  *http.Client

	// downloadClient has no overall timeout. Downloads are instead aborted
	// once they stop making progress for stallTimeout.
	downloadClient *http.Client
	stallTimeout   time.Duration
}

// New creates a client for the service at baseURL.
func New(baseURL string) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.WithContext(err, "parse base url")
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.New("base url %q must include a scheme and host", baseURL)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
	}

	checkRedirect := func(req *http.Request, via []*http.Request) error {
		// A redirect to the login page means the session isn't valid. Stop
		// so that the caller can see it.
		if req.URL.Path == loginPath {
			return http.ErrUseLastResponse
		}
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}

	return &HTTPClient{
		baseURL: parsed,
		client: &http.Client{
			Transport:     transport,
			CheckRedirect: checkRedirect,
			Timeout:       requestTimeout,
		},
		downloadClient: &http.Client{
			Transport:     transport,
			CheckRedirect: checkRedirect,
		},
		stallTimeout: stallTimeout,
	}, nil
}

// LoginURL returns the page where the user signs in.
func (c *HTTPClient) LoginURL() string {
	return c.url(loginPath, nil)
}

func (c *HTTPClient) url(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, query url.Values,
	body io.Reader, sess session.Bundle) (*http.Request, error) {

	req, err := http.NewRequest(method, c.url(path, query), body)
	if err != nil {
		return nil, errors.WithContext(err, "new request")
	}
	req = req.WithContext(ctx)

	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.SessionToken})
	if sess.SecondaryToken != "" {
		req.AddCookie(&http.Cookie{Name: SecondaryCookieName, Value: sess.SecondaryToken})
	}
	if method != http.MethodGet && sess.CSRFToken != "" {
		req.Header.Set(csrfHeader, sess.CSRFToken)
	}
	return req, nil
}

// do sends the request, and returns the response if it was successful. The
// caller must close the body.
func (c *HTTPClient) do(req *http.Request, op string) (*http.Response, error) {
	return c.doWith(c.client, req, op)
}

func (c *HTTPClient) doWith(client *http.Client, req *http.Request, op string) (*http.Response, error) {
	log.WithField("url", req.URL.String()).Debugf("%s %s", req.Method, op)

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NetworkError{Op: op, Err: err}
	}

	if isLoginRedirect(resp) {
		resp.Body.Close()
		return nil, errors.AuthError{Err: errSessionRejected}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := readErrorBody(resp.Body)
		resp.Body.Close()
		return nil, errors.RemoteProtocolError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}
	return resp, nil
}

func isLoginRedirect(resp *http.Response) bool {
	if resp.StatusCode < 300 || resp.StatusCode > 399 {
		return false
	}

	location, err := resp.Location()
	return err == nil && location.Path == loginPath
}

func readErrorBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(body))
}

// ListProjects fetches the project dashboard and parses the listing embedded
// in it.
func (c *HTTPClient) ListProjects(ctx context.Context, sess session.Bundle) (ProjectList, error) {
	req, err := c.newRequest(ctx, http.MethodGet, projectsPath, nil, nil, sess)
	if err != nil {
		return ProjectList{}, err
	}

	resp, err := c.do(req, "list projects")
	if err != nil {
		return ProjectList{}, err
	}
	defer resp.Body.Close()

	return ParseProjectList(resp.Body)
}

// FindProjectByName returns the project called `name`. When several projects
// share the name, the last one listed wins.
func (c *HTTPClient) FindProjectByName(ctx context.Context, sess session.Bundle, name string) (Project, error) {
	list, err := c.ListProjects(ctx, sess)
	if err != nil {
		return Project{}, err
	}
	return list.FindByName(name)
}

// FindProjectByID returns the project with the given id.
func (c *HTTPClient) FindProjectByID(ctx context.Context, sess session.Bundle, id string) (Project, error) {
	list, err := c.ListProjects(ctx, sess)
	if err != nil {
		return Project{}, err
	}
	return list.FindByID(id)
}

type projectDetailResponse struct {
	RootFolder []struct {
		ID string `json:"_id"`
	} `json:"rootFolder"`
}

// FetchProjectDetail returns the id of the project's root folder.
func (c *HTTPClient) FetchProjectDetail(ctx context.Context, sess session.Bundle,
	projectID string) (ProjectDetail, error) {

	path := fmt.Sprintf("%s/%s/details", projectsPath, url.PathEscape(projectID))
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil, sess)
	if err != nil {
		return ProjectDetail{}, err
	}

	resp, err := c.do(req, "fetch project detail")
	if err != nil {
		return ProjectDetail{}, err
	}
	defer resp.Body.Close()

	var parsed projectDetailResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ProjectDetail{}, errors.RemoteProtocolError{
			Op:     "fetch project detail",
			Reason: "malformed response: " + err.Error(),
		}
	}

	if len(parsed.RootFolder) == 0 || parsed.RootFolder[0].ID == "" {
		return ProjectDetail{}, errors.RemoteProtocolError{
			Op:     "fetch project detail",
			Reason: "project has no root folder",
		}
	}
	return ProjectDetail{RootFolderID: parsed.RootFolder[0].ID}, nil
}

// DownloadArchive downloads the whole project as a zip archive.
func (c *HTTPClient) DownloadArchive(ctx context.Context, sess session.Bundle, projectID string) ([]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	path := fmt.Sprintf("%s/%s/download/zip", projectsPath, url.PathEscape(projectID))
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil, sess)
	if err != nil {
		return nil, err
	}

	resp, err := c.doWith(c.downloadClient, req, "download project")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body := newStallReader(resp.Body, c.stallTimeout, cancel)
	defer body.Stop()

	archive, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.NetworkError{Op: "download project", Err: err}
	}
	return archive, nil
}

type uploadResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// UploadFile uploads a single file into the given folder, replacing any file
// with the same name.
func (c *HTTPClient) UploadFile(ctx context.Context, sess session.Bundle, projectID, folderID,
	fileName string, contents []byte) error {

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := []struct{ key, value string }{
		{"relativePath", "null"},
		{"name", fileName},
		{"type", "application/octet-stream"},
	}
	for _, field := range fields {
		if err := writer.WriteField(field.key, field.value); err != nil {
			return errors.WithContext(err, "write form field")
		}
	}

	part, err := writer.CreateFormFile("qqfile", fileName)
	if err != nil {
		return errors.WithContext(err, "create form file")
	}
	if _, err := part.Write(contents); err != nil {
		return errors.WithContext(err, "write form file")
	}
	if err := writer.Close(); err != nil {
		return errors.WithContext(err, "close form")
	}

	path := fmt.Sprintf("%s/%s/upload", projectsPath, url.PathEscape(projectID))
	query := url.Values{"folder_id": []string{folderID}}
	req, err := c.newRequest(ctx, http.MethodPost, path, query, &body, sess)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	log.WithField("file", fileName).Debug("Uploading file")
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.NetworkError{Op: "upload " + fileName, Err: err}
	}
	defer resp.Body.Close()

	if isLoginRedirect(resp) {
		return errors.AuthError{Err: errSessionRejected}
	}

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return errors.NetworkError{Op: "upload " + fileName, Err: err}
	}

	respBody := strings.TrimSpace(string(rawBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.UploadError{File: fileName, StatusCode: resp.StatusCode, Body: respBody}
	}

	// The service sometimes reports a rejected upload in a successful
	// response.
	var parsed uploadResponse
	if err := json.Unmarshal([]byte(respBody), &parsed); err == nil &&
		parsed.Success != nil && !*parsed.Success {
		return errors.UploadError{File: fileName, StatusCode: resp.StatusCode, Body: parsed.Error}
	}
	return nil
}

// AccountInfo is what the dashboard page reveals about the logged in user.
type AccountInfo struct {
	Account   string
	CSRFToken string

	// SessionCookie is the refreshed session cookie, if the service sent one.
	SessionCookie *http.Cookie
}

// FetchAccountInfo loads the dashboard with the given session token, and
// extracts the account email and CSRF token from it.
func (c *HTTPClient) FetchAccountInfo(ctx context.Context, sessionToken string) (AccountInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, projectsPath, nil, nil,
		session.Bundle{SessionToken: sessionToken})
	if err != nil {
		return AccountInfo{}, err
	}

	resp, err := c.do(req, "load dashboard")
	if err != nil {
		return AccountInfo{}, err
	}
	defer resp.Body.Close()

	metas, err := parseMetaTags(resp.Body)
	if err != nil {
		return AccountInfo{}, errors.WithContext(err, "parse html")
	}

	info := AccountInfo{
		Account:       metas[accountMetaName],
		CSRFToken:     metas[csrfMetaName],
		SessionCookie: findCookie(resp.Cookies(), SessionCookieName),
	}
	if info.CSRFToken == "" {
		return AccountInfo{}, errors.RemoteProtocolError{
			Op:     "load dashboard",
			Reason: "CSRF token not found in page",
		}
	}
	return info, nil
}

// FetchSecondaryToken requests the load balancer affinity cookie. It returns
// an empty string if the service didn't set one.
func (c *HTTPClient) FetchSecondaryToken(ctx context.Context, sessionToken string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, socketPath, nil, nil,
		session.Bundle{SessionToken: sessionToken})
	if err != nil {
		return "", err
	}

	resp, err := c.do(req, "fetch load balancer cookie")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if cookie := findCookie(resp.Cookies(), SecondaryCookieName); cookie != nil {
		return cookie.Value, nil
	}
	return "", nil
}

// stallReader cancels the request once no data has arrived for `timeout`.
type stallReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer
	stalled atomic.Bool
}

func newStallReader(r io.Reader, timeout time.Duration, cancel func()) *stallReader {
	sr := &stallReader{r: r, timeout: timeout}
	sr.timer = time.AfterFunc(timeout, func() {
		sr.stalled.Store(true)
		cancel()
	})
	return sr
}

func (sr *stallReader) Read(p []byte) (int, error) {
	n, err := sr.r.Read(p)
	if err != nil && sr.stalled.Load() {
		return n, errTransferStalled
	}

	if n > 0 {
		sr.timer.Reset(sr.timeout)
	}
	return n, err
}

// Stop releases the timer.
func (sr *stallReader) Stop() {
	sr.timer.Stop()
}

// findCookie returns the last cookie called `name`.
func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	var match *http.Cookie
	for _, cookie := range cookies {
		if cookie.Name == name {
			match = cookie
		}
	}
	return match
}
