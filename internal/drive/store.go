// Package drive keeps the board as a single JSON file in the application's
// private Google Drive area (appDataFolder).
//
// Network and auth failures never escape as errors: Load reports nil and
// Save reports false, after logging the cause.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/existflow/ohm/internal/logger"
	"github.com/existflow/ohm/internal/model"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Remote file identity
const (
	FileName = "ohm-board.json"
	MimeType = "application/json"
	Space    = "appDataFolder"
)

var errNotAuthenticated = errors.New("no access token")

// StoreOption configures a Store
type StoreOption func(*Store)

// WithEndpoint points the store at a non-default Drive API base URL
func WithEndpoint(endpoint string) StoreOption {
	return func(s *Store) { s.endpoint = endpoint }
}

// WithHTTPClient sets the transport used underneath the bearer token
func WithHTTPClient(hc *http.Client) StoreOption {
	return func(s *Store) { s.httpClient = hc }
}

// Store is the remote store adapter
type Store struct {
	endpoint   string
	httpClient *http.Client

	lookups singleflight.Group
	writeMu sync.Mutex
}

// NewStore creates a remote store adapter
func NewStore(opts ...StoreOption) *Store {
	s := &Store{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) service(ctx context.Context, sess *Session) (*drive.Service, error) {
	tok := sess.Token()
	if tok == nil {
		return nil, errNotAuthenticated
	}

	base := context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	hc := oauth2.NewClient(base, oauth2.StaticTokenSource(tok))

	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}
	return drive.NewService(ctx, opts...)
}

// FindFileID looks up the board file by exact name, newest first, and
// memoizes the id on the session.
func (s *Store) FindFileID(ctx context.Context, sess *Session) (string, bool) {
	id, err := s.findFileID(ctx, sess)
	if err != nil {
		logFailure("Board file lookup failed", err)
		return "", false
	}
	return id, id != ""
}

func (s *Store) findFileID(ctx context.Context, sess *Session) (string, error) {
	if id := sess.FileID(); id != "" {
		return id, nil
	}

	// concurrent lookups for one session share a single request
	v, err, _ := s.lookups.Do(fmt.Sprintf("%p", sess), func() (interface{}, error) {
		if id := sess.FileID(); id != "" {
			return id, nil
		}
		svc, err := s.service(ctx, sess)
		if err != nil {
			return "", err
		}

		list, err := svc.Files.List().
			Spaces(Space).
			Q(fmt.Sprintf("name = '%s' and trashed = false", FileName)).
			OrderBy("modifiedTime desc").
			Fields("files(id, name, modifiedTime)").
			PageSize(10).
			Context(ctx).
			Do()
		if err != nil {
			return "", err
		}
		if len(list.Files) == 0 {
			logger.Debug("No remote board file yet")
			return "", nil
		}
		if len(list.Files) > 1 {
			logger.Warn("Duplicate remote board files, using newest",
				logger.F("count", len(list.Files)),
				logger.F("id", list.Files[0].Id))
		}
		sess.setFileID(list.Files[0].Id)
		return list.Files[0].Id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Load returns the remote board, or nil when there is none or the call fails.
// The board is returned as stored; callers sanitize it.
func (s *Store) Load(ctx context.Context, sess *Session) *model.Board {
	id, err := s.findFileID(ctx, sess)
	if err != nil {
		logFailure("Board file lookup failed", err)
		return nil
	}
	if id == "" {
		return nil
	}

	svc, err := s.service(ctx, sess)
	if err != nil {
		logFailure("Remote load failed", err)
		return nil
	}
	resp, err := svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		if isNotFound(err) {
			sess.setFileID("")
		}
		logFailure("Remote load failed", err, logger.F("fileID", id))
		return nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var b model.Board
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		logger.Error("Remote board is not valid JSON", logger.F("fileID", id), logger.Err(err))
		return nil
	}
	logger.Info("Remote board loaded", logger.F("fileID", id), logger.F("lastSaved", b.LastSaved))
	return &b
}

// Save writes the board to the remote file, creating it on first use.
// It reports true only when the write succeeded.
func (s *Store) Save(ctx context.Context, sess *Session, b model.Board) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := json.Marshal(b)
	if err != nil {
		logger.Error("Failed to encode board", logger.Err(err))
		return false
	}

	id, err := s.findFileID(ctx, sess)
	if err != nil {
		// never create a second file when we could not tell whether one exists
		logFailure("Board file lookup failed", err)
		return false
	}

	svc, err := s.service(ctx, sess)
	if err != nil {
		logFailure("Remote save failed", err)
		return false
	}

	if id != "" {
		_, err = svc.Files.Update(id, &drive.File{}).
			Media(bytes.NewReader(data), googleapi.ContentType(MimeType)).
			Fields("id").
			Context(ctx).
			Do()
		if err == nil {
			logger.Info("Remote board updated", logger.F("fileID", id), logger.F("bytes", len(data)))
			return true
		}
		if !isNotFound(err) {
			logFailure("Remote save failed", err, logger.F("fileID", id))
			return false
		}
		logger.Warn("Remote board file vanished, recreating", logger.F("fileID", id))
		sess.setFileID("")
	}

	f, err := svc.Files.Create(&drive.File{
		Name:     FileName,
		MimeType: MimeType,
		Parents:  []string{Space},
	}).
		Media(bytes.NewReader(data), googleapi.ContentType(MimeType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		logFailure("Remote create failed", err)
		return false
	}
	sess.setFileID(f.Id)
	logger.Info("Remote board created", logger.F("fileID", f.Id), logger.F("bytes", len(data)))
	return true
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

func logFailure(msg string, err error, fields ...logger.Field) {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		fields = append(fields,
			logger.F("status", gerr.Code),
			logger.F("response", gerr.Body))
	}
	logger.Error(msg, append(fields, logger.Err(err))...)
}
