package memo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// DocTitle is the title of the mirrored Google Doc.
const DocTitle = "SilverLink 記事本"

const docsTimeout = 30 * time.Second

// DocsConfig configures the Google Docs mirror.
type DocsConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "http://127.0.0.1:8088/api/docs/callback"
	TokenPath    string
	DocID        string // existing doc to overwrite; empty creates one on first sync
	Logger       *slog.Logger
}

// DocsMirror copies the memo list into a single Google Doc over OAuth2.
type DocsMirror struct {
	config    *oauth2.Config
	tokenPath string
	logger    *slog.Logger

	mu      sync.RWMutex
	token   *oauth2.Token
	service *docs.Service
	docID   string
}

// NewDocsMirror creates a mirror. A token saved by an earlier session is
// reused when present.
func NewDocsMirror(cfg DocsConfig) (*DocsMirror, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNoCredentials
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = "http://127.0.0.1:8088/api/docs/callback"
	}
	if cfg.TokenPath == "" {
		homeDir, _ := os.UserHomeDir()
		cfg.TokenPath = filepath.Join(homeDir, ".silverlink", "google_token.json")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	m := &DocsMirror{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/documents",
				"https://www.googleapis.com/auth/drive.file",
			},
			Endpoint: google.Endpoint,
		},
		tokenPath: cfg.TokenPath,
		logger:    cfg.Logger.With("component", "memo.docs"),
		docID:     cfg.DocID,
	}

	if err := m.loadToken(); err == nil {
		if err := m.initService(context.Background()); err != nil {
			m.logger.Warn("stored Google token unusable", "error", err)
			m.token = nil
		}
	}

	return m, nil
}

// newDocsMirrorWithService builds a mirror around an existing service.
func newDocsMirrorWithService(service *docs.Service, docID string, logger *slog.Logger) *DocsMirror {
	return &DocsMirror{
		config:  &oauth2.Config{Endpoint: google.Endpoint},
		logger:  logger.With("component", "memo.docs"),
		token:   &oauth2.Token{AccessToken: "test", Expiry: time.Now().Add(time.Hour)},
		service: service,
		docID:   docID,
	}
}

// IsAuthenticated returns true if the mirror holds a valid token.
func (m *DocsMirror) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != nil && m.token.Valid() && m.service != nil
}

// AuthURL returns the OAuth2 consent URL.
func (m *DocsMirror) AuthURL() string {
	return m.config.AuthCodeURL("silverlink-memo", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// HandleCallback exchanges an authorization code and starts the service.
func (m *DocsMirror) HandleCallback(ctx context.Context, code string) error {
	ctx, cancel := context.WithTimeout(ctx, docsTimeout)
	defer cancel()

	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("memo: exchange code: %w", err)
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	if err := m.saveToken(); err != nil {
		m.logger.Warn("failed to save Google token", "error", err)
	}

	return m.initService(context.Background())
}

// Disconnect forgets the token and removes it from disk.
func (m *DocsMirror) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = nil
	m.service = nil

	if err := os.Remove(m.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("memo: remove token: %w", err)
	}
	return nil
}

// DocID returns the mirrored document id, empty before the first sync.
func (m *DocsMirror) DocID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.docID
}

// Sync replaces the document body with the rendered memo list, creating the
// document on first use.
func (m *DocsMirror) Sync(ctx context.Context, memos []Memo) error {
	m.mu.RLock()
	service := m.service
	docID := m.docID
	m.mu.RUnlock()

	if service == nil {
		return ErrNotAuthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, docsTimeout)
	defer cancel()

	content := FormatDoc(memos)

	if docID == "" {
		created, err := service.Documents.Create(&docs.Document{Title: DocTitle}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("memo: create document: %w", err)
		}
		docID = created.DocumentId

		m.mu.Lock()
		m.docID = docID
		m.mu.Unlock()

		m.logger.Info("created memo document", "doc_id", docID)
	}

	doc, err := service.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("memo: get document: %w", err)
	}

	var requests []*docs.Request
	if end := bodyEnd(doc); end > 1 {
		requests = append(requests, &docs.Request{
			DeleteContentRange: &docs.DeleteContentRangeRequest{
				Range: &docs.Range{StartIndex: 1, EndIndex: end},
			},
		})
	}
	requests = append(requests, &docs.Request{
		InsertText: &docs.InsertTextRequest{
			Location: &docs.Location{Index: 1},
			Text:     content,
		},
	})

	_, err = service.Documents.BatchUpdate(docID, &docs.BatchUpdateDocumentRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("memo: update document: %w", err)
	}

	m.logger.Debug("memo document synced", "doc_id", docID, "memos", len(memos))
	return nil
}

// bodyEnd is the last index before the trailing newline every doc keeps.
func bodyEnd(doc *docs.Document) int64 {
	if doc.Body == nil || len(doc.Body.Content) == 0 {
		return 0
	}
	return doc.Body.Content[len(doc.Body.Content)-1].EndIndex - 1
}

// DocURL returns the URL to view a Google Doc.
func DocURL(docID string) string {
	return fmt.Sprintf("https://docs.google.com/document/d/%s/edit", docID)
}

// FormatDoc renders memos, newest first, for the mirrored document.
func FormatDoc(memos []Memo) string {
	var b strings.Builder
	b.WriteString(DocTitle)
	b.WriteString("\n\n")
	if len(memos) == 0 {
		b.WriteString("（目前沒有記事）\n")
		return b.String()
	}
	for _, m := range memos {
		fmt.Fprintf(&b, "• [%s] %s\n", m.DisplayTime, m.Content)
	}
	return b.String()
}

func (m *DocsMirror) initService(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == nil {
		return fmt.Errorf("memo: no token available")
	}

	service, err := docs.NewService(ctx, option.WithHTTPClient(m.config.Client(ctx, m.token)))
	if err != nil {
		return fmt.Errorf("memo: create docs service: %w", err)
	}
	m.service = service
	return nil
}

func (m *DocsMirror) loadToken() error {
	data, err := os.ReadFile(m.tokenPath)
	if err != nil {
		return err
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return err
	}

	m.mu.Lock()
	m.token = &token
	m.mu.Unlock()
	return nil
}

func (m *DocsMirror) saveToken() error {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	if token == nil {
		return fmt.Errorf("memo: no token to save")
	}
	if err := os.MkdirAll(filepath.Dir(m.tokenPath), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.tokenPath, data, 0600)
}

// DocsStatus is the mirror connection state exposed to the dashboard.
type DocsStatus struct {
	Connected bool   `json:"connected"`
	DocURL    string `json:"doc_url,omitempty"`
	AuthURL   string `json:"auth_url,omitempty"`
}

// Status returns the current connection state.
func (m *DocsMirror) Status() DocsStatus {
	st := DocsStatus{Connected: m.IsAuthenticated()}
	if id := m.DocID(); id != "" {
		st.DocURL = DocURL(id)
	}
	if !st.Connected {
		st.AuthURL = m.AuthURL()
	}
	return st
}
