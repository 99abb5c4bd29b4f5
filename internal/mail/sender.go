// Package mail delivers rendered invoices by email through the Microsoft
// Graph API using OAuth2 delegated authentication. The rendered document
// stays on disk whatever happens here; every failure is recoverable.
package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/diewo77/invoicer/internal/config"
)

var (
	// ErrNotAuthenticated means Send was called before a successful
	// Authenticate.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAuthTimeout means the user did not complete the browser login
	// before the deadline.
	ErrAuthTimeout = errors.New("authentication timed out")
	// ErrDelivery wraps transmission failures from the mail endpoint.
	ErrDelivery = errors.New("delivery failed")
)

// authTimeout bounds the wait for the loopback redirect. The browser flow
// must fail, not hang, when the user walks away.
const authTimeout = 5 * time.Minute

const graphSendMailURL = "https://graph.microsoft.com/v1.0/me/sendMail"

// Sender authenticates against Microsoft identity and sends mail through the
// Graph sendMail endpoint. Only one delivery proceeds at a time.
type Sender struct {
	cfg   config.Settings
	oauth *oauth2.Config
	token *oauth2.Token
	log   *logrus.Logger

	// endpoint and openBrowser are swappable in tests.
	endpoint    string
	openBrowser func(url string) error
}

func NewSender(cfg config.Settings, log *logrus.Logger) *Sender {
	if log == nil {
		log = logrus.New()
	}
	return &Sender{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.MicrosoftClientID,
			ClientSecret: cfg.MicrosoftClientSecret,
			RedirectURL:  cfg.MicrosoftRedirectURI,
			Scopes:       cfg.MicrosoftScopes,
			Endpoint:     microsoft.AzureADEndpoint(cfg.MicrosoftTenantID),
		},
		log:         log,
		endpoint:    graphSendMailURL,
		openBrowser: openBrowser,
	}
}

// Configured reports whether delegated-auth credentials are present.
func (s *Sender) Configured() bool {
	return s.cfg.MicrosoftClientID != "" && s.cfg.MicrosoftClientSecret != "" && s.cfg.MicrosoftTenantID != ""
}

// Authenticate runs the OAuth2 authorization-code flow: open the consent URL
// in a browser, catch the redirect on the configured loopback URI, exchange
// the code for a token. Returns ErrAuthTimeout when the login never comes
// back.
func (s *Sender) Authenticate(ctx context.Context) error {
	if !s.Configured() {
		return fmt.Errorf("%w: Microsoft Graph credentials are not configured", ErrNotAuthenticated)
	}

	state := uuid.NewString()
	authURL := s.oauth.AuthCodeURL(state)
	fmt.Printf("Please visit this URL to authorize the application:\n%s\n", authURL)
	if err := s.openBrowser(authURL); err != nil {
		s.log.WithField("module", "mail").Warnf("could not open browser: %v", err)
	}

	code, err := s.waitForCode(ctx, state)
	if err != nil {
		return err
	}
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	s.token = token
	return nil
}

// waitForCode serves the loopback redirect endpoint until the authorization
// code arrives, the timeout fires, or the context is cancelled.
func (s *Sender) waitForCode(ctx context.Context, state string) (string, error) {
	redirect, err := url.Parse(s.cfg.MicrosoftRedirectURI)
	if err != nil {
		return "", fmt.Errorf("parse redirect URI: %w", err)
	}

	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	path := redirect.Path
	if path == "" {
		path = "/"
	}
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state || q.Get("code") == "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "<html><body><h1>Authentication failed!</h1></body></html>")
			return
		}
		fmt.Fprint(w, "<html><body><h1>Authentication successful!</h1><p>You can close this window.</p></body></html>")
		select {
		case codeCh <- q.Get("code"):
		default:
		}
	})

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return "", fmt.Errorf("listen on %s: %w", redirect.Host, err)
	}
	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	defer srv.Shutdown(context.Background())

	fmt.Println("Waiting for authentication... (check your web browser)")
	select {
	case code := <-codeCh:
		return code, nil
	case <-time.After(authTimeout):
		return "", ErrAuthTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// graph API request shapes, mirroring the sendMail payload.
type graphEmailAddress struct {
	Address string `json:"address"`
}

type graphRecipient struct {
	EmailAddress graphEmailAddress `json:"emailAddress"`
}

type graphBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphMessageBody struct {
	Subject      string            `json:"subject"`
	Body         graphBody         `json:"body"`
	ToRecipients []graphRecipient  `json:"toRecipients"`
	Attachments  []graphAttachment `json:"attachments,omitempty"`
}

type graphMessage struct {
	Message graphMessageBody `json:"message"`
}

type graphAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
	Size         int64  `json:"size"`
}

// Send delivers one message, optionally attaching a file. The caller must
// have authenticated first.
func (s *Sender) Send(ctx context.Context, to, subject, htmlBody, attachmentPath string) error {
	if s.token == nil {
		return ErrNotAuthenticated
	}

	msg := graphMessage{Message: graphMessageBody{
		Subject:      subject,
		Body:         graphBody{ContentType: "HTML", Content: htmlBody},
		ToRecipients: []graphRecipient{{EmailAddress: graphEmailAddress{Address: to}}},
	}}

	if attachmentPath != "" {
		att, err := prepareAttachment(attachmentPath)
		if err != nil {
			return err
		}
		msg.Message.Attachments = []graphAttachment{att}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.oauth.Client(ctx, s.token).Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrDelivery, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// prepareAttachment base64-encodes a file into the Graph attachment shape.
func prepareAttachment(path string) (graphAttachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return graphAttachment{}, fmt.Errorf("read attachment: %w", err)
	}
	return graphAttachment{
		ODataType:    "#microsoft.graph.fileAttachment",
		Name:         filepath.Base(path),
		ContentType:  attachmentContentType(path),
		ContentBytes: base64.StdEncoding.EncodeToString(data),
		Size:         int64(len(data)),
	}, nil
}

func attachmentContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".html":
		return "text/html"
	default:
		return "application/octet-stream"
	}
}

func openBrowser(u string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", u).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", u).Start()
	default:
		return exec.Command("xdg-open", u).Start()
	}
}
