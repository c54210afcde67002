package earthengine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/ui"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	eeapi "google.golang.org/api/earthengine/v1"
	"google.golang.org/api/option"
)

var Scopes = []string{eeapi.EarthengineScope, eeapi.CloudPlatformScope}

var ErrNoProject = errors.New("no cloud project configured for earth engine")

type AuthConfig struct {
	Project           string
	BaseURL           string
	CredentialsPath   string
	OAuthClientID     string
	OAuthClientSecret string
}

// StoredCredentials is the authorized-user file written by the interactive
// flow. It is readable by google.CredentialsFromJSON.
type StoredCredentials struct {
	Type         string `json:"type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	Project      string `json:"project,omitempty"`
}

func ReadCredentials(path string) (*StoredCredentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var creds StoredCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials %s: %w", path, err)
	}
	return &creds, nil
}

func WriteCredentials(path string, creds *StoredCredentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %v", err)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// TokenSourceFunc resolves credentials and the project they default to.
type TokenSourceFunc func(ctx context.Context, cfg AuthConfig) (oauth2.TokenSource, string, error)

// DefaultTokenSource prefers the credentials file and falls back to
// Application Default Credentials.
func DefaultTokenSource(ctx context.Context, cfg AuthConfig) (oauth2.TokenSource, string, error) {
	if cfg.CredentialsPath != "" {
		if data, err := os.ReadFile(cfg.CredentialsPath); err == nil {
			var stored StoredCredentials
			if err := json.Unmarshal(data, &stored); err != nil {
				return nil, "", fmt.Errorf("failed to parse credentials %s: %w", cfg.CredentialsPath, err)
			}
			creds, err := google.CredentialsFromJSON(ctx, data, Scopes...)
			if err != nil {
				return nil, "", err
			}
			return creds.TokenSource, stored.Project, nil
		}
	}
	creds, err := google.FindDefaultCredentials(ctx, Scopes...)
	if err != nil {
		return nil, "", err
	}
	return creds.TokenSource, creds.ProjectID, nil
}

// AuthenticateFunc obtains fresh credentials for cfg.
type AuthenticateFunc func(ctx context.Context, cfg AuthConfig) error

// Initializer opens Earth Engine sessions.
type Initializer struct {
	Config       AuthConfig
	Transport    http.RoundTripper
	TokenSource  TokenSourceFunc
	Authenticate AuthenticateFunc
}

// Initialize loads credentials and checks them with one compute round trip.
// The project is taken from the argument, then from the credentials, then
// from the configuration.
func (in *Initializer) Initialize(ctx context.Context, project string) (*Client, error) {
	tokenSource := in.TokenSource
	if tokenSource == nil {
		tokenSource = DefaultTokenSource
	}
	ts, credentialsProject, err := tokenSource(ctx, in.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	if project == "" {
		project = credentialsProject
	}
	if project == "" {
		project = in.Config.Project
	}
	if project == "" {
		return nil, ErrNoProject
	}

	httpClient := &http.Client{Transport: &oauth2.Transport{
		Source: oauth2.ReuseTokenSource(nil, ts),
		Base:   in.Transport,
	}}
	var opts []option.ClientOption
	if in.Config.BaseURL != "" {
		opts = append(opts, WithBaseURL(in.Config.BaseURL))
	}
	client, err := NewClient(ctx, httpClient, project, opts...)
	if err != nil {
		return nil, err
	}

	var one float64
	if err := client.ComputeValue(ctx, Constant(1), &one); err != nil {
		return nil, fmt.Errorf("failed to initialize earth engine for project %s: %w", project, err)
	}
	return client, nil
}

// InitializeWithFallback initializes with the configured project. If that
// fails it authenticates once and initializes again; a second failure is
// returned as is.
func (in *Initializer) InitializeWithFallback(ctx context.Context) (*Client, error) {
	client, err := in.Initialize(ctx, in.Config.Project)
	if err == nil {
		return client, nil
	}
	ui.PrintWarning(fmt.Sprintf("Earth Engine initialization failed: %v\nStarting authentication...", err))

	authenticate := in.Authenticate
	if authenticate == nil {
		authenticate = InteractiveAuthenticate
	}
	if err := authenticate(ctx, in.Config); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	return in.Initialize(ctx, "")
}

// InteractiveAuthenticate runs the installed-app OAuth2 flow on a loopback
// redirect and stores the refresh token at cfg.CredentialsPath.
func InteractiveAuthenticate(ctx context.Context, cfg AuthConfig) error {
	if cfg.OAuthClientID == "" {
		return errors.New("missing required environment variable: EE_OAUTH_CLIENT_ID")
	}
	if cfg.CredentialsPath == "" {
		return errors.New("missing credentials path")
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to open loopback listener: %w", err)
	}

	conf := &oauth2.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "http://" + listener.Addr().String(),
		Scopes:       Scopes,
	}
	state, err := randomState()
	if err != nil {
		listener.Close()
		return err
	}
	verifier := oauth2.GenerateVerifier()
	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	codes := make(chan string, 1)
	errs := make(chan error, 1)
	server := &http.Server{Handler: AuthCodeHandler(state, codes, errs)}
	go server.Serve(listener)
	defer server.Shutdown(context.Background())

	ui.PrintInfo("Open the following URL in a browser to authorize Earth Engine access:\n")
	fmt.Println(authURL)

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}

	token, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return errors.New("authorization server returned no refresh token")
	}

	err = WriteCredentials(cfg.CredentialsPath, &StoredCredentials{
		Type:         "authorized_user",
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RefreshToken: token.RefreshToken,
		Project:      cfg.Project,
	})
	if err != nil {
		return err
	}
	ui.PrintSuccess("Credentials saved to " + cfg.CredentialsPath)
	return nil
}

// AuthCodeHandler receives the OAuth2 redirect and forwards the code, or the
// reason there is none.
func AuthCodeHandler(state string, codes chan<- string, errs chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if reason := query.Get("error"); reason != "" {
			http.Error(w, "authorization denied", http.StatusForbidden)
			select {
			case errs <- fmt.Errorf("authorization denied: %s", reason):
			default:
			}
			return
		}
		code := query.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this window.")
		select {
		case codes <- code:
		default:
		}
	})
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
