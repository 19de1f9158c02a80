// Command oauth-init mints the Google OAuth token the sheets exporter
// runs with. It walks the browser consent flow once, catches the
// redirect on a local port and writes the refresh-capable token to
// disk. Run it on a machine with a browser; the daemons and the
// export command only ever read the resulting file.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/cli"
	"fintrack/internal/config"
)

const authTimeout = 5 * time.Minute

func main() {
	cli.LoadEnvFile()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "oauth-init: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	raw, err := clientCredentials(cfg)
	if err != nil {
		return err
	}

	oauthCfg, err := googleoauth.ConfigFromJSON(raw, gsheet.SpreadsheetsScope)
	if err != nil {
		return fmt.Errorf("parse oauth client: %w", err)
	}

	port := os.Getenv("OAUTH_REDIRECT_PORT")
	if port == "" {
		port = "8085"
	}
	// The OAuth client's authorized redirect URIs must include this.
	oauthCfg.RedirectURL = "http://localhost:" + port + "/callback"

	state, err := randomState()
	if err != nil {
		return err
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if msg := r.URL.Query().Get("error"); msg != "" {
			http.Error(w, "Authorization failed: "+msg, http.StatusBadRequest)
			errCh <- fmt.Errorf("authorization denied: %s", msg)
			return
		}
		if r.URL.Query().Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			errCh <- errors.New("state mismatch on callback")
			return
		}
		fmt.Fprintln(w, "Authorized. You can close this window and return to the terminal.")
		codeCh <- r.URL.Query().Get("code")
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("callback server: %w", err)
		}
	}()
	defer srv.Close()

	fmt.Printf("Open this URL to authorize:\n\n  %s\n\n", oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return err
	case <-time.After(authTimeout):
		return errors.New("authorization timed out")
	case <-interrupt:
		return errors.New("interrupted")
	}

	token, err := oauthCfg.Exchange(context.Background(), code)
	if err != nil {
		return fmt.Errorf("token exchange: %w", err)
	}

	outFile := cfg.GoogleOAuthTokenFile
	if outFile == "" {
		outFile = "token.json"
	}
	if err := writeToken(outFile, token); err != nil {
		return err
	}

	fmt.Printf("Saved token to %s\n", outFile)
	return nil
}

// clientCredentials resolves the OAuth client JSON; inline wins over a
// file path, matching how the exporter reads credentials.
func clientCredentials(cfg *config.Config) ([]byte, error) {
	if cfg.GoogleOAuthClientJSON != "" {
		return []byte(cfg.GoogleOAuthClientJSON), nil
	}
	if cfg.GoogleOAuthClientFile != "" {
		raw, err := os.ReadFile(cfg.GoogleOAuthClientFile)
		if err != nil {
			return nil, fmt.Errorf("read oauth client file: %w", err)
		}
		return raw, nil
	}
	return nil, errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func writeToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}
