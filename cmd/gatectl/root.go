package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gateadmin/internal/apiclient"
	"github.com/gateadmin/internal/guard"
	"github.com/gateadmin/internal/logger"
	"github.com/gateadmin/internal/storage/file"
)

const defaultAPI = "http://localhost:8080/api"

// errNotSignedIn — команда требует входа, а токена в файле сессии нет.
var errNotSignedIn = errors.New("not signed in: run `gatectl signin`")

// cli — состояние одного запуска: флаги корневой команды и открытая сессия.
type cli struct {
	apiURL      string
	sessionPath string
	timeout     time.Duration
	jsonOutput  bool
	verbose     bool

	store *file.Client
	api   *apiclient.Client
}

func defaultAPIURL() string {
	if s := os.Getenv("GATECTL_API"); s != "" {
		return s
	}
	return defaultAPI
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "gatectl",
		Short:         "CLI client for the Gate API",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.apiURL, "api", defaultAPIURL(), "Gate API base URL (env GATECTL_API)")
	root.PersistentFlags().StringVar(&c.sessionPath, "session", "", "session file (default ~/.config/gatectl/session.toml)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 15*time.Second, "request timeout")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "output as JSON")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddGroup(&cobra.Group{ID: "session", Title: "Session:"}, &cobra.Group{ID: "gates", Title: "Gate Master:"})
	root.AddCommand(newSignInCmd(c), newSignOutCmd(c), newWhoAmICmd(c), newGatesCmd(c))
	return root
}

// open готовит файл сессии и клиент API; токен читается из файла на каждом запросе.
func (c *cli) open(cmd *cobra.Command) error {
	logger.SetOutput(cmd.ErrOrStderr())
	if c.verbose {
		logger.SetLevel("debug")
	} else {
		logger.SetLevel("error")
	}

	path := c.sessionPath
	if path == "" {
		p, err := file.DefaultPath()
		if err != nil {
			return fmt.Errorf("session path: %w", err)
		}
		path = p
	}
	store, err := file.New(path)
	if err != nil {
		return err
	}
	c.store = store
	c.api = apiclient.New(c.apiURL, c.timeout).WithTokens(apiclient.StoreTokens(store))
	return nil
}

// requireSession — аналог защищённого маршрута: без токена команда не выполняется.
func (c *cli) requireSession(ctx context.Context) error {
	state, err := guard.Check(ctx, c.store)
	if err != nil {
		return err
	}
	if state != guard.Authenticated {
		return errNotSignedIn
	}
	return nil
}

// userError превращает ошибку API в текст для пользователя; 401 подсказывает войти заново.
func userError(err error) error {
	if apiclient.IsUnauthorized(err) {
		return fmt.Errorf("%s (session expired? run `gatectl signin`)", apiclient.Message(err, apiclient.DefaultErrorMessage))
	}
	return errors.New(apiclient.Message(err, apiclient.DefaultErrorMessage))
}
