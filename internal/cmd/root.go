// Package cmd implements the uploadctl command line client for the
// UploadDoc document-printing marketplace.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/you/uploaddoc/domain"
	"github.com/you/uploaddoc/internal/config"
	"github.com/you/uploaddoc/internal/gateway"
	"github.com/you/uploaddoc/internal/session"
	"github.com/you/uploaddoc/internal/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "uploadctl",
	Short:         "Terminal client for the UploadDoc printing marketplace",
	Long:          "uploadctl manages your UploadDoc session, documents and provider profile from the terminal.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to the config file")
}

// ExecuteContext runs the root command.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// stack bundles the wired client for commands.
type stack struct {
	cfg     *config.Config
	client  *gateway.Client
	manager *session.Manager
}

// newStack wires config, storage backend, gateway and session manager.
func newStack() (*stack, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	var kv domain.KeyValueStore
	switch cfg.StorageBackend {
	case config.StorageRedis:
		client, err := storage.NewRedisClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis storage: %w", err)
		}
		kv = storage.NewRedisStore(client, cfg.RedisKeyPrefix)
	default:
		fileStore, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("opening session storage: %w", err)
		}
		kv = fileStore
	}

	client := gateway.NewClient(cfg.BaseURL, gateway.WithTimeout(cfg.RequestTimeout))
	manager := session.NewManager(client, storage.NewAdapter(kv), session.WithProfileAPI(client))

	return &stack{cfg: cfg, client: client, manager: manager}, nil
}

// bootstrapped wires the client and runs the startup status check so
// commands that need a session see the persisted one.
func bootstrapped(ctx context.Context) (*stack, error) {
	s, err := newStack()
	if err != nil {
		return nil, err
	}
	s.manager.CheckAuthStatus(ctx)
	return s, nil
}

// requireSession returns the current token or an instruction to log in.
func (s *stack) requireSession() (string, error) {
	token, err := s.manager.Token()
	if err != nil {
		return "", fmt.Errorf("not logged in, run `uploadctl login` first")
	}
	return token, nil
}
