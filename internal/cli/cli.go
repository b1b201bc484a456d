// Package cli реализует команды терминального клиента: аутентификация,
// CRUD над записями, подписка на события и офлайн очередь операций.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/trailbaseio/trailbase-go/internal/iocli"
	"github.com/trailbaseio/trailbase-go/internal/storage"
	"github.com/trailbaseio/trailbase-go/internal/storage/queue"
	"github.com/trailbaseio/trailbase-go/pkg/client"
)

// PassphraseEnv - переменная окружения с парольной фразой локального
// хранилища. Если она не задана, фраза запрашивается интерактивно.
const PassphraseEnv = "TRAILBASE_STORE_PASSWORD"

type Cli struct {
	site  string
	io    iocli.IO
	store *storage.EncryptedTokenStore
	queue *queue.Queue

	client     *client.Client
	passphrase string
}

func New(site string, io iocli.IO, store *storage.EncryptedTokenStore, opQueue *queue.Queue) *Cli {
	return &Cli{
		site:  site,
		io:    io,
		store: store,
		queue: opQueue,
	}
}

// Run выполняет одну команду. Ошибка выводится в stderr, процесс
// завершается с кодом 1.
func (c *Cli) Run(ctx context.Context, command string, args []string) {
	var err error

	switch command {
	case "login":
		err = c.runLogin(ctx)
	case "logout":
		err = c.runLogout(ctx)
	case "whoami":
		err = c.runWhoami(ctx)
	case "status":
		err = c.runStatus(ctx)
	case "records":
		err = c.runRecords(ctx, args)
	case "queue":
		err = c.runQueue(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		PrintUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// getPassphrase возвращает парольную фразу хранилища: сначала из
// окружения, затем интерактивно. Результат кешируется на время команды.
func (c *Cli) getPassphrase() (string, error) {
	if c.passphrase != "" {
		return c.passphrase, nil
	}

	if env := os.Getenv(PassphraseEnv); env != "" {
		c.passphrase = env
		return c.passphrase, nil
	}

	passphrase, err := c.io.ReadPassword("Store passphrase: ")
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if passphrase == "" {
		return "", fmt.Errorf("passphrase cannot be empty")
	}

	c.passphrase = passphrase
	return c.passphrase, nil
}

// ensureClient строит API клиент, восстанавливая сессию из локального
// хранилища, если она там есть. Отсутствие сессии не ошибка: клиент
// остается анонимным.
func (c *Cli) ensureClient(ctx context.Context) (*client.Client, error) {
	if c.client != nil {
		return c.client, nil
	}

	passphrase, err := c.getPassphrase()
	if err != nil {
		return nil, err
	}

	var opts []client.Option
	tokens, err := c.store.Load(ctx, c.site, passphrase)
	switch {
	case err == nil:
		opts = append(opts, client.WithTokens(tokens))
	case errors.Is(err, storage.ErrTokensNotFound):
		// Нет сохраненной сессии, работаем анонимно
	case errors.Is(err, storage.ErrSiteMismatch):
		c.io.Println("Warning: stored session belongs to a different site, ignoring it.")
	default:
		return nil, fmt.Errorf("failed to load stored session: %w", err)
	}

	apiClient, err := client.New(c.site, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	c.client = apiClient
	return c.client, nil
}

// saveSession сохраняет текущие токены клиента в зашифрованное хранилище.
func (c *Cli) saveSession(ctx context.Context, apiClient *client.Client) error {
	tokens := apiClient.Tokens()
	if tokens == nil {
		return c.deleteSession(ctx)
	}

	passphrase, err := c.getPassphrase()
	if err != nil {
		return err
	}
	if err := c.store.Save(ctx, c.site, passphrase, tokens); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// deleteSession удаляет сохраненную сессию, игнорируя ее отсутствие.
func (c *Cli) deleteSession(ctx context.Context) error {
	if err := c.store.Delete(ctx); err != nil && !errors.Is(err, storage.ErrTokensNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func PrintUsage() {
	fmt.Println("TrailBase Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  trail [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version           Show version information")
	fmt.Println("  --site URL          TrailBase server URL (default: http://localhost:4000)")
	fmt.Println("  --db PATH           Path to local session database (default: trailbase-client.db)")
	fmt.Println("  --queue PATH        Path to offline operation queue (default: trailbase-queue.db)")
	fmt.Println()
	fmt.Println("Store Passphrase:")
	fmt.Printf("  The local session store is encrypted. Set %s or\n", PassphraseEnv)
	fmt.Println("  enter the passphrase interactively when prompted.")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login                                    Login to server")
	fmt.Println("  logout                                   Logout from server")
	fmt.Println("  whoami                                   Show current user")
	fmt.Println("  status                                   Probe server-side session status")
	fmt.Println("  records list <api> [filter...]           List records")
	fmt.Println("  records get <api> <id>                   Show one record")
	fmt.Println("  records create <api> <json>              Create record from JSON")
	fmt.Println("  records update <api> <id> <json>         Update record fields")
	fmt.Println("  records delete <api> <id>                Delete record")
	fmt.Println("  records subscribe <api> [id]             Stream change events")
	fmt.Println("  queue add <create|update|delete> ...     Queue an offline operation")
	fmt.Println("  queue list                               List queued operations")
	fmt.Println("  queue sync                               Send queued operations as one transaction")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  export TRAILBASE_STORE_PASSWORD='mySecretPassword123'")
	fmt.Println("  trail login")
	fmt.Println("  trail records list movies 'rate[$gte]=8' ")
	fmt.Println("  trail records create movies '{\"name\": \"Alien\", \"rate\": 9}'")
	fmt.Println("  trail records subscribe movies")
	fmt.Println("  trail queue add create movies '{\"name\": \"Dune\"}'")
	fmt.Println("  trail queue sync")
	fmt.Println("  trail --site https://demo.trailbase.io login")
}
