package cli

import (
	"context"
)

func (c *Cli) runLogout(ctx context.Context) error {
	apiClient, err := c.ensureClient(ctx)
	if err != nil {
		return err
	}

	// Logout лучший по возможности: сервер может быть недоступен,
	// локальная сессия удаляется в любом случае.
	apiClient.Logout(ctx)

	if err := c.deleteSession(ctx); err != nil {
		return err
	}

	c.io.Println("✓ Logged out.")
	return nil
}
