package cli

import (
	"context"
	"time"
)

func (c *Cli) runWhoami(ctx context.Context) error {
	apiClient, err := c.ensureClient(ctx)
	if err != nil {
		return err
	}

	user := apiClient.User()
	if user == nil {
		c.io.Println("Not authenticated.")
		c.io.Println()
		c.io.Println("Run 'trail login' to authenticate.")
		return nil
	}

	c.io.Printf("User:  %s\n", user.Email)
	c.io.Printf("ID:    %s\n", user.ID)

	if exp, ok := apiClient.ExpiresAt(); ok {
		c.io.Printf("Token expires: %s\n", exp.Format(time.RFC3339))
		remaining := time.Until(exp)
		if remaining > 0 {
			c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
		} else {
			c.io.Println("⚠️  Token has expired. It will be refreshed on the next request.")
		}
	}

	return nil
}

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Session Status ===")
	c.io.Println()

	apiClient, err := c.ensureClient(ctx)
	if err != nil {
		return err
	}

	// Спрашиваем сервер о состоянии сессии. Неавторизованный ответ не
	// ошибка: tokens просто nil.
	tokens, err := apiClient.Status(ctx)
	if err != nil {
		return err
	}

	if tokens == nil {
		c.io.Println("Status: Not authenticated (server-side)")
		return nil
	}

	c.io.Println("Status: Authenticated")
	if user := apiClient.User(); user != nil {
		c.io.Printf("User: %s\n", user.Email)
	}

	// Сервер мог перевыпустить токены, сохраняем актуальные.
	if err := c.saveSession(ctx, apiClient); err != nil {
		return err
	}

	return nil
}
