package cli

import (
	"context"
	"fmt"
	"time"
)

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	apiClient, err := c.ensureClient(ctx)
	if err != nil {
		return err
	}

	// Запрашиваем email
	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	// Запрашиваем пароль
	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	tokens, err := apiClient.Login(ctx, email, password)
	if err != nil {
		return err
	}

	// Сохраняем токены через слой шифрования
	if err := c.saveSession(ctx, apiClient); err != nil {
		return err
	}

	user := apiClient.User()

	c.io.Println()
	c.io.Println("✓ Login successful!")
	if user != nil {
		c.io.Printf("User: %s (%s)\n", user.Email, user.ID)
	}
	if exp, ok := apiClient.ExpiresAt(); ok {
		c.io.Printf("Access token expires: %s\n", exp.Format(time.RFC3339))
	}
	if tokens.RefreshToken != nil {
		c.io.Println("Refresh token received; the session will renew itself.")
	}
	c.io.Println()
	c.io.Println("Your session has been saved securely.")

	return nil
}
