package site

import (
	"context"
	"crypto/subtle"

	"homesite/pkg/logger"
)

// UnlockAdmin turns on the authoring UI when password matches the configured
// secret, and remembers that locally. This only hides and shows controls: the
// backend does not know about it and accepts writes from anyone holding the
// public store key.
func (c *Controller) UnlockAdmin(ctx context.Context, password string) error {
	if c.adminSecret == "" || subtle.ConstantTimeCompare([]byte(password), []byte(c.adminSecret)) != 1 {
		return ErrWrongPassword
	}

	c.mu.Lock()
	c.admin = true
	c.mu.Unlock()

	if err := c.local.Set(ctx, adminKey, []byte("true")); err != nil {
		logger.Sugar.Errorf("Failed to remember admin mode: %v", err)
	}
	return nil
}

// LockAdmin hides the authoring UI again and closes the editor.
func (c *Controller) LockAdmin(ctx context.Context) {
	c.mu.Lock()
	c.admin = false
	c.editor.reset()
	c.mu.Unlock()

	if err := c.local.Delete(ctx, adminKey); err != nil {
		logger.Sugar.Errorf("Failed to forget admin mode: %v", err)
	}
}

// IsAdmin reports whether the authoring UI is unlocked.
func (c *Controller) IsAdmin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.admin
}
