package site

import (
	"context"
	"time"

	"homesite/pkg/logger"
)

// PresenceMeta is what this visitor announces on the presence channel.
type PresenceMeta struct {
	OnlineAt time.Time `json:"online_at"`
}

type presence struct {
	key   string
	count int
	sub   Subscription
	gen   int
}

func (p *presence) leave() Subscription {
	sub := p.sub
	p.sub = nil
	p.gen++
	return sub
}

// joinPresence joins the online-users channel under a fresh key, so two
// sessions of the same visitor count twice.
func (c *Controller) joinPresence(ctx context.Context) {
	key := c.newKey()

	c.mu.Lock()
	c.presence.gen++
	gen := c.presence.gen
	c.presence.key = key
	c.mu.Unlock()

	sub, err := c.realtime.JoinPresence(ctx, key, PresenceMeta{OnlineAt: c.now().UTC()}, func(keys []string) {
		c.onPresenceSync(gen, keys)
	})
	if err != nil {
		logger.Sugar.Errorf("Failed to join presence channel: %v", err)
		return
	}

	c.mu.Lock()
	if c.presence.gen != gen {
		c.mu.Unlock()
		closeSub(sub)
		return
	}
	c.presence.sub = sub
	c.mu.Unlock()
}

func (c *Controller) onPresenceSync(gen int, keys []string) {
	distinct := make(map[string]bool, len(keys))
	for _, k := range keys {
		distinct[k] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.presence.gen != gen {
		return
	}
	c.presence.count = len(distinct)
}

// OnlineCount is the number of visitors on the presence channel.
func (c *Controller) OnlineCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presence.count
}

// PresenceKey is the key this session is tracked under.
func (c *Controller) PresenceKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presence.key
}
