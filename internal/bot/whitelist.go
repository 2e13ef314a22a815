package bot

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// dmUsers remembers users seen in allowed guilds so they can keep
// using the bot in direct messages when a guild allowlist is set.
type dmUsers struct {
	mu   sync.RWMutex
	seen map[string]bool
}

func newDMUsers() *dmUsers {
	return &dmUsers{seen: make(map[string]bool)}
}

func (d *dmUsers) mark(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[userID] = true
}

func (d *dmUsers) known(userID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.seen[userID]
}

// admits reports whether an event from a guild and user passes the
// guild allowlist. Direct messages carry an empty guild ID and pass
// only when the user was seen in an allowed guild before.
func (b *Bot) admits(guildID, userID string) bool {
	if guildID == "" {
		if len(b.cfg.Bot.Guilds) == 0 || b.dm.known(userID) {
			return true
		}
		log.Debug().
			Str("user_id", userID).
			Msg("Ignoring direct message from user not seen in any allowed guild")
		return false
	}

	if !b.cfg.GuildAllowed(guildID) {
		log.Debug().
			Str("guild_id", guildID).
			Msg("Ignoring event from non-allowlisted guild")
		return false
	}

	b.dm.mark(userID)
	return true
}
