// Package fake provides utilities for generating random group bindings for testing and development purposes.
package fake

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcmotd/internal/address"
	"github.com/woozymasta/mcmotd/internal/models"
)

// Store is the write side of the binding repository.
type Store interface {
	PutBinding(ctx context.Context, b models.GroupBinding) error
}

// GenerateBindings populates the storage with count randomized group bindings.
// It mixes Bedrock and Java hosts, default and custom ports, and rebinds some groups.
// Returns the number of bindings written.
func GenerateBindings(ctx context.Context, store Store, count int) int {
	domains := []string{"example.com", "example.net", "mc.example.org", "play.example.io"}
	prefixes := []string{"mc", "play", "bedrock", "survival", "skyblock", "pvp"}
	lanHosts := []string{"localhost", "minecraft", "mc-server"}

	var written int
	for i := range count {
		if ctx.Err() != nil {
			break
		}

		// Random date-time in 30 days range
		daysAgo := rand.IntN(30)
		seenTime := time.Now().UTC().Add(-time.Duration(daysAgo) * 24 * time.Hour).
			Add(-time.Duration(rand.IntN(1440)) * time.Minute)

		var host string
		// 15% chance of a LAN style host without dots
		if rand.Float32() < 0.15 {
			host = lanHosts[rand.IntN(len(lanHosts))]
		} else {
			host = fmt.Sprintf("%s%d.%s", prefixes[rand.IntN(len(prefixes))], rand.IntN(100), domains[rand.IntN(len(domains))])
		}

		port := address.DefaultPort(host)
		// 25% chance of a custom port
		if rand.Float32() < 0.25 {
			port = 20000 + rand.IntN(10000)
		}

		b := models.GroupBinding{
			GroupID:   fmt.Sprintf("%d", 100000+i),
			Address:   models.ServerAddress{Host: host, Port: port},
			CreatedAt: seenTime.Add(-7 * 24 * time.Hour),
			UpdatedAt: seenTime,
		}
		// 10% chance to rebind an existing group
		if i > 0 && rand.Float32() < 0.1 {
			b.GroupID = fmt.Sprintf("%d", 100000+rand.IntN(i))
		}

		if err := store.PutBinding(ctx, b); err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake binding")
			continue
		}
		written++
	}

	log.Info().Int("count", written).Msg("Fake bindings generated")

	return written
}
