/*
resolver.go - Concurrent contact resolution

PURPOSE:
  Resolves every distinct user in a batch of orders to a contact
  address, fanning the lookups out across a bounded worker pool and
  joining before aggregation proceeds.

FAILURE MODEL:
  A failed or empty lookup excludes that user only; it never aborts the
  batch. Failures are logged per user and the user is simply absent from
  the returned map.

BOUNDED FAN-OUT:
  Lookups run on a fixed number of workers (DefaultResolveWorkers unless
  overridden) so a large batch cannot overwhelm the identity service.
*/
package grants

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tokenshop/grant-engine/shop"
)

// DefaultResolveWorkers is the fan-out width used when none is
// configured.
const DefaultResolveWorkers = 8

// ResolveAll maps every distinct user in orders to a contact address.
// Users whose lookup fails or resolves empty are omitted from the
// result. The returned map is safe to read without synchronization.
func ResolveAll(ctx context.Context, resolver ContactResolver, orders []shop.PendingOrder, workers int, log zerolog.Logger) map[string]string {
	if workers <= 0 {
		workers = DefaultResolveWorkers
	}

	// Distinct user IDs, first-seen order (only relevant for log output;
	// the map join point has no ordering requirement).
	seen := make(map[string]struct{})
	var userIDs []string
	for _, o := range orders {
		if _, ok := seen[o.UserID]; !ok {
			seen[o.UserID] = struct{}{}
			userIDs = append(userIDs, o.UserID)
		}
	}

	log.Info().Int("users", len(userIDs)).Msg("resolving contact addresses")

	type resolved struct {
		userID string
		email  string
	}

	jobs := make(chan string)
	results := make(chan resolved, len(userIDs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for userID := range jobs {
				email, err := resolver.ResolveContact(ctx, userID)
				if err != nil {
					log.Warn().Err(err).Str("user_id", userID).Msg("contact lookup failed")
					continue
				}
				if email == "" {
					log.Warn().Str("user_id", userID).Msg("no contact address for user")
					continue
				}
				results <- resolved{userID: userID, email: email}
			}
		}()
	}

	for _, id := range userIDs {
		jobs <- id
	}
	close(jobs)

	wg.Wait()
	close(results)

	contacts := make(map[string]string, len(userIDs))
	for r := range results {
		contacts[r.userID] = r.email
	}
	return contacts
}
