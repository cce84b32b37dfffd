package runtime

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// maximumConcurrentModelPulls is the maximum number of model pulls that
// EnsureModels will run at once.
const maximumConcurrentModelPulls = 2

// EnsureModels makes sure every listed model is present locally, pulling the
// missing ones. Present models are never re-pulled, so the operation is
// idempotent and cheap when everything is already in place.
func (c *Client) EnsureModels(ctx context.Context, models []string, printer Printer) error {
	if printer == nil {
		printer = NoopPrinter()
	}

	local, err := c.ListModels(ctx)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(local))
	for _, m := range local {
		present[NormalizeModelName(m.Name)] = true
	}

	var missing []string
	for _, model := range models {
		if present[NormalizeModelName(model)] {
			c.log.Infof("Model %s already present", model)
			printer.Printf("Model %s: already present\n", model)
			continue
		}
		missing = append(missing, model)
	}
	if len(missing) == 0 {
		return nil
	}

	// Restrict pull concurrency with a token semaphore.
	pullTokens := make(chan struct{}, maximumConcurrentModelPulls)
	for i := 0; i < maximumConcurrentModelPulls; i++ {
		pullTokens <- struct{}{}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, model := range missing {
		model := model
		group.Go(func() error {
			select {
			case <-pullTokens:
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
			defer func() {
				pullTokens <- struct{}{}
			}()

			c.log.Infof("Pulling model %s", model)
			printer.Printf("Pulling %s...\n", model)
			if err := c.Pull(groupCtx, model, pullProgressRenderer(model, printer)); err != nil {
				return err
			}
			printer.Printf("Pulled %s\n", model)
			return nil
		})
	}
	return group.Wait()
}
