package forge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/repoctx/internal/types"
)

// ListFiles returns the recursive tree of coordinates in forge order.
// The request is the first attempt of a run, so an anonymous 401/403/404 yields ErrAuthenticationRequired.
func (client *Client) ListFiles(ctx context.Context, coordinates types.Coordinates) ([]types.TreeEntry, error) {
	authenticated := client.session.HasCredential()
	client.logger.Debug("fetching repository tree",
		zap.String("owner", coordinates.Owner),
		zap.String("repository", coordinates.Repository),
		zap.String("reference", coordinates.Reference),
		zap.Bool("authenticated", authenticated),
	)
	tree, response, callErr := client.api.Git.GetTree(ctx, coordinates.Owner, coordinates.Repository, coordinates.Reference, true)
	if callErr != nil {
		return nil, client.failure(ctx, response, callErr, true, authenticated)
	}
	if tree == nil || tree.Entries == nil {
		return nil, fmt.Errorf("%w: tree listing for %s/%s has no tree field", ErrMalformedPayload, coordinates.Owner, coordinates.Repository)
	}
	if tree.GetTruncated() {
		if !client.allowTruncated {
			return nil, fmt.Errorf("%w: %s/%s@%s", ErrTreeTruncated, coordinates.Owner, coordinates.Repository, coordinates.Reference)
		}
		client.logger.Warn("repository tree listing is truncated; the document will be incomplete",
			zap.Int("entries", len(tree.Entries)),
		)
	}

	entries := make([]types.TreeEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry == nil {
			continue
		}
		entries = append(entries, types.TreeEntry{
			Path: entry.GetPath(),
			Kind: types.ParseEntryKind(entry.GetType()),
		})
	}
	client.logger.Debug("repository tree fetched", zap.Int("entries", len(entries)))
	return entries, nil
}
