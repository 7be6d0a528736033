package sources

import "context"

// Getter retrieves a document by location. *Fetcher implements it.
type Getter interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FetchExtensionSources retrieves both extension artifacts. Either failing
// aborts; a partial extension list is never used.
func FetchExtensionSources(ctx context.Context, g Getter, registry, legacySchema string) (ExtensionSources, error) {
	reg, err := g.Fetch(ctx, registry)
	if err != nil {
		return ExtensionSources{}, err
	}
	legacy, err := g.Fetch(ctx, legacySchema)
	if err != nil {
		return ExtensionSources{}, err
	}
	return ExtensionSources{Registry: reg, LegacySchema: legacy}, nil
}
