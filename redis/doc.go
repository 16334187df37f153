// Package redis connects the optional Redis server that caches resolved
// principals in front of the user store.
//
// Client embeds the go-redis client and adds the service key namespace.
// JSONCache stores one value type as JSON with a fixed TTL:
//
//	cache := redis.NewJSONCache[store.CachedPrincipal](client, "principal", 30*time.Second)
//	p, ok, err := cache.Get(ctx, "42")
package redis
