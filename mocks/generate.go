package mocks

//go:generate mockgen -destination=storage.go -package=mocks github.com/pribylovaa/bookshelf/internal/storage Storage
//go:generate mockgen -destination=avatars.go -package=mocks github.com/pribylovaa/bookshelf/internal/storage AvatarsStorage
//go:generate mockgen -destination=state_store.go -package=mocks github.com/pribylovaa/bookshelf/internal/cache StateStore
//go:generate mockgen -destination=limiter.go -package=mocks github.com/pribylovaa/bookshelf/internal/cache Limiter
//go:generate mockgen -destination=provider.go -package=mocks github.com/pribylovaa/bookshelf/internal/oauth Provider
