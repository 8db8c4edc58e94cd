package event

// Level lifecycle events. Entity-scoped events live next to the entity
// manager; these are the ones the outer game loop cares about.

type LevelLoaded struct {
	Name    string
	Players int
}

type PlayerDied struct {
	Name string
}

type SessionChanged struct {
	Collectibles int
	Lives        int
	Score        int
}
