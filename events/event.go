package events

type Event interface {
	IsEvent()
}

type Base struct {
}

func (b *Base) IsEvent() {}

// TaskRef names a remote task in progress events
type TaskRef struct {
	ID   string
	Name string
}
