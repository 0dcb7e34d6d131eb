package entity

// Event is one message for the order topic, e.g. key "order.created.42".
type Event struct {
	Key     string
	Payload interface{}
}
