package protocol

// Handler receives the data bytes of a PUB frame addressed to a subscribed channel.
type Handler func(data []byte)

type PublishChannel struct {
	ID         uint8
	RoutingKey string
	Transform  uint8
}

type SubscribeChannel struct {
	ID         uint8
	RoutingKey string
	Transform  uint8
	Handler    Handler
}

// Channels is the per-registration channel table. Ids are dense and equal to
// the slice index; entries are only appended, never removed or reused until
// Reset.
type Channels struct {
	publish   []PublishChannel
	subscribe []SubscribeChannel
}

func NewChannels() *Channels { return &Channels{} }

// NextPublishID returns the id the next publish declaration will use.
func (c *Channels) NextPublishID() (uint8, error) {
	if len(c.publish) >= MaxChannels {
		return 0, ErrChannelLimit
	}
	return uint8(len(c.publish)), nil
}

// NextSubscribeID returns the id the next subscribe declaration will use.
func (c *Channels) NextSubscribeID() (uint8, error) {
	if len(c.subscribe) >= MaxChannels {
		return 0, ErrChannelLimit
	}
	return uint8(len(c.subscribe)), nil
}

// AddPublish records an acknowledged publish declaration.
func (c *Channels) AddPublish(routingKey string, transform uint8) PublishChannel {
	ch := PublishChannel{ID: uint8(len(c.publish)), RoutingKey: routingKey, Transform: transform}
	c.publish = append(c.publish, ch)
	return ch
}

// AddSubscribe records an acknowledged subscribe declaration.
func (c *Channels) AddSubscribe(routingKey string, transform uint8, h Handler) SubscribeChannel {
	ch := SubscribeChannel{ID: uint8(len(c.subscribe)), RoutingKey: routingKey, Transform: transform, Handler: h}
	c.subscribe = append(c.subscribe, ch)
	return ch
}

func (c *Channels) Publish(id uint8) (PublishChannel, bool) {
	if int(id) >= len(c.publish) {
		return PublishChannel{}, false
	}
	return c.publish[id], true
}

func (c *Channels) Subscribe(id uint8) (SubscribeChannel, bool) {
	if int(id) >= len(c.subscribe) {
		return SubscribeChannel{}, false
	}
	return c.subscribe[id], true
}

func (c *Channels) PublishCount() int { return len(c.publish) }

func (c *Channels) SubscribeCount() int { return len(c.subscribe) }

// Dispatch routes a PUB payload to its subscribe handler. It returns false
// when the channel is not declared locally; that is not an error.
func (c *Channels) Dispatch(payload []byte) bool {
	id, data, err := DecodePublish(payload)
	if err != nil {
		return false
	}
	ch, ok := c.Subscribe(id)
	if !ok || ch.Handler == nil {
		return false
	}
	ch.Handler(data)
	return true
}

// Reset forgets every declaration; called when a new registration begins an epoch.
func (c *Channels) Reset() {
	c.publish = nil
	c.subscribe = nil
}
