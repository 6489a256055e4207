package domain

const (
	MinQuantity = 1
	MaxQuantity = 10
)

type CartItem struct {
	ID       string  `json:"id"`
	EventID  string  `json:"eventId"`
	Title    string  `json:"title"`
	Image    string  `json:"image,omitempty"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

func (i CartItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

type Cart struct {
	SessionID string     `json:"sessionId"`
	Items     []CartItem `json:"items"`
}

func (c Cart) Subtotal() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.LineTotal()
	}
	return total
}

func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// ClampQuantity keeps a requested quantity within what the cart allows.
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

type CartAdd struct {
	SessionID string `json:"sessionId"`
	EventID   string `json:"eventId"`
	Quantity  int    `json:"quantity"`
}
