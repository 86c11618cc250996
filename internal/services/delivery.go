package services

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	DeliveryManual = "manual"
	DeliveryGPS    = "gps"
)

type DeliveryQuote struct {
	Method string  `json:"method"`
	Fee    float64 `json:"fee"`
}

// DeliveryService prices delivery. Manual addresses pay the flat default;
// the GPS flow quotes a random whole-unit fee within the configured range.
// The GPS fee is not geocoded.
type DeliveryService struct {
	defaultFee float64
	min, max   float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewDeliveryService(defaultFee, min, max float64) *DeliveryService {
	if max < min {
		min, max = max, min
	}
	return &DeliveryService{
		defaultFee: defaultFee,
		min:        min,
		max:        max,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *DeliveryService) Quote(method string) (DeliveryQuote, error) {
	switch normalizeMethod(method) {
	case DeliveryManual:
		return DeliveryQuote{Method: DeliveryManual, Fee: s.defaultFee}, nil
	case DeliveryGPS:
		s.mu.Lock()
		fee := s.min + s.rng.Float64()*(s.max-s.min)
		s.mu.Unlock()
		return DeliveryQuote{Method: DeliveryGPS, Fee: math.Round(fee)}, nil
	}
	return DeliveryQuote{}, ValidationError{Message: "deliveryMethod must be manual or gps"}
}

// Resolve settles the fee charged at checkout. A GPS fee quoted earlier is
// honoured when it lies inside the range; anything else pays the default.
// The quote is not signed, so a client may send any in-range value (the
// minimum, typically). That is accepted: the GPS fee is cosmetic and is
// never geocoded.
func (s *DeliveryService) Resolve(method string, quoted *float64) (float64, error) {
	switch normalizeMethod(method) {
	case DeliveryManual:
		return s.defaultFee, nil
	case DeliveryGPS:
		if quoted != nil && *quoted >= s.min && *quoted <= s.max {
			return *quoted, nil
		}
		return s.defaultFee, nil
	}
	return 0, ValidationError{Message: "deliveryMethod must be manual or gps"}
}

func normalizeMethod(method string) string {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		return DeliveryManual
	}
	return method
}
