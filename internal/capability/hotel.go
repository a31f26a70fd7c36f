// ABOUTME: Hotel capability provider: search, details, availability, booking.
// ABOUTME: Mirrors the flight provider pipeline against the hotels backend.

package capability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/voyager-gateway/internal/apierr"
	"github.com/2389/voyager-gateway/internal/interpreter"
)

// HotelBackend is the slice of the hotels API this provider consumes.
type HotelBackend interface {
	SearchHotels(ctx context.Context, params map[string]any) (map[string]any, error)
	HotelDetails(ctx context.Context, hotelID string) (map[string]any, error)
	CheckAvailability(ctx context.Context, hotelID string, params map[string]any) (map[string]any, error)
	BookRoom(ctx context.Context, hotelID string, booking map[string]any) (map[string]any, error)
}

// HotelProvider handles hotel-related intents.
type HotelProvider struct {
	backend HotelBackend
	interp  interpreter.Interpreter
	logger  *slog.Logger
}

var _ Provider = (*HotelProvider)(nil)

// NewHotelProvider creates the hotel capability.
func NewHotelProvider(backend HotelBackend, interp interpreter.Interpreter, logger *slog.Logger) *HotelProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &HotelProvider{
		backend: backend,
		interp:  interp,
		logger:  logger.With("component", "capability", "provider", "hotel"),
	}
}

func (p *HotelProvider) Name() string { return "hotel" }

func (p *HotelProvider) SupportedIntents() []string {
	return []string{"search_hotels", "hotel_info", "check_availability", "book_hotel"}
}

func (p *HotelProvider) Handle(ctx context.Context, req Request) (*Response, error) {
	p.logger.Info("handling hotel intent", "intent", req.Intent)

	switch req.Intent {
	case "search_hotels":
		return p.search(ctx, req), nil
	case "hotel_info":
		return p.details(ctx, req), nil
	case "check_availability":
		return p.availability(ctx, req), nil
	case "book_hotel":
		return p.book(ctx, req), nil
	default:
		return failure(
			"I'm not sure how to help with that. Would you like to search for hotels?",
			"Search hotels", "Check availability"), nil
	}
}

func (p *HotelProvider) search(ctx context.Context, req Request) *Response {
	params := extractMissing(ctx, p.interp, p.logger, "hotel", req, []string{"location"})
	if str(params["location"]) == "" {
		return failure(
			"Where would you like to stay? Please tell me a city or area.",
			"Search hotels", "View popular hotels")
	}

	payload, err := p.backend.SearchHotels(ctx, params)
	if err != nil {
		return p.callFailure(err, "search hotels")
	}

	hotels, _ := payload["hotels"].([]any)
	if len(hotels) == 0 {
		return &Response{
			Success: true,
			Message: "I couldn't find any hotels matching your criteria. Would you like to try different options?",
			Suggestions: []string{
				"Try different dates", "Change location", "Adjust price range"},
		}
	}

	enhanced := p.interp.Enhance(ctx, "hotel", payload, req.Context)
	return &Response{
		Success:     true,
		Message:     fmt.Sprintf("I found %d hotel(s) in %s.", len(hotels), str(params["location"])),
		Data:        enhanced,
		Suggestions: []string{"View hotel details", "Check availability", "Refine search"},
		ContextPatch: map[string]any{
			"last_intent": req.Intent,
			"location":    params["location"],
		},
	}
}

func (p *HotelProvider) details(ctx context.Context, req Request) *Response {
	hotelID := req.StringParam("hotel_id")
	if hotelID == "" {
		return failure(
			"Please specify which hotel you'd like to know more about.",
			"Search hotels", "View popular hotels")
	}

	payload, err := p.backend.HotelDetails(ctx, hotelID)
	if err != nil {
		return p.callFailure(err, "look up that hotel")
	}

	enhanced := p.interp.Enhance(ctx, "hotel", payload, req.Context)
	return &Response{
		Success:      true,
		Message:      "Here are the hotel details.",
		Data:         map[string]any{"hotel": enhanced},
		Suggestions:  []string{"Check availability", "View rooms", "View similar hotels"},
		ContextPatch: map[string]any{"last_intent": req.Intent},
	}
}

func (p *HotelProvider) availability(ctx context.Context, req Request) *Response {
	hotelID := req.StringParam("hotel_id")
	checkIn := req.StringParam("check_in")
	checkOut := req.StringParam("check_out")
	if hotelID == "" || checkIn == "" || checkOut == "" {
		return failure(
			"Please provide the hotel and your check-in and check-out dates.",
			"Search hotels first", "View popular hotels")
	}

	payload, err := p.backend.CheckAvailability(ctx, hotelID, map[string]any{
		"check_in":  checkIn,
		"check_out": checkOut,
		"guests":    req.IntParam("guests", 1),
	})
	if err != nil {
		return p.callFailure(err, "check availability")
	}

	available, _ := payload["is_available"].(bool)
	msg := fmt.Sprintf("Good news! Rooms are available from %s to %s.", checkIn, checkOut)
	suggestions := []string{"Book this hotel", "View room options"}
	if !available {
		msg = "Sorry, no rooms are available for those dates."
		suggestions = []string{"Try different dates", "Search different hotels"}
	}

	return &Response{
		Success:      true,
		Message:      msg,
		Data:         map[string]any{"availability": payload},
		Suggestions:  suggestions,
		ContextPatch: map[string]any{"last_intent": req.Intent},
	}
}

func (p *HotelProvider) book(ctx context.Context, req Request) *Response {
	hotelID := req.StringParam("hotel_id")
	checkIn := req.StringParam("check_in")
	checkOut := req.StringParam("check_out")
	if hotelID == "" || checkIn == "" || checkOut == "" {
		return failure(
			"To book, I need the hotel and your check-in and check-out dates.",
			"Check availability first", "Search hotels")
	}

	payload, err := p.backend.BookRoom(ctx, hotelID, map[string]any{
		"check_in":  checkIn,
		"check_out": checkOut,
		"guests":    req.IntParam("guests", 1),
		"room_type": req.StringParam("room_type"),
	})
	if err != nil {
		return p.callFailure(err, "book the room")
	}

	msg := "Your room is booked."
	if conf := str(payload["confirmation"]); conf != "" {
		msg = fmt.Sprintf("Your room is booked. Confirmation number: %s.", conf)
	}

	return &Response{
		Success:     true,
		Message:     msg,
		Data:        map[string]any{"booking": payload},
		Suggestions: []string{"View booking details", "Search restaurants nearby"},
		ContextPatch: map[string]any{
			"last_intent":        req.Intent,
			"last_hotel_booking": payload["confirmation"],
		},
	}
}

func (p *HotelProvider) callFailure(err error, action string) *Response {
	p.logger.Warn("hotel backend call failed", "error", err)

	switch {
	case apierr.IsNotFound(err):
		return failure(
			"Sorry, I couldn't find that hotel.",
			"Search hotels", "View popular hotels")
	case apierr.IsConnectionExhausted(err):
		return failure(
			fmt.Sprintf("I'm having trouble reaching the hotel service to %s. Please try again in a moment.", action),
			"Try again")
	default:
		return failure(
			fmt.Sprintf("There was a problem trying to %s. Please review your request and try again.", action),
			"Try again", "Check your input")
	}
}
