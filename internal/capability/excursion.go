// ABOUTME: Excursion capability provider: search, details, booking, cancellation.
// ABOUTME: The only provider with a cancellation path against the bookings resource.

package capability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/voyager-gateway/internal/apierr"
	"github.com/2389/voyager-gateway/internal/interpreter"
)

// ExcursionBackend is the slice of the excursions API this provider consumes.
type ExcursionBackend interface {
	SearchExcursions(ctx context.Context, params map[string]any) (map[string]any, error)
	ExcursionDetails(ctx context.Context, excursionID string) (map[string]any, error)
	BookExcursion(ctx context.Context, excursionID string, booking map[string]any) (map[string]any, error)
	CancelBooking(ctx context.Context, bookingID string) (map[string]any, error)
}

// ExcursionProvider handles excursion-related intents.
type ExcursionProvider struct {
	backend ExcursionBackend
	interp  interpreter.Interpreter
	logger  *slog.Logger
}

var _ Provider = (*ExcursionProvider)(nil)

// NewExcursionProvider creates the excursion capability.
func NewExcursionProvider(backend ExcursionBackend, interp interpreter.Interpreter, logger *slog.Logger) *ExcursionProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcursionProvider{
		backend: backend,
		interp:  interp,
		logger:  logger.With("component", "capability", "provider", "excursion"),
	}
}

func (p *ExcursionProvider) Name() string { return "excursion" }

func (p *ExcursionProvider) SupportedIntents() []string {
	return []string{"search_excursions", "excursion_info", "book_excursion", "cancel_booking"}
}

func (p *ExcursionProvider) Handle(ctx context.Context, req Request) (*Response, error) {
	p.logger.Info("handling excursion intent", "intent", req.Intent)

	switch req.Intent {
	case "search_excursions":
		return p.search(ctx, req), nil
	case "excursion_info":
		return p.details(ctx, req), nil
	case "book_excursion":
		return p.book(ctx, req), nil
	case "cancel_booking":
		return p.cancel(ctx, req), nil
	default:
		return failure(
			"I'm not sure how to help with that. Would you like to browse activities?",
			"Search excursions", "Popular activities"), nil
	}
}

func (p *ExcursionProvider) search(ctx context.Context, req Request) *Response {
	params := extractMissing(ctx, p.interp, p.logger, "excursion", req, []string{"location"})
	if str(params["location"]) == "" {
		return failure(
			"Where are you looking for activities? Please tell me a location.",
			"Search excursions", "Popular activities")
	}

	payload, err := p.backend.SearchExcursions(ctx, params)
	if err != nil {
		return p.callFailure(err, "search excursions")
	}

	excursions, _ := payload["excursions"].([]any)
	if len(excursions) == 0 {
		return &Response{
			Success:     true,
			Message:     "I couldn't find any excursions matching your criteria.",
			Suggestions: []string{"Try different dates", "Browse all categories"},
		}
	}

	enhanced := p.interp.Enhance(ctx, "excursion", payload, req.Context)
	return &Response{
		Success:     true,
		Message:     fmt.Sprintf("I found %d excursion(s) in %s.", len(excursions), str(params["location"])),
		Data:        enhanced,
		Suggestions: []string{"View details", "Book an excursion", "Refine search"},
		ContextPatch: map[string]any{
			"last_intent": req.Intent,
			"location":    params["location"],
		},
	}
}

func (p *ExcursionProvider) details(ctx context.Context, req Request) *Response {
	excursionID := req.StringParam("excursion_id")
	if excursionID == "" {
		return failure(
			"Please specify which excursion you'd like to know more about.",
			"Search excursions", "Popular activities")
	}

	payload, err := p.backend.ExcursionDetails(ctx, excursionID)
	if err != nil {
		return p.callFailure(err, "look up that excursion")
	}

	enhanced := p.interp.Enhance(ctx, "excursion", payload, req.Context)
	return &Response{
		Success:      true,
		Message:      "Here are the excursion details.",
		Data:         map[string]any{"excursion": enhanced},
		Suggestions:  []string{"Book this excursion", "View similar activities"},
		ContextPatch: map[string]any{"last_intent": req.Intent},
	}
}

func (p *ExcursionProvider) book(ctx context.Context, req Request) *Response {
	excursionID := req.StringParam("excursion_id")
	date := req.StringParam("date")
	if excursionID == "" || date == "" {
		return failure(
			"To book, I need the excursion and a date.",
			"Search excursions first", "View availability")
	}

	payload, err := p.backend.BookExcursion(ctx, excursionID, map[string]any{
		"date":         date,
		"participants": req.IntParam("participants", 1),
	})
	if err != nil {
		return p.callFailure(err, "book the excursion")
	}

	msg := "Your excursion is booked."
	if conf := str(payload["confirmation"]); conf != "" {
		msg = fmt.Sprintf("Your excursion is booked. Confirmation number: %s.", conf)
	}

	return &Response{
		Success:     true,
		Message:     msg,
		Data:        map[string]any{"booking": payload},
		Suggestions: []string{"View booking details", "Search restaurants nearby"},
		ContextPatch: map[string]any{
			"last_intent":  req.Intent,
			"last_booking": payload["confirmation"],
		},
	}
}

func (p *ExcursionProvider) cancel(ctx context.Context, req Request) *Response {
	bookingID := req.StringParam("booking_id")
	if bookingID == "" {
		bookingID = str(req.Context["last_booking"])
	}
	if bookingID == "" {
		return failure(
			"Please provide the booking reference you'd like to cancel.",
			"View my bookings")
	}

	payload, err := p.backend.CancelBooking(ctx, bookingID)
	if err != nil {
		return p.callFailure(err, "cancel the booking")
	}

	return &Response{
		Success:     true,
		Message:     fmt.Sprintf("Booking %s has been cancelled.", bookingID),
		Data:        map[string]any{"cancellation": payload},
		Suggestions: []string{"Search excursions", "Popular activities"},
		ContextPatch: map[string]any{
			"last_intent":  req.Intent,
			"last_booking": nil,
		},
	}
}

func (p *ExcursionProvider) callFailure(err error, action string) *Response {
	p.logger.Warn("excursion backend call failed", "error", err)

	switch {
	case apierr.IsNotFound(err):
		return failure(
			"Sorry, I couldn't find that excursion or booking.",
			"Search excursions", "Popular activities")
	case apierr.IsConnectionExhausted(err):
		return failure(
			fmt.Sprintf("I'm having trouble reaching the excursion service to %s. Please try again in a moment.", action),
			"Try again")
	default:
		return failure(
			fmt.Sprintf("There was a problem trying to %s. Please review your request and try again.", action),
			"Try again", "Check your input")
	}
}
