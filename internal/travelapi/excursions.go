// ABOUTME: Typed excursion operations over the backing excursions API.
// ABOUTME: Search, details, booking, and booking cancellation.

package travelapi

import "context"

// ExcursionsAPI exposes the excursion provider's backing endpoints.
type ExcursionsAPI struct {
	*Client
}

// NewExcursionsAPI wraps a client for the excursions backing service.
func NewExcursionsAPI(c *Client) *ExcursionsAPI {
	return &ExcursionsAPI{Client: c}
}

// SearchExcursions queries excursions matching the given search parameters.
func (a *ExcursionsAPI) SearchExcursions(ctx context.Context, params map[string]any) (map[string]any, error) {
	return a.get(ctx, "/excursions/search", params)
}

// ExcursionDetails fetches a single excursion by id.
func (a *ExcursionsAPI) ExcursionDetails(ctx context.Context, excursionID string) (map[string]any, error) {
	return a.get(ctx, "/excursions/"+excursionID, nil)
}

// BookExcursion places a booking for an excursion.
func (a *ExcursionsAPI) BookExcursion(ctx context.Context, excursionID string, booking map[string]any) (map[string]any, error) {
	return a.post(ctx, "/excursions/"+excursionID+"/bookings", booking)
}

// CancelBooking cancels an existing excursion booking.
func (a *ExcursionsAPI) CancelBooking(ctx context.Context, bookingID string) (map[string]any, error) {
	return a.del(ctx, "/bookings/"+bookingID)
}
