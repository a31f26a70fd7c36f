// ABOUTME: Typed hotel operations over the backing hotels API.
// ABOUTME: Search, details, room availability, and booking.

package travelapi

import "context"

// HotelsAPI exposes the hotel provider's backing endpoints.
type HotelsAPI struct {
	*Client
}

// NewHotelsAPI wraps a client for the hotels backing service.
func NewHotelsAPI(c *Client) *HotelsAPI {
	return &HotelsAPI{Client: c}
}

// SearchHotels queries hotels matching the given search parameters.
func (a *HotelsAPI) SearchHotels(ctx context.Context, params map[string]any) (map[string]any, error) {
	return a.get(ctx, "/hotels/search", params)
}

// HotelDetails fetches a single hotel by id.
func (a *HotelsAPI) HotelDetails(ctx context.Context, hotelID string) (map[string]any, error) {
	return a.get(ctx, "/hotels/"+hotelID, nil)
}

// CheckAvailability checks room availability for a stay window.
func (a *HotelsAPI) CheckAvailability(ctx context.Context, hotelID string, params map[string]any) (map[string]any, error) {
	return a.get(ctx, "/hotels/"+hotelID+"/availability", params)
}

// BookRoom places a booking at the hotel.
func (a *HotelsAPI) BookRoom(ctx context.Context, hotelID string, booking map[string]any) (map[string]any, error) {
	return a.post(ctx, "/hotels/"+hotelID+"/bookings", booking)
}
