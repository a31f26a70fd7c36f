// ABOUTME: Typed flight operations over the backing flights API.
// ABOUTME: Search, details, seat availability, and live status lookups.

package travelapi

import "context"

// FlightsAPI exposes the flight provider's backing endpoints.
type FlightsAPI struct {
	*Client
}

// NewFlightsAPI wraps a client for the flights backing service.
func NewFlightsAPI(c *Client) *FlightsAPI {
	return &FlightsAPI{Client: c}
}

// SearchFlights queries flights matching the given search parameters.
func (a *FlightsAPI) SearchFlights(ctx context.Context, params map[string]any) (map[string]any, error) {
	return a.get(ctx, "/flights/search", params)
}

// FlightDetails fetches a single flight by id.
func (a *FlightsAPI) FlightDetails(ctx context.Context, flightID string) (map[string]any, error) {
	return a.get(ctx, "/flights/"+flightID, nil)
}

// CheckAvailability checks seat availability on a flight.
func (a *FlightsAPI) CheckAvailability(ctx context.Context, flightID string, params map[string]any) (map[string]any, error) {
	return a.get(ctx, "/flights/"+flightID+"/availability", params)
}

// FlightStatus fetches the live status of a flight.
func (a *FlightsAPI) FlightStatus(ctx context.Context, flightID string) (map[string]any, error) {
	return a.get(ctx, "/flights/"+flightID+"/status", nil)
}
