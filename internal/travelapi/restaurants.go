// ABOUTME: Typed restaurant operations over the backing restaurants API.
// ABOUTME: Search, details, and table reservations.

package travelapi

import "context"

// RestaurantsAPI exposes the restaurant provider's backing endpoints.
type RestaurantsAPI struct {
	*Client
}

// NewRestaurantsAPI wraps a client for the restaurants backing service.
func NewRestaurantsAPI(c *Client) *RestaurantsAPI {
	return &RestaurantsAPI{Client: c}
}

// SearchRestaurants queries restaurants matching the given search parameters.
func (a *RestaurantsAPI) SearchRestaurants(ctx context.Context, params map[string]any) (map[string]any, error) {
	return a.get(ctx, "/restaurants/search", params)
}

// RestaurantDetails fetches a single restaurant by id.
func (a *RestaurantsAPI) RestaurantDetails(ctx context.Context, restaurantID string) (map[string]any, error) {
	return a.get(ctx, "/restaurants/"+restaurantID, nil)
}

// ReserveTable places a table reservation.
func (a *RestaurantsAPI) ReserveTable(ctx context.Context, restaurantID string, reservation map[string]any) (map[string]any, error) {
	return a.post(ctx, "/restaurants/"+restaurantID+"/reservations", reservation)
}
