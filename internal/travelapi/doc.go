// ABOUTME: Package documentation for travelapi
// ABOUTME: Describes the backing REST client layer shared by capability providers

// Package travelapi implements REST clients for the four travel backing
// services: flights, hotels, restaurants, and excursions.
//
// Every round trip goes through a resilient caller, so connection failures
// and 5xx responses retry with exponential backoff while 4xx responses fail
// immediately. A 404 is classified as not-found rather than a fault, letting
// providers turn it into a conversational answer.
package travelapi
