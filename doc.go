// Package clientcore is the headless client core of the FoodBridge
// peer-to-peer food-donation marketplace.
//
// The module provides:
//   - Proximity filtering and ranking of surplus-food listings
//   - A request ledger gating one request per listing per user
//   - Find-or-create conversation resolution per participant pair
//   - Per-conversation message sync via push subscription with a
//     polling fallback
//   - Independent notification badge aggregation
//
// The remote persistence service, authentication, and UI rendering are
// external collaborators reached through the backend API contract.
package clientcore
