// Package strategy provides the ways a car can be driven.
//
// Every strategy implements engine.MoveStrategy and produces one
// acceleration per turn:
//   - DoNotMove never accelerates
//   - User replays accelerations pushed from outside (API or prompt)
//   - MoveList replays a prerecorded list
//   - PathFollower steers through a list of waypoints
//   - PathFinder plans a route with FindPath and SmoothPath and follows it
//
// Strategies can be captured with Snapshot and rebuilt with FromSpec, which
// is how sessions survive eviction from memory.
package strategy
