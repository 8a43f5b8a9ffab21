// Package engine provides the core simulation of the racetrack game.
//
// The engine package implements:
//   - Integer vectors and the nine acceleration directions
//   - Track parsing, cell classification and rendering
//   - Line rasterisation used for collision detection
//   - Finish line rules (correct crossing, wrong-way penalty)
//   - The turn protocol and elimination based win detection
//
// Core Types:
//
// The Engine interface defines the main contract for race operations,
// implemented by GameEngine. Track holds the immutable terrain and the cars,
// RaceState is the serialisable snapshot used by the service and persistence
// layers.
//
// Usage:
//
//	track, err := engine.LoadTrackFile("tracks/quarter-mile.txt")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	race, err := engine.NewEngine(track)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := race.DoCarTurn(engine.Right)
//	if err == nil && race.Winner() == engine.NoWinner {
//		err = race.SwitchToNextActiveCar()
//	}
//
// Race Rules:
//
// Every turn the current car adds an acceleration to its velocity and moves
// by the new velocity. Hitting a wall or another car crashes it. Crossing a
// finish cell in its direction wins, crossing against it sets a penalty that
// has to be cleared by a correct crossing first. When all but one car have
// crashed, the remaining car wins.
package engine
