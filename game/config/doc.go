// Package config provides the track catalog and runtime settings of racetrack.
//
// The config package handles:
//   - Loading tracks, move lists and path follower files by name
//   - Validating and saving tracks
//   - Reading settings from defaults, racetrack.json and the environment
//
// File Formats:
//
// Every catalog file is plain text with the .txt extension and lives in its
// own directory (tracks, moves and follower by default). A track file holds
// one row per line:
//
//	##########
//	#  a  >  #
//	#  b  >  #
//	##########
//
// '#' is a wall, ' ' is track, '^' 'v' '<' '>' are finish cells that must be
// crossed in the shown direction and any other character is a car. A move
// list holds one direction per line (UP_RIGHT, NONE, ...). A path follower
// file holds one waypoint per line in the form (X:5, Y:-15).
//
// Usage:
//
//	catalog, err := config.NewManager("tracks", "moves", "follower")
//	if err != nil {
//		log.Fatal(err)
//	}
//	track, err := catalog.LoadTrack("oval")
//
//	settings, err := config.LoadSettings()
//	fmt.Println(settings.Server.Addr())
package config
