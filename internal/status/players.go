package status

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxPlayers is the largest player count a countdown status can report.
const MaxPlayers = 12

// NoRoomsStatus is the exact status published when nobody is playing.
const NoRoomsStatus = "There are no active Countdown Rooms."

// ErrUnexpectedStatus is returned when a status string cannot be read as a player count.
var ErrUnexpectedStatus = errors.New("unexpected countdown status")

var playersRe = regexp.MustCompile(`(\d+) players`)

// PlayerCount derives the number of players in countdown rooms from a status
// string, clamped to MaxPlayers.
func PlayerCount(s string) (int, error) {
	if s == NoRoomsStatus {
		return 0, nil
	}
	// plural first so that "11 players" is not read as "1 player"
	if m := playersRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			// only reachable on overflow
			return MaxPlayers, nil
		}
		return min(n, MaxPlayers), nil
	}
	if strings.Contains(s, "1 player") {
		return 1, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnexpectedStatus, s)
}
