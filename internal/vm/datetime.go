package vm

import "time"

// civilTime is the calendar breakdown of a Unix timestamp, computed in
// UTC so datetime.* builtins are deterministic across hosts.
type civilTime struct {
	year, month, day, hour, minute, second int
}

func unixToCivil(unixSeconds int64) civilTime {
	t := time.Unix(unixSeconds, 0).UTC()
	return civilTime{
		year:   t.Year(),
		month:  int(t.Month()),
		day:    t.Day(),
		hour:   t.Hour(),
		minute: t.Minute(),
		second: t.Second(),
	}
}

// parseUnixRFC3339 parses an RFC 3339 timestamp into Unix seconds,
// returning 0 if the string does not parse (the semantic analyzer only
// guarantees the argument is a string, not that it is well-formed).
func parseUnixRFC3339(s string) int64 {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0
	}
	return t.Unix()
}
