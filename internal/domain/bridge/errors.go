package bridge

import "errors"

var (
	// ErrUnknownCommand is returned for a command or message name outside
	// the closed set the bridge understands.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUnsupportedArity is returned when a command is sent with the wrong
	// number of arguments.
	ErrUnsupportedArity = errors.New("unsupported number of arguments")

	// ErrUnknownFeed is returned for feeds that are not registered, including
	// platform-specific feeds on other platforms.
	ErrUnknownFeed = errors.New("unknown feed")
)
