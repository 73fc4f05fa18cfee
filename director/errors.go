package director

import "errors"

// ErrModuleInitFailure wraps a panic or error raised by a user Actor
// constructor during RegisterActor (director.py's try/except around actor
// construction).
var ErrModuleInitFailure = errors.New("director: actor construction failed")

// ErrNoSuchModule is returned when an operation names an actor that was
// never registered.
var ErrNoSuchModule = errors.New("director: no such actor")

// ErrAlreadyStarted is returned by wiring operations attempted after Start
// has already run.
var ErrAlreadyStarted = errors.New("director: already started")

// ErrDuplicateModule is returned by RegisterActor when name is already in
// use.
var ErrDuplicateModule = errors.New("director: duplicate actor name")
